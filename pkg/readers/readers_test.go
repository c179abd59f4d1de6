package readers

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildWETRecord(id, uri, text string) string {
	body := text
	var b strings.Builder
	b.WriteString("WARC/1.0\r\n")
	b.WriteString("WARC-Type: conversion\r\n")
	b.WriteString("WARC-Record-ID: <" + id + ">\r\n")
	b.WriteString("WARC-Target-URI: " + uri + "\r\n")
	b.WriteString("Content-Length: " + itoa(len(body)) + "\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n\r\n")
	return b.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func TestWARCReaderReadsWETConversionRecords(t *testing.T) {
	raw := buildWETRecord("rec-1", "https://example.com/a", "hello world") +
		buildWETRecord("rec-2", "https://example.com/b", "second document")

	r := NewWARCReader(strings.NewReader(raw), nil, true, "CC-MAIN-2024-01")

	doc1, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, "rec-1", doc1.ID)
	require.Equal(t, "hello world", doc1.Text)
	require.Equal(t, "https://example.com/a", doc1.Metadata.URL)
	require.Equal(t, "CC-MAIN-2024-01", doc1.Metadata.Dump)

	doc2, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, "second document", doc2.Text)

	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestWARCReaderSkipsNonMatchingRecordType(t *testing.T) {
	var b strings.Builder
	b.WriteString("WARC/1.0\r\n")
	b.WriteString("WARC-Type: warcinfo\r\n")
	b.WriteString("Content-Length: 4\r\n\r\n")
	b.WriteString("xxxx\r\n\r\n")
	b.WriteString(buildWETRecord("rec-1", "https://example.com", "kept"))

	r := NewWARCReader(strings.NewReader(b.String()), nil, true, "")
	doc, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, "kept", doc.Text)
}

func TestWARCReaderStripsHTTPEnvelopeForResponseRecords(t *testing.T) {
	payload := "<html><body>hi</body></html>"
	httpBlock := "HTTP/1.1 200 OK\r\nContent-Type: text/html\r\n\r\n" + payload
	var b strings.Builder
	b.WriteString("WARC/1.0\r\n")
	b.WriteString("WARC-Type: response\r\n")
	b.WriteString("WARC-Record-ID: <rec-1>\r\n")
	b.WriteString("WARC-Target-URI: https://example.com\r\n")
	b.WriteString("Content-Length: " + itoa(len(httpBlock)) + "\r\n\r\n")
	b.WriteString(httpBlock)
	b.WriteString("\r\n\r\n")

	r := NewWARCReader(strings.NewReader(b.String()), nil, false, "")
	doc, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, payload, doc.Text)
}

func TestTabularReaderProjectsFields(t *testing.T) {
	data := `{"text":"doc one","id":"a1","url":"https://x.test","lang":"en"}
{"text":"doc two"}
not json
{"id":"skip-me"}
`
	r := NewTabularReader(strings.NewReader(data), nil, TabularOptions{SourceTag: "dataset-x"})

	doc1, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, "a1", doc1.ID)
	require.Equal(t, "doc one", doc1.Text)
	require.Equal(t, "https://x.test", doc1.Metadata.URL)
	require.Equal(t, "dataset-x", doc1.Metadata.Source)
	require.Equal(t, "en", doc1.Metadata.Extra["lang"])

	doc2, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, "doc two", doc2.Text)
	require.Equal(t, "2", doc2.ID)

	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)

	stats := r.Stats()
	require.Equal(t, int64(2), stats.RecordsSkipped)
}
