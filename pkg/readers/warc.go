// Copyright 2026 The CurationGym Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package readers

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/waycodes/curationgym/pkg/document"
)

// warcRecord is one low-level WARC container record: header fields plus
// the raw content block, before any WARC-Type-specific unwrapping.
type warcRecord struct {
	fields  map[string]string
	content []byte
}

// warcScanner reads successive WARC records off a stream. WARC records are
// separated by a blank line after the content block; the version line
// ("WARC/1.0") starts the next record.
type warcScanner struct {
	r *bufio.Reader
}

func newWARCScanner(r io.Reader) *warcScanner {
	return &warcScanner{r: bufio.NewReaderSize(r, 64*1024)}
}

func (s *warcScanner) next() (*warcRecord, error) {
	// Skip blank lines until the version line that opens a record.
	for {
		line, err := s.r.ReadString('\n')
		if err != nil {
			if line == "" {
				return nil, io.EOF
			}
		}
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" {
			if err != nil {
				return nil, io.EOF
			}
			continue
		}
		if !strings.HasPrefix(trimmed, "WARC/") {
			return nil, fmt.Errorf("readers: expected WARC version line, got %q", trimmed)
		}
		break
	}

	fields := make(map[string]string)
	for {
		line, err := s.r.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" {
			break
		}
		if idx := strings.Index(trimmed, ":"); idx != -1 {
			key := strings.TrimSpace(trimmed[:idx])
			val := strings.TrimSpace(trimmed[idx+1:])
			fields[key] = val
		}
		if err != nil {
			break
		}
	}

	length, _ := strconv.Atoi(fields["Content-Length"])
	content := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(s.r, content); err != nil {
			return nil, fmt.Errorf("readers: short WARC content block: %w", err)
		}
	}

	// Consume the blank-line record separator (up to two CRLFs).
	for i := 0; i < 2; i++ {
		peeked, err := s.r.Peek(2)
		if err != nil || string(peeked) != "\r\n" {
			break
		}
		_, _ = s.r.Discard(2)
	}

	return &warcRecord{fields: fields, content: content}, nil
}

// splitHTTPPayload strips a leading HTTP status line + header block from a
// WARC "response" record's content, returning the HTML payload. WET
// "conversion" records carry no HTTP envelope and pass through unchanged.
func splitHTTPPayload(content []byte) []byte {
	sep := []byte("\r\n\r\n")
	if idx := indexBytes(content, sep); idx != -1 {
		return content[idx+len(sep):]
	}
	sepLF := []byte("\n\n")
	if idx := indexBytes(content, sepLF); idx != -1 {
		return content[idx+len(sepLF):]
	}
	return content
}

func indexBytes(haystack, needle []byte) int {
	return strings.Index(string(haystack), string(needle))
}

// WARCReader reads WARC or WET containers and yields one document per
// "response" (WARC) or "conversion" (WET) record, per spec §6. Every other
// WARC record type (warcinfo, request, metadata) is skipped.
type WARCReader struct {
	scanner  *warcScanner
	closer   io.Closer
	isWET    bool
	dumpName string
	stats    *Stats
}

// NewWARCReader wraps r as a WARC reader. isWET selects WET semantics
// (body is pre-extracted plain text; record type "conversion") versus raw
// WARC semantics (body is HTML after an HTTP envelope; record type
// "response"). dumpName is stamped into every document's metadata.dump.
func NewWARCReader(r io.Reader, closer io.Closer, isWET bool, dumpName string) *WARCReader {
	return &WARCReader{
		scanner:  newWARCScanner(r),
		closer:   closer,
		isWET:    isWET,
		dumpName: dumpName,
		stats:    newStats(),
	}
}

// Stats returns the accumulated read statistics.
func (w *WARCReader) Stats() Stats { return *w.stats }

func (w *WARCReader) wantedType() string {
	if w.isWET {
		return "conversion"
	}
	return "response"
}

// Next returns the next document-bearing record, skipping non-matching
// record types until one is found or the stream ends. A malformed record
// (bad version line, short content block) is skipped and recorded as a
// stats warning rather than ending the stream, per spec §7.
func (w *WARCReader) Next() (document.Document, error) {
	for {
		rec, err := w.scanner.next()
		if err != nil {
			if err == io.EOF {
				return document.Document{}, io.EOF
			}
			w.stats.skip("malformed_record")
			continue
		}
		w.stats.RecordsRead++

		if rec.fields["WARC-Type"] != w.wantedType() {
			continue
		}

		id := rec.fields["WARC-Record-ID"]
		uri := rec.fields["WARC-Target-URI"]
		if id == "" || len(rec.content) == 0 {
			w.stats.skip("missing_id_or_empty_body")
			continue
		}

		body := rec.content
		if !w.isWET {
			body = splitHTTPPayload(body)
		}
		if len(body) == 0 {
			w.stats.skip("empty_payload_after_http_split")
			continue
		}

		return document.Document{
			ID:   strings.Trim(id, "<>"),
			Text: string(body),
			Metadata: document.Metadata{
				Source: w.wantedType(),
				Dump:   w.dumpName,
				URL:    uri,
			},
		}, nil
	}
}

// Close releases the underlying stream.
func (w *WARCReader) Close() error {
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}
