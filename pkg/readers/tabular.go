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
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/waycodes/curationgym/pkg/document"
)

// TabularReader reads a newline-delimited JSON dataset (spec §6): each line
// is one record, the configured text field becomes Document.Text, an
// optional id field becomes Document.ID (auto-generated from line number
// otherwise), and every other column is carried into Metadata.Extra.
type TabularReader struct {
	scanner   *bufio.Scanner
	closer    io.Closer
	textField string
	idField   string
	sourceTag string
	lineNo    int64
	stats     *Stats
}

// TabularOptions configures field projection for a TabularReader.
type TabularOptions struct {
	// TextField names the JSON key holding document text. Defaults to "text".
	TextField string
	// IDField names the JSON key holding a stable id, if present. Defaults to "id".
	IDField string
	// SourceTag is stamped into every document's metadata.source.
	SourceTag string
}

// NewTabularReader wraps r as a line-delimited JSON reader.
func NewTabularReader(r io.Reader, closer io.Closer, opts TabularOptions) *TabularReader {
	if opts.TextField == "" {
		opts.TextField = "text"
	}
	if opts.IDField == "" {
		opts.IDField = "id"
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &TabularReader{
		scanner:   scanner,
		closer:    closer,
		textField: opts.TextField,
		idField:   opts.IDField,
		sourceTag: opts.SourceTag,
		stats:     newStats(),
	}
}

// Stats returns the accumulated read statistics.
func (t *TabularReader) Stats() Stats { return *t.stats }

// Next parses the next non-blank line as a JSON object and projects it into
// a Document. Lines that fail to parse, or that lack the text field, are
// skipped and counted rather than failing the read.
func (t *TabularReader) Next() (document.Document, error) {
	for t.scanner.Scan() {
		t.lineNo++
		line := strings.TrimSpace(t.scanner.Text())
		if line == "" {
			continue
		}

		var row map[string]any
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			t.stats.RecordsRead++
			t.stats.skip("invalid_json")
			continue
		}
		t.stats.RecordsRead++

		text, ok := row[t.textField].(string)
		if !ok || text == "" {
			t.stats.skip("missing_text_field")
			continue
		}
		delete(row, t.textField)

		id := ""
		if t.idField != "" {
			if raw, ok := row[t.idField]; ok {
				id = fmt.Sprintf("%v", raw)
				delete(row, t.idField)
			}
		}
		if id == "" {
			id = strconv.FormatInt(t.lineNo, 10)
		}

		meta := document.Metadata{Source: t.sourceTag}
		if url, ok := row["url"].(string); ok {
			meta.URL = url
			delete(row, "url")
		}
		if dump, ok := row["dump"].(string); ok {
			meta.Dump = dump
			delete(row, "dump")
		}
		if len(row) > 0 {
			meta.Extra = row
		}

		return document.Document{ID: id, Text: text, Metadata: meta}, nil
	}
	if err := t.scanner.Err(); err != nil {
		return document.Document{}, fmt.Errorf("readers: tabular scan: %w", err)
	}
	return document.Document{}, io.EOF
}

// Close releases the underlying stream.
func (t *TabularReader) Close() error {
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}
