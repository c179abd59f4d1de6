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
// Package readers implements the source adapters from spec §6: WARC/WET
// web-crawl containers and tabular (JSONL-backed) datasets. Every adapter
// produces the same document.Document stream so the rest of the pipeline
// never special-cases the source format.
package readers

import (
	"errors"
	"io"

	"github.com/waycodes/curationgym/pkg/document"
)

// ErrDone is returned by Next once a reader is exhausted. Callers should
// compare with errors.Is, not ==, since some readers wrap io.EOF.
var ErrDone = io.EOF

// DocumentReader streams documents one at a time from an underlying source.
// Implementations must be safe to use from a single goroutine; the pipeline
// fans a reader's output out to worker pools downstream, not the reader
// itself.
type DocumentReader interface {
	// Next returns the next document, or ErrDone when the source is
	// exhausted. Malformed individual records are skipped internally and
	// reported through stats rather than failing the whole read.
	Next() (document.Document, error)

	// Close releases any underlying file handles.
	Close() error
}

// Stats accumulates counts a reader gathers while scanning its source, for
// the run's ingestion report.
type Stats struct {
	RecordsRead     int64
	RecordsSkipped  int64
	SkipReasons     map[string]int64
}

func newStats() *Stats {
	return &Stats{SkipReasons: make(map[string]int64)}
}

func (s *Stats) skip(reason string) {
	s.RecordsSkipped++
	s.SkipReasons[reason]++
}

// IsDone reports whether err signals a cleanly exhausted reader.
func IsDone(err error) bool {
	return errors.Is(err, ErrDone)
}

// Drain reads every remaining document from r, invoking fn for each. It
// stops at the first non-ErrDone error.
func Drain(r DocumentReader, fn func(document.Document) error) error {
	for {
		doc, err := r.Next()
		if IsDone(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
}
