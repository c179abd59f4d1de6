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
package main

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/waycodes/curationgym/pkg/readers"
)

// openSource opens src and wraps it as the right readers.DocumentReader,
// selecting WARC/WET/tabular semantics from src.Format or, if unset, from
// the file extension (spec §6's three input record families). A ".gz"
// suffix transparently decompresses.
func openSource(src InputSource) (readers.DocumentReader, error) {
	f, err := os.Open(src.Path) //nolint:gosec // operator-supplied input path
	if err != nil {
		return nil, fmt.Errorf("open input %q: %w", src.Path, err)
	}

	name := src.Path
	var r io.Reader = f
	if strings.HasSuffix(name, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("open gzip input %q: %w", src.Path, err)
		}
		r = gz
		name = strings.TrimSuffix(name, ".gz")
	}

	format := src.Format
	if format == "" {
		format = inferFormat(name)
	}

	dump := src.Dump
	if dump == "" {
		dump = filepath.Base(src.Path)
	}

	switch format {
	case "wet":
		return readers.NewWARCReader(r, f, true, dump), nil
	case "warc":
		return readers.NewWARCReader(r, f, false, dump), nil
	case "tabular":
		return readers.NewTabularReader(r, f, readers.TabularOptions{SourceTag: dump}), nil
	default:
		_ = f.Close()
		return nil, fmt.Errorf("input %q: cannot infer format, set inputs[].format explicitly", src.Path)
	}
}

func inferFormat(name string) string {
	switch {
	case strings.HasSuffix(name, ".warc"):
		return "warc"
	case strings.HasSuffix(name, ".wet"):
		return "wet"
	case strings.HasSuffix(name, ".jsonl"), strings.HasSuffix(name, ".ndjson"):
		return "tabular"
	default:
		return ""
	}
}
