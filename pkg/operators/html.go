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
package operators

import (
	"regexp"
	"strings"

	"github.com/waycodes/curationgym/pkg/document"
)

var (
	scriptStylePattern = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	tagPattern         = regexp.MustCompile(`(?s)<[^>]+>`)
	whitespacePattern  = regexp.MustCompile(`[ \t]+`)
	blankLinePattern   = regexp.MustCompile(`\n{3,}`)
)

// ExtractText builds the HTML→text extraction filter from spec §4.1: it
// rejects when the extracted text length is below minExtractedSize,
// otherwise annotates original_html_length / extracted_text_length /
// extraction_ratio and replaces Text with the extraction.
//
// No HTML-parsing library is wired into this module's dependency set (the
// retrieval pack's teacher and siblings use go-tree-sitter for source code,
// not markup); a tag-stripping regexp is the stdlib-adjacent fallback,
// documented in DESIGN.md.
func ExtractText(minExtractedSize int) Filter {
	return NewFilter("html_extract", func(doc document.Document) (document.Document, bool, string) {
		out := doc.Clone()
		originalLen := len(doc.Text)

		extracted := scriptStylePattern.ReplaceAllString(doc.Text, " ")
		extracted = tagPattern.ReplaceAllString(extracted, " ")
		extracted = htmlUnescape(extracted)
		extracted = whitespacePattern.ReplaceAllString(extracted, " ")
		extracted = blankLinePattern.ReplaceAllString(extracted, "\n\n")
		extracted = strings.TrimSpace(extracted)

		out.Text = extracted
		extractedLen := len(extracted)

		ratio := 0.0
		if originalLen > 0 {
			ratio = float64(extractedLen) / float64(originalLen)
		}
		if out.Metadata.Extra == nil {
			out.Metadata.Extra = map[string]any{}
		}
		out.Metadata.Extra["original_html_length"] = originalLen
		out.Metadata.Extra["extracted_text_length"] = extractedLen
		out.Metadata.Extra["extraction_ratio"] = ratio

		if extractedLen < minExtractedSize {
			return out, false, "extracted_too_short"
		}
		return out, true, ""
	})
}

var htmlEntities = map[string]string{
	"&amp;":  "&",
	"&lt;":   "<",
	"&gt;":   ">",
	"&quot;": "\"",
	"&#39;":  "'",
	"&apos;": "'",
	"&nbsp;": " ",
}

func htmlUnescape(s string) string {
	for entity, repl := range htmlEntities {
		s = strings.ReplaceAll(s, entity, repl)
	}
	return s
}
