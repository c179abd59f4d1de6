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
	"strings"

	"github.com/waycodes/curationgym/pkg/document"
)

// stopwordSets is a small deterministic function-word lexicon used to
// score language membership. No language-id library ships in this
// module's wired dependency set — the retrieval pack's examples bundle
// langid only as a Python dependency inside original_source/, not as a Go
// library any example repo imports — so this is a documented stdlib
// fallback (see DESIGN.md).
var stopwordSets = map[string]map[string]struct{}{
	"en": setOf("the", "and", "is", "of", "to", "a", "in", "that", "it", "for"),
	"es": setOf("el", "la", "de", "que", "y", "en", "un", "los", "se", "con"),
	"fr": setOf("le", "la", "de", "et", "les", "des", "en", "un", "une", "pour"),
	"de": setOf("der", "die", "das", "und", "ist", "in", "zu", "den", "von", "mit"),
}

func setOf(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// firstLine returns a truncated single-line representation of text,
// matching spec §4.1's "truncated single-line representation of text".
func firstLine(text string, maxRunes int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	runes := []rune(text)
	if len(runes) > maxRunes {
		runes = runes[:maxRunes]
	}
	return string(runes)
}

// IdentifyLanguage computes (language, score) by scoring stopword hits
// per candidate language over a truncated representation of the text and
// picking the best match. Ties go to the lexically smallest language code.
// Text with no stopword hits yields ("unknown", 0), which the filter
// always rejects.
func IdentifyLanguage(text string) (lang string, score float64) {
	sample := strings.ToLower(firstLine(text, 2000))
	words := strings.Fields(sample)
	if len(words) == 0 {
		return "unknown", 0
	}

	bestLang, bestHits := "unknown", -1
	for candidate, stops := range stopwordSets {
		hits := 0
		for _, w := range words {
			w = strings.Trim(w, ".,!?;:\"'()")
			if _, ok := stops[w]; ok {
				hits++
			}
		}
		if hits > bestHits || (hits == bestHits && candidate < bestLang) {
			bestHits = hits
			bestLang = candidate
		}
	}
	if bestHits <= 0 {
		return "unknown", 0
	}
	return bestLang, float64(bestHits) / float64(len(words))
}

// LanguageFilter builds the language identification filter from spec
// §4.1: it annotates language/language_score and rejects when
// language != target or score < minScore.
func LanguageFilter(target string, minScore float64) Filter {
	return NewFilter("lang_filter", func(doc document.Document) (document.Document, bool, string) {
		out := doc.Clone()
		lang, score := IdentifyLanguage(doc.Text)
		out.Metadata.Language = lang
		out.Metadata.LanguageScore = score

		if lang != target {
			return out, false, "language_mismatch"
		}
		if score < minScore {
			return out, false, "language_score_too_low"
		}
		return out, true, ""
	})
}
