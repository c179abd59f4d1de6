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
// Package slices implements the slice assignment and statistics layer from
// spec §4.4: a registry of pure tag extractors, deterministic assignment,
// and per-slice/global aggregate counters.
package slices

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/waycodes/curationgym/pkg/document"
)

// Extractor derives zero or more "name=value" slice tags from a document.
// Extractors must be pure functions of the document's declared fields.
type Extractor func(doc document.Document) []string

// codeVersionSource is the literal text whose hash becomes SliceCodeVersion.
// Spec §9 open question 1 notes a reimplementation cannot derive this from
// the original's live source text; a build-time constant is used instead.
const codeVersionSource = "curationgym-slices-v1:dump,domain,language,token_length_bin,quality_bin,language_score_bin,toxicity_bin"

// CodeVersion is the fixed slice-code-version stamped into every assigned
// document, computed once from codeVersionSource.
var CodeVersion = func() string {
	sum := sha256.Sum256([]byte(codeVersionSource))
	return hex.EncodeToString(sum[:8])
}()

func dumpExtractor(doc document.Document) []string {
	if doc.Metadata.Dump == "" {
		return nil
	}
	return []string{"dump=" + doc.Metadata.Dump}
}

// domainExtractor derives url -> domain, with .edu/.gov promoted to their
// own category tag in addition to the bare domain tag.
func domainExtractor(doc document.Document) []string {
	host := extractHost(doc.Metadata.URL)
	if host == "" {
		return nil
	}
	tags := []string{"domain=" + host}
	switch {
	case strings.HasSuffix(host, ".edu"):
		tags = append(tags, "domain_category=edu")
	case strings.HasSuffix(host, ".gov"):
		tags = append(tags, "domain_category=gov")
	}
	return tags
}

func extractHost(rawURL string) string {
	rest := rawURL
	if idx := strings.Index(rest, "://"); idx != -1 {
		rest = rest[idx+3:]
	}
	if idx := strings.IndexAny(rest, "/?#"); idx != -1 {
		rest = rest[:idx]
	}
	if idx := strings.LastIndex(rest, ":"); idx != -1 {
		rest = rest[:idx]
	}
	return strings.ToLower(rest)
}

func languageExtractor(doc document.Document) []string {
	if doc.Metadata.Language == "" {
		return nil
	}
	return []string{"language=" + doc.Metadata.Language}
}

// bin maps an ascending list of (exclusive upper bound, label)
// pairs, with the last label applying to anything above all bounds, to a
// single bin lookup.
func bin(value float64, bounds []float64, labels []string) string {
	for i, bound := range bounds {
		if value < bound {
			return labels[i]
		}
	}
	return labels[len(labels)-1]
}

func tokenLengthBinExtractor(doc document.Document) []string {
	if doc.Metadata.TokenCount <= 0 {
		return nil
	}
	label := bin(float64(doc.Metadata.TokenCount), []float64{128, 512, 2048}, []string{"tiny", "small", "medium", "large"})
	return []string{"token_length_bin=" + label}
}

func qualityBinExtractor(doc document.Document) []string {
	if len(doc.Metadata.QualityScores) == 0 {
		return nil
	}
	label := bin(doc.Metadata.MeanQualityScore(), []float64{0.5, 0.8}, []string{"low", "medium", "high"})
	return []string{"quality_bin=" + label}
}

func languageScoreBinExtractor(doc document.Document) []string {
	if doc.Metadata.LanguageScore <= 0 {
		return nil
	}
	label := bin(doc.Metadata.LanguageScore, []float64{0.5, 0.8}, []string{"low", "medium", "high"})
	return []string{"language_score_bin=" + label}
}

func toxicityBinExtractor(doc document.Document) []string {
	tox, ok := doc.Metadata.QualityScores["toxicity"]
	if !ok {
		return nil
	}
	label := bin(tox, []float64{0.3, 0.7}, []string{"low", "medium", "high"})
	return []string{"toxicity_bin=" + label}
}

// DefaultRegistry is the shipped extractor set from spec §4.4.
func DefaultRegistry() []Extractor {
	return []Extractor{
		dumpExtractor,
		domainExtractor,
		languageExtractor,
		tokenLengthBinExtractor,
		qualityBinExtractor,
		languageScoreBinExtractor,
		toxicityBinExtractor,
	}
}

// Assign runs every extractor in registry over doc, setting a sorted,
// deduplicated slice_tags list and the fixed slice_code_version.
func Assign(doc document.Document, registry []Extractor) document.Document {
	out := doc.Clone()
	out.Metadata.SliceTags = nil
	for _, extract := range registry {
		for _, tag := range extract(doc) {
			out.AddSliceTag(tag)
		}
	}
	out.Metadata.SliceCodeVersion = CodeVersion
	sort.Strings(out.Metadata.SliceTags)
	return out
}

// String renders a tag as its "name=value" form — provided for callers
// building tags outside the registry (e.g. tests, CLI introspection).
func String(name, value string) string {
	return fmt.Sprintf("%s=%s", name, value)
}
