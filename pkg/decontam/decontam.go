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
// Package decontam implements the contamination guard from spec §4.3: an
// n-gram overlap index built from benchmark reference texts, scored
// per-document, and acted on via one of four modes.
package decontam

import (
	"hash/fnv"
	"sort"
	"strings"

	"github.com/waycodes/curationgym/pkg/document"
	"github.com/waycodes/curationgym/pkg/policy"
)

const (
	// defaultMaxStoredNgrams bounds the audit log's matched-ngram list,
	// per spec §9 open question 3 (source default 10).
	defaultMaxStoredNgrams = 10
	// defaultPreviewChars bounds the audit log's text preview (source
	// default 200).
	defaultPreviewChars = 200
)

// wordNgrams returns the lowercased, whitespace-tokenized word n-grams of
// text for the configured size.
func wordNgrams(text string, n int) []string {
	words := strings.Fields(strings.ToLower(text))
	if len(words) < n {
		return nil
	}
	out := make([]string, 0, len(words)-n+1)
	for i := 0; i+n <= len(words); i++ {
		out = append(out, strings.Join(words[i:i+n], " "))
	}
	return out
}

func hash64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// Index is the benchmark reference index built by AddEvalData. A single
// hash set drives detection; a parallel hash→first-source map yields
// attribution, per spec §9's design note.
type Index struct {
	ngramSize   int
	threshold   float64
	global      map[uint64]struct{}
	firstSource map[uint64]string
	perSource   map[string]map[uint64]struct{}
}

// NewIndex builds an empty contamination index for the given n-gram size
// and overlap threshold.
func NewIndex(ngramSize int, threshold float64) *Index {
	if ngramSize <= 0 {
		ngramSize = 13
	}
	return &Index{
		ngramSize:   ngramSize,
		threshold:   threshold,
		global:      make(map[uint64]struct{}),
		firstSource: make(map[uint64]string),
		perSource:   make(map[string]map[uint64]struct{}),
	}
}

// AddEvalData ingests benchmark reference texts under source, per spec §6's
// contract "ingested through add_eval_data(texts, source)".
func (idx *Index) AddEvalData(texts []string, source string) {
	bucket, ok := idx.perSource[source]
	if !ok {
		bucket = make(map[uint64]struct{})
		idx.perSource[source] = bucket
	}
	for _, text := range texts {
		for _, ngram := range wordNgrams(text, idx.ngramSize) {
			h := hash64(ngram)
			bucket[h] = struct{}{}
			idx.global[h] = struct{}{}
			if _, seen := idx.firstSource[h]; !seen {
				idx.firstSource[h] = source
			}
		}
	}
}

// Score is the outcome of scoring a single document against the index.
type Score struct {
	OverlapScore  float64
	MatchedNgrams []string
	FirstSource   string
	Contaminated  bool
}

// Evaluate computes a document's overlap score: matched n-grams divided by
// total n-grams extracted, 0 when the document has no n-grams at all.
func (idx *Index) Evaluate(text string) Score {
	ngrams := wordNgrams(text, idx.ngramSize)
	if len(ngrams) == 0 {
		return Score{}
	}

	matched := 0
	firstSource := ""
	var matchedNgrams []string
	for _, ngram := range ngrams {
		h := hash64(ngram)
		if _, ok := idx.global[h]; !ok {
			continue
		}
		matched++
		if firstSource == "" {
			firstSource = idx.firstSource[h]
		}
		if len(matchedNgrams) < defaultMaxStoredNgrams {
			matchedNgrams = append(matchedNgrams, ngram)
		}
	}

	overlap := float64(matched) / float64(len(ngrams))
	return Score{
		OverlapScore:  overlap,
		MatchedNgrams: matchedNgrams,
		FirstSource:   firstSource,
		Contaminated:  overlap >= idx.threshold,
	}
}

// AuditEntry is one flagged document for decontam_report.json.
type AuditEntry struct {
	DocID         string   `json:"doc_id"`
	Source        string   `json:"source"`
	OverlapScore  float64  `json:"overlap_score"`
	MatchedNgrams []string `json:"matched_ngrams"`
	Action        string   `json:"action"`
	Preview       string   `json:"preview"`
}

// ReportSummary tallies decontam_report.json's entries by outcome.
type ReportSummary struct {
	TotalFlagged int            `json:"total_flagged"`
	ByAction     map[string]int `json:"by_action"`
}

// Report is the serialized shape of decontam_report.json from spec §6: a
// summary block plus the flagged entries themselves.
type Report struct {
	Summary ReportSummary `json:"summary"`
	Entries []AuditEntry  `json:"entries"`
}

// BuildReport tallies entries (already concatenated across every shard
// task that ran a Guard) into a Report.
func BuildReport(entries []AuditEntry) Report {
	summary := ReportSummary{TotalFlagged: len(entries), ByAction: make(map[string]int)}
	for _, e := range entries {
		summary.ByAction[e.Action]++
	}
	return Report{Summary: summary, Entries: entries}
}

// Guard applies an Index under a configured mode to a document stream.
type Guard struct {
	idx  *Index
	mode policy.DecontamMode
	log  []AuditEntry
}

// NewGuard builds a Guard from config and a populated Index.
func NewGuard(cfg policy.DecontamConfig, idx *Index) *Guard {
	return &Guard{idx: idx, mode: cfg.Mode}
}

// Audit returns every flagged entry recorded so far, in evaluation order.
func (g *Guard) Audit() []AuditEntry { return g.log }

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= defaultPreviewChars {
		return text
	}
	return string(runes[:defaultPreviewChars])
}

// Apply scores doc and, if contaminated, applies the configured mode:
// drop removes it, tag/downweight/redact pass it through annotated per
// spec §4.3.
func (g *Guard) Apply(doc document.Document) (document.Document, bool) {
	score := g.idx.Evaluate(doc.Text)
	if !score.Contaminated {
		return doc, true
	}

	out := doc.Clone()
	action := string(g.mode)
	g.log = append(g.log, AuditEntry{
		DocID:         doc.ID,
		Source:        score.FirstSource,
		OverlapScore:  score.OverlapScore,
		MatchedNgrams: score.MatchedNgrams,
		Action:        action,
		Preview:       preview(doc.Text),
	})

	switch g.mode {
	case policy.ModeDrop:
		out.Metadata.DecontamDropped = true
		out.MarkDropped("decontam_contaminated")
		return out, false

	case policy.ModeTag:
		out.Metadata.ContaminationFlags = &document.ContaminationFlags{
			Source:        score.FirstSource,
			OverlapScore:  score.OverlapScore,
			Action:        action,
			MatchedNgrams: len(score.MatchedNgrams),
		}
		return out, true

	case policy.ModeDownweight:
		weight := 1 - score.OverlapScore
		if weight < 0.1 {
			weight = 0.1
		}
		out.Metadata.SampleWeight = weight
		out.Metadata.ContaminationFlags = &document.ContaminationFlags{
			Source:        score.FirstSource,
			OverlapScore:  score.OverlapScore,
			Action:        action,
			MatchedNgrams: len(score.MatchedNgrams),
		}
		return out, true

	case policy.ModeRedact:
		out.Text = redact(out.Text, score.MatchedNgrams)
		out.Metadata.TextRewritten = true
		out.Metadata.ContaminationFlags = &document.ContaminationFlags{
			Source:        score.FirstSource,
			OverlapScore:  score.OverlapScore,
			Action:        action,
			MatchedNgrams: len(score.MatchedNgrams),
		}
		return out, true

	default:
		return out, true
	}
}

const redactPlaceholder = "[REDACTED]"

// redact replaces every matched n-gram substring (case-insensitive) with a
// fixed placeholder. Longer n-grams are replaced first so a short match
// nested in a longer one does not leave a partial placeholder behind.
func redact(text string, ngrams []string) string {
	sorted := append([]string(nil), ngrams...)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	out := text
	for _, ngram := range sorted {
		out = replaceCaseInsensitive(out, ngram, redactPlaceholder)
	}
	return out
}

func replaceCaseInsensitive(text, target, replacement string) string {
	if target == "" {
		return text
	}
	lowerText := strings.ToLower(text)
	lowerTarget := strings.ToLower(target)
	var b strings.Builder
	i := 0
	for {
		idx := strings.Index(lowerText[i:], lowerTarget)
		if idx == -1 {
			b.WriteString(text[i:])
			break
		}
		matchStart := i + idx
		b.WriteString(text[i:matchStart])
		b.WriteString(replacement)
		i = matchStart + len(target)
	}
	return b.String()
}
