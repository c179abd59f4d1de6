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
// Package document defines the unit of flow through the curation pipeline.
//
// A Document carries a stable id, its text payload, and an open metadata
// map that operators extend as the document passes through the pipeline.
// Operators never rewrite Id; if Text is rewritten (PII masking,
// decontamination redaction) the transform sets a flag in metadata rather
// than mutating Text silently.
package document

import "sort"

// QualityScores maps a heuristic rule name to the score it produced.
type QualityScores map[string]float64

// ContaminationFlags records the outcome of the decontamination guard for
// a single document, present only when decontam ran in tag/downweight/redact
// mode (drop mode removes the document instead of flagging it).
type ContaminationFlags struct {
	Source        string  `json:"source"`
	OverlapScore  float64 `json:"overlap_score"`
	Action        string  `json:"action"`
	MatchedNgrams int     `json:"matched_ngrams"`
}

// Metadata is the open string-keyed mapping described in spec §3. Known
// fields get first-class struct fields so operators can read/write them
// without stringly-typed lookups; Extra holds everything else so unknown
// keys round-trip through the JSON shard format untouched.
type Metadata struct {
	Source             string             `json:"source,omitempty"`
	Dump               string             `json:"dump,omitempty"`
	URL                string             `json:"url,omitempty"`
	Language           string             `json:"language,omitempty"`
	LanguageScore      float64            `json:"language_score,omitempty"`
	TokenCount         int                `json:"token_count,omitempty"`
	QualityScores      QualityScores      `json:"quality_scores,omitempty"`
	DedupClusterID     string             `json:"dedup_cluster_id,omitempty"`
	DedupDropped       bool               `json:"dedup_dropped,omitempty"`
	DedupMethod        string             `json:"dedup_method,omitempty"`
	DedupScope         string             `json:"dedup_scope,omitempty"`
	ContentHash        string             `json:"content_hash,omitempty"`
	ContaminationFlags *ContaminationFlags `json:"contamination_flags,omitempty"`
	DecontamDropped    bool               `json:"decontam_dropped,omitempty"`
	SliceTags          []string           `json:"slice_tags,omitempty"`
	SliceCodeVersion   string             `json:"slice_code_version,omitempty"`
	SampleWeight       float64            `json:"sample_weight,omitempty"`
	TextRewritten      bool               `json:"text_rewritten,omitempty"`
	DropReason         string             `json:"drop_reason,omitempty"`

	// Extra holds any metadata key not promoted to a named field above.
	Extra map[string]any `json:"extra,omitempty"`
}

// Clone returns a deep-enough copy of Metadata suitable for an operator to
// mutate without aliasing the original document's slices/maps.
func (m Metadata) Clone() Metadata {
	out := m
	if m.QualityScores != nil {
		out.QualityScores = make(QualityScores, len(m.QualityScores))
		for k, v := range m.QualityScores {
			out.QualityScores[k] = v
		}
	}
	if m.SliceTags != nil {
		out.SliceTags = append([]string(nil), m.SliceTags...)
	}
	if m.Extra != nil {
		out.Extra = make(map[string]any, len(m.Extra))
		for k, v := range m.Extra {
			out.Extra[k] = v
		}
	}
	if m.ContaminationFlags != nil {
		flags := *m.ContaminationFlags
		out.ContaminationFlags = &flags
	}
	return out
}

// MeanQualityScore returns the arithmetic mean of all recorded quality
// rule scores, or 0 if none were recorded.
func (m Metadata) MeanQualityScore() float64 {
	if len(m.QualityScores) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range m.QualityScores {
		sum += v
	}
	return sum / float64(len(m.QualityScores))
}

// Document is the unit of flow through the pipeline. Id is set once by the
// reader that produced the document and never changes afterward.
type Document struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Clone returns a copy of the document with independently mutable metadata.
func (d Document) Clone() Document {
	return Document{ID: d.ID, Text: d.Text, Metadata: d.Metadata.Clone()}
}

// AddSliceTag appends a "name=value" slice tag if not already present,
// keeping the tag list sorted and deduplicated as required by spec §4.4.
func (d *Document) AddSliceTag(tag string) {
	for _, existing := range d.Metadata.SliceTags {
		if existing == tag {
			return
		}
	}
	d.Metadata.SliceTags = append(d.Metadata.SliceTags, tag)
	sort.Strings(d.Metadata.SliceTags)
}

// MarkDropped records why a document was dropped by dedup or decontam so
// downstream stats collection can attribute the drop without losing the
// document's identity (spec §3 invariant: dropped documents still carry
// their reason metadata).
func (d *Document) MarkDropped(reason string) {
	d.Metadata.DropReason = reason
}
