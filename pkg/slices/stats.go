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
package slices

import (
	"sync"

	"github.com/waycodes/curationgym/pkg/document"
)

// counters accumulates the raw per-slice/global tallies from spec §4.4:
// documents kept, tokens kept, sum of mean quality score (for avg_quality),
// and drop counts attributed to dedup vs decontam.
type counters struct {
	totalSeen       int64
	kept            int64
	keptTokens      int64
	sumQuality      float64
	dedupDropped    int64
	decontamDropped int64
}

// Summary is the derived, JSON-serializable view of one counters bucket.
type Summary struct {
	DocCount         int64   `json:"doc_count"`
	TokenCount       int64   `json:"token_count"`
	AvgQualityScore  float64 `json:"avg_quality_score"`
	DedupDropRate    float64 `json:"dedup_drop_rate"`
	DecontamDropRate float64 `json:"decontam_drop_rate"`
}

func (c *counters) snapshot() Summary {
	return c.raw().summary()
}

// RawSummary is one bucket's tallies before ratios are derived — the
// mergeable form. Several shard tasks each produce a RawSummary for the
// same slice tag; MergeRawReports sums them before a single final Summary
// is rendered, so dedup_drop_rate/decontam_drop_rate come out identical to
// a single-threaded run over the same documents (spec §5).
type RawSummary struct {
	TotalSeen       int64   `json:"total_seen"`
	Kept            int64   `json:"kept"`
	KeptTokens      int64   `json:"kept_tokens"`
	SumQuality      float64 `json:"sum_quality"`
	DedupDropped    int64   `json:"dedup_dropped"`
	DecontamDropped int64   `json:"decontam_dropped"`
}

func (c *counters) raw() RawSummary {
	return RawSummary{
		TotalSeen:       c.totalSeen,
		Kept:            c.kept,
		KeptTokens:      c.keptTokens,
		SumQuality:      c.sumQuality,
		DedupDropped:    c.dedupDropped,
		DecontamDropped: c.decontamDropped,
	}
}

func (r RawSummary) merge(o RawSummary) RawSummary {
	return RawSummary{
		TotalSeen:       r.TotalSeen + o.TotalSeen,
		Kept:            r.Kept + o.Kept,
		KeptTokens:      r.KeptTokens + o.KeptTokens,
		SumQuality:      r.SumQuality + o.SumQuality,
		DedupDropped:    r.DedupDropped + o.DedupDropped,
		DecontamDropped: r.DecontamDropped + o.DecontamDropped,
	}
}

func (r RawSummary) summary() Summary {
	s := Summary{DocCount: r.Kept, TokenCount: r.KeptTokens}
	if r.Kept > 0 {
		s.AvgQualityScore = r.SumQuality / float64(r.Kept)
	}
	if r.TotalSeen > 0 {
		s.DedupDropRate = float64(r.DedupDropped) / float64(r.TotalSeen)
		s.DecontamDropRate = float64(r.DecontamDropped) / float64(r.TotalSeen)
	}
	return s
}

// Stats is the mutable collector instance a pipeline run threads through
// its operator chain, per spec §9's "explicit registry" design note — no
// package-level globals.
type Stats struct {
	mu      sync.Mutex
	global  *counters
	bySlice map[string]*counters
}

// NewStats creates an empty collector.
func NewStats() *Stats {
	return &Stats{global: &counters{}, bySlice: make(map[string]*counters)}
}

// Record attributes one post-slice-assignment document (kept or dropped by
// dedup/decontam) to the global bucket and every slice tag it carries.
func (s *Stats) Record(doc document.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.apply(s.global, doc)
	for _, tag := range doc.Metadata.SliceTags {
		c, ok := s.bySlice[tag]
		if !ok {
			c = &counters{}
			s.bySlice[tag] = c
		}
		s.apply(c, doc)
	}
}

func (s *Stats) apply(c *counters, doc document.Document) {
	c.totalSeen++
	switch {
	case doc.Metadata.DedupDropped:
		c.dedupDropped++
	case doc.Metadata.DecontamDropped:
		c.decontamDropped++
	default:
		c.kept++
		c.keptTokens += int64(doc.Metadata.TokenCount)
		c.sumQuality += doc.Metadata.MeanQualityScore()
	}
}

// Report is the serialized shape of slice_stats.json from spec §6.
type Report struct {
	Total   Summary            `json:"total"`
	BySlice map[string]Summary `json:"by_slice"`
}

// Snapshot renders the current counters into an immutable Report.
func (s *Stats) Snapshot() Report {
	return s.SnapshotRaw().Render()
}

// RawReport is the mergeable pre-derived form of Report: one RawSummary per
// bucket instead of one Summary. A shard task persists its RawReport so a
// later process can combine it with every other task's before rendering
// the run's single slice_stats.json (spec §6), rather than deriving ratios
// per task and losing the ability to recombine them exactly.
type RawReport struct {
	Total   RawSummary            `json:"total"`
	BySlice map[string]RawSummary `json:"by_slice"`
}

// SnapshotRaw renders the current counters into an immutable RawReport.
func (s *Stats) SnapshotRaw() RawReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	bySlice := make(map[string]RawSummary, len(s.bySlice))
	for tag, c := range s.bySlice {
		bySlice[tag] = c.raw()
	}
	return RawReport{Total: s.global.raw(), BySlice: bySlice}
}

// Render derives the final ratio-bearing Report from a RawReport.
func (r RawReport) Render() Report {
	bySlice := make(map[string]Summary, len(r.BySlice))
	for tag, raw := range r.BySlice {
		bySlice[tag] = raw.summary()
	}
	return Report{Total: r.Total.summary(), BySlice: bySlice}
}

// MergeRawReports sums every bucket (total and each slice tag) across
// reports, so stats gathered from independently-run shard tasks combine
// into exactly the report a single-threaded whole-run execution would have
// produced (spec §5's parallel-equals-sequential invariant).
func MergeRawReports(reports []RawReport) RawReport {
	merged := RawReport{BySlice: make(map[string]RawSummary)}
	for _, r := range reports {
		merged.Total = merged.Total.merge(r.Total)
		for tag, summary := range r.BySlice {
			merged.BySlice[tag] = merged.BySlice[tag].merge(summary)
		}
	}
	return merged
}
