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
// Package sampler implements the slice-weighted sampler from spec §4.5:
// admission-controlled, token-budgeted emission across named slices, plus
// weighted-without-replacement draw over the admitted set.
package sampler

import (
	"math"
	"math/rand"
	"sort"

	"github.com/waycodes/curationgym/pkg/document"
	"github.com/waycodes/curationgym/pkg/policy"
)

// Sampler holds per-slice token counters and the admitted document set.
// Per spec §9, any randomness it consumes is seeded only from policy.seed —
// never wall-clock time or process id.
type Sampler struct {
	caps        map[string]int64
	weights     map[string]float64
	temperature float64

	tokensBySlice map[string]int64
	docsBySlice   map[string][]document.Document
	admitted      map[string]document.Document // doc id -> doc, deduplicated
	admittedOrder []string

	rng *rand.Rand
}

// New builds a Sampler from the mixing config and run seed.
func New(cfg policy.MixingConfig, seed int64) *Sampler {
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 1.0
	}
	return &Sampler{
		caps:          cfg.MaxTokensPerSlice,
		weights:       cfg.SliceWeights,
		temperature:   temperature,
		tokensBySlice: make(map[string]int64),
		docsBySlice:   make(map[string][]document.Document),
		admitted:      make(map[string]document.Document),
		rng:           rand.New(rand.NewSource(seed)),
	}
}

// Admit applies the per-slice token cap check from spec §4.5: if any of
// doc's slice tags is already at its cap, the document is rejected;
// otherwise it is accumulated into every tag's bucket.
func (s *Sampler) Admit(doc document.Document) bool {
	for _, tag := range doc.Metadata.SliceTags {
		cap, hasCap := s.caps[tag]
		if !hasCap {
			continue
		}
		if s.tokensBySlice[tag] >= cap {
			return false
		}
	}

	tokens := int64(doc.Metadata.TokenCount)
	for _, tag := range doc.Metadata.SliceTags {
		s.tokensBySlice[tag] += tokens
		s.docsBySlice[tag] = append(s.docsBySlice[tag], doc)
	}
	if _, ok := s.admitted[doc.ID]; !ok {
		s.admittedOrder = append(s.admittedOrder, doc.ID)
	}
	s.admitted[doc.ID] = doc
	return true
}

// TokensForSlice reports tokens accumulated so far for tag, for callers
// enforcing spec §4.5's streaming-driver stop condition.
func (s *Sampler) TokensForSlice(tag string) int64 {
	return s.tokensBySlice[tag]
}

// AtCapacity reports whether every configured slice cap has been reached,
// the stop condition for the streaming sampler driver.
func (s *Sampler) AtCapacity() bool {
	if len(s.caps) == 0 {
		return false
	}
	for tag, cap := range s.caps {
		if s.tokensBySlice[tag] < cap {
			return false
		}
	}
	return true
}

// dominantTag returns the tag, among doc's slice tags, with the highest
// configured weight; ties broken by lexical order for determinism.
// Documents whose tags carry no configured weight default to weight 1.0.
func (s *Sampler) dominantTag(doc document.Document) (string, float64) {
	best := ""
	bestWeight := -math.MaxFloat64
	for _, tag := range doc.Metadata.SliceTags {
		w, ok := s.weights[tag]
		if !ok {
			continue
		}
		if w > bestWeight || (w == bestWeight && (best == "" || tag < best)) {
			best = tag
			bestWeight = w
		}
	}
	if best == "" {
		return "", 1.0
	}
	return best, bestWeight
}

// weight computes w(tag)^(1/temperature) for doc's dominant tag.
func (s *Sampler) weight(doc document.Document) float64 {
	_, w := s.dominantTag(doc)
	if w <= 0 {
		return 0
	}
	return math.Pow(w, 1/s.temperature)
}

// Draw performs weighted sampling without replacement over every admitted
// document, returning up to n of them. The linear-scan selector is O(n^2)
// over the remaining pool, acceptable per spec §9 for the sizes this
// pipeline's sampler operates at.
func (s *Sampler) Draw(n int) []document.Document {
	pool := make([]document.Document, 0, len(s.admittedOrder))
	for _, id := range s.admittedOrder {
		pool = append(pool, s.admitted[id])
	}
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].ID < pool[j].ID })

	weights := make([]float64, len(pool))
	total := 0.0
	for i, doc := range pool {
		weights[i] = s.weight(doc)
		total += weights[i]
	}

	out := make([]document.Document, 0, n)
	for len(out) < n && total > 0 && len(pool) > 0 {
		target := s.rng.Float64() * total
		idx := 0
		running := 0.0
		for i, w := range weights {
			running += w
			if running >= target {
				idx = i
				break
			}
			idx = i
		}

		out = append(out, pool[idx])
		total -= weights[idx]
		pool = append(pool[:idx], pool[idx+1:]...)
		weights = append(weights[:idx], weights[idx+1:]...)
	}
	return out
}

// Admitted returns every admitted document in admission order, for callers
// that want the full admitted set rather than a weighted draw.
func (s *Sampler) Admitted() []document.Document {
	out := make([]document.Document, 0, len(s.admittedOrder))
	for _, id := range s.admittedOrder {
		out = append(out, s.admitted[id])
	}
	return out
}
