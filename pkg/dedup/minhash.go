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
package dedup

import (
	"encoding/binary"
	"hash/fnv"
	"strings"

	"github.com/waycodes/curationgym/pkg/document"
	"github.com/waycodes/curationgym/pkg/policy"
)

// minHashState implements the MinHash LSH near-dup detector from spec §4.2:
// num_bands * rows_per_band independent min-hash functions over character
// n-grams, banded into bucket keys, first-writer-wins clustering.
type minHashState struct {
	numBands    int
	rowsPerBand int
	ngramSize   int
	numFns      int
	// buckets[band][bucketKey] = the id of the first document that landed
	// in that bucket; later documents colliding there join its cluster.
	buckets []map[uint64]string
}

func newMinHashState(cfg policy.MinHashConfig) *minHashState {
	numBands := cfg.NumBands
	if numBands <= 0 {
		numBands = 14
	}
	rowsPerBand := cfg.RowsPerBand
	if rowsPerBand <= 0 {
		rowsPerBand = 8
	}
	ngramSize := cfg.NgramSize
	if ngramSize <= 0 {
		ngramSize = 5
	}
	buckets := make([]map[uint64]string, numBands)
	for i := range buckets {
		buckets[i] = make(map[uint64]string)
	}
	return &minHashState{
		numBands:    numBands,
		rowsPerBand: rowsPerBand,
		ngramSize:   ngramSize,
		numFns:      numBands * rowsPerBand,
		buckets:     buckets,
	}
}

// charNgrams returns the set of lowercased character n-grams of text, or
// the whole lowercased text as a single "n-gram" when it is shorter than n.
func charNgrams(text string, n int) []string {
	lowered := strings.ToLower(text)
	runes := []rune(lowered)
	if len(runes) < n {
		return []string{lowered}
	}
	seen := make(map[string]struct{}, len(runes)-n+1)
	for i := 0; i+n <= len(runes); i++ {
		seen[string(runes[i:i+n])] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for g := range seen {
		out = append(out, g)
	}
	return out
}

// hashFn computes H(i || ngram) as a 64-bit unsigned value.
func hashFn(i int, ngram string) uint64 {
	h := fnv.New64a()
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], uint64(i))
	_, _ = h.Write(idx[:])
	_, _ = h.Write([]byte(ngram))
	return h.Sum64()
}

// signature computes the minhash signature: one value per hash function,
// the minimum over all of the document's n-grams.
func (s *minHashState) signature(text string) []uint64 {
	ngrams := charNgrams(text, s.ngramSize)
	sig := make([]uint64, s.numFns)
	for i := 0; i < s.numFns; i++ {
		var min uint64 = ^uint64(0)
		for _, g := range ngrams {
			v := hashFn(i, g)
			if v < min {
				min = v
			}
		}
		sig[i] = min
	}
	return sig
}

// bandKeys folds a signature into one bucket key per band by hashing each
// band's rowsPerBand values together.
func (s *minHashState) bandKeys(sig []uint64) []uint64 {
	keys := make([]uint64, s.numBands)
	for b := 0; b < s.numBands; b++ {
		h := fnv.New64a()
		var buf [8]byte
		for r := 0; r < s.rowsPerBand; r++ {
			idx := b*s.rowsPerBand + r
			binary.BigEndian.PutUint64(buf[:], sig[idx])
			_, _ = h.Write(buf[:])
		}
		keys[b] = h.Sum64()
	}
	return keys
}

func (s *minHashState) admit(doc document.Document) (clusterID string, isRep bool) {
	sig := s.signature(doc.Text)
	keys := s.bandKeys(sig)

	repID := ""
	for b, key := range keys {
		if existing, ok := s.buckets[b][key]; ok {
			repID = existing
			break
		}
	}
	if repID == "" {
		repID = doc.ID
	}
	for b, key := range keys {
		if _, ok := s.buckets[b][key]; !ok {
			s.buckets[b][key] = doc.ID
		}
	}
	return repID, repID == doc.ID
}
