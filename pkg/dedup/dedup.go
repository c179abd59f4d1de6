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
// Package dedup implements the deduplication engine from spec §4.2: exact
// normalized-hash dedup and MinHash LSH near-dup dedup, each scoped either
// globally or per metadata.dump, with a pluggable keep-rule.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/waycodes/curationgym/pkg/document"
	"github.com/waycodes/curationgym/pkg/policy"
)

// NormalizeText lowercases text, collapses runs of whitespace to a single
// space, and trims the result — the exact-dedup normalization from spec §4.2.
func NormalizeText(text string) string {
	lowered := strings.ToLower(text)
	fields := strings.Fields(lowered)
	return strings.Join(fields, " ")
}

// ContentHash returns the first 16 hex chars of SHA-256 over normalized
// text, used as both content_hash and the exact-dedup cluster id.
func ContentHash(text string) string {
	normalized := NormalizeText(text)
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:8])
}

// member records one document's position within a cluster, enough
// information for every KeepRule in spec §4.2 to pick a representative
// without needing the full document text resident past this point.
type member struct {
	doc      document.Document
	order    int
	charLen  int
	tokens   int
	quality  float64
}

// Engine runs one scoped dedup method (exact or MinHash) in front of a
// document stream. With KeepFirst, decisions are immediate and
// streaming — zero-buffer, per spec §4.2's "only truly streaming rule"
// note. Any other KeepRule requires seeing a cluster in full before
// choosing its representative, so Engine defers those clusters' keep
// decisions to Finalize; this is the bounded-memory tradeoff spec §9's
// open question #2 calls out explicitly.
// Engine is safe for concurrent use: Policy.Dedup.Scope == ScopeGlobal
// (spec §4.2) means one deduper shared across every shard task in a run
// (cmd/curationgym wires one *Engine into every pipeline.Config when scope
// is global), so Process/Finalize serialize under mu rather than each
// shard task racing its own independent cluster state.
type Engine struct {
	cfg     policy.DedupConfig
	global  *core
	perDump map[string]*core
	order   int

	mu sync.Mutex
}

// NewEngine constructs a dedup engine for cfg. Per-dump cores are created
// lazily on first use of a given metadata.dump value.
func NewEngine(cfg policy.DedupConfig) *Engine {
	e := &Engine{cfg: cfg}
	if cfg.Scope == policy.ScopeGlobal {
		e.global = newCore(cfg)
	} else {
		e.perDump = make(map[string]*core)
	}
	return e
}

func (e *Engine) coreFor(dump string) *core {
	if e.cfg.Scope == policy.ScopeGlobal {
		return e.global
	}
	c, ok := e.perDump[dump]
	if !ok {
		c = newCore(e.cfg)
		e.perDump[dump] = c
	}
	return c
}

// Process runs one document through its scoped core. The returned document
// carries dedup_cluster_id/dedup_method/dedup_scope metadata, except under
// policy.DedupNone, where it is returned unchanged and always kept. The
// keep bool is authoritative only when cfg.Keep == policy.KeepFirst;
// otherwise call Finalize once the stream ends and apply its verdicts.
func (e *Engine) Process(doc document.Document) (document.Document, bool) {
	if e.cfg.Method == policy.DedupNone {
		return doc, true
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	out := doc.Clone()
	out.Metadata.DedupMethod = string(e.cfg.Method)
	out.Metadata.DedupScope = string(e.cfg.Scope)

	c := e.coreFor(doc.Metadata.Dump)
	clusterID, isRep := c.admit(doc)
	out.Metadata.DedupClusterID = clusterID

	e.order++
	c.record(clusterID, member{
		doc:     out,
		order:   e.order,
		charLen: len([]rune(doc.Text)),
		tokens:  doc.Metadata.TokenCount,
		quality: doc.Metadata.MeanQualityScore(),
	})

	if e.cfg.Keep == policy.KeepFirst {
		out.Metadata.DedupDropped = !isRep
		if !isRep {
			out.MarkDropped("dedup_duplicate")
		}
		return out, isRep
	}

	// Deferred: every cluster member passes through provisionally; the
	// caller must reconcile with Finalize before writing shards.
	return out, true
}

// Verdict is one cluster's resolved keep decision for every non-streaming
// KeepRule.
type Verdict struct {
	ClusterID string
	KeepID    string
}

// Finalize resolves every buffered cluster under cfg.Keep and returns, for
// each document id seen, whether it should be kept. Only meaningful when
// cfg.Keep != policy.KeepFirst; callers using KeepFirst never need it since
// Process already returned authoritative decisions.
func (e *Engine) Finalize() map[string]bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	keep := make(map[string]bool)
	cores := e.allCores()
	for _, c := range cores {
		for clusterID, members := range c.clusters {
			repID := chooseRepresentative(members, e.cfg.Keep)
			for _, m := range members {
				keep[m.doc.ID] = m.doc.ID == repID
			}
			_ = clusterID
		}
	}
	return keep
}

func (e *Engine) allCores() []*core {
	if e.cfg.Scope == policy.ScopeGlobal {
		if e.global == nil {
			return nil
		}
		return []*core{e.global}
	}
	cores := make([]*core, 0, len(e.perDump))
	for _, c := range e.perDump {
		cores = append(cores, c)
	}
	return cores
}

func chooseRepresentative(members []member, rule policy.KeepRule) string {
	if len(members) == 0 {
		return ""
	}
	best := members[0]
	for _, m := range members[1:] {
		if better(m, best, rule) {
			best = m
		}
	}
	return best.doc.ID
}

func better(candidate, current member, rule policy.KeepRule) bool {
	switch rule {
	case policy.KeepLongest:
		return candidate.charLen > current.charLen
	case policy.KeepMostTokens:
		return candidate.tokens > current.tokens
	case policy.KeepHighestQuality:
		return candidate.quality > current.quality
	case policy.KeepLowestToxicity:
		toxA := toxicityOf(candidate.doc)
		toxB := toxicityOf(current.doc)
		return toxA < toxB
	case policy.KeepMostRecent:
		return candidate.order > current.order
	default: // KeepFirst, or unrecognized: earliest insertion wins
		return candidate.order < current.order
	}
}

func toxicityOf(doc document.Document) float64 {
	if v, ok := doc.Metadata.QualityScores["toxicity"]; ok {
		return v
	}
	return 0
}
