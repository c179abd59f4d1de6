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
// Package pipeline composes the operator bank, dedup engine, decontam
// guard, slice assigner, and sampler into the fixed policy execute loop
// from spec §4.6, grounded on the teacher's LocalPipeline.Run step
// sequence (pkg/ingestion/local_pipeline.go): named steps whose durations
// a StageTimer records, feeding a final result summary.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/waycodes/curationgym/pkg/artifact"
	"github.com/waycodes/curationgym/pkg/dedup"
	"github.com/waycodes/curationgym/pkg/decontam"
	"github.com/waycodes/curationgym/pkg/document"
	"github.com/waycodes/curationgym/pkg/operators"
	"github.com/waycodes/curationgym/pkg/policy"
	"github.com/waycodes/curationgym/pkg/readers"
	"github.com/waycodes/curationgym/pkg/sampler"
	"github.com/waycodes/curationgym/pkg/slices"
)

// Config parameterizes one pipeline run. DecontamIndex and Blocklist are
// optional and nil when the corresponding policy sections are disabled.
type Config struct {
	Policy        policy.Policy
	DecontamIndex *decontam.Index
	Blocklist     *operators.Blocklist
	ExtractHTML   bool
	Logger        *slog.Logger

	// ShardIndexBase offsets the first shard file number this Pipeline
	// writes, so a caller dispatching one Pipeline per input source (the
	// executor's per-task sharding, spec §4.8) can give each task a
	// disjoint numbering range within the same artifact hash.
	ShardIndexBase int

	// DedupEngine, when set, is shared across every Pipeline the caller
	// builds for one run instead of each Pipeline constructing its own.
	// Policy.Dedup.Scope == ScopeGlobal (spec §4.2) means "one deduper
	// over the whole run's stream," which only holds if every shard task
	// feeds the same *dedup.Engine; Engine is safe for concurrent use by
	// multiple Pipelines. Nil falls back to a fresh per-Pipeline engine,
	// correct for ScopePerDump and for single-source runs.
	DedupEngine *dedup.Engine
}

// Result summarizes one Run invocation.
type Result struct {
	DocsRead       int64
	DocsWritten    int64
	BudgetExceeded bool
	Shards         []artifact.ShardEntry
	Stats          slices.RawReport
	DecontamAudit  []decontam.AuditEntry
	StageTimes     []StageDuration
}

// Pipeline runs the spec §4.6 execute loop over a document stream and
// writes content-addressed shards via an artifact.Store.
type Pipeline struct {
	cfg Config
	log *slog.Logger

	hasURLFilter  bool
	hasHTMLExtract bool
	urlFilter     operators.Filter
	htmlExtract   operators.Filter
	langFilter    operators.Filter
	tokenCounter  operators.Annotate
	qualityFilter operators.Filter
	piiMask       operators.Transform
	sliceRegistry []slices.Extractor
	dedupEngine   *dedup.Engine
	decontamGuard *decontam.Guard
	samp          *sampler.Sampler

	stats *slices.Stats
	timer *StageTimer

	// deferredDocs buffers documents whose dedup cluster membership is not
	// yet resolved, for every KeepRule other than KeepFirst (spec §4.2's
	// bounded-memory tradeoff, carried through from pkg/dedup.Engine).
	deferredDocs []document.Document

	batch        []document.Document
	batchSize    int
	tokensSeen   int64
	shardIndex   int
	shardEntries []artifact.ShardEntry
	budgetHit    bool
}

// New builds a Pipeline from cfg. cfg.Policy.BatchSize of 0 falls back to
// 10000, matching policy.Default.
func New(cfg Config) *Pipeline {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	batchSize := cfg.Policy.BatchSize
	if batchSize <= 0 {
		batchSize = 10000
	}

	dedupEngine := cfg.DedupEngine
	if dedupEngine == nil {
		dedupEngine = dedup.NewEngine(cfg.Policy.Dedup)
	}

	p := &Pipeline{
		cfg:           cfg,
		log:           cfg.Logger,
		langFilter:    operators.LanguageFilter(cfg.Policy.Language.Target, cfg.Policy.Language.MinScore),
		tokenCounter:  operators.TokenCounter(),
		qualityFilter: operators.HeuristicQuality(cfg.Policy.Quality),
		piiMask:       operators.MaskPII(),
		sliceRegistry: slices.DefaultRegistry(),
		dedupEngine:   dedupEngine,
		stats:         slices.NewStats(),
		timer:         NewStageTimer(),
		batchSize:     batchSize,
		shardIndex:    cfg.ShardIndexBase,
	}

	if cfg.ExtractHTML {
		p.hasHTMLExtract = true
		p.htmlExtract = operators.ExtractText(cfg.Policy.Quality.MinExtractedSize)
	}
	if cfg.Blocklist != nil {
		p.hasURLFilter = true
		p.urlFilter = operators.URLFilter(cfg.Blocklist)
	}
	if cfg.Policy.Decontam.Enabled && cfg.DecontamIndex != nil {
		p.decontamGuard = decontam.NewGuard(cfg.Policy.Decontam, cfg.DecontamIndex)
	}
	if len(cfg.Policy.Mixing.SliceWeights) > 0 || len(cfg.Policy.Mixing.MaxTokensPerSlice) > 0 {
		p.samp = sampler.New(cfg.Policy.Mixing, cfg.Policy.Seed)
	}

	return p
}

// Run drains r through the full execute loop, flushing completed shards to
// store under hash. It stops early (without error) once the configured
// token budget would be exceeded.
func (p *Pipeline) Run(ctx context.Context, r readers.DocumentReader, store *artifact.Store, hash string) (Result, error) {
	if _, err := store.CreateArtifactDir(hash); err != nil {
		return Result{}, err
	}

	var docsRead int64
	stop := false

	err := readers.Drain(r, func(doc document.Document) error {
		if ctx.Err() != nil {
			stop = true
			return ctx.Err()
		}
		docsRead++

		p.timer.Time("filter_chain", func() {
			p.runFilterChain(doc, store, hash)
		})
		if p.budgetHit {
			stop = true
			return readers.ErrDone
		}
		return nil
	})
	if err != nil && !readers.IsDone(err) {
		return Result{}, fmt.Errorf("drain documents: %w", err)
	}
	_ = stop

	// Non-streaming keep rules only get an authoritative decision once the
	// whole cluster population is known; reconcile and finish them now.
	if p.cfg.Policy.Dedup.Method != policy.DedupNone && p.cfg.Policy.Dedup.Keep != policy.KeepFirst {
		p.timer.Time("dedup_finalize", func() {
			p.reconcileDeferred(store, hash)
		})
	}

	if len(p.batch) > 0 {
		p.timer.Time("shard_write", func() {
			p.flush(store, hash)
		})
	}

	result := Result{
		DocsRead:       docsRead,
		DocsWritten:    p.writtenCount(),
		BudgetExceeded: p.budgetHit,
		Shards:         p.shardEntries,
		Stats:          p.stats.SnapshotRaw(),
		StageTimes:     p.timer.Snapshot(),
	}
	if p.decontamGuard != nil {
		result.DecontamAudit = p.decontamGuard.Audit()
	}
	return result, nil
}

// runFilterChain applies steps 1-6 of the execute loop (spec §4.6) to one
// document. For KeepFirst dedup the keep decision is final and the
// document proceeds straight through finishDoc; otherwise it is buffered
// in p.deferredDocs pending reconcileDeferred.
func (p *Pipeline) runFilterChain(doc document.Document, store *artifact.Store, hash string) {
	if p.hasURLFilter {
		res := p.urlFilter.Apply(doc)
		if res.Rejected {
			return
		}
		doc = res.Doc
	}
	if p.hasHTMLExtract {
		res := p.htmlExtract.Apply(doc)
		if res.Rejected {
			return
		}
		doc = res.Doc
	}

	langRes := p.langFilter.Apply(doc)
	if langRes.Rejected {
		return
	}
	doc = langRes.Doc

	doc = p.tokenCounter.Apply(doc).Doc

	if p.cfg.Policy.Quality.Enabled {
		qualRes := p.qualityFilter.Apply(doc)
		if qualRes.Rejected {
			return
		}
		doc = qualRes.Doc
	}

	doc = p.piiMask.Apply(doc).Doc

	doc = slices.Assign(doc, p.sliceRegistry)

	out, keepNow := p.dedupEngine.Process(doc)
	if p.cfg.Policy.Dedup.Keep == policy.KeepFirst || p.cfg.Policy.Dedup.Method == policy.DedupNone {
		if !keepNow {
			p.stats.Record(out)
			return
		}
		p.finishDoc(out, store, hash)
		return
	}

	p.deferredDocs = append(p.deferredDocs, out)
}

// reconcileDeferred resolves every buffered cluster via Finalize and runs
// the surviving documents, in original order, through the rest of the
// execute loop.
func (p *Pipeline) reconcileDeferred(store *artifact.Store, hash string) {
	keep := p.dedupEngine.Finalize()
	for _, doc := range p.deferredDocs {
		if p.budgetHit {
			break
		}
		if !keep[doc.ID] {
			doc.Metadata.DedupDropped = true
			doc.MarkDropped("dedup_duplicate")
			p.stats.Record(doc)
			continue
		}
		p.finishDoc(doc, store, hash)
	}
	p.deferredDocs = nil
}

// finishDoc applies steps 7-10 of the execute loop (decontam, token
// budget, sampler admission, stats) to a document that has already
// survived dedup, buffering it for the next shard flush if it is written.
func (p *Pipeline) finishDoc(doc document.Document, store *artifact.Store, hash string) {
	if p.decontamGuard != nil {
		out, keep := p.decontamGuard.Apply(doc)
		doc = out
		if !keep {
			p.stats.Record(doc)
			return
		}
	}

	if p.cfg.Policy.MaxTokens > 0 && p.tokensSeen+int64(doc.Metadata.TokenCount) > p.cfg.Policy.MaxTokens {
		p.budgetHit = true
		return
	}
	p.tokensSeen += int64(doc.Metadata.TokenCount)

	if p.samp != nil && !p.samp.Admit(doc) {
		return
	}

	p.stats.Record(doc)

	p.batch = append(p.batch, doc)
	if len(p.batch) >= p.batchSize {
		p.flush(store, hash)
	}
}

func (p *Pipeline) writtenCount() int64 {
	var n int64
	for _, e := range p.shardEntries {
		n += int64(e.DocCount)
	}
	return n
}

func (p *Pipeline) flush(store *artifact.Store, hash string) {
	if len(p.batch) == 0 {
		return
	}
	path := store.ShardPath(hash, p.shardIndex)
	entry, err := artifact.WriteShard(path, p.batch)
	if err != nil {
		p.log.Warn("pipeline.shard.write.error", "path", path, "err", err)
		p.batch = p.batch[:0]
		return
	}
	p.shardIndex++
	p.shardEntries = append(p.shardEntries, entry)
	p.log.Info("pipeline.shard.write.complete", "path", entry.Path, "doc_count", entry.DocCount)
	p.batch = p.batch[:0]
}
