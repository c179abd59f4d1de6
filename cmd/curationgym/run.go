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
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/waycodes/curationgym/internal/curationerr"
	"github.com/waycodes/curationgym/internal/ui"
	"github.com/waycodes/curationgym/pkg/artifact"
	"github.com/waycodes/curationgym/pkg/decontam"
	"github.com/waycodes/curationgym/pkg/dedup"
	"github.com/waycodes/curationgym/pkg/executor"
	"github.com/waycodes/curationgym/pkg/operators"
	"github.com/waycodes/curationgym/pkg/pipeline"
	"github.com/waycodes/curationgym/pkg/policy"
	"github.com/waycodes/curationgym/pkg/runstamp"
)

// runMetrics mirrors the teacher's opt-in promhttp wiring from
// cmd/cie/index.go: counters are always registered, but only served when
// --metrics-addr is set.
type runMetrics struct {
	docsRead    prometheus.Counter
	docsWritten prometheus.Counter
	shardsFlushed prometheus.Counter
}

func newRunMetrics(reg *prometheus.Registry) *runMetrics {
	return &runMetrics{
		docsRead: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "curationgym_documents_read_total",
			Help: "Total documents read from input sources across all shard tasks.",
		}),
		docsWritten: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "curationgym_documents_written_total",
			Help: "Total documents written to output shards across all shard tasks.",
		}),
		shardsFlushed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "curationgym_shards_flushed_total",
			Help: "Total shard files flushed to the artifact store.",
		}),
	}
}

// maxShardsPerTask bounds each shard task's local shard index range within
// the shared artifact hash directory (pipeline.Config.ShardIndexBase), well
// above what any single input source will realistically flush to.
const maxShardsPerTask = 100000

func runRun(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	metricsAddr := fs.String("metrics-addr", "", "If set, serve Prometheus metrics on this address while the run executes")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: curationgym run [options]

Executes the policy named in the run configuration against every configured
input, writing content-addressed shards and a manifest.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	logger := newLogger(globals)

	runCfg, err := LoadRunConfig(globals.Config)
	if err != nil {
		curationerr.FatalError(curationerr.NewConfigError("cannot load run configuration", err.Error(), "check --config path", err), globals.Quiet)
	}
	pol, err := policy.LoadFile(runCfg.PolicyPath)
	if err != nil {
		curationerr.FatalError(curationerr.NewConfigError("cannot load policy", err.Error(), "", err), globals.Quiet)
	}

	policyHash, err := policy.Hash(pol)
	if err != nil {
		curationerr.FatalError(curationerr.NewInternalError("cannot hash policy", "", "", err), globals.Quiet)
	}

	inputPaths := make([]string, len(runCfg.Inputs))
	for i, src := range runCfg.Inputs {
		inputPaths[i] = src.Path
	}
	inputSignature := artifact.InputSignature(inputPaths)
	artifactHash, err := artifact.ArtifactHash(policyHash, artifact.CodeVersion, inputSignature)
	if err != nil {
		curationerr.FatalError(curationerr.NewInternalError("cannot compute artifact hash", "", "", err), globals.Quiet)
	}
	runID := deriveRunID(artifactHash, inputSignature)

	store, err := artifact.NewStore(runCfg.OutputDir)
	if err != nil {
		curationerr.FatalError(err, globals.Quiet)
	}

	if store.Exists(artifactHash) {
		ui.Info("artifact %s already complete, nothing to do", artifactHash)
		return
	}

	reg := prometheus.NewRegistry()
	metrics := newRunMetrics(reg)
	if *metricsAddr != "" {
		serveMetrics(*metricsAddr, reg, logger)
	}

	if err := checkDedupConcurrencySafety(pol, runCfg); err != nil {
		curationerr.FatalError(curationerr.NewConfigError("unsafe dedup/concurrency combination", err.Error(), "set workers: 1 or dedup.keep_rule: first", err), globals.Quiet)
	}

	decontamIndex, err := buildDecontamIndex(runCfg, pol)
	if err != nil {
		curationerr.FatalError(curationerr.NewConfigError("cannot build decontamination index", err.Error(), "", err), globals.Quiet)
	}
	blocklist, err := buildBlocklist(runCfg)
	if err != nil {
		curationerr.FatalError(curationerr.NewConfigError("cannot load URL blocklist", err.Error(), "", err), globals.Quiet)
	}

	// One shared engine under ScopeGlobal (spec §4.2: "one deduper over the
	// whole stream"), so documents from every input source suppress each
	// other's duplicates instead of each shard task deduping only its own
	// slice of the run. ScopePerDump needs no sharing: each Pipeline's own
	// per-dump cores are keyed by metadata.dump, not by task.
	var sharedDedup *dedup.Engine
	if pol.Dedup.Scope == policy.ScopeGlobal {
		sharedDedup = dedup.NewEngine(pol.Dedup)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	execStatePath := fmt.Sprintf("%s/execution_state.json", logsDirFor(store, artifactHash))
	exec := executor.New(execStatePath, runID, runCfg.Workers, logger)

	results := make([]pipeline.Result, len(runCfg.Inputs))

	tasks := make([]executor.ShardTask, len(runCfg.Inputs))
	for i, src := range runCfg.Inputs {
		i, src := i, src
		tasks[i] = executor.ShardTask{
			ID: fmt.Sprintf("shard-%03d-%s", i, src.Path),
			Run: func(taskCtx context.Context) (int, error) {
				reader, err := openSource(src)
				if err != nil {
					return 0, err
				}
				defer reader.Close()

				cfg := pipeline.Config{
					Policy:         pol,
					DecontamIndex:  decontamIndex,
					Blocklist:      blocklist,
					ExtractHTML:    runCfg.ExtractHTML,
					Logger:         logger,
					ShardIndexBase: i * maxShardsPerTask,
					DedupEngine:    sharedDedup,
				}
				p := pipeline.New(cfg)
				res, err := p.Run(taskCtx, reader, store, artifactHash)
				if err != nil {
					return 0, err
				}
				results[i] = res
				if err := saveTaskReport(store, artifactHash, i, res.Stats, res.DecontamAudit); err != nil {
					return int(res.DocsRead), fmt.Errorf("persist task %d report: %w", i, err)
				}
				metrics.docsRead.Add(float64(res.DocsRead))
				metrics.docsWritten.Add(float64(res.DocsWritten))
				metrics.shardsFlushed.Add(float64(len(res.Shards)))
				return int(res.DocsRead), nil
			},
		}
	}

	bar := ui.NewBar(ui.ProgressConfig{Quiet: globals.Quiet, JSON: globals.JSON}, int64(len(tasks)), "curating")
	if err := exec.Execute(ctx, tasks); err != nil {
		curationerr.FatalError(curationerr.NewInternalError("executor failed", "", "", err), globals.Quiet)
	}
	for range tasks {
		_ = bar.Add(1)
	}

	state := exec.State()
	var failed []string
	for id, t := range state.Tasks {
		if t.Status != executor.StatusCompleted {
			failed = append(failed, id)
		}
	}
	sort.Strings(failed)
	if len(failed) > 0 {
		ui.Warn("run %s finished with %d failed/incomplete shard task(s): %v", runID, len(failed), failed)
		ui.Warn("re-run 'curationgym resume %s' after addressing the cause", runID)
		return
	}

	shards, err := scanShards(store, artifactHash)
	if err != nil {
		curationerr.FatalError(err, globals.Quiet)
	}

	rawStats, audit, err := scanTaskReports(store, artifactHash)
	if err != nil {
		curationerr.FatalError(err, globals.Quiet)
	}
	statsReport := rawStats.Render()
	if err := store.SaveStats(artifactHash, &statsReport); err != nil {
		curationerr.FatalError(err, globals.Quiet)
	}
	if pol.Decontam.Enabled {
		auditReport := decontam.BuildReport(audit)
		if err := store.SaveAudit(artifactHash, &auditReport); err != nil {
			curationerr.FatalError(err, globals.Quiet)
		}
	}

	stamp := runstamp.Capture(runID, "go.sum")
	manifest := aggregateManifest(runCfg, pol, policyHash, stamp, inputPaths, results, shards)
	if err := store.SaveManifest(artifactHash, &manifest); err != nil {
		curationerr.FatalError(err, globals.Quiet)
	}

	ui.Success("wrote artifact %s (%v docs read, %v docs written, %d shards)",
		artifactHash, manifest.AggregateStats["docs_read"], manifest.AggregateStats["docs_written"], len(manifest.Shards))
}

// checkDedupConcurrencySafety rejects the one dedup/concurrency combination
// the shared global Engine does not make safe: a non-KeepFirst keep rule
// needs to see every cluster member before Finalize resolves it, and with
// more than one shard task running concurrently, one task can call
// Finalize on its own deferred documents before a sibling task still
// streaming has admitted its half of a cross-source duplicate pair, so the
// two tasks can pick different representatives for the same cluster.
// KeepFirst never hits this: its keep decision is immediate per document,
// with no deferred Finalize pass to race.
func checkDedupConcurrencySafety(pol policy.Policy, runCfg RunConfig) error {
	if pol.Dedup.Scope != policy.ScopeGlobal {
		return nil
	}
	if pol.Dedup.Keep == policy.KeepFirst {
		return nil
	}
	if runCfg.Workers <= 1 || len(runCfg.Inputs) <= 1 {
		return nil
	}
	return fmt.Errorf("dedup.scope=global with keep_rule=%q requires workers<=1 or a single input source (got workers=%d, inputs=%d)",
		pol.Dedup.Keep, runCfg.Workers, len(runCfg.Inputs))
}

func deriveRunID(artifactHash, inputSignature string) string {
	h := sha256.Sum256([]byte(artifactHash + ":" + inputSignature))
	return hex.EncodeToString(h[:8])
}

func logsDirFor(store *artifact.Store, hash string) string {
	if _, err := store.CreateArtifactDir(hash); err != nil {
		return os.TempDir()
	}
	return store.LogsDir(hash)
}

func buildDecontamIndex(runCfg RunConfig, pol policy.Policy) (*decontam.Index, error) {
	if !pol.Decontam.Enabled || len(runCfg.DecontamSources) == 0 {
		return nil, nil
	}
	idx := decontam.NewIndex(pol.Decontam.NgramSize, pol.Decontam.Threshold)
	for _, src := range runCfg.DecontamSources {
		data, err := os.ReadFile(src.Path) //nolint:gosec // operator-supplied benchmark path
		if err != nil {
			return nil, fmt.Errorf("read decontam source %q: %w", src.Path, err)
		}
		idx.AddEvalData([]string{string(data)}, src.Name)
	}
	return idx, nil
}

func buildBlocklist(runCfg RunConfig) (*operators.Blocklist, error) {
	if runCfg.BlocklistPath == "" {
		return nil, nil
	}
	f, err := os.Open(runCfg.BlocklistPath) //nolint:gosec // operator-supplied blocklist path
	if err != nil {
		return nil, fmt.Errorf("open blocklist %q: %w", runCfg.BlocklistPath, err)
	}
	defer f.Close()
	return operators.LoadBlocklist(f, nil)
}

func aggregateManifest(runCfg RunConfig, pol policy.Policy, policyHash string, stamp runstamp.Stamp, inputPaths []string, results []pipeline.Result, shards []artifact.ShardEntry) artifact.Manifest {
	// docs_read is best-effort: a shard task completed in an earlier
	// (resumed) process invocation leaves a zero-value Result here, since
	// that count isn't persisted anywhere the manifest writer can see.
	// docs_written is authoritative, derived from the rescanned shards.
	read := int64(0)
	written := int64(0)
	for _, r := range results {
		read += r.DocsRead
	}
	for _, s := range shards {
		written += int64(s.DocCount)
	}
	return artifact.Manifest{
		DatasetID:       runCfg.DatasetID,
		CreatedAt:       stamp.Timestamp,
		InputSignatures: inputPaths,
		Policy:          pol,
		PolicyHash:      policyHash,
		CodeVersion:     artifact.CodeVersion,
		CodeCommit:      stamp.Git.Commit,
		Dirty:           stamp.Git.Dirty,
		Seed:            pol.Seed,
		OutputFormat:    "jsonl",
		Shards:          shards,
		AggregateStats: map[string]any{
			"docs_read":    read,
			"docs_written": written,
		},
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("run.metrics.server.error", "err", err)
		}
	}()
}

func newLogger(globals GlobalFlags) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case globals.Verbose >= 2:
		level = slog.LevelDebug
	case globals.Verbose >= 1:
		level = slog.LevelInfo
	}
	if globals.Quiet {
		level = slog.LevelError
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	if globals.JSON {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}
