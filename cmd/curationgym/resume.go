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
	"fmt"
	"os"
	"os/signal"
	"sort"

	flag "github.com/spf13/pflag"

	"github.com/waycodes/curationgym/internal/curationerr"
	"github.com/waycodes/curationgym/internal/ui"
	"github.com/waycodes/curationgym/pkg/artifact"
	"github.com/waycodes/curationgym/pkg/dedup"
	"github.com/waycodes/curationgym/pkg/executor"
	"github.com/waycodes/curationgym/pkg/pipeline"
	"github.com/waycodes/curationgym/pkg/policy"
)

// runResume re-dispatches a run's pending and failed shard tasks, per
// SPEC_FULL.md §C's CLI-facing half of the resumable executor: it rebuilds
// the exact same task list runRun would have built, and the executor's own
// checkpoint (loaded by executor.New) silently skips whatever already
// completed.
func runResume(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("resume", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: curationgym resume <run-id> [options]

Reloads execution_state.json for run-id and retries every shard task that
is not already completed.
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	runID := fs.Arg(0)

	logger := newLogger(globals)
	runCfg, err := LoadRunConfig(globals.Config)
	if err != nil {
		curationerr.FatalError(curationerr.NewConfigError("cannot load run configuration", err.Error(), "", err), globals.Quiet)
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

	store, err := artifact.NewStore(runCfg.OutputDir)
	if err != nil {
		curationerr.FatalError(err, globals.Quiet)
	}
	if store.Exists(artifactHash) {
		ui.Info("artifact %s is already complete", artifactHash)
		return
	}

	execStatePath := fmt.Sprintf("%s/execution_state.json", logsDirFor(store, artifactHash))
	exec := executor.New(execStatePath, runID, runCfg.Workers, logger)

	before := exec.State()
	if len(before.Tasks) == 0 {
		curationerr.FatalError(curationerr.NewInputError("no checkpoint found for run id", runID, nil), globals.Quiet)
	}
	var pending, failed int
	for _, t := range before.Tasks {
		switch t.Status {
		case executor.StatusFailed:
			failed++
		case executor.StatusPending, executor.StatusRunning:
			pending++
		}
	}
	ui.Info("run %s: %d task(s) pending, %d previously failed", runID, pending, failed)

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

	// Same shared-engine requirement as runRun: resume re-dispatches the
	// exact same task list, so a task completed here must dedup against
	// the same single engine a task completed in the original run process
	// would have used.
	var sharedDedup *dedup.Engine
	if pol.Dedup.Scope == policy.ScopeGlobal {
		sharedDedup = dedup.NewEngine(pol.Dedup)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

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
				p := pipeline.New(pipeline.Config{
					Policy:         pol,
					DecontamIndex:  decontamIndex,
					Blocklist:      blocklist,
					ExtractHTML:    runCfg.ExtractHTML,
					Logger:         logger,
					ShardIndexBase: i * maxShardsPerTask,
					DedupEngine:    sharedDedup,
				})
				res, err := p.Run(taskCtx, reader, store, artifactHash)
				if err != nil {
					return 0, err
				}
				results[i] = res
				if err := saveTaskReport(store, artifactHash, i, res.Stats, res.DecontamAudit); err != nil {
					return int(res.DocsRead), fmt.Errorf("persist task %d report: %w", i, err)
				}
				return int(res.DocsRead), nil
			},
		}
	}

	if err := exec.Execute(ctx, tasks); err != nil {
		curationerr.FatalError(curationerr.NewInternalError("executor failed", "", "", err), globals.Quiet)
	}

	after := exec.State()
	var stillFailed []string
	for id, t := range after.Tasks {
		if t.Status != executor.StatusCompleted {
			stillFailed = append(stillFailed, id)
		}
	}
	sort.Strings(stillFailed)
	if len(stillFailed) > 0 {
		ui.Warn("resume %s still has %d incomplete shard task(s): %v", runID, len(stillFailed), stillFailed)
		return
	}

	ui.Success("resume %s completed all shard tasks; re-run 'curationgym run' to finalize the manifest", runID)
}
