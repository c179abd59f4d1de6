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
	"encoding/json"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/waycodes/curationgym/internal/curationerr"
	"github.com/waycodes/curationgym/internal/ui"
	"github.com/waycodes/curationgym/pkg/artifact"
	"github.com/waycodes/curationgym/pkg/decontam"
	"github.com/waycodes/curationgym/pkg/policy"
	"github.com/waycodes/curationgym/pkg/slices"
)

func newStoreFrom(runCfg RunConfig) (*artifact.Store, error) {
	return artifact.NewStore(runCfg.OutputDir)
}

func runInspect(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	diffAgainst := fs.String("diff", "", "Policy file to diff this artifact's policy against")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: curationgym inspect <artifact-hash> [--diff <policy-file>]

Prints an artifact's manifest, shard list, and aggregate stats. With
--diff, also prints the field-level differences between the artifact's
policy and the given policy file.
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
	hash := fs.Arg(0)

	runCfg, err := LoadRunConfig(globals.Config)
	if err != nil {
		curationerr.FatalError(curationerr.NewConfigError("cannot load run configuration", err.Error(), "", err), globals.Quiet)
	}
	store, err := newStoreFrom(runCfg)
	if err != nil {
		curationerr.FatalError(err, globals.Quiet)
	}

	printManifest(store, hash, globals)

	if *diffAgainst != "" {
		manifest, err := store.GetManifest(hash)
		if err != nil {
			curationerr.FatalError(err, globals.Quiet)
		}
		if manifest == nil {
			curationerr.FatalError(curationerr.NewInputError("no manifest for artifact", hash, nil), globals.Quiet)
		}
		other, err := policy.LoadFile(*diffAgainst)
		if err != nil {
			curationerr.FatalError(curationerr.NewConfigError("cannot load comparison policy", err.Error(), "", err), globals.Quiet)
		}
		diffs, err := policy.Diff(manifest.Policy, other)
		if err != nil {
			curationerr.FatalError(curationerr.NewInternalError("cannot diff policies", "", "", err), globals.Quiet)
		}
		if len(diffs) == 0 {
			ui.Info("no differences")
			return
		}
		for _, d := range diffs {
			fmt.Printf("%-30s %v -> %v\n", d.Path, d.A, d.B)
		}
	}
}

func printManifest(store *artifact.Store, hash string, globals GlobalFlags) {
	manifest, err := store.GetManifest(hash)
	if err != nil {
		curationerr.FatalError(err, globals.Quiet)
	}
	if manifest == nil {
		curationerr.FatalError(curationerr.NewInputError("no manifest for artifact", hash, nil), globals.Quiet)
	}

	stats, err := store.GetStats(hash)
	if err != nil {
		curationerr.FatalError(err, globals.Quiet)
	}
	audit, err := store.GetAudit(hash)
	if err != nil {
		curationerr.FatalError(err, globals.Quiet)
	}

	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(struct {
			*artifact.Manifest
			SliceStats     *slices.Report   `json:"slice_stats,omitempty"`
			DecontamReport *decontam.Report `json:"decontam_report,omitempty"`
		}{manifest, stats, audit})
		return
	}

	fmt.Printf("dataset:       %s\n", manifest.DatasetID)
	fmt.Printf("created:       %s\n", manifest.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Printf("policy_hash:   %s\n", manifest.PolicyHash)
	fmt.Printf("code_version:  %s\n", manifest.CodeVersion)
	fmt.Printf("code_commit:   %s (dirty=%v)\n", manifest.CodeCommit, manifest.Dirty)
	fmt.Printf("inputs:        %v\n", manifest.InputSignatures)
	fmt.Printf("shards:        %d\n", len(manifest.Shards))
	for _, s := range manifest.Shards {
		fmt.Printf("  %s\tdocs=%d\tsha256=%s\n", s.Path, s.DocCount, s.Checksum)
	}
	if len(manifest.AggregateStats) > 0 {
		fmt.Println("aggregate_stats:")
		for k, v := range manifest.AggregateStats {
			fmt.Printf("  %s: %v\n", k, v)
		}
	}

	if stats != nil {
		fmt.Printf("slice_stats:\n")
		fmt.Printf("  total\tdocs=%d\ttokens=%d\tavg_quality=%.3f\tdedup_drop_rate=%.3f\tdecontam_drop_rate=%.3f\n",
			stats.Total.DocCount, stats.Total.TokenCount, stats.Total.AvgQualityScore, stats.Total.DedupDropRate, stats.Total.DecontamDropRate)
		for tag, s := range stats.BySlice {
			fmt.Printf("  %s\tdocs=%d\ttokens=%d\tavg_quality=%.3f\tdedup_drop_rate=%.3f\tdecontam_drop_rate=%.3f\n",
				tag, s.DocCount, s.TokenCount, s.AvgQualityScore, s.DedupDropRate, s.DecontamDropRate)
		}
	}

	if audit != nil {
		fmt.Printf("decontam_report: %d flagged\n", audit.Summary.TotalFlagged)
		for action, n := range audit.Summary.ByAction {
			fmt.Printf("  %s: %d\n", action, n)
		}
	}
}
