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
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/waycodes/curationgym/pkg/artifact"
	"github.com/waycodes/curationgym/pkg/decontam"
	"github.com/waycodes/curationgym/pkg/slices"
)

// taskStatsPath and taskAuditPath name the per-task JSON files each shard
// task writes into the artifact's logs dir as it completes. Naming them by
// task index (not the task ID string, which embeds the source path and may
// contain slashes) keeps them flat, sortable files directly under logs/.
func taskStatsPath(store *artifact.Store, hash string, index int) string {
	return filepath.Join(store.LogsDir(hash), fmt.Sprintf("task-%03d.stats.json", index))
}

func taskAuditPath(store *artifact.Store, hash string, index int) string {
	return filepath.Join(store.LogsDir(hash), fmt.Sprintf("task-%03d.audit.json", index))
}

// saveTaskReport persists one shard task's raw slice-stats and decontam
// audit to the logs dir, so a later process invocation (the one that
// finalizes the manifest) can recover them regardless of which process
// actually ran the task to completion — the same cross-process contract
// scanShards already gives the shard list.
func saveTaskReport(store *artifact.Store, hash string, index int, stats slices.RawReport, audit []decontam.AuditEntry) error {
	if _, err := store.CreateArtifactDir(hash); err != nil {
		return err
	}
	statsData, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal task %d slice stats: %w", index, err)
	}
	if err := os.WriteFile(taskStatsPath(store, hash, index), statsData, 0o600); err != nil {
		return fmt.Errorf("write task %d slice stats: %w", index, err)
	}
	auditData, err := json.MarshalIndent(audit, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal task %d decontam audit: %w", index, err)
	}
	if err := os.WriteFile(taskAuditPath(store, hash, index), auditData, 0o600); err != nil {
		return fmt.Errorf("write task %d decontam audit: %w", index, err)
	}
	return nil
}

// scanTaskReports rebuilds the run's combined slice stats and decontam
// audit by reading every task-*.stats.json/task-*.audit.json file that
// actually exists on disk, merging the raw per-task reports (spec §5's
// parallel-equals-sequential invariant) rather than trusting in-memory
// pipeline.Result values a resumed run may never have produced in this
// process.
func scanTaskReports(store *artifact.Store, hash string) (slices.RawReport, []decontam.AuditEntry, error) {
	dir := store.LogsDir(hash)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return slices.RawReport{BySlice: map[string]slices.RawSummary{}}, nil, nil
		}
		return slices.RawReport{}, nil, fmt.Errorf("list logs dir %q: %w", dir, err)
	}

	var reports []slices.RawReport
	var audit []decontam.AuditEntry
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		path := filepath.Join(dir, name)
		switch {
		case strings.HasSuffix(name, ".stats.json"):
			data, err := os.ReadFile(path) //nolint:gosec // path built from the artifact store's own logs dir
			if err != nil {
				return slices.RawReport{}, nil, fmt.Errorf("read %q: %w", path, err)
			}
			var r slices.RawReport
			if err := json.Unmarshal(data, &r); err != nil {
				return slices.RawReport{}, nil, fmt.Errorf("parse %q: %w", path, err)
			}
			reports = append(reports, r)
		case strings.HasSuffix(name, ".audit.json"):
			data, err := os.ReadFile(path) //nolint:gosec // path built from the artifact store's own logs dir
			if err != nil {
				return slices.RawReport{}, nil, fmt.Errorf("read %q: %w", path, err)
			}
			var a []decontam.AuditEntry
			if err := json.Unmarshal(data, &a); err != nil {
				return slices.RawReport{}, nil, fmt.Errorf("parse %q: %w", path, err)
			}
			audit = append(audit, a...)
		}
	}
	return slices.MergeRawReports(reports), audit, nil
}

// scanShards rebuilds the shard entry list for hash by reading whatever
// shard files actually exist on disk, rather than trusting in-memory
// pipeline.Result values. A resumed run completes its shard tasks in a
// separate process invocation from the one that eventually writes the
// manifest, so the manifest's shard list must be re-derivable from the
// artifact store alone (spec §4.7's file-based contract).
func scanShards(store *artifact.Store, hash string) ([]artifact.ShardEntry, error) {
	dir := store.ShardsDir(hash)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list shards dir %q: %w", dir, err)
	}

	var shards []artifact.ShardEntry
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		entry, err := describeShard(path)
		if err != nil {
			return nil, err
		}
		shards = append(shards, entry)
	}
	sort.Slice(shards, func(i, j int) bool { return shards[i].Path < shards[j].Path })
	return shards, nil
}

func describeShard(path string) (artifact.ShardEntry, error) {
	f, err := os.Open(path) //nolint:gosec // path built from the artifact store's own shard dir
	if err != nil {
		return artifact.ShardEntry{}, fmt.Errorf("open shard %q: %w", path, err)
	}
	defer f.Close()

	hasher := sha256.New()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lines := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		_, _ = hasher.Write(line)
		_, _ = hasher.Write([]byte{'\n'})
		lines++
	}
	if err := scanner.Err(); err != nil {
		return artifact.ShardEntry{}, fmt.Errorf("scan shard %q: %w", path, err)
	}

	return artifact.ShardEntry{
		Path:     path,
		Checksum: hex.EncodeToString(hasher.Sum(nil)[:8]),
		DocCount: lines,
	}, nil
}
