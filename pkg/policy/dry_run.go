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
package policy

import "fmt"

// DryRunReport summarizes a policy without executing the pipeline,
// supplementing the distilled spec from the original policy/dry_run.py
// module: a human can sanity-check which operators will actually run and
// what the resulting policy hash is before spending a compute budget.
type DryRunReport struct {
	PolicyHash     string   `json:"policy_hash"`
	EnabledStages  []string `json:"enabled_stages"`
	DedupMethod    DedupMethod `json:"dedup_method"`
	DecontamActive bool     `json:"decontam_active"`
	MaxTokens      int64    `json:"max_tokens"`
}

// DryRun builds a DryRunReport for p.
func DryRun(p Policy) (DryRunReport, error) {
	hash, err := Hash(p)
	if err != nil {
		return DryRunReport{}, err
	}

	stages := []string{"language_id", "token_count"}
	if p.Quality.Enabled {
		stages = append(stages, "quality_heuristics")
	}
	stages = append(stages, "pii_mask", "slice_assign")
	if p.Dedup.Method != DedupNone {
		stages = append(stages, fmt.Sprintf("dedup:%s", p.Dedup.Method))
	}
	if p.Decontam.Enabled {
		stages = append(stages, fmt.Sprintf("decontam:%s", p.Decontam.Mode))
	}
	stages = append(stages, "sampler_admission", "stats", "shard_write")

	return DryRunReport{
		PolicyHash:     hash,
		EnabledStages:  stages,
		DedupMethod:    p.Dedup.Method,
		DecontamActive: p.Decontam.Enabled,
		MaxTokens:      p.MaxTokens,
	}, nil
}
