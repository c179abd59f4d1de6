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

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a policy from a YAML file, following the teacher's
// project.yaml convention (gopkg.in/yaml.v3, zero-value defaults filled
// in by Default() before unmarshaling so a policy file only needs to
// specify overrides).
func LoadFile(path string) (Policy, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied, not attacker input
	if err != nil {
		return Policy{}, fmt.Errorf("read policy file %q: %w", path, err)
	}
	return LoadBytes(data)
}

// LoadBytes parses policy YAML from an in-memory buffer.
func LoadBytes(data []byte) (Policy, error) {
	p := Default()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("parse policy yaml: %w", err)
	}
	if err := Validate(p); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate checks the policy for configuration errors that spec §7
// requires be surfaced at pipeline construction, not during streaming.
func Validate(p Policy) error {
	if p.Language.MinScore < 0 || p.Language.MinScore > 1 {
		return fmt.Errorf("language.min_score must be in [0,1], got %v", p.Language.MinScore)
	}
	switch p.Dedup.Method {
	case DedupExact, DedupMinHash, DedupNone:
	default:
		return fmt.Errorf("dedup.method %q is not one of exact|minhash|none", p.Dedup.Method)
	}
	switch p.Dedup.Scope {
	case ScopeGlobal, ScopePerDump:
	default:
		return fmt.Errorf("dedup.scope %q is not one of global|per_dump", p.Dedup.Scope)
	}
	if p.Dedup.Method == DedupMinHash {
		if p.Dedup.MinHash.NumBands <= 0 || p.Dedup.MinHash.RowsPerBand <= 0 {
			return fmt.Errorf("dedup.minhash requires positive num_bands and rows_per_band")
		}
		if p.Dedup.MinHash.NgramSize <= 0 {
			return fmt.Errorf("dedup.minhash.ngram_size must be positive")
		}
	}
	if p.Decontam.Enabled {
		switch p.Decontam.Mode {
		case ModeDrop, ModeTag, ModeDownweight, ModeRedact:
		default:
			return fmt.Errorf("decontam.mode %q is not one of drop|tag|downweight|redact", p.Decontam.Mode)
		}
		if p.Decontam.NgramSize <= 0 {
			return fmt.Errorf("decontam.ngram_size must be positive")
		}
		if p.Decontam.Threshold < 0 || p.Decontam.Threshold > 1 {
			return fmt.Errorf("decontam.threshold must be in [0,1], got %v", p.Decontam.Threshold)
		}
	}
	if p.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive")
	}
	return nil
}
