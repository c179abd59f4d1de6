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
// Package policy defines the curation policy schema: the fully-ordered,
// canonicalizable configuration described in spec §3. A Policy's canonical
// form is hashed to produce policy_hash, which is embedded in every
// artifact key and manifest so runs are reproducible and comparable.
package policy

// DedupMethod selects the deduplication algorithm.
type DedupMethod string

const (
	DedupExact   DedupMethod = "exact"
	DedupMinHash DedupMethod = "minhash"
	DedupNone    DedupMethod = "none"
)

// DedupScope controls whether dedup state is shared across the whole run
// or partitioned per metadata.dump value.
type DedupScope string

const (
	ScopeGlobal  DedupScope = "global"
	ScopePerDump DedupScope = "per_dump"
)

// KeepRule selects which cluster member survives deduplication.
type KeepRule string

const (
	KeepFirst          KeepRule = "first"
	KeepLongest        KeepRule = "longest"
	KeepMostTokens     KeepRule = "most_tokens"
	KeepHighestQuality KeepRule = "highest_quality"
	KeepLowestToxicity KeepRule = "lowest_toxicity"
	KeepMostRecent     KeepRule = "most_recent"
)

// DecontamMode dictates the effect of a contamination hit.
type DecontamMode string

const (
	ModeDrop       DecontamMode = "drop"
	ModeTag        DecontamMode = "tag"
	ModeDownweight DecontamMode = "downweight"
	ModeRedact     DecontamMode = "redact"
)

// LanguageConfig targets a single language with a minimum confidence.
type LanguageConfig struct {
	Target   string  `json:"target" yaml:"target"`
	MinScore float64 `json:"min_score" yaml:"min_score"`
}

// QualityConfig enables/disables and parameterizes the heuristic quality
// rule bank (spec §4.1).
type QualityConfig struct {
	Enabled                  bool    `json:"enabled" yaml:"enabled"`
	MaxWordRepetitionRatio   float64 `json:"max_word_repetition_ratio" yaml:"max_word_repetition_ratio"`
	MaxDuplicateLineRatio    float64 `json:"max_duplicate_line_ratio" yaml:"max_duplicate_line_ratio"`
	MaxCharRunRatio          float64 `json:"max_char_run_ratio" yaml:"max_char_run_ratio"`
	MinWords                 int     `json:"min_words" yaml:"min_words"`
	MaxWords                 int     `json:"max_words" yaml:"max_words"`
	MinAvgWordLength         float64 `json:"min_avg_word_length" yaml:"min_avg_word_length"`
	MaxAvgWordLength         float64 `json:"max_avg_word_length" yaml:"max_avg_word_length"`
	MinTerminalPunctRatio    float64 `json:"min_terminal_punct_ratio" yaml:"min_terminal_punct_ratio"`
	MaxEllipsisLineRatio     float64 `json:"max_ellipsis_line_ratio" yaml:"max_ellipsis_line_ratio"`
	MaxBulletLineRatio       float64 `json:"max_bullet_line_ratio" yaml:"max_bullet_line_ratio"`
	MaxCurlyBraceRatio       float64 `json:"max_curly_brace_ratio" yaml:"max_curly_brace_ratio"`
	MaxDigitRatio            float64 `json:"max_digit_ratio" yaml:"max_digit_ratio"`
	MinAlphaRatio            float64 `json:"min_alpha_ratio" yaml:"min_alpha_ratio"`
	EnabledRules             []string `json:"enabled_rules" yaml:"enabled_rules"`
	MinExtractedSize         int     `json:"min_extracted_size" yaml:"min_extracted_size"`
}

// MinHashConfig parameterizes the MinHash LSH near-dup detector.
type MinHashConfig struct {
	NumBands     int `json:"num_bands" yaml:"num_bands"`
	RowsPerBand  int `json:"rows_per_band" yaml:"rows_per_band"`
	NgramSize    int `json:"ngram_size" yaml:"ngram_size"`
}

// DedupConfig parameterizes the deduplication engine.
type DedupConfig struct {
	Method  DedupMethod   `json:"method" yaml:"method"`
	Scope   DedupScope    `json:"scope" yaml:"scope"`
	MinHash MinHashConfig `json:"minhash" yaml:"minhash"`
	Keep    KeepRule      `json:"keep_rule" yaml:"keep_rule"`
}

// DecontamConfig parameterizes the n-gram overlap contamination guard.
type DecontamConfig struct {
	Enabled   bool         `json:"enabled" yaml:"enabled"`
	Mode      DecontamMode `json:"mode" yaml:"mode"`
	NgramSize int          `json:"ngram_size" yaml:"ngram_size"`
	Threshold float64      `json:"threshold" yaml:"threshold"`
	Sources   []string     `json:"sources" yaml:"sources"`
}

// MixingConfig controls slice sampling weights and per-slice token caps.
type MixingConfig struct {
	SliceWeights       map[string]float64 `json:"slice_weights" yaml:"slice_weights"`
	MaxTokensPerSlice  map[string]int64   `json:"max_tokens_per_slice" yaml:"max_tokens_per_slice"`
	Temperature        float64            `json:"temperature" yaml:"temperature"`
}

// Policy is the fully-ordered, hashable curation configuration (spec §3).
type Policy struct {
	Language   LanguageConfig  `json:"language" yaml:"language"`
	Quality    QualityConfig   `json:"quality" yaml:"quality"`
	Dedup      DedupConfig     `json:"dedup" yaml:"dedup"`
	Decontam   DecontamConfig  `json:"decontam" yaml:"decontam"`
	Mixing     MixingConfig    `json:"mixing" yaml:"mixing"`
	MaxTokens  int64           `json:"max_tokens" yaml:"max_tokens"`
	Seed       int64           `json:"seed" yaml:"seed"`
	BatchSize  int             `json:"batch_size" yaml:"batch_size"`
}

// Default returns a Policy with the defaults named throughout spec §4
// (112 MinHash hash functions via 14 bands of 8 rows, 5-char ngrams,
// 13-word decontam ngrams, 10000-document shard flush batches).
func Default() Policy {
	return Policy{
		Language: LanguageConfig{Target: "en", MinScore: 0.65},
		Quality: QualityConfig{
			Enabled:                true,
			MaxWordRepetitionRatio: 0.3,
			MaxDuplicateLineRatio:  0.3,
			MaxCharRunRatio:        0.1,
			MinWords:               10,
			MaxWords:               100000,
			MinAvgWordLength:       3,
			MaxAvgWordLength:       10,
			MinTerminalPunctRatio:  0.3,
			MaxEllipsisLineRatio:   0.3,
			MaxBulletLineRatio:     0.9,
			MaxCurlyBraceRatio:     0.025,
			MaxDigitRatio:          0.2,
			MinAlphaRatio:          0.6,
			MinExtractedSize:       200,
		},
		Dedup: DedupConfig{
			Method: DedupExact,
			Scope:  ScopeGlobal,
			MinHash: MinHashConfig{
				NumBands:    14,
				RowsPerBand: 8,
				NgramSize:   5,
			},
			Keep: KeepFirst,
		},
		Decontam: DecontamConfig{
			Enabled:   false,
			Mode:      ModeDrop,
			NgramSize: 13,
			Threshold: 0.8,
		},
		Mixing: MixingConfig{
			Temperature: 1.0,
		},
		MaxTokens: 0,
		Seed:      0,
		BatchSize: 10000,
	}
}
