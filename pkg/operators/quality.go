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
package operators

import (
	"strings"
	"unicode"

	"github.com/waycodes/curationgym/pkg/document"
	"github.com/waycodes/curationgym/pkg/policy"
)

// QualityRuleResult is what a single heuristic rule reports for one
// document: whether it passes, and the score it produced (spec §4.1:
// "each returns (passes, score)... scores are always emitted").
type QualityRuleResult struct {
	Passes bool
	Score  float64
}

// QualityRule is a single independent heuristic.
type QualityRule func(text string, cfg policy.QualityConfig) QualityRuleResult

// ruleRegistry names every heuristic rule in the bank from spec §4.1:
// repetition, length, formatting, composition.
var ruleRegistry = map[string]QualityRule{
	"max_word_repetition_ratio": ruleMaxWordRepetition,
	"max_duplicate_line_ratio":  ruleMaxDuplicateLine,
	"max_char_run_ratio":        ruleMaxCharRun,
	"word_count_bounds":         ruleWordCountBounds,
	"avg_word_length_bounds":    ruleAvgWordLengthBounds,
	"min_terminal_punct_ratio":  ruleTerminalPunct,
	"max_ellipsis_line_ratio":   ruleEllipsisLines,
	"max_bullet_line_ratio":     ruleBulletLines,
	"max_curly_brace_ratio":     ruleCurlyBraceRatio,
	"max_digit_ratio":           ruleDigitRatio,
	"min_alpha_ratio":           ruleAlphaRatio,
}

// enabledRules returns the rule set to evaluate: cfg.EnabledRules if
// non-empty, else every rule in the registry.
func enabledRules(cfg policy.QualityConfig) []string {
	if len(cfg.EnabledRules) > 0 {
		return cfg.EnabledRules
	}
	names := make([]string, 0, len(ruleRegistry))
	for name := range ruleRegistry {
		names = append(names, name)
	}
	return names
}

// EvaluateQuality runs every enabled rule against text, returning a
// per-rule score map and whether any enabled rule failed. Empty or
// too-short inputs pass vacuously per spec §4.1.
func EvaluateQuality(text string, cfg policy.QualityConfig) (scores map[string]float64, passed bool) {
	scores = make(map[string]float64)
	passed = true

	words := strings.Fields(text)
	if len(words) == 0 {
		return scores, true
	}

	for _, name := range enabledRules(cfg) {
		rule, ok := ruleRegistry[name]
		if !ok {
			continue
		}
		result := rule(text, cfg)
		scores[name] = result.Score
		if !result.Passes {
			passed = false
		}
	}
	return scores, passed
}

func words(text string) []string { return strings.Fields(text) }

func lines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func ruleMaxWordRepetition(text string, cfg policy.QualityConfig) QualityRuleResult {
	ws := words(text)
	if len(ws) == 0 {
		return QualityRuleResult{Passes: true, Score: 0}
	}
	counts := make(map[string]int, len(ws))
	best := 0
	for _, w := range ws {
		w = strings.ToLower(w)
		counts[w]++
		if counts[w] > best {
			best = counts[w]
		}
	}
	ratio := float64(best) / float64(len(ws))
	max := cfg.MaxWordRepetitionRatio
	if max <= 0 {
		max = 1
	}
	return QualityRuleResult{Passes: ratio <= max, Score: ratio}
}

func ruleMaxDuplicateLine(text string, cfg policy.QualityConfig) QualityRuleResult {
	ls := lines(text)
	if len(ls) == 0 {
		return QualityRuleResult{Passes: true, Score: 0}
	}
	counts := make(map[string]int, len(ls))
	dup := 0
	for _, l := range ls {
		trimmed := strings.TrimSpace(l)
		if trimmed == "" {
			continue
		}
		counts[trimmed]++
		if counts[trimmed] > 1 {
			dup++
		}
	}
	ratio := float64(dup) / float64(len(ls))
	max := cfg.MaxDuplicateLineRatio
	if max <= 0 {
		max = 1
	}
	return QualityRuleResult{Passes: ratio <= max, Score: ratio}
}

func ruleMaxCharRun(text string, cfg policy.QualityConfig) QualityRuleResult {
	if len(text) == 0 {
		return QualityRuleResult{Passes: true, Score: 0}
	}
	runes := []rune(text)
	runChars := 0
	i := 0
	for i < len(runes) {
		j := i + 1
		for j < len(runes) && runes[j] == runes[i] {
			j++
		}
		runLen := j - i
		if runLen >= 10 {
			runChars += runLen
		}
		i = j
	}
	ratio := float64(runChars) / float64(len(runes))
	max := cfg.MaxCharRunRatio
	if max <= 0 {
		max = 1
	}
	return QualityRuleResult{Passes: ratio <= max, Score: ratio}
}

func ruleWordCountBounds(text string, cfg policy.QualityConfig) QualityRuleResult {
	n := len(words(text))
	minWords, maxWords := cfg.MinWords, cfg.MaxWords
	if maxWords <= 0 {
		maxWords = 1 << 30
	}
	passes := n >= minWords && n <= maxWords
	return QualityRuleResult{Passes: passes, Score: float64(n)}
}

func ruleAvgWordLengthBounds(text string, cfg policy.QualityConfig) QualityRuleResult {
	ws := words(text)
	if len(ws) == 0 {
		return QualityRuleResult{Passes: true, Score: 0}
	}
	total := 0
	for _, w := range ws {
		total += len([]rune(w))
	}
	avg := float64(total) / float64(len(ws))
	minLen, maxLen := cfg.MinAvgWordLength, cfg.MaxAvgWordLength
	if maxLen <= 0 {
		maxLen = 1 << 30
	}
	passes := avg >= minLen && avg <= maxLen
	return QualityRuleResult{Passes: passes, Score: avg}
}

func ruleTerminalPunct(text string, cfg policy.QualityConfig) QualityRuleResult {
	ls := nonEmptyLines(text)
	if len(ls) == 0 {
		return QualityRuleResult{Passes: true, Score: 0}
	}
	terminal := 0
	for _, l := range ls {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		last := rune(l[len(l)-1])
		if last == '.' || last == '!' || last == '?' || last == '"' || last == '\'' {
			terminal++
		}
	}
	ratio := float64(terminal) / float64(len(ls))
	min := cfg.MinTerminalPunctRatio
	return QualityRuleResult{Passes: ratio >= min, Score: ratio}
}

func ruleEllipsisLines(text string, cfg policy.QualityConfig) QualityRuleResult {
	ls := nonEmptyLines(text)
	if len(ls) == 0 {
		return QualityRuleResult{Passes: true, Score: 0}
	}
	count := 0
	for _, l := range ls {
		if strings.Contains(l, "...") || strings.Contains(l, "…") {
			count++
		}
	}
	ratio := float64(count) / float64(len(ls))
	max := cfg.MaxEllipsisLineRatio
	if max <= 0 {
		max = 1
	}
	return QualityRuleResult{Passes: ratio <= max, Score: ratio}
}

var bulletPrefixes = []string{"-", "*", "•", "●", "◦"}

func ruleBulletLines(text string, cfg policy.QualityConfig) QualityRuleResult {
	ls := nonEmptyLines(text)
	if len(ls) == 0 {
		return QualityRuleResult{Passes: true, Score: 0}
	}
	count := 0
	for _, l := range ls {
		trimmed := strings.TrimSpace(l)
		for _, prefix := range bulletPrefixes {
			if strings.HasPrefix(trimmed, prefix) {
				count++
				break
			}
		}
	}
	ratio := float64(count) / float64(len(ls))
	max := cfg.MaxBulletLineRatio
	if max <= 0 {
		max = 1
	}
	return QualityRuleResult{Passes: ratio <= max, Score: ratio}
}

func ruleCurlyBraceRatio(text string, cfg policy.QualityConfig) QualityRuleResult {
	runes := []rune(text)
	if len(runes) == 0 {
		return QualityRuleResult{Passes: true, Score: 0}
	}
	count := 0
	for _, r := range runes {
		if r == '{' || r == '}' {
			count++
		}
	}
	ratio := float64(count) / float64(len(runes))
	max := cfg.MaxCurlyBraceRatio
	if max <= 0 {
		max = 1
	}
	return QualityRuleResult{Passes: ratio <= max, Score: ratio}
}

func ruleDigitRatio(text string, cfg policy.QualityConfig) QualityRuleResult {
	runes := []rune(text)
	if len(runes) == 0 {
		return QualityRuleResult{Passes: true, Score: 0}
	}
	count := 0
	for _, r := range runes {
		if unicode.IsDigit(r) {
			count++
		}
	}
	ratio := float64(count) / float64(len(runes))
	max := cfg.MaxDigitRatio
	if max <= 0 {
		max = 1
	}
	return QualityRuleResult{Passes: ratio <= max, Score: ratio}
}

func ruleAlphaRatio(text string, cfg policy.QualityConfig) QualityRuleResult {
	runes := []rune(text)
	if len(runes) == 0 {
		return QualityRuleResult{Passes: true, Score: 1}
	}
	count := 0
	for _, r := range runes {
		if unicode.IsLetter(r) {
			count++
		}
	}
	ratio := float64(count) / float64(len(runes))
	return QualityRuleResult{Passes: ratio >= cfg.MinAlphaRatio, Score: ratio}
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, l := range lines(text) {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

// HeuristicQuality builds the quality filter from spec §4.1: it rejects
// if any enabled rule fails, and always emits per-rule scores.
func HeuristicQuality(cfg policy.QualityConfig) Filter {
	return NewFilter("heuristic_quality", func(doc document.Document) (document.Document, bool, string) {
		out := doc.Clone()
		scores, passed := EvaluateQuality(doc.Text, cfg)
		if out.Metadata.QualityScores == nil {
			out.Metadata.QualityScores = document.QualityScores{}
		}
		for name, score := range scores {
			out.Metadata.QualityScores[name] = score
		}
		if !passed {
			return out, false, "quality_heuristic_failed"
		}
		return out, true, ""
	})
}
