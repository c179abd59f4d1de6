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
	"encoding/json"
	"fmt"
	"sort"
)

// FieldDiff describes one differing leaf field between two policies.
type FieldDiff struct {
	Path string `json:"path"`
	A    any    `json:"a"`
	B    any    `json:"b"`
}

// Diff returns the field-level differences between a and b, supplementing
// the distilled spec from the original report/policy_diff.py module. It
// is a pure data-model comparison — no rendering.
func Diff(a, b Policy) ([]FieldDiff, error) {
	aGeneric, err := toGeneric(a)
	if err != nil {
		return nil, err
	}
	bGeneric, err := toGeneric(b)
	if err != nil {
		return nil, err
	}

	var diffs []FieldDiff
	walkDiff("", aGeneric, bGeneric, &diffs)

	sort.Slice(diffs, func(i, j int) bool { return diffs[i].Path < diffs[j].Path })
	return diffs, nil
}

func toGeneric(p Policy) (any, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal policy for diff: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("unmarshal policy for diff: %w", err)
	}
	return generic, nil
}

func walkDiff(path string, a, b any, out *[]FieldDiff) {
	aMap, aIsMap := a.(map[string]any)
	bMap, bIsMap := b.(map[string]any)
	if aIsMap && bIsMap {
		keys := make(map[string]struct{})
		for k := range aMap {
			keys[k] = struct{}{}
		}
		for k := range bMap {
			keys[k] = struct{}{}
		}
		for k := range keys {
			childPath := k
			if path != "" {
				childPath = path + "." + k
			}
			walkDiff(childPath, aMap[k], bMap[k], out)
		}
		return
	}

	aJSON, _ := json.Marshal(a)
	bJSON, _ := json.Marshal(b)
	if string(aJSON) != string(bJSON) {
		*out = append(*out, FieldDiff{Path: path, A: a, B: b})
	}
}
