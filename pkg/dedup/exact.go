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
package dedup

import "github.com/waycodes/curationgym/pkg/document"

// exactState tracks which normalized-text hashes have already been seen
// within one scope, per spec §4.2's exact dedup: "first occurrence of a
// hash is kept."
type exactState struct {
	seen map[string]struct{}
}

func newExactState() *exactState {
	return &exactState{seen: make(map[string]struct{})}
}

func (s *exactState) admit(doc document.Document) (clusterID string, isRep bool) {
	hash := ContentHash(doc.Text)
	if _, ok := s.seen[hash]; ok {
		return hash, false
	}
	s.seen[hash] = struct{}{}
	return hash, true
}
