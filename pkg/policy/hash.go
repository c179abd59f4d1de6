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
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Canonicalize renders the policy as a JSON string with lexicographically
// sorted keys and no insignificant whitespace (spec §3). Two policies that
// are semantically identical under dict normalization — map key order is
// insensitive, struct field order is fixed by Go's type system — produce
// byte-identical canonical forms.
//
// encoding/json already sorts map[string]T keys when marshaling, at every
// nesting level; round-tripping the policy through a generic interface{}
// extends that sorting to the top-level struct fields as well, since they
// become map keys on the second pass.
func Canonicalize(p Policy) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal policy: %w", err)
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("normalize policy: %w", err)
	}

	canonical, err := json.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("marshal canonical policy: %w", err)
	}

	return string(canonical), nil
}

// Hash returns policy_hash: the first 16 hex characters of SHA-256 over
// the policy's canonical JSON form.
func Hash(p Policy) (string, error) {
	canonical, err := Canonicalize(p)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])[:16], nil
}

// MustHash is Hash but panics on error; useful for tests and constants
// derived from a known-good Policy literal.
func MustHash(p Policy) string {
	h, err := Hash(p)
	if err != nil {
		panic(err)
	}
	return h
}
