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
// Package artifact implements the content-addressed artifact store and
// manifest from spec §4.7: keys of (policy-hash, code-version,
// input-signature) mapping to reconstructable dataset shards.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/waycodes/curationgym/pkg/policy"
)

// ShardEntry describes one flushed output shard file.
type ShardEntry struct {
	Path      string `json:"path"`
	Checksum  string `json:"checksum"`
	DocCount  int    `json:"doc_count"`
}

// Manifest is the self-describing record produced once per run, per
// spec §3.
type Manifest struct {
	DatasetID        string            `json:"dataset_id"`
	CreatedAt        time.Time         `json:"created_at"`
	InputSignatures  []string          `json:"input_signatures"`
	Policy           policy.Policy     `json:"policy"`
	PolicyHash       string            `json:"policy_hash"`
	CodeVersion      string            `json:"code_version"`
	CodeCommit       string            `json:"code_commit"`
	Dirty            bool              `json:"dirty"`
	Seed             int64             `json:"seed"`
	OutputFormat     string            `json:"output_format"`
	Shards           []ShardEntry      `json:"shards"`
	AggregateStats   map[string]any    `json:"aggregate_stats,omitempty"`
}

// CodeVersion is the build-time constant standing in for a source-derived
// version string, per spec §9 open question 1.
const CodeVersion = "curationgym-v1"

// InputSignature hashes a list of input descriptors (paths, URIs), in the
// order given, into one signature string; the same inputs in a different
// order give a different signature.
func InputSignature(inputs []string) string {
	h := sha256.New()
	for _, in := range inputs {
		_, _ = h.Write([]byte(in))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)[:8])
}

// ArtifactHash computes artifact_hash = SHA256(canonical({policy_hash,
// code_version, input_signature}))[:16], per spec §4.7. It depends on
// exactly those three inputs, nothing else.
func ArtifactHash(policyHash, codeVersion, inputSignature string) (string, error) {
	payload := map[string]string{
		"policy_hash":     policyHash,
		"code_version":    codeVersion,
		"input_signature": inputSignature,
	}
	canonical, err := canonicalize(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:8]), nil
}

// canonicalize round-trips v through JSON twice so map keys (and, since Go
// maps already serialize with sorted keys, nested struct fields turned
// into maps) end up in stable lexicographic order.
func canonicalize(v any) (string, error) {
	first, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	var generic any
	if err := json.Unmarshal(first, &generic); err != nil {
		return "", err
	}
	final, err := json.Marshal(generic)
	if err != nil {
		return "", err
	}
	return string(final), nil
}
