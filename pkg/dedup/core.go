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

import (
	"github.com/waycodes/curationgym/pkg/document"
	"github.com/waycodes/curationgym/pkg/policy"
)

// core holds one scope instance's (global, or one dump's) dedup state: the
// method-specific membership structure plus the cluster buffers Finalize
// needs for non-KeepFirst rules.
type core struct {
	method   policy.DedupMethod
	exact    *exactState
	minhash  *minHashState
	clusters map[string][]member
}

func newCore(cfg policy.DedupConfig) *core {
	c := &core{method: cfg.Method, clusters: make(map[string][]member)}
	switch cfg.Method {
	case policy.DedupMinHash:
		c.minhash = newMinHashState(cfg.MinHash)
	default:
		c.exact = newExactState()
	}
	return c
}

// admit assigns doc to a cluster, returning the cluster id and whether doc
// is that cluster's first (representative) member.
func (c *core) admit(doc document.Document) (clusterID string, isRep bool) {
	if c.minhash != nil {
		return c.minhash.admit(doc)
	}
	return c.exact.admit(doc)
}

func (c *core) record(clusterID string, m member) {
	c.clusters[clusterID] = append(c.clusters[clusterID], m)
}
