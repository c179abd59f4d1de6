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

	"github.com/waycodes/curationgym/pkg/document"
)

// TokenizerName identifies the fixed whitespace tokenizer used here. Spec
// §4.1 only requires that the tokenizer be identified by a stable name,
// not that it be a particular subword scheme.
const TokenizerName = "whitespace-v1"

// CountTokens implements the fixed tokenizer: count of whitespace-delimited
// runs. Idempotent by construction (pure function of text).
func CountTokens(text string) int {
	return len(strings.Fields(text))
}

// TokenCounter builds the token-count annotator from spec §4.1.
func TokenCounter() Annotate {
	return NewAnnotate("token_count", func(doc document.Document) document.Document {
		out := doc.Clone()
		out.Metadata.TokenCount = CountTokens(doc.Text)
		if out.Metadata.Extra == nil {
			out.Metadata.Extra = map[string]any{}
		}
		out.Metadata.Extra["tokenizer"] = TokenizerName
		return out
	})
}
