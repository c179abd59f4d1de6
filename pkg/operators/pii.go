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
	"net"
	"regexp"

	"github.com/waycodes/curationgym/pkg/document"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	ipv4Pattern  = regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`)
)

const piiMaskPlaceholder = "[MASKED]"

// isPublicIPv4 excludes RFC1918 private ranges and loopback, per spec §4.1.
func isPublicIPv4(candidate string) bool {
	ip := net.ParseIP(candidate)
	if ip == nil {
		return false
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return false
	}
	if ip4.IsLoopback() || ip4.IsPrivate() {
		return false
	}
	return true
}

// MaskPII builds the PII masking transformer from spec §4.1: regex
// substitution for emails and public IPv4 addresses, recording counts
// masked and flagging the text rewrite.
func MaskPII() Transform {
	return NewTransform("pii_mask", func(doc document.Document) document.Document {
		out := doc.Clone()
		emailCount := 0
		out.Text = emailPattern.ReplaceAllStringFunc(out.Text, func(match string) string {
			emailCount++
			return piiMaskPlaceholder
		})

		ipCount := 0
		out.Text = ipv4Pattern.ReplaceAllStringFunc(out.Text, func(match string) string {
			if !isPublicIPv4(match) {
				return match
			}
			ipCount++
			return piiMaskPlaceholder
		})

		if emailCount > 0 || ipCount > 0 {
			out.Metadata.TextRewritten = true
		}
		if out.Metadata.Extra == nil {
			out.Metadata.Extra = map[string]any{}
		}
		out.Metadata.Extra["pii_emails_masked"] = emailCount
		out.Metadata.Extra["pii_ips_masked"] = ipCount
		return out
	})
}
