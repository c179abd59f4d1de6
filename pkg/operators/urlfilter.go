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
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/waycodes/curationgym/internal/curationerr"
	"github.com/waycodes/curationgym/pkg/document"
)

// DefaultBlockedPatterns covers the lexical markers spec §4.1 names as the
// default pattern list: adult, gambling, and piracy markers.
var DefaultBlockedPatterns = []string{
	`(?i)\bporn\b`,
	`(?i)\bxxx\b`,
	`(?i)\badult-?content\b`,
	`(?i)\bcasino\b`,
	`(?i)\bgambl(e|ing)\b`,
	`(?i)\bbetting\b`,
	`(?i)\btorrent\b`,
	`(?i)\bwarez\b`,
	`(?i)\bpirate-?bay\b`,
}

// Blocklist holds the registrable domains to reject, loaded once at
// operator construction per spec §4.1 ("any external resource is loaded
// once and treated as part of the configuration fingerprint").
type Blocklist struct {
	domains  map[string]struct{}
	patterns []*regexp.Regexp
}

// LoadBlocklist reads one domain per line from r, ignoring blank lines and
// '#' comments, matching spec §6's blocklist file format.
func LoadBlocklist(r io.Reader, extraPatterns []string) (*Blocklist, error) {
	domains := make(map[string]struct{})
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains[strings.ToLower(line)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, curationerr.NewConfigError("cannot read URL blocklist", "", "", err)
	}

	patternSrcs := append(append([]string{}, DefaultBlockedPatterns...), extraPatterns...)
	compiled := make([]*regexp.Regexp, 0, len(patternSrcs))
	for _, src := range patternSrcs {
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, curationerr.NewConfigError("invalid URL blocklist pattern", src, "", err)
		}
		compiled = append(compiled, re)
	}

	return &Blocklist{domains: domains, patterns: compiled}, nil
}

// LoadBlocklistFile loads a Blocklist from a file path.
func LoadBlocklistFile(path string, extraPatterns []string) (*Blocklist, error) {
	f, err := os.Open(path) //nolint:gosec // operator-supplied config path
	if err != nil {
		return nil, curationerr.NewConfigError(fmt.Sprintf("cannot open blocklist %q", path), "", "", err)
	}
	defer func() { _ = f.Close() }()
	return LoadBlocklist(f, extraPatterns)
}

// registrableDomain returns host and all of its parent domains, e.g.
// "a.b.example.com" -> ["a.b.example.com", "b.example.com",
// "example.com", "com"], so a blocklist entry for any parent matches.
func registrableDomain(host string) []string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	parts := strings.Split(host, ".")
	out := make([]string, 0, len(parts))
	for i := range parts {
		out = append(out, strings.Join(parts[i:], "."))
	}
	return out
}

// Blocked reports whether rawURL's host (or a parent domain) is listed, or
// the URL matches any configured regex pattern.
func (b *Blocklist) Blocked(rawURL string) bool {
	host := extractHost(rawURL)
	if host != "" {
		for _, candidate := range registrableDomain(host) {
			if _, ok := b.domains[candidate]; ok {
				return true
			}
		}
	}
	for _, p := range b.patterns {
		if p.MatchString(rawURL) {
			return true
		}
	}
	return false
}

// extractHost pulls the host portion out of a URL without requiring a
// scheme, using a minimal parse so malformed/no-scheme URLs still work.
func extractHost(rawURL string) string {
	rest := rawURL
	if idx := strings.Index(rest, "://"); idx != -1 {
		rest = rest[idx+3:]
	}
	if idx := strings.IndexAny(rest, "/?#"); idx != -1 {
		rest = rest[:idx]
	}
	if idx := strings.Index(rest, "@"); idx != -1 {
		rest = rest[idx+1:]
	}
	if idx := strings.LastIndex(rest, ":"); idx != -1 {
		// Avoid stripping the port off an IPv6 literal.
		if !strings.Contains(rest, "[") {
			rest = rest[:idx]
		}
	}
	return rest
}

// URLFilter builds the URL filter from spec §4.1.
func URLFilter(blocklist *Blocklist) Filter {
	return NewFilter("url_filter", func(doc document.Document) (document.Document, bool, string) {
		if blocklist == nil || doc.Metadata.URL == "" {
			return doc, true, ""
		}
		if blocklist.Blocked(doc.Metadata.URL) {
			return doc, false, "url_blocked"
		}
		return doc, true, ""
	})
}
