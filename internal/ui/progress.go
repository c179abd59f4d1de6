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
package ui

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// ProgressConfig controls whether progress bars render at all, matching
// the teacher's rule: JSON output mode and quiet mode both suppress
// progress bars so they cannot corrupt machine-readable output.
type ProgressConfig struct {
	Quiet bool
	JSON  bool
}

// NewBar creates a phase progress bar, or a no-op writer target when
// output should stay quiet (teacher's NewProgressBar/index.go pattern).
func NewBar(cfg ProgressConfig, total int64, description string) *progressbar.ProgressBar {
	if cfg.Quiet || cfg.JSON {
		return progressbar.NewOptions64(total, progressbar.OptionSetWriter(io.Discard))
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100_000_000),
		progressbar.OptionClearOnFinish(),
	)
}
