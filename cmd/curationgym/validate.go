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
package main

import (
	"encoding/json"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/waycodes/curationgym/internal/curationerr"
	"github.com/waycodes/curationgym/internal/ui"
	"github.com/waycodes/curationgym/pkg/policy"
)

func runValidate(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: curationgym validate <policy-file>

Parses and canonicalizes a policy file, reporting its content hash and
which pipeline stages it would enable, without running the pipeline.
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	path := fs.Arg(0)

	pol, err := policy.LoadFile(path)
	if err != nil {
		curationerr.FatalError(curationerr.NewConfigError("policy failed to load", err.Error(), "check YAML syntax and field names", err), globals.Quiet)
	}
	if err := policy.Validate(pol); err != nil {
		curationerr.FatalError(curationerr.NewConfigError("policy failed validation", err.Error(), "", err), globals.Quiet)
	}

	report, err := policy.DryRun(pol)
	if err != nil {
		curationerr.FatalError(curationerr.NewInternalError("cannot build dry-run report", "", "", err), globals.Quiet)
	}

	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
		return
	}

	ui.Success("policy %s is valid", path)
	fmt.Printf("policy_hash:     %s\n", report.PolicyHash)
	fmt.Printf("dedup_method:    %s\n", report.DedupMethod)
	fmt.Printf("decontam_active: %v\n", report.DecontamActive)
	fmt.Printf("max_tokens:      %d\n", report.MaxTokens)
	fmt.Printf("enabled_stages:  %v\n", report.EnabledStages)
}
