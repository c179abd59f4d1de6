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
// Command curationgym runs the reproducible, compute-budget-aware data
// curation pipeline described by a policy file against one or more raw
// document sources.
//
// Usage:
//
//	curationgym run --config curationgym.yaml
//	curationgym resume <run-id> --config curationgym.yaml
//	curationgym artifacts list|show|rm
//	curationgym inspect <artifact-hash> [--diff <policy-file>]
//	curationgym validate <policy-file>
//
// Dispatch follows the teacher's cmd/cie/main.go convention: pflag with
// SetInterspersed(false) so subcommand flags aren't swallowed by the global
// parser, then a switch on the first positional argument.
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/waycodes/curationgym/internal/ui"
)

var (
	version = "dev"
	commit  = "unknown"
)

// GlobalFlags holds flags that apply across every subcommand.
type GlobalFlags struct {
	JSON    bool
	NoColor bool
	Verbose int
	Quiet   bool
	Config  string
}

func main() {
	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")
		configPath  = flag.StringP("config", "c", "curationgym.yaml", "Path to the run configuration file")
		jsonOutput  = flag.Bool("json", false, "Output in JSON format where supported")
		noColor     = flag.Bool("no-color", false, "Disable color output")
		verbose     = flag.CountP("verbose", "v", "Increase verbosity (-v info, -vv debug)")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress progress bars and non-essential output")
	)

	flag.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `curationgym - reproducible, budget-aware text corpus curation

Usage:
  curationgym <command> [options]

Commands:
  run          Execute a policy end to end over the configured inputs
  resume       Resume a previous run by id, retrying failed/pending shards
  artifacts    list | show <hash> | rm <hash>
  inspect      Print an artifact's manifest and slice stats
  validate     Parse and canonicalize a policy without running it

Global Options:
  -c, --config     Path to curationgym.yaml (default "curationgym.yaml")
      --json       Output in JSON format where supported
      --no-color   Disable color output (respects NO_COLOR)
  -v, --verbose    Increase verbosity
  -q, --quiet      Suppress progress bars and non-essential output
  -V, --version    Show version and exit

Examples:
  curationgym validate policy.yaml
  curationgym run --config curationgym.yaml
  curationgym resume 7f3a9c1b2e4d5f60 --config curationgym.yaml
  curationgym inspect 7f3a9c1b2e4d5f60
  curationgym artifacts list

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("curationgym version %s (%s)\n", version, commit)
		os.Exit(0)
	}

	if os.Getenv("NO_COLOR") != "" {
		*noColor = true
	}
	if *quiet && *verbose > 0 {
		fmt.Fprintln(os.Stderr, "Error: cannot use --quiet and --verbose together")
		os.Exit(1)
	}
	if *jsonOutput {
		*quiet = true
	}

	globals := GlobalFlags{
		JSON:    *jsonOutput,
		NoColor: *noColor,
		Verbose: *verbose,
		Quiet:   *quiet,
		Config:  *configPath,
	}
	ui.InitColors(globals.NoColor)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "run":
		runRun(cmdArgs, globals)
	case "resume":
		runResume(cmdArgs, globals)
	case "artifacts":
		runArtifacts(cmdArgs, globals)
	case "inspect":
		runInspect(cmdArgs, globals)
	case "validate":
		runValidate(cmdArgs, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
