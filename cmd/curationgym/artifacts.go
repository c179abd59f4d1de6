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
	"fmt"
	"os"

	"github.com/waycodes/curationgym/internal/curationerr"
	"github.com/waycodes/curationgym/internal/ui"
)

func runArtifacts(args []string, globals GlobalFlags) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: curationgym artifacts list|show <hash>|rm <hash>")
		os.Exit(1)
	}

	sub := args[0]
	subArgs := args[1:]

	runCfg, err := LoadRunConfig(globals.Config)
	if err != nil {
		curationerr.FatalError(curationerr.NewConfigError("cannot load run configuration", err.Error(), "", err), globals.Quiet)
	}
	store, err := newStoreFrom(runCfg)
	if err != nil {
		curationerr.FatalError(err, globals.Quiet)
	}

	switch sub {
	case "list":
		hashes, err := store.ListArtifacts()
		if err != nil {
			curationerr.FatalError(err, globals.Quiet)
		}
		if len(hashes) == 0 {
			ui.Info("no artifacts in %s", runCfg.OutputDir)
			return
		}
		for _, h := range hashes {
			status := "incomplete"
			if store.Exists(h) {
				status = "complete"
			}
			fmt.Printf("%s\t%s\n", h, status)
		}
	case "show":
		if len(subArgs) != 1 {
			fmt.Fprintln(os.Stderr, "Usage: curationgym artifacts show <hash>")
			os.Exit(1)
		}
		printManifest(store, subArgs[0], globals)
	case "rm":
		if len(subArgs) != 1 {
			fmt.Fprintln(os.Stderr, "Usage: curationgym artifacts rm <hash>")
			os.Exit(1)
		}
		if err := store.DeleteArtifact(subArgs[0]); err != nil {
			curationerr.FatalError(err, globals.Quiet)
		}
		ui.Success("removed artifact %s", subArgs[0])
	default:
		fmt.Fprintf(os.Stderr, "Unknown artifacts subcommand: %s\n", sub)
		os.Exit(1)
	}
}
