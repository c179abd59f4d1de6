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
// Package ui provides the CLI's color and progress-bar facade, grounded on
// the teacher's internal/ui usage from cmd/cie/main.go (ui.InitColors) and
// cmd/cie/index.go (the per-phase progressbar.ProgressBar pattern).
package ui

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var colorsEnabled = true

// InitColors enables or disables ANSI color output. It respects an
// explicit --no-color flag, the NO_COLOR convention, and whether stdout is
// actually a terminal.
func InitColors(noColor bool) {
	colorsEnabled = !noColor && os.Getenv("NO_COLOR") == "" && isatty.IsTerminal(os.Stdout.Fd())
	color.NoColor = !colorsEnabled
}

// Enabled reports whether color output is currently active.
func Enabled() bool { return colorsEnabled }

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
)

// Success prints a green success line.
func Success(format string, args ...any) { successColor.Printf(format+"\n", args...) }

// Warn prints a yellow warning line.
func Warn(format string, args ...any) { warnColor.Printf(format+"\n", args...) }

// Error prints a red error line.
func Error(format string, args ...any) { errorColor.Printf(format+"\n", args...) }

// Info prints a cyan informational line.
func Info(format string, args ...any) { infoColor.Printf(format+"\n", args...) }
