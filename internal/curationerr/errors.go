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
// Package curationerr provides the small typed-error hierarchy used across
// CurationGym, grounded on the teacher's internal/errors facade (referenced
// from cmd/cie/index.go as errors.NewDatabaseError / errors.FatalError,
// reconstructed here since the retrieval pack's copy of that package was
// trimmed by the example filter).
package curationerr

import (
	"fmt"
	"os"
)

// Kind categorizes an error per spec §7's error taxonomy.
type Kind string

const (
	// KindConfig covers operator configuration errors: invalid thresholds,
	// missing required external resources. Surfaced at pipeline
	// construction, never during streaming.
	KindConfig Kind = "config"
	// KindInput covers a reader's parse failure on a single record; the
	// offending record is skipped and the run continues.
	KindInput Kind = "input"
	// KindStorage covers a failed atomic rename/write, treated as a
	// shard-level failure.
	KindStorage Kind = "storage"
	// KindInternal covers anything not attributable to the above.
	KindInternal Kind = "internal"
)

// CurationError is the common shape for all typed errors in this module.
type CurationError struct {
	Kind    Kind
	Summary string
	Detail  string
	Hint    string
	Cause   error
}

func (e *CurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Summary, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Summary)
}

func (e *CurationError) Unwrap() error { return e.Cause }

// NewConfigError builds a KindConfig error.
func NewConfigError(summary, detail, hint string, cause error) *CurationError {
	return &CurationError{Kind: KindConfig, Summary: summary, Detail: detail, Hint: hint, Cause: cause}
}

// NewInputError builds a KindInput error.
func NewInputError(summary, detail string, cause error) *CurationError {
	return &CurationError{Kind: KindInput, Summary: summary, Detail: detail, Cause: cause}
}

// NewStorageError builds a KindStorage error.
func NewStorageError(summary, detail, hint string, cause error) *CurationError {
	return &CurationError{Kind: KindStorage, Summary: summary, Detail: detail, Hint: hint, Cause: cause}
}

// NewInternalError builds a KindInternal error.
func NewInternalError(summary, detail, hint string, cause error) *CurationError {
	return &CurationError{Kind: KindInternal, Summary: summary, Detail: detail, Hint: hint, Cause: cause}
}

// FatalError prints a CurationError (or any error) to stderr in the
// teacher's [ERROR]-prefixed style and exits the process. quiet suppresses
// the human-readable detail/hint lines but never the summary.
func FatalError(err error, quiet bool) {
	var ce *CurationError
	if asCurationError(err, &ce) {
		fmt.Fprintf(os.Stderr, "[ERROR] %s\n", ce.Summary)
		if !quiet {
			if ce.Detail != "" {
				fmt.Fprintf(os.Stderr, "  %s\n", ce.Detail)
			}
			if ce.Hint != "" {
				fmt.Fprintf(os.Stderr, "  hint: %s\n", ce.Hint)
			}
			if ce.Cause != nil {
				fmt.Fprintf(os.Stderr, "  cause: %v\n", ce.Cause)
			}
		}
	} else {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
	}
	os.Exit(1)
}

func asCurationError(err error, target **CurationError) bool {
	for err != nil {
		if ce, ok := err.(*CurationError); ok {
			*target = ce
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
