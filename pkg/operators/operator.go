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
// Package operators implements the per-document transforms and predicates
// described in spec §4.1: annotators, filters, and transformers composed
// by the policy execute loop (pkg/pipeline).
//
// The teacher's codebase re-dispatches on a closure's call shape at
// runtime (see implements.go's method-set matching); spec §9's "Polymorphic
// operators" design note asks for a sum type instead, so Operator here is
// a small closed interface with three concrete kinds the pipeline driver
// switches on directly — no reflection, no runtime dispatch.
package operators

import "github.com/waycodes/curationgym/pkg/document"

// Kind distinguishes the three operator shapes from spec §4.1.
type Kind int

const (
	// KindAnnotate extends metadata; it never rejects a document.
	KindAnnotate Kind = iota
	// KindFilter may reject a document, recording the rejection reason in
	// metadata before doing so.
	KindFilter
	// KindTransform may rewrite Text; it never rejects.
	KindTransform
)

// Result is what an operator produces for one input document.
type Result struct {
	Doc      document.Document
	Rejected bool
	Reason   string
}

// Operator is the uniform shape every pipeline stage implements.
type Operator interface {
	// Name identifies the operator for logging and stats attribution.
	Name() string
	// OperatorKind reports which of the three shapes this operator is.
	OperatorKind() Kind
	// Apply runs the operator against doc, returning the (possibly
	// modified) document and whether it was rejected.
	Apply(doc document.Document) Result
}

// Annotate wraps a pure doc -> doc function as an Operator of KindAnnotate.
type Annotate struct {
	name string
	fn   func(document.Document) document.Document
}

// NewAnnotate builds an annotate-shaped operator.
func NewAnnotate(name string, fn func(document.Document) document.Document) Annotate {
	return Annotate{name: name, fn: fn}
}

func (a Annotate) Name() string      { return a.name }
func (a Annotate) OperatorKind() Kind { return KindAnnotate }
func (a Annotate) Apply(doc document.Document) Result {
	return Result{Doc: a.fn(doc)}
}

// Filter wraps a doc -> (doc, pass, reason) function as KindFilter.
type Filter struct {
	name string
	fn   func(document.Document) (document.Document, bool, string)
}

// NewFilter builds a filter-shaped operator.
func NewFilter(name string, fn func(document.Document) (document.Document, bool, string)) Filter {
	return Filter{name: name, fn: fn}
}

func (f Filter) Name() string      { return f.name }
func (f Filter) OperatorKind() Kind { return KindFilter }
func (f Filter) Apply(doc document.Document) Result {
	out, pass, reason := f.fn(doc)
	if pass {
		return Result{Doc: out}
	}
	out.MarkDropped(reason)
	return Result{Doc: out, Rejected: true, Reason: reason}
}

// Transform wraps a doc -> doc function that may rewrite Text, as KindTransform.
type Transform struct {
	name string
	fn   func(document.Document) document.Document
}

// NewTransform builds a transform-shaped operator.
func NewTransform(name string, fn func(document.Document) document.Document) Transform {
	return Transform{name: name, fn: fn}
}

func (t Transform) Name() string      { return t.name }
func (t Transform) OperatorKind() Kind { return KindTransform }
func (t Transform) Apply(doc document.Document) Result {
	return Result{Doc: t.fn(doc)}
}
