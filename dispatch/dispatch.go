// Copyright 2025 Weft ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package dispatch

import (
	"github.com/weft-ml/weft/internal/ad"
	"github.com/weft-ml/weft/internal/dispatch"
	"github.com/weft-ml/weft/internal/tape"
)

// Group is an ordered collection of polymorphic dispatch targets.
type Group = dispatch.Group

// PrimalFunc dispatches the primal call.
type PrimalFunc = dispatch.PrimalFunc

// ForwardFunc dispatches the forward-derivative call.
type ForwardFunc = dispatch.ForwardFunc

// BackwardFunc dispatches the backward-derivative call.
type BackwardFunc = dispatch.BackwardFunc

// ExecMode is the execution regime of the evaluating backend.
type ExecMode = dispatch.ExecMode

// Execution regimes.
const (
	EagerMode        = dispatch.EagerMode
	SymbolicMode     = dispatch.SymbolicMode
	SymbolicRequired = dispatch.SymbolicRequired
)

// Engine is the execution backend the adapter consults.
type Engine = dispatch.Engine

// NewGroup collects targets into a Group.
func NewGroup(items ...any) *Group {
	return dispatch.NewGroup(items...)
}

// Eager returns the default eager execution engine.
func Eager() Engine {
	return dispatch.Eager()
}

// Call dispatches the primal call across self, recording it on the tape when
// the arguments are differentiable.
func Call(tp *tape.Tape, eng Engine, self *Group, fn PrimalFunc,
	fwd ForwardFunc, rev BackwardFunc, args ...ad.Value) ad.Value {
	return dispatch.Call(tp, eng, self, fn, fwd, rev, args...)
}
