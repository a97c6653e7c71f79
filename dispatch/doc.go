// Copyright 2025 Weft ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dispatch differentiates vectorized calls across collections of
// polymorphic targets.
//
// # Overview
//
// A vectorized call runs "invoke this method" across a Group of receiver
// objects. To differentiate through it, the caller supplies the dispatch
// logic three times: the primal function, its forward derivative, and its
// backward derivative. Call wraps them as one custom operation on the tape;
// when the arguments are not of a differentiable floating-point kind it
// degrades to a plain dispatch with no tape overhead.
//
// # Execution modes
//
// The adapter consults an Engine for the active execution regime. Under
// SymbolicRequired, intermediate gradients are left unforced so deferred or
// batched kernel construction is preserved; in every other mode they are
// forced eagerly after each derivative dispatch.
package dispatch
