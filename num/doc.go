// Copyright 2025 Weft ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package num provides the primal value buffers the AD engine computes with.
//
// # Overview
//
// A Buffer is a flat, dtype-tagged payload with elementwise arithmetic:
//   - float64 buffers are differentiable and back the tape's gradients
//   - int64 buffers are non-differentiable and bypass the tape
//
// # Basic Usage
//
//	a := num.FromFloat64s([]float64{1, 2, 3})
//	b := num.Scalar(2.0)
//	c := num.Scale(2, a)          // [2 4 6]
//	num.AccumInto(c, a)           // c += a
//
// Buffers carry no shape information: the AD core only needs payloads it can
// clone, accumulate into, and compare. Array layout, broadcasting and views
// belong to the array library layered on top of this engine.
package num
