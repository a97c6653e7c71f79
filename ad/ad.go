// Copyright 2025 Weft ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ad

import (
	"github.com/weft-ml/weft/internal/ad"
	"github.com/weft-ml/weft/internal/num"
	"github.com/weft-ml/weft/internal/tape"
)

// Value is anything that can flow through a custom operation.
type Value = ad.Value

// Array is one leaf value: primal payload plus optional tape identity.
type Array = ad.Array

// Tuple is an ordered composite of values.
type Tuple = ad.Tuple

// Op is the contract a custom differentiable operation satisfies.
type Op = ad.Op

// PrimalPolicy is implemented by ops that control primal retention.
type PrimalPolicy = ad.PrimalPolicy

// Context gives Forward/Backward access to gradients and primal values.
type Context = ad.Context

// ContractError reports a broken custom-op contract.
type ContractError = ad.ContractError

// NewArray wraps a buffer as a detached value on the given tape.
func NewArray(tp *tape.Tape, buf *num.Buffer) *Array {
	return ad.NewArray(tp, buf)
}

// NewScalar wraps a single float64 as a detached value.
func NewScalar(tp *tape.Tape, v float64) *Array {
	return ad.NewScalar(tp, v)
}

// Custom evaluates op and splices it into the tape as a callback edge when
// any input carries gradients. See the package documentation for the
// contract.
func Custom(tp *tape.Tape, op Op, inputs ...Value) Value {
	return ad.Custom(tp, op, inputs...)
}

// Detach returns a copy of v with all tape identity cleared.
func Detach(v Value) Value {
	return ad.Detach(v)
}

// GradEnabled reports whether any leaf of v carries tape identity.
func GradEnabled(v Value) bool {
	return ad.GradEnabled(v)
}

// EnableGrad attaches every differentiable leaf of v to the tape, in place.
func EnableGrad(v Value) {
	ad.EnableGrad(v)
}

// Grad returns a detached value carrying the gradients accumulated on v.
func Grad(v Value) Value {
	return ad.Grad(v)
}

// Release drops the owned node references of every leaf of v.
func Release(v Value) {
	ad.Release(v)
}
