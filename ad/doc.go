// Copyright 2025 Weft ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ad provides custom differentiable operations over the weft tape.
//
// # Overview
//
// A custom operation implements the Op contract: a primal Eval plus Forward
// and Backward derivative callbacks. Custom evaluates the op and, when any
// input carries gradients, splices it into the tape as a callback edge so
// later traversals can invoke the derivatives.
//
// # Basic Usage
//
//	type Square struct{ x *ad.Array }
//
//	func (s *Square) Name() string { return "square" }
//
//	func (s *Square) Eval(inputs ...ad.Value) ad.Value {
//	    x := inputs[0].(*ad.Array)
//	    s.x = x
//	    return ad.NewArray(x.Tape(), num.Mul(x.Buffer(), x.Buffer()))
//	}
//
//	func (s *Square) Backward(ctx *ad.Context) {
//	    g := ctx.OutputGrad().(*ad.Array)
//	    ctx.AccumInputGrad(0, ad.NewArray(s.x.Tape(),
//	        num.Scale(2, num.Mul(s.x.Buffer(), g.Buffer()))))
//	}
//
//	func (s *Square) Forward(ctx *ad.Context) { ... }
//
//	tp := tape.New(num.Float64)
//	x := ad.NewScalar(tp, 3).RequireGrad()
//	y := ad.Custom(tp, &Square{}, x).(*ad.Array)
//	y.AccumGrad(num.Scalar(1))
//	tp.Backward(y.Handle())
//	// x.Grad() == 6
//
// # Contract
//
// Eval receives detached inputs and must return a detached output; returning
// an attached value raises a ContractError panic. Forward and Backward
// accumulate gradients, never overwrite. Ops that need primal values inside
// their derivative callbacks implement PrimalPolicy with ClearPrimal false.
package ad
