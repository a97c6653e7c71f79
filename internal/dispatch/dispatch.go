// Package dispatch differentiates "invoke this call across a collection of
// polymorphic targets" operations. The caller supplies the dispatch logic
// three times over (primal, forward-derivative, backward-derivative); the
// adapter wraps them as a custom operation so the tape can traverse through
// the call, or bypasses the tape entirely when nothing differentiable is
// involved.
package dispatch

import (
	"github.com/weft-ml/weft/internal/ad"
	"github.com/weft-ml/weft/internal/tape"
)

// Group is an ordered collection of polymorphic dispatch targets. The
// adapter never inspects the items; the user-supplied dispatch functions
// decide how to fan the call across them.
type Group struct {
	Items []any
}

// NewGroup collects targets into a Group.
func NewGroup(items ...any) *Group {
	return &Group{Items: items}
}

// Len returns the number of targets.
func (g *Group) Len() int {
	return len(g.Items)
}

// PrimalFunc dispatches the primal call: detached arguments in, detached
// result out.
type PrimalFunc func(self *Group, args ad.Tuple) ad.Value

// ForwardFunc dispatches the forward-derivative call. argGrads carries the
// upstream gradient of each argument, args the argument primal values; the
// result is the output gradient contribution.
type ForwardFunc func(self *Group, argGrads ad.Tuple, args ad.Tuple) ad.Value

// BackwardFunc dispatches the backward-derivative call. outGrad is the
// output gradient; the result carries one gradient per argument, in order.
type BackwardFunc func(self *Group, outGrad ad.Value, args ad.Tuple) ad.Tuple

// callOp adapts a dispatched call to the custom-op protocol. Primals are
// retained: the derivative dispatch functions need the original argument
// values, not just their tape identities.
type callOp struct {
	self *Group
	eng  Engine
	fn   PrimalFunc
	fwd  ForwardFunc
	rev  BackwardFunc
}

func (op *callOp) Name() string { return "vcall" }

func (op *callOp) ClearPrimal() bool { return false }

func (op *callOp) Eval(inputs ...ad.Value) ad.Value {
	return ad.Detach(op.fn(op.self, ad.Tuple(inputs)))
}

func (op *callOp) Forward(ctx *ad.Context) {
	n := ctx.NumInputs()
	argGrads := make(ad.Tuple, n)
	args := make(ad.Tuple, n)
	for i := 0; i < n; i++ {
		argGrads[i] = ctx.InputGrad(i)
		args[i] = ctx.InputValue(i)
	}
	g := op.fwd(op.self, argGrads, args)
	// Symbolic-required executions must stay deferred; forcing evaluation
	// here would break batched kernel construction.
	if op.eng.Mode() != SymbolicRequired {
		op.eng.Force(g)
	}
	ctx.AccumOutputGrad(g)
}

func (op *callOp) Backward(ctx *ad.Context) {
	n := ctx.NumInputs()
	args := make(ad.Tuple, n)
	for i := 0; i < n; i++ {
		args[i] = ctx.InputValue(i)
	}
	grads := op.rev(op.self, ctx.OutputGrad(), args)
	if op.eng.Mode() != SymbolicRequired {
		op.eng.Force(grads)
	}
	for i, g := range grads {
		if i < n {
			ctx.AccumInputGrad(i, g)
		}
	}
}

// Call dispatches the primal call across self and, when the arguments are of
// a differentiable floating-point kind, records the call on the tape through
// the custom-op protocol. Non-differentiable dispatches (integer arguments,
// detached graphs with no engine recording) skip the tape entirely.
func Call(tp *tape.Tape, eng Engine, self *Group, fn PrimalFunc,
	fwd ForwardFunc, rev BackwardFunc, args ...ad.Value) ad.Value {
	if eng == nil {
		eng = Eager()
	}
	if !differentiable(args) {
		detached := make(ad.Tuple, len(args))
		for i, a := range args {
			detached[i] = ad.Detach(a)
		}
		return ad.Detach(fn(self, detached))
	}
	op := &callOp{self: self, eng: eng, fn: fn, fwd: fwd, rev: rev}
	return ad.Custom(tp, op, args...)
}

// differentiable reports whether any argument leaf carries a floating-point
// payload (or is already attached to the tape).
func differentiable(args []ad.Value) bool {
	found := false
	for _, a := range args {
		a.Leaves(func(l *ad.Array) {
			if l.GradEnabled() {
				found = true
				return
			}
			if b := l.Buffer(); b != nil && b.DType().Differentiable() {
				found = true
			}
		})
	}
	return found
}
