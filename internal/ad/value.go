// Package ad implements the primal/gradient duality of values flowing
// through the tape, and the custom-operation protocol that splices
// user-defined differentiable operations into it.
package ad

import (
	"github.com/weft-ml/weft/internal/num"
	"github.com/weft-ml/weft/internal/tape"
)

// Value is anything that can flow through a custom operation: a single
// differentiable array or a composite of them. Leaves visits the
// differentiable leaf components in a stable order; Map rebuilds the same
// structure with each leaf replaced.
type Value interface {
	Leaves(fn func(*Array))
	Map(fn func(*Array) *Array) Value
}

// Array is one leaf value: a primal payload plus optional tape identity.
// The payload may be absent (primal-cleared form, where only the tape node
// survives) and the handle may be zero (detached form).
type Array struct {
	tape *tape.Tape
	buf  *num.Buffer
	node tape.Handle
}

// NewArray wraps a buffer as a detached value on the given tape.
func NewArray(tp *tape.Tape, buf *num.Buffer) *Array {
	return &Array{tape: tp, buf: buf}
}

// NewScalar wraps a single float64 as a detached value.
func NewScalar(tp *tape.Tape, v float64) *Array {
	return NewArray(tp, num.Scalar(v))
}

// Tape returns the tape this value belongs to.
func (a *Array) Tape() *tape.Tape {
	return a.tape
}

// Buffer returns the primal payload, or nil in primal-cleared form.
func (a *Array) Buffer() *num.Buffer {
	return a.buf
}

// Handle returns the tape node handle, zero when detached.
func (a *Array) Handle() tape.Handle {
	return a.node
}

// GradEnabled reports whether the value carries tape identity.
func (a *Array) GradEnabled() bool {
	return a.node != 0
}

// RequireGrad attaches the value to the tape, allocating a fresh node. It is
// a no-op if the value is already attached or its payload is not a
// differentiable type. The value owns one reference on the node; Release
// drops it.
func (a *Array) RequireGrad() *Array {
	if a.node == 0 && a.buf != nil && a.buf.DType().Differentiable() {
		a.node = a.tape.NewNode()
	}
	return a
}

// Detach returns a copy sharing the primal payload with the tape identity
// cleared. The receiver is left untouched.
func (a *Array) Detach() *Array {
	return &Array{tape: a.tape, buf: a.buf}
}

// StripPrimal returns a copy retaining only the tape identity.
func (a *Array) StripPrimal() *Array {
	return &Array{tape: a.tape, node: a.node}
}

// Grad returns the gradient accumulated on this value's tape node, or nil.
func (a *Array) Grad() *num.Buffer {
	if a.node == 0 {
		return nil
	}
	return a.tape.Grad(a.node)
}

// AccumGrad adds g into this value's tape node.
func (a *Array) AccumGrad(g *num.Buffer) {
	if a.node == 0 {
		return
	}
	a.tape.AccumGrad(a.node, g)
}

// Release drops the value's owned node reference and detaches it.
func (a *Array) Release() {
	if a.node != 0 {
		a.tape.Release(a.node)
		a.node = 0
	}
}

// Leaves implements Value.
func (a *Array) Leaves(fn func(*Array)) {
	fn(a)
}

// Map implements Value.
func (a *Array) Map(fn func(*Array) *Array) Value {
	return fn(a)
}

// Tuple is an ordered composite of values.
type Tuple []Value

// Leaves implements Value, visiting components in order.
func (t Tuple) Leaves(fn func(*Array)) {
	for _, v := range t {
		v.Leaves(fn)
	}
}

// Map implements Value.
func (t Tuple) Map(fn func(*Array) *Array) Value {
	out := make(Tuple, len(t))
	for i, v := range t {
		out[i] = v.Map(fn)
	}
	return out
}

// Detach returns a copy of v with all tape identity cleared. Primal payloads
// are shared, not copied; the original is never mutated.
func Detach(v Value) Value {
	return v.Map(func(l *Array) *Array { return l.Detach() })
}

// StripPrimal returns a copy of v retaining tape identity only.
func StripPrimal(v Value) Value {
	return v.Map(func(l *Array) *Array { return l.StripPrimal() })
}

// GradEnabled reports whether any leaf of v carries tape identity.
func GradEnabled(v Value) bool {
	enabled := false
	v.Leaves(func(l *Array) {
		if l.node != 0 {
			enabled = true
		}
	})
	return enabled
}

// EnableGrad attaches every differentiable leaf of v to the tape, in place.
func EnableGrad(v Value) {
	v.Leaves(func(l *Array) { l.RequireGrad() })
}

// CollectHandles appends the handles of all attached leaves of v to dst.
func CollectHandles(v Value, dst []tape.Handle) []tape.Handle {
	v.Leaves(func(l *Array) {
		if l.node != 0 {
			dst = append(dst, l.node)
		}
	})
	return dst
}

// Release drops the owned node references of every leaf of v.
func Release(v Value) {
	v.Leaves(func(l *Array) { l.Release() })
}

// Grad returns a detached value mirroring v's structure whose payloads are
// the gradients accumulated on v's nodes. Leaves without a node or without an
// accumulated gradient yield zeros when the primal length is known, else a
// nil payload.
func Grad(v Value) Value {
	return v.Map(func(l *Array) *Array {
		g := l.Grad()
		if g == nil && l.buf != nil && l.buf.DType().Differentiable() {
			g, _ = num.Zeros(l.buf.DType(), l.buf.Len())
		}
		return &Array{tape: l.tape, buf: g}
	})
}

// AccumGrad adds the payloads of g into the tape nodes of v, leaf by leaf.
// The structures must match.
func AccumGrad(v, g Value) {
	var grads []*Array
	g.Leaves(func(l *Array) { grads = append(grads, l) })
	i := 0
	v.Leaves(func(l *Array) {
		if i >= len(grads) {
			panic("ad: gradient structure mismatch")
		}
		if l.node != 0 && grads[i].buf != nil {
			l.tape.AccumGrad(l.node, grads[i].buf)
		}
		i++
	})
	if i != len(grads) {
		panic("ad: gradient structure mismatch")
	}
}
