package tape

import (
	"fmt"

	"github.com/weft-ml/weft/internal/num"
)

// Grad returns the gradient accumulated on h, or nil if none has been
// written since the last clear.
func (t *Tape) Grad(h Handle) *num.Buffer {
	return t.node(h).grad
}

// AccumGrad adds g into the gradient slot of h. The first contribution
// clones g; later contributions accumulate elementwise.
func (t *Tape) AccumGrad(h Handle, g *num.Buffer) {
	if g == nil {
		return
	}
	if g.DType() != t.dtype {
		panic(fmt.Sprintf("tape: gradient dtype %v on %v tape", g.DType(), t.dtype))
	}
	n := t.node(h)
	if n.grad == nil {
		n.grad = g.Clone()
		return
	}
	num.AccumInto(n.grad, g)
}

// ClearGrad discards the gradient slot of h.
func (t *Tape) ClearGrad(h Handle) {
	t.node(h).grad = nil
}

// ClearGrads discards every gradient slot on the tape.
func (t *Tape) ClearGrads() {
	for _, n := range t.nodes {
		n.grad = nil
	}
}
