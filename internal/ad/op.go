package ad

import "fmt"

// Op is the contract a user-defined differentiable operation satisfies.
//
// Eval computes the primal result. Its inputs arrive detached from the tape
// and the result must be detached as well; returning an attached value is a
// contract violation and aborts the call.
//
// Forward and Backward are invoked later, during tape traversal, through the
// Context accessors: Forward reads upstream input gradients and accumulates
// into the output gradient, Backward reads the output gradient and
// accumulates per-input gradients. Both accumulate rather than overwrite,
// since multiple traversal contributions may target the same slot.
type Op interface {
	Eval(inputs ...Value) Value
	Forward(ctx *Context)
	Backward(ctx *Context)
	Name() string
}

// PrimalPolicy is optionally implemented by ops that need primal values, not
// just tape identities, inside Forward/Backward. Ops that do not implement it
// default to clearing primals after Eval, which releases the stored payload
// memory as soon as the operation is committed to the tape.
type PrimalPolicy interface {
	// ClearPrimal reports whether stored inputs/outputs keep only their tape
	// identity after Eval.
	ClearPrimal() bool
}

// ContractError reports a broken CustomOp contract: a bug in the operation
// author's implementation, not a recoverable runtime condition. It is raised
// via panic before any tape mutation is committed.
type ContractError struct {
	Op     string
	Reason string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("ad: custom op %q: %s", e.Op, e.Reason)
}

// Context gives Forward/Backward position-keyed access to the gradients and
// (when retained) primal values of the committed operation.
type Context struct {
	state *opState
}

// NumInputs returns the number of inputs the operation was called with.
func (c *Context) NumInputs() int {
	return len(c.state.inputs)
}

// InputGradEnabled reports whether input i is attached to the tape.
func (c *Context) InputGradEnabled(i int) bool {
	return GradEnabled(c.state.inputs[i])
}

// InputGrad returns the gradient of input i (forward-mode read).
func (c *Context) InputGrad(i int) Value {
	return Grad(c.state.inputs[i])
}

// InputValue returns the primal value of input i. Requires the op to retain
// primals (ClearPrimal() == false).
func (c *Context) InputValue(i int) Value {
	return Detach(c.state.inputs[i])
}

// OutputGrad returns the gradient of the output (reverse-mode read).
func (c *Context) OutputGrad() Value {
	return Grad(c.state.output)
}

// AccumInputGrad accumulates g into the gradient of input i (reverse mode).
func (c *Context) AccumInputGrad(i int, g Value) {
	AccumGrad(c.state.inputs[i], g)
}

// AccumOutputGrad accumulates g into the output gradient (forward mode).
func (c *Context) AccumOutputGrad(g Value) {
	AccumGrad(c.state.output, g)
}
