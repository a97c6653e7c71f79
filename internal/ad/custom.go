package ad

import (
	"github.com/weft-ml/weft/internal/tape"
)

// opState is the committed form of a custom operation: the op itself plus
// snapshots of its inputs and output. It is owned by exactly one callback
// edge and lives exactly as long as that edge.
//
// The stored snapshots hold non-owning handles: the callback edge keeps the
// in endpoint alive, the in endpoint's fan edges keep every input node
// alive, and the edge itself can only be torn down as part of the output
// nodes' own teardown. Drop therefore zeroes the stored handles rather than
// releasing them; the owning references live elsewhere in the graph.
type opState struct {
	op     Op
	inputs []Value
	output Value
}

func (s *opState) ctx() *Context { return &Context{state: s} }

func (s *opState) Forward()  { s.op.Forward(s.ctx()) }
func (s *opState) Backward() { s.op.Backward(s.ctx()) }

func (s *opState) Name() string { return s.op.Name() }

func (s *opState) Drop() {
	zero := func(l *Array) { l.node = 0 }
	for _, in := range s.inputs {
		in.Leaves(zero)
	}
	s.output.Leaves(zero)
	s.inputs = nil
	s.output = nil
}

// Custom evaluates op on the given inputs and, if any input is attached to
// the tape, splices op into the graph as a callback edge connecting the
// input nodes to the output nodes.
//
// The returned value is either fully detached (no input carried gradients;
// the tape is untouched) or fully attached. When the gradient-enabled fan-in
// or fan-out is not exactly one, a synthetic aggregator node labeled
// "<name> [in]" / "<name> [out]" collapses the branching so the callback
// edge itself is always 1-to-1; plain identity edges carry the fan.
//
// Nodes attached to the tape as a side effect of Eval (reported through the
// tape's dependency side channel) are folded in as additional inputs, which
// keeps nested Custom evaluations composable.
func Custom(tp *tape.Tape, op Op, inputs ...Value) Value {
	// Park the caller's pending dependencies so Eval captures only its own.
	outer := tp.SwapDependencies(nil)

	detached := make([]Value, len(inputs))
	for i, in := range inputs {
		detached[i] = Detach(in)
	}
	output := op.Eval(detached...)

	if GradEnabled(output) {
		tp.ClearDependencies()
		tp.SwapDependencies(outer)
		panic(&ContractError{
			Op:     op.Name(),
			Reason: "Eval returned a value attached to the AD graph",
		})
	}

	// Reclaim the side-channel captures (reference ownership transfers to
	// us) and restore the caller's list.
	deps := tp.SwapDependencies(outer)

	var inHandles []tape.Handle
	for _, in := range inputs {
		inHandles = CollectHandles(in, inHandles)
	}
	inHandles = append(inHandles, deps...)

	if len(inHandles) == 0 {
		// No gradients requested anywhere: the output stays detached and
		// the tape gains nothing.
		return output
	}

	EnableGrad(output)

	outHandles := CollectHandles(output, nil)
	if len(outHandles) == 0 {
		panic("ad: custom op " + op.Name() +
			" recorded no output nodes despite gradient-enabled inputs")
	}

	clearPrimal := true
	if p, ok := op.(PrimalPolicy); ok {
		clearPrimal = p.ClearPrimal()
	}
	snapshot := func(v Value) Value {
		if clearPrimal {
			return StripPrimal(v)
		}
		return v.Map(func(l *Array) *Array {
			c := *l
			return &c
		})
	}

	state := &opState{op: op, output: snapshot(output)}
	state.inputs = make([]Value, len(inputs))
	for i, in := range inputs {
		state.inputs[i] = snapshot(in)
	}

	name := op.Name()

	// In endpoint: reuse the sole input node, else aggregate.
	var inVar tape.Handle
	if len(inHandles) == 1 {
		inVar = inHandles[0]
		tp.Acquire(inVar)
	} else {
		inVar = tp.NewNode()
		tp.SetLabel(inVar, name+" [in]")
		for _, h := range inHandles {
			tp.AddEdge(h, inVar)
		}
	}

	// Out endpoint, symmetrically.
	var outVar tape.Handle
	if len(outHandles) == 1 {
		outVar = outHandles[0]
		tp.Acquire(outVar)
	} else {
		outVar = tp.NewNode()
		tp.SetLabel(outVar, name+" [out]")
		for _, h := range outHandles {
			tp.AddEdge(outVar, h)
		}
	}

	// The callback edge owns the op state from here on.
	tp.AddCustomEdge(inVar, outVar, state)

	tp.Release(outVar)
	tp.Release(inVar)

	// The fan edges hold their own references on the captured dependencies;
	// drop the ones transferred from the side channel.
	for _, h := range deps {
		tp.Release(h)
	}

	return output
}
