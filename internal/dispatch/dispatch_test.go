package dispatch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-ml/weft/internal/ad"
	"github.com/weft-ml/weft/internal/dispatch"
	"github.com/weft-ml/weft/internal/num"
	"github.com/weft-ml/weft/internal/tape"
)

// scaler is one polymorphic dispatch target: y contribution = k*x.
type scaler struct {
	k float64
}

// sumK is the aggregate coefficient of a group of scalers.
func sumK(g *dispatch.Group) float64 {
	total := 0.0
	for _, item := range g.Items {
		total += item.(*scaler).k
	}
	return total
}

// scalerFuncs builds the three dispatch functions for y = sum_i(k_i * x).
func scalerFuncs() (dispatch.PrimalFunc, dispatch.ForwardFunc, dispatch.BackwardFunc) {
	fn := func(self *dispatch.Group, args ad.Tuple) ad.Value {
		x := args[0].(*ad.Array)
		return ad.NewArray(x.Tape(), num.Scale(sumK(self), x.Buffer()))
	}
	fwd := func(self *dispatch.Group, argGrads ad.Tuple, args ad.Tuple) ad.Value {
		gx := argGrads[0].(*ad.Array)
		return ad.NewArray(gx.Tape(), num.Scale(sumK(self), gx.Buffer()))
	}
	rev := func(self *dispatch.Group, outGrad ad.Value, args ad.Tuple) ad.Tuple {
		g := outGrad.(*ad.Array)
		return ad.Tuple{ad.NewArray(g.Tape(), num.Scale(sumK(self), g.Buffer()))}
	}
	return fn, fwd, rev
}

// recordingEngine counts forced evaluations.
type recordingEngine struct {
	mode   dispatch.ExecMode
	forced int
}

func (e *recordingEngine) Mode() dispatch.ExecMode { return e.mode }
func (e *recordingEngine) Force(ad.Value)          { e.forced++ }

func TestCall_Backward(t *testing.T) {
	tp := tape.New(num.Float64)
	group := dispatch.NewGroup(&scaler{k: 2}, &scaler{k: 3})
	fn, fwd, rev := scalerFuncs()

	x := ad.NewScalar(tp, 4).RequireGrad()
	y := dispatch.Call(tp, nil, group, fn, fwd, rev, x).(*ad.Array)

	require.True(t, y.GradEnabled())
	assert.Equal(t, []float64{20}, y.Buffer().Float64s())

	y.AccumGrad(num.Scalar(1))
	tp.Backward(y.Handle())
	assert.Equal(t, []float64{5}, x.Grad().Float64s())
}

func TestCall_Forward(t *testing.T) {
	tp := tape.New(num.Float64)
	group := dispatch.NewGroup(&scaler{k: 2}, &scaler{k: 3})
	fn, fwd, rev := scalerFuncs()

	x := ad.NewScalar(tp, 4).RequireGrad()
	y := dispatch.Call(tp, nil, group, fn, fwd, rev, x).(*ad.Array)

	x.AccumGrad(num.Scalar(1))
	tp.Forward(x.Handle())
	require.NotNil(t, y.Grad())
	assert.Equal(t, []float64{5}, y.Grad().Float64s())
}

func TestCall_DegradesForNonDifferentiable(t *testing.T) {
	tp := tape.New(num.Float64)
	group := dispatch.NewGroup(&scaler{k: 2})

	called := false
	fn := func(self *dispatch.Group, args ad.Tuple) ad.Value {
		called = true
		x := args[0].(*ad.Array)
		assert.False(t, x.GradEnabled())
		return ad.NewArray(tp, num.Scale(2, x.Buffer()))
	}

	x := ad.NewArray(tp, num.FromInt64s([]int64{7}))
	y := dispatch.Call(tp, nil, group, fn, nil, nil, x)

	assert.True(t, called)
	assert.False(t, ad.GradEnabled(y))
	// Integer dispatch never touches the tape.
	assert.Equal(t, 0, tp.NumNodes())
	assert.Equal(t, 0, tp.NumEdges())
}

func TestCall_DetachedFloatTakesFastPath(t *testing.T) {
	tp := tape.New(num.Float64)
	group := dispatch.NewGroup(&scaler{k: 2})
	fn, fwd, rev := scalerFuncs()

	x := ad.NewScalar(tp, 4) // float but detached
	y := dispatch.Call(tp, nil, group, fn, fwd, rev, x)

	assert.False(t, ad.GradEnabled(y))
	assert.Equal(t, 0, tp.NumNodes())
}

func TestCall_SymbolicRequiredSkipsForce(t *testing.T) {
	for _, tc := range []struct {
		mode   dispatch.ExecMode
		forced int
	}{
		{dispatch.EagerMode, 1},
		{dispatch.SymbolicMode, 1},
		{dispatch.SymbolicRequired, 0},
	} {
		tp := tape.New(num.Float64)
		group := dispatch.NewGroup(&scaler{k: 2})
		fn, fwd, rev := scalerFuncs()
		eng := &recordingEngine{mode: tc.mode}

		x := ad.NewScalar(tp, 4).RequireGrad()
		y := dispatch.Call(tp, eng, group, fn, fwd, rev, x).(*ad.Array)

		y.AccumGrad(num.Scalar(1))
		tp.Backward(y.Handle())

		assert.Equal(t, tc.forced, eng.forced, "mode %v", tc.mode)
		assert.Equal(t, []float64{2}, x.Grad().Float64s())
	}
}

func TestCall_PrimalsRetained(t *testing.T) {
	tp := tape.New(num.Float64)
	group := dispatch.NewGroup(&scaler{k: 3})

	// A backward rule that needs the argument primal: d(k*x^2)/dx = 2*k*x.
	fnSq := func(self *dispatch.Group, args ad.Tuple) ad.Value {
		x := args[0].(*ad.Array)
		return ad.NewArray(x.Tape(), num.Scale(sumK(self), num.Mul(x.Buffer(), x.Buffer())))
	}
	revSq := func(self *dispatch.Group, outGrad ad.Value, args ad.Tuple) ad.Tuple {
		g := outGrad.(*ad.Array)
		x := args[0].(*ad.Array)
		require.NotNil(t, x.Buffer(), "vcall must retain argument primals")
		return ad.Tuple{ad.NewArray(g.Tape(),
			num.Scale(2*sumK(self), num.Mul(x.Buffer(), g.Buffer())))}
	}

	x := ad.NewScalar(tp, 4).RequireGrad()
	y := dispatch.Call(tp, nil, group, fnSq, nil, revSq, x).(*ad.Array)
	assert.Equal(t, []float64{48}, y.Buffer().Float64s())

	y.AccumGrad(num.Scalar(1))
	tp.Backward(y.Handle())
	assert.Equal(t, []float64{24}, x.Grad().Float64s())
}

func TestGroup(t *testing.T) {
	g := dispatch.NewGroup(&scaler{k: 1}, &scaler{k: 2})
	assert.Equal(t, 2, g.Len())
}
