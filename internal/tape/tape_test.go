package tape_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-ml/weft/internal/num"
	"github.com/weft-ml/weft/internal/tape"
)

// countingCB counts callback invocations for traversal tests.
type countingCB struct {
	fwd, bwd, dropped int
}

func (c *countingCB) Forward()     { c.fwd++ }
func (c *countingCB) Backward()    { c.bwd++ }
func (c *countingCB) Name() string { return "counting" }
func (c *countingCB) Drop()        { c.dropped++ }

func TestNode_Lifecycle(t *testing.T) {
	tp := tape.New(num.Float64)
	assert.Equal(t, 0, tp.NumNodes())

	h := tp.NewNode()
	require.NotEqual(t, tape.Handle(0), h)
	assert.Equal(t, 1, tp.NumNodes())
	assert.Equal(t, 1, tp.RefCount(h))

	tp.Acquire(h)
	assert.Equal(t, 2, tp.RefCount(h))

	tp.Release(h)
	assert.Equal(t, 1, tp.RefCount(h))

	tp.Release(h)
	assert.Equal(t, 0, tp.NumNodes())

	// The zero handle is inert.
	tp.Acquire(0)
	tp.Release(0)

	// Dead handles are a bookkeeping bug.
	assert.Panics(t, func() { tp.Release(h) })
	assert.Panics(t, func() { tp.RefCount(h) })
}

func TestEdge_TeardownCascades(t *testing.T) {
	tp := tape.New(num.Float64)
	a := tp.NewNode()
	b := tp.NewNode()
	c := tp.NewNode()
	tp.AddEdge(a, b)
	tp.AddEdge(b, c)
	assert.Equal(t, 2, tp.NumEdges())
	assert.Equal(t, 2, tp.RefCount(a)) // caller + edge
	assert.Equal(t, 2, tp.RefCount(b))

	// Drop the caller references on a and b; both stay alive through edges.
	tp.Release(a)
	tp.Release(b)
	assert.Equal(t, 3, tp.NumNodes())

	// Dropping c tears the whole chain down.
	tp.Release(c)
	assert.Equal(t, 0, tp.NumNodes())
	assert.Equal(t, 0, tp.NumEdges())
}

func TestLabels(t *testing.T) {
	tp := tape.New(num.Float64)
	h := tp.NewNode()
	assert.Equal(t, "", tp.Label(h))
	tp.SetLabel(h, "mul [in]")
	assert.Equal(t, "mul [in]", tp.Label(h))
}

func TestGrad_Accumulate(t *testing.T) {
	tp := tape.New(num.Float64)
	h := tp.NewNode()
	assert.Nil(t, tp.Grad(h))

	seed := num.FromFloat64s([]float64{1, 2})
	tp.AccumGrad(h, seed)
	tp.AccumGrad(h, seed)
	assert.Equal(t, []float64{2, 4}, tp.Grad(h).Float64s())

	// The first contribution is cloned, not aliased.
	seed.Float64s()[0] = 99
	assert.Equal(t, []float64{2, 4}, tp.Grad(h).Float64s())

	tp.ClearGrad(h)
	assert.Nil(t, tp.Grad(h))

	assert.Panics(t, func() { tp.AccumGrad(h, num.FromInt64s([]int64{1})) })
}

func TestBackward_IdentityChain(t *testing.T) {
	tp := tape.New(num.Float64)
	a := tp.NewNode()
	b := tp.NewNode()
	c := tp.NewNode()
	tp.AddEdge(a, b)
	tp.AddEdge(b, c)

	tp.AccumGrad(c, num.Scalar(3))
	tp.Backward(c)

	assert.Equal(t, []float64{3}, tp.Grad(b).Float64s())
	assert.Equal(t, []float64{3}, tp.Grad(a).Float64s())
}

func TestBackward_Diamond(t *testing.T) {
	// a -> b -> d and a -> c -> d: a must receive both contributions, and
	// only after both paths delivered them.
	tp := tape.New(num.Float64)
	a := tp.NewNode()
	b := tp.NewNode()
	c := tp.NewNode()
	d := tp.NewNode()
	tp.AddEdge(a, b)
	tp.AddEdge(a, c)
	tp.AddEdge(b, d)
	tp.AddEdge(c, d)

	tp.AccumGrad(d, num.Scalar(1))
	tp.Backward(d)

	assert.Equal(t, []float64{2}, tp.Grad(a).Float64s())
}

func TestForward_FanOut(t *testing.T) {
	tp := tape.New(num.Float64)
	a := tp.NewNode()
	b := tp.NewNode()
	c := tp.NewNode()
	tp.AddEdge(a, b)
	tp.AddEdge(a, c)

	tp.AccumGrad(a, num.Scalar(2))
	tp.Forward(a)

	assert.Equal(t, []float64{2}, tp.Grad(b).Float64s())
	assert.Equal(t, []float64{2}, tp.Grad(c).Float64s())
}

func TestCustomEdge_Callback(t *testing.T) {
	tp := tape.New(num.Float64)
	x := tp.NewNode()
	y := tp.NewNode()
	cb := &countingCB{}
	tp.AddCustomEdge(x, y, cb)

	// No gradient reached y: the callback must stay silent.
	tp.Backward(y)
	assert.Equal(t, 0, cb.bwd)

	tp.AccumGrad(y, num.Scalar(1))
	tp.Backward(y)
	assert.Equal(t, 1, cb.bwd)

	tp.ClearGrads()
	tp.AccumGrad(x, num.Scalar(1))
	tp.Forward(x)
	assert.Equal(t, 1, cb.fwd)

	// The edge owns the callback; destroying y drops it exactly once.
	tp.Release(y)
	assert.Equal(t, 1, cb.dropped)
	assert.Equal(t, 1, tp.RefCount(x))
	tp.Release(x)
	assert.Equal(t, 0, tp.NumNodes())
	assert.Equal(t, 1, cb.dropped)
}

func TestDependencies(t *testing.T) {
	tp := tape.New(num.Float64)
	h := tp.NewNode()

	tp.DeclareDependency(h)
	assert.Equal(t, 1, tp.DependencyCount())
	assert.Equal(t, 2, tp.RefCount(h)) // caller + dependency entry

	// Park the list, capture a nested one, restore.
	outer := tp.SwapDependencies(nil)
	assert.Equal(t, 0, tp.DependencyCount())
	inner := tp.NewNode()
	tp.DeclareDependency(inner)
	captured := tp.SwapDependencies(outer)
	require.Len(t, captured, 1)
	assert.Equal(t, inner, captured[0])
	assert.Equal(t, 1, tp.DependencyCount())

	// Captured entries transferred their references to us.
	tp.Release(inner) // caller ref
	assert.Equal(t, 1, tp.RefCount(inner))
	tp.Release(captured[0])
	assert.Equal(t, 1, tp.NumNodes())

	tp.ClearDependencies()
	assert.Equal(t, 0, tp.DependencyCount())
	assert.Equal(t, 1, tp.RefCount(h))
	tp.Release(h)
	assert.Equal(t, 0, tp.NumNodes())
}

func TestDot(t *testing.T) {
	tp := tape.New(num.Float64)
	a := tp.NewNode()
	b := tp.NewNode()
	tp.SetLabel(a, "square [in]")
	tp.AddCustomEdge(a, b, &countingCB{})

	dot := tp.Dot()
	assert.True(t, strings.HasPrefix(dot, "digraph tape {"))
	assert.Contains(t, dot, "square [in]")
	assert.Contains(t, dot, "counting")
	assert.Contains(t, dot, "style=bold")
}

func TestEdge_InvalidEndpoints(t *testing.T) {
	tp := tape.New(num.Float64)
	h := tp.NewNode()
	assert.Panics(t, func() { tp.AddEdge(0, h) })
	assert.Panics(t, func() { tp.AddEdge(h, 0) })
	assert.Panics(t, func() { tp.AddCustomEdge(h, h, nil) })
}
