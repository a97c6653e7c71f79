// Package tape implements the dependency graph at the heart of the AD engine.
//
// A Tape is a directed graph of reference-counted nodes, one per
// differentiable value that was ever attached to the graph. An edge
// source -> target records that a gradient reaching target must be
// propagated to source during a backward traversal (and the reverse during a
// forward traversal). Edges either propagate by the built-in identity rule or
// carry a Callback that implements the propagation itself.
//
// Lifetime is explicit: every holder of a Handle (a live value, an edge, a
// pending dependency entry) owns exactly one reference, and a node is
// destroyed the moment its count reaches zero. Destroying a node drops its
// incoming edges, which releases their sources in turn, so teardown cascades
// through everything the node was keeping alive.
//
// A Tape is single-writer shared state: all mutation must happen on one
// logical thread of control at a time. Callbacks invoked during traversal
// must not mutate the graph.
package tape

import (
	"fmt"
	"sort"
	"strings"

	"github.com/weft-ml/weft/internal/num"
)

// Handle identifies a tape node. Zero means "no node"; negative values are
// never issued.
type Handle int32

// Callback is the propagation logic carried by a custom edge. It is owned by
// exactly one edge; Drop is called once, when that edge is destroyed.
type Callback interface {
	// Forward propagates input gradients to the output (forward-mode AD).
	Forward()

	// Backward propagates the output gradient to the inputs (reverse-mode AD).
	Backward()

	// Name returns a short label used in diagnostics.
	Name() string

	// Drop releases any state the callback still holds.
	Drop()
}

// edge is one incoming influence relation, stored on its target node.
// The edge owns one reference on source and, if set, owns cb.
type edge struct {
	source Handle
	cb     Callback
}

// halfEdge is the outgoing mirror of an edge: it locates the real edge in
// the target's incoming list.
type halfEdge struct {
	target Handle
	slot   int
}

type node struct {
	refs  int
	label string
	grad  *num.Buffer
	in    []edge
	out   []halfEdge
}

// Tape is one AD graph instance. Node payloads (gradients) are homogeneous:
// every gradient on a tape has the tape's dtype.
type Tape struct {
	dtype num.DType
	nodes map[Handle]*node
	next  Handle
	edges int
	deps  []Handle
}

// New creates an empty tape whose gradients have the given element type.
func New(dtype num.DType) *Tape {
	return &Tape{
		dtype: dtype,
		nodes: make(map[Handle]*node),
	}
}

// DType returns the tape's gradient element type.
func (t *Tape) DType() num.DType {
	return t.dtype
}

func (t *Tape) node(h Handle) *node {
	n, ok := t.nodes[h]
	if !ok {
		panic(fmt.Sprintf("tape: unknown node %d", h))
	}
	return n
}

// NewNode allocates a node with reference count 1, owned by the caller.
func (t *Tape) NewNode() Handle {
	t.next++
	h := t.next
	t.nodes[h] = &node{refs: 1}
	return h
}

// Acquire takes one reference on h. Acquiring the zero handle is a no-op.
func (t *Tape) Acquire(h Handle) {
	if h == 0 {
		return
	}
	t.node(h).refs++
}

// Release drops one reference on h, destroying the node when the count
// reaches zero. Destruction drops the node's incoming edges: each edge's
// callback is dropped and its source released, cascading through the graph.
// Releasing the zero handle is a no-op.
func (t *Tape) Release(h Handle) {
	if h == 0 {
		return
	}
	n := t.node(h)
	n.refs--
	if n.refs > 0 {
		return
	}
	if n.refs < 0 {
		panic(fmt.Sprintf("tape: reference underflow on node %d", h))
	}
	if len(n.out) != 0 {
		// Outgoing edges each hold a reference on this node, so the count
		// cannot reach zero while any exist.
		panic(fmt.Sprintf("tape: node %d destroyed with live outgoing edges", h))
	}
	delete(t.nodes, h)
	for _, e := range n.in {
		if e.cb != nil {
			e.cb.Drop()
		}
		t.unlink(e.source, h)
		t.edges--
		t.Release(e.source)
	}
}

// unlink removes the outgoing mirror entry for a destroyed target.
func (t *Tape) unlink(source, target Handle) {
	n := t.node(source)
	for i, he := range n.out {
		if he.target == target {
			n.out = append(n.out[:i], n.out[i+1:]...)
			return
		}
	}
	panic(fmt.Sprintf("tape: missing mirror edge %d -> %d", source, target))
}

// RefCount returns the current reference count of h.
func (t *Tape) RefCount(h Handle) int {
	return t.node(h).refs
}

// SetLabel attaches a display string to h, used only for diagnostics.
func (t *Tape) SetLabel(h Handle, label string) {
	t.node(h).label = label
}

// Label returns the display string of h, if any.
func (t *Tape) Label(h Handle) string {
	return t.node(h).label
}

// AddEdge records the influence relation source -> target with the built-in
// identity propagation rule. The edge owns one reference on source.
func (t *Tape) AddEdge(source, target Handle) {
	t.addEdge(source, target, nil)
}

// AddCustomEdge records source -> target with cb as the propagation rule.
// Ownership of cb transfers to the edge; it is dropped exactly once, when the
// target node is destroyed. Callers must guarantee the 1-to-1 endpoint
// topology themselves (see the custom-op layer).
func (t *Tape) AddCustomEdge(source, target Handle, cb Callback) {
	if cb == nil {
		panic("tape: AddCustomEdge with nil callback")
	}
	t.addEdge(source, target, cb)
}

func (t *Tape) addEdge(source, target Handle, cb Callback) {
	if source == 0 || target == 0 {
		panic("tape: edge endpoint is the zero handle")
	}
	dst := t.node(target)
	src := t.node(source)
	dst.in = append(dst.in, edge{source: source, cb: cb})
	src.out = append(src.out, halfEdge{target: target, slot: len(dst.in) - 1})
	t.Acquire(source)
	t.edges++
}

// NumNodes returns the number of live nodes.
func (t *Tape) NumNodes() int {
	return len(t.nodes)
}

// NumEdges returns the number of live edges.
func (t *Tape) NumEdges() int {
	return t.edges
}

// Dot renders the live graph in GraphViz format, for visualization of the
// node labels written by the custom-op layer.
func (t *Tape) Dot() string {
	handles := make([]Handle, 0, len(t.nodes))
	for h := range t.nodes {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })

	var b strings.Builder
	b.WriteString("digraph tape {\n")
	b.WriteString("  rankdir=BT;\n")
	for _, h := range handles {
		n := t.nodes[h]
		label := n.label
		if label == "" {
			label = fmt.Sprintf("#%d", h)
		}
		fmt.Fprintf(&b, "  n%d [label=%q];\n", h, fmt.Sprintf("%s (refs=%d)", label, n.refs))
	}
	for _, h := range handles {
		for _, e := range t.nodes[h].in {
			if e.cb != nil {
				fmt.Fprintf(&b, "  n%d -> n%d [style=bold, label=%q];\n", e.source, h, e.cb.Name())
			} else {
				fmt.Fprintf(&b, "  n%d -> n%d;\n", e.source, h)
			}
		}
	}
	b.WriteString("}\n")
	return b.String()
}
