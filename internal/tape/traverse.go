package tape

// Traversal visits the subgraph reachable from a set of seed nodes in
// dependency order and applies each edge's propagation rule: the callback if
// the edge carries one, else the built-in identity transfer. Gradients are
// seeded with AccumGrad before traversing and read back with Grad after.
//
// Nodes whose gradient slot is still empty when visited are skipped; no
// gradient reached them, so there is nothing to propagate onward.

// Backward runs a reverse-mode traversal from the given root nodes,
// propagating gradients from each node to its sources.
func (t *Tape) Backward(roots ...Handle) {
	for _, h := range t.order(roots, true) {
		n := t.node(h)
		if n.grad == nil {
			continue
		}
		for _, e := range n.in {
			if e.cb != nil {
				e.cb.Backward()
			} else {
				t.AccumGrad(e.source, n.grad)
			}
		}
	}
}

// Forward runs a forward-mode traversal from the given root nodes,
// propagating gradients from each node to its targets.
func (t *Tape) Forward(roots ...Handle) {
	for _, h := range t.order(roots, false) {
		n := t.node(h)
		if n.grad == nil {
			continue
		}
		for _, he := range n.out {
			e := t.node(he.target).in[he.slot]
			if e.cb != nil {
				e.cb.Forward()
			} else {
				t.AccumGrad(he.target, n.grad)
			}
		}
	}
}

// order returns the reachable subgraph in topological order: every node
// appears before the nodes it propagates to. The graph is acyclic by
// construction (edges are only ever added between already existing nodes),
// so a DFS reverse postorder suffices.
func (t *Tape) order(roots []Handle, backward bool) []Handle {
	seen := make(map[Handle]bool, len(roots))
	var post []Handle
	var visit func(h Handle)
	visit = func(h Handle) {
		if h == 0 || seen[h] {
			return
		}
		seen[h] = true
		n := t.node(h)
		if backward {
			for _, e := range n.in {
				visit(e.source)
			}
		} else {
			for _, he := range n.out {
				visit(he.target)
			}
		}
		post = append(post, h)
	}
	for _, r := range roots {
		visit(r)
	}
	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}
