package tape

// The dependency side channel reports nodes implicitly created while a
// nested evaluation runs, so the caller can fold them into its own
// dependency accounting. Each list entry owns one reference on its node;
// ownership of those references moves with the list.

// DeclareDependency appends h to the pending dependency list, taking one
// reference on it. Operations that attach nodes to the tape as a side effect
// of a primal evaluation call this so the enclosing custom op can treat those
// nodes as inputs.
func (t *Tape) DeclareDependency(h Handle) {
	if h == 0 {
		return
	}
	t.Acquire(h)
	t.deps = append(t.deps, h)
}

// DependencyCount returns the number of pending dependency entries.
func (t *Tape) DependencyCount() int {
	return len(t.deps)
}

// SwapDependencies installs list as the pending dependency list and returns
// the previous one. Reference ownership of the entries transfers both ways.
// Callers capturing a nested evaluation park the outer list with
// SwapDependencies(nil), evaluate, then swap the outer list back in.
func (t *Tape) SwapDependencies(list []Handle) []Handle {
	old := t.deps
	t.deps = list
	return old
}

// ClearDependencies releases and discards all pending dependency entries.
func (t *Tape) ClearDependencies() {
	for _, h := range t.deps {
		t.Release(h)
	}
	t.deps = nil
}
