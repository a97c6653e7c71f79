package dispatch

import "github.com/weft-ml/weft/internal/ad"

// ExecMode is the execution regime of the backend evaluating dispatched
// kernels.
type ExecMode int

const (
	// EagerMode evaluates results immediately.
	EagerMode ExecMode = iota

	// SymbolicMode defers evaluation but tolerates forced materialization.
	SymbolicMode

	// SymbolicRequired defers evaluation and must never be forced; the
	// adapter skips intermediate-gradient materialization in this mode.
	SymbolicRequired
)

// String returns a human-readable mode name.
func (m ExecMode) String() string {
	switch m {
	case EagerMode:
		return "eager"
	case SymbolicMode:
		return "symbolic"
	case SymbolicRequired:
		return "symbolic-required"
	default:
		return "unknown"
	}
}

// Engine is the execution backend the adapter consults: which regime is
// active, and how to force a deferred value into materialized form.
type Engine interface {
	Mode() ExecMode
	Force(v ad.Value)
}

// eagerEngine is the default Engine: values are always materialized, so
// Force has nothing to do.
type eagerEngine struct{}

// Eager returns the default eager execution engine.
func Eager() Engine {
	return eagerEngine{}
}

func (eagerEngine) Mode() ExecMode { return EagerMode }

func (eagerEngine) Force(ad.Value) {}
