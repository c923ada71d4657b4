package tree

import "log/slog"

// Op names a structural operation for observers and logs.
type Op string

// Structural operations.
const (
	OpAdopt   Op = "adopt"
	OpDisown  Op = "disown"
	OpDispose Op = "dispose"
	OpRemove  Op = "remove"
	OpVerify  Op = "verify"
)

// Observer receives lifecycle and splice events from an Arena. Calls are
// synchronous and happen on the mutating goroutine.
type Observer interface {
	NodeCreated(id NodeID, kind Kind)
	NodeDisposed(id NodeID)
	Spliced(op Op, members int)
	Violation(op Op, err error)
}

type nopObserver struct{}

func (nopObserver) NodeCreated(NodeID, Kind) {}
func (nopObserver) NodeDisposed(NodeID)      {}
func (nopObserver) Spliced(Op, int)          {}
func (nopObserver) Violation(Op, error)      {}

// Option configures an Arena.
type Option func(*Arena)

// WithAssertions enables the checks that are too costly to run on every
// splice by default: fragment ends are verified to be reachable from each
// other at construction, and Adopt refuses a parent that descends from one
// of the fragment's members.
func WithAssertions(enabled bool) Option {
	return func(a *Arena) {
		a.assertions = enabled
	}
}

// WithLogger sets the logger used for splice and violation records.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Arena) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithObserver installs an Observer.
func WithObserver(observer Observer) Option {
	return func(a *Arena) {
		if observer != nil {
			a.observer = observer
		}
	}
}

// WithHibernationThreshold sets the minimum number of slots an Arena must
// hold before Hibernate compresses it.
func WithHibernationThreshold(slots int) Option {
	return func(a *Arena) {
		a.HibernationThreshold = slots
	}
}
