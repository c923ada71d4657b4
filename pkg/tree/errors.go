package tree

import "errors"

// Precondition errors, raised before anything is mutated.
var (
	// ErrMalformedFragment indicates that exactly one end of a fragment was given.
	ErrMalformedFragment = errors.New("malformed fragment: no half-empty fragments")

	// ErrMismatchedParent indicates that the two ends of a fragment have different parents.
	ErrMismatchedParent = errors.New("fragment ends do not share a parent")

	// ErrUnreachableEnd indicates that a fragment's right end cannot be reached
	// from its left end by following right siblings.
	ErrUnreachableEnd = errors.New("fragment end unreachable from the other end")

	// ErrCycle indicates that an adopt would make a node its own ancestor.
	ErrCycle = errors.New("adopt would create a cycle")

	// ErrStillAttached indicates that a node is disposed while still linked into its parent.
	ErrStillAttached = errors.New("node is still attached; disown it first")
)

// Structural errors. These signal a corrupted tree or API misuse and are not
// recoverable by retrying.
var (
	// ErrMissingParent indicates that a splice was given no parent.
	ErrMissingParent = errors.New("a parent is always present")

	// ErrStructuralInvariant indicates that sibling, parent and ends pointers disagree.
	ErrStructuralInvariant = errors.New("structural invariant violated")
)

// Lookup errors.
var (
	// ErrNotFound indicates that a node id was never issued or was disposed.
	ErrNotFound = errors.New("node not found")
)

var errorClasses = []struct {
	name string
	err  error
}{
	{"malformed_fragment", ErrMalformedFragment},
	{"mismatched_parent", ErrMismatchedParent},
	{"unreachable_end", ErrUnreachableEnd},
	{"cycle", ErrCycle},
	{"still_attached", ErrStillAttached},
	{"missing_parent", ErrMissingParent},
	{"structural_invariant", ErrStructuralInvariant},
	{"not_found", ErrNotFound},
}

// Class returns a short snake_case name for the sentinel err wraps, or ""
// when it wraps none of this package's errors.
func Class(err error) string {
	if err == nil {
		return ""
	}

	for _, class := range errorClasses {
		if errors.Is(err, class.err) {
			return class.name
		}
	}

	return ""
}
