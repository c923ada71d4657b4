package script

import (
	"errors"

	"github.com/bpowers/mathquill/pkg/tree"
)

// Script errors.
var (
	// ErrUnknownName indicates that a step refers to a node name never created.
	ErrUnknownName = errors.New("unknown node name")

	// ErrDuplicateName indicates that a create step reuses a node name.
	ErrDuplicateName = errors.New("duplicate node name")

	// ErrUnknownOp indicates that a step names an operation that does not exist.
	ErrUnknownOp = errors.New("unknown op")

	// ErrExpectation indicates that a step or the final rendering did not turn
	// out as the script expected.
	ErrExpectation = errors.New("expectation not met")

	// ErrInvalidScript indicates that a document does not match the script schema.
	ErrInvalidScript = errors.New("invalid script")
)

// Classify returns the expect_error class of err: the tree error class, or
// unknown_name and duplicate_name for name resolution failures. It returns ""
// when err matches none.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownName):
		return "unknown_name"
	case errors.Is(err, ErrDuplicateName):
		return "duplicate_name"
	default:
		return tree.Class(err)
	}
}
