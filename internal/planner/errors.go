package planner

import "fmt"

// ValidationKind identifies why a move plan was rejected.
type ValidationKind int

const (
	// KindCollision means two distinct source paths map to the same
	// destination path, or the same source is listed twice.
	KindCollision ValidationKind = iota

	// KindDanglingMove means a planned destination is unusable: the path
	// already exists and is not itself part of the plan's source set, or
	// its parent chain runs through an existing file.
	KindDanglingMove

	// KindMissingSource means a planned source path matches neither a
	// file nor a directory in the repository.
	KindMissingSource
)

// String returns a human-readable representation of the validation kind.
func (k ValidationKind) String() string {
	switch k {
	case KindCollision:
		return "collision"
	case KindDanglingMove:
		return "dangling move"
	case KindMissingSource:
		return "missing source"
	default:
		return "unknown"
	}
}

// ValidationError is a fatal plan error detected before any mutation.
// The cmd layer maps it to exit code 2.
type ValidationError struct {
	// Kind is the category of the rejection.
	Kind ValidationKind

	// Detail names the offending path(s).
	Detail string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid move plan (%s): %s", e.Kind, e.Detail)
}
