package strand

import (
	"errors"
	"fmt"
)

var (
	// ErrOrphanTask rejects work spawned outside an open scope.
	ErrOrphanTask = errors.New("strand: task spawned outside an open scope")

	// ErrCancelled is the terminal result of a cancelled task, surfaced
	// to anyone awaiting it.
	ErrCancelled = errors.New("strand: task cancelled")

	// ErrContinuationMisuse reports a second resume of a one-shot
	// continuation.
	ErrContinuationMisuse = errors.New("strand: continuation resumed twice")
)

// GroupChildError is the single failure surfaced by a fail-fast task
// group: the first child error, with the remaining children cancelled.
type GroupChildError struct {
	TaskID uint64
	Err    error
}

func (e *GroupChildError) Error() string {
	return fmt.Sprintf("strand: group child %d failed: %v", e.TaskID, e.Err)
}

func (e *GroupChildError) Unwrap() error { return e.Err }
