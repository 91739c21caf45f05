package strand

import "sync/atomic"

// Resume is the one-shot handle a Bridge body hands to legacy callback
// code. Exactly one of Resolve or Reject must be called, exactly once;
// the second call reports ErrContinuationMisuse and leaves the first
// delivery untouched.
type Resume[T any] struct {
	c *continuation[T]
}

type continuation[T any] struct {
	resumed atomic.Bool
	done    chan struct{}
	value   T
	err     error
}

// Resolve delivers a value to the awaiting task.
func (r Resume[T]) Resolve(v T) error {
	if !r.c.resumed.CompareAndSwap(false, true) {
		return ErrContinuationMisuse
	}
	r.c.value = v
	close(r.c.done)
	return nil
}

// Reject delivers an error to the awaiting task.
func (r Resume[T]) Reject(err error) error {
	if !r.c.resumed.CompareAndSwap(false, true) {
		return ErrContinuationMisuse
	}
	r.c.err = err
	close(r.c.done)
	return nil
}

// Bridge converts a single callback invocation into an awaited value.
// body receives the resume handle and wires it into the callback API;
// the calling task suspends until the callback fires. A callback that
// never fires leaves the task parked until its scope is cancelled: the
// runtime cannot tell "not yet" from "never", so such leaks are the
// business of external instrumentation or timeouts.
func Bridge[T any](tc *TaskContext, body func(Resume[T])) (T, error) {
	c := &continuation[T]{done: make(chan struct{})}
	body(Resume[T]{c: c})
	if err := tc.Suspend(c.done); err != nil {
		var zero T
		return zero, err
	}
	return c.value, c.err
}
