package strand

import (
	"errors"
	"sync"
)

// Group is a dynamically sized set of child tasks sharing one result
// type. Results stream through Next in completion order: a lazy,
// single-pass, non-restartable sequence.
type Group[T any] struct {
	sub     *Scope
	collect bool

	mu      sync.Mutex
	queue   []T
	added   int
	settled int
	failure error

	// notify carries at most one pending wakeup for the single
	// consumer; Next drains stale tokens by re-checking state.
	notify chan struct{}
}

// WithGroup runs body with a fail-fast group: the first child failure
// cancels the remaining children, buffered results are discarded, and
// a GroupChildError is the single surfaced outcome. Children still
// running when body returns are cancelled, then awaited, before
// WithGroup returns; the group is never observably complete while any
// child is live.
func WithGroup[T any](tc *TaskContext, body func(g *Group[T]) error) error {
	g := newGroup[T](tc, false)
	err := body(g)
	return g.finish(tc, err)
}

// WithCollectingGroup is the collect-partial variant, a distinct entry
// point by design: child failures do not cancel siblings, results keep
// streaming, and the first failure is reported only after every child
// has settled.
func WithCollectingGroup[T any](tc *TaskContext, body func(g *Group[T]) error) error {
	g := newGroup[T](tc, true)
	err := body(g)
	return g.finish(tc, err)
}

func newGroup[T any](tc *TaskContext, collect bool) *Group[T] {
	policy := FailFast
	if collect {
		policy = Supervisor
	}
	return &Group[T]{
		sub:     tc.ChildScope(policy),
		collect: collect,
		notify:  make(chan struct{}, 1),
	}
}

// Go adds a task to the group. It starts running immediately.
func (g *Group[T]) Go(pri Priority, fn Work[T]) {
	g.mu.Lock()
	g.added++
	g.mu.Unlock()
	h := Spawn(g.sub, pri, fn)
	go func() {
		<-h.Done()
		g.push(h)
	}()
}

func (g *Group[T]) push(h *Handle[T]) {
	v, err := h.Wait()
	g.mu.Lock()
	g.settled++
	switch {
	case err == nil:
		if g.failure == nil || g.collect {
			g.queue = append(g.queue, v)
		}
	case errors.Is(err, ErrCancelled):
		// Cancelled children yield no result.
	default:
		if g.failure == nil {
			g.failure = &GroupChildError{TaskID: h.ID(), Err: err}
			if !g.collect {
				g.queue = nil
				g.sub.Cancel(g.failure)
			}
		}
	}
	g.mu.Unlock()
	select {
	case g.notify <- struct{}{}:
	default:
	}
}

// Next suspends until a child settles and yields its value, in
// completion order. ok is false once every child ever added has been
// consumed. In a fail-fast group the first child failure is returned
// instead of further values.
func (g *Group[T]) Next(tc *TaskContext) (value T, ok bool, err error) {
	for {
		g.mu.Lock()
		if g.failure != nil && !g.collect {
			failure := g.failure
			g.mu.Unlock()
			var zero T
			return zero, false, failure
		}
		if len(g.queue) > 0 {
			v := g.queue[0]
			g.queue = g.queue[1:]
			g.mu.Unlock()
			return v, true, nil
		}
		if g.settled == g.added {
			g.mu.Unlock()
			var zero T
			return zero, false, nil
		}
		g.mu.Unlock()
		if serr := tc.Suspend(g.notify); serr != nil {
			var zero T
			return zero, false, serr
		}
	}
}

// finish closes the group: cancels pending children if the consumer
// stopped early, waits for every child ever added to settle, and
// computes the surfaced outcome.
func (g *Group[T]) finish(tc *TaskContext, bodyErr error) error {
	g.mu.Lock()
	drained := len(g.queue) == 0 && g.settled == g.added && g.failure == nil
	g.mu.Unlock()
	if bodyErr != nil || !drained {
		g.sub.Cancel(bodyErr)
	}
	_ = g.sub.Join(tc)

	if bodyErr != nil {
		return bodyErr
	}
	g.mu.Lock()
	failure := g.failure
	g.mu.Unlock()
	if failure != nil {
		return failure
	}
	if tc.Cancelled() {
		return ErrCancelled
	}
	return nil
}
