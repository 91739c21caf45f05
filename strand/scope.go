package strand

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Policy selects how a scope reacts to a child failure.
type Policy int

const (
	// FailFast cancels every sibling once one child fails.
	FailFast Policy = iota
	// Supervisor lets siblings run to completion and only records the
	// first failure.
	Supervisor
)

type Option func(*Options)

type Options struct {
	PanicAsError   bool
	Observer       Observer
	MaxConcurrency int
}

func defaultOptions() Options { return Options{PanicAsError: true} }

func WithPanicAsError(v bool) Option { return func(o *Options) { o.PanicAsError = v } }

func WithObserver(obs Observer) Option { return func(o *Options) { o.Observer = obs } }

func WithMaxConcurrency(n int) Option { return func(o *Options) { o.MaxConcurrency = n } }

// Scope owns the tasks spawned under it: none outlive it, cancelling it
// reaches every descendant, and closing it requires every child to be
// terminal first.
type Scope struct {
	rt       *Runtime
	ctx      context.Context
	cancel   context.CancelFunc
	policy   Policy
	wg       sync.WaitGroup
	mu       sync.Mutex
	firstErr error
	canceled bool
	closed   bool

	opts Options
	obs  Observer
	lim  Limiter
}

// NewScope opens a scope on the runtime's scheduler.
func (rt *Runtime) NewScope(parent context.Context, policy Policy, optFns ...Option) *Scope {
	return rt.newScope(parent, policy, defaultOptions(), optFns)
}

func (rt *Runtime) newScope(parent context.Context, policy Policy, base Options, optFns []Option) *Scope {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	s := &Scope{rt: rt, ctx: ctx, cancel: cancel, policy: policy, opts: base}
	for _, fn := range optFns {
		fn(&s.opts)
	}
	s.obs = s.opts.Observer
	if s.opts.MaxConcurrency > 0 {
		s.lim = newSemaphoreLimiter(s.opts.MaxConcurrency)
	}
	if s.obs != nil {
		s.obs.ScopeCreated(ctx)
	}
	return s
}

func (s *Scope) Context() context.Context { return s.ctx }

// Child opens a nested scope inheriting this scope's options.
// Cancelling the parent reaches the child.
func (s *Scope) Child(policy Policy, optFns ...Option) *Scope {
	return s.rt.newScope(s.ctx, policy, s.opts, optFns)
}

// register accounts a new child task; false once the scope is closed.
func (s *Scope) register() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *Scope) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Cancel marks the scope and every descendant task cancelled. A nil
// cause records ErrCancelled. Idempotent; only the first call carries
// a cause.
func (s *Scope) Cancel(err error) {
	if err == nil {
		err = ErrCancelled
	}
	s.mu.Lock()
	wasCanceled := s.canceled
	s.canceled = true
	if s.firstErr == nil {
		s.firstErr = err
	}
	cause := s.firstErr
	s.mu.Unlock()

	s.cancel()
	if !wasCanceled {
		logger.Debug("scope cancelled", "cause", cause)
		if s.obs != nil {
			s.obs.ScopeCancelled(s.ctx, cause)
		}
	}
}

// Wait blocks the calling goroutine until every child task is terminal
// and returns the first recorded error. It is the close point for
// callers outside the pool (entry points, test harnesses); tasks use
// Join instead. After Wait returns, further spawns are rejected as
// orphans.
func (s *Scope) Wait() error {
	var start time.Time
	if s.obs != nil {
		start = time.Now()
	}
	s.wg.Wait()
	if s.obs != nil {
		s.obs.ScopeJoined(s.ctx, time.Since(start))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.firstErr
}

// Join is the suspending form of Wait for use inside tasks: the
// caller's permit is yielded while children finish. The wait holds
// even under cancellation; children are still required to reach a
// terminal state.
func (s *Scope) Join(tc *TaskContext) error {
	var start time.Time
	if s.obs != nil {
		start = time.Now()
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	tc.block(done)
	if s.obs != nil {
		s.obs.ScopeJoined(s.ctx, time.Since(start))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.firstErr == nil && tc.Cancelled() {
		return ErrCancelled
	}
	return s.firstErr
}

// fail records a child failure and applies the policy. Cancellation
// outcomes are not failures; the cause is already on the scope.
func (s *Scope) fail(err error) {
	if err == nil || errors.Is(err, ErrCancelled) {
		return
	}
	s.mu.Lock()
	if s.firstErr == nil {
		s.firstErr = err
	}
	shouldCancel := s.policy == FailFast && !s.canceled
	cause := s.firstErr
	s.mu.Unlock()
	if shouldCancel {
		s.Cancel(cause)
	}
}

// Spawn creates a task under s and submits it immediately: the body
// starts running as soon as a permit is free, not when the handle is
// awaited. Spawning on a nil or closed scope yields a handle already
// failed with ErrOrphanTask.
func Spawn[T any](s *Scope, pri Priority, fn Work[T]) *Handle[T] {
	if s == nil || fn == nil {
		return orphanHandle[T]()
	}
	if !s.register() {
		return orphanHandle[T]()
	}
	t := newTask(s.ctx, pri)
	h := &Handle[T]{t: t, done: make(chan struct{})}
	go runTask(s, t, h, fn)
	return h
}

// runTask drives one task through its lifecycle on the task's own
// goroutine, gated by scheduler permits.
func runTask[T any](s *Scope, t *task, h *Handle[T], fn Work[T]) {
	defer s.wg.Done()

	if s.lim != nil {
		if err := s.lim.Acquire(t.ctx); err != nil {
			t.setState(Cancelled)
			var zero T
			h.resolve(zero, ErrCancelled)
			return
		}
		defer s.lim.Release()
	}

	s.rt.sched.submit(t)
	t.await()
	defer s.rt.sched.release()

	if t.ctx.Err() != nil {
		// Cancelled before it ever ran: skip the body entirely.
		t.setState(Cancelled)
		var zero T
		h.resolve(zero, ErrCancelled)
		return
	}
	t.setState(Running)

	tc := &TaskContext{rt: s.rt, scope: s, t: t}
	var start time.Time
	if s.obs != nil {
		start = time.Now()
		s.obs.TaskStarted(t.ctx)
	}

	value, err, panicked := invoke(tc, fn)
	tc.settle(err)

	switch {
	case err == nil:
		t.setState(Completed)
	case errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled):
		t.setState(Cancelled)
		err = ErrCancelled
	default:
		t.setState(Failed)
		s.fail(err)
	}
	if s.obs != nil {
		s.obs.TaskFinished(t.ctx, time.Since(start), err, panicked)
	}
	h.resolve(value, err)
}

func invoke[T any](tc *TaskContext, fn Work[T]) (value T, err error, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			if tc.scope.opts.PanicAsError {
				panicked = true
				err = fmt.Errorf("strand: panic in task %d: %v", tc.t.id, r)
				return
			}
			panic(r)
		}
	}()
	value, err = fn(tc)
	return
}
