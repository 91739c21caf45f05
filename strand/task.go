package strand

import (
	"context"
	"sync/atomic"
	"time"
)

// Priority orders ready tasks in the scheduler queue. Higher runs
// first; ties are broken FIFO by submission order.
type Priority int

const (
	Low Priority = iota
	Medium
	High
	Critical
)

func (p Priority) String() string {
	switch p {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

// State is a task's position in its lifecycle.
type State int32

const (
	Created State = iota
	Ready
	Running
	Suspended
	Completed
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Suspended:
		return "suspended"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == Completed || s == Cancelled || s == Failed
}

// Work is the unit of schedulable work. The TaskContext is the only
// surface through which the body may suspend.
type Work[T any] func(tc *TaskContext) (T, error)

var taskSeq atomic.Uint64

type task struct {
	id     uint64
	pri    Priority
	state  atomic.Int32
	ctx    context.Context
	cancel context.CancelFunc

	// gate carries run-permit grants from the scheduler; capacity one,
	// one token consumed per admission.
	gate chan struct{}
}

func newTask(parent context.Context, pri Priority) *task {
	ctx, cancel := context.WithCancel(parent)
	return &task{
		id:     taskSeq.Add(1),
		pri:    pri,
		ctx:    ctx,
		cancel: cancel,
		gate:   make(chan struct{}, 1),
	}
}

func (t *task) grant() { t.gate <- struct{}{} }
func (t *task) await() { <-t.gate }

func (t *task) currentState() State { return State(t.state.Load()) }

// setState moves the task forward. Terminal states are final.
func (t *task) setState(s State) {
	for {
		cur := State(t.state.Load())
		if cur.Terminal() {
			return
		}
		if t.state.CompareAndSwap(int32(cur), int32(s)) {
			return
		}
	}
}

// Handle is the awaitable result of a spawned task. The result is
// resolved once and cached; every await observes the same outcome.
type Handle[T any] struct {
	t     *task
	done  chan struct{}
	value T
	err   error
}

// Done is closed when the task reaches a terminal state.
func (h *Handle[T]) Done() <-chan struct{} { return h.done }

// Wait blocks the calling goroutine until the task is terminal. It is
// meant for code outside the worker pool (entry points, test
// harnesses); tasks await each other with Await instead.
func (h *Handle[T]) Wait() (T, error) {
	<-h.done
	return h.value, h.err
}

// Cancel requests cooperative cancellation of the task and everything
// spawned under it. Running code is not preempted; the flag is seen at
// the next suspension point or poll.
func (h *Handle[T]) Cancel() {
	if h.t != nil {
		h.t.cancel()
	}
}

// State reports the task's current lifecycle state.
func (h *Handle[T]) State() State {
	if h.t == nil {
		return Failed
	}
	return h.t.currentState()
}

// ID is the task's runtime-unique identity.
func (h *Handle[T]) ID() uint64 {
	if h.t == nil {
		return 0
	}
	return h.t.id
}

// resolve is called exactly once, by the task runner.
func (h *Handle[T]) resolve(v T, err error) {
	h.value = v
	h.err = err
	close(h.done)
}

func orphanHandle[T any]() *Handle[T] {
	h := &Handle[T]{done: make(chan struct{})}
	h.err = ErrOrphanTask
	close(h.done)
	return h
}

// Await suspends the calling task until h is terminal and returns the
// cached result. Cancellation of the caller is observed here.
func Await[T any](tc *TaskContext, h *Handle[T]) (T, error) {
	if err := tc.Suspend(h.done); err != nil {
		var zero T
		return zero, err
	}
	return h.value, h.err
}

// TaskContext is handed to every task body. Suspending operations hang
// off it, so code without a task context cannot reach them: that is the
// boundary check for synchronous callers.
type TaskContext struct {
	rt    *Runtime
	scope *Scope
	t     *task

	children []*Scope
	parkedAt time.Time
}

// Context is the task's cancellation context, derived from its scope.
func (tc *TaskContext) Context() context.Context { return tc.t.ctx }

// Priority is the priority the task was spawned with.
func (tc *TaskContext) Priority() Priority { return tc.t.pri }

// Err is the cancellation poll: ErrCancelled once this task or any
// ancestor has been cancelled, nil otherwise.
func (tc *TaskContext) Err() error {
	if tc.t.ctx.Err() != nil {
		return ErrCancelled
	}
	return nil
}

// Cancelled reports whether the cancellation flag is set.
func (tc *TaskContext) Cancelled() bool { return tc.t.ctx.Err() != nil }

// ChildScope opens a scope parented to this task. Scopes still open
// when the body returns are settled before the task completes, so a
// parent never completes with live descendants.
func (tc *TaskContext) ChildScope(policy Policy, optFns ...Option) *Scope {
	s := tc.rt.newScope(tc.t.ctx, policy, tc.scope.opts, optFns)
	tc.children = append(tc.children, s)
	return s
}

// Suspend parks the task until ready delivers, yielding its permit to
// the next ready task. It is the extension point custom awaitables are
// built on. Returns ErrCancelled if the task is cancelled while
// parked; a ready value present at that moment still wins.
func (tc *TaskContext) Suspend(ready <-chan struct{}) error {
	tc.park()
	var err error
	select {
	case <-ready:
	case <-tc.t.ctx.Done():
		select {
		case <-ready:
		default:
			err = ErrCancelled
		}
	}
	tc.unpark()
	return err
}

// block is Suspend without the cancellation escape, for structural
// waits that must hold until children are terminal.
func (tc *TaskContext) block(ready <-chan struct{}) {
	tc.park()
	<-ready
	tc.unpark()
}

func (tc *TaskContext) park() {
	if tc.scope.obs != nil {
		tc.parkedAt = time.Now()
		tc.scope.obs.TaskSuspended(tc.t.ctx)
	}
	tc.rt.sched.park(tc.t)
}

func (tc *TaskContext) unpark() {
	tc.rt.sched.readmit(tc.t)
	if tc.scope.obs != nil {
		tc.scope.obs.TaskResumed(tc.t.ctx, time.Since(tc.parkedAt))
	}
}

// settle cancels (on failure) and drains the child scopes the body
// left open.
func (tc *TaskContext) settle(bodyErr error) {
	if len(tc.children) == 0 {
		return
	}
	for _, child := range tc.children {
		if bodyErr != nil || tc.Cancelled() {
			child.Cancel(bodyErr)
		}
	}
	for _, child := range tc.children {
		if child.isClosed() {
			continue
		}
		done := make(chan struct{})
		go func(cs *Scope) {
			_ = cs.Wait()
			close(done)
		}(child)
		tc.block(done)
	}
}
