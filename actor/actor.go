package actor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/NetPo4ki/go-strand/strand"
)

// ErrClosed rejects invocations sent to a closed actor.
var ErrClosed = errors.New("actor: mailbox closed")

// Option configures an Actor.
type Option func(*options)

type options struct {
	mailbox int
}

func defaultActorOptions() options { return options{mailbox: 128} }

// WithMailbox sets the mailbox capacity. Senders block once it fills.
func WithMailbox(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.mailbox = n
		}
	}
}

// envelope is a mailbox item: the invocation plus its panic trap.
type envelope[S any] struct {
	apply func(*S)
	trap  func(any)
}

// Actor owns an exclusive state payload of type S. Invocations execute
// on the actor's single mailbox goroutine, FIFO by arrival and
// independent of the sending task's priority, so no two invocations
// ever run concurrently against the state and none observes a
// partially-applied mutation.
//
// Code already running inside an invocation holds the state directly;
// a same-actor "call" is a plain function call on *S and never
// re-suspends. Sending to the same actor from inside one of its own
// invocations and waiting on the reply would deadlock the mailbox.
type Actor[S any] struct {
	id      string
	state   S
	mailbox chan envelope[S]
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

// New starts an actor around state and returns its handle.
func New[S any](state S, optFns ...Option) *Actor[S] {
	o := defaultActorOptions()
	for _, fn := range optFns {
		fn(&o)
	}
	a := &Actor[S]{
		id:      uuid.NewString(),
		state:   state,
		mailbox: make(chan envelope[S], o.mailbox),
		done:    make(chan struct{}),
	}
	go a.loop()
	logger.Debug("actor spawned", "actor", a.id)
	return a
}

// ID is the actor's stable identity.
func (a *Actor[S]) ID() string { return a.id }

func (a *Actor[S]) loop() {
	defer close(a.done)
	for env := range a.mailbox {
		a.handle(env)
	}
}

func (a *Actor[S]) handle(env envelope[S]) {
	defer func() {
		if r := recover(); r != nil {
			env.trap(r)
		}
	}()
	env.apply(&a.state)
}

// Close stops accepting invocations, drains the mailbox, and blocks
// until the actor goroutine exits. Registry-managed actors live for
// the process and are never closed.
func (a *Actor[S]) Close() {
	a.once.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.mailbox)
		a.mu.Unlock()
	})
	<-a.done
}

func (a *Actor[S]) enqueue(env envelope[S]) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return false
	}
	a.mailbox <- env
	return true
}

// Reply is the awaitable outcome of a Send.
type Reply[R any] struct {
	done  chan struct{}
	value R
	err   error
}

// Done is closed once the invocation has executed.
func (r *Reply[R]) Done() <-chan struct{} { return r.done }

// Wait blocks the calling goroutine until the invocation has executed.
// For code outside the worker pool; tasks use Await.
func (r *Reply[R]) Wait() (R, error) {
	<-r.done
	return r.value, r.err
}

// Await suspends the calling task until the invocation has executed.
// This is always a suspension point, even when the reply is already
// resolved: every actor call is a uniform asynchronous hop.
func (r *Reply[R]) Await(tc *strand.TaskContext) (R, error) {
	if err := tc.Suspend(r.done); err != nil {
		var zero R
		return zero, err
	}
	return r.value, r.err
}

// Send enqueues an invocation on the actor's mailbox and returns a
// handle that resolves once it has executed against the state.
func Send[S, R any](a *Actor[S], fn func(s *S) (R, error)) *Reply[R] {
	r := &Reply[R]{done: make(chan struct{})}
	env := envelope[S]{
		apply: func(s *S) {
			r.value, r.err = fn(s)
			close(r.done)
		},
		trap: func(v any) {
			r.err = fmt.Errorf("actor: panic in invocation: %v", v)
			close(r.done)
		},
	}
	if !a.enqueue(env) {
		r.err = ErrClosed
		close(r.done)
	}
	return r
}

// Ask is Send followed by Await.
func Ask[S, R any](tc *strand.TaskContext, a *Actor[S], fn func(s *S) (R, error)) (R, error) {
	return Send(a, fn).Await(tc)
}

// Tell enqueues a fire-and-forget invocation. It reports false if the
// actor is closed.
func Tell[S any](a *Actor[S], fn func(s *S)) bool {
	return a.enqueue(envelope[S]{
		apply: fn,
		trap: func(v any) {
			logger.Warn("panic in actor invocation", "actor", a.id, "panic", v)
		},
	})
}
