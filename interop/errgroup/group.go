// Package errgroup provides an adapter that mimics
// golang.org/x/sync/errgroup semantics on top of a strand scope. It
// lets errgroup call sites migrate onto the runtime without changing
// shape.
package errgroup

import (
	"context"

	"github.com/NetPo4ki/go-strand/strand"
)

// Group is an errgroup-like wrapper over a FailFast strand scope.
type Group struct {
	s   *strand.Scope
	ctx context.Context
}

// WithContext creates a Group bound to ctx, on a runtime of its own.
// The returned context is cancelled when any function passed to Go
// returns a non-nil error.
func WithContext(ctx context.Context) (*Group, context.Context) {
	rt := strand.New()
	s := rt.NewScope(ctx, strand.FailFast)
	g := &Group{s: s, ctx: s.Context()}
	return g, g.ctx
}

// Go starts f as a medium-priority task. It should return a non-nil
// error to signal failure.
func (g *Group) Go(f func() error) {
	if f == nil {
		return
	}
	strand.Spawn(g.s, strand.Medium, func(*strand.TaskContext) (struct{}, error) {
		return struct{}{}, f()
	})
}

// Wait blocks until all functions have returned. It yields the first
// recorded failure, or the context error if the group was cancelled
// from outside.
func (g *Group) Wait() error {
	if err := g.s.Wait(); err != nil {
		return err
	}
	return g.ctx.Err()
}
