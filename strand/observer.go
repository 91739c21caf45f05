package strand

import (
	"context"
	"time"
)

// Observer receives lifecycle hooks from scopes and the scheduler.
// Implementations must be safe for concurrent use.
type Observer interface {
	ScopeCreated(ctx context.Context)
	ScopeCancelled(ctx context.Context, cause error)
	ScopeJoined(ctx context.Context, wait time.Duration)
	TaskStarted(ctx context.Context)
	TaskSuspended(ctx context.Context)
	TaskResumed(ctx context.Context, parked time.Duration)
	TaskFinished(ctx context.Context, dur time.Duration, err error, panicked bool)
}
