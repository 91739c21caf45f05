package strand

import "runtime"

// RuntimeOption configures a Runtime.
type RuntimeOption func(*runtimeOptions)

type runtimeOptions struct {
	workers int
}

// WithWorkers sets the number of parallel run permits. Zero or
// negative selects GOMAXPROCS.
func WithWorkers(n int) RuntimeOption {
	return func(o *runtimeOptions) { o.workers = n }
}

// Runtime owns the scheduler shared by every scope created from it.
type Runtime struct {
	sched   *scheduler
	workers int
}

// New creates a runtime with a fixed-size pool of run permits.
func New(optFns ...RuntimeOption) *Runtime {
	var o runtimeOptions
	for _, fn := range optFns {
		fn(&o)
	}
	workers := o.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
		if workers <= 0 {
			workers = 1
		}
	}
	return &Runtime{sched: newScheduler(workers), workers: workers}
}

// Workers reports the pool size.
func (rt *Runtime) Workers() int { return rt.workers }
