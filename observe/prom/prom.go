// Package prom provides a Prometheus-backed strand.Observer.
package prom

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/NetPo4ki/go-strand/strand"
)

// Observer exports scope and task lifecycle metrics. It implements
// strand.Observer and is safe for concurrent use.
type Observer struct {
	scopesCreated   prometheus.Counter
	scopesCancelled prometheus.Counter
	joinWait        prometheus.Histogram

	tasksStarted  prometheus.Counter
	tasksActive   prometheus.Gauge
	tasksFinished *prometheus.CounterVec
	taskDuration  prometheus.Histogram

	suspensions prometheus.Counter
	resumeWait  prometheus.Histogram
}

// New registers the collectors with reg and returns the observer. A
// nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Observer {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Observer{
		scopesCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: "strand", Subsystem: "scope", Name: "created_total",
			Help: "Scopes created.",
		}),
		scopesCancelled: f.NewCounter(prometheus.CounterOpts{
			Namespace: "strand", Subsystem: "scope", Name: "cancelled_total",
			Help: "Scopes cancelled.",
		}),
		joinWait: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "strand", Subsystem: "scope", Name: "join_wait_seconds",
			Help:    "Time spent waiting at scope join points.",
			Buckets: prometheus.DefBuckets,
		}),
		tasksStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "strand", Subsystem: "task", Name: "started_total",
			Help: "Tasks that began running.",
		}),
		tasksActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "strand", Subsystem: "task", Name: "active",
			Help: "Tasks currently between start and finish.",
		}),
		tasksFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "strand", Subsystem: "task", Name: "finished_total",
			Help: "Tasks finished, by outcome.",
		}, []string{"outcome"}),
		taskDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "strand", Subsystem: "task", Name: "duration_seconds",
			Help:    "Wall time from task start to finish.",
			Buckets: prometheus.DefBuckets,
		}),
		suspensions: f.NewCounter(prometheus.CounterOpts{
			Namespace: "strand", Subsystem: "task", Name: "suspensions_total",
			Help: "Suspension points crossed.",
		}),
		resumeWait: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "strand", Subsystem: "task", Name: "resume_wait_seconds",
			Help:    "Time parked between suspension and resumption.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (o *Observer) ScopeCreated(_ context.Context) { o.scopesCreated.Inc() }

func (o *Observer) ScopeCancelled(_ context.Context, _ error) { o.scopesCancelled.Inc() }

func (o *Observer) ScopeJoined(_ context.Context, wait time.Duration) {
	o.joinWait.Observe(wait.Seconds())
}

func (o *Observer) TaskStarted(_ context.Context) {
	o.tasksStarted.Inc()
	o.tasksActive.Inc()
}

func (o *Observer) TaskSuspended(_ context.Context) { o.suspensions.Inc() }

func (o *Observer) TaskResumed(_ context.Context, parked time.Duration) {
	o.resumeWait.Observe(parked.Seconds())
}

func (o *Observer) TaskFinished(_ context.Context, dur time.Duration, err error, panicked bool) {
	o.tasksActive.Dec()
	o.taskDuration.Observe(dur.Seconds())
	outcome := "ok"
	switch {
	case panicked:
		outcome = "panic"
	case errors.Is(err, strand.ErrCancelled):
		outcome = "cancelled"
	case err != nil:
		outcome = "error"
	}
	o.tasksFinished.WithLabelValues(outcome).Inc()
}
