// Package promsink exports store activity as Prometheus metrics.
package promsink

import (
	"context"
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"

	statestore "github.com/goliatone/go-statestore"
	"github.com/goliatone/go-statestore/pkg/activity"
)

// Result labels for mutation outcomes.
const (
	ResultSuccess      = "success"
	ResultFailed       = "failed"
	ResultNotifyFailed = "notify_failed"
)

// Recorder counts activity events and times mutations. It is both an
// activity.ActivityHook and a statestore.MutationLogger.
type Recorder struct {
	once             sync.Once
	events           *prom.CounterVec
	mutationDuration *prom.HistogramVec
	mutationResults  *prom.CounterVec
}

var (
	_ activity.ActivityHook     = (*Recorder)(nil)
	_ statestore.MutationLogger = (*Recorder)(nil)
)

// NewRecorder constructs and registers the metrics on reg. A nil registry
// gets a private one.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{}
	r.once.Do(func() {
		r.events = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "statestore",
			Name:      "activity_events_total",
			Help:      "Activity events by verb and channel",
		}, []string{"verb", "channel"})
		r.mutationDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "statestore",
			Name:      "mutation_duration_seconds",
			Help:      "Duration of mutator calls including hook fan-out",
			Buckets:   prom.DefBuckets,
		}, []string{"op"})
		r.mutationResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "statestore",
			Name:      "mutations_total",
			Help:      "Mutator calls by operation and result",
		}, []string{"op", "result"})
		reg.MustRegister(r.events, r.mutationDuration, r.mutationResults)
	})
	return r
}

// Notify implements activity.ActivityHook.
func (r *Recorder) Notify(_ context.Context, event activity.Event) error {
	if r == nil || r.events == nil {
		return nil
	}
	r.events.WithLabelValues(event.Verb, event.Channel).Inc()
	return nil
}

// LogMutation implements statestore.MutationLogger.
func (r *Recorder) LogMutation(event statestore.MutationLogEvent) {
	if r == nil || r.mutationResults == nil {
		return
	}
	result := ResultSuccess
	switch {
	case event.Err != nil:
		result = ResultFailed
	case event.NotifyErr != nil:
		result = ResultNotifyFailed
	}
	r.mutationResults.WithLabelValues(event.Op, result).Inc()
	r.mutationDuration.WithLabelValues(event.Op).Observe(event.Duration.Seconds())
}

// Options returns the store options that wire r as both hook and logger.
func (r *Recorder) Options() []statestore.Option {
	return []statestore.Option{
		statestore.WithActivityHooks(activity.Hooks{r}),
		statestore.WithLogger(r),
	}
}
