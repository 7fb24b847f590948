package observability

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "statekit"

// PrometheusObserver counts events in a Prometheus counter labelled by
// event type, source and severity.
//
// Labels: type (machine.transition, memento.undo, ...), source
// (machine.Request, memento.History.Undo, ...), level (DEBUG, INFO, WARN, ERROR)
type PrometheusObserver struct {
	events *prometheus.CounterVec
}

// NewPrometheusObserver registers the statekit_events_total counter with
// reg. When the counter is already registered, the existing collector is
// reused so several observers can share one registry.
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_total",
			Help:      "Total number of core events by type, source and level",
		},
		[]string{"type", "source", "level"},
	)

	if err := reg.Register(events); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, fmt.Errorf("register events counter: %w", err)
		}
		existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, fmt.Errorf("register events counter: %w", err)
		}
		events = existing
	}

	return &PrometheusObserver{events: events}, nil
}

func (o *PrometheusObserver) OnEvent(ctx context.Context, event Event) {
	o.events.WithLabelValues(string(event.Type), event.Source, event.Level.String()).Inc()
}

// Counter exposes the underlying counter vector.
func (o *PrometheusObserver) Counter() *prometheus.CounterVec {
	return o.events
}
