package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsObserver records events on an OpenTelemetry Int64Counter named
// "statekit.events". The meter should come from the host's MeterProvider.
type MetricsObserver struct {
	events metric.Int64Counter
}

// NewMetricsObserver creates the counter instrument on meter.
func NewMetricsObserver(meter metric.Meter) (*MetricsObserver, error) {
	events, err := meter.Int64Counter(
		metricsNamespace+".events",
		metric.WithDescription("Core events by type, source and severity"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create events counter: %w", err)
	}
	return &MetricsObserver{events: events}, nil
}

func (o *MetricsObserver) OnEvent(ctx context.Context, event Event) {
	o.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event.type", string(event.Type)),
		attribute.String("event.source", event.Source),
		attribute.String("severity", event.Level.String()),
	))
}
