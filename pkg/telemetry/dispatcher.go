package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tether-dev/tether/pkg/bind"
	"github.com/tether-dev/tether/pkg/state"
)

// TracedDispatcher wraps write access to a container so every mutation
// runs inside a trace span. Delivery is synchronous, so the span covers
// selector and filter evaluation for every bound listener.
type TracedDispatcher struct {
	d      bind.Dispatcher
	name   string
	tracer trace.Tracer
}

// NewTracedDispatcher wraps d. name labels the spans, typically the
// Shared handle's Name.
func NewTracedDispatcher(d bind.Dispatcher, name string, opts ...OTelOption) TracedDispatcher {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	return TracedDispatcher{
		d:      d,
		name:   name,
		tracer: otel.Tracer(config.TracerName),
	}
}

// Set merges partial into the container inside a span.
func (t TracedDispatcher) Set(ctx context.Context, partial state.State) {
	_, span := t.tracer.Start(
		ctx,
		"tether.dispatch",
		trace.WithAttributes(
			attribute.String("tether.shared", t.name),
			attribute.String("tether.op", "set"),
			attribute.Int("tether.keys", len(partial)),
		),
	)
	defer span.End()

	t.d.Set(partial)
}

// Update computes a partial from the current state and merges it, inside
// a span.
func (t TracedDispatcher) Update(ctx context.Context, fn func(state.State) state.State) {
	_, span := t.tracer.Start(
		ctx,
		"tether.dispatch",
		trace.WithAttributes(
			attribute.String("tether.shared", t.name),
			attribute.String("tether.op", "update"),
		),
	)
	defer span.End()

	t.d.Update(fn)
}
