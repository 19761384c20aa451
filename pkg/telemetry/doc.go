// Package telemetry instruments tether state containers and live event
// handling.
//
// This package includes:
//   - StoreMetrics, a state.Observer recording container activity
//   - Prometheus metrics middleware for live event handling
//   - OpenTelemetry tracing middleware and a traced dispatcher
//
// # Store Metrics
//
// StoreMetrics observes one or more containers. Create one per registry
// and attach it at construction time:
//
//	sm := telemetry.NewStoreMetrics(telemetry.WithRegistry(reg))
//	store := state.New(initial, state.WithObserver(sm))
//
// Metrics collected:
//   - tether_store_mutations_total: Counter of applied mutations
//   - tether_store_mutation_keys: Histogram of keys per applied partial
//   - tether_store_notifications_total: Counter of notification decisions
//     by outcome (fired, suppressed)
//   - tether_store_subscribers: Gauge of registered listeners
//
// # Event Metrics
//
// The Prometheus middleware counts client events and observes handler
// duration:
//
//	srv := live.NewServer(nil)
//	srv.Use(telemetry.Prometheus())
//
// Then expose the registry, for example through the server itself:
//
//	srv := live.NewServer(&live.Config{MetricsHandler: promhttp.Handler()})
//
// # Tracing
//
// The OpenTelemetry middleware starts a span per event and passes the
// span context down to the view's handler, so downstream calls inherit
// the trace:
//
//	srv.Use(telemetry.OpenTelemetry(
//	    telemetry.WithTracerName("my-app"),
//	))
//
// The tracer comes from the global OpenTelemetry provider. Configure it
// in main() before serving:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//
// NewTracedDispatcher wraps write access so mutations show up as spans
// covering the full synchronous delivery pass.
package telemetry
