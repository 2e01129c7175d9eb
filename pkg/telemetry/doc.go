// Package telemetry provides observability instrumentation for Meridian.
//
// The telemetry package integrates structured logging (zerolog), distributed tracing
// (OpenTelemetry), metrics (Prometheus), and event publishing into a unified system
// for monitoring configuration resolution.
//
// # Usage
//
// Initialize telemetry at application startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceName = "meridian"
//	cfg.ServiceVersion = "1.0.0"
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
// Add telemetry to context:
//
//	ctx = tel.WithContext(ctx)
//
// # Structured Logging
//
// The logger provides component-specific logging with automatic context propagation:
//
//	logger := tel.Logger.NewComponentLogger("resolver")
//	logger = logger.WithInstance("storage-001").WithReplicaset("storage-a")
//	logger.Info("Resolving configuration")
//	logger.WithError(err).Error("Resolution failed")
//
// # Tracing and Metrics
//
// Resolution lifecycles are instrumented via context helpers:
//
//	ctx = telemetry.WithResolveContext(ctx, instanceName)
//	data, err := r.Resolve(ctx, doc, instanceName, state)
//	telemetry.EndResolveContext(ctx, instanceName, err)
//
// Metrics are exposed via HTTP at /metrics (default: :9090/metrics).
//
// # Event Publishing
//
// The event system provides async publishing with buffering and filtering:
//
//	tel.Events.PublishResolutionCompleted(instanceName, duration)
//
//	tel.Events.Subscribe(func(event telemetry.Event) {
//	    fmt.Printf("Event: %s - %s\n", event.Type, event.Message)
//	}, telemetry.FilterByLevel("warning"))
package telemetry
