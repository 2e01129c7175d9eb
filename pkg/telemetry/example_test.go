package telemetry_test

import (
	"context"
	"fmt"
	"time"

	"github.com/meridiandb/meridian/pkg/telemetry"
)

// Example_basicSetup demonstrates basic telemetry setup.
func Example_basicSetup() {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceName = "meridian"
	cfg.ServiceVersion = "1.0.0"

	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		panic(err)
	}
	defer tel.Shutdown(context.Background())

	// Add telemetry to context
	ctx := tel.WithContext(context.Background())

	logger := telemetry.FromContext(ctx)
	logger.Info("Application started")

	// Output can vary, so we don't specify output for this example
}

// Example_structuredLogging demonstrates structured logging features.
func Example_structuredLogging() {
	cfg := telemetry.DefaultConfig()
	cfg.Logging.Output = "stdout"

	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	logger := tel.Logger.NewComponentLogger("resolver")
	logger = logger.WithInstance("storage-001").WithReplicaset("storage-a")

	logger.Debug("Building peer topology")
	logger.Info("Resolution complete")

	err := fmt.Errorf("unknown instance")
	logger.WithError(err).Error("Resolution failed")

	// Output varies, no output specified
}

// Example_resolveInstrumentation demonstrates instrumenting a resolution.
func Example_resolveInstrumentation() {
	cfg := telemetry.DefaultConfig()
	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	ctx := tel.WithContext(context.Background())

	instanceName := "storage-001"
	ctx = telemetry.WithResolveContext(ctx, instanceName)

	// Resolve configuration (simulated)
	time.Sleep(5 * time.Millisecond)

	telemetry.EndResolveContext(ctx, instanceName, nil)

	fmt.Println("Resolution instrumentation complete")
	// Output: Resolution instrumentation complete
}

// Example_eventFiltering demonstrates event filtering.
func Example_eventFiltering() {
	cfg := telemetry.DefaultConfig()
	cfg.Events.Enabled = true

	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	// Subscribe with level filter (only warnings and errors)
	tel.Events.Subscribe(func(event telemetry.Event) {
		fmt.Printf("Important event: %s\n", event.Type)
	}, telemetry.FilterByLevel(telemetry.EventLevelWarning))

	// Subscribe with type filter (only reload events)
	tel.Events.Subscribe(func(event telemetry.Event) {
		fmt.Printf("Reload event: %s\n", event.Message)
	}, telemetry.FilterByType(telemetry.EventTypeReloadRejected))

	tel.Events.PublishResolutionStarted("storage-001")
	tel.Events.PublishReloadRejected("cluster.yaml", "schema error")
	tel.Events.PublishResolutionFailed("storage-001", "unknown instance")

	// Output varies, no output specified
}
