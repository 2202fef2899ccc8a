package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/flowkit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// FlowMetrics holds OpenTelemetry metric instruments for flow runs and
// step executions.
type FlowMetrics struct {
	runTotal     metric.Int64Counter
	runDuration  metric.Float64Histogram
	runActive    metric.Int64UpDownCounter
	stepTotal    metric.Int64Counter
	stepDuration metric.Float64Histogram
	errorTotal   metric.Int64Counter
}

// NewFlowMetrics creates metric instruments on the given meter.
func NewFlowMetrics(meter metric.Meter) (*FlowMetrics, error) {
	runTotal, err := meter.Int64Counter("flow.run.total",
		metric.WithDescription("Total number of runs"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flow.run.total counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram("flow.run.duration",
		metric.WithDescription("Duration of runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flow.run.duration histogram: %w", err)
	}

	runActive, err := meter.Int64UpDownCounter("flow.run.active",
		metric.WithDescription("Number of currently active runs"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flow.run.active gauge: %w", err)
	}

	stepTotal, err := meter.Int64Counter("flow.step.total",
		metric.WithDescription("Total number of step executions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flow.step.total counter: %w", err)
	}

	stepDuration, err := meter.Float64Histogram("flow.step.duration",
		metric.WithDescription("Duration of step executions in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flow.step.duration histogram: %w", err)
	}

	errorTotal, err := meter.Int64Counter("flow.error.total",
		metric.WithDescription("Total errors by type and component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flow.error.total counter: %w", err)
	}

	return &FlowMetrics{
		runTotal:     runTotal,
		runDuration:  runDuration,
		runActive:    runActive,
		stepTotal:    stepTotal,
		stepDuration: stepDuration,
		errorTotal:   errorTotal,
	}, nil
}

// RecordRunStart increments the active run count.
func (m *FlowMetrics) RecordRunStart(ctx context.Context) {
	m.runActive.Add(ctx, 1)
}

// RecordRunEnd decrements active runs and records the completed run.
func (m *FlowMetrics) RecordRunEnd(ctx context.Context, status string, duration time.Duration) {
	m.runActive.Add(ctx, -1)
	m.runTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
	))
	m.runDuration.Record(ctx, duration.Seconds())
}

// RecordStep records one step execution.
func (m *FlowMetrics) RecordStep(ctx context.Context, stepName, status string, duration time.Duration) {
	m.stepTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("step", stepName),
		attribute.String("status", status),
	))
	m.stepDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("step", stepName),
	))
}

// RecordError records an error by type and component.
func (m *FlowMetrics) RecordError(ctx context.Context, errType, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}
