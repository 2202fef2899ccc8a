package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RunContext holds observability context for one tracked flow run.
type RunContext struct {
	FlowName  string
	RunID     string
	StartTime time.Time
	Metrics   *FlowMetrics
}

// NewRunContext creates a run context starting now.
// If metrics is nil, metric recording is silently skipped.
func NewRunContext(flowName, runID string, metrics *FlowMetrics) *RunContext {
	return &RunContext{
		FlowName:  flowName,
		RunID:     runID,
		StartTime: time.Now(),
		Metrics:   metrics,
	}
}

// runContextKey is the context key for RunContext.
type runContextKey struct{}

// WithRunContext stores a RunContext in the context.
func WithRunContext(ctx context.Context, rc *RunContext) context.Context {
	return context.WithValue(ctx, runContextKey{}, rc)
}

// RunContextFromContext retrieves the RunContext from context, or nil.
func RunContextFromContext(ctx context.Context) *RunContext {
	if rc, ok := ctx.Value(runContextKey{}).(*RunContext); ok {
		return rc
	}
	return nil
}

// StartRunSpan starts a traced span for the run and records the
// run-start metric.
func (rc *RunContext) StartRunSpan(ctx context.Context) (context.Context, trace.Span) {
	ctx, span := StartSpan(ctx, SpanRun)
	span.SetAttributes(
		attribute.String(AttrFlowName, rc.FlowName),
		attribute.String(AttrRunID, rc.RunID),
	)

	if rc.Metrics != nil {
		rc.Metrics.RecordRunStart(ctx)
	}
	return ctx, span
}

// EndRun ends the span and records run-end metrics.
func (rc *RunContext) EndRun(ctx context.Context, span trace.Span, status string, err error) {
	duration := time.Since(rc.StartTime)

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}

	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	span.End()

	if rc.Metrics != nil {
		rc.Metrics.RecordRunEnd(ctx, status, duration)
	}
}

// Duration returns the elapsed time since the run started.
func (rc *RunContext) Duration() time.Duration {
	return time.Since(rc.StartTime)
}
