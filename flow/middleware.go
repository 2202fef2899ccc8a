package flow

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/resilience"
	"github.com/kbukum/flowkit/step"
)

// StepRunner executes one step with its scheduler-resolved arguments.
type StepRunner func(ctx context.Context, s *step.Step, bound step.Args, runParams map[string]any) (any, error)

// Middleware wraps a StepRunner with cross-cutting behavior.
type Middleware func(next StepRunner) StepRunner

// chain composes middleware around the bare executor call; the first
// middleware listed runs outermost.
func chain(mws []Middleware) StepRunner {
	runner := func(ctx context.Context, s *step.Step, bound step.Args, runParams map[string]any) (any, error) {
		return s.Execute(ctx, bound, runParams)
	}
	for i := len(mws) - 1; i >= 0; i-- {
		runner = mws[i](runner)
	}
	return runner
}

// WithTracing wraps step execution with OpenTelemetry span creation.
// Each execution creates a span named "{prefix}.{stepName}".
func WithTracing(prefix string) Middleware {
	return func(next StepRunner) StepRunner {
		return func(ctx context.Context, s *step.Step, bound step.Args, runParams map[string]any) (any, error) {
			ctx, span := observability.StartSpan(ctx, prefix+"."+s.Name())
			defer span.End()

			observability.SetSpanAttribute(ctx, observability.AttrStepName, s.Name())

			result, err := next(ctx, s, bound, runParams)
			if err != nil {
				observability.SetSpanError(ctx, err)
			}

			return result, err
		}
	}
}

// WithMetrics wraps step execution with metric recording. Records step
// count, duration, and errors.
func WithMetrics(metrics *observability.FlowMetrics) Middleware {
	return func(next StepRunner) StepRunner {
		return func(ctx context.Context, s *step.Step, bound step.Args, runParams map[string]any) (any, error) {
			start := time.Now()
			result, err := next(ctx, s, bound, runParams)
			duration := time.Since(start)

			status := "ok"
			if err != nil {
				status = "error"
				metrics.RecordError(ctx, "execute", s.Name())
			}
			metrics.RecordStep(ctx, s.Name(), status, duration)

			return result, err
		}
	}
}

// WithStepLogging wraps step execution with logging. Logs: step name,
// duration, and success/error status.
func WithStepLogging(log *logger.Logger) Middleware {
	return func(next StepRunner) StepRunner {
		return func(ctx context.Context, s *step.Step, bound step.Args, runParams map[string]any) (any, error) {
			start := time.Now()
			result, err := next(ctx, s, bound, runParams)
			duration := time.Since(start)

			fields := map[string]interface{}{
				logger.FieldStep:     s.Name(),
				logger.FieldDuration: duration.Milliseconds(),
			}

			if err != nil {
				fields[logger.FieldError] = err.Error()
				log.Error("step failed", fields)
			} else {
				log.Debug("step completed", fields)
			}

			return result, err
		}
	}
}

// WithRetry retries failed step executions with exponential backoff.
// The scheduler sees only the final outcome, so dependents still wait
// for the last attempt. Cancellation is never retried.
func WithRetry(cfg resilience.RetryConfig) Middleware {
	return func(next StepRunner) StepRunner {
		return func(ctx context.Context, s *step.Step, bound step.Args, runParams map[string]any) (any, error) {
			return resilience.Retry(ctx, cfg, func() (any, error) {
				return next(ctx, s, bound, runParams)
			})
		}
	}
}

// WithCircuitBreaker fast-fails steps that keep failing across runs.
// Each step name gets its own breaker, so one flaky step cannot trip
// the rest of the flow. Useful with Poll, where the same flow runs
// repeatedly against a degraded backend.
func WithCircuitBreaker(cfg resilience.CircuitBreakerConfig) Middleware {
	var mu sync.Mutex
	breakers := make(map[string]*resilience.CircuitBreaker)

	breakerFor := func(name string) *resilience.CircuitBreaker {
		mu.Lock()
		defer mu.Unlock()
		cb, ok := breakers[name]
		if !ok {
			c := cfg
			c.Name = name
			cb = resilience.NewCircuitBreaker(c)
			breakers[name] = cb
		}
		return cb
	}

	return func(next StepRunner) StepRunner {
		return func(ctx context.Context, s *step.Step, bound step.Args, runParams map[string]any) (any, error) {
			var result any
			err := breakerFor(s.Name()).Execute(func() error {
				var execErr error
				result, execErr = next(ctx, s, bound, runParams)
				return execErr
			})
			if err != nil {
				return nil, err
			}
			return result, nil
		}
	}
}
