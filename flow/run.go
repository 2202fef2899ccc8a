package flow

import (
	"context"

	"github.com/google/uuid"

	"github.com/kbukum/flowkit/events"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/step"
)

// completion is one finished step reported back to the scheduler.
type completion struct {
	name   string
	result any
	err    error
}

// Run executes the flow once against a single input payload, verifying
// the definition first. Steps start as soon as every dependency has a
// result, subject to the concurrency cap; a nil result satisfies
// dependents like any other. The returned map holds the results of the
// leaf steps, keyed by step name.
//
// The first step failure aborts the run and is returned as-is. Steps
// already in flight finish in the background; their results are
// discarded. Cancelling ctx abandons the run with ctx.Err().
func (c *Coordinator) Run(ctx context.Context, input any, runParams map[string]any) (map[string]any, error) {
	return c.run(ctx, uuid.NewString(), input, runParams)
}

func (c *Coordinator) run(ctx context.Context, runID string, input any, runParams map[string]any) (map[string]any, error) {
	c.mu.Lock()
	if err := c.verifyLocked(runParams); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	steps := make(map[string]*step.Step, len(c.steps))
	for name, s := range c.steps {
		steps[name] = s
	}
	order := append([]string(nil), c.order...)
	var leaves []string
	for _, n := range c.graph.Leaves() {
		if _, ok := steps[n]; ok {
			leaves = append(leaves, n)
		}
	}
	c.mu.Unlock()

	log := c.log.WithRun(runID)
	log.Debug("run started", logger.Fields(logger.FieldCount, len(order)))
	c.emit(events.RunStarted, runID, "", nil, nil)

	var sem chan struct{}
	if c.maxConcurrency > 0 {
		sem = make(chan struct{}, c.maxConcurrency)
	}

	// Buffered to the step count, so an aborted run leaves no goroutine
	// blocked on the send.
	completions := make(chan completion, len(order))
	results := make(map[string]any, len(order))
	started := make(map[string]bool, len(order))

	launch := func() {
		for _, name := range order {
			if started[name] || !ready(steps[name], results) {
				continue
			}
			started[name] = true
			s := steps[name]
			bound := bind(s, input, results)
			c.emit(events.StepStarted, runID, name, nil, nil)
			go func() {
				if sem != nil {
					sem <- struct{}{}
					defer func() { <-sem }()
				}
				out, err := c.runner(ctx, s, bound, runParams)
				completions <- completion{name: s.Name(), result: out, err: err}
			}()
		}
	}

	launch()
	for done := 0; done < len(order); done++ {
		select {
		case comp := <-completions:
			if comp.err != nil {
				log.Error("step failed", logger.Fields(logger.FieldStep, comp.name, logger.FieldError, comp.err.Error()))
				c.emit(events.StepFailed, runID, comp.name, nil, comp.err)
				c.emit(events.RunFailed, runID, "", nil, comp.err)
				return nil, comp.err
			}
			results[comp.name] = comp.result
			c.emit(events.StepCompleted, runID, comp.name, comp.result, nil)
			launch()
		case <-ctx.Done():
			log.Warn("run cancelled", logger.Fields(logger.FieldError, ctx.Err().Error()))
			c.emit(events.RunFailed, runID, "", nil, ctx.Err())
			return nil, ctx.Err()
		}
	}

	out := make(map[string]any, len(leaves))
	for _, leaf := range leaves {
		out[leaf] = results[leaf]
	}
	log.Info("run completed", logger.Fields(logger.FieldCount, len(out)))
	c.emit(events.RunCompleted, runID, "", nil, nil)
	return out, nil
}

// ready reports whether every dependency of s has a result. The input
// payload is available from the start, so consuming it never delays a
// step.
func ready(s *step.Step, results map[string]any) bool {
	for dep := range s.Dependencies() {
		if _, ok := results[dep]; !ok {
			return false
		}
	}
	return true
}

// bind assembles the arguments the scheduler resolves for s: bound
// dependency results plus the input payload. Gates contribute no value.
func bind(s *step.Step, input any, results map[string]any) step.Args {
	bound := make(step.Args)
	for dep, b := range s.Dependencies() {
		if b.IsGate() {
			continue
		}
		bound[b.Arg()] = results[dep]
	}
	if arg := s.InputArg(); arg != "" {
		bound[arg] = input
	}
	return bound
}
