package flow

import (
	"context"

	"github.com/google/uuid"

	"github.com/kbukum/flowkit/source"
	"github.com/kbukum/flowkit/stream"
)

// PendingRun is one in-flight run started by Poll. RunID is available
// immediately; Wait blocks for the outcome.
type PendingRun struct {
	runID  string
	done   chan struct{}
	result map[string]any
	err    error
}

// RunID returns the run's identifier.
func (p *PendingRun) RunID() string { return p.runID }

// Done returns a channel closed when the run finishes.
func (p *PendingRun) Done() <-chan struct{} { return p.done }

// Wait blocks until the run finishes and returns its leaf results, or
// until ctx is done. Cancelling ctx abandons the wait only; the run
// itself keeps going.
func (p *PendingRun) Wait(ctx context.Context) (map[string]any, error) {
	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Poll verifies the definition, opens src, and starts one run per
// payload as the returned iterator is advanced. Next pulls the next
// payload and launches its run without waiting for it, so runs from
// successive payloads overlap; outcomes arrive through the yielded
// PendingRun. Closing the iterator closes the source; runs already
// started are not cancelled.
func (c *Coordinator) Poll(ctx context.Context, src source.Source, runParams map[string]any) (stream.Iterator[*PendingRun], error) {
	if err := c.Verify(runParams); err != nil {
		return nil, err
	}
	payloads, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	return &pollIter{c: c, payloads: payloads, runParams: runParams}, nil
}

type pollIter struct {
	c         *Coordinator
	payloads  stream.Iterator[source.Payload]
	runParams map[string]any
}

func (it *pollIter) Next(ctx context.Context) (*PendingRun, bool, error) {
	payload, ok, err := it.payloads.Next(ctx)
	if err != nil || !ok {
		return nil, false, err
	}

	p := &PendingRun{runID: uuid.NewString(), done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.result, p.err = it.c.run(ctx, p.runID, payload, it.runParams)
	}()
	return p, true, nil
}

func (it *pollIter) Close() error { return it.payloads.Close() }
