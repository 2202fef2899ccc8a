package source

import (
	"context"

	"github.com/kbukum/flowkit/stream"
)

// Payload is one unit of external input fed into a run.
type Payload = any

// Source produces the payload stream a coordinator polls. Open may be
// called more than once; each call starts an independent iterator where
// the backing data allows it.
type Source interface {
	Open(ctx context.Context) (stream.Iterator[Payload], error)
}

// Slice returns a source over a fixed set of payloads.
func Slice(payloads ...Payload) Source {
	return &sliceSource{payloads: payloads}
}

type sliceSource struct {
	payloads []Payload
}

func (s *sliceSource) Open(_ context.Context) (stream.Iterator[Payload], error) {
	return stream.FromSlice(s.payloads), nil
}

// Chan returns a source that yields payloads received from ch until the
// channel closes. All opened iterators share the channel.
func Chan(ch <-chan Payload) Source {
	return &chanSource{ch: ch}
}

type chanSource struct {
	ch <-chan Payload
}

func (s *chanSource) Open(_ context.Context) (stream.Iterator[Payload], error) {
	return stream.FromChan(s.ch), nil
}

// Func returns a source backed by a pull function.
func Func(fn func(ctx context.Context) (Payload, bool, error)) Source {
	return &funcSource{fn: fn}
}

type funcSource struct {
	fn func(ctx context.Context) (Payload, bool, error)
}

func (s *funcSource) Open(_ context.Context) (stream.Iterator[Payload], error) {
	return stream.FromFunc(s.fn), nil
}
