package stream

import (
	"context"
	"sync"
)

// Iterator provides pull-based sequential access to a stream of values.
// Next returns (zero, false, nil) once the stream is exhausted and keeps
// doing so on further calls. Iterators are single-consumer.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// result carries a value or error through a channel stage.
type result[T any] struct {
	val T
	ok  bool
	err error
}

// FromSlice returns an iterator over the items of a slice.
func FromSlice[T any](items []T) Iterator[T] {
	return &sliceIter[T]{items: items}
}

// FromChan returns an iterator that yields values received from ch until
// the channel is closed. Closing the iterator does not close the channel.
func FromChan[T any](ch <-chan T) Iterator[T] {
	return &chanIter[T]{ch: ch}
}

// FromFunc adapts a pull function into an iterator. The function's
// exhaustion is latched: after it reports ok=false once it is never called
// again.
func FromFunc[T any](fn func(ctx context.Context) (T, bool, error)) Iterator[T] {
	return &funcIter[T]{fn: fn}
}

// Collect drains the iterator into a slice and closes it. On error the
// values pulled so far are returned alongside the error.
func Collect[T any](ctx context.Context, it Iterator[T]) ([]T, error) {
	defer it.Close()
	var out []T
	for {
		v, ok, err := it.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// --- internal iterators ---

type sliceIter[T any] struct {
	items []T
	index int
}

func (it *sliceIter[T]) Next(_ context.Context) (T, bool, error) {
	if it.index >= len(it.items) {
		var zero T
		return zero, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceIter[T]) Close() error {
	it.index = len(it.items)
	return nil
}

type chanIter[T any] struct {
	ch   <-chan T
	done bool
}

func (it *chanIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if it.done {
		return zero, false, nil
	}
	select {
	case v, open := <-it.ch:
		if !open {
			it.done = true
			return zero, false, nil
		}
		return v, true, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

func (it *chanIter[T]) Close() error {
	it.done = true
	return nil
}

type funcIter[T any] struct {
	fn   func(ctx context.Context) (T, bool, error)
	done bool
}

func (it *funcIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if it.done {
		return zero, false, nil
	}
	v, ok, err := it.fn(ctx)
	if err != nil {
		return zero, false, err
	}
	if !ok {
		it.done = true
		return zero, false, nil
	}
	return v, true, nil
}

func (it *funcIter[T]) Close() error {
	it.done = true
	return nil
}

// channelIter reads staged results from a channel. Used by Buffer.
type channelIter[T any] struct {
	ch     <-chan result[T]
	once   sync.Once
	closer func() error
}

func (it *channelIter[T]) Next(ctx context.Context) (T, bool, error) {
	select {
	case r, open := <-it.ch:
		if !open {
			var zero T
			return zero, false, nil
		}
		return r.val, r.ok, r.err
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	}
}

func (it *channelIter[T]) Close() error {
	var err error
	it.once.Do(func() {
		if it.closer != nil {
			err = it.closer()
		}
	})
	return err
}
