package stream

import "context"

// Map transforms each value using fn. The transformation runs on the
// consumer's goroutine at pull time.
func Map[I, O any](source Iterator[I], fn func(context.Context, I) (O, error)) Iterator[O] {
	return &mapIter[I, O]{source: source, fn: fn}
}

// Filter keeps only values that satisfy the predicate.
func Filter[T any](source Iterator[T], fn func(T) bool) Iterator[T] {
	return &filterIter[T]{source: source, fn: fn}
}

// Buffer decouples production from consumption: a background stage pulls
// from source into a channel holding up to size values. The stage stops on
// exhaustion, error, ctx cancellation, or Close; Close also closes source.
func Buffer[T any](ctx context.Context, source Iterator[T], size int) Iterator[T] {
	if size <= 0 {
		size = 1
	}
	bufCtx, cancel := context.WithCancel(ctx)
	ch := make(chan result[T], size)

	go func() {
		defer close(ch)
		for {
			val, ok, err := source.Next(bufCtx)
			if err != nil {
				select {
				case ch <- result[T]{err: err}:
				case <-bufCtx.Done():
				}
				return
			}
			if !ok {
				return
			}
			select {
			case ch <- result[T]{val: val, ok: true}:
			case <-bufCtx.Done():
				return
			}
		}
	}()

	return &channelIter[T]{
		ch: ch,
		closer: func() error {
			cancel()
			return source.Close()
		},
	}
}

// --- operator iterators ---

type mapIter[I, O any] struct {
	source Iterator[I]
	fn     func(context.Context, I) (O, error)
}

func (it *mapIter[I, O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	val, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		return zero, false, err
	}
	out, err := it.fn(ctx, val)
	if err != nil {
		return zero, false, err
	}
	return out, true, nil
}

func (it *mapIter[I, O]) Close() error { return it.source.Close() }

type filterIter[T any] struct {
	source Iterator[T]
	fn     func(T) bool
}

func (it *filterIter[T]) Next(ctx context.Context) (T, bool, error) {
	for {
		val, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			var zero T
			return zero, false, err
		}
		if it.fn(val) {
			return val, true, nil
		}
	}
}

func (it *filterIter[T]) Close() error { return it.source.Close() }
