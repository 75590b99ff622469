package reader

import (
	"context"
	"io"
)

type streamItem[T any] struct {
	v   T
	err error
}

// NewStream runs produce in its own goroutine and exposes what it yields
// as a Sequential reader with unknown count.
//
// produce pushes items through yield, which blocks while buffer items are
// pending and returns false once ctx is cancelled. Cancel ctx to stop a
// producer whose reader is abandoned.
//
// Example:
//
//	r := reader.NewStream(ctx, 16, func(ctx context.Context, yield func(model.BriefSong) bool) error {
//	    for _, s := range scan(ctx) {
//	        if !yield(s) {
//	            return ctx.Err()
//	        }
//	    }
//	    return nil
//	})
func NewStream[T any](ctx context.Context, buffer int, produce func(ctx context.Context, yield func(T) bool) error) *Sequential[T] {
	ch := make(chan streamItem[T], max(buffer, 0))
	go func() {
		defer close(ch)
		err := produce(ctx, func(v T) bool {
			select {
			case ch <- streamItem[T]{v: v}:
				return true
			case <-ctx.Done():
				return false
			}
		})
		if err != nil {
			select {
			case ch <- streamItem[T]{err: err}:
			case <-ctx.Done():
			}
		}
	}()

	return NewSequential(func(rctx context.Context) (T, error) {
		var zero T
		select {
		case it, ok := <-ch:
			if !ok {
				return zero, io.EOF
			}
			return it.v, it.err
		case <-rctx.Done():
			return zero, rctx.Err()
		}
	}, -1)
}
