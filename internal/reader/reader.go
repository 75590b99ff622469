package reader

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrCantReadAll is returned by ReadAll when the total is still unknown.
	ErrCantReadAll = errors.New("can't read all: count is unknown")

	// ErrOutOfRange is returned when an index is past the last item.
	ErrOutOfRange = errors.New("index out of range")
)

// Reader is lazy, paginated access to a possibly huge list.
//
// Read and ReadRange may perform IO. Next advances an internal offset and
// returns io.EOF once the list is exhausted. Readers are safe for
// concurrent use, but Next is only meaningful for a single consumer.
type Reader[T any] interface {
	// Count returns the total number of items and whether it is known.
	Count() (int, bool)
	Read(ctx context.Context, index int) (T, error)
	// ReadRange returns items in [start, end). It returns fewer items
	// when the list ends before end.
	ReadRange(ctx context.Context, start, end int) ([]T, error)
	// ReadAll returns every item, or ErrCantReadAll when Count is unknown.
	ReadAll(ctx context.Context) ([]T, error)
	Next(ctx context.Context) (T, error)
}

// Take reads up to n items from the start of r.
func Take[T any](ctx context.Context, r Reader[T], n int) ([]T, error) {
	if n <= 0 {
		return nil, nil
	}
	return r.ReadRange(ctx, 0, n)
}

// Each calls fn for every remaining item of r, advancing its offset.
// Iteration stops at the first error returned by r or fn.
func Each[T any](ctx context.Context, r Reader[T], fn func(T) error) error {
	for {
		v, err := r.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(v); err != nil {
			return err
		}
	}
}

func outOfRange(i int) error {
	return fmt.Errorf("%w: %d", ErrOutOfRange, i)
}
