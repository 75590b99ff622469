package reader

import (
	"context"
	"errors"
	"io"
	"sync"
)

// NextFunc produces the next item of a sequence. It returns io.EOF once
// the sequence is exhausted.
type NextFunc[T any] func(ctx context.Context) (T, error)

// Sequential wraps a generator that can only be walked forwards.
//
// Produced items are kept so that Read and ReadRange can revisit them.
// When the count is unknown it is fixed to the number of produced items
// as soon as the generator is exhausted.
//
// Example:
//
//	r := reader.NewSequential(reader.Pages(fetchPage), -1)
//	for {
//	    song, err := r.Next(ctx)
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	    ...
//	}
type Sequential[T any] struct {
	mu     sync.Mutex
	next   NextFunc[T]
	count  int
	items  []T
	done   bool
	offset int
}

// NewSequential creates a reader over next. A negative count means unknown.
func NewSequential[T any](next NextFunc[T], count int) *Sequential[T] {
	if count < 0 {
		count = -1
	}
	return &Sequential[T]{next: next, count: count}
}

// fill produces items until at least n are cached or the generator ends.
// Callers hold r.mu.
func (r *Sequential[T]) fill(ctx context.Context, n int) error {
	if r.count >= 0 && n > r.count {
		n = r.count
	}
	for !r.done && len(r.items) < n {
		if err := ctx.Err(); err != nil {
			return err
		}
		v, err := r.next(ctx)
		if errors.Is(err, io.EOF) {
			r.done = true
			r.count = len(r.items)
			break
		}
		if err != nil {
			return err
		}
		r.items = append(r.items, v)
		if r.count >= 0 && len(r.items) == r.count {
			r.done = true
		}
	}
	return nil
}

func (r *Sequential[T]) Count() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count, r.count >= 0
}

func (r *Sequential[T]) Read(ctx context.Context, index int) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	if index < 0 {
		return zero, outOfRange(index)
	}
	if err := r.fill(ctx, index+1); err != nil {
		return zero, err
	}
	if index >= len(r.items) {
		return zero, outOfRange(index)
	}
	return r.items[index], nil
}

func (r *Sequential[T]) ReadRange(ctx context.Context, start, end int) ([]T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if start < 0 || end < start {
		return nil, outOfRange(start)
	}
	if err := r.fill(ctx, end); err != nil {
		return nil, err
	}
	end = min(end, len(r.items))
	if start >= end {
		return nil, nil
	}
	out := make([]T, end-start)
	copy(out, r.items[start:end])
	return out, nil
}

func (r *Sequential[T]) ReadAll(ctx context.Context) ([]T, error) {
	r.mu.Lock()
	if r.count < 0 {
		r.mu.Unlock()
		return nil, ErrCantReadAll
	}
	n := r.count
	r.mu.Unlock()
	return r.ReadRange(ctx, 0, n)
}

func (r *Sequential[T]) Next(ctx context.Context) (T, error) {
	r.mu.Lock()
	i := r.offset
	r.mu.Unlock()

	v, err := r.Read(ctx, i)
	if errors.Is(err, ErrOutOfRange) {
		return v, io.EOF
	}
	if err != nil {
		return v, err
	}
	r.mu.Lock()
	r.offset = i + 1
	r.mu.Unlock()
	return v, nil
}

// Pages adapts a page-at-a-time listing into a NextFunc. fetch returns one
// page and whether more pages follow; pages are numbered from 0.
func Pages[T any](fetch func(ctx context.Context, page int) ([]T, bool, error)) NextFunc[T] {
	var (
		buf  []T
		page int
		more = true
	)
	return func(ctx context.Context) (T, error) {
		var zero T
		for len(buf) == 0 {
			if !more {
				return zero, io.EOF
			}
			items, hasMore, err := fetch(ctx, page)
			if err != nil {
				return zero, err
			}
			page++
			buf, more = items, hasMore
			if len(items) == 0 {
				more = false
			}
		}
		v := buf[0]
		buf = buf[1:]
		return v, nil
	}
}

// Slice returns a NextFunc walking items in order.
func Slice[T any](items []T) NextFunc[T] {
	i := 0
	return func(context.Context) (T, error) {
		var zero T
		if i >= len(items) {
			return zero, io.EOF
		}
		i++
		return items[i-1], nil
	}
}
