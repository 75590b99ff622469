package reader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
)

// DefaultMaxPerRead is the fetch window used when none is given.
const DefaultMaxPerRead = 100

// FetchFunc returns the items in [start, end). Returning fewer items than
// requested means the list ends early.
type FetchFunc[T any] func(ctx context.Context, start, end int) ([]T, error)

// span is a filled half-open range [start, end).
type span struct{ start, end int }

// Random wraps a random-access fetch callback over a list of known size.
//
// Random keeps a sparse cache of fetched items plus the sorted list of
// filled ranges. A read of an uncached index fetches one window around it:
// the window starts at the end of the previous filled range when that range
// is closer than maxPerRead, and stops at the start of the next filled
// range. Fetches are serialized.
//
// Example:
//
//	r := reader.NewRandom(func(ctx context.Context, start, end int) ([]model.BriefSong, error) {
//	    return api.PlaylistSongs(ctx, id, start, end-start)
//	}, total, 50)
//	songs, err := r.ReadRange(ctx, 0, 20)
type Random[T any] struct {
	mu         sync.Mutex
	fetch      FetchFunc[T]
	count      int
	maxPerRead int
	items      []T
	spans      []span
	offset     int
}

// NewRandom creates a reader of count items fetched at most maxPerRead at a
// time. maxPerRead <= 0 uses DefaultMaxPerRead.
func NewRandom[T any](fetch FetchFunc[T], count, maxPerRead int) *Random[T] {
	if maxPerRead <= 0 {
		maxPerRead = DefaultMaxPerRead
	}
	if count < 0 {
		count = 0
	}
	return &Random[T]{
		fetch:      fetch,
		count:      count,
		maxPerRead: maxPerRead,
		items:      make([]T, count),
	}
}

// Wrap returns a reader over an in-memory slice.
func Wrap[T any](items []T) *Random[T] {
	return NewRandom(func(_ context.Context, start, end int) ([]T, error) {
		return items[start:end], nil
	}, len(items), len(items))
}

func (r *Random[T]) Count() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count, true
}

// find returns the index of the first span whose end is > i.
func (r *Random[T]) find(i int) int {
	return sort.Search(len(r.spans), func(k int) bool { return r.spans[k].end > i })
}

func (r *Random[T]) filled(i int) bool {
	k := r.find(i)
	return k < len(r.spans) && r.spans[k].start <= i
}

// window chooses the fetch range for an uncached index i.
func (r *Random[T]) window(i int) (int, int) {
	k := r.find(i)
	start := i
	if k > 0 {
		if prev := r.spans[k-1].end; i-prev < r.maxPerRead {
			start = prev
		}
	}
	end := min(start+r.maxPerRead, r.count)
	if k < len(r.spans) && r.spans[k].start < end {
		end = r.spans[k].start
	}
	return start, end
}

// load fetches [start, end) and records it. Callers hold r.mu.
func (r *Random[T]) load(ctx context.Context, start, end int) error {
	got, err := r.fetch(ctx, start, end)
	if err != nil {
		return fmt.Errorf("fetch [%d, %d): %w", start, end, err)
	}
	if len(got) > end-start {
		got = got[:end-start]
	}
	copy(r.items[start:], got)
	if short := start + len(got); short < end {
		// a short page means the list ended early
		r.shrink(short)
		end = short
	}
	r.addSpan(span{start, end})
	return nil
}

func (r *Random[T]) shrink(n int) {
	r.count = n
	r.items = r.items[:n]
	kept := r.spans[:0]
	for _, s := range r.spans {
		if s.start >= n {
			continue
		}
		s.end = min(s.end, n)
		kept = append(kept, s)
	}
	r.spans = kept
}

func (r *Random[T]) addSpan(s span) {
	if s.end <= s.start {
		return
	}
	r.spans = append(r.spans, s)
	sort.Slice(r.spans, func(a, b int) bool { return r.spans[a].start < r.spans[b].start })
	merged := r.spans[:1]
	for _, cur := range r.spans[1:] {
		last := &merged[len(merged)-1]
		if cur.start <= last.end {
			last.end = max(last.end, cur.end)
			continue
		}
		merged = append(merged, cur)
	}
	r.spans = merged
}

func (r *Random[T]) Read(ctx context.Context, index int) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	if index < 0 || index >= r.count {
		return zero, outOfRange(index)
	}
	if !r.filled(index) {
		start, end := r.window(index)
		if err := r.load(ctx, start, end); err != nil {
			return zero, err
		}
		if index >= r.count {
			return zero, outOfRange(index)
		}
	}
	return r.items[index], nil
}

func (r *Random[T]) ReadRange(ctx context.Context, start, end int) ([]T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if start < 0 || end < start {
		return nil, outOfRange(start)
	}
	for i := start; i < min(end, r.count); {
		if r.filled(i) {
			i = r.spans[r.find(i)].end
			continue
		}
		// fill the gap in windows of maxPerRead
		gapEnd := min(end, r.count)
		if k := r.find(i); k < len(r.spans) && r.spans[k].start < gapEnd {
			gapEnd = r.spans[k].start
		}
		wEnd := min(i+r.maxPerRead, gapEnd)
		if err := r.load(ctx, i, wEnd); err != nil {
			return nil, err
		}
		if !r.filled(i) {
			break
		}
	}
	end = min(end, r.count)
	if start >= end {
		return nil, nil
	}
	out := make([]T, end-start)
	copy(out, r.items[start:end])
	return out, nil
}

func (r *Random[T]) ReadAll(ctx context.Context) ([]T, error) {
	r.mu.Lock()
	n := r.count
	r.mu.Unlock()
	return r.ReadRange(ctx, 0, n)
}

func (r *Random[T]) Next(ctx context.Context) (T, error) {
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
