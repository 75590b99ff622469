package playlist

import (
	"github.com/handiism/fuo/internal/model"
)

// Keyed is anything identified by a model key.
type Keyed interface {
	Key() model.Key
}

// DedupList is an ordered list without duplicates. Membership is O(1);
// inserting an item that is already present is a no-op, so the first
// occurrence keeps its position.
//
// The zero value is an empty list ready to use.
type DedupList[T Keyed] struct {
	items []T
	set   map[model.Key]struct{}
}

// NewDedupList returns a list holding items in order, duplicates dropped.
func NewDedupList[T Keyed](items ...T) *DedupList[T] {
	l := &DedupList[T]{}
	l.Extend(items...)
	return l
}

func (l *DedupList[T]) Len() int { return len(l.items) }

func (l *DedupList[T]) At(i int) T { return l.items[i] }

// Items returns a copy of the items.
func (l *DedupList[T]) Items() []T {
	return append([]T(nil), l.items...)
}

func (l *DedupList[T]) Contains(x Keyed) bool {
	_, ok := l.set[x.Key()]
	return ok
}

// Index returns the position of x, -1 when absent.
func (l *DedupList[T]) Index(x Keyed) int {
	if !l.Contains(x) {
		return -1
	}
	k := x.Key()
	for i, it := range l.items {
		if it.Key() == k {
			return i
		}
	}
	return -1
}

// Append adds x at the end and reports whether it was added.
func (l *DedupList[T]) Append(x T) bool {
	return l.Insert(len(l.items), x)
}

// Extend appends every item not yet present and returns how many were
// added.
func (l *DedupList[T]) Extend(xs ...T) int {
	n := 0
	for _, x := range xs {
		if l.Append(x) {
			n++
		}
	}
	return n
}

// Insert puts x at position i (clamped to the list bounds) and reports
// whether it was added.
func (l *DedupList[T]) Insert(i int, x T) bool {
	if l.Contains(x) {
		return false
	}
	if l.set == nil {
		l.set = map[model.Key]struct{}{}
	}
	i = min(max(i, 0), len(l.items))
	var zero T
	l.items = append(l.items, zero)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = x
	l.set[x.Key()] = struct{}{}
	return true
}

// Remove deletes x and reports whether it was present.
func (l *DedupList[T]) Remove(x Keyed) bool {
	i := l.Index(x)
	if i < 0 {
		return false
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	delete(l.set, x.Key())
	return true
}

// Replace puts y in the slot of x. When y is already in the list, x is
// only removed. It reports false when x is absent.
func (l *DedupList[T]) Replace(x Keyed, y T) bool {
	i := l.Index(x)
	if i < 0 {
		return false
	}
	if x.Key() == y.Key() {
		l.items[i] = y
		return true
	}
	if l.Contains(y) {
		l.Remove(x)
		return true
	}
	delete(l.set, x.Key())
	l.items[i] = y
	l.set[y.Key()] = struct{}{}
	return true
}

func (l *DedupList[T]) Clear() {
	l.items = nil
	l.set = nil
}
