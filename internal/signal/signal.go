package signal

import (
	"sync"
	"weak"
)

// Token identifies one connection on a Signal. Pass it to Disconnect.
type Token uint64

type slot[T any] struct {
	id   Token
	call func(T) bool // false once a weak owner has been collected
	loop *Loop
}

// Option configures a connection.
type Option func(*options)

type options struct {
	loop *Loop
}

// Queued delivers the slot on loop instead of the emitter's goroutine.
func Queued(loop *Loop) Option {
	return func(o *options) { o.loop = loop }
}

// Signal is a typed observer list.
//
// Emit calls direct slots synchronously in connection order and posts
// queued slots to their Loop. Emit works on a snapshot of the connections,
// so a slot that disconnects itself or another slot does not change who is
// notified for the current emission.
//
// The zero value is ready to use. A Signal must not be copied after first use.
//
// Example:
//
//	var changed signal.Signal[string]
//	tok := changed.Connect(func(s string) { fmt.Println("now:", s) })
//	changed.Emit("hello")
//	changed.Disconnect(tok)
type Signal[T any] struct {
	mu    sync.Mutex
	slots []*slot[T]
	next  Token
}

// Connect registers fn and returns its token.
func (s *Signal[T]) Connect(fn func(T), opts ...Option) Token {
	return s.connect(func(v T) bool {
		fn(v)
		return true
	}, opts)
}

// ConnectWeak registers fn bound to owner without keeping owner alive.
//
// Once owner has been garbage collected the slot is dropped on the next
// emission. fn receives the owner explicitly and must not capture it,
// otherwise the closure itself keeps owner reachable.
func ConnectWeak[O any, T any](s *Signal[T], owner *O, fn func(*O, T), opts ...Option) Token {
	wp := weak.Make(owner)
	return s.connect(func(v T) bool {
		o := wp.Value()
		if o == nil {
			return false
		}
		fn(o, v)
		return true
	}, opts)
}

func (s *Signal[T]) connect(call func(T) bool, opts []Option) Token {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.slots = append(s.slots, &slot[T]{id: s.next, call: call, loop: o.loop})
	return s.next
}

// Disconnect removes the connection identified by tok. Unknown tokens are ignored.
func (s *Signal[T]) Disconnect(tok Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sl := range s.slots {
		if sl.id == tok {
			s.slots = append(s.slots[:i:i], s.slots[i+1:]...)
			return
		}
	}
}

// Len returns the number of live connections.
func (s *Signal[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

// Emit notifies every connected slot with v.
func (s *Signal[T]) Emit(v T) {
	s.mu.Lock()
	snapshot := make([]*slot[T], len(s.slots))
	copy(snapshot, s.slots)
	s.mu.Unlock()

	for _, sl := range snapshot {
		if sl.loop != nil {
			sl := sl
			posted := sl.loop.Post(func() {
				if !sl.call(v) {
					s.Disconnect(sl.id)
				}
			})
			if !posted {
				s.Disconnect(sl.id)
			}
			continue
		}
		if !sl.call(v) {
			s.Disconnect(sl.id)
		}
	}
}
