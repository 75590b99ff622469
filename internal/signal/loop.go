package signal

import (
	"log/slog"
	"sync"
)

// Loop executes posted functions one at a time, in FIFO order, on a single
// goroutine.
//
// Loop is the delivery vehicle for queued connections: a slot connected with
// Queued(loop) never runs on the emitter's call stack, it runs later on the
// loop goroutine. Posting from inside a running function is allowed and the
// new function is appended to the back of the queue.
//
// Example:
//
//	loop := signal.NewLoop()
//	defer loop.Close()
//
//	loop.Post(func() { fmt.Println("first") })
//	loop.Post(func() { fmt.Println("second") })
//	loop.Flush() // both have run
type Loop struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
	logger *slog.Logger
}

// NewLoop creates a Loop and starts its goroutine.
func NewLoop() *Loop {
	l := &Loop{
		done:   make(chan struct{}),
		logger: slog.Default(),
	}
	l.cond = sync.NewCond(&l.mu)
	go l.run()
	return l
}

// Post appends fn to the queue. It returns false if the loop is closed.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.queue = append(l.queue, fn)
	l.cond.Signal()
	return true
}

// Flush blocks until every function posted before the call has run.
//
// Flush must not be called from the loop goroutine itself.
func (l *Loop) Flush() {
	ch := make(chan struct{})
	if !l.Post(func() { close(ch) }) {
		return
	}
	<-ch
}

// Close drains the queue and stops the loop goroutine.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.closed = true
	l.cond.Signal()
	l.mu.Unlock()
	<-l.done
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.cond.Wait()
		}
		if len(l.queue) == 0 && l.closed {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.call(fn)
	}
}

func (l *Loop) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("queued slot panicked", "panic", r)
		}
	}()
	fn()
}
