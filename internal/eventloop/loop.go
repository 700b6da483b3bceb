// Package eventloop serializes work onto a single goroutine.
package eventloop

import (
	"context"
	"sync"
	"time"
)

// Poster queues work for the control goroutine. Post reports false once the
// loop has stopped and fn will never run.
type Poster interface {
	Post(fn func()) bool
	PostAfter(d time.Duration, fn func()) (stop func() bool)
}

var _ Poster = (*Loop)(nil)

// Loop runs posted closures one at a time in FIFO order. The queue is
// unbounded so transport goroutines never block on a busy loop.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool
	wake    chan struct{}
	done    chan struct{}
}

func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// PostAfter posts fn once d has elapsed. The returned stop function cancels
// it if it has not been posted yet.
func (l *Loop) PostAfter(d time.Duration, fn func()) (stop func() bool) {
	t := time.AfterFunc(d, func() { l.Post(fn) })
	return t.Stop
}

// Run processes closures until ctx is done. Work still queued when ctx ends
// is dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	defer func() {
		l.mu.Lock()
		l.stopped = true
		l.queue = nil
		l.mu.Unlock()
	}()

	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, fn := range batch {
			fn()
		}

		if len(batch) > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Done is closed after Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Call runs fn on the loop and waits for it. It must not be used from the
// loop goroutine.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		fn()
		close(finished)
	}) {
		return ErrStopped
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
