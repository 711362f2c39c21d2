package main

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// scheduler is the single logical thread every detector and overlay
// mutation runs on. Callbacks passed to it never run concurrently with
// each other.
type scheduler interface {
	// Post queues fn to run on the loop. It never blocks the caller.
	Post(fn func())
	// After runs fn on the loop once d has elapsed, unless cancelled first.
	After(d time.Duration, fn func()) (cancel func())
	// Every runs fn on the loop every d until cancelled. A slow loop never
	// receives a burst of queued ticks: at most one tick is pending at a time.
	Every(d time.Duration, fn func()) (cancel func())
}

// EventLoop is a goroutine draining an unbounded FIFO of callbacks.
// Native event monitors run on the Cocoa main thread and only ever Post,
// so the main thread can never be stalled by Go-side work.
type EventLoop struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// NewEventLoop creates a stopped loop. Callbacks posted before Run are
// kept and executed once it starts.
func NewEventLoop() *EventLoop {
	return &EventLoop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Run drains the queue until ctx is cancelled. It must be called once.
func (l *EventLoop) Run(ctx context.Context) {
	defer l.once.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		}
		for {
			fn := l.next()
			if fn == nil {
				break
			}
			l.exec(fn)
			if ctx.Err() != nil {
				return
			}
		}
	}
}

// Done is closed once Run has returned.
func (l *EventLoop) Done() <-chan struct{} {
	return l.done
}

func (l *EventLoop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn
}

// exec runs one callback. A panic is logged and the loop carries on.
func (l *EventLoop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("loop: recovered panic in callback: %v", r)
		}
	}()
	fn()
}

func (l *EventLoop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *EventLoop) After(d time.Duration, fn func()) func() {
	var cancelled atomic.Bool
	t := time.AfterFunc(d, func() {
		l.Post(func() {
			if !cancelled.Load() {
				fn()
			}
		})
	})
	return func() {
		cancelled.Store(true)
		t.Stop()
	}
}

func (l *EventLoop) Every(d time.Duration, fn func()) func() {
	var (
		cancelled atomic.Bool
		pending   atomic.Bool
		stopOnce  sync.Once
	)
	stop := make(chan struct{})
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if !pending.CompareAndSwap(false, true) {
					continue // previous tick still queued
				}
				l.Post(func() {
					pending.Store(false)
					if !cancelled.Load() {
						fn()
					}
				})
			}
		}
	}()
	return func() {
		cancelled.Store(true)
		stopOnce.Do(func() { close(stop) })
	}
}
