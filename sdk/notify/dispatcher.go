// Package notify delivers deferred change notifications on a single consumer.
//
// An Updater is triggered from any thread and handled later, on whichever goroutine drains
// its Dispatcher. Triggers that arrive before a drain collapse into one delivery, and the
// handler reads current state when it runs, so the last write wins.
package notify

import (
	"context"
	"sync"
	"sync/atomic"
)

// Dispatcher is a single-consumer queue of pending updaters.
type Dispatcher struct {
	mu     sync.Mutex
	queue  []*Updater
	spare  []*Updater
	signal chan struct{}
}

// NewDispatcher creates an idle dispatcher. Call Drain from an event loop or start Run.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{signal: make(chan struct{}, 1)}
}

var (
	defaultDispatcher *Dispatcher
	defaultOnce       sync.Once
)

// Default returns a process-wide dispatcher drained by its own goroutine.
func Default() *Dispatcher {
	defaultOnce.Do(func() {
		defaultDispatcher = NewDispatcher()
		go defaultDispatcher.Run(context.Background()) //nolint:errcheck // runs for the process lifetime
	})
	return defaultDispatcher
}

// NewUpdater registers handle with the dispatcher. handle runs on the draining goroutine.
func (d *Dispatcher) NewUpdater(handle func()) *Updater {
	return &Updater{dispatcher: d, handle: handle}
}

// Pending returns the number of updaters waiting for the next drain.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Drain delivers every pending update and returns how many handlers ran.
func (d *Dispatcher) Drain() int {
	d.mu.Lock()
	batch := d.queue
	d.queue = d.spare[:0]
	d.mu.Unlock()

	delivered := 0
	for i, u := range batch {
		batch[i] = nil
		u.pending.Store(false)
		if u.cancelled.Load() {
			continue
		}
		u.handle()
		delivered++
	}

	d.mu.Lock()
	d.spare = batch[:0]
	d.mu.Unlock()
	return delivered
}

// Run drains the queue each time an updater is triggered, until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.signal:
			d.Drain()
		}
	}
}

func (d *Dispatcher) enqueue(u *Updater) {
	d.mu.Lock()
	d.queue = append(d.queue, u)
	d.mu.Unlock()

	select {
	case d.signal <- struct{}{}:
	default:
	}
}

// Updater is one coalescing notification source.
type Updater struct {
	dispatcher *Dispatcher
	handle     func()
	pending    atomic.Bool
	cancelled  atomic.Bool
}

// Trigger schedules the handler. It returns immediately and never runs the handler itself.
func (u *Updater) Trigger() {
	if u.cancelled.Load() {
		return
	}
	if !u.pending.CompareAndSwap(false, true) {
		return
	}
	u.dispatcher.enqueue(u)
}

// IsPending reports whether a delivery is queued.
func (u *Updater) IsPending() bool { return u.pending.Load() }

// Cancel drops any queued delivery and ignores future triggers.
func (u *Updater) Cancel() { u.cancelled.Store(true) }
