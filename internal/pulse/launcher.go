package pulse

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Launcher runs sequencer work on a bounded number of execution slots.
type Launcher struct {
	sem    *semaphore.Weighted
	slots  int64
	active atomic.Int64

	mu      sync.Mutex
	running int
	idle    chan struct{} // closed while no launched fn is running
}

// NewLauncher returns a launcher with the given number of slots (at least 1).
func NewLauncher(slots int) *Launcher {
	if slots < 1 {
		slots = 1
	}
	idle := make(chan struct{})
	close(idle)
	return &Launcher{sem: semaphore.NewWeighted(int64(slots)), slots: int64(slots), idle: idle}
}

// Launch starts fn on its own goroutine if a slot is free. fn receives a release
// func that frees the slot early; the slot is released when fn returns otherwise.
func (l *Launcher) Launch(fn func(release func())) error {
	if !l.sem.TryAcquire(1) {
		return ErrResourceExhausted
	}
	l.active.Add(1)
	l.enter()

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.active.Add(-1)
			l.sem.Release(1)
		})
	}
	go func() {
		defer l.leave()
		defer release()
		fn(release)
	}()
	return nil
}

// Active returns the number of occupied slots.
func (l *Launcher) Active() int {
	return int(l.active.Load())
}

// Slots returns the slot capacity.
func (l *Launcher) Slots() int {
	return int(l.slots)
}

func (l *Launcher) enter() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running == 0 {
		l.idle = make(chan struct{})
	}
	l.running++
}

func (l *Launcher) leave() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running--
	if l.running == 0 {
		close(l.idle)
	}
}

// Wait blocks until every launched fn has returned or ctx is done. A timed-out Wait
// leaves nothing behind.
func (l *Launcher) Wait(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
