// Package eventloop implements §4.A: a single-consumer FIFO of closures,
// buffered up to 1024 pending closures (Post blocks while the buffer is
// full; the queue is not unbounded). Per §9's explicit re-architecture guidance ("Coroutine-based
// unbounded channel... use a standard MPSC queue + one loop worker... no
// coroutine runtime is required"), events are plain `func()` closures rather
// than a tagged Event sum-type — idiomatic Go drops the per-class
// boilerplate a pattern-matched enum would need.
package eventloop

import (
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/util"
)

// Loop is a single-threaded, single-consumer event loop. Any goroutine may
// Post a closure; exactly one worker goroutine drains and runs them in post
// order. A handler panic is recovered and logged; the loop never terminates
// on its own (§4.A: "swallows and logs handler exceptions but never
// terminates").
type Loop struct {
	queue chan func()
}

// New starts the loop's worker goroutine and returns the handle used to
// Post events into it.
func New() *Loop {
	l := &Loop{queue: make(chan func(), 1024)}
	go l.run()
	return l
}

func (l *Loop) run() {
	for fn := range l.queue {
		l.runGuarded(fn)
	}
}

func (l *Loop) runGuarded(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			util.LogError("eventloop: recovered panic in event handler: %v", r)
		}
	}()
	fn()
}

// Post enqueues fn for execution on the loop's worker. Any two Posts from
// the same calling goroutine are observed in post order (§4.A); Posts from
// distinct goroutines may interleave.
func (l *Loop) Post(fn func()) {
	l.queue <- fn
}

// PostAndWait enqueues fn and blocks the caller until it has run. Used by
// facade operations that need a consistent snapshot of loop-owned state
// (e.g. get_all_connected) without blocking the loop worker itself for the
// snapshot's lifetime — only for the duration of fn.
func (l *Loop) PostAndWait(fn func()) {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	<-done
}
