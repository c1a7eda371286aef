package util

import "sync"

// Latch is a one-shot gate: callers Wait() until Release() is called (Done
// exposes the channel for use in a select). It backs every synchronous facade
// entry point (connect_to_broker, disconnect_from_broker, sync connect-to-nodes)
// per the spec's concurrency model (§5): these block the *caller's* goroutine,
// never the event-loop worker.
type Latch struct {
	once sync.Once
	done chan struct{}
}

// NewLatch creates an unreleased latch.
func NewLatch() *Latch {
	return &Latch{done: make(chan struct{})}
}

// Release opens the gate. Safe to call more than once or from any goroutine.
func (l *Latch) Release() {
	l.once.Do(func() { close(l.done) })
}

// Wait blocks until Release is called.
func (l *Latch) Wait() {
	<-l.done
}

// Done returns the underlying channel, for use in select statements
// alongside a context's Done() or a timeout.
func (l *Latch) Done() <-chan struct{} {
	return l.done
}
