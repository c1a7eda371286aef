package eventloop

import (
	"sync"
	"testing"
	"time"
)

func TestPostAndWaitRunsSynchronously(t *testing.T) {
	l := New()
	ran := false
	l.PostAndWait(func() { ran = true })
	if !ran {
		t.Fatalf("expected fn to have run before PostAndWait returned")
	}
}

func TestPostsFromSameGoroutineRunInOrder(t *testing.T) {
	l := New()
	var mu sync.Mutex
	var order []int

	for i := 0; i < 10; i++ {
		i := i
		l.Post(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}

	l.PostAndWait(func() {})

	mu.Lock()
	defer mu.Unlock()
	for i, v := range order {
		if v != i {
			t.Fatalf("expected post order to be preserved, got %v", order)
		}
	}
}

func TestPanicInHandlerDoesNotKillTheLoop(t *testing.T) {
	l := New()
	l.Post(func() { panic("boom") })

	done := make(chan struct{})
	l.Post(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("loop appears to have died after a handler panic")
	}
}
