package util

import (
	"runtime"

	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/provider"
)

// PoolExecutor is the production provider.Executor (§4.B, §5): a fixed-size
// worker pool, with overflow onto extra goroutines once its queue is full,
// that runs user-visible callbacks off the event-loop goroutine,
// so a slow or panicking callback cannot stall state-machine progress.
type PoolExecutor struct {
	tasks chan func()
}

// NewPoolExecutor starts a worker pool sized to GOMAXPROCS (min 2). Workers
// run until the process exits; there is no Close, mirroring the event loop's
// "never terminates" lifetime.
func NewPoolExecutor() *PoolExecutor {
	workers := runtime.GOMAXPROCS(0)
	if workers < 2 {
		workers = 2
	}

	e := &PoolExecutor{tasks: make(chan func(), 256)}
	for i := 0; i < workers; i++ {
		go e.worker()
	}
	return e
}

func (e *PoolExecutor) worker() {
	for fn := range e.tasks {
		runGuarded(fn)
	}
}

func runGuarded(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			LogError("recovered panic in user callback: %v", r)
		}
	}()
	fn()
}

// Run queues fn for execution on a pool worker. It never blocks the caller:
// when the queue is full, fn runs on a goroutine of its own instead.
func (e *PoolExecutor) Run(fn func()) {
	select {
	case e.tasks <- fn:
	default:
		go runGuarded(fn)
	}
}

var _ provider.Executor = (*PoolExecutor)(nil)
