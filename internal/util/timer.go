package util

import (
	"time"

	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/provider"
)

// SystemTimer is the production provider.Timer, backed by time.AfterFunc.
type SystemTimer struct{}

// NewSystemTimer returns the stdlib-backed timer.
func NewSystemTimer() SystemTimer { return SystemTimer{} }

func (SystemTimer) ScheduleOnce(delayMs int, callback func()) provider.Cancelable {
	t := time.AfterFunc(time.Duration(delayMs)*time.Millisecond, callback)
	return cancelableTimer{t}
}

type cancelableTimer struct{ t *time.Timer }

func (c cancelableTimer) Cancel() { c.t.Stop() }
