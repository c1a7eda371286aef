package util

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pterm/pterm"
)

// ──────────────────────────────────────────────────────────────────────────────
// Global stats singleton
// ──────────────────────────────────────────────────────────────────────────────

// Stats is the process-wide node diagnostics counter. It is ambient
// instrumentation only — no spec module reads from it to make decisions.
var Stats = &stats{}

type stats struct {
	NodesConnected     atomic.Int64 // cumulative successful pairings since process start
	NodesClosed        atomic.Int64 // cumulative pairing closures since process start
	FramesSent         atomic.Int64 // cumulative frames written to data channels
	FramesReceived     atomic.Int64 // cumulative frames read from data channels
	ReconnectAttempts  atomic.Int64 // cumulative broker reconnection attempts
	MultipartDiscarded atomic.Int64 // cumulative reassembly buffers discarded (timeout/out-of-order)
}

func (s *stats) AddNodeConnected()    { s.NodesConnected.Add(1) }
func (s *stats) AddNodeClosed()       { s.NodesClosed.Add(1) }
func (s *stats) AddFrameSent()        { s.FramesSent.Add(1) }
func (s *stats) AddFrameReceived()    { s.FramesReceived.Add(1) }
func (s *stats) AddReconnectAttempt() { s.ReconnectAttempts.Add(1) }
func (s *stats) AddMultipartDiscard() { s.MultipartDiscarded.Add(1) }

// ──────────────────────────────────────────────────────────────────────────────
// Periodic reporter
// ──────────────────────────────────────────────────────────────────────────────

// StartStatsReporter launches a goroutine that checks node diagnostics every
// 10 seconds and logs the deltas whenever a node or frame counter changed.
// It stops when ctx is cancelled.
func StartStatsReporter(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		var prevConnected, prevClosed, prevSent, prevRecv int64
		for {
			select {
			case <-ticker.C:
				connected := Stats.NodesConnected.Load()
				closed := Stats.NodesClosed.Load()
				sent := Stats.FramesSent.Load()
				recv := Stats.FramesReceived.Load()

				connDelta := connected - prevConnected
				closeDelta := closed - prevClosed
				sentDelta := sent - prevSent
				recvDelta := recv - prevRecv

				if connDelta > 0 || closeDelta > 0 || sentDelta > 0 || recvDelta > 0 {
					pterm.DefaultLogger.Info(formatStats(connDelta, closeDelta, sentDelta, recvDelta))
				}

				prevConnected, prevClosed, prevSent, prevRecv = connected, closed, sent, recv

			case <-ctx.Done():
				return
			}
		}
	}()
}

// formatStats returns a formatted string of the current stats for display in the logger.
func formatStats(connDelta, closeDelta, sentDelta, recvDelta int64) string {
	return fmt.Sprintf("Nodes: %2d↑ %2d↓ | Frames: %4d sent / %4d recv",
		connDelta, closeDelta, sentDelta, recvDelta)
}
