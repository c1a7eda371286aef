// Package attempt implements §4.G: the initiator-side connect_to_multiple
// orchestrator that fans a batch of targets out into InitiatorNode records
// sharing one session id, and aggregates their individual outcomes into one
// concluding callback.
package attempt

import (
	"sync"

	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/peernode"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/provider"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/util"
)

// TargetCallbacks is the per-target user callback pair supplied to
// connect_to_multiple (§4.G, §4.J).
type TargetCallbacks struct {
	OnConnectionSuccess func(n *peernode.Node)
	OnConnectionFailed  func(reason peernode.FailureReason)
}

// Outcome is one target's final result, reported in the concluding map.
type Outcome struct {
	Node    *peernode.Node
	Failure peernode.FailureReason
}

// Handle is returned to the caller of connect_to_multiple; it supports
// force_conclusion and a synchronous wait for the aggregate result.
type Handle struct {
	mu          sync.Mutex
	allTargets  map[string]struct{}
	results     map[string]Outcome
	missing     int
	concluded   bool
	onConcluded func(map[string]Outcome)
	executor    provider.Executor
	done        *util.Latch
}

// Wait blocks the caller until the batch concludes and returns the
// aggregate result map (§4.G "Synchronous variants").
func (h *Handle) Wait() map[string]Outcome {
	h.done.Wait()
	h.mu.Lock()
	defer h.mu.Unlock()
	return cloneResults(h.results)
}

func cloneResults(in map[string]Outcome) map[string]Outcome {
	out := make(map[string]Outcome, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (h *Handle) resolve(remoteID string, outcome Outcome) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.concluded {
		return
	}
	if _, already := h.results[remoteID]; already {
		return
	}
	h.results[remoteID] = outcome
	h.missing--
	if h.missing <= 0 {
		h.concludeLocked()
	}
}

// concludeLocked must be called with h.mu held.
func (h *Handle) concludeLocked() {
	if h.concluded {
		return
	}
	h.concluded = true
	snapshot := cloneResults(h.results)
	h.done.Release()
	if h.onConcluded != nil {
		if h.executor != nil {
			h.executor.Run(func() { h.onConcluded(snapshot) })
		} else {
			h.onConcluded(snapshot)
		}
	}
}

// ForceConclusion marks every unresolved target DISCONNECTED (cancelling
// its connection timeout via ForceClose) and reports it as
// closed-by-user-forcefully; already-resolved targets are left untouched
// (§4.G). live resolves a remote id to its still-tracked Node, if any.
func (h *Handle) ForceConclusion(live func(remoteID string) (*peernode.Node, bool)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.concluded {
		return
	}

	for remoteID := range h.allTargets {
		if _, done := h.results[remoteID]; done {
			continue
		}
		h.results[remoteID] = Outcome{Failure: peernode.FailureClosedByUserForcefully}
		h.missing--
		if n, ok := live(remoteID); ok && n.State != peernode.StateConnected {
			// ForceClose re-enters resolve through OnConnectionFailed, which
			// takes h.mu; the result is already recorded, so resolve returns early.
			h.mu.Unlock()
			n.ForceClose(peernode.StateDisconnected, peernode.FailureClosedByUserForcefully)
			h.mu.Lock()
		}
	}

	if h.missing <= 0 {
		h.concludeLocked()
	}
}
