package attempt

import (
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/peernode"
	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/util"
)

// ConnectToMultiple runs on the event-loop worker (§4.G). It must be called
// with table already reflecting the current set of live Nodes, and
// brokerConnected reflecting the current broker-session state; both are
// read synchronously within the same loop tick this function runs on, so
// there is no race against other loop-owned mutations.
func ConnectToMultiple(
	targets map[string]TargetCallbacks,
	table *peernode.Table,
	localID string,
	brokerConnected bool,
	newSessionID func() string,
	deps peernode.Deps,
	onConcluded func(map[string]Outcome),
) *Handle {
	h := &Handle{
		allTargets:  make(map[string]struct{}, len(targets)),
		results:     make(map[string]Outcome, len(targets)),
		missing:     len(targets),
		onConcluded: onConcluded,
		executor:    deps.Executor,
		done:        util.NewLatch(),
	}
	for id := range targets {
		h.allTargets[id] = struct{}{}
	}

	if len(targets) == 0 {
		h.mu.Lock()
		h.concludeLocked()
		h.mu.Unlock()
		return h
	}

	sessionID := newSessionID()

	runCallback := func(fn func()) {
		if deps.Executor != nil {
			deps.Executor.Run(fn)
		} else {
			fn()
		}
	}

	for remoteID, cb := range targets {
		switch {
		case !brokerConnected:
			h.resolve(remoteID, Outcome{Failure: peernode.FailureLocalNotConnected})
			if cb.OnConnectionFailed != nil {
				runCallback(func() { cb.OnConnectionFailed(peernode.FailureLocalNotConnected) })
			}
		case remoteID == localID:
			h.resolve(remoteID, Outcome{Failure: peernode.FailureSelfTarget})
			if cb.OnConnectionFailed != nil {
				runCallback(func() { cb.OnConnectionFailed(peernode.FailureSelfTarget) })
			}
		case table.Has(remoteID):
			h.resolve(remoteID, Outcome{Failure: peernode.FailureAlreadyConnected})
			if cb.OnConnectionFailed != nil {
				runCallback(func() { cb.OnConnectionFailed(peernode.FailureAlreadyConnected) })
			}
		default:
			n := peernode.NewInitiatorNode(remoteID, sessionID)
			n.OnConnectionSuccess = func(n *peernode.Node) {
				h.resolve(n.RemoteID, Outcome{Node: n})
				if cb.OnConnectionSuccess != nil {
					runCallback(func() { cb.OnConnectionSuccess(n) })
				}
			}
			n.OnConnectionFailed = func(reason peernode.FailureReason) {
				h.resolve(n.RemoteID, Outcome{Failure: reason})
				if cb.OnConnectionFailed != nil {
					runCallback(func() { cb.OnConnectionFailed(reason) })
				}
			}
			n.OnClosed = func() { table.Remove(n.RemoteID) }

			if err := table.AddInitiator(n); err != nil {
				h.resolve(remoteID, Outcome{Failure: peernode.FailureAlreadyConnected})
				if cb.OnConnectionFailed != nil {
					runCallback(func() { cb.OnConnectionFailed(peernode.FailureAlreadyConnected) })
				}
				continue
			}

			n.StartAsInitiator(deps)
		}
	}

	return h
}
