package peernode

import "fmt"

// ErrAlreadyPresent is returned by Table.AddInitiator and Table.AddResponder
// when remoteID already has a
// live record in either role's table (§3 invariant: "Exactly one Node
// record per remote_id across initiator and responder tables combined").
var ErrAlreadyPresent = fmt.Errorf("peernode: remote id already has a live node record")

// Table owns every live Node record, combining the initiator and responder
// maps the spec describes separately (§3). It is mutated exclusively by the
// event-loop worker; reads from other goroutines (AllConnected, Get) are
// expected to be invoked via the event loop's PostAndWait so they never race
// with a concurrent mutation.
type Table struct {
	initiators map[string]*Node
	responders map[string]*Node
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{
		initiators: make(map[string]*Node),
		responders: make(map[string]*Node),
	}
}

// Has reports whether remoteID has a live record in either role's table.
func (t *Table) Has(remoteID string) bool {
	if _, ok := t.initiators[remoteID]; ok {
		return true
	}
	_, ok := t.responders[remoteID]
	return ok
}

// AddInitiator registers n under its RemoteID, failing if one is already present.
func (t *Table) AddInitiator(n *Node) error {
	if t.Has(n.RemoteID) {
		return ErrAlreadyPresent
	}
	t.initiators[n.RemoteID] = n
	return nil
}

// AddResponder registers n under its RemoteID, failing if one is already present.
func (t *Table) AddResponder(n *Node) error {
	if t.Has(n.RemoteID) {
		return ErrAlreadyPresent
	}
	t.responders[n.RemoteID] = n
	return nil
}

// Get returns the live record for remoteID, from whichever role's table
// holds it (the invariant guarantees at most one does).
func (t *Table) Get(remoteID string) (*Node, bool) {
	if n, ok := t.initiators[remoteID]; ok {
		return n, true
	}
	n, ok := t.responders[remoteID]
	return n, ok
}

// Remove deletes remoteID from whichever table holds it.
func (t *Table) Remove(remoteID string) {
	delete(t.initiators, remoteID)
	delete(t.responders, remoteID)
}

// AllConnected returns a snapshot slice of every Node currently CONNECTED,
// across both roles (§4.J get_all_connected).
func (t *Table) AllConnected() []*Node {
	out := make([]*Node, 0, len(t.initiators)+len(t.responders))
	for _, n := range t.initiators {
		if n.State == StateConnected {
			out = append(out, n)
		}
	}
	for _, n := range t.responders {
		if n.State == StateConnected {
			out = append(out, n)
		}
	}
	return out
}

// InitiatorsNotConnected returns every initiator Node not yet CONNECTED
// (§4.G force_conclusion, §4.H voluntary disconnect).
func (t *Table) InitiatorsNotConnected() []*Node {
	out := make([]*Node, 0)
	for _, n := range t.initiators {
		if n.State != StateConnected {
			out = append(out, n)
		}
	}
	return out
}

// NotConnected returns every Node of either role not yet CONNECTED (§4.H
// voluntary disconnect: "force-closes all not-yet-CONNECTED initiator and
// responder records").
func (t *Table) NotConnected() []*Node {
	out := make([]*Node, 0)
	for _, n := range t.initiators {
		if n.State != StateConnected {
			out = append(out, n)
		}
	}
	for _, n := range t.responders {
		if n.State != StateConnected {
			out = append(out, n)
		}
	}
	return out
}
