package coordinator

import (
	"github.com/maedhroz/accord/keys"
	"github.com/maedhroz/accord/message"
	"github.com/maedhroz/accord/timestamp"
	"github.com/maedhroz/accord/topology"
)

// Txn is the client-submitted transaction: the keys it reads and the Kind
// that determines its TxnId's tie-break (§3.1). It carries no write set;
// Execute computes writes from the read values via its callback.
// Mirrors the teacher's TX (network/coordinator — txn_handler.go callers
// build a *TX with Participants/OptList) generalized to the key/route
// model instead of a flat participant address list.
type Txn struct {
	Kind  timestamp.Kind
	Reads keys.Keys
}

// Coordinator runs the four-phase protocol (§4.2) for client transactions,
// against a given TopologyManager and Transport. One Coordinator instance
// is created per node, analogous to the teacher's per-node
// network/coordinator.Manager.
type Coordinator struct {
	Node       topology.NodeID
	Clock      *timestamp.Clock
	Topology   *topology.TopologyManager
	Dispatcher *message.Dispatcher
}

// New creates a Coordinator for node, using clock to assign TxnIds and
// transport to reach replicas.
func New(node topology.NodeID, clock *timestamp.Clock, tm *topology.TopologyManager, transport message.Transport) *Coordinator {
	return &Coordinator{
		Node:       node,
		Clock:      clock,
		Topology:   tm,
		Dispatcher: &message.Dispatcher{Transport: transport},
	}
}
