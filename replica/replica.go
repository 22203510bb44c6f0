// Package replica implements the replica-side per-message state transition
// table of §4.3: for each incoming message, load the affected command into
// a SafeCommandStore and execute exactly one state transition, producing
// either an Ok reply or a Nack carrying the current status and ballot so
// the coordinator can catch up.
//
// Grounded on the teacher's network/participant.Manager (manager.go) and
// TXNBranch (branch.go): the per-node dispatch-by-shard structure and the
// "create if not exists, then act" branch lookup are kept; the fixed
// 2PC/3PC/FC transition logic is replaced by the Accord table.
package replica

import (
	"github.com/maedhroz/accord/command"
	"github.com/maedhroz/accord/datastore"
	"github.com/maedhroz/accord/message"
	"github.com/maedhroz/accord/timestamp"
	"github.com/maedhroz/accord/topology"
	"github.com/maedhroz/accord/waitoncommit"
)

// DataStore is the embedder interface of §6.2: the core never inspects
// values. Re-exported from the datastore package so replica callers don't
// need a second import for the same contract.
type DataStore = datastore.Store

// Node owns one CommandStore per disjoint key-slice it replicates, mapped
// by Store.ID(), and a DataStore per slice. This mirrors the teacher's
// Manager.Shards map keyed by shard address (network/participant/manager.go),
// generalized from a flat shard-id string to the Accord CommandStore model.
type Node struct {
	ID      topology.NodeID
	Clock   *timestamp.Clock
	Stores  map[int]*command.Store
	Data    map[int]DataStore
}

// NewNode creates a Node with no stores; call AddStore for each
// disjoint key-slice this node replicates.
func NewNode(id topology.NodeID, clock *timestamp.Clock) *Node {
	return &Node{ID: id, Clock: clock, Stores: map[int]*command.Store{}, Data: map[int]DataStore{}}
}

// AddStore registers store (and its backing DataStore) with the node.
func (n *Node) AddStore(store *command.Store, data DataStore) {
	n.Stores[store.ID()] = store
	n.Data[store.ID()] = data
}

// storeFor returns the Store owning storeID, or nil.
func (n *Node) storeFor(storeID int) *command.Store {
	return n.Stores[storeID]
}

// HandlePreAccept applies a PreAccept message (§4.3's "NotWitnessed ->
// PreAccepted" / "PreAccepted -> PreAccepted (idempotent)" row) to the
// command store owning storeID. deps is exactly the set the injected
// conflicts function returns; witnessedExecuteAt = max(TxnId,
// max(dep.executeAt)+1) over those deps this store holds an executeAt for.
func (n *Node) HandlePreAccept(storeID int, req *message.PreAccept, conflicts func(*command.Safe, message.ID) command.DepSet) (*message.PreAcceptOk, *message.PreAcceptNack) {
	store := n.storeFor(storeID)
	n.Clock.Witness(req.TxnID.Timestamp)

	var ok *message.PreAcceptOk
	var nack *message.PreAcceptNack
	err := store.Execute(func(safe *command.Safe) error {
		cmd := safe.Command(req.TxnID)
		if cmd.Status() > command.PreAccepted {
			nack = &message.PreAcceptNack{TxnID: req.TxnID, CurrentStatus: cmd.Status(), Promised: cmd.PromisedBallot()}
			return nil
		}
		deps := conflicts(safe, req.TxnID)
		witnessedExecuteAt := req.TxnID.Timestamp
		for _, d := range deps.ToSlice() {
			if other, exists := safe.Peek(d); exists {
				if at, has := other.ExecuteAt(); has {
					witnessedExecuteAt = timestamp.Max(witnessedExecuteAt, at.Next())
				}
			}
		}
		cmd.WitnessPreAccept(witnessedExecuteAt, deps)
		ok = &message.PreAcceptOk{TxnID: req.TxnID, WitnessedExecuteAt: witnessedExecuteAt, Deps: deps}
		return nil
	})
	if err != nil {
		return nil, &message.PreAcceptNack{TxnID: req.TxnID}
	}
	return ok, nack
}

// HandleAccept applies an Accept message (§4.3's Accept column): accepted
// iff promisedBallot <= ballot.
func (n *Node) HandleAccept(storeID int, req *message.Accept) (*message.AcceptOk, *message.AcceptNack) {
	store := n.storeFor(storeID)
	var ok *message.AcceptOk
	var nack *message.AcceptNack
	err := store.Execute(func(safe *command.Safe) error {
		cmd := safe.Command(req.TxnID)
		if !cmd.WitnessAccept(req.Ballot, req.ExecuteAt, req.Deps) {
			nack = &message.AcceptNack{TxnID: req.TxnID, MaxPromised: cmd.PromisedBallot()}
			return nil
		}
		ok = &message.AcceptOk{TxnID: req.TxnID, Deps: req.Deps}
		return nil
	})
	if err != nil {
		return nil, &message.AcceptNack{TxnID: req.TxnID}
	}
	return ok, nack
}

// HandleCommit applies a Commit message: no reply is sent (§6.1), and per
// §4.2 the command is registered as a listener of every dependency this
// store holds a Command for.
func (n *Node) HandleCommit(storeID int, req *message.Commit) {
	store := n.storeFor(storeID)
	_ = store.Execute(func(safe *command.Safe) error {
		cmd := safe.Command(req.TxnID)
		if cmd.WitnessCommit(req.ExecuteAt, req.Deps, req.Route) {
			safe.RegisterDependencyListeners(cmd)
			if safe.AllReady(cmd.Deps()) {
				cmd.MarkReadyToExecute()
			}
		}
		return nil
	})
}

// HandleRead serves a Read once the command is ReadyToExecute, by reading
// from the node's DataStore (§6.2). Writes are buffered until Apply.
func (n *Node) HandleRead(storeID int, req *message.Read) (*message.ReadOk, *message.ReadNack) {
	store := n.storeFor(storeID)
	data := n.Data[storeID]
	var ok *message.ReadOk
	var nack *message.ReadNack
	_ = store.Execute(func(safe *command.Safe) error {
		cmd, exists := safe.Peek(req.TxnID)
		if !exists || cmd.Status() < command.ReadyToExecute {
			nack = &message.ReadNack{TxnID: req.TxnID, Error: "not ready"}
			return nil
		}
		raw := make([][]byte, len(req.Keys))
		for i, k := range req.Keys {
			raw[i] = []byte(k)
		}
		values, err := data.Read(raw)
		if err != nil {
			nack = &message.ReadNack{TxnID: req.TxnID, Error: err.Error()}
			return nil
		}
		ok = &message.ReadOk{TxnID: req.TxnID, Values: values}
		return nil
	})
	return ok, nack
}

// HandleApply persists writes, moves the command to Applied, and notifies
// listeners (§4.2's final phase). An Apply arriving before the command is
// Committed is nacked rather than applied: the coordinator may not assume
// FIFO delivery across network hops (§5), so a reordered Apply must wait
// for the Commit it depends on.
func (n *Node) HandleApply(storeID int, req *message.Apply) (*message.ApplyOk, *message.ApplyNack) {
	store := n.storeFor(storeID)
	data := n.Data[storeID]
	var nack *message.ApplyNack
	err := store.Execute(func(safe *command.Safe) error {
		cmd := safe.Command(req.TxnID)
		if cmd.Status() == command.Applied {
			return nil
		}
		if !cmd.Status().IsAtLeastCommitted() {
			nack = &message.ApplyNack{TxnID: req.TxnID, CurrentStatus: cmd.Status()}
			return nil
		}
		if err := data.Apply(req.Writes); err != nil {
			return err
		}
		cmd.WitnessApply(req.Writes, req.Result)
		return nil
	})
	if err != nil {
		return nil, &message.ApplyNack{TxnID: req.TxnID}
	}
	if nack != nil {
		return nil, nack
	}
	return &message.ApplyOk{TxnID: req.TxnID}, nil
}

// HandleInvalidate applies an Invalidate message (§4.3's Invalidate
// column): legal only from Accepted or earlier.
func (n *Node) HandleInvalidate(storeID int, req *message.Invalidate) *message.InvalidateOk {
	store := n.storeFor(storeID)
	_ = store.Execute(func(safe *command.Safe) error {
		cmd := safe.Command(req.TxnID)
		cmd.WitnessInvalidate()
		return nil
	})
	return &message.InvalidateOk{TxnID: req.TxnID}
}

// HandleWaitOnCommit applies §4.5: replies immediately if the command is
// already at or beyond Committed, otherwise registers a one-shot listener
// and returns the channel that closes once it gets there.
func (n *Node) HandleWaitOnCommit(storeID int, req *message.WaitOnCommit) (ready bool, notify <-chan struct{}) {
	store := n.storeFor(storeID)
	_ = store.Execute(func(safe *command.Safe) error {
		cmd := safe.Command(req.TxnID)
		if cmd.Status().IsAtLeastCommitted() {
			ready = true
			return nil
		}
		key := timestamp.TxnId{Timestamp: n.Clock.Now(req.TxnID.Epoch), Kind: timestamp.Read}
		notify = waitoncommit.Register(cmd, key)
		return nil
	})
	return ready, notify
}

// HandleBeginRecovery reports this replica's current state for req.TxnID,
// bumping its promised ballot to req.Ballot so any competing coordinator at
// a lower ballot is rejected going forward (§4.4). A command never seen by
// this replica is reported in NotWitnessed status with no executeAt.
func (n *Node) HandleBeginRecovery(storeID int, req *message.BeginRecovery) *message.RecoveryReply {
	store := n.storeFor(storeID)
	var reply *message.RecoveryReply
	_ = store.Execute(func(safe *command.Safe) error {
		cmd := safe.Command(req.TxnID)
		cmd.PromoteBallot(req.Ballot)
		executeAt, hasExecuteAt := cmd.ExecuteAt()
		reply = &message.RecoveryReply{
			TxnID:          req.TxnID,
			Status:         cmd.Status(),
			AcceptedBallot: cmd.AcceptedBallot(),
			ExecuteAt:      executeAt,
			HasExecuteAt:   hasExecuteAt,
			Deps:           cmd.Deps(),
		}
		return nil
	})
	return reply
}
