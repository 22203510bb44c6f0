// Package message defines the logical wire messages of §6.1 and the
// transport abstraction that sends/receives them with epoch tagging.
// Grounded on the teacher's network/msg.go CoordinatorGossip/PaGossip
// envelopes and network/coordinator/msg.go's per-phase send helpers,
// generalized to the Accord phase set instead of 2PC/3PC/FC marks.
package message

import (
	"github.com/maedhroz/accord/command"
	"github.com/maedhroz/accord/keys"
	"github.com/maedhroz/accord/timestamp"
)

// Envelope carries the originating epoch on every request (§6.1). The
// replica.Node handlers do not read it: they neither hold back a request
// tagged with an epoch they have not reached nor reject one tagged with an
// epoch they have moved past.
type Envelope struct {
	Epoch uint64
}

// PreAccept is sent by the coordinator to every replica of every shard the
// route touches.
type PreAccept struct {
	Envelope
	TxnID ID
	Route keys.Route
	Keys  keys.Keys
}

type ID = timestamp.TxnId

// PreAcceptOk is the successful PreAccept reply: witnessedExecuteAt is
// max(TxnId, max(conflicting.executeAt)+1) and deps is every conflicting
// TxnId not yet known to have a strictly smaller executeAt.
type PreAcceptOk struct {
	Envelope
	TxnID             ID
	WitnessedExecuteAt timestamp.ExecuteAt
	Deps              command.DepSet
}

// PreAcceptNack rejects a PreAccept, e.g. because the command is already
// past PreAccepted on that replica.
type PreAcceptNack struct {
	Envelope
	TxnID         ID
	CurrentStatus command.Status
	Promised      timestamp.Ballot
}

// Accept carries the coordinator's ballot, Route, and the slow-path
// executeAt/deps it computed from PreAccept replies.
type Accept struct {
	Envelope
	TxnID     ID
	Ballot    timestamp.Ballot
	Route     keys.Route
	ExecuteAt timestamp.ExecuteAt
	Deps      command.DepSet
}

type AcceptOk struct {
	Envelope
	TxnID ID
	Deps  command.DepSet
}

type AcceptNack struct {
	Envelope
	TxnID        ID
	MaxPromised  timestamp.Ballot
}

// Commit has no reply per §6.1.
type Commit struct {
	Envelope
	TxnID     ID
	ExecuteAt timestamp.ExecuteAt
	Deps      command.DepSet
	Route     keys.Route
}

// Read requests the values for keys as of TxnId's execution.
type Read struct {
	Envelope
	TxnID ID
	Keys  keys.Keys
}

type ReadOk struct {
	Envelope
	TxnID  ID
	Values map[string][]byte
}

type ReadNack struct {
	Envelope
	TxnID ID
	Error string
}

// Apply carries the final write set and result; replicas ack.
type Apply struct {
	Envelope
	TxnID     ID
	ExecuteAt timestamp.ExecuteAt
	Deps      command.DepSet
	Writes    command.Writes
	Result    command.Result
}

type ApplyOk struct {
	Envelope
	TxnID ID
}

// ApplyNack rejects an Apply delivered before the command reached
// Committed (messages may reorder across hops, per §5's ordering
// guarantees), carrying the current status. Coordinator.Apply counts it as
// a missing vote and does not retry.
type ApplyNack struct {
	Envelope
	TxnID         ID
	CurrentStatus command.Status
}

// BeginRecovery is sent by a homeKey-owning replica initiating Recovery
// (§4.4), with a fresh ballot higher than any previously known.
type BeginRecovery struct {
	Envelope
	TxnID  ID
	Ballot timestamp.Ballot
	Route  keys.Route
}

// RecoveryReply reports a replica's highest-ballot outcome for TxnID.
type RecoveryReply struct {
	Envelope
	TxnID          ID
	Status         command.Status
	AcceptedBallot timestamp.Ballot
	ExecuteAt      timestamp.ExecuteAt
	HasExecuteAt   bool
	Deps           command.DepSet
}

// WaitOnCommit is the cross-replica blocking primitive of §4.5.
type WaitOnCommit struct {
	Envelope
	TxnID ID
	Scope keys.Unseekables
}

type WaitOnCommitOk struct {
	Envelope
	TxnID ID
}

// Invalidate / InvalidateOk close out a transaction no replica witnessed
// as PreAccepted.
type Invalidate struct {
	Envelope
	TxnID ID
}

type InvalidateOk struct {
	Envelope
	TxnID ID
}
