// Package recovery implements §4.4: when a coordinator is suspected dead,
// any replica can take over a transaction by running BeginRecovery with a
// ballot higher than any previously promised, collecting the highest-ballot
// outcome any replica witnessed, and either re-proposing that outcome or
// invalidating the transaction if no replica ever witnessed a PreAccept.
//
// The teacher's protocols (2PC/3PC/G-PAC/FC) are fixed-leader and have no
// ballot or proposal-number concept to take over from a suspected-dead
// coordinator, so the escalation mechanism here is novel to the Accord
// transform, built the same "propose with a strictly higher ballot on
// rejection" way coordinator/accept.go already does for ordinary Accept
// retries. What IS grounded on the teacher is the trigger: the liveness
// detector in network/detector is what decides a coordinator is suspect
// in the first place, a role progresslog.Log plays here.
package recovery

import (
	"context"
	"fmt"

	"github.com/maedhroz/accord/command"
	"github.com/maedhroz/accord/coordinator"
	"github.com/maedhroz/accord/keys"
	"github.com/maedhroz/accord/message"
	"github.com/maedhroz/accord/timestamp"
	"github.com/maedhroz/accord/topology"
)

// Coordinator runs recovery attempts for transactions whose original
// coordinator is suspected to have failed. It reuses the phase primitives
// of the coordinator package (FanOutPerShard, QuorumOK) rather than
// duplicating fan-out logic.
type Coordinator struct {
	Node       topology.NodeID
	Topology   *topology.TopologyManager
	Dispatcher *message.Dispatcher
}

// New creates a recovery Coordinator for node.
func New(node topology.NodeID, tm *topology.TopologyManager, transport message.Transport) *Coordinator {
	return &Coordinator{Node: node, Topology: tm, Dispatcher: &message.Dispatcher{Transport: transport}}
}

// outcome is the highest-ballot state any replica reported for TxnID.
type outcome struct {
	status       command.Status
	ballot       timestamp.Ballot
	executeAt    timestamp.ExecuteAt
	hasExecuteAt bool
	deps         command.DepSet
	anyWitnessed bool
}

// Recover runs one recovery attempt for txnID: BeginRecovery(ballot) is
// broadcast to every replica of every shard route touches; the reply with
// the most advanced status, ties broken by the highest acceptedBallot,
// determines what to re-propose. If no replica ever witnessed a PreAccept
// for txnID, the
// transaction is safe to invalidate.
func (rc *Coordinator) Recover(ctx context.Context, txnID timestamp.TxnId, ballot timestamp.Ballot, route keys.Route, touched keys.Ranges) (command.Status, error) {
	topo, err := rc.Topology.ForEpoch(txnID.Epoch)
	if err != nil {
		return command.NotWitnessed, err
	}
	shards := topo.ShardsTouching(touched)
	if len(shards) == 0 {
		return command.NotWitnessed, fmt.Errorf("recovery: route touches no shards in epoch %d", txnID.Epoch)
	}

	perShard := coordinator.FanOutPerShard(ctx, rc.Dispatcher, shards, func(s topology.Shard) any {
		return &message.BeginRecovery{
			Envelope: message.Envelope{Epoch: txnID.Epoch},
			TxnID:    txnID,
			Ballot:   ballot,
			Route:    route,
		}
	})

	for _, sr := range perShard {
		if !coordinator.QuorumOK(sr.Shard, sr.Replies, func(r message.Reply) bool {
			_, ok := r.Value.(*message.RecoveryReply)
			return ok
		}) {
			return command.NotWitnessed, coordinator.ErrNack
		}
	}

	best := outcome{ballot: timestamp.Ballot{}, deps: command.NewDepSet()}
	for _, sr := range perShard {
		for _, r := range sr.Replies {
			if r.Err != nil {
				continue
			}
			reply, ok := r.Value.(*message.RecoveryReply)
			if !ok {
				continue
			}
			best.anyWitnessed = best.anyWitnessed || reply.Status >= command.PreAccepted
			if reply.Status > best.status || (reply.Status == best.status && best.ballot.Less(reply.AcceptedBallot)) {
				best = outcome{
					status:       reply.Status,
					ballot:       reply.AcceptedBallot,
					executeAt:    reply.ExecuteAt,
					hasExecuteAt: reply.HasExecuteAt,
					deps:         reply.Deps,
					anyWitnessed: best.anyWitnessed,
				}
			}
		}
	}

	switch {
	case best.status.IsAtLeastCommitted():
		// Already committed somewhere: re-broadcast Commit so every replica
		// converges, then report Committed.
		if err := rc.recommit(ctx, txnID, route, touched, best.executeAt, best.deps); err != nil {
			return command.NotWitnessed, err
		}
		return command.Committed, nil
	case best.status >= command.Accepted:
		// Someone accepted a proposal: re-propose it with our higher ballot
		// rather than inventing a new one, per §4.4.
		if err := rc.reaccept(ctx, txnID, ballot, route, touched, best.executeAt, best.deps); err != nil {
			return command.NotWitnessed, err
		}
		return command.Accepted, nil
	case best.anyWitnessed:
		// At least one replica saw a PreAccept but none accepted: safe to
		// restart PreAccept with the escalated ballot by the caller.
		return command.PreAccepted, nil
	default:
		// No replica ever witnessed this transaction: invalidate it.
		if err := rc.invalidate(ctx, txnID, shards); err != nil {
			return command.NotWitnessed, err
		}
		return command.Invalidated, nil
	}
}

func (rc *Coordinator) recommit(ctx context.Context, txnID timestamp.TxnId, route keys.Route, touched keys.Ranges, executeAt timestamp.ExecuteAt, deps command.DepSet) error {
	topo, err := rc.Topology.ForEpoch(txnID.Epoch)
	if err != nil {
		return err
	}
	for _, s := range topo.ShardsTouching(touched) {
		rc.Dispatcher.Broadcast(ctx, s.Replicas, &message.Commit{
			Envelope:  message.Envelope{Epoch: txnID.Epoch},
			TxnID:     txnID,
			ExecuteAt: executeAt,
			Deps:      deps,
			Route:     route,
		})
	}
	return nil
}

func (rc *Coordinator) reaccept(ctx context.Context, txnID timestamp.TxnId, ballot timestamp.Ballot, route keys.Route, touched keys.Ranges, executeAt timestamp.ExecuteAt, deps command.DepSet) error {
	topo, err := rc.Topology.ForEpoch(txnID.Epoch)
	if err != nil {
		return err
	}
	shards := topo.ShardsTouching(touched)
	perShard := coordinator.FanOutPerShard(ctx, rc.Dispatcher, shards, func(s topology.Shard) any {
		return &message.Accept{
			Envelope:  message.Envelope{Epoch: txnID.Epoch},
			TxnID:     txnID,
			Ballot:    ballot,
			Route:     route,
			ExecuteAt: executeAt,
			Deps:      deps,
		}
	})
	for _, sr := range perShard {
		if !coordinator.QuorumOK(sr.Shard, sr.Replies, func(r message.Reply) bool {
			_, ok := r.Value.(*message.AcceptOk)
			return ok
		}) {
			return coordinator.ErrNack
		}
	}
	return nil
}

func (rc *Coordinator) invalidate(ctx context.Context, txnID timestamp.TxnId, shards []topology.Shard) error {
	for _, s := range shards {
		rc.Dispatcher.Broadcast(ctx, s.Replicas, &message.Invalidate{
			Envelope: message.Envelope{Epoch: txnID.Epoch},
			TxnID:    txnID,
		})
	}
	return nil
}
