package coordinator

import (
	"context"
	"fmt"

	"github.com/maedhroz/accord/command"
	"github.com/maedhroz/accord/keys"
	"github.com/maedhroz/accord/message"
	"github.com/maedhroz/accord/timestamp"
	"github.com/maedhroz/accord/topology"
)

// PreAcceptResult is the outcome of a PreAccept round: the aggregated
// executeAt/deps, and whether every touched shard's fast-path electorate
// agreed (so the coordinator can skip straight to Commit).
type PreAcceptResult struct {
	ExecuteAt timestamp.ExecuteAt
	Deps      command.DepSet
	FastPath  bool
}

// PreAccept runs the PreAccept phase of §4.2: send PreAccept(TxnId, Route,
// Txn) to every replica of every shard the route touches in
// epoch(TxnId), and aggregate the results.
func (co *Coordinator) PreAccept(ctx context.Context, txnID timestamp.TxnId, route keys.Route, touched keys.Ranges) (PreAcceptResult, error) {
	topo, err := co.Topology.ForEpoch(txnID.Epoch)
	if err != nil {
		return PreAcceptResult{}, err
	}
	shards := topo.ShardsTouching(touched)
	if len(shards) == 0 {
		return PreAcceptResult{}, fmt.Errorf("coordinator: route touches no shards in epoch %d", txnID.Epoch)
	}

	perShard := FanOutPerShard(ctx, co.Dispatcher, shards, func(s topology.Shard) any {
		return &message.PreAccept{
			Envelope: message.Envelope{Epoch: txnID.Epoch},
			TxnID:    txnID,
			Route:    route,
		}
	})

	fastPath := true
	executeAt := txnID.Timestamp
	deps := command.NewDepSet()

	for _, sr := range perShard {
		if !QuorumOK(sr.Shard, sr.Replies, func(r message.Reply) bool {
			_, ok := r.Value.(*message.PreAcceptOk)
			return ok
		}) {
			return PreAcceptResult{}, ErrNack
		}
		if !FastPathOK(sr.Shard, sr.Replies, func(r message.Reply) bool {
			ok, matches := fastPathVote(r, txnID.Timestamp)
			return ok && matches
		}) {
			fastPath = false
		}
		for _, r := range sr.Replies {
			if r.Err != nil {
				continue
			}
			ok, ok2 := r.Value.(*message.PreAcceptOk)
			if !ok2 {
				continue
			}
			executeAt = timestamp.Max(executeAt, ok.WitnessedExecuteAt)
			deps = deps.Union(ok.Deps)
		}
	}

	// Fast-path additionally requires that every agreeing reply in every
	// shard witnessed *identical* deps, not merely the same executeAt
	// (§4.2's fast-path condition). Re-check against the aggregate.
	if fastPath {
		for _, sr := range perShard {
			for _, r := range sr.Replies {
				if r.Err != nil {
					continue
				}
				ok, ok2 := r.Value.(*message.PreAcceptOk)
				if !ok2 {
					continue
				}
				if !ok.Deps.Equal(deps) {
					fastPath = false
				}
			}
		}
	}

	return PreAcceptResult{ExecuteAt: executeAt, Deps: deps, FastPath: fastPath}, nil
}

func fastPathVote(r message.Reply, txnTS timestamp.Timestamp) (isOk bool, witnessesTxnTS bool) {
	ok, cast := r.Value.(*message.PreAcceptOk)
	if !cast {
		return false, false
	}
	return true, ok.WitnessedExecuteAt.Equal(txnTS)
}
