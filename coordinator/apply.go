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

// Apply runs the final phase of §4.2: once reads are gathered, broadcast
// Apply(TxnId, executeAt, deps, writes, result) and wait for a write
// quorum per write shard before the client reply is emitted.
func (co *Coordinator) Apply(ctx context.Context, txnID timestamp.TxnId, touched keys.Ranges, executeAt timestamp.ExecuteAt, deps command.DepSet, writes command.Writes, result command.Result) error {
	topo, err := co.Topology.ForEpoch(txnID.Epoch)
	if err != nil {
		return err
	}
	shards := topo.ShardsTouching(touched)
	if len(shards) == 0 {
		return fmt.Errorf("coordinator: route touches no shards in epoch %d", txnID.Epoch)
	}
	req := &message.Apply{
		Envelope:  message.Envelope{Epoch: txnID.Epoch},
		TxnID:     txnID,
		ExecuteAt: executeAt,
		Deps:      deps,
		Writes:    writes,
		Result:    result,
	}
	perShard := FanOutPerShard(ctx, co.Dispatcher, shards, func(s topology.Shard) any {
		return req
	})
	for _, sr := range perShard {
		if !QuorumOK(sr.Shard, sr.Replies, func(r message.Reply) bool {
			_, ok := r.Value.(*message.ApplyOk)
			return ok
		}) {
			return fmt.Errorf("coordinator: write quorum not met for shard %v", sr.Shard.Range)
		}
	}
	return nil
}

// Execute runs the complete PreAccept -> (Accept) -> Commit -> Read ->
// Apply pipeline for one transaction, per §2's "Data flow" and §4.2's
// sequential phase list. It is the coordinator-facing entry point a
// simulation driver or RPC handler calls for a client-submitted Txn.
func (co *Coordinator) Execute(ctx context.Context, epoch uint64, route keys.Route, touched keys.Ranges, kind timestamp.Kind, reads keys.Keys, computeWrites func(values map[string][]byte) (command.Writes, command.Result)) (command.Result, error) {
	txnID := timestamp.TxnId{Timestamp: co.Clock.Now(epoch), Kind: kind}

	pre, err := co.PreAccept(ctx, txnID, route, touched)
	if err != nil {
		return nil, err
	}

	executeAt, deps := pre.ExecuteAt, pre.Deps
	if !pre.FastPath {
		ballot := timestamp.InitialBallot(txnID)
		if _, err := co.Accept(ctx, txnID, ballot, route, touched, executeAt, deps); err != nil {
			return nil, err
		}
	}

	if err := co.Commit(ctx, txnID, route, touched, executeAt, deps); err != nil {
		return nil, err
	}

	values, err := co.Read(ctx, txnID, reads, touched)
	if err != nil {
		return nil, err
	}

	writes, result := computeWrites(values)
	if err := co.Apply(ctx, txnID, touched, executeAt, deps, writes, result); err != nil {
		return nil, err
	}
	return result, nil
}
