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

// Commit runs the Commit phase of §4.2: broadcast Commit(TxnId, executeAt,
// deps, Route) to every replica of every shard — no reply is required, so
// this waits for every Send to return but ignores what each one returned
// (best-effort, matching the
// teacher's sendDecide/"commit decision sent asynchronously" comment in
// network/coordinator/gpac.go's GPACSubmit).
func (co *Coordinator) Commit(ctx context.Context, txnID timestamp.TxnId, route keys.Route, touched keys.Ranges, executeAt timestamp.ExecuteAt, deps command.DepSet) error {
	topo, err := co.Topology.ForEpoch(txnID.Epoch)
	if err != nil {
		return err
	}
	shards := topo.ShardsTouching(touched)
	if len(shards) == 0 {
		return fmt.Errorf("coordinator: route touches no shards in epoch %d", txnID.Epoch)
	}
	req := &message.Commit{
		Envelope:  message.Envelope{Epoch: txnID.Epoch},
		TxnID:     txnID,
		ExecuteAt: executeAt,
		Deps:      deps,
		Route:     route,
	}
	for _, s := range shards {
		co.Dispatcher.Broadcast(ctx, s.Replicas, req)
	}
	return nil
}

// Read gathers values from a read quorum of every shard touched overlaps
// (§4.2's "Read(TxnId) request then collects the values"). It sends one
// round of Read requests; a replica where the command has not yet reached
// ReadyToExecute nacks, and Read does not retry, so too few ready replicas
// in a shard make it return an error.
func (co *Coordinator) Read(ctx context.Context, txnID timestamp.TxnId, reads keys.Keys, touched keys.Ranges) (map[string][]byte, error) {
	topo, err := co.Topology.ForEpoch(txnID.Epoch)
	if err != nil {
		return nil, err
	}
	shards := topo.ShardsTouching(touched)
	values := map[string][]byte{}

	perShard := FanOutPerShard(ctx, co.Dispatcher, shards, func(s topology.Shard) any {
		return &message.Read{
			Envelope: message.Envelope{Epoch: txnID.Epoch},
			TxnID:    txnID,
			Keys:     reads,
		}
	})
	for _, sr := range perShard {
		if !QuorumOK(sr.Shard, sr.Replies, func(r message.Reply) bool {
			_, ok := r.Value.(*message.ReadOk)
			return ok
		}) {
			return nil, fmt.Errorf("coordinator: read quorum not met for shard %v", sr.Shard.Range)
		}
		for _, r := range sr.Replies {
			if ok, cast := r.Value.(*message.ReadOk); cast && r.Err == nil {
				for k, v := range ok.Values {
					values[k] = v
				}
			}
		}
	}
	return values, nil
}
