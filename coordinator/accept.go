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

// maxConsecutiveAcceptRejections is the escalate-to-recovery threshold of
// §4.2: "Three consecutive rejections escalate to Recovery."
const maxConsecutiveAcceptRejections = 3

// Accept runs the Accept phase of §4.2: send Accept(TxnId, ballot, Route,
// executeAt, deps) to every replica of every touched shard and succeed once
// a simple quorum per shard accepts, retrying with a higher
// ballot (drawn from the highest promised ballot any shard reported) on a
// quorum of rejections, up to maxConsecutiveAcceptRejections before
// returning ErrRecoveryRequired.
func (co *Coordinator) Accept(ctx context.Context, txnID timestamp.TxnId, ballot timestamp.Ballot, route keys.Route, touched keys.Ranges, executeAt timestamp.ExecuteAt, deps command.DepSet) (timestamp.Ballot, error) {
	topo, err := co.Topology.ForEpoch(txnID.Epoch)
	if err != nil {
		return ballot, err
	}
	shards := topo.ShardsTouching(touched)
	if len(shards) == 0 {
		return ballot, fmt.Errorf("coordinator: route touches no shards in epoch %d", txnID.Epoch)
	}

	for attempt := 0; attempt < maxConsecutiveAcceptRejections; attempt++ {
		perShard := FanOutPerShard(ctx, co.Dispatcher, shards, func(s topology.Shard) any {
			return &message.Accept{
				Envelope:  message.Envelope{Epoch: txnID.Epoch},
				TxnID:     txnID,
				Ballot:    ballot,
				Route:     route,
				ExecuteAt: executeAt,
				Deps:      deps,
			}
		})

		allQuorum := true
		highestPromised := ballot
		for _, sr := range perShard {
			if !QuorumOK(sr.Shard, sr.Replies, func(r message.Reply) bool {
				_, ok := r.Value.(*message.AcceptOk)
				return ok
			}) {
				allQuorum = false
				for _, r := range sr.Replies {
					if nack, ok := r.Value.(*message.AcceptNack); ok {
						highestPromised = timestamp.Max(highestPromised, nack.MaxPromised)
					}
				}
			}
		}
		if allQuorum {
			return ballot, nil
		}
		// Consult each shard's highest promised ballot and retry with a
		// strictly higher one, per §4.2's "analogous to classic two-phase
		// consensus" retry rule.
		ballot = highestPromised.Next()
	}
	return ballot, ErrRecoveryRequired
}
