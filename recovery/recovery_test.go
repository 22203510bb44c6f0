package recovery

import (
	"context"
	"testing"

	"github.com/maedhroz/accord/command"
	"github.com/maedhroz/accord/keys"
	"github.com/maedhroz/accord/message"
	"github.com/maedhroz/accord/timestamp"
	"github.com/maedhroz/accord/topology"
)

func testTopology() *topology.TopologyManager {
	tm := topology.NewTopologyManager()
	shard := topology.NewShard(keys.Range{Start: keys.Key("a"), End: keys.Key("z")}, []topology.NodeID{"n1", "n2", "n3"}, 1)
	tm.Add(topology.Topology{Epoch: 1, Shards: []topology.Shard{shard}})
	return tm
}

// neverWitnessedTransport simulates every replica reporting NotWitnessed,
// which must resolve to an Invalidate.
type neverWitnessedTransport struct{}

func (neverWitnessedTransport) Send(ctx context.Context, node topology.NodeID, req any) (any, error) {
	switch r := req.(type) {
	case *message.BeginRecovery:
		return &message.RecoveryReply{TxnID: r.TxnID, Status: command.NotWitnessed, Deps: command.NewDepSet()}, nil
	case *message.Invalidate:
		return &message.InvalidateOk{TxnID: r.TxnID}, nil
	default:
		return nil, nil
	}
}

func TestRecoverInvalidatesWhenNeverWitnessed(t *testing.T) {
	tm := testTopology()
	rc := New("n1", tm, neverWitnessedTransport{})

	route := keys.NewFullRoute(keys.Key("k"), keys.RoutingKeys{Keys: keys.NewKeys([]keys.Key{keys.Key("k")})}, 1)
	touched := keys.NewRanges([]keys.Range{{Start: keys.Key("a"), End: keys.Key("z")}})
	txnID := timestamp.TxnId{Timestamp: timestamp.Timestamp{Epoch: 1, HLC: 1, Node: 1}, Kind: timestamp.Write}

	status, err := rc.Recover(context.Background(), txnID, txnID.Timestamp.Next(), route, touched)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != command.Invalidated {
		t.Fatalf("expected Invalidated, got %v", status)
	}
}

// committedTransport simulates one replica reporting Committed, which must
// be adopted and re-broadcast rather than invalidated.
type committedTransport struct {
	executeAt timestamp.Timestamp
}

func (c committedTransport) Send(ctx context.Context, node topology.NodeID, req any) (any, error) {
	switch r := req.(type) {
	case *message.BeginRecovery:
		if node == "n1" {
			return &message.RecoveryReply{
				TxnID:          r.TxnID,
				Status:         command.Committed,
				AcceptedBallot: r.Ballot,
				ExecuteAt:      c.executeAt,
				HasExecuteAt:   true,
				Deps:           command.NewDepSet(),
			}, nil
		}
		return &message.RecoveryReply{TxnID: r.TxnID, Status: command.NotWitnessed, Deps: command.NewDepSet()}, nil
	case *message.Commit:
		return nil, nil
	default:
		return nil, nil
	}
}

func TestRecoverAdoptsCommittedOutcome(t *testing.T) {
	tm := testTopology()
	txnID := timestamp.TxnId{Timestamp: timestamp.Timestamp{Epoch: 1, HLC: 1, Node: 1}, Kind: timestamp.Write}
	rc := New("n1", tm, committedTransport{executeAt: txnID.Timestamp.Next()})

	route := keys.NewFullRoute(keys.Key("k"), keys.RoutingKeys{Keys: keys.NewKeys([]keys.Key{keys.Key("k")})}, 1)
	touched := keys.NewRanges([]keys.Range{{Start: keys.Key("a"), End: keys.Key("z")}})

	status, err := rc.Recover(context.Background(), txnID, txnID.Timestamp.Next(), route, touched)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != command.Committed {
		t.Fatalf("expected Committed, got %v", status)
	}
}
