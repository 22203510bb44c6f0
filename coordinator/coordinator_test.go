package coordinator

import (
	"context"
	"testing"

	"github.com/maedhroz/accord/command"
	"github.com/maedhroz/accord/keys"
	"github.com/maedhroz/accord/message"
	"github.com/maedhroz/accord/timestamp"
	"github.com/maedhroz/accord/topology"
)

// fakeTransport answers PreAccept/Accept/Commit/Read/Apply requests with
// an immediate, always-successful reply carrying the request's own
// TxnID timestamp as witnessedExecuteAt, simulating the fast path.
type fakeTransport struct{}

func (fakeTransport) Send(ctx context.Context, node topology.NodeID, req any) (any, error) {
	switch r := req.(type) {
	case *message.PreAccept:
		return &message.PreAcceptOk{TxnID: r.TxnID, WitnessedExecuteAt: r.TxnID.Timestamp, Deps: command.NewDepSet()}, nil
	case *message.Accept:
		return &message.AcceptOk{TxnID: r.TxnID, Deps: r.Deps}, nil
	case *message.Commit:
		return nil, nil
	case *message.Read:
		return &message.ReadOk{TxnID: r.TxnID, Values: map[string][]byte{"k": []byte("v")}}, nil
	case *message.Apply:
		return &message.ApplyOk{TxnID: r.TxnID}, nil
	default:
		return nil, nil
	}
}

func testTopology() *topology.TopologyManager {
	tm := topology.NewTopologyManager()
	shard := topology.NewShard(keys.Range{Start: keys.Key("a"), End: keys.Key("z")}, []topology.NodeID{"n1", "n2", "n3"}, 1)
	tm.Add(topology.Topology{Epoch: 1, Shards: []topology.Shard{shard}})
	return tm
}

func TestCoordinatorFastPathExecute(t *testing.T) {
	tm := testTopology()
	clock := timestamp.NewClock(1)
	co := New("n1", clock, tm, fakeTransport{})

	route := keys.NewFullRoute(keys.Key("k"), keys.RoutingKeys{Keys: keys.NewKeys([]keys.Key{keys.Key("k")})}, 1)
	touched := keys.NewRanges([]keys.Range{{Start: keys.Key("a"), End: keys.Key("z")}})

	result, err := co.Execute(context.Background(), 1, route, touched, timestamp.Write, keys.NewKeys([]keys.Key{keys.Key("k")}),
		func(values map[string][]byte) (command.Writes, command.Result) {
			return command.Writes{"k": values["k"]}, command.Result(values["k"])
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != "v" {
		t.Fatalf("expected result v, got %s", result)
	}
}

// nackTransport always rejects PreAccept, forcing ErrNack.
type nackTransport struct{}

func (nackTransport) Send(ctx context.Context, node topology.NodeID, req any) (any, error) {
	if r, ok := req.(*message.PreAccept); ok {
		return &message.PreAcceptNack{TxnID: r.TxnID}, nil
	}
	return nil, nil
}

func TestCoordinatorPreAcceptNackPropagates(t *testing.T) {
	tm := testTopology()
	clock := timestamp.NewClock(1)
	co := New("n1", clock, tm, nackTransport{})

	route := keys.NewFullRoute(keys.Key("k"), keys.RoutingKeys{Keys: keys.NewKeys([]keys.Key{keys.Key("k")})}, 1)
	touched := keys.NewRanges([]keys.Range{{Start: keys.Key("a"), End: keys.Key("z")}})

	_, err := co.PreAccept(context.Background(), timestamp.TxnId{Timestamp: clock.Now(1), Kind: timestamp.Write}, route, touched)
	if err != ErrNack {
		t.Fatalf("expected ErrNack, got %v", err)
	}
}
