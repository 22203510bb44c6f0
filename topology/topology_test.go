package topology

import (
	"testing"

	"github.com/maedhroz/accord/keys"
)

func r(a, b string) keys.Range { return keys.Range{Start: keys.Key(a), End: keys.Key(b)} }

func TestShardQuorumAndFastPath(t *testing.T) {
	s := NewShard(r("a", "m"), []NodeID{"n1", "n2", "n3"}, 1)
	if s.QuorumSize() != 2 {
		t.Fatalf("expected quorum 2, got %d", s.QuorumSize())
	}
	if s.RequiredFastPathSize != 2 {
		t.Fatalf("expected fast path size N-F=2, got %d", s.RequiredFastPathSize)
	}
	if !s.FastPathMet(2) || s.FastPathMet(1) {
		t.Fatalf("fast path threshold incorrect")
	}
}

func TestTopologyRangesForNode(t *testing.T) {
	top := Topology{Epoch: 1, Shards: []Shard{
		NewShard(r("a", "m"), []NodeID{"n1", "n2"}, 0),
		NewShard(r("m", "z"), []NodeID{"n2", "n3"}, 0),
	}}
	rs := top.RangesForNode("n2")
	if len(rs) != 1 || !rs[0].Start.Equal(keys.Key("a")) || !rs[0].End.Equal(keys.Key("z")) {
		t.Fatalf("expected merged [a,z) for n2, got %v", rs)
	}
}

func TestTopologyManagerEpochTagging(t *testing.T) {
	tm := NewTopologyManager()
	if err := tm.Add(Topology{Epoch: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tm.Add(Topology{Epoch: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := tm.ForEpoch(3); err != ErrEpochAhead {
		t.Fatalf("expected ErrEpochAhead, got %v", err)
	}
	if _, err := tm.ForEpoch(2); err != nil {
		t.Fatalf("unexpected error for known epoch: %v", err)
	}
}

func TestTopologyManagerAckQuorum(t *testing.T) {
	tm := NewTopologyManager()
	if tm.AckEpoch(2, 3) {
		t.Fatalf("should not be durable on first ack")
	}
	if tm.AckEpoch(2, 3) {
		t.Fatalf("should not be durable on second ack")
	}
	if !tm.AckEpoch(2, 3) {
		t.Fatalf("expected durable on third ack (quorum of 3)")
	}
}
