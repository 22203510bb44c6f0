package timestamp

import "testing"

func TestTimestampOrdering(t *testing.T) {
	a := Timestamp{Epoch: 1, HLC: 10, Node: 1}
	b := Timestamp{Epoch: 1, HLC: 20, Node: 1}
	if !a.Less(b) {
		t.Fatalf("expected %v < %v", a, b)
	}
	if b.Less(a) {
		t.Fatalf("expected %v !< %v", b, a)
	}
	if !a.LessOrEqual(a) {
		t.Fatalf("expected reflexive LessOrEqual")
	}
}

func TestTimestampEpochDominates(t *testing.T) {
	older := Timestamp{Epoch: 2, HLC: 1_000_000}
	newer := Timestamp{Epoch: 1, HLC: 1}
	if !newer.Less(older) {
		t.Fatalf("epoch should dominate hlc in ordering")
	}
}

func TestClockMonotonic(t *testing.T) {
	c := NewClock(7)
	prev := c.Now(1)
	for i := 0; i < 1000; i++ {
		next := c.Now(1)
		if !prev.Less(next) {
			t.Fatalf("clock went backwards or stalled: %v -> %v", prev, next)
		}
		prev = next
	}
}

func TestClockWitnessAdvances(t *testing.T) {
	c := NewClock(1)
	future := Timestamp{HLC: ^uint64(0) - 1, Logical: 5}
	c.Witness(future)
	next := c.Now(0)
	if !future.Less(next) {
		t.Fatalf("expected Now() to advance past witnessed timestamp, got %v", next)
	}
}

func TestTxnIdOrderingTieBreaksOnKind(t *testing.T) {
	ts := Timestamp{Epoch: 1, HLC: 5, Node: 1}
	a := TxnId{Timestamp: ts, Kind: Read}
	b := TxnId{Timestamp: ts, Kind: Write}
	if !a.Less(b) {
		t.Fatalf("expected Read < Write at equal timestamp")
	}
	if a.Equal(b) {
		t.Fatalf("different kinds must not be equal")
	}
}
