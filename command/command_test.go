package command

import (
	"testing"

	"github.com/maedhroz/accord/timestamp"
)

func txnID(hlc uint64) ID {
	return ID{Timestamp: timestamp.Timestamp{Epoch: 1, HLC: hlc, Node: 1}, Kind: timestamp.Write}
}

func TestStatusMonotonicProgression(t *testing.T) {
	c := New(txnID(1))
	if c.Status() != NotWitnessed {
		t.Fatalf("expected NotWitnessed at creation")
	}
	if !c.WitnessPreAccept(txnID(1).Timestamp, NewDepSet()) {
		t.Fatalf("PreAccept should succeed from NotWitnessed")
	}
	if c.Status() != PreAccepted {
		t.Fatalf("expected PreAccepted, got %v", c.Status())
	}
	if !c.WitnessCommit(txnID(1).Timestamp, NewDepSet(), nil) {
		t.Fatalf("Commit should succeed from PreAccepted")
	}
	if c.Status() != Committed {
		t.Fatalf("expected Committed, got %v", c.Status())
	}
}

func TestInvalidateOnlyFromAcceptedOrEarlier(t *testing.T) {
	c := New(txnID(1))
	c.WitnessCommit(txnID(1).Timestamp, NewDepSet(), nil) // NotWitnessed -> PreCommitted
	c.WitnessCommit(txnID(1).Timestamp, NewDepSet(), nil) // PreCommitted -> Committed
	if c.WitnessInvalidate() {
		t.Fatalf("expected Invalidate to fail once Committed")
	}

	c2 := New(txnID(2))
	if !c2.WitnessInvalidate() {
		t.Fatalf("expected Invalidate to succeed from NotWitnessed")
	}
}

func TestColdCommitStopsAtPreCommitted(t *testing.T) {
	c := New(txnID(1))
	if !c.WitnessCommit(txnID(1).Timestamp, NewDepSet(), nil) {
		t.Fatalf("Commit should succeed from NotWitnessed")
	}
	if c.Status() != PreCommitted {
		t.Fatalf("expected a cold command to stop at PreCommitted, got %v", c.Status())
	}
	if !c.WitnessCommit(txnID(1).Timestamp, NewDepSet(), nil) {
		t.Fatalf("second Commit should succeed from PreCommitted")
	}
	if c.Status() != Committed {
		t.Fatalf("expected the second Commit to reach Committed, got %v", c.Status())
	}
}

func TestCommitIsImmutable(t *testing.T) {
	c := New(txnID(1))
	firstExecuteAt := timestamp.Timestamp{Epoch: 1, HLC: 5, Node: 1}
	c.WitnessCommit(firstExecuteAt, NewDepSet(txnID(9)), nil)

	// A later, different Commit must not change executeAt/deps, even
	// across the PreCommitted -> Committed step.
	laterExecuteAt := timestamp.Timestamp{Epoch: 1, HLC: 50, Node: 1}
	c.WitnessCommit(laterExecuteAt, NewDepSet(txnID(99)), nil)

	got, _ := c.ExecuteAt()
	if !got.Equal(firstExecuteAt) {
		t.Fatalf("expected executeAt to stay %v, got %v", firstExecuteAt, got)
	}
	if !c.Deps().Contains(txnID(9)) || c.Deps().Contains(txnID(99)) {
		t.Fatalf("expected deps to stay at first Commit's value")
	}
}

func TestAcceptRejectsLowerBallot(t *testing.T) {
	c := New(txnID(1))
	high := timestamp.Timestamp{Epoch: 1, HLC: 100, Node: 1}
	low := timestamp.Timestamp{Epoch: 1, HLC: 10, Node: 1}
	if !c.WitnessAccept(high, high, NewDepSet()) {
		t.Fatalf("expected first accept to succeed")
	}
	if c.WitnessAccept(low, low, NewDepSet()) {
		t.Fatalf("expected accept with lower ballot to be rejected")
	}
}

func TestIdempotentRedelivery(t *testing.T) {
	c := New(txnID(1))
	c.WitnessPreAccept(txnID(1).Timestamp, NewDepSet())
	if !c.WitnessPreAccept(txnID(1).Timestamp, NewDepSet()) {
		t.Fatalf("expected idempotent re-delivery of PreAccept to succeed")
	}
	if c.Status() != PreAccepted {
		t.Fatalf("status should be unchanged by re-delivery")
	}
}

func TestListenerNotifiedOnStatusChange(t *testing.T) {
	store := NewStore(0, nil)
	var notified Status
	err := store.Execute(func(safe *Safe) error {
		dep := safe.Command(txnID(1))
		dependent := safe.Command(txnID(2))
		dependent.WitnessCommit(txnID(2).Timestamp, NewDepSet(txnID(1)), nil) // NotWitnessed -> PreCommitted
		dependent.WitnessCommit(txnID(2).Timestamp, NewDepSet(txnID(1)), nil) // PreCommitted -> Committed
		safe.RegisterDependencyListeners(dependent)
		dep.WitnessCommit(txnID(1).Timestamp, NewDepSet(), nil) // NotWitnessed -> PreCommitted
		dep.WitnessCommit(txnID(1).Timestamp, NewDepSet(), nil) // PreCommitted -> Committed
		dep.WitnessApply(nil, nil)
		notified = dependent.Status()
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notified != ReadyToExecute {
		t.Fatalf("expected dependent to reach ReadyToExecute, got %v", notified)
	}
}

func TestStoreHaltsOnInvariantViolation(t *testing.T) {
	store := NewStore(0, nil)
	err := store.Execute(func(safe *Safe) error {
		Invariant(false, "boom")
		return nil
	})
	if err == nil {
		t.Fatalf("expected invariant violation error")
	}
	if !store.IsHalted() {
		t.Fatalf("expected store to be halted")
	}
	err2 := store.Execute(func(safe *Safe) error { return nil })
	if err2 != err {
		t.Fatalf("expected halted store to keep returning the same error")
	}
}
