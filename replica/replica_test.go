package replica

import (
	"testing"

	"github.com/maedhroz/accord/command"
	"github.com/maedhroz/accord/datastore/memstore"
	"github.com/maedhroz/accord/keys"
	"github.com/maedhroz/accord/message"
	"github.com/maedhroz/accord/timestamp"
)

func noConflicts(*command.Safe, message.ID) command.DepSet {
	return command.NewDepSet()
}

func TestPreAcceptThenCommitThenApply(t *testing.T) {
	clock := timestamp.NewClock(1)
	node := NewNode("n1", clock)
	store := command.NewStore(0, nil)
	data := memstore.New()
	node.AddStore(store, data)

	txnID := timestamp.TxnId{Timestamp: clock.Now(1), Kind: timestamp.Write}
	req := &message.PreAccept{TxnID: txnID}
	ok, nack := node.HandlePreAccept(0, req, noConflicts)
	if nack != nil {
		t.Fatalf("unexpected nack: %+v", nack)
	}
	if !ok.WitnessedExecuteAt.Equal(txnID.Timestamp) {
		t.Fatalf("expected witnessedExecuteAt == txnID for no conflicts")
	}

	node.HandleCommit(0, &message.Commit{TxnID: txnID, ExecuteAt: ok.WitnessedExecuteAt, Deps: command.NewDepSet()})

	readOk, readNack := node.HandleRead(0, &message.Read{TxnID: txnID, Keys: keys.NewKeys([]keys.Key{keys.Key("k")})})
	if readNack != nil {
		t.Fatalf("unexpected read nack: %+v", readNack)
	}
	if readOk == nil {
		t.Fatalf("expected read ok")
	}

	applyOk, nack := node.HandleApply(0, &message.Apply{TxnID: txnID, Writes: command.Writes{"k": []byte("v")}})
	if nack != nil {
		t.Fatalf("unexpected apply nack: %+v", nack)
	}
	if applyOk.TxnID != txnID {
		t.Fatalf("expected matching txnID in ApplyOk")
	}
	persisted, err := data.Read([][]byte{[]byte("k")})
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	if string(persisted["k"]) != "v" {
		t.Fatalf("expected write applied to data store")
	}
}

func TestPreAcceptNacksOnceBeyondPreAccepted(t *testing.T) {
	clock := timestamp.NewClock(1)
	node := NewNode("n1", clock)
	store := command.NewStore(0, nil)
	node.AddStore(store, memstore.New())

	txnID := timestamp.TxnId{Timestamp: clock.Now(1), Kind: timestamp.Write}
	node.HandleAccept(0, &message.Accept{TxnID: txnID, Ballot: txnID.Timestamp, Deps: command.NewDepSet()})

	_, nack := node.HandlePreAccept(0, &message.PreAccept{TxnID: txnID}, noConflicts)
	if nack == nil {
		t.Fatalf("expected nack since command is already Accepted")
	}
}

func TestCommitToColdCommandStopsAtPreCommitted(t *testing.T) {
	clock := timestamp.NewClock(1)
	node := NewNode("n1", clock)
	store := command.NewStore(0, nil)
	node.AddStore(store, memstore.New())

	txnID := timestamp.TxnId{Timestamp: clock.Now(1), Kind: timestamp.Write}
	commitReq := &message.Commit{TxnID: txnID, ExecuteAt: txnID.Timestamp, Deps: command.NewDepSet()}

	node.HandleCommit(0, commitReq)
	_ = store.Execute(func(safe *command.Safe) error {
		cmd, _ := safe.Peek(txnID)
		if cmd.Status() != command.PreCommitted {
			t.Fatalf("expected a cold command to stop at PreCommitted after one Commit, got %v", cmd.Status())
		}
		return nil
	})

	node.HandleCommit(0, commitReq)
	_ = store.Execute(func(safe *command.Safe) error {
		cmd, _ := safe.Peek(txnID)
		if cmd.Status() != command.Committed {
			t.Fatalf("expected the second Commit to reach Committed, got %v", cmd.Status())
		}
		return nil
	})
}

func TestApplyBeforeCommitIsNacked(t *testing.T) {
	clock := timestamp.NewClock(1)
	node := NewNode("n1", clock)
	store := command.NewStore(0, nil)
	data := memstore.New()
	node.AddStore(store, data)

	txnID := timestamp.TxnId{Timestamp: clock.Now(1), Kind: timestamp.Write}
	ok, _ := node.HandlePreAccept(0, &message.PreAccept{TxnID: txnID}, noConflicts)

	applyOk, nack := node.HandleApply(0, &message.Apply{TxnID: txnID, ExecuteAt: ok.WitnessedExecuteAt, Writes: command.Writes{"k": []byte("v")}})
	if nack == nil {
		t.Fatalf("expected a nack for Apply delivered before Commit")
	}
	if applyOk != nil {
		t.Fatalf("expected no ApplyOk alongside a nack")
	}
	if nack.CurrentStatus != command.PreAccepted {
		t.Fatalf("expected nack to report PreAccepted, got %v", nack.CurrentStatus)
	}
	if persisted, _ := data.Read([][]byte{[]byte("k")}); persisted["k"] != nil {
		t.Fatalf("expected the write to not be persisted before Commit")
	}
}

func TestInvalidateRejectedOncePastAccepted(t *testing.T) {
	clock := timestamp.NewClock(1)
	node := NewNode("n1", clock)
	store := command.NewStore(0, nil)
	node.AddStore(store, memstore.New())

	txnID := timestamp.TxnId{Timestamp: clock.Now(1), Kind: timestamp.Write}
	commitReq := &message.Commit{TxnID: txnID, ExecuteAt: txnID.Timestamp, Deps: command.NewDepSet()}
	node.HandleCommit(0, commitReq) // NotWitnessed -> PreCommitted
	node.HandleCommit(0, commitReq) // PreCommitted -> Committed
	node.HandleInvalidate(0, &message.Invalidate{TxnID: txnID})

	_ = store.Execute(func(safe *command.Safe) error {
		cmd, _ := safe.Peek(txnID)
		if cmd.Status() != command.Committed {
			t.Fatalf("expected invalidate to be a no-op once Committed, got %v", cmd.Status())
		}
		return nil
	})
}
