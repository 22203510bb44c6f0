package walsink

import (
	"path/filepath"
	"testing"

	"github.com/maedhroz/accord/command"
	"github.com/maedhroz/accord/timestamp"
)

func TestRecordTransitionThenFlush(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "progress")
	sink, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sink.Close()

	txnID := timestamp.TxnId{Timestamp: timestamp.Timestamp{Epoch: 1, HLC: 1, Node: 1}, Kind: timestamp.Write}
	if err := sink.RecordTransition(txnID, command.PreAccepted); err != nil {
		t.Fatalf("RecordTransition: %v", err)
	}
	if err := sink.RecordTransition(txnID, command.Committed); err != nil {
		t.Fatalf("RecordTransition: %v", err)
	}
	if err := sink.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}
