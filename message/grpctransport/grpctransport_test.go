package grpctransport

import (
	"testing"

	"github.com/maedhroz/accord/message"
	"github.com/maedhroz/accord/timestamp"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	reg := NewRegistry()
	reg.Register("PreAccept", message.PreAccept{})

	txnID := timestamp.TxnId{Timestamp: timestamp.Timestamp{Epoch: 1, HLC: 1, Logical: 0, Node: 1}, Kind: timestamp.Write}
	req := &message.PreAccept{TxnID: txnID}

	bv, err := encodeEnvelope(req)
	if err != nil {
		t.Fatalf("encodeEnvelope: %v", err)
	}

	decoded, err := decodeEnvelope(reg, bv)
	if err != nil {
		t.Fatalf("decodeEnvelope: %v", err)
	}
	got, ok := decoded.(*message.PreAccept)
	if !ok {
		t.Fatalf("expected *message.PreAccept, got %T", decoded)
	}
	if got.TxnID != req.TxnID {
		t.Fatalf("expected matching TxnID, got %+v want %+v", got.TxnID, req.TxnID)
	}
}

func TestDecodeEnvelopeUnregisteredKindErrors(t *testing.T) {
	reg := NewRegistry()
	bv, err := encodeEnvelope(&message.PreAccept{})
	if err != nil {
		t.Fatalf("encodeEnvelope: %v", err)
	}
	if _, err := decodeEnvelope(reg, bv); err == nil {
		t.Fatalf("expected error for unregistered kind")
	}
}
