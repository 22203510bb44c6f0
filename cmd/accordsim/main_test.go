package main

import (
	"context"
	"testing"

	"github.com/maedhroz/accord/config"
)

func TestSimulationRunsTransactionsToCompletion(t *testing.T) {
	cfg := config.Default()
	cfg.NumberOfShards = 1
	cfg.NumberOfReplicas = 3

	sim, err := newSimulation(cfg)
	if err != nil {
		t.Fatalf("newSimulation: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 20; i++ {
		if err := sim.runOneTxn(ctx, i); err != nil {
			t.Fatalf("runOneTxn(%d): %v", i, err)
		}
	}
}

func TestLocalTransportRejectsUnknownNode(t *testing.T) {
	lt := &localTransport{}
	if _, err := lt.Send(context.Background(), "missing", nil); err == nil {
		t.Fatalf("expected an error for an unknown node")
	}
}
