package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsSingleNodeInMemory(t *testing.T) {
	cfg := Default()
	if cfg.DataStore != "mem" {
		t.Fatalf("expected default datastore mem, got %q", cfg.DataStore)
	}
	if cfg.NumberOfShards != 1 || cfg.NumberOfReplicas != 1 {
		t.Fatalf("expected single shard/replica defaults, got %+v", cfg)
	}
}

func TestLoadOverlaysPropertiesOntoDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "accord.properties")
	contents := "node.id=n2\n" +
		"listen.addr=127.0.0.1:6001\n" +
		"topology.shards=3\n" +
		"datastore.kind=postgres\n" +
		"datastore.dsn=postgres://localhost/accord\n" +
		"progresslog.timeout=2s\n" +
		"log.debug=true\n" +
		"peer.n1=127.0.0.1:5001\n" +
		"peer.n3=127.0.0.1:5003\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write properties: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NodeID != "n2" {
		t.Fatalf("expected node.id n2, got %q", cfg.NodeID)
	}
	if cfg.NumberOfShards != 3 {
		t.Fatalf("expected 3 shards, got %d", cfg.NumberOfShards)
	}
	if cfg.DataStore != "postgres" || cfg.DataStoreDSN != "postgres://localhost/accord" {
		t.Fatalf("unexpected datastore config: %+v", cfg)
	}
	if cfg.ProgressLogTimeout != 2*time.Second {
		t.Fatalf("expected 2s progresslog timeout, got %v", cfg.ProgressLogTimeout)
	}
	if !cfg.Debug {
		t.Fatalf("expected log.debug=true to enable Debug")
	}
	if cfg.Peers["n1"] != "127.0.0.1:5001" || cfg.Peers["n3"] != "127.0.0.1:5003" {
		t.Fatalf("unexpected peers: %+v", cfg.Peers)
	}
	// unset keys keep Default()'s value
	if cfg.ProgressLogSweepEvery != Default().ProgressLogSweepEvery {
		t.Fatalf("expected unset sweep_every to keep default")
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.properties")); err == nil {
		t.Fatalf("expected error loading missing file")
	}
}
