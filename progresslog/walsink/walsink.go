// Package walsink is the reference (non-core, test-tooling) persistence
// adapter for §6.3: it appends every Command status transition a
// progresslog.Log observes to a github.com/tidwall/wal segment log. This is
// explicitly NOT the durable-log format the spec calls a non-goal — it is a
// swappable sink behind progresslog.Sink, used only by tests; the
// simulation harness does not wire it in.
//
// Grounded on the teacher's storage/log_manager.go LogManager: the same
// wal.Log + wal.Batch pair, and the periodic-flush idiom of
// localBatchSyncLogger, generalized from a fixed-interval flush to one
// batch per Flush call (the harness decides cadence).
package walsink

import (
	"sync"

	gojson "github.com/goccy/go-json"
	"github.com/tidwall/wal"

	"github.com/maedhroz/accord/command"
)

// entry is the JSON shape appended for every transition, analogous to the
// teacher's TxnLogEntry{TID, State}.
type entry struct {
	TxnID  string `json:"txn_id"`
	Status uint8  `json:"status"`
}

// Sink appends transitions to a wal.Log, batching writes until Flush.
type Sink struct {
	mu    sync.Mutex
	log   *wal.Log
	batch *wal.Batch
	index uint64
}

// Open creates or reopens a wal.Log rooted at dir.
func Open(dir string) (*Sink, error) {
	log, err := wal.Open(dir, nil)
	if err != nil {
		return nil, err
	}
	last, err := log.LastIndex()
	if err != nil {
		return nil, err
	}
	return &Sink{log: log, batch: &wal.Batch{}, index: last}, nil
}

// RecordTransition implements progresslog.Sink.
func (s *Sink) RecordTransition(txnID command.ID, status command.Status) error {
	data, err := gojson.Marshal(entry{TxnID: txnID.String(), Status: uint8(status)})
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index++
	s.batch.Write(s.index, data)
	return nil
}

// Flush persists every batched transition since the last Flush, mirroring
// the teacher's localBatchSyncLogger's periodic `logs.WriteBatch(buffer)`.
func (s *Sink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.log.WriteBatch(s.batch); err != nil {
		return err
	}
	s.batch.Clear()
	return nil
}

// Close flushes and releases the underlying log file.
func (s *Sink) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	return s.log.Close()
}
