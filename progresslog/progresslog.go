// Package progresslog implements §4.6: a per-CommandStore timer wheel keyed
// by TxnId. Every status change reschedules the command's deadline; when a
// deadline fires while the command is still below Committed, the log
// escalates — to Recovery if this store owns the transaction's homeKey
// shard, or to a re-send of the current phase otherwise.
//
// Grounded on the teacher's storage/log_manager.go LogManager: the periodic
// `select { case <-time.After(...): ...}` sweep loop and its mutex-guarded
// map of pending state are kept, generalized from a single global WAL
// flush interval to a per-command deadline sweep.
package progresslog

import (
	"context"
	"sync"
	"time"

	"github.com/maedhroz/accord/command"
)

// Sink persists every status transition the log observes, independent of
// the liveness sweep itself (§6.3's reference adapter is progresslog/walsink;
// production deployments may leave Sink nil).
type Sink interface {
	RecordTransition(txnID command.ID, status command.Status) error
}

// Escalator reacts to a command stalled below Committed past its deadline.
type Escalator interface {
	// EscalateHome is called when this store owns the stalled TxnId's homeKey
	// shard: it should begin Recovery.
	EscalateHome(txnID command.ID)
	// EscalateRemote is called on every other shard: it should re-send the
	// current phase's message rather than initiate Recovery itself.
	EscalateRemote(txnID command.ID)
}

type entry struct {
	status    command.Status
	deadline  time.Time
	homeShard bool
}

// Log is one CommandStore's timer wheel.
type Log struct {
	mu      sync.Mutex
	entries map[command.ID]*entry

	timeout time.Duration
	sink    Sink
	esc     Escalator
}

// New creates a Log that reschedules deadlines timeout in the future on
// every Record call, reports stalls to esc, and optionally persists every
// transition to sink.
func New(timeout time.Duration, esc Escalator, sink Sink) *Log {
	return &Log{
		entries: map[command.ID]*entry{},
		timeout: timeout,
		sink:    sink,
		esc:     esc,
	}
}

// Record reschedules txnID's deadline following a status change, per §4.6.
// homeShard tells the log whether this store owns txnID's homeKey shard,
// which determines how a future stall on this entry escalates. Once status
// is terminal the entry is dropped — a terminal command needs no further
// liveness nudging.
func (l *Log) Record(txnID command.ID, status command.Status, homeShard bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if status.IsTerminal() {
		delete(l.entries, txnID)
	} else {
		l.entries[txnID] = &entry{status: status, deadline: time.Now().Add(l.timeout), homeShard: homeShard}
	}
	if l.sink != nil {
		_ = l.sink.RecordTransition(txnID, status)
	}
}

// Forget drops txnID without recording a transition, used once a command
// has been evicted from its CommandStore.
func (l *Log) Forget(txnID command.ID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, txnID)
}

// Run drives the sweep loop until ctx is done, mirroring the teacher's
// localBatchSyncLogger select loop but on a fixed sweep interval instead of
// being keyed to the WAL's own batching cadence.
func (l *Log) Run(ctx context.Context, sweepEvery time.Duration) {
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-ctx.Done():
			return
		}
	}
}

func (l *Log) sweep() {
	now := time.Now()
	var home, remote []command.ID
	l.mu.Lock()
	for txnID, e := range l.entries {
		if e.status >= command.Committed {
			continue
		}
		if now.After(e.deadline) {
			if e.homeShard {
				home = append(home, txnID)
			} else {
				remote = append(remote, txnID)
			}
		}
	}
	l.mu.Unlock()
	if l.esc == nil {
		return
	}
	for _, txnID := range home {
		l.esc.EscalateHome(txnID)
	}
	for _, txnID := range remote {
		l.esc.EscalateRemote(txnID)
	}
}
