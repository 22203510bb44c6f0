package topology

import (
	"errors"
	"sync/atomic"
)

// ErrEpochBehind is returned when a caller addresses an epoch this
// TopologyManager has already superseded and durably acknowledged.
var ErrEpochBehind = errors.New("topology: epoch behind current durable epoch")

// ErrEpochAhead is returned when a caller addresses an epoch this
// TopologyManager does not yet know about; the caller should buffer the
// request until it catches up (§6.1).
var ErrEpochAhead = errors.New("topology: epoch ahead of known topologies")

// ErrEpochUnknown is returned when a specific historical epoch has been
// evicted or was never recorded.
var ErrEpochUnknown = errors.New("topology: epoch not found")

// TopologyManager keeps the sequence of Topologies the node knows about.
// The table is a copy-on-write sequence (§5): readers take a stable
// snapshot via Current/ForEpoch and never observe a torn update.
type TopologyManager struct {
	snapshot atomic.Pointer[snapshotState]
}

type snapshotState struct {
	topologies []Topology // ordered by Epoch ascending
	acked      map[uint64]int
}

// NewTopologyManager creates an empty TopologyManager; call Add for the
// first epoch before use.
func NewTopologyManager() *TopologyManager {
	tm := &TopologyManager{}
	tm.snapshot.Store(&snapshotState{acked: map[uint64]int{}})
	return tm
}

// Add records a new Topology. Epochs must be added in strictly increasing
// order.
func (tm *TopologyManager) Add(t Topology) error {
	for {
		old := tm.snapshot.Load()
		if len(old.topologies) > 0 && t.Epoch <= old.topologies[len(old.topologies)-1].Epoch {
			return errors.New("topology: epochs must be added in increasing order")
		}
		next := &snapshotState{
			topologies: append(append([]Topology{}, old.topologies...), t),
			acked:      cloneAcked(old.acked),
		}
		if tm.snapshot.CompareAndSwap(old, next) {
			return nil
		}
	}
}

func cloneAcked(m map[uint64]int) map[uint64]int {
	out := make(map[uint64]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Current returns the most recent Topology known to this node.
func (tm *TopologyManager) Current() (Topology, bool) {
	s := tm.snapshot.Load()
	if len(s.topologies) == 0 {
		return Topology{}, false
	}
	return s.topologies[len(s.topologies)-1], true
}

// ForEpoch returns the Topology for a specific epoch, or an error
// classifying why it is unavailable, per §6.1's epoch-tagging rule:
// a replica at an earlier epoch buffers (ErrEpochAhead from the replica's
// point of view means it hasn't caught up — callers map this to "buffer");
// a replica at a later epoch rejects with ErrEpochBehind so the sender can
// re-route.
func (tm *TopologyManager) ForEpoch(epoch uint64) (Topology, error) {
	s := tm.snapshot.Load()
	if len(s.topologies) == 0 {
		return Topology{}, ErrEpochAhead
	}
	oldest, newest := s.topologies[0].Epoch, s.topologies[len(s.topologies)-1].Epoch
	if epoch > newest {
		return Topology{}, ErrEpochAhead
	}
	if epoch < oldest {
		return Topology{}, ErrEpochBehind
	}
	for _, t := range s.topologies {
		if t.Epoch == epoch {
			return t, nil
		}
	}
	return Topology{}, ErrEpochUnknown
}

// AckEpoch records that one replica of epoch-1 has acknowledged epoch.
// Epoch E becomes durable once a quorum of E-1's replicas (for every
// shard, conservatively tracked here as a single counter per epoch since
// the teacher's own participant bootstrap is single-shard-per-node in
// practice) has acknowledged it.
func (tm *TopologyManager) AckEpoch(epoch uint64, quorum int) (durable bool) {
	for {
		old := tm.snapshot.Load()
		next := &snapshotState{
			topologies: old.topologies,
			acked:      cloneAcked(old.acked),
		}
		next.acked[epoch]++
		durable = next.acked[epoch] >= quorum
		if tm.snapshot.CompareAndSwap(old, next) {
			return durable
		}
	}
}
