package timestamp

import (
	"sync/atomic"
	"time"
)

// Clock is a node-local hybrid-logical clock. It is the Go generalization
// of the teacher's atomic transaction-id counter (configs/timestamp.go's
// GetTxnID): instead of a bare incrementing uint64, Now advances the HLC
// component from wall-clock time and only falls back to the logical
// counter when two calls land in the same nanosecond, or when the clock
// must be bumped past a witnessed remote Timestamp.
type Clock struct {
	node    uint64
	hlc     uint64
	logical uint32
}

// NewClock creates a Clock for the given stable node identifier.
func NewClock(node uint64) *Clock {
	return &Clock{node: node}
}

// Now returns a fresh Timestamp for epoch, strictly greater than every
// Timestamp previously returned by this Clock.
func (c *Clock) Now(epoch uint64) Timestamp {
	wall := uint64(time.Now().UnixNano())
	for {
		prevHLC := atomic.LoadUint64(&c.hlc)
		nextHLC := wall
		var nextLogical uint32
		if nextHLC <= prevHLC {
			nextHLC = prevHLC
			nextLogical = atomic.AddUint32(&c.logical, 1)
		} else {
			atomic.StoreUint32(&c.logical, 0)
		}
		if atomic.CompareAndSwapUint64(&c.hlc, prevHLC, nextHLC) {
			return Timestamp{Epoch: epoch, HLC: nextHLC, Logical: nextLogical, Node: c.node}
		}
	}
}

// Witness advances the clock so that future calls to Now return a
// Timestamp strictly greater than observed, without assigning one itself.
// Used when a replica sees a remote Timestamp (e.g. in a PreAccept
// request) that is ahead of its own clock.
func (c *Clock) Witness(observed Timestamp) {
	for {
		prevHLC := atomic.LoadUint64(&c.hlc)
		if observed.HLC <= prevHLC {
			return
		}
		if atomic.CompareAndSwapUint64(&c.hlc, prevHLC, observed.HLC) {
			atomic.StoreUint32(&c.logical, observed.Logical)
			return
		}
	}
}
