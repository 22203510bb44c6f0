// Package timestamp implements the hybrid-logical timestamps that order
// every transaction in the protocol: Timestamp, TxnId, and Ballot.
package timestamp

import "fmt"

// Timestamp is the tuple (epoch, hlc, logical, node). Ordering is
// lexicographic over those fields and is total over all timestamps.
type Timestamp struct {
	Epoch   uint64
	HLC     uint64
	Logical uint32
	Node    uint64
}

// Zero is the smallest possible Timestamp, never assigned to a real event.
var Zero = Timestamp{}

// Less reports whether ts sorts strictly before other.
func (ts Timestamp) Less(other Timestamp) bool {
	if ts.Epoch != other.Epoch {
		return ts.Epoch < other.Epoch
	}
	if ts.HLC != other.HLC {
		return ts.HLC < other.HLC
	}
	if ts.Logical != other.Logical {
		return ts.Logical < other.Logical
	}
	return ts.Node < other.Node
}

// Equal reports whether ts and other identify the same instant.
func (ts Timestamp) Equal(other Timestamp) bool {
	return ts == other
}

// LessOrEqual reports whether ts sorts at or before other.
func (ts Timestamp) LessOrEqual(other Timestamp) bool {
	return ts.Equal(other) || ts.Less(other)
}

// Max returns the later of ts and other.
func Max(ts, other Timestamp) Timestamp {
	if other.Less(ts) {
		return ts
	}
	return other
}

// WithEpoch returns a copy of ts with the epoch field replaced.
func (ts Timestamp) WithEpoch(epoch uint64) Timestamp {
	ts.Epoch = epoch
	return ts
}

// Next returns the smallest Timestamp strictly greater than ts that still
// shares ts's node, incrementing the logical counter. Used when a PreAccept
// reply must witness an executeAt strictly after a conflicting command, and
// to pick a strictly higher ballot on an Accept retry.
func (ts Timestamp) Next() Timestamp {
	ts.Logical++
	return ts
}

func (ts Timestamp) String() string {
	return fmt.Sprintf("%d.%d.%d@%d", ts.Epoch, ts.HLC, ts.Logical, ts.Node)
}
