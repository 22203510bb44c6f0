package topology

import "github.com/maedhroz/accord/keys"

// Topology is an ordered set of Shards for a single epoch.
type Topology struct {
	Epoch  uint64
	Shards []Shard
}

// ShardsTouching returns every Shard whose Range overlaps any range in rs.
func (t Topology) ShardsTouching(rs keys.Ranges) []Shard {
	var out []Shard
	for _, s := range t.Shards {
		for _, r := range rs {
			if s.Range.Overlaps(r) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// ShardsTouchingKey returns every Shard whose Range contains k.
func (t Topology) ShardsTouchingKey(k keys.Key) []Shard {
	var out []Shard
	for _, s := range t.Shards {
		if s.Range.Contains(k) {
			out = append(out, s)
		}
	}
	return out
}

// RangesForNode returns the union of all Shard ranges assigning node as a
// replica — the range-set that node owns a CommandStore for in this epoch.
func (t Topology) RangesForNode(node NodeID) keys.Ranges {
	var rs []keys.Range
	for _, s := range t.Shards {
		if s.HasReplica(node) {
			rs = append(rs, s.Range)
		}
	}
	return keys.NewRanges(rs)
}

// HomeShard returns the Shard that owns homeKey, used to route
// coordination and recovery-leader messages (§3.2).
func (t Topology) HomeShard(homeKey keys.Key) (Shard, bool) {
	for _, s := range t.Shards {
		if s.Range.Contains(homeKey) {
			return s, true
		}
	}
	return Shard{}, false
}
