package keys

// Unseekables is the routing-only projection of a Seekables: enough to
// dispatch a message to the shards it touches, without the full data-access
// detail. Routing operates on hash-space shard boundaries, so dispatch is
// O(log n) over shard boundaries even when the underlying Seekables is a
// large key set.
type Unseekables interface {
	Kind() Kind
	Contains(k Key) bool
	Covers(rs Ranges) bool
	Union(other Unseekables) (Unseekables, error)
	Slice(rs Ranges) Unseekables
	IsEmpty() bool
}

// RoutingKeys is the routing projection of a KeySeekables.
type RoutingKeys struct{ Keys Keys }

func (u RoutingKeys) Kind() Kind    { return KeyKind }
func (u RoutingKeys) IsEmpty() bool { return len(u.Keys) == 0 }
func (u RoutingKeys) Contains(k Key) bool {
	return u.Keys.Contains(k)
}

// Covers for RoutingKeys is only true of empty ranges: a discrete key set
// has no notion of covering a non-degenerate span.
func (u RoutingKeys) Covers(rs Ranges) bool {
	for _, r := range rs {
		if !r.Start.Equal(r.End) {
			return false
		}
	}
	return true
}

func (u RoutingKeys) Union(other Unseekables) (Unseekables, error) {
	o, ok := other.(RoutingKeys)
	if !ok {
		return nil, ErrKindMismatch
	}
	return RoutingKeys{Keys: u.Keys.Union(o.Keys)}, nil
}

func (u RoutingKeys) Slice(rs Ranges) Unseekables {
	return RoutingKeys{Keys: u.Keys.Slice(rs)}
}

// RoutingRanges is the routing projection of a RangeSeekables.
type RoutingRanges struct{ Ranges Ranges }

func (u RoutingRanges) Kind() Kind            { return RangeKind }
func (u RoutingRanges) IsEmpty() bool         { return len(u.Ranges) == 0 }
func (u RoutingRanges) Contains(k Key) bool   { return u.Ranges.Contains(k) }
func (u RoutingRanges) Covers(rs Ranges) bool { return u.Ranges.ContainsAll(rs) }

func (u RoutingRanges) Union(other Unseekables) (Unseekables, error) {
	o, ok := other.(RoutingRanges)
	if !ok {
		return nil, ErrKindMismatch
	}
	return RoutingRanges{Ranges: u.Ranges.Union(o.Ranges)}, nil
}

func (u RoutingRanges) Slice(rs Ranges) Unseekables {
	return RoutingRanges{Ranges: u.Ranges.Slice(rs)}
}
