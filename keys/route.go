package keys

// Route is an Unseekables augmented with a designated homeKey: a single
// routing point that anchors the transaction's coordinator-of-record and
// recovery leader election (§3.2).
type Route interface {
	HomeKey() Key
	// ToMaximalUnseekables returns the route's content with homeKey
	// inserted if absent — every Route must contain its homeKey here.
	ToMaximalUnseekables() Unseekables
	// Covers reports whether every range in rs is covered by this route.
	// FullRoute always covers; PartialRoute covers iff covering ⊇ rs.
	Covers(rs Ranges) bool
	// Epoch is the topology epoch this route was computed against.
	Epoch() uint64
}

// FullRoute covers the entire touched range-set of a transaction.
type FullRoute struct {
	homeKey Key
	content Unseekables
	epoch   uint64
}

// NewFullRoute builds a FullRoute for the given home key and content,
// computed against topology epoch.
func NewFullRoute(homeKey Key, content Unseekables, epoch uint64) FullRoute {
	return FullRoute{homeKey: homeKey, content: content, epoch: epoch}
}

func (r FullRoute) HomeKey() Key   { return r.homeKey }
func (r FullRoute) Covers(Ranges) bool { return true }
func (r FullRoute) Epoch() uint64  { return r.epoch }

func (r FullRoute) ToMaximalUnseekables() Unseekables {
	return withHomeKey(r.content, r.homeKey)
}

// PartialRoute covers a sub-range of the transaction, carrying the
// `covering` ranges it was built for.
type PartialRoute struct {
	homeKey  Key
	covering Ranges
	content  Unseekables
	epoch    uint64
}

// NewPartialRoute builds a PartialRoute for the given home key, the ranges
// it covers, its content, and the topology epoch it was computed against.
func NewPartialRoute(homeKey Key, covering Ranges, content Unseekables, epoch uint64) PartialRoute {
	return PartialRoute{homeKey: homeKey, covering: covering, content: content, epoch: epoch}
}

func (r PartialRoute) HomeKey() Key  { return r.homeKey }
func (r PartialRoute) Epoch() uint64 { return r.epoch }

// Covers is true iff covering ⊇ rs.
func (r PartialRoute) Covers(rs Ranges) bool {
	return r.covering.ContainsAll(rs)
}

func (r PartialRoute) ToMaximalUnseekables() Unseekables {
	return withHomeKey(r.content, r.homeKey)
}

// successor returns the smallest Key strictly greater than k, used to build
// a single-key half-open range [k, successor(k)).
func successor(k Key) Key {
	out := make(Key, len(k)+1)
	copy(out, k)
	return out
}

func withHomeKey(content Unseekables, home Key) Unseekables {
	if content.Contains(home) {
		return content
	}
	switch c := content.(type) {
	case RoutingKeys:
		return RoutingKeys{Keys: c.Keys.Union(Keys{home})}
	case RoutingRanges:
		return RoutingRanges{Ranges: c.Ranges.Union(Ranges{{Start: home, End: successor(home)}})}
	default:
		return content
	}
}

// UnionPartialRoutes merges two PartialRoutes. Per the invariant in §3.2,
// this requires equal homeKeys; per the Open Question resolved in
// SPEC_FULL.md §4, it also requires equal epochs, since covering ranges
// from different epochs cannot be safely merged without re-slicing against
// the newer epoch's shard boundaries first.
func UnionPartialRoutes(a, b PartialRoute) (PartialRoute, error) {
	if !a.homeKey.Equal(b.homeKey) {
		return PartialRoute{}, ErrHomeKeyMismatch
	}
	if a.epoch != b.epoch {
		return PartialRoute{}, ErrCrossEpochUnion
	}
	content, err := a.content.Union(b.content)
	if err != nil {
		return PartialRoute{}, err
	}
	return PartialRoute{
		homeKey:  a.homeKey,
		covering: a.covering.Union(b.covering),
		content:  content,
		epoch:    a.epoch,
	}, nil
}
