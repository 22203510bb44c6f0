package keys

import "sort"

// Keys is a sorted, deduplicated set of Key. All constructors and
// operations in this file preserve that invariant.
type Keys []Key

// NewKeys sorts and deduplicates ks into a Keys.
func NewKeys(ks []Key) Keys {
	cp := make(Keys, len(ks))
	copy(cp, ks)
	sort.Slice(cp, func(i, j int) bool { return cp[i].Less(cp[j]) })
	return dedupeSorted(cp)
}

func dedupeSorted(sorted Keys) Keys {
	if len(sorted) == 0 {
		return sorted
	}
	out := sorted[:1]
	for _, k := range sorted[1:] {
		if !out[len(out)-1].Equal(k) {
			out = append(out, k)
		}
	}
	return out
}

// Contains reports whether k is a member, via binary search.
func (ks Keys) Contains(k Key) bool {
	i := sort.Search(len(ks), func(i int) bool { return !ks[i].Less(k) })
	return i < len(ks) && ks[i].Equal(k)
}

// Slice returns the subset of ks intersecting rs.
func (ks Keys) Slice(rs Ranges) Keys {
	if len(ks) == 0 || len(rs) == 0 {
		return nil
	}
	var out Keys
	ri := 0
	for _, k := range ks {
		for ri < len(rs) && rs[ri].End.LessOrEqual(k) {
			ri++
		}
		if ri < len(rs) && rs[ri].Contains(k) {
			out = append(out, k)
		}
	}
	return out
}

// Union merges a and b, returning a new sorted, deduplicated Keys. If b is
// empty, a is returned unchanged (identity, per §4.1).
func (a Keys) Union(b Keys) Keys {
	if len(b) == 0 {
		return a
	}
	if len(a) == 0 {
		return b
	}
	out := make(Keys, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Less(b[j]):
			out = append(out, a[i])
			i++
		case b[j].Less(a[i]):
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
