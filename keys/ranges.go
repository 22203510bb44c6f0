package keys

import (
	"fmt"
	"sort"
)

// Ranges is a sorted, non-overlapping sequence of Range. Construction
// merges any overlapping or adjacent input ranges.
type Ranges []Range

// NewRanges sorts rs by Start and merges overlapping/adjacent ranges.
func NewRanges(rs []Range) Ranges {
	if len(rs) == 0 {
		return nil
	}
	cp := make(Ranges, len(rs))
	copy(cp, rs)
	sort.Slice(cp, func(i, j int) bool { return cp[i].CompareStart(cp[j]) < 0 })
	out := make(Ranges, 0, len(cp))
	cur := cp[0]
	for _, r := range cp[1:] {
		if r.Start.LessOrEqual(cur.End) {
			if cur.End.Less(r.End) {
				cur.End = r.End
			}
			continue
		}
		out = append(out, cur)
		cur = r
	}
	out = append(out, cur)
	return out
}

// Contains reports whether k falls within any range in rs, via binary
// search over the sorted End boundary.
func (rs Ranges) Contains(k Key) bool {
	i := sort.Search(len(rs), func(i int) bool { return k.Less(rs[i].End) })
	return i < len(rs) && rs[i].Contains(k)
}

// ContainsAll reports whether every range in other is covered by some
// (possibly merged) span of rs — i.e. rs ⊇ other.
func (rs Ranges) ContainsAll(other Ranges) bool {
	for _, want := range other {
		if !rs.covers(want) {
			return false
		}
	}
	return true
}

func (rs Ranges) covers(want Range) bool {
	i := sort.Search(len(rs), func(i int) bool { return want.Start.Less(rs[i].End) })
	return i < len(rs) && rs[i].Start.LessOrEqual(want.Start) && want.End.LessOrEqual(rs[i].End)
}

// Slice returns the subset of rs intersecting other.
func (rs Ranges) Slice(other Ranges) Ranges {
	if len(rs) == 0 || len(other) == 0 {
		return nil
	}
	var out []Range
	i, j := 0, 0
	for i < len(rs) && j < len(other) {
		a, b := rs[i], other[j]
		if a.Overlaps(b) {
			start := a.Start
			if b.Start.Less(start) == false && b.Start.Compare(start) > 0 {
				start = b.Start
			}
			end := a.End
			if b.End.Less(end) {
				end = b.End
			}
			out = append(out, Range{Start: start, End: end})
		}
		if a.End.Less(b.End) {
			i++
		} else {
			j++
		}
	}
	return NewRanges(out)
}

// Union merges a and b into a new sorted, non-overlapping Ranges. If b is
// empty, a is returned unchanged (identity, per §4.1).
func (a Ranges) Union(b Ranges) Ranges {
	if len(b) == 0 {
		return a
	}
	if len(a) == 0 {
		return b
	}
	merged := make([]Range, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	return NewRanges(merged)
}

func (rs Ranges) String() string {
	return fmt.Sprintf("%v", []Range(rs))
}
