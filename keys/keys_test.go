package keys

import "testing"

func k(s string) Key { return Key(s) }

func TestKeysUnionSortedDeduped(t *testing.T) {
	a := NewKeys([]Key{k("b"), k("a"), k("d")})
	b := NewKeys([]Key{k("c"), k("a")})
	u := a.Union(b)
	want := []string{"a", "b", "c", "d"}
	if len(u) != len(want) {
		t.Fatalf("got %v want %v", u, want)
	}
	for i, w := range want {
		if u[i].String() != w {
			t.Fatalf("index %d: got %s want %s", i, u[i], w)
		}
	}
}

func TestKeysUnionIdentity(t *testing.T) {
	a := NewKeys([]Key{k("a"), k("b")})
	u := a.Union(nil)
	if &u[0] != &a[0] {
		t.Fatalf("expected identity union to return the same backing array")
	}
}

func TestKeysContains(t *testing.T) {
	ks := NewKeys([]Key{k("a"), k("c"), k("e")})
	if !ks.Contains(k("c")) {
		t.Fatalf("expected contains c")
	}
	if ks.Contains(k("b")) {
		t.Fatalf("expected not contains b")
	}
}

func TestRangesUnionMergesOverlapping(t *testing.T) {
	a := NewRanges([]Range{{Start: k("a"), End: k("c")}})
	b := NewRanges([]Range{{Start: k("b"), End: k("d")}})
	u := a.Union(b)
	if len(u) != 1 || !u[0].Start.Equal(k("a")) || !u[0].End.Equal(k("d")) {
		t.Fatalf("expected merged [a,d), got %v", u)
	}
}

func TestRangesContainsAll(t *testing.T) {
	rs := NewRanges([]Range{{Start: k("a"), End: k("m")}})
	sub := NewRanges([]Range{{Start: k("b"), End: k("d")}})
	if !rs.ContainsAll(sub) {
		t.Fatalf("expected rs to contain sub")
	}
	outside := NewRanges([]Range{{Start: k("x"), End: k("z")}})
	if rs.ContainsAll(outside) {
		t.Fatalf("expected rs to not contain outside range")
	}
}

func TestRangesSliceIntersection(t *testing.T) {
	rs := NewRanges([]Range{{Start: k("a"), End: k("m")}})
	other := NewRanges([]Range{{Start: k("g"), End: k("z")}})
	got := rs.Slice(other)
	if len(got) != 1 || !got[0].Start.Equal(k("g")) || !got[0].End.Equal(k("m")) {
		t.Fatalf("expected [g,m), got %v", got)
	}
}
