// Package keys implements the routables algebra of §3.2 and §4.1: sorted
// key/range containers, slice/union/contains, and the Route hierarchy used
// for message dispatch. All operations are deterministic and stable,
// mirroring the teacher's sorted-index conventions in storage/btree_index.go
// and storage/row.go (primary keys sorted and deduplicated per table).
package keys

import "bytes"

// Key is an opaque, totally-ordered routing/data key. The core never
// inspects key contents beyond ordering and equality.
type Key []byte

// Compare returns -1, 0, or 1 as k is less than, equal to, or greater than
// other, matching bytes.Compare's contract.
func (k Key) Compare(other Key) int {
	return bytes.Compare(k, other)
}

func (k Key) Equal(other Key) bool {
	return bytes.Equal(k, other)
}

func (k Key) Less(other Key) bool {
	return k.Compare(other) < 0
}

func (k Key) LessOrEqual(other Key) bool {
	return k.Compare(other) <= 0
}

func (k Key) String() string {
	return string(k)
}
