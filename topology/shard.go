// Package topology tracks the epoch -> shards -> replicas mapping (§3.3)
// and the quorum/fast-path-electorate computations every protocol phase
// depends on. Grounded on the teacher's replica layout in
// network/participant/manager.go (each node computing the shards it
// replicas for from a fixed participant list) and configs/glob_var.go's
// NumberOfShards/NumberOfReplicas constants, generalized into a proper
// per-epoch topology table.
package topology

import "github.com/maedhroz/accord/keys"

// NodeID identifies a replica process. The teacher used a bare address
// string (network/participant/manager.go's `stmt.address`); this is kept
// as a string for the same reason — it is also the wire address key.
type NodeID string

// Shard is a (range, replicas, fast-path electorate, required-fast-path-size)
// tuple, per §3.3. FastPathElectorate is the subset of Replicas eligible to
// vote on the fast path; RequiredFastPathSize is how many of them must
// agree for a fast-path commit.
type Shard struct {
	Range                keys.Range
	Replicas             []NodeID
	FastPathElectorate   []NodeID
	RequiredFastPathSize int
}

// QuorumSize is the smallest majority of Replicas: len(Replicas)/2 + 1.
func (s Shard) QuorumSize() int {
	return len(s.Replicas)/2 + 1
}

// NewShard builds a Shard for range r and replicas, tolerating f failures.
// The fast-path electorate is taken to be the full replica set (the
// teacher's deployments never distinguish a separate fast-path set), and
// RequiredFastPathSize is derived per the Open Question resolution in
// SPEC_FULL.md §3.3: N - F when N >= 2F+1, else the simple quorum F+1.
func NewShard(r keys.Range, replicas []NodeID, f int) Shard {
	n := len(replicas)
	required := f + 1
	if n >= 2*f+1 {
		required = n - f
	}
	electorate := make([]NodeID, len(replicas))
	copy(electorate, replicas)
	return Shard{
		Range:                r,
		Replicas:             replicas,
		FastPathElectorate:   electorate,
		RequiredFastPathSize: required,
	}
}

// HasReplica reports whether node replicates this shard.
func (s Shard) HasReplica(node NodeID) bool {
	for _, r := range s.Replicas {
		if r == node {
			return true
		}
	}
	return false
}
