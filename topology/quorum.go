package topology

// FastPathMet reports whether votes (a count of fast-path-electorate
// replies that all agreed on the same witnessedExecuteAt/deps, per §4.2)
// meets the shard's RequiredFastPathSize.
func (s Shard) FastPathMet(agreeingVotes int) bool {
	return agreeingVotes >= s.RequiredFastPathSize
}

// QuorumMet reports whether votes meets this shard's simple quorum.
func (s Shard) QuorumMet(votes int) bool {
	return votes >= s.QuorumSize()
}
