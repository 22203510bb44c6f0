// Package coordinator implements the four sequential phases a client
// transaction moves through — PreAccept, Accept, Commit & Execute, Apply
// (§4.2) — driven by replica replies collected via FanOutPerShard. Grounded
// on the teacher's network/coordinator package: fc.go and gpac.go's
// phase functions, txn_handler.go's per-transaction handler and ballot
// bookkeeping, and 3pc.go's quorum/ack counting, generalized from the
// teacher's fixed 2PC/3PC/FC protocols to the Accord phase machine.
package coordinator

import "errors"

// ErrNack is returned when a phase did not collect a quorum of successful
// replies in some shard; missing the fast path alone falls back to Accept
// instead of returning ErrNack. It is not an error
// in the §7 sense — it drives a retry or ballot escalation, never a halt.
var ErrNack = errors.New("coordinator: quorum of replicas nacked")

// ErrEpochMismatch means a replica is at a different topology epoch than
// the coordinator addressed; the caller should re-route (§6.1).
var ErrEpochMismatch = errors.New("coordinator: replica epoch mismatch")

// ErrRecoveryRequired is returned after three consecutive Accept
// rejections, per §4.2's escalation rule.
var ErrRecoveryRequired = errors.New("coordinator: escalating to recovery after repeated rejection")

// ErrTimeout is the client-imposed cancellation case (§5): the transaction
// may still commit later even though this call returned.
var ErrTimeout = errors.New("coordinator: client deadline exceeded")
