package message

import (
	"context"
	"errors"

	"github.com/maedhroz/accord/topology"
)

// ErrEpochMismatch is returned by a Transport endpoint that rejects a
// request because it is at a different epoch (§6.1); the caller carries
// CurrentEpoch so it can re-route.
type ErrEpochMismatch struct {
	CurrentEpoch uint64
}

func (e *ErrEpochMismatch) Error() string {
	return "message: epoch mismatch"
}

// ErrUnreachable signals a transient I/O failure (§7): invisible to the
// core's correctness, recovered by the progress log's liveness checks.
var ErrUnreachable = errors.New("message: node unreachable")

// Transport sends a request to a single node and returns its reply,
// mirroring the teacher's conn.go send/receive pair but collapsed to a
// single blocking call per message the way golang.org/x/sync/errgroup fan
// out expects (§9's design note on replacing raw goroutine+select with
// errgroup).
type Transport interface {
	// Send delivers req to node and returns the decoded reply (already
	// unmarshaled into the expected reply type by the caller's handler
	// registration) or an error. ctx governs the request's deadline.
	Send(ctx context.Context, node topology.NodeID, req any) (any, error)
}

// Dispatcher fans a request out to a set of nodes concurrently and
// collects every reply, mirroring the teacher's
// `for i, op := range branches { go txn.from.sendX(i, op) }` broadcast
// idiom (network/coordinator/fc.go, gpac.go). The coordinator package's
// FanOutPerShard runs one Broadcast per shard on top of this using
// golang.org/x/sync/errgroup (SPEC_FULL.md §9).
type Dispatcher struct {
	Transport Transport
}

// Reply pairs a node with the outcome of sending it a request.
type Reply struct {
	Node  topology.NodeID
	Value any
	Err   error
}

// Broadcast sends req to every node in nodes concurrently and returns one
// Reply per node, in the order of nodes. It waits for every node's Send to
// return and does not implement a quorum or fast-path cutoff; a Send that
// honours ctx returns early once ctx is cancelled.
func (d *Dispatcher) Broadcast(ctx context.Context, nodes []topology.NodeID, req any) []Reply {
	out := make([]Reply, len(nodes))
	results := make(chan struct {
		i int
		r Reply
	}, len(nodes))
	for i, n := range nodes {
		go func(i int, n topology.NodeID) {
			v, err := d.Transport.Send(ctx, n, req)
			results <- struct {
				i int
				r Reply
			}{i, Reply{Node: n, Value: v, Err: err}}
		}(i, n)
	}
	for range nodes {
		res := <-results
		out[res.i] = res.r
	}
	return out
}
