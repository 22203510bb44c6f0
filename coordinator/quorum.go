package coordinator

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/maedhroz/accord/message"
	"github.com/maedhroz/accord/topology"
)

// ShardReplies groups the replies gathered for one Shard during a phase.
type ShardReplies struct {
	Shard   topology.Shard
	Replies []message.Reply
}

// FanOutPerShard sends req (built per-shard by buildReq) to every replica
// of every shard in shards and returns once every replica's Send has
// returned. There is no early cutoff on quorum: callers check the
// collected replies afterwards with QuorumOK/FastPathOK. It is the
// idiomatic replacement (SPEC_FULL.md §9) for the teacher's raw
// `select { case <-time.After(...): ...; case <-handler.finish: ... }`
// pattern in network/coordinator/fc.go and gpac.go: golang.org/x/sync/errgroup
// runs one goroutine per shard under ctx.
func FanOutPerShard(
	ctx context.Context,
	d *message.Dispatcher,
	shards []topology.Shard,
	buildReq func(topology.Shard) any,
) []ShardReplies {
	out := make([]ShardReplies, len(shards))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range shards {
		i, s := i, s
		g.Go(func() error {
			req := buildReq(s)
			replies := d.Broadcast(gctx, s.Replicas, req)
			out[i] = ShardReplies{Shard: s, Replies: replies}
			return nil
		})
	}
	_ = g.Wait() // Broadcast never returns an error itself; replies carry per-node errors.
	return out
}

// QuorumOK reports whether at least the shard's quorum size of replies
// succeeded (Err == nil), using a caller-provided predicate to also check
// reply content (e.g. "accepted" vs a structural Nack).
func QuorumOK(s topology.Shard, replies []message.Reply, accept func(message.Reply) bool) bool {
	count := 0
	for _, r := range replies {
		if r.Err == nil && accept(r) {
			count++
		}
	}
	return s.QuorumMet(count)
}

// FastPathOK reports whether at least the shard's RequiredFastPathSize of
// replies from the fast-path electorate satisfy accept.
func FastPathOK(s topology.Shard, replies []message.Reply, accept func(message.Reply) bool) bool {
	electorate := map[topology.NodeID]struct{}{}
	for _, n := range s.FastPathElectorate {
		electorate[n] = struct{}{}
	}
	count := 0
	for _, r := range replies {
		if _, inElectorate := electorate[r.Node]; !inElectorate {
			continue
		}
		if r.Err == nil && accept(r) {
			count++
		}
	}
	return s.FastPathMet(count)
}
