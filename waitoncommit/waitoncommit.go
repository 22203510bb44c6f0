// Package waitoncommit implements the cross-replica blocking primitive of
// §4.5: a requester sends WaitOnCommit(TxnId, scope) to every replica of
// scope; each replica replies immediately if the command is already at or
// beyond Committed, else registers a listener and replies once it gets
// there. The requester's completion rule is a symmetric pending counter:
// incremented once per outstanding dispatch, decremented on each dispatch's
// completion and once more when the dispatch loop itself finishes issuing
// sends, firing exactly once the counter crosses -1.
//
// Grounded on the teacher's txnHandler finish-channel/counter idiom
// (network/coordinator/txn_handler.go's `finish chan struct{}` triggered by
// `c.MsgCount == c.VoterNumber`), generalized from the teacher's plain
// increment-until-threshold counting to the symmetric dispatch-loop +
// per-reply counting §4.5 calls for, which avoids the race between the
// dispatch loop finishing and a fast local listener already having fired.
package waitoncommit

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/maedhroz/accord/command"
	"github.com/maedhroz/accord/topology"
)

// Waiter tracks outstanding WaitOnCommit dispatches for one request and
// fires Done() once every dispatch has completed and the dispatch loop
// itself has finished issuing sends.
type Waiter struct {
	pending atomic.Int32
	once    sync.Once
	done    chan struct{}
}

// NewWaiter creates a Waiter with nothing yet dispatched.
func NewWaiter() *Waiter {
	return &Waiter{done: make(chan struct{})}
}

// Dispatch must be called once, before issuing the send, for every replica
// this request is addressed to.
func (w *Waiter) Dispatch() { w.pending.Add(1) }

// Complete must be called exactly once when a dispatched replica's reply
// (immediate or via a fired listener) arrives.
func (w *Waiter) Complete() { w.arrive() }

// DispatchLoopDone must be called once, after every Dispatch in this round
// has been issued, to retire the dispatch loop's own phantom count.
func (w *Waiter) DispatchLoopDone() { w.arrive() }

func (w *Waiter) arrive() {
	if w.pending.Add(-1) == -1 {
		w.once.Do(func() { close(w.done) })
	}
}

// Done returns a channel closed once every dispatch has completed.
func (w *Waiter) Done() <-chan struct{} { return w.done }

// listener fires its notify channel the first time a watched command
// reaches Committed or any later status, per §4.5's "reply once the status
// reaches Committed (or any later terminal state)".
type listener struct {
	once   sync.Once
	notify chan struct{}
}

func (l *listener) OnStatusChange(cmd *command.Command, newStatus command.Status) {
	if !newStatus.IsAtLeastCommitted() {
		return
	}
	l.once.Do(func() { close(l.notify) })
}

// Register attaches a one-shot listener to cmd under listenerKey, returning
// a channel closed once cmd reaches Committed or later. Call sites
// (replica.Node.HandleWaitOnCommit) must already have confirmed cmd is not
// yet at or beyond Committed before calling Register, or the channel will
// never be closed (there is nothing left to transition).
func Register(cmd *command.Command, listenerKey command.ID) <-chan struct{} {
	l := &listener{notify: make(chan struct{})}
	cmd.AddListener(listenerKey, l)
	return l.notify
}

// Dispatch describes one replica's WaitOnCommit outcome: Ready means the
// replica answered immediately; otherwise Notify is the channel that
// closes once that replica's listener fires.
type Dispatch struct {
	Node   topology.NodeID
	Ready  bool
	Notify <-chan struct{}
}

// Wait drives the requester side of §4.5 across every node in scope,
// collecting each node's Dispatch via query, and returns once the pending
// counter crosses -1 or ctx is done.
func Wait(ctx context.Context, scope []topology.NodeID, query func(topology.NodeID) Dispatch) error {
	w := NewWaiter()
	for _, node := range scope {
		w.Dispatch()
		d := query(node)
		if d.Ready {
			w.Complete()
			continue
		}
		notify := d.Notify
		go func() {
			select {
			case <-notify:
				w.Complete()
			case <-ctx.Done():
			}
		}()
	}
	w.DispatchLoopDone()
	select {
	case <-w.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
