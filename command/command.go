package command

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/maedhroz/accord/keys"
	"github.com/maedhroz/accord/timestamp"
)

// ID is the TxnId a Command is keyed by, re-exported here so callers don't
// need to import the timestamp package just to name a map key.
type ID = timestamp.TxnId

// DepSet is the set of TxnIds a Command depends on. Membership, not order
// or count, is what the protocol needs (PreAccept aggregates deps by set
// union across shards), so this is a real set rather than the teacher's
// map[string]int vote-counting idiom in txn_handler.go.
type DepSet = mapset.Set[ID]

// NewDepSet builds a DepSet from zero or more TxnIds.
func NewDepSet(ids ...ID) DepSet {
	return mapset.NewSet(ids...)
}

// Result is the opaque outcome of a transaction's execution, populated at
// Apply. The core never inspects its contents (§6.2).
type Result []byte

// Writes is the opaque write set computed by the coordinator once reads
// are gathered, broadcast at Apply and persisted atomically by the
// embedder (§6.2).
type Writes map[string][]byte

// Command is the per-replica, per-TxnId state described in §3.4.
type Command struct {
	TxnID ID

	status Status

	acceptedBallot timestamp.Ballot
	promisedBallot timestamp.Ballot

	// executeAt is defined from PreAccepted onward and immutable once
	// Committed.
	executeAt    timestamp.ExecuteAt
	hasExecuteAt bool

	// deps is immutable once Committed.
	deps DepSet

	route keys.Route

	writes Writes
	result Result

	// listeners are other commands (by TxnId) or message handlers
	// awaiting this command's status changes, e.g. dependents registered
	// via WaitOnCommit or Commit-time dependency registration (§4.3).
	listeners map[ID]Listener
}

// Listener is notified when a Command's status advances.
type Listener interface {
	OnStatusChange(cmd *Command, newStatus Status)
}

// New creates a Command in status NotWitnessed for id, with the initial
// ballot equal to its TxnId's Timestamp (§3.1).
func New(id ID) *Command {
	return &Command{
		TxnID:          id,
		status:         NotWitnessed,
		promisedBallot: timestamp.InitialBallot(id),
		deps:           NewDepSet(),
		listeners:      map[ID]Listener{},
	}
}

func (c *Command) Status() Status { return c.status }

func (c *Command) AcceptedBallot() timestamp.Ballot { return c.acceptedBallot }
func (c *Command) PromisedBallot() timestamp.Ballot { return c.promisedBallot }

// ExecuteAt returns the command's agreed execution timestamp and whether
// one has been set yet (it is undefined before PreAccepted).
func (c *Command) ExecuteAt() (timestamp.ExecuteAt, bool) { return c.executeAt, c.hasExecuteAt }

func (c *Command) Deps() DepSet { return c.deps.Clone() }

func (c *Command) Route() keys.Route { return c.route }

func (c *Command) Writes() Writes { return c.writes }

func (c *Command) Result() Result { return c.result }

// AddListener registers l to be notified of cmd's future status changes,
// keyed by the listening command's own TxnId (or a synthetic ID for
// non-command listeners such as a WaitOnCommit handler).
func (c *Command) AddListener(key ID, l Listener) {
	c.listeners[key] = l
}

func (c *Command) RemoveListener(key ID) {
	delete(c.listeners, key)
}

func (c *Command) notifyListeners() {
	for _, l := range c.listeners {
		l.OnStatusChange(c, c.status)
	}
}

// transitionTo moves the command to status, enforcing the monotonic partial
// order of §3.4. It is idempotent on re-delivery and returns false (without
// mutating state) for an invalid transition, mirroring the teacher's
// txnHandler.transit panic-on-mismatch guard but returning a bool instead,
// since an invalid replica-side transition is a protocol Nack (§4.3), not an
// invariant violation.
func (c *Command) transitionTo(status Status) bool {
	if !c.status.canTransition(status) {
		return false
	}
	if c.status == status {
		return true
	}
	c.status = status
	c.notifyListeners()
	return true
}

// WitnessPreAccept applies a PreAccept, possibly advancing status and
// setting executeAt if not already set (§4.3's transition table).
func (c *Command) WitnessPreAccept(executeAt timestamp.ExecuteAt, deps DepSet) bool {
	target := PreAccepted
	if c.status > PreAccepted {
		target = c.status // idempotent: PreAccept never regresses a further-along command
	}
	if !c.transitionTo(target) {
		return false
	}
	if !c.hasExecuteAt {
		c.executeAt = executeAt
		c.hasExecuteAt = true
		c.deps = deps.Clone()
	}
	return true
}

// WitnessAccept applies an Accept(ballot, executeAt, deps). Replicas accept
// iff promisedBallot <= ballot (§4.2); on accept, acceptedBallot is set to
// ballot and executeAt/deps are persisted.
func (c *Command) WitnessAccept(ballot timestamp.Ballot, executeAt timestamp.ExecuteAt, deps DepSet) bool {
	if !c.promisedBallot.LessOrEqual(ballot) {
		return false
	}
	if c.status.IsAtLeastCommitted() {
		return true // idempotent no-op once already committed or later.
	}
	if !c.transitionTo(Accepted) {
		return false
	}
	c.promisedBallot = ballot
	c.acceptedBallot = ballot
	c.executeAt = executeAt
	c.hasExecuteAt = true
	c.deps = deps.Clone()
	return true
}

// WitnessCommit applies a Commit(executeAt, deps, route). executeAt and
// deps become immutable from this point on (§3.4's invariant). A replica
// that has not yet witnessed the command at all (NotWitnessed) only
// reaches PreCommitted on this delivery: it has Commit's payload but not
// the PreAccept-side history, so a second Commit is required to reach
// Committed proper, per §4.3's transition table.
func (c *Command) WitnessCommit(executeAt timestamp.ExecuteAt, deps DepSet, route keys.Route) bool {
	if c.status.IsAtLeastCommitted() {
		return true
	}
	from := c.status
	target := Committed
	if from == NotWitnessed {
		target = PreCommitted
	}
	if !c.transitionTo(target) {
		return false
	}
	if from != PreCommitted {
		c.executeAt = executeAt
		c.hasExecuteAt = true
		c.deps = deps.Clone()
		c.route = route
	}
	return true
}

// MarkReadyToExecute transitions Committed -> ReadyToExecute once all of
// this command's local dependencies are Applied (§4.2 Commit & Execute).
func (c *Command) MarkReadyToExecute() bool {
	if c.status != Committed {
		return c.status == ReadyToExecute
	}
	return c.transitionTo(ReadyToExecute)
}

// WitnessApply applies writes/result and transitions to Applied. Legal
// only once the command is at or beyond Committed (§4.3's Apply column:
// every earlier status is "must Commit first").
func (c *Command) WitnessApply(writes Writes, result Result) bool {
	if c.status == Applied {
		return true
	}
	if !c.status.IsAtLeastCommitted() {
		return false
	}
	if !c.transitionTo(Applied) {
		return false
	}
	c.writes = writes
	c.result = result
	return true
}

// WitnessInvalidate marks the command Invalidated; only legal from
// Accepted or earlier (enforced by canTransition).
func (c *Command) WitnessInvalidate() bool {
	return c.transitionTo(Invalidated)
}

// PromoteBallot raises promisedBallot to ballot if ballot is higher,
// without otherwise touching status. Used by BeginRecovery (§4.4) to fence
// out a stale coordinator even when the command's state doesn't yet
// advance.
func (c *Command) PromoteBallot(ballot timestamp.Ballot) {
	if c.promisedBallot.Less(ballot) {
		c.promisedBallot = ballot
	}
}
