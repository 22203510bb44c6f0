package command

import (
	"fmt"

	lock "github.com/viney-shih/go-lock"

	"github.com/maedhroz/accord/keys"
)

// Store owns a disjoint slice of the key-space and holds the map
// TxnId -> Command for all commands touching it (§3.5). It is the
// single-threaded cooperative executor of §5: operations are submitted as
// closures and the Store guarantees no two closures touching overlapping
// TxnIds or keys run concurrently.
//
// The single-threaded guarantee is implemented with a CAS mutex, the same
// primitive the teacher uses to gate row access in storage/txn.go's
// DBTxn.latch, generalized here to gate whole-Store closures instead of
// individual row locks.
type Store struct {
	id     int
	ranges keys.Ranges

	latch lock.Mutex

	commands map[ID]*Command

	halted    bool
	haltErr   error
	haltedCh  chan error
}

// NewStore creates a Store owning ranges, identified by id (the key a
// replica.Node maps its stores by).
func NewStore(id int, ranges keys.Ranges) *Store {
	return &Store{
		id:       id,
		ranges:   ranges,
		latch:    lock.NewCASMutex(),
		commands: map[ID]*Command{},
		haltedCh: make(chan error, 1),
	}
}

func (s *Store) ID() int            { return s.id }
func (s *Store) Ranges() keys.Ranges { return s.ranges }

// Halted returns a channel that receives the cause once when an invariant
// violation halts this Store, per §7's error handling policy. The channel
// is never closed.
func (s *Store) Halted() <-chan error { return s.haltedCh }

// IsHalted reports whether the Store has already halted.
func (s *Store) IsHalted() bool {
	s.latch.Lock()
	defer s.latch.Unlock()
	return s.halted
}

// Execute runs fn with exclusive access to the Store, recovering an
// *InvariantViolation panic into a permanent halt (§7): after a halt, every
// subsequent Execute returns the same error without running fn.
func (s *Store) Execute(fn func(safe *Safe) error) (err error) {
	s.latch.Lock()
	defer s.latch.Unlock()
	if s.halted {
		return s.haltErr
	}
	defer func() {
		if r := recover(); r != nil {
			iv, ok := r.(*InvariantViolation)
			if !ok {
				panic(r)
			}
			s.halted = true
			s.haltErr = iv
			select {
			case s.haltedCh <- iv:
			default:
			}
			err = iv
		}
	}()
	return fn(&Safe{store: s})
}

// commandOrCreate loads the Command for id, creating it in NotWitnessed
// status if this is the first message mentioning it (§3.4's lifecycle).
func (s *Store) commandOrCreate(id ID) *Command {
	cmd, ok := s.commands[id]
	if !ok {
		cmd = New(id)
		s.commands[id] = cmd
	}
	return cmd
}

// Evict removes a command's in-memory state once it is Applied or
// Invalidated and all cross-shard obligations are satisfied (§3.4's
// retention rule). Evicting a command still pending is an invariant
// violation.
func (s *Store) Evict(id ID) {
	cmd, ok := s.commands[id]
	if !ok {
		return
	}
	Invariant(cmd.status.IsTerminal(), "evicted command %v in non-terminal status %v", id, cmd.status)
	delete(s.commands, id)
}

func (s *Store) String() string {
	return fmt.Sprintf("Store[%d ranges=%v commands=%d]", s.id, s.ranges, len(s.commands))
}
