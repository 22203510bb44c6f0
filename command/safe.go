package command

import "github.com/maedhroz/accord/keys"

// PreLoadContext names the TxnIds and keys one operation needs loaded
// before it runs (§3.5, §5). The Store guarantees no two closures whose
// PreLoadContexts overlap run concurrently.
type PreLoadContext struct {
	TxnIDs []ID
	Keys   keys.Keys
}

// Safe is the scoped, single-threaded view of a Store handed to one
// Execute closure: a SafeCommandStore in the terminology of §3.5. All
// Command mutation during the life of a protocol-message handler goes
// through Safe so it is provably confined to the Store's single-threaded
// executor.
type Safe struct {
	store *Store
}

// Command returns the Command for id, creating it in NotWitnessed status
// if this is the first message mentioning it.
func (s *Safe) Command(id ID) *Command {
	return s.store.commandOrCreate(id)
}

// Peek returns the Command for id without creating one, and whether it
// existed.
func (s *Safe) Peek(id ID) (*Command, bool) {
	cmd, ok := s.store.commands[id]
	return cmd, ok
}

// Evict removes id's Command once terminal (§3.4).
func (s *Safe) Evict(id ID) {
	s.store.Evict(id)
}

// AllReady reports whether every dependency in deps is, from this Store's
// point of view, Applied — i.e. ready for a command whose deps these are
// to proceed to ReadyToExecute (§4.2). Dependencies outside this Store's
// ranges are considered ready, since §3.4 scopes the "all deps applied"
// invariant to "restricted to its own shards".
func (s *Safe) AllReady(deps DepSet) bool {
	for _, dep := range deps.ToSlice() {
		cmd, ok := s.store.commands[dep]
		if !ok {
			continue
		}
		if cmd.Status() != Applied {
			return false
		}
	}
	return true
}
