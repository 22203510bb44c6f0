package command

// DependencyListener registers the dependent command's TxnId as a listener
// on each of its dependencies at Commit time (§4.2's Commit & Execute): when
// all of a command's local deps are Applied, it becomes ReadyToExecute.
// It implements Listener.
type DependencyListener struct {
	Dependent ID
	store     *Store
}

// NewDependencyListener builds a listener that, on every status change of
// a dependency, re-checks whether Dependent's local deps are all Applied
// and if so marks it ReadyToExecute.
func NewDependencyListener(store *Store, dependent ID) *DependencyListener {
	return &DependencyListener{Dependent: dependent, store: store}
}

func (l *DependencyListener) OnStatusChange(dep *Command, newStatus Status) {
	if newStatus != Applied {
		return
	}
	dependent, ok := l.store.commands[l.Dependent]
	if !ok || dependent.Status() != Committed {
		return
	}
	safe := &Safe{store: l.store}
	if safe.AllReady(dependent.Deps()) {
		dependent.MarkReadyToExecute()
	}
}

// RegisterDependencyListeners registers cmd as a listener on every one of
// its deps that this Store knows about, per §4.2: "for each dep d, they
// register this command as a listener of d."
func (s *Safe) RegisterDependencyListeners(cmd *Command) {
	for _, dep := range cmd.Deps().ToSlice() {
		depCmd, ok := s.store.commands[dep]
		if !ok {
			continue
		}
		depCmd.AddListener(cmd.TxnID, NewDependencyListener(s.store, cmd.TxnID))
	}
}

// ReachableDependencies performs an explicit BFS over the dependency graph
// rooted at id, using a visited set so that cyclic listener back-references
// (§9's design note: "cycles are harmless because traversal is always by
// explicit BFS with a visited set") terminate safely.
func (s *Safe) ReachableDependencies(id ID) []ID {
	visited := map[ID]struct{}{id: {}}
	queue := []ID{id}
	var out []ID
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		cmd, ok := s.store.commands[cur]
		if !ok {
			continue
		}
		for _, dep := range cmd.Deps().ToSlice() {
			if _, seen := visited[dep]; seen {
				continue
			}
			visited[dep] = struct{}{}
			out = append(out, dep)
			queue = append(queue, dep)
		}
	}
	return out
}
