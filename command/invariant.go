package command

import "fmt"

// InvariantViolation is raised when a Command or CommandStore observes
// state that §3.4/§7 declares impossible: status regression, deps mutated
// post-Commit, a route union across mismatched homeKeys, and similar
// programming bugs. It is fatal — per §7, the node halts the affected
// CommandStore rather than masking the condition.
type InvariantViolation struct {
	Message string
}

func (e *InvariantViolation) Error() string { return e.Message }

// Invariant is the Go port of the teacher's configs.Assert (configs/utils.go):
// it panics with an *InvariantViolation when cond is false. Unlike the
// teacher's version it never also "continues" after printing — invariant
// violations are never masked (§7).
func Invariant(cond bool, format string, args ...any) {
	if !cond {
		panic(&InvariantViolation{Message: fmt.Sprintf(format, args...)})
	}
}
