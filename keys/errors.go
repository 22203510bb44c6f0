package keys

import "errors"

// ErrKindMismatch is a Route violation per §7: a programming bug, not a
// recoverable protocol condition — e.g. unioning a RoutingKeys with a
// RoutingRanges.
var ErrKindMismatch = errors.New("keys: kind mismatch in union")

// ErrHomeKeyMismatch is returned when unioning two Routes whose homeKey
// differs, which §3.2 declares an invariant violation.
var ErrHomeKeyMismatch = errors.New("keys: homeKey mismatch in route union")

// ErrCrossEpochUnion is returned when unioning two PartialRoutes computed
// against different topology epochs (§4, Open Question resolved in
// SPEC_FULL.md §4): the caller must re-slice against the new epoch first.
var ErrCrossEpochUnion = errors.New("keys: cannot union partial routes across a topology epoch boundary")

// ErrSliceNotCovered is the Route violation for a strict slice of a Route
// to a range it does not cover. No function in this package returns it.
var ErrSliceNotCovered = errors.New("keys: sliceStrict on uncovered range")
