package common

import "errors"

// Error categories of the protocol. Every error surfaced by this module
// wraps exactly one of these sentinels, so callers branch with errors.Is
// instead of matching message text.
var (
	// ErrDerivation indicates a broken derivation precondition (bad seeds,
	// exhausted bump space). Fatal, never retried.
	ErrDerivation = errors.New("address derivation failed")

	// ErrAlreadyExists is the duplicate-initialization condition. Benign
	// when re-running idempotent setup steps.
	ErrAlreadyExists = errors.New("account already exists")

	// ErrPrecondition marks caller errors: insufficient balance, deadline
	// not in the future, missing holding account, agreement not active.
	ErrPrecondition = errors.New("precondition violated")

	// ErrUnauthorized marks a missing or wrong co-signer. Never retried.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTransient marks submission failures that are safe to retry with
	// the identical unit because it is known not to have applied.
	ErrTransient = errors.New("transient submission failure")
)

// InitOutcome is the result of an idempotent initialization step.
type InitOutcome int

const (
	// OutcomeCreated means the account was created by this invocation.
	OutcomeCreated InitOutcome = iota
	// OutcomeAlreadyExists means a prior invocation already created it and
	// this one changed nothing.
	OutcomeAlreadyExists
)

// String returns a short human-readable form of the outcome.
func (o InitOutcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeAlreadyExists:
		return "already exists"
	default:
		return "unknown"
	}
}
