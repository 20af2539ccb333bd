package ledger

import "errors"

// Sentinel errors for the engine's failure taxonomy. Callers classify with
// errors.Is; the API layer maps them to HTTP status codes.
var (
	// ErrNotFound means a referenced group or expense does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the actor is not a group member, or tried to edit
	// or delete an expense they did not pay.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput means the request was rejected before any state
	// mutation: non-positive amount, empty member selection, member outside
	// the group, and so on.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConsistency means a recomputed balance set did not sum to zero.
	// This indicates a projection or rounding defect; the stored snapshot is
	// left untouched when it is raised.
	ErrConsistency = errors.New("ledger consistency fault")
)
