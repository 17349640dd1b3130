package ledger

import "errors"

var (
	// ErrMissingUser is returned when a transaction has no owning user
	ErrMissingUser = errors.New("transaction requires a user")

	// ErrZeroPoints is returned when a transaction carries zero points
	ErrZeroPoints = errors.New("transaction points must be non-zero")

	// ErrInvalidKind is returned when the kind is unknown or the sign of
	// points contradicts it
	ErrInvalidKind = errors.New("invalid transaction kind")

	// ErrDuplicateEvent is returned when an earn event with the same
	// reference was already recorded for the user
	ErrDuplicateEvent = errors.New("event already recorded")

	ErrInternal = errors.New("internal error")
)
