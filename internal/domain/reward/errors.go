package reward

import (
	"errors"
	"fmt"
)

var (
	// ErrRewardNotFound is returned when the reward does not exist or is
	// not active
	ErrRewardNotFound = errors.New("reward not found")

	// ErrOutOfStock is returned when the reward has no stock left
	ErrOutOfStock = errors.New("reward out of stock")

	// ErrInsufficientPoints is the sentinel matched by
	// InsufficientPointsError via errors.Is
	ErrInsufficientPoints = errors.New("insufficient points")

	// ErrConcurrencyConflict is returned when a redemption lost a stock
	// race after its debit was written; the debit has been compensated
	ErrConcurrencyConflict = errors.New("concurrent redemption conflict")

	// ErrLedgerCorruption is returned when a compensating transaction
	// could not be written after a partial failure. This must reach an
	// operator; it is never swallowed.
	ErrLedgerCorruption = errors.New("ledger corruption: compensation failed")

	// ErrClaimNotFound is returned when a claim does not exist
	ErrClaimNotFound = errors.New("claim not found")

	// ErrInvalidTransition is returned for a disallowed claim status change
	ErrInvalidTransition = errors.New("invalid claim status transition")

	// ErrInvalidReward is returned for malformed catalog input
	ErrInvalidReward = errors.New("invalid reward")

	ErrInternal = errors.New("internal error")
)

// InsufficientPointsError carries how many points the user is short.
type InsufficientPointsError struct {
	Shortfall int
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient points: short %d", e.Shortfall)
}

// Is lets errors.Is(err, ErrInsufficientPoints) match.
func (e *InsufficientPointsError) Is(target error) bool {
	return target == ErrInsufficientPoints
}
