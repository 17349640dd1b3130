package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind defines supported point transaction kinds.
type Kind string

const (
	KindEarn   Kind = "earn"
	KindRedeem Kind = "redeem"
	KindExpire Kind = "expire"
	KindAdjust Kind = "adjust"
)

// EarnSource identifies the user action that produced an earn transaction.
type EarnSource string

const (
	SourceVoteReceived  EarnSource = "vote_received"
	SourceContentPosted EarnSource = "content_posted"
	SourceDailyLogin    EarnSource = "daily_login"
)

// Transaction is an immutable ledger row. Rows are only ever appended;
// corrections are written as compensating adjust transactions.
type Transaction struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	Points      int       `db:"points" json:"points"`
	Kind        Kind      `db:"kind" json:"kind"`
	Description string    `db:"description" json:"description"`
	ReferenceID *string   `db:"reference_id" json:"reference_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TransactionInput is the caller-supplied part of a transaction; the store
// assigns id and timestamp.
type TransactionInput struct {
	UserID      uuid.UUID
	Points      int
	Kind        Kind
	Description string
	ReferenceID *string
}

// ListFilters controls transaction history queries.
type ListFilters struct {
	Since  *time.Time
	Until  *time.Time
	Limit  int
	Offset int
}

// Summary aggregates a user's ledger for display. Available is the clamped
// ledger sum, the single source of truth for spendable points.
type Summary struct {
	TotalEarned   int `json:"total_earned"`
	TotalRedeemed int `json:"total_redeemed"`
	Available     int `json:"available"`
}

// EarnTotal is one row of the earn aggregation behind the leaderboard.
type EarnTotal struct {
	UserID uuid.UUID `db:"user_id"`
	Points int       `db:"points"`
}

func validKind(k Kind) bool {
	switch k {
	case KindEarn, KindRedeem, KindExpire, KindAdjust:
		return true
	}
	return false
}

// validateInput rejects malformed transactions before any mutation.
func validateInput(in TransactionInput) error {
	if in.UserID == uuid.Nil {
		return ErrMissingUser
	}
	if in.Points == 0 {
		return ErrZeroPoints
	}
	if !validKind(in.Kind) {
		return ErrInvalidKind
	}
	if in.Kind == KindEarn && in.Points < 0 {
		return ErrInvalidKind
	}
	if in.Kind == KindRedeem && in.Points > 0 {
		return ErrInvalidKind
	}
	return nil
}

// defaultDescription fills in a label when the caller supplied none.
func defaultDescription(s string) string {
	if strings.TrimSpace(s) == "" {
		return "points adjustment"
	}
	return s
}
