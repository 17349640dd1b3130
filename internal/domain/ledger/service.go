package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Rates configures the points awarded per earn source.
type Rates struct {
	VoteReceived  int
	ContentPosted int
	DailyLogin    int
}

// Service derives balances from the ledger and records earn events. All
// figures come from summing the transaction rows; there is no separately
// maintained balance column to drift out of sync.
type Service struct {
	repo  Repository
	rates Rates
}

func NewService(repo Repository, rates Rates) *Service {
	return &Service{repo: repo, rates: rates}
}

// Append writes an arbitrary transaction to the ledger.
func (s *Service) Append(ctx context.Context, in TransactionInput) (*Transaction, error) {
	return s.repo.Append(ctx, in)
}

// RecordEvent appends an earn transaction for a user action. Daily logins
// are keyed to the UTC day so a second report on the same day returns
// ErrDuplicateEvent instead of double counting.
func (s *Service) RecordEvent(ctx context.Context, userID uuid.UUID, source EarnSource, referenceID string) (*Transaction, error) {
	var points int
	var description string

	switch source {
	case SourceVoteReceived:
		points = s.rates.VoteReceived
		description = "Vote received on your post"
	case SourceContentPosted:
		points = s.rates.ContentPosted
		description = "New content posted"
	case SourceDailyLogin:
		points = s.rates.DailyLogin
		description = "Daily login bonus"
		referenceID = "daily_login:" + time.Now().UTC().Format("2006-01-02")
	default:
		return nil, fmt.Errorf("%w: unknown earn source %q", ErrInvalidKind, source)
	}

	in := TransactionInput{
		UserID:      userID,
		Points:      points,
		Kind:        KindEarn,
		Description: description,
	}
	if referenceID != "" {
		in.ReferenceID = &referenceID
	}

	tx, err := s.repo.Append(ctx, in)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("source", string(source)).
		Int("points", points).
		Msg("earn event recorded")

	return tx, nil
}

// Grant appends an adjust transaction on behalf of an operator. Points may
// be negative to claw back a previous award.
func (s *Service) Grant(ctx context.Context, userID uuid.UUID, points int, description string) (*Transaction, error) {
	tx, err := s.repo.Append(ctx, TransactionInput{
		UserID:      userID,
		Points:      points,
		Kind:        KindAdjust,
		Description: defaultDescription(description),
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID.String()).
		Int("points", points).
		Msg("adjustment granted")

	return tx, nil
}

// Balance returns the display balance: the ledger sum clamped at zero.
func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	sum, err := s.repo.SumPoints(ctx, userID)
	if err != nil {
		return 0, err
	}
	if sum < 0 {
		return 0, nil
	}
	return sum, nil
}

// AuditBalance returns the raw ledger sum. A negative value indicates a
// bookkeeping defect and is surfaced for diagnostics, never for display.
func (s *Service) AuditBalance(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.SumPoints(ctx, userID)
}

// TotalEarned returns the lifetime sum of positive earn transactions.
func (s *Service) TotalEarned(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.TotalEarned(ctx, userID)
}

// ListTransactions returns the user's history, newest first.
func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, filters ListFilters) ([]Transaction, error) {
	return s.repo.List(ctx, userID, filters)
}

// Summarize reports earned/redeemed aggregates alongside the available
// balance. Available always equals Balance: both are derived from the same
// ledger sum, so expire and adjust rows cannot produce two answers.
func (s *Service) Summarize(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	earned, err := s.repo.TotalEarned(ctx, userID)
	if err != nil {
		return nil, err
	}
	redeemed, err := s.repo.TotalRedeemed(ctx, userID)
	if err != nil {
		return nil, err
	}
	available, err := s.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Summary{
		TotalEarned:   earned,
		TotalRedeemed: redeemed,
		Available:     available,
	}, nil
}

// TopEarners exposes the earn aggregation for the leaderboard.
func (s *Service) TopEarners(ctx context.Context, since *time.Time, limit int) ([]EarnTotal, error) {
	return s.repo.TopEarners(ctx, since, limit)
}
