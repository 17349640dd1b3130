package reward

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fitclash/fitclash-api/internal/domain/ledger"
)

// PointsLedger is the slice of the ledger service the redemption engine
// needs. Satisfied by *ledger.Service.
type PointsLedger interface {
	Append(ctx context.Context, in ledger.TransactionInput) (*ledger.Transaction, error)
	AuditBalance(ctx context.Context, userID uuid.UUID) (int, error)
}

// keyedMutex hands out one mutex per key so operations on the same reward
// or user serialize in-process while unrelated ones proceed in parallel.
// An entry is evicted once its last holder or waiter releases, so the map
// does not accumulate retired rewards.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(id uuid.UUID) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[uuid.UUID]*lockEntry)
	}
	e, ok := k.locks[id]
	if !ok {
		e = &lockEntry{}
		k.locks[id] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

// Service validates and executes reward claims, and manages the catalog
// and claim records.
type Service struct {
	repo        Repository
	ledger      PointsLedger
	rewardLocks keyedMutex
	userLocks   keyedMutex
}

func NewService(repo Repository, pointsLedger PointsLedger) *Service {
	return &Service{repo: repo, ledger: pointsLedger}
}

// Claim redeems a reward for a user: debit the ledger, take one unit of
// stock, create a pending claim. A redemption that loses the stock race
// after its debit was written is compensated and retried once; the retry
// then observes the real stock state.
func (s *Service) Claim(ctx context.Context, userID, rewardID uuid.UUID) (*Claim, error) {
	claim, err := s.claimOnce(ctx, userID, rewardID)
	if errors.Is(err, ErrConcurrencyConflict) {
		claim, err = s.claimOnce(ctx, userID, rewardID)
	}
	return claim, err
}

func (s *Service) claimOnce(ctx context.Context, userID, rewardID uuid.UUID) (*Claim, error) {
	// A redemption must not interleave with another for the same reward
	// (stock) or the same user (balance). Reward lock first, then user
	// lock, in this order on every path, so the pair cannot deadlock.
	unlockReward := s.rewardLocks.lock(rewardID)
	defer unlockReward()
	unlockUser := s.userLocks.lock(userID)
	defer unlockUser()

	reward, err := s.repo.GetReward(ctx, rewardID)
	if err != nil {
		return nil, err
	}
	if !reward.IsActive {
		return nil, ErrRewardNotFound
	}
	if reward.Stock <= 0 {
		return nil, ErrOutOfStock
	}

	// The raw ledger sum, not the display-clamped balance: a negative
	// balance must block redemption, not round up to zero and pass.
	balance, err := s.ledger.AuditBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance < reward.PointsRequired {
		return nil, &InsufficientPointsError{Shortfall: reward.PointsRequired - balance}
	}

	ref := reward.ID.String()
	debit, err := s.ledger.Append(ctx, ledger.TransactionInput{
		UserID:      userID,
		Points:      -reward.PointsRequired,
		Kind:        ledger.KindRedeem,
		Description: "Redeemed reward: " + reward.Name,
		ReferenceID: &ref,
	})
	if err != nil {
		return nil, err
	}

	// The in-process locks do not cover debits written by another
	// instance between the balance check and the append. The ledger sum
	// going negative after our debit means we lost such a race: undo the
	// debit and report a conflict so the retry re-checks the balance.
	if after, aerr := s.ledger.AuditBalance(ctx, userID); aerr == nil && after < 0 {
		if cerr := s.compensate(ctx, userID, reward, debit); cerr != nil {
			return nil, cerr
		}
		return nil, ErrConcurrencyConflict
	}

	if err := s.repo.DecrementStock(ctx, rewardID); err != nil {
		// The debit is already on the append-only ledger; reverse it
		// with a compensating adjust transaction.
		if cerr := s.compensate(ctx, userID, reward, debit); cerr != nil {
			return nil, cerr
		}
		if errors.Is(err, ErrOutOfStock) {
			return nil, ErrConcurrencyConflict
		}
		return nil, err
	}

	claim, err := s.repo.CreateClaim(ctx, userID, rewardID)
	if err != nil {
		if ierr := s.repo.IncrementStock(ctx, rewardID); ierr != nil {
			log.Error().Err(ierr).
				Str("reward_id", rewardID.String()).
				Msg("failed to restore stock after claim creation failure")
			return nil, ErrLedgerCorruption
		}
		if cerr := s.compensate(ctx, userID, reward, debit); cerr != nil {
			return nil, cerr
		}
		return nil, err
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("reward_id", rewardID.String()).
		Int("points", reward.PointsRequired).
		Msg("reward claimed")

	return claim, nil
}

// compensate reverses a redeem debit by appending an adjust transaction.
// The ledger is append-only, so correction is by compensation, never by
// deletion. Failure here is LedgerCorruption and must reach an operator.
func (s *Service) compensate(ctx context.Context, userID uuid.UUID, reward *Reward, debit *ledger.Transaction) error {
	ref := debit.ID.String()
	_, err := s.ledger.Append(ctx, ledger.TransactionInput{
		UserID:      userID,
		Points:      reward.PointsRequired,
		Kind:        ledger.KindAdjust,
		Description: "Reversal of failed redemption: " + reward.Name,
		ReferenceID: &ref,
	})
	if err != nil {
		log.Error().Err(err).
			Str("user_id", userID.String()).
			Str("debit_id", debit.ID.String()).
			Int("points", reward.PointsRequired).
			Msg("ledger corruption: compensating transaction failed")
		return fmt.Errorf("%w: debit %s", ErrLedgerCorruption, debit.ID)
	}
	return nil
}

// CreateReward adds a catalog item.
func (s *Service) CreateReward(ctx context.Context, in RewardInput) (*Reward, error) {
	return s.repo.CreateReward(ctx, in)
}

// UpdateReward patches a catalog item.
func (s *Service) UpdateReward(ctx context.Context, id uuid.UUID, upd RewardUpdate) (*Reward, error) {
	return s.repo.UpdateReward(ctx, id, upd)
}

// GetReward returns a reward visible to users (active only).
func (s *Service) GetReward(ctx context.Context, id uuid.UUID) (*Reward, error) {
	reward, err := s.repo.GetReward(ctx, id)
	if err != nil {
		return nil, err
	}
	if !reward.IsActive {
		return nil, ErrRewardNotFound
	}
	return reward, nil
}

// ListRewards returns the active catalog, optionally filtered by category.
func (s *Service) ListRewards(ctx context.Context, category string) ([]Reward, error) {
	return s.repo.ListRewards(ctx, category, true)
}

// ListClaims returns the user's claims joined with reward display fields.
func (s *Service) ListClaims(ctx context.Context, userID uuid.UUID) ([]ClaimDetail, error) {
	return s.repo.ListClaims(ctx, userID)
}

// UpdateClaimStatus applies an external fulfillment event to a claim after
// checking the transition table.
func (s *Service) UpdateClaimStatus(ctx context.Context, claimID uuid.UUID, next ClaimStatus, tracking *string) (*Claim, error) {
	if !validClaimStatus(next) {
		return nil, ErrInvalidTransition
	}

	claim, err := s.repo.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if !claim.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, claim.Status, next)
	}

	updated, err := s.repo.UpdateClaimStatus(ctx, claimID, claim.Status, next, tracking)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("claim_id", claimID.String()).
		Str("status", string(next)).
		Msg("claim status updated")

	return updated, nil
}
