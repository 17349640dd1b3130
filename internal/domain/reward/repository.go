package reward

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

// Repository owns the reward catalog and claim collections.
type Repository interface {
	CreateReward(ctx context.Context, in RewardInput) (*Reward, error)
	UpdateReward(ctx context.Context, id uuid.UUID, upd RewardUpdate) (*Reward, error)
	GetReward(ctx context.Context, id uuid.UUID) (*Reward, error)
	ListRewards(ctx context.Context, category string, activeOnly bool) ([]Reward, error)

	// DecrementStock is a compare-and-swap: it fails with ErrOutOfStock
	// when no stock remains, so two racing redemptions cannot both take
	// the last unit.
	DecrementStock(ctx context.Context, id uuid.UUID) error
	IncrementStock(ctx context.Context, id uuid.UUID) error

	CreateClaim(ctx context.Context, userID, rewardID uuid.UUID) (*Claim, error)
	GetClaim(ctx context.Context, id uuid.UUID) (*Claim, error)
	ListClaims(ctx context.Context, userID uuid.UUID) ([]ClaimDetail, error)

	// UpdateClaimStatus applies a transition only if the claim is still in
	// the expected current status; zero rows affected means the claim
	// moved underneath the caller.
	UpdateClaimStatus(ctx context.Context, id uuid.UUID, from, to ClaimStatus, tracking *string) (*Claim, error)
}

// PostgresRepository backs the catalog and claims with the rewards and
// reward_claims tables.
type PostgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateReward(ctx context.Context, in RewardInput) (*Reward, error) {
	if in.Name == "" || in.PointsRequired <= 0 || in.Stock < 0 {
		return nil, ErrInvalidReward
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := time.Now().UTC()
	reward := Reward{
		ID:             uuid.New(),
		Name:           in.Name,
		Description:    in.Description,
		PointsRequired: in.PointsRequired,
		Category:       in.Category,
		ImageURL:       in.ImageURL,
		Stock:          in.Stock,
		IsActive:       in.IsActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err := r.db.ExecContext(ctx2, `
		INSERT INTO rewards (id, name, description, points_required, category, image_url, stock, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, reward.ID, reward.Name, reward.Description, reward.PointsRequired, reward.Category,
		reward.ImageURL, reward.Stock, reward.IsActive, reward.CreatedAt, reward.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: insert reward", ErrInternal)
	}

	return &reward, nil
}

func (r *PostgresRepository) UpdateReward(ctx context.Context, id uuid.UUID, upd RewardUpdate) (*Reward, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	base := `UPDATE rewards SET updated_at = now()`
	args := make([]interface{}, 0, 8)
	idx := 1

	if upd.Name != nil {
		base += fmt.Sprintf(", name = $%d", idx)
		args = append(args, *upd.Name)
		idx++
	}
	if upd.Description != nil {
		base += fmt.Sprintf(", description = $%d", idx)
		args = append(args, *upd.Description)
		idx++
	}
	if upd.PointsRequired != nil {
		if *upd.PointsRequired <= 0 {
			return nil, ErrInvalidReward
		}
		base += fmt.Sprintf(", points_required = $%d", idx)
		args = append(args, *upd.PointsRequired)
		idx++
	}
	if upd.Category != nil {
		base += fmt.Sprintf(", category = $%d", idx)
		args = append(args, *upd.Category)
		idx++
	}
	if upd.ImageURL != nil {
		base += fmt.Sprintf(", image_url = $%d", idx)
		args = append(args, *upd.ImageURL)
		idx++
	}
	if upd.Stock != nil {
		if *upd.Stock < 0 {
			return nil, ErrInvalidReward
		}
		base += fmt.Sprintf(", stock = $%d", idx)
		args = append(args, *upd.Stock)
		idx++
	}
	if upd.IsActive != nil {
		base += fmt.Sprintf(", is_active = $%d", idx)
		args = append(args, *upd.IsActive)
		idx++
	}

	base += fmt.Sprintf(" WHERE id = $%d", idx)
	args = append(args, id)

	result, err := r.db.ExecContext(ctx2, base, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: update reward", ErrInternal)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return nil, ErrRewardNotFound
	}

	return r.GetReward(ctx, id)
}

func (r *PostgresRepository) GetReward(ctx context.Context, id uuid.UUID) (*Reward, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var reward Reward
	err := r.db.GetContext(ctx2, &reward, `
		SELECT id, name, description, points_required, category, image_url, stock, is_active, created_at, updated_at
		FROM rewards WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRewardNotFound
		}
		return nil, fmt.Errorf("%w: get reward", ErrInternal)
	}

	return &reward, nil
}

func (r *PostgresRepository) ListRewards(ctx context.Context, category string, activeOnly bool) ([]Reward, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	base := `
		SELECT id, name, description, points_required, category, image_url, stock, is_active, created_at, updated_at
		FROM rewards
		WHERE 1=1`
	args := make([]interface{}, 0, 2)
	idx := 1

	if activeOnly {
		base += " AND is_active = true"
	}
	if category != "" {
		base += fmt.Sprintf(" AND category = $%d", idx)
		args = append(args, category)
		idx++
	}

	base += " ORDER BY points_required ASC, name ASC"

	rewards := make([]Reward, 0)
	if err := r.db.SelectContext(ctx2, &rewards, base, args...); err != nil {
		return nil, fmt.Errorf("%w: list rewards", ErrInternal)
	}

	return rewards, nil
}

func (r *PostgresRepository) DecrementStock(ctx context.Context, id uuid.UUID) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, `
		UPDATE rewards
		SET stock = stock - 1, updated_at = now()
		WHERE id = $1 AND stock > 0
	`, id)
	if err != nil {
		return fmt.Errorf("%w: decrement stock", ErrInternal)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrOutOfStock
	}

	return nil
}

func (r *PostgresRepository) IncrementStock(ctx context.Context, id uuid.UUID) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, `
		UPDATE rewards
		SET stock = stock + 1, updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("%w: increment stock", ErrInternal)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrRewardNotFound
	}

	return nil
}

func (r *PostgresRepository) CreateClaim(ctx context.Context, userID, rewardID uuid.UUID) (*Claim, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	claim := Claim{
		ID:        uuid.New(),
		UserID:    userID,
		RewardID:  rewardID,
		Status:    ClaimStatusPending,
		ClaimedAt: time.Now().UTC(),
	}

	_, err := r.db.ExecContext(ctx2, `
		INSERT INTO reward_claims (id, user_id, reward_id, status, claimed_at)
		VALUES ($1, $2, $3, $4, $5)
	`, claim.ID, claim.UserID, claim.RewardID, string(claim.Status), claim.ClaimedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: insert claim", ErrInternal)
	}

	return &claim, nil
}

func (r *PostgresRepository) GetClaim(ctx context.Context, id uuid.UUID) (*Claim, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var claim Claim
	err := r.db.GetContext(ctx2, &claim, `
		SELECT id, user_id, reward_id, status, tracking_number, claimed_at, shipped_at, delivered_at
		FROM reward_claims WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClaimNotFound
		}
		return nil, fmt.Errorf("%w: get claim", ErrInternal)
	}

	return &claim, nil
}

func (r *PostgresRepository) ListClaims(ctx context.Context, userID uuid.UUID) ([]ClaimDetail, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	claims := make([]ClaimDetail, 0)
	err := r.db.SelectContext(ctx2, &claims, `
		SELECT c.id, c.user_id, c.reward_id, c.status, c.tracking_number, c.claimed_at, c.shipped_at, c.delivered_at,
		       r.name AS reward_name, r.image_url AS reward_image_url, r.points_required
		FROM reward_claims c
		JOIN rewards r ON r.id = c.reward_id
		WHERE c.user_id = $1
		ORDER BY c.claimed_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list claims", ErrInternal)
	}

	return claims, nil
}

func (r *PostgresRepository) UpdateClaimStatus(ctx context.Context, id uuid.UUID, from, to ClaimStatus, tracking *string) (*Claim, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	base := `UPDATE reward_claims SET status = $1`
	args := []interface{}{string(to)}
	idx := 2

	if tracking != nil {
		base += fmt.Sprintf(", tracking_number = $%d", idx)
		args = append(args, *tracking)
		idx++
	}
	switch to {
	case ClaimStatusShipped:
		base += ", shipped_at = now()"
	case ClaimStatusDelivered:
		base += ", delivered_at = now()"
	}

	base += fmt.Sprintf(" WHERE id = $%d AND status = $%d", idx, idx+1)
	args = append(args, id, string(from))

	result, err := r.db.ExecContext(ctx2, base, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: update claim status", ErrInternal)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return nil, ErrInvalidTransition
	}

	return r.GetClaim(ctx, id)
}
