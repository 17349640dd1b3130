package reward

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository used by tests.
type MemoryRepository struct {
	mu      sync.Mutex
	rewards map[uuid.UUID]*Reward
	claims  map[uuid.UUID]*Claim
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		rewards: make(map[uuid.UUID]*Reward),
		claims:  make(map[uuid.UUID]*Claim),
	}
}

func (r *MemoryRepository) CreateReward(_ context.Context, in RewardInput) (*Reward, error) {
	if in.Name == "" || in.PointsRequired <= 0 || in.Stock < 0 {
		return nil, ErrInvalidReward
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	reward := &Reward{
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
	r.rewards[reward.ID] = reward

	copied := *reward
	return &copied, nil
}

func (r *MemoryRepository) UpdateReward(_ context.Context, id uuid.UUID, upd RewardUpdate) (*Reward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reward, ok := r.rewards[id]
	if !ok {
		return nil, ErrRewardNotFound
	}

	if upd.PointsRequired != nil && *upd.PointsRequired <= 0 {
		return nil, ErrInvalidReward
	}
	if upd.Stock != nil && *upd.Stock < 0 {
		return nil, ErrInvalidReward
	}

	if upd.Name != nil {
		reward.Name = *upd.Name
	}
	if upd.Description != nil {
		reward.Description = *upd.Description
	}
	if upd.PointsRequired != nil {
		reward.PointsRequired = *upd.PointsRequired
	}
	if upd.Category != nil {
		reward.Category = *upd.Category
	}
	if upd.ImageURL != nil {
		reward.ImageURL = *upd.ImageURL
	}
	if upd.Stock != nil {
		reward.Stock = *upd.Stock
	}
	if upd.IsActive != nil {
		reward.IsActive = *upd.IsActive
	}
	reward.UpdatedAt = time.Now().UTC()

	copied := *reward
	return &copied, nil
}

func (r *MemoryRepository) GetReward(_ context.Context, id uuid.UUID) (*Reward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reward, ok := r.rewards[id]
	if !ok {
		return nil, ErrRewardNotFound
	}

	copied := *reward
	return &copied, nil
}

func (r *MemoryRepository) ListRewards(_ context.Context, category string, activeOnly bool) ([]Reward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]Reward, 0, len(r.rewards))
	for _, reward := range r.rewards {
		if activeOnly && !reward.IsActive {
			continue
		}
		if category != "" && reward.Category != category {
			continue
		}
		result = append(result, *reward)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].PointsRequired != result[j].PointsRequired {
			return result[i].PointsRequired < result[j].PointsRequired
		}
		return result[i].Name < result[j].Name
	})

	return result, nil
}

func (r *MemoryRepository) DecrementStock(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reward, ok := r.rewards[id]
	if !ok {
		return ErrRewardNotFound
	}
	if reward.Stock <= 0 {
		return ErrOutOfStock
	}
	reward.Stock--
	reward.UpdatedAt = time.Now().UTC()

	return nil
}

func (r *MemoryRepository) IncrementStock(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reward, ok := r.rewards[id]
	if !ok {
		return ErrRewardNotFound
	}
	reward.Stock++
	reward.UpdatedAt = time.Now().UTC()

	return nil
}

func (r *MemoryRepository) CreateClaim(_ context.Context, userID, rewardID uuid.UUID) (*Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	claim := &Claim{
		ID:        uuid.New(),
		UserID:    userID,
		RewardID:  rewardID,
		Status:    ClaimStatusPending,
		ClaimedAt: time.Now().UTC(),
	}
	r.claims[claim.ID] = claim

	copied := *claim
	return &copied, nil
}

func (r *MemoryRepository) GetClaim(_ context.Context, id uuid.UUID) (*Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	claim, ok := r.claims[id]
	if !ok {
		return nil, ErrClaimNotFound
	}

	copied := *claim
	return &copied, nil
}

func (r *MemoryRepository) ListClaims(_ context.Context, userID uuid.UUID) ([]ClaimDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]ClaimDetail, 0)
	for _, claim := range r.claims {
		if claim.UserID != userID {
			continue
		}
		detail := ClaimDetail{Claim: *claim}
		if reward, ok := r.rewards[claim.RewardID]; ok {
			detail.RewardName = reward.Name
			detail.RewardImageURL = reward.ImageURL
			detail.PointsRequired = reward.PointsRequired
		}
		result = append(result, detail)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ClaimedAt.After(result[j].ClaimedAt)
	})

	return result, nil
}

func (r *MemoryRepository) UpdateClaimStatus(_ context.Context, id uuid.UUID, from, to ClaimStatus, tracking *string) (*Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	claim, ok := r.claims[id]
	if !ok {
		return nil, ErrClaimNotFound
	}
	if claim.Status != from {
		return nil, ErrInvalidTransition
	}

	claim.Status = to
	if tracking != nil {
		claim.TrackingNumber = tracking
	}
	now := time.Now().UTC()
	switch to {
	case ClaimStatusShipped:
		claim.ShippedAt = &now
	case ClaimStatusDelivered:
		claim.DeliveredAt = &now
	}

	copied := *claim
	return &copied, nil
}
