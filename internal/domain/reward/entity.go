package reward

import (
	"time"

	"github.com/google/uuid"
)

// Reward is a catalog item redeemable for points.
type Reward struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Description    string    `db:"description" json:"description"`
	PointsRequired int       `db:"points_required" json:"points_required"`
	Category       string    `db:"category" json:"category"`
	ImageURL       string    `db:"image_url" json:"image_url,omitempty"`
	Stock          int       `db:"stock" json:"stock"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ClaimStatus is the fulfillment state of a claim.
type ClaimStatus string

const (
	ClaimStatusPending   ClaimStatus = "pending"
	ClaimStatusShipped   ClaimStatus = "shipped"
	ClaimStatusDelivered ClaimStatus = "delivered"
	ClaimStatusCancelled ClaimStatus = "cancelled"
)

// claimTransitions enumerates the allowed fulfillment transitions. All
// transitions arrive as external events; the module stores and reports them.
var claimTransitions = map[ClaimStatus][]ClaimStatus{
	ClaimStatusPending: {ClaimStatusShipped, ClaimStatusCancelled},
	ClaimStatusShipped: {ClaimStatusDelivered},
}

// CanTransition reports whether moving from s to next is allowed.
func (s ClaimStatus) CanTransition(next ClaimStatus) bool {
	for _, allowed := range claimTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func validClaimStatus(s ClaimStatus) bool {
	switch s {
	case ClaimStatusPending, ClaimStatusShipped, ClaimStatusDelivered, ClaimStatusCancelled:
		return true
	}
	return false
}

// Claim records a user's redemption of a reward.
type Claim struct {
	ID             uuid.UUID   `db:"id" json:"id"`
	UserID         uuid.UUID   `db:"user_id" json:"user_id"`
	RewardID       uuid.UUID   `db:"reward_id" json:"reward_id"`
	Status         ClaimStatus `db:"status" json:"status"`
	TrackingNumber *string     `db:"tracking_number" json:"tracking_number,omitempty"`
	ClaimedAt      time.Time   `db:"claimed_at" json:"claimed_at"`
	ShippedAt      *time.Time  `db:"shipped_at" json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time  `db:"delivered_at" json:"delivered_at,omitempty"`
}

// ClaimDetail is a claim joined with reward display fields. The reward
// columns are a join, never stored on the claim row.
type ClaimDetail struct {
	Claim
	RewardName     string `db:"reward_name" json:"reward_name"`
	RewardImageURL string `db:"reward_image_url" json:"reward_image_url,omitempty"`
	PointsRequired int    `db:"points_required" json:"points_required"`
}

// RewardInput creates a catalog item.
type RewardInput struct {
	Name           string
	Description    string
	PointsRequired int
	Category       string
	ImageURL       string
	Stock          int
	IsActive       bool
}

// RewardUpdate patches a catalog item; nil fields are left unchanged.
type RewardUpdate struct {
	Name           *string
	Description    *string
	PointsRequired *int
	Category       *string
	ImageURL       *string
	Stock          *int
	IsActive       *bool
}
