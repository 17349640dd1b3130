package reward

import "time"

// CreateRewardRequest for adding a catalog item
type CreateRewardRequest struct {
	Name           string `json:"name" validate:"required,min=2,max=255"`
	Description    string `json:"description" validate:"max=2000"`
	PointsRequired int    `json:"points_required" validate:"required,gt=0"`
	Category       string `json:"category" validate:"omitempty,reward_category"`
	ImageURL       string `json:"image_url" validate:"omitempty,url"`
	Stock          int    `json:"stock" validate:"gte=0"`
	IsActive       bool   `json:"is_active"`
}

// UpdateRewardRequest for patching a catalog item
type UpdateRewardRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=2,max=255"`
	Description    *string `json:"description" validate:"omitempty,max=2000"`
	PointsRequired *int    `json:"points_required" validate:"omitempty,gt=0"`
	Category       *string `json:"category" validate:"omitempty,reward_category"`
	ImageURL       *string `json:"image_url" validate:"omitempty,url"`
	Stock          *int    `json:"stock" validate:"omitempty,gte=0"`
	IsActive       *bool   `json:"is_active"`
}

// ClaimStatusRequest applies a fulfillment event to a claim
type ClaimStatusRequest struct {
	Status         string `json:"status" validate:"required,claim_status"`
	TrackingNumber string `json:"tracking_number" validate:"omitempty,max=100"`
}

// RewardResponse for API response
type RewardResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	PointsRequired int    `json:"points_required"`
	Category       string `json:"category,omitempty"`
	ImageURL       string `json:"image_url,omitempty"`
	Stock          int    `json:"stock"`
	IsActive       bool   `json:"is_active"`
	CreatedAt      string `json:"created_at"`
}

// ClaimResponse for API response
type ClaimResponse struct {
	ID             string `json:"id"`
	RewardID       string `json:"reward_id"`
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	ClaimedAt      string `json:"claimed_at"`
	ShippedAt      string `json:"shipped_at,omitempty"`
	DeliveredAt    string `json:"delivered_at,omitempty"`
}

// ClaimDetailResponse joins the claim with reward display fields
type ClaimDetailResponse struct {
	ClaimResponse
	RewardName     string `json:"reward_name"`
	RewardImageURL string `json:"reward_image_url,omitempty"`
	PointsRequired int    `json:"points_required"`
}

// ToResponse converts entity to response
func (r *Reward) ToResponse() *RewardResponse {
	return &RewardResponse{
		ID:             r.ID.String(),
		Name:           r.Name,
		Description:    r.Description,
		PointsRequired: r.PointsRequired,
		Category:       r.Category,
		ImageURL:       r.ImageURL,
		Stock:          r.Stock,
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
	}
}

// ToResponse converts entity to response
func (c *Claim) ToResponse() *ClaimResponse {
	resp := &ClaimResponse{
		ID:        c.ID.String(),
		RewardID:  c.RewardID.String(),
		Status:    string(c.Status),
		ClaimedAt: c.ClaimedAt.Format(time.RFC3339),
	}
	if c.TrackingNumber != nil {
		resp.TrackingNumber = *c.TrackingNumber
	}
	if c.ShippedAt != nil {
		resp.ShippedAt = c.ShippedAt.Format(time.RFC3339)
	}
	if c.DeliveredAt != nil {
		resp.DeliveredAt = c.DeliveredAt.Format(time.RFC3339)
	}
	return resp
}

// ToResponse converts a joined claim row to response
func (d *ClaimDetail) ToResponse() *ClaimDetailResponse {
	return &ClaimDetailResponse{
		ClaimResponse:  *d.Claim.ToResponse(),
		RewardName:     d.RewardName,
		RewardImageURL: d.RewardImageURL,
		PointsRequired: d.PointsRequired,
	}
}
