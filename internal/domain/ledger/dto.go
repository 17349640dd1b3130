package ledger

import "time"

// EventRequest reports a points-earning user action
type EventRequest struct {
	Source      string `json:"source" validate:"required,earn_source"`
	ReferenceID string `json:"reference_id" validate:"omitempty,max=255"`
}

// GrantRequest is an operator adjustment for a named user
type GrantRequest struct {
	UserID      string `json:"user_id" validate:"required,uuid"`
	Points      int    `json:"points" validate:"required"`
	Description string `json:"description" validate:"max=500"`
}

// TransactionResponse for API response
type TransactionResponse struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Points      int    `json:"points"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
	ReferenceID string `json:"reference_id,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// BalanceResponse for the balance endpoint
type BalanceResponse struct {
	Balance     int `json:"balance"`
	TotalEarned int `json:"total_earned"`
}

// AuditResponse exposes the raw ledger sum for diagnostics
type AuditResponse struct {
	UserID       string `json:"user_id"`
	AuditBalance int    `json:"audit_balance"`
}

// ToResponse converts entity to response
func (t *Transaction) ToResponse() *TransactionResponse {
	resp := &TransactionResponse{
		ID:          t.ID.String(),
		UserID:      t.UserID.String(),
		Points:      t.Points,
		Kind:        string(t.Kind),
		Description: t.Description,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
	if t.ReferenceID != nil {
		resp.ReferenceID = *t.ReferenceID
	}
	return resp
}

func toResponses(txs []Transaction) []*TransactionResponse {
	out := make([]*TransactionResponse, 0, len(txs))
	for i := range txs {
		out = append(out, txs[i].ToResponse())
	}
	return out
}
