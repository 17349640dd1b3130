package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository used by tests and local
// tooling. The slice is append-only, matching the durable implementation.
type MemoryRepository struct {
	mu   sync.Mutex
	rows []Transaction
	refs map[string]struct{}
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{refs: make(map[string]struct{})}
}

func earnRefKey(userID uuid.UUID, ref string) string {
	return userID.String() + "|" + ref
}

func (r *MemoryRepository) Append(_ context.Context, in TransactionInput) (*Transaction, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if in.Kind == KindEarn && in.ReferenceID != nil {
		key := earnRefKey(in.UserID, *in.ReferenceID)
		if _, exists := r.refs[key]; exists {
			return nil, ErrDuplicateEvent
		}
		r.refs[key] = struct{}{}
	}

	tx := Transaction{
		ID:          uuid.New(),
		UserID:      in.UserID,
		Points:      in.Points,
		Kind:        in.Kind,
		Description: defaultDescription(in.Description),
		ReferenceID: in.ReferenceID,
		CreatedAt:   time.Now().UTC(),
	}
	r.rows = append(r.rows, tx)

	return &tx, nil
}

func (r *MemoryRepository) SumPoints(_ context.Context, userID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sum := 0
	for _, tx := range r.rows {
		if tx.UserID == userID {
			sum += tx.Points
		}
	}
	return sum, nil
}

func (r *MemoryRepository) TotalEarned(_ context.Context, userID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sum := 0
	for _, tx := range r.rows {
		if tx.UserID == userID && tx.Kind == KindEarn && tx.Points > 0 {
			sum += tx.Points
		}
	}
	return sum, nil
}

func (r *MemoryRepository) TotalRedeemed(_ context.Context, userID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sum := 0
	for _, tx := range r.rows {
		if tx.UserID == userID && tx.Kind == KindRedeem {
			if tx.Points < 0 {
				sum += -tx.Points
			} else {
				sum += tx.Points
			}
		}
	}
	return sum, nil
}

func (r *MemoryRepository) List(_ context.Context, userID uuid.UUID, filters ListFilters) ([]Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}

	// Rows are appended in chronological order; walk backwards for
	// newest-first.
	result := make([]Transaction, 0, limit)
	skipped := 0
	for i := len(r.rows) - 1; i >= 0; i-- {
		tx := r.rows[i]
		if tx.UserID != userID {
			continue
		}
		if filters.Since != nil && tx.CreatedAt.Before(*filters.Since) {
			continue
		}
		if filters.Until != nil && tx.CreatedAt.After(*filters.Until) {
			continue
		}
		if skipped < filters.Offset {
			skipped++
			continue
		}
		result = append(result, tx)
		if len(result) >= limit {
			break
		}
	}

	return result, nil
}

func (r *MemoryRepository) TopEarners(_ context.Context, since *time.Time, limit int) ([]EarnTotal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 10
	}

	sums := make(map[uuid.UUID]int)
	for _, tx := range r.rows {
		if tx.Kind != KindEarn || tx.Points <= 0 {
			continue
		}
		if since != nil && tx.CreatedAt.Before(*since) {
			continue
		}
		sums[tx.UserID] += tx.Points
	}

	totals := make([]EarnTotal, 0, len(sums))
	for userID, points := range sums {
		totals = append(totals, EarnTotal{UserID: userID, Points: points})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Points != totals[j].Points {
			return totals[i].Points > totals[j].Points
		}
		return totals[i].UserID.String() < totals[j].UserID.String()
	})

	if len(totals) > limit {
		totals = totals[:limit]
	}
	return totals, nil
}
