package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const queryTimeout = 3 * time.Second

// Repository is the sole mutation and read point for the point ledger.
// The transaction collection is append-only: no update or delete exists.
type Repository interface {
	Append(ctx context.Context, in TransactionInput) (*Transaction, error)
	SumPoints(ctx context.Context, userID uuid.UUID) (int, error)
	TotalEarned(ctx context.Context, userID uuid.UUID) (int, error)
	TotalRedeemed(ctx context.Context, userID uuid.UUID) (int, error)
	List(ctx context.Context, userID uuid.UUID, filters ListFilters) ([]Transaction, error)
	TopEarners(ctx context.Context, since *time.Time, limit int) ([]EarnTotal, error)
}

// PostgresRepository stores the ledger in the point_transactions table.
type PostgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append validates and inserts a transaction, returning the stored row.
// Earn references are unique per user (partial index in the schema); a
// duplicate maps to ErrDuplicateEvent.
func (r *PostgresRepository) Append(ctx context.Context, in TransactionInput) (*Transaction, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx := Transaction{
		ID:          uuid.New(),
		UserID:      in.UserID,
		Points:      in.Points,
		Kind:        in.Kind,
		Description: defaultDescription(in.Description),
		ReferenceID: in.ReferenceID,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := r.db.ExecContext(ctx2, `
		INSERT INTO point_transactions (id, user_id, points, kind, description, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, tx.ID, tx.UserID, tx.Points, string(tx.Kind), tx.Description, tx.ReferenceID, tx.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateEvent
		}
		return nil, fmt.Errorf("%w: insert transaction", ErrInternal)
	}

	return &tx, nil
}

func (r *PostgresRepository) SumPoints(ctx context.Context, userID uuid.UUID) (int, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var sum int
	err := r.db.GetContext(ctx2, &sum, `
		SELECT COALESCE(SUM(points), 0) FROM point_transactions WHERE user_id = $1
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: sum points", ErrInternal)
	}
	return sum, nil
}

func (r *PostgresRepository) TotalEarned(ctx context.Context, userID uuid.UUID) (int, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var sum int
	err := r.db.GetContext(ctx2, &sum, `
		SELECT COALESCE(SUM(points), 0)
		FROM point_transactions
		WHERE user_id = $1 AND kind = 'earn' AND points > 0
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: total earned", ErrInternal)
	}
	return sum, nil
}

func (r *PostgresRepository) TotalRedeemed(ctx context.Context, userID uuid.UUID) (int, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var sum int
	err := r.db.GetContext(ctx2, &sum, `
		SELECT COALESCE(SUM(ABS(points)), 0)
		FROM point_transactions
		WHERE user_id = $1 AND kind = 'redeem'
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: total redeemed", ErrInternal)
	}
	return sum, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID uuid.UUID, filters ListFilters) ([]Transaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	base := `
		SELECT id, user_id, points, kind, description, reference_id, created_at
		FROM point_transactions
		WHERE user_id = $1`
	args := make([]interface{}, 0, 5)
	args = append(args, userID)
	idx := 2

	if filters.Since != nil {
		base += fmt.Sprintf(" AND created_at >= $%d", idx)
		args = append(args, *filters.Since)
		idx++
	}
	if filters.Until != nil {
		base += fmt.Sprintf(" AND created_at <= $%d", idx)
		args = append(args, *filters.Until)
		idx++
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}

	// Secondary id sort keeps pages stable when rows share a timestamp.
	base += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, filters.Offset)

	transactions := make([]Transaction, 0)
	if err := r.db.SelectContext(ctx2, &transactions, base, args...); err != nil {
		return nil, fmt.Errorf("%w: list transactions", ErrInternal)
	}

	return transactions, nil
}

func (r *PostgresRepository) TopEarners(ctx context.Context, since *time.Time, limit int) ([]EarnTotal, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 10
	}

	base := `
		SELECT user_id, COALESCE(SUM(points), 0) AS points
		FROM point_transactions
		WHERE kind = 'earn' AND points > 0`
	args := make([]interface{}, 0, 2)
	idx := 1

	if since != nil {
		base += fmt.Sprintf(" AND created_at >= $%d", idx)
		args = append(args, *since)
		idx++
	}

	base += fmt.Sprintf(" GROUP BY user_id ORDER BY points DESC, user_id LIMIT $%d", idx)
	args = append(args, limit)

	totals := make([]EarnTotal, 0)
	if err := r.db.SelectContext(ctx2, &totals, base, args...); err != nil {
		return nil, fmt.Errorf("%w: top earners", ErrInternal)
	}

	return totals, nil
}
