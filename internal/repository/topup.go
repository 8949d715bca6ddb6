package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hostingbot/internal/model"
)

// ErrTopupNotFound is returned when a top-up request lookup misses.
var ErrTopupNotFound = errors.New("topup request not found")

// ErrTopupResolved is returned when resolving a request twice.
var ErrTopupResolved = errors.New("topup request already resolved")

const topupColumns = `id, user_id, amount, proof_file_id, status, created_at, resolved_at`

// TopupRepository handles manual balance top-up requests.
type TopupRepository struct {
	pool *pgxpool.Pool
}

// NewTopupRepository creates a new TopupRepository instance.
func NewTopupRepository(pool *pgxpool.Pool) *TopupRepository {
	return &TopupRepository{pool: pool}
}

func scanTopup(row pgx.Row) (*model.TopupRequest, error) {
	var t model.TopupRequest
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Amount,
		&t.ProofFileID,
		&t.Status,
		&t.CreatedAt,
		&t.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTopupNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Create inserts a pending top-up request.
func (r *TopupRepository) Create(ctx context.Context, t *model.TopupRequest) error {
	const query = `
		INSERT INTO topup_requests (user_id, amount, proof_file_id, status, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		t.UserID, t.Amount, t.ProofFileID, model.TopupPending,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create topup request: %w", err)
	}
	t.Status = model.TopupPending
	return nil
}

// GetByID retrieves one top-up request.
func (r *TopupRepository) GetByID(ctx context.Context, id int64) (*model.TopupRequest, error) {
	query := `SELECT ` + topupColumns + ` FROM topup_requests WHERE id = $1`

	t, err := scanTopup(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrTopupNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get topup request: %w", err)
	}
	return t, nil
}

// ListPending returns unresolved requests, oldest first.
func (r *TopupRepository) ListPending(ctx context.Context) ([]*model.TopupRequest, error) {
	query := `SELECT ` + topupColumns + ` FROM topup_requests
		WHERE status = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, model.TopupPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list topup requests: %w", err)
	}
	defer rows.Close()

	var requests []*model.TopupRequest
	for rows.Next() {
		t, err := scanTopup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan topup request: %w", err)
		}
		requests = append(requests, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating topup requests: %w", err)
	}
	return requests, nil
}

// ListByUser returns a user's requests, newest first.
func (r *TopupRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*model.TopupRequest, error) {
	query := `SELECT ` + topupColumns + ` FROM topup_requests
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list topup requests: %w", err)
	}
	defer rows.Close()

	var requests []*model.TopupRequest
	for rows.Next() {
		t, err := scanTopup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan topup request: %w", err)
		}
		requests = append(requests, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating topup requests: %w", err)
	}
	return requests, nil
}

// Resolve moves a pending request to approved or rejected. The status
// guard in the WHERE clause makes double resolution a no-op error.
func (r *TopupRepository) Resolve(ctx context.Context, id int64, status model.TopupStatus) error {
	const query = `
		UPDATE topup_requests
		SET status = $2, resolved_at = NOW()
		WHERE id = $1 AND status = $3
	`

	result, err := r.pool.Exec(ctx, query, id, status, model.TopupPending)
	if err != nil {
		return fmt.Errorf("failed to resolve topup request: %w", err)
	}
	if result.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrTopupResolved
	}
	return nil
}
