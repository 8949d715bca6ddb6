// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hostingbot/internal/model"
)

// Common errors for repository operations.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

const userColumns = `id, telegram_id, username, first_name, last_name, contact,
	balance, is_admin, password_hash, last_activity, registered_at, created_at, updated_at`

// UserRepository handles user data persistence.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.TelegramID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.Contact,
		&user.Balance,
		&user.IsAdmin,
		&user.PasswordHash,
		&user.LastActivity,
		&user.RegisteredAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Create creates a new user for the given Telegram identity.
func (r *UserRepository) Create(ctx context.Context, telegramID int64, username, firstName, lastName string) (*model.User, error) {
	query := `
		INSERT INTO users (telegram_id, username, first_name, last_name, contact,
			balance, is_admin, registered_at, last_activity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, '{}', 0, FALSE, NOW(), NOW(), NOW(), NOW())
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, telegramID, username, firstName, lastName))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by primary key.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByTelegramID retrieves a user by their Telegram ID.
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, telegramID))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user by telegram id: %w", err)
	}
	return user, nil
}

// GetByUsername retrieves a user by their Telegram username. Used by the
// admin panel login.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return user, nil
}

// GetOrCreate retrieves a user by Telegram ID, creating one if it doesn't
// exist yet. Returns whether the user was newly created.
func (r *UserRepository) GetOrCreate(ctx context.Context, telegramID int64, username, firstName, lastName string) (*model.User, bool, error) {
	user, err := r.GetByTelegramID(ctx, telegramID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}

	user, err = r.Create(ctx, telegramID, username, firstName, lastName)
	if err != nil {
		// Handle race condition: another update might have created the user
		user, err = r.GetByTelegramID(ctx, telegramID)
		if err != nil {
			return nil, false, err
		}
		return user, false, nil
	}

	return user, true, nil
}

// TouchActivity updates the last-activity timestamp.
func (r *UserRepository) TouchActivity(ctx context.Context, id int64) error {
	const query = `UPDATE users SET last_activity = NOW(), updated_at = NOW() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to touch activity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateProfile updates the name fields, usually after Telegram reports a
// change.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, username, firstName, lastName string) error {
	const query = `
		UPDATE users
		SET username = $2, first_name = $3, last_name = $4, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, username, firstName, lastName)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateContact replaces the contact JSONB blob.
func (r *UserRepository) UpdateContact(ctx context.Context, id int64, contact model.Contact) error {
	const query = `UPDATE users SET contact = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, contact)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateBalance adds amount (possibly negative) to a user's balance and
// returns the updated user. No floor check; use DeductIfSufficient for
// conditional spending.
func (r *UserRepository) UpdateBalance(ctx context.Context, id int64, amount int64) (*model.User, error) {
	query := `
		UPDATE users
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, id, amount))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}
	return user, nil
}

// DeductIfSufficient atomically deducts amount from the user's balance only
// when the balance covers it. The check and the write are one statement, so
// concurrent checkouts cannot overdraw the account. Returns the remaining
// balance, or ErrInsufficientBalance without touching the row.
func (r *UserRepository) DeductIfSufficient(ctx context.Context, id int64, amount int64) (int64, error) {
	const query = `
		UPDATE users
		SET balance = balance - $2, updated_at = NOW()
		WHERE id = $1 AND balance >= $2
		RETURNING balance
	`

	var remaining int64
	err := r.pool.QueryRow(ctx, query, id, amount).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the user is missing or the balance fell short.
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return 0, getErr
			}
			return 0, ErrInsufficientBalance
		}
		return 0, fmt.Errorf("failed to deduct balance: %w", err)
	}
	return remaining, nil
}

// SetAdmin toggles the admin flag.
func (r *UserRepository) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	const query = `UPDATE users SET is_admin = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, isAdmin)
	if err != nil {
		return fmt.Errorf("failed to set admin flag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetPasswordHash stores a bcrypt hash for admin panel login.
func (r *UserRepository) SetPasswordHash(ctx context.Context, id int64, hash string) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, hash)
	if err != nil {
		return fmt.Errorf("failed to set password hash: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Search lists users matching the query (username or names, case
// insensitive; a numeric query also matches telegram_id), newest first.
func (r *UserRepository) Search(ctx context.Context, search string, limit, offset int) ([]*model.User, int, error) {
	const countQuery = `
		SELECT COUNT(*) FROM users
		WHERE $1 = ''
		   OR username ILIKE '%' || $1 || '%'
		   OR first_name ILIKE '%' || $1 || '%'
		   OR last_name ILIKE '%' || $1 || '%'
		   OR telegram_id::text = $1
	`
	listQuery := `
		SELECT ` + userColumns + ` FROM users
		WHERE $1 = ''
		   OR username ILIKE '%' || $1 || '%'
		   OR first_name ILIKE '%' || $1 || '%'
		   OR last_name ILIKE '%' || $1 || '%'
		   OR telegram_id::text = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	rows, err := r.pool.Query(ctx, listQuery, search, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating users: %w", err)
	}

	return users, total, nil
}

// Recent lists the most recently registered users for the dashboard.
func (r *UserRepository) Recent(ctx context.Context, limit int) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// Count returns total and admin user counts.
func (r *UserRepository) Count(ctx context.Context) (total, admins int, err error) {
	const query = `SELECT COUNT(*), COUNT(*) FILTER (WHERE is_admin) FROM users`

	if err := r.pool.QueryRow(ctx, query).Scan(&total, &admins); err != nil {
		return 0, 0, fmt.Errorf("failed to count users: %w", err)
	}
	return total, admins, nil
}

// Delete removes a user. The caller is responsible for the active-order
// guard; this only touches the row.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM users WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
