package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hostingbot/internal/model"
)

// ErrSettingNotFound is returned when a setting key does not exist.
var ErrSettingNotFound = errors.New("setting not found")

const settingColumns = `key, value, type, category, description, is_public, created_at, updated_at`

// SettingRepository handles the key/value configuration table.
type SettingRepository struct {
	pool *pgxpool.Pool
}

// NewSettingRepository creates a new SettingRepository instance.
func NewSettingRepository(pool *pgxpool.Pool) *SettingRepository {
	return &SettingRepository{pool: pool}
}

func scanSetting(row pgx.Row) (*model.Setting, error) {
	var s model.Setting
	err := row.Scan(
		&s.Key,
		&s.Value,
		&s.Type,
		&s.Category,
		&s.Description,
		&s.IsPublic,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSettingNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Get retrieves one setting by key.
func (r *SettingRepository) Get(ctx context.Context, key string) (*model.Setting, error) {
	query := `SELECT ` + settingColumns + ` FROM settings WHERE key = $1`

	s, err := scanSetting(r.pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, ErrSettingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	return s, nil
}

// List returns all settings ordered by category then key.
func (r *SettingRepository) List(ctx context.Context) ([]*model.Setting, error) {
	query := `SELECT ` + settingColumns + ` FROM settings ORDER BY category, key`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	var settings []*model.Setting
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings = append(settings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settings: %w", err)
	}
	return settings, nil
}

// Upsert inserts the setting or updates its value and metadata in place.
func (r *SettingRepository) Upsert(ctx context.Context, s *model.Setting) error {
	const query = `
		INSERT INTO settings (key, value, type, category, description, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			type = EXCLUDED.type,
			category = EXCLUDED.category,
			description = EXCLUDED.description,
			is_public = EXCLUDED.is_public,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		s.Key, s.Value, s.Type, s.Category, s.Description, s.IsPublic,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert setting: %w", err)
	}
	return nil
}

// InsertMissing seeds a setting only when the key is absent, so defaults
// never overwrite an operator's edits.
func (r *SettingRepository) InsertMissing(ctx context.Context, s *model.Setting) error {
	const query = `
		INSERT INTO settings (key, value, type, category, description, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (key) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		s.Key, s.Value, s.Type, s.Category, s.Description, s.IsPublic,
	)
	if err != nil {
		return fmt.Errorf("failed to seed setting: %w", err)
	}
	return nil
}

// Delete removes a setting.
func (r *SettingRepository) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM settings WHERE key = $1`

	result, err := r.pool.Exec(ctx, query, key)
	if err != nil {
		return fmt.Errorf("failed to delete setting: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSettingNotFound
	}
	return nil
}
