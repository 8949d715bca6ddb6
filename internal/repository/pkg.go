package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hostingbot/internal/model"
)

// ErrPackageNotFound is returned when a catalog lookup misses.
var ErrPackageNotFound = errors.New("package not found")

// PackageRepository is the single access point for all three catalog
// tables. Callers address packages through model.PackageRef, never a raw
// table name.
type PackageRepository struct {
	pool *pgxpool.Pool
}

// NewPackageRepository creates a new PackageRepository instance.
func NewPackageRepository(pool *pgxpool.Pool) *PackageRepository {
	return &PackageRepository{pool: pool}
}

func tableFor(kind model.PackageKind) (string, error) {
	switch kind {
	case model.KindVPS:
		return "vps_packages", nil
	case model.KindWebHosting:
		return "web_hosting_packages", nil
	case model.KindGameHosting:
		return "game_hosting_packages", nil
	}
	return "", fmt.Errorf("%w: %q", model.ErrUnknownKind, kind)
}

const packageColumns = `id, name, description, specifications, features,
	pricing, discount, is_available, sort_order, order_count, created_at, updated_at`

func (r *PackageRepository) scanPackage(row pgx.Row, kind model.PackageKind) (*model.Package, error) {
	pkg := model.Package{Kind: kind}

	// Scan the kind-specific specification struct out of the JSONB column.
	var specDest any
	switch kind {
	case model.KindVPS:
		pkg.Vps = &model.VpsSpec{}
		specDest = pkg.Vps
	case model.KindWebHosting:
		pkg.Web = &model.WebHostingSpec{}
		specDest = pkg.Web
	case model.KindGameHosting:
		pkg.Game = &model.GameHostingSpec{}
		specDest = pkg.Game
	}

	err := row.Scan(
		&pkg.ID,
		&pkg.Name,
		&pkg.Description,
		specDest,
		&pkg.Features,
		&pkg.Pricing,
		&pkg.Discount,
		&pkg.IsAvailable,
		&pkg.SortOrder,
		&pkg.OrderCount,
		&pkg.CreatedAt,
		&pkg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}
	return &pkg, nil
}

func specOf(pkg *model.Package) any {
	switch pkg.Kind {
	case model.KindVPS:
		return pkg.Vps
	case model.KindWebHosting:
		return pkg.Web
	case model.KindGameHosting:
		return pkg.Game
	}
	return nil
}

// Get resolves a tagged package reference.
func (r *PackageRepository) Get(ctx context.Context, ref model.PackageRef) (*model.Package, error) {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + packageColumns + ` FROM ` + table + ` WHERE id = $1`

	pkg, err := r.scanPackage(r.pool.QueryRow(ctx, query, ref.ID), ref.Kind)
	if err != nil {
		if errors.Is(err, ErrPackageNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	return pkg, nil
}

// ListAvailable lists the available packages of one kind in display order.
func (r *PackageRepository) ListAvailable(ctx context.Context, kind model.PackageKind) ([]*model.Package, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + packageColumns + ` FROM ` + table + `
		WHERE is_available ORDER BY sort_order, id`

	return r.list(ctx, query, kind)
}

// ListAll lists every package of one kind for the admin panel.
func (r *PackageRepository) ListAll(ctx context.Context, kind model.PackageKind) ([]*model.Package, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + packageColumns + ` FROM ` + table + ` ORDER BY sort_order, id`

	return r.list(ctx, query, kind)
}

func (r *PackageRepository) list(ctx context.Context, query string, kind model.PackageKind) ([]*model.Package, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer rows.Close()

	var packages []*model.Package
	for rows.Next() {
		pkg, err := r.scanPackage(rows, kind)
		if err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		packages = append(packages, pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating packages: %w", err)
	}
	return packages, nil
}

// Create inserts a new package into the table matching pkg.Kind and fills
// in the generated id.
func (r *PackageRepository) Create(ctx context.Context, pkg *model.Package) error {
	table, err := tableFor(pkg.Kind)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO ` + table + ` (name, description, specifications, features,
			pricing, discount, is_available, sort_order, order_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err = r.pool.QueryRow(ctx, query,
		pkg.Name, pkg.Description, specOf(pkg), pkg.Features,
		pkg.Pricing, pkg.Discount, pkg.IsAvailable, pkg.SortOrder,
	).Scan(&pkg.ID, &pkg.CreatedAt, &pkg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create package: %w", err)
	}
	return nil
}

// Update rewrites all editable fields of a package.
func (r *PackageRepository) Update(ctx context.Context, pkg *model.Package) error {
	table, err := tableFor(pkg.Kind)
	if err != nil {
		return err
	}
	query := `
		UPDATE ` + table + `
		SET name = $2, description = $3, specifications = $4, features = $5,
			pricing = $6, discount = $7, is_available = $8, sort_order = $9,
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		pkg.ID, pkg.Name, pkg.Description, specOf(pkg), pkg.Features,
		pkg.Pricing, pkg.Discount, pkg.IsAvailable, pkg.SortOrder,
	)
	if err != nil {
		return fmt.Errorf("failed to update package: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPackageNotFound
	}
	return nil
}

// IncrementOrderCount bumps the popularity counter after a checkout.
func (r *PackageRepository) IncrementOrderCount(ctx context.Context, ref model.PackageRef) error {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return err
	}
	query := `UPDATE ` + table + ` SET order_count = order_count + 1, updated_at = NOW() WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, ref.ID); err != nil {
		return fmt.Errorf("failed to increment order count: %w", err)
	}
	return nil
}

// Delete removes a package. The caller is responsible for the active-order
// guard.
func (r *PackageRepository) Delete(ctx context.Context, ref model.PackageRef) error {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return err
	}
	query := `DELETE FROM ` + table + ` WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, ref.ID)
	if err != nil {
		return fmt.Errorf("failed to delete package: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPackageNotFound
	}
	return nil
}

// Count returns the number of packages per kind for the dashboard.
func (r *PackageRepository) Count(ctx context.Context, kind model.PackageKind) (int, error) {
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}

	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+table).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count packages: %w", err)
	}
	return count, nil
}
