package service

import (
	"context"
	"errors"
	"fmt"

	"hostingbot/internal/model"
	"hostingbot/internal/repository"
)

// Catalog service errors.
var (
	ErrPackageInUse       = errors.New("package has active orders")
	ErrPackageUnavailable = errors.New("package is not available")
)

// CatalogService handles the three package catalogs.
type CatalogService struct {
	pkgRepo   *repository.PackageRepository
	orderRepo *repository.OrderRepository
}

// NewCatalogService creates a new CatalogService instance.
func NewCatalogService(pkgRepo *repository.PackageRepository, orderRepo *repository.OrderRepository) *CatalogService {
	return &CatalogService{pkgRepo: pkgRepo, orderRepo: orderRepo}
}

// ListAvailable returns the purchasable packages of one kind, in display
// order.
func (s *CatalogService) ListAvailable(ctx context.Context, kind model.PackageKind) ([]*model.Package, error) {
	return s.pkgRepo.ListAvailable(ctx, kind)
}

// ListAll returns every package of one kind, including hidden ones.
func (s *CatalogService) ListAll(ctx context.Context, kind model.PackageKind) ([]*model.Package, error) {
	return s.pkgRepo.ListAll(ctx, kind)
}

// Get resolves a package reference.
func (s *CatalogService) Get(ctx context.Context, ref model.PackageRef) (*model.Package, error) {
	return s.pkgRepo.Get(ctx, ref)
}

// GetAvailable resolves a package reference and rejects hidden packages.
// Used by the checkout flow so a package pulled from the catalog cannot be
// bought after staff disables it.
func (s *CatalogService) GetAvailable(ctx context.Context, ref model.PackageRef) (*model.Package, error) {
	pkg, err := s.pkgRepo.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !pkg.IsAvailable {
		return nil, ErrPackageUnavailable
	}
	return pkg, nil
}

// Create adds a package to its catalog.
func (s *CatalogService) Create(ctx context.Context, pkg *model.Package) error {
	return s.pkgRepo.Create(ctx, pkg)
}

// Update rewrites a package in place.
func (s *CatalogService) Update(ctx context.Context, pkg *model.Package) error {
	return s.pkgRepo.Update(ctx, pkg)
}

// Delete removes a package unless orders still depend on it.
func (s *CatalogService) Delete(ctx context.Context, ref model.PackageRef) error {
	active, err := s.orderRepo.CountActiveByPackage(ctx, ref)
	if err != nil {
		return fmt.Errorf("failed to check package orders: %w", err)
	}
	if active > 0 {
		return fmt.Errorf("%w: %d active", ErrPackageInUse, active)
	}
	return s.pkgRepo.Delete(ctx, ref)
}

// Counts returns the package totals per kind for the dashboard.
func (s *CatalogService) Counts(ctx context.Context) (map[model.PackageKind]int, error) {
	counts := make(map[model.PackageKind]int, 3)
	for _, kind := range []model.PackageKind{model.KindVPS, model.KindWebHosting, model.KindGameHosting} {
		n, err := s.pkgRepo.Count(ctx, kind)
		if err != nil {
			return nil, err
		}
		counts[kind] = n
	}
	return counts, nil
}
