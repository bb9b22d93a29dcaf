package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/harvestlink/backend/internal/models"
)

// ProductStore is the subset of ProductRepository methods needed by
// ProductService.
type ProductStore interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context, limit, offset int) ([]*models.Product, error)
	ListByVendor(ctx context.Context, vendorID string) ([]*models.Product, error)
	Create(ctx context.Context, p *models.Product) (*models.Product, error)
	Update(ctx context.Context, id string, p *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id string) error
}

// ProductService owns product CRUD. Every write runs through the posting
// eligibility predicate first, so a suspended or unverified vendor cannot
// touch listings.
type ProductService struct {
	products   ProductStore
	suspension *SuspensionService
	logger     *slog.Logger
}

func NewProductService(products ProductStore, suspension *SuspensionService, logger *slog.Logger) *ProductService {
	return &ProductService{
		products:   products,
		suspension: suspension,
		logger:     logger,
	}
}

func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get product", slog.String("product_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return p, nil
}

func (s *ProductService) ListProducts(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	products, err := s.products.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list products", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return products, nil
}

func (s *ProductService) ListVendorProducts(ctx context.Context, vendorID string) ([]*models.Product, error) {
	products, err := s.products.ListByVendor(ctx, vendorID)
	if err != nil {
		s.logger.Error("failed to list vendor products",
			slog.String("vendor_id", vendorID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return products, nil
}

// CreateProduct lists a new product for the vendor. Fails with ErrForbidden
// when the vendor is not eligible to post.
func (s *ProductService) CreateProduct(ctx context.Context, vendor *models.User, p *models.Product) (*models.Product, error) {
	if err := s.requireEligible(ctx, vendor); err != nil {
		return nil, err
	}

	p.VendorID = vendor.ID

	created, err := s.products.Create(ctx, p)
	if err != nil {
		s.logger.Error("failed to create product",
			slog.String("vendor_id", vendor.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return created, nil
}

// UpdateProduct edits an existing listing. The vendor must be eligible and
// must own the product.
func (s *ProductService) UpdateProduct(ctx context.Context, vendor *models.User, id string, p *models.Product) (*models.Product, error) {
	if err := s.requireEligible(ctx, vendor); err != nil {
		return nil, err
	}

	existing, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.VendorID != vendor.ID {
		return nil, models.ErrForbidden
	}

	updated, err := s.products.Update(ctx, id, p)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update product",
			slog.String("product_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return updated, nil
}

// DeleteProduct removes a listing. Unlike edits, a suspended vendor may
// still delete their own products.
func (s *ProductService) DeleteProduct(ctx context.Context, vendor *models.User, id string) error {
	existing, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if existing.VendorID != vendor.ID {
		return models.ErrForbidden
	}

	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete product",
			slog.String("product_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}

func (s *ProductService) requireEligible(ctx context.Context, vendor *models.User) error {
	ok, err := s.suspension.CanUserAddEditProducts(ctx, vendor)
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrForbidden
	}
	return nil
}
