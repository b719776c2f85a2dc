package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lifeimang/dfresh/pkg/db/models"
	pkgerrors "github.com/lifeimang/dfresh/pkg/errors"
)

// Service exposes catalog read operations.
type Service interface {
	Lookup(ctx context.Context, productID uuid.UUID) (*Availability, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
}

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// service implements the catalog service.
type service struct {
	repo productFinder
}

// NewService constructs a catalog service instance.
func NewService(repo productFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// Lookup resolves the authoritative stock and price for an active product.
func (s *service) Lookup(ctx context.Context, productID uuid.UUID) (*Availability, error) {
	product, err := s.load(ctx, productID)
	if err != nil {
		return nil, err
	}
	return newAvailability(product), nil
}

// GetProduct returns the full product detail for an active product.
func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.load(ctx, productID)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

func (s *service) load(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog lookup failed")
	}
	// Delisted products behave as missing so stale cart entries drop out.
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}
