package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lifeimang/dfresh/internal/catalog"
	pkgerrors "github.com/lifeimang/dfresh/pkg/errors"
)

type catalogReader interface {
	Lookup(ctx context.Context, productID uuid.UUID) (*catalog.Availability, error)
}

type quantityStore interface {
	MergeQuantity(ctx context.Context, userID, productID string, delta, ceiling int64) (int64, bool, error)
	ReplaceQuantity(ctx context.Context, userID, productID string, value, ceiling int64) (int64, bool, error)
	RemoveEntry(ctx context.Context, userID, productID string) error
	Entries(ctx context.Context, userID string) (map[string]int64, error)
	CountEntries(ctx context.Context, userID string) (int64, error)
}

// Service exposes cart mutation and read operations.
type Service interface {
	Add(ctx context.Context, userID, productID uuid.UUID, delta int64) (*AddResult, error)
	Update(ctx context.Context, userID, productID uuid.UUID, quantity int64) (*TotalsResult, error)
	Delete(ctx context.Context, userID, productID uuid.UUID) (*TotalsResult, error)
	List(ctx context.Context, userID uuid.UUID) (*CartView, error)
}

// AddResult reports the outcome of an additive cart write. EntryCount is the
// number of distinct products in the cart, not a unit sum; it feeds badge
// counters.
type AddResult struct {
	ProductID  uuid.UUID `json:"product_id"`
	Quantity   int64     `json:"quantity"`
	EntryCount int64     `json:"entry_count"`
}

// TotalsResult reports the outcome of an absolute update or a removal.
// TotalUnits is the sum of quantities across every entry left in the cart.
type TotalsResult struct {
	ProductID  uuid.UUID `json:"product_id"`
	TotalUnits int64     `json:"total_units"`
}

type service struct {
	store   quantityStore
	catalog catalogReader
}

// NewService builds a cart service backed by the provided stack.
func NewService(store quantityStore, catalogSvc catalogReader) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("quantity store required")
	}
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	return &service{store: store, catalog: catalogSvc}, nil
}

// Add merges delta into the stored quantity for the product. The stock check
// and the merge run as one atomic store operation, so concurrent adds for the
// same product cannot lose increments or overshoot the ceiling.
func (s *service) Add(ctx context.Context, userID, productID uuid.UUID, delta int64) (*AddResult, error) {
	availability, err := s.resolve(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if err := validateQuantity(delta); err != nil {
		return nil, err
	}

	merged, applied, err := s.store.MergeQuantity(ctx, userID.String(), productID.String(), delta, availability.Stock)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, insufficientStock(merged, availability.Stock)
	}

	entryCount, err := s.store.CountEntries(ctx, userID.String())
	if err != nil {
		return nil, err
	}
	return &AddResult{
		ProductID:  productID,
		Quantity:   merged,
		EntryCount: entryCount,
	}, nil
}

// Update replaces the stored quantity with an absolute value. Zero is not a
// valid quantity; callers remove entries through Delete instead.
func (s *service) Update(ctx context.Context, userID, productID uuid.UUID, quantity int64) (*TotalsResult, error) {
	availability, err := s.resolve(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	stored, applied, err := s.store.ReplaceQuantity(ctx, userID.String(), productID.String(), quantity, availability.Stock)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, insufficientStock(stored, availability.Stock)
	}

	return s.totals(ctx, userID, productID)
}

// Delete removes the product from the cart. The product id must still resolve
// in the catalog, but the entry itself may be absent; removal is idempotent.
func (s *service) Delete(ctx context.Context, userID, productID uuid.UUID) (*TotalsResult, error) {
	if _, err := s.resolve(ctx, userID, productID); err != nil {
		return nil, err
	}
	if err := s.store.RemoveEntry(ctx, userID.String(), productID.String()); err != nil {
		return nil, err
	}
	return s.totals(ctx, userID, productID)
}

// List builds the read model for the user's cart. Entries whose product no
// longer resolves are excluded rather than failing the whole listing, since
// the catalog and the cart can drift.
func (s *service) List(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	entries, err := s.store.Entries(ctx, userID.String())
	if err != nil {
		return nil, err
	}

	lines := make([]LineItem, 0, len(entries))
	for field, quantity := range entries {
		id, err := uuid.Parse(field)
		if err != nil {
			continue
		}
		availability, err := s.catalog.Lookup(ctx, id)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				continue
			}
			return nil, err
		}
		lines = append(lines, newLineItem(availability, quantity))
	}
	return newCartView(lines), nil
}

// resolve guards every mutation: the caller must be authenticated and the
// product must exist in the catalog before any cart state is touched.
func (s *service) resolve(ctx context.Context, userID, productID uuid.UUID) (*catalog.Availability, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return s.catalog.Lookup(ctx, productID)
}

func (s *service) totals(ctx context.Context, userID, productID uuid.UUID) (*TotalsResult, error) {
	entries, err := s.store.Entries(ctx, userID.String())
	if err != nil {
		return nil, err
	}
	var total int64
	for _, quantity := range entries {
		total += quantity
	}
	return &TotalsResult{
		ProductID:  productID,
		TotalUnits: total,
	}, nil
}

func validateQuantity(quantity int64) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be a positive integer")
	}
	return nil
}

func insufficientStock(requested, stock int64) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "requested quantity exceeds available stock").
		WithDetails(map[string]int64{
			"requested": requested,
			"stock":     stock,
		})
}
