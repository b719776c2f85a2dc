package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lifeimang/dfresh/internal/catalog"
	pkgerrors "github.com/lifeimang/dfresh/pkg/errors"
)

type stubCatalog struct {
	products map[uuid.UUID]*catalog.Availability
}

func (s *stubCatalog) Lookup(_ context.Context, productID uuid.UUID) (*catalog.Availability, error) {
	availability, ok := s.products[productID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return availability, nil
}

// memoryStore implements quantityStore directly so service tests exercise the
// validation and aggregation logic without a redis fake in the way.
type memoryStore struct {
	records map[string]map[string]int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: map[string]map[string]int64{}}
}

func (m *memoryStore) record(userID string) map[string]int64 {
	rec, ok := m.records[userID]
	if !ok {
		rec = map[string]int64{}
		m.records[userID] = rec
	}
	return rec
}

func (m *memoryStore) MergeQuantity(_ context.Context, userID, productID string, delta, ceiling int64) (int64, bool, error) {
	merged := m.record(userID)[productID] + delta
	if merged > ceiling {
		return merged, false, nil
	}
	m.record(userID)[productID] = merged
	return merged, true, nil
}

func (m *memoryStore) ReplaceQuantity(_ context.Context, userID, productID string, value, ceiling int64) (int64, bool, error) {
	if value > ceiling {
		return value, false, nil
	}
	m.record(userID)[productID] = value
	return value, true, nil
}

func (m *memoryStore) RemoveEntry(_ context.Context, userID, productID string) error {
	delete(m.record(userID), productID)
	return nil
}

func (m *memoryStore) Entries(_ context.Context, userID string) (map[string]int64, error) {
	out := map[string]int64{}
	for productID, quantity := range m.record(userID) {
		out[productID] = quantity
	}
	return out, nil
}

func (m *memoryStore) CountEntries(_ context.Context, userID string) (int64, error) {
	return int64(len(m.record(userID))), nil
}

func availabilityFor(id uuid.UUID, stock int64, price string) *catalog.Availability {
	return &catalog.Availability{
		ProductID: id,
		Name:      "Fresh Mango",
		Unit:      "piece",
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
	}
}

func newTestService(t *testing.T, store quantityStore, products map[uuid.UUID]*catalog.Availability) Service {
	t.Helper()
	svc, err := NewService(store, &stubCatalog{products: products})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestAddMergesQuantities(t *testing.T) {
	sku := uuid.New()
	store := newMemoryStore()
	svc := newTestService(t, store, map[uuid.UUID]*catalog.Availability{
		sku: availabilityFor(sku, 10, "2.50"),
	})
	user := uuid.New()
	ctx := context.Background()

	result, err := svc.Add(ctx, user, sku, 4)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if result.Quantity != 4 {
		t.Fatalf("expected persisted quantity 4, got %d", result.Quantity)
	}
	if result.EntryCount != 1 {
		t.Fatalf("expected entry count 1, got %d", result.EntryCount)
	}

	result, err = svc.Add(ctx, user, sku, 3)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if result.Quantity != 7 {
		t.Fatalf("expected merged quantity 7, got %d", result.Quantity)
	}
	if result.EntryCount != 1 {
		t.Fatalf("expected entry count to stay 1, got %d", result.EntryCount)
	}
}

func TestAddRefusesInsufficientStock(t *testing.T) {
	sku := uuid.New()
	store := newMemoryStore()
	svc := newTestService(t, store, map[uuid.UUID]*catalog.Availability{
		sku: availabilityFor(sku, 10, "2.50"),
	})
	user := uuid.New()
	ctx := context.Background()

	if _, err := svc.Add(ctx, user, sku, 4); err != nil {
		t.Fatalf("add: %v", err)
	}

	_, err := svc.Add(ctx, user, sku, 8)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if got := store.record(user.String())[sku.String()]; got != 4 {
		t.Fatalf("expected prior quantity 4 untouched, got %d", got)
	}
}

func TestAddValidations(t *testing.T) {
	sku := uuid.New()
	svc := newTestService(t, newMemoryStore(), map[uuid.UUID]*catalog.Availability{
		sku: availabilityFor(sku, 10, "2.50"),
	})
	ctx := context.Background()

	t.Run("unknownProduct", func(t *testing.T) {
		_, err := svc.Add(ctx, uuid.New(), uuid.New(), 1)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("zeroQuantity", func(t *testing.T) {
		_, err := svc.Add(ctx, uuid.New(), sku, 0)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInvalidQuantity {
			t.Fatalf("expected invalid quantity, got %v", err)
		}
	})

	t.Run("negativeQuantity", func(t *testing.T) {
		_, err := svc.Add(ctx, uuid.New(), sku, -2)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInvalidQuantity {
			t.Fatalf("expected invalid quantity, got %v", err)
		}
	})

	t.Run("anonymousUser", func(t *testing.T) {
		_, err := svc.Add(ctx, uuid.Nil, sku, 1)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("expected unauthorized, got %v", err)
		}
	})
}

func TestUpdateReplacesAbsolutely(t *testing.T) {
	sku := uuid.New()
	other := uuid.New()
	store := newMemoryStore()
	svc := newTestService(t, store, map[uuid.UUID]*catalog.Availability{
		sku:   availabilityFor(sku, 10, "2.50"),
		other: availabilityFor(other, 5, "1.00"),
	})
	user := uuid.New()
	ctx := context.Background()

	if _, err := svc.Add(ctx, user, sku, 4); err != nil {
		t.Fatalf("seed sku: %v", err)
	}
	if _, err := svc.Add(ctx, user, other, 2); err != nil {
		t.Fatalf("seed other: %v", err)
	}

	result, err := svc.Update(ctx, user, sku, 3)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := store.record(user.String())[sku.String()]; got != 3 {
		t.Fatalf("expected absolute replace to 3, got %d", got)
	}
	if result.TotalUnits != 5 {
		t.Fatalf("expected total units 3+2=5, got %d", result.TotalUnits)
	}
}

func TestUpdateRejectsZeroQuantity(t *testing.T) {
	sku := uuid.New()
	store := newMemoryStore()
	svc := newTestService(t, store, map[uuid.UUID]*catalog.Availability{
		sku: availabilityFor(sku, 10, "2.50"),
	})
	user := uuid.New()
	ctx := context.Background()

	if _, err := svc.Add(ctx, user, sku, 4); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := svc.Update(ctx, user, sku, 0)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInvalidQuantity {
		t.Fatalf("expected invalid quantity for zero, got %v", err)
	}
	if got := store.record(user.String())[sku.String()]; got != 4 {
		t.Fatalf("expected quantity 4 untouched, got %d", got)
	}
}

func TestUpdateRefusesInsufficientStock(t *testing.T) {
	sku := uuid.New()
	svc := newTestService(t, newMemoryStore(), map[uuid.UUID]*catalog.Availability{
		sku: availabilityFor(sku, 10, "2.50"),
	})

	_, err := svc.Update(context.Background(), uuid.New(), sku, 11)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
}

func TestDeleteRemovesEntryAndReportsRemainingUnits(t *testing.T) {
	sku7 := uuid.New()
	sku9 := uuid.New()
	store := newMemoryStore()
	svc := newTestService(t, store, map[uuid.UUID]*catalog.Availability{
		sku7: availabilityFor(sku7, 10, "2.50"),
		sku9: availabilityFor(sku9, 10, "4.00"),
	})
	user := uuid.New()
	ctx := context.Background()

	if _, err := svc.Add(ctx, user, sku7, 3); err != nil {
		t.Fatalf("seed sku7: %v", err)
	}
	if _, err := svc.Add(ctx, user, sku9, 2); err != nil {
		t.Fatalf("seed sku9: %v", err)
	}

	result, err := svc.Delete(ctx, user, sku7)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if result.TotalUnits != 2 {
		t.Fatalf("expected remaining units 2, got %d", result.TotalUnits)
	}

	view, err := svc.List(ctx, user)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].ProductID != sku9 {
		t.Fatalf("expected listing to contain only the remaining product, got %+v", view.Items)
	}
}

func TestDeleteAbsentEntryIsIdempotent(t *testing.T) {
	sku := uuid.New()
	inCart := uuid.New()
	store := newMemoryStore()
	svc := newTestService(t, store, map[uuid.UUID]*catalog.Availability{
		sku:    availabilityFor(sku, 10, "2.50"),
		inCart: availabilityFor(inCart, 10, "1.00"),
	})
	user := uuid.New()
	ctx := context.Background()

	if _, err := svc.Add(ctx, user, inCart, 5); err != nil {
		t.Fatalf("seed: %v", err)
	}

	result, err := svc.Delete(ctx, user, sku)
	if err != nil {
		t.Fatalf("delete of absent entry should succeed: %v", err)
	}
	if result.TotalUnits != 5 {
		t.Fatalf("expected totals unchanged at 5, got %d", result.TotalUnits)
	}

	_, err = svc.Delete(ctx, user, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unresolvable product id, got %v", err)
	}
}

func TestListComputesAggregates(t *testing.T) {
	sku7 := uuid.New()
	sku9 := uuid.New()
	store := newMemoryStore()
	svc := newTestService(t, store, map[uuid.UUID]*catalog.Availability{
		sku7: availabilityFor(sku7, 10, "2.50"),
		sku9: availabilityFor(sku9, 10, "4.00"),
	})
	user := uuid.New()
	ctx := context.Background()

	if _, err := svc.Add(ctx, user, sku7, 3); err != nil {
		t.Fatalf("seed sku7: %v", err)
	}
	if _, err := svc.Add(ctx, user, sku9, 2); err != nil {
		t.Fatalf("seed sku9: %v", err)
	}

	view, err := svc.List(ctx, user)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if view.EntryCount != 2 {
		t.Fatalf("expected 2 entries, got %d", view.EntryCount)
	}
	if view.TotalUnits != 5 {
		t.Fatalf("expected 5 total units, got %d", view.TotalUnits)
	}
	want := decimal.RequireFromString("15.50")
	if !view.TotalAmount.Equal(want) {
		t.Fatalf("expected total amount %s, got %s", want, view.TotalAmount)
	}
	for _, item := range view.Items {
		if item.ProductID == sku7 && !item.Subtotal.Equal(decimal.RequireFromString("7.50")) {
			t.Fatalf("expected sku7 subtotal 7.50, got %s", item.Subtotal)
		}
	}
}

func TestListExcludesProductsMissingFromCatalog(t *testing.T) {
	sku := uuid.New()
	gone := uuid.New()
	store := newMemoryStore()
	svc := newTestService(t, store, map[uuid.UUID]*catalog.Availability{
		sku: availabilityFor(sku, 10, "2.50"),
	})
	user := uuid.New()
	ctx := context.Background()

	if _, err := svc.Add(ctx, user, sku, 2); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// Entry whose product has since been delisted.
	store.record(user.String())[gone.String()] = 9

	view, err := svc.List(ctx, user)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].ProductID != sku {
		t.Fatalf("expected only the resolvable product, got %+v", view.Items)
	}
	if view.TotalUnits != 2 {
		t.Fatalf("expected totals over resolvable lines only, got %d", view.TotalUnits)
	}
}

func TestListEmptyCart(t *testing.T) {
	svc := newTestService(t, newMemoryStore(), map[uuid.UUID]*catalog.Availability{})

	view, err := svc.List(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if view.EntryCount != 0 || view.TotalUnits != 0 {
		t.Fatalf("expected empty aggregates, got %+v", view)
	}
	if !view.TotalAmount.Equal(decimal.Zero) {
		t.Fatalf("expected zero total amount, got %s", view.TotalAmount)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, &stubCatalog{}); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := NewService(newMemoryStore(), nil); err == nil {
		t.Fatal("expected error for nil catalog")
	}
}
