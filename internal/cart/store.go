package cart

import (
	"context"
	"strconv"
	"time"

	pkgerrors "github.com/lifeimang/dfresh/pkg/errors"
)

// hashStore is the subset of the redis client the quantity store relies on.
type hashStore interface {
	CartKey(userID string) string
	IncrFieldWithCeiling(ctx context.Context, key, field string, delta, ceiling int64) (int64, bool, error)
	SetFieldWithCeiling(ctx context.Context, key, field string, value, ceiling int64) (int64, bool, error)
	HashDel(ctx context.Context, key string, fields ...string) error
	HashGetAll(ctx context.Context, key string) (map[string]string, error)
	HashLen(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// Store persists per-user product-quantity mappings as redis hashes.
// One hash per user; fields are product ids, values are positive integers.
type Store struct {
	kv  hashStore
	ttl time.Duration
}

// NewStore builds a quantity store on top of the provided redis client.
// A non-positive ttl disables record expiry.
func NewStore(kv hashStore, ttl time.Duration) *Store {
	return &Store{kv: kv, ttl: ttl}
}

// MergeQuantity atomically adds delta to the stored quantity for the product,
// refusing the write when the merged value would exceed ceiling. It returns
// the merged value and whether the write was applied.
func (s *Store) MergeQuantity(ctx context.Context, userID, productID string, delta, ceiling int64) (int64, bool, error) {
	key := s.kv.CartKey(userID)
	merged, applied, err := s.kv.IncrFieldWithCeiling(ctx, key, productID, delta, ceiling)
	if err != nil {
		return 0, false, storeUnavailable(err)
	}
	if applied {
		if err := s.refreshTTL(ctx, key); err != nil {
			return 0, false, err
		}
	}
	return merged, applied, nil
}

// ReplaceQuantity atomically sets the stored quantity for the product to an
// absolute value, refusing the write when value exceeds ceiling.
func (s *Store) ReplaceQuantity(ctx context.Context, userID, productID string, value, ceiling int64) (int64, bool, error) {
	key := s.kv.CartKey(userID)
	stored, applied, err := s.kv.SetFieldWithCeiling(ctx, key, productID, value, ceiling)
	if err != nil {
		return 0, false, storeUnavailable(err)
	}
	if applied {
		if err := s.refreshTTL(ctx, key); err != nil {
			return 0, false, err
		}
	}
	return stored, applied, nil
}

// RemoveEntry deletes the product field from the user's record. Removing an
// absent field is a no-op, not an error.
func (s *Store) RemoveEntry(ctx context.Context, userID, productID string) error {
	key := s.kv.CartKey(userID)
	if err := s.kv.HashDel(ctx, key, productID); err != nil {
		return storeUnavailable(err)
	}
	return s.refreshTTL(ctx, key)
}

// Entries returns the full product-quantity mapping for the user. A user with
// no record yields an empty map.
func (s *Store) Entries(ctx context.Context, userID string) (map[string]int64, error) {
	raw, err := s.kv.HashGetAll(ctx, s.kv.CartKey(userID))
	if err != nil {
		return nil, storeUnavailable(err)
	}
	entries := make(map[string]int64, len(raw))
	for productID, value := range raw {
		quantity, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "corrupt cart entry for product "+productID)
		}
		entries[productID] = quantity
	}
	return entries, nil
}

// CountEntries returns the number of distinct product fields in the record.
func (s *Store) CountEntries(ctx context.Context, userID string) (int64, error) {
	count, err := s.kv.HashLen(ctx, s.kv.CartKey(userID))
	if err != nil {
		return 0, storeUnavailable(err)
	}
	return count, nil
}

func (s *Store) refreshTTL(ctx context.Context, key string) error {
	if s.ttl <= 0 {
		return nil
	}
	if err := s.kv.Expire(ctx, key, s.ttl); err != nil {
		return storeUnavailable(err)
	}
	return nil
}

func storeUnavailable(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart store unavailable")
}
