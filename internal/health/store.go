package health

import (
	"context"
	"fmt"

	"github.com/zsiec/abxclient/internal/store"
)

// StoreChecker verifies the packet store answers queries. For the redis
// backend this is a round trip to the server.
type StoreChecker struct {
	store store.Store
	name  string
}

// NewStoreChecker creates a checker for s.
func NewStoreChecker(s store.Store, backend string) *StoreChecker {
	return &StoreChecker{store: s, name: "store_" + backend}
}

// Name returns the name of the checker.
func (s *StoreChecker) Name() string {
	return s.name
}

// Check performs one Len query.
func (s *StoreChecker) Check(ctx context.Context) error {
	if _, err := s.store.Len(ctx); err != nil {
		return fmt.Errorf("store query failed: %w", err)
	}
	return nil
}
