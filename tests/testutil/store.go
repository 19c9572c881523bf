// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"

	"github.com/nhle/mailshot/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied
// and the built-in templates seeded. It automatically closes the store when
// the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}
