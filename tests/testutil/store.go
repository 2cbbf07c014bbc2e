package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/facultyflow/internal/model"
	"github.com/nhle/facultyflow/internal/store"
)

// NewTestStore opens an in-memory cache with migrations applied. It is
// closed when the test ends.
func NewTestStore(t testing.TB) *store.SQLiteStore {
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

// SeedSnapshot stores tasks as viewerID's last fetched list.
func SeedSnapshot(t testing.TB, s store.Store, viewerID int64, tasks ...model.Task) {
	t.Helper()
	if err := s.SaveSnapshot(context.Background(), viewerID, tasks, time.Now()); err != nil {
		t.Fatalf("seeding snapshot: %v", err)
	}
}
