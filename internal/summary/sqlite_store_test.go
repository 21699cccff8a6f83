package summary

import (
	"context"
	"errors"
	"testing"

	"github.com/guilhermegouw/chatmem/internal/db"
	"github.com/guilhermegouw/chatmem/internal/message"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.Open(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() }) //nolint:errcheck // Intentionally ignoring close error in test cleanup

	return database
}

// seedMessages appends n user messages to a session.
func seedMessages(t *testing.T, database *db.DB, sessionID string, n int) {
	t.Helper()
	msgs := message.NewSQLiteStore(database.Conn())
	for range n {
		if _, err := msgs.Append(context.Background(), sessionID, message.RoleUser, "hello"); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
}

func TestSQLiteStore_Get(t *testing.T) {
	database := setupTestDB(t)
	store := NewSQLiteStore(database)

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_Save(t *testing.T) {
	database := setupTestDB(t)
	store := NewSQLiteStore(database)
	ctx := context.Background()
	seedMessages(t, database, "sess", 5)

	t.Run("creates summary", func(t *testing.T) {
		if err := store.Save(ctx, &State{SessionID: "sess", Text: "first", CoveredUpTo: 2}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := store.Get(ctx, "sess")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Text != "first" || got.CoveredUpTo != 2 {
			t.Errorf("Get() = %+v, want text=first covered=2", got)
		}
		if got.UpdatedAt.IsZero() {
			t.Error("UpdatedAt should not be zero")
		}
	})

	t.Run("advances coverage", func(t *testing.T) {
		if err := store.Save(ctx, &State{SessionID: "sess", Text: "second", CoveredUpTo: 4}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		got, err := store.Get(ctx, "sess")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Text != "second" || got.CoveredUpTo != 4 {
			t.Errorf("Get() = %+v, want text=second covered=4", got)
		}
	})

	t.Run("same coverage rewrites text", func(t *testing.T) {
		if err := store.Save(ctx, &State{SessionID: "sess", Text: "rewritten", CoveredUpTo: 4}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	})

	t.Run("refuses to move backwards", func(t *testing.T) {
		err := store.Save(ctx, &State{SessionID: "sess", Text: "stale", CoveredUpTo: 3})
		if !errors.Is(err, ErrRegression) {
			t.Fatalf("Save() error = %v, want ErrRegression", err)
		}
		got, err := store.Get(ctx, "sess")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Text != "rewritten" || got.CoveredUpTo != 4 {
			t.Errorf("row changed after refused save: %+v", got)
		}
	})

	t.Run("refuses to cover unstored messages", func(t *testing.T) {
		err := store.Save(ctx, &State{SessionID: "sess", Text: "future", CoveredUpTo: 6})
		if !errors.Is(err, ErrRegression) {
			t.Fatalf("Save() error = %v, want ErrRegression", err)
		}
	})

	t.Run("refuses coverage for a session without messages", func(t *testing.T) {
		err := store.Save(ctx, &State{SessionID: "ghost", Text: "x", CoveredUpTo: 1})
		if !errors.Is(err, ErrRegression) {
			t.Fatalf("Save() error = %v, want ErrRegression", err)
		}
		if _, err := store.Get(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(ghost) error = %v, want ErrNotFound", err)
		}
	})
}
