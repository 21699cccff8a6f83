package message

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/guilhermegouw/chatmem/internal/db"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	tmpDir := t.TempDir()
	database, err := db.Open(tmpDir + "/test.db")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() }) //nolint:errcheck // Intentionally ignoring close error in test cleanup

	return database
}

func TestSQLiteStore_Append(t *testing.T) {
	database := setupTestDB(t)
	store := NewSQLiteStore(database.Conn())
	ctx := context.Background()

	t.Run("assigns increasing seq per session", func(t *testing.T) {
		for want := int64(1); want <= 3; want++ {
			msg, err := store.Append(ctx, "sess-a", RoleUser, fmt.Sprintf("turn %d", want))
			if err != nil {
				t.Fatalf("Append() error = %v", err)
			}
			if msg.Seq != want {
				t.Errorf("Seq = %d, want %d", msg.Seq, want)
			}
			if msg.CreatedAt.IsZero() {
				t.Error("CreatedAt should not be zero")
			}
		}
	})

	t.Run("sessions are numbered independently", func(t *testing.T) {
		msg, err := store.Append(ctx, "sess-b", RoleAssistant, "first in b")
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if msg.Seq != 1 {
			t.Errorf("Seq = %d, want 1", msg.Seq)
		}
	})

	t.Run("rejects unknown role without writing", func(t *testing.T) {
		before, err := store.MaxSeq(ctx, "sess-c")
		if err != nil {
			t.Fatalf("MaxSeq() error = %v", err)
		}
		if _, err := store.Append(ctx, "sess-c", Role("system"), "nope"); err == nil {
			t.Fatal("Append() expected error for unknown role")
		}
		after, err := store.MaxSeq(ctx, "sess-c")
		if err != nil {
			t.Fatalf("MaxSeq() error = %v", err)
		}
		if after != before {
			t.Errorf("MaxSeq changed from %d to %d after failed append", before, after)
		}
	})

	t.Run("fails on closed database", func(t *testing.T) {
		closed := setupTestDB(t)
		closedStore := NewSQLiteStore(closed.Conn())
		_ = closed.Close() //nolint:errcheck // Intentionally ignoring close error in test

		if _, err := closedStore.Append(ctx, "sess", RoleUser, "x"); err == nil {
			t.Error("Append() expected error on closed database")
		}
	})
}

func TestSQLiteStore_ConcurrentAppend(t *testing.T) {
	database := setupTestDB(t)
	store := NewSQLiteStore(database.Conn())
	ctx := context.Background()

	const writers = 8
	const perWriter = 10

	var wg sync.WaitGroup
	errs := make(chan error, writers*perWriter)
	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWriter {
				if _, err := store.Append(ctx, "shared", RoleUser, fmt.Sprintf("w%d-%d", w, i)); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Append() error = %v", err)
	}

	msgs, err := store.Load(ctx, "shared")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(msgs) != writers*perWriter {
		t.Fatalf("Load() returned %d messages, want %d", len(msgs), writers*perWriter)
	}
	for i, m := range msgs {
		if m.Seq != int64(i+1) {
			t.Fatalf("message %d has seq %d, want %d (gap or duplicate)", i, m.Seq, i+1)
		}
	}
}

func TestSQLiteStore_Load(t *testing.T) {
	database := setupTestDB(t)
	store := NewSQLiteStore(database.Conn())
	ctx := context.Background()

	contents := []string{"one", "two", "three", "four"}
	for i, c := range contents {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		if _, err := store.Append(ctx, "sess-1", role, c); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	t.Run("returns all messages in seq order", func(t *testing.T) {
		msgs, err := store.Load(ctx, "sess-1")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(msgs) != len(contents) {
			t.Fatalf("Load() returned %d messages, want %d", len(msgs), len(contents))
		}
		for i, m := range msgs {
			if m.Content != contents[i] {
				t.Errorf("msgs[%d].Content = %q, want %q", i, m.Content, contents[i])
			}
			if m.SessionID != "sess-1" {
				t.Errorf("msgs[%d].SessionID = %q, want %q", i, m.SessionID, "sess-1")
			}
		}
		if msgs[1].Role != RoleAssistant {
			t.Errorf("msgs[1].Role = %q, want %q", msgs[1].Role, RoleAssistant)
		}
	})

	t.Run("LoadAfter skips covered messages", func(t *testing.T) {
		msgs, err := store.LoadAfter(ctx, "sess-1", 2)
		if err != nil {
			t.Fatalf("LoadAfter() error = %v", err)
		}
		if len(msgs) != 2 {
			t.Fatalf("LoadAfter() returned %d messages, want 2", len(msgs))
		}
		if msgs[0].Seq != 3 || msgs[1].Seq != 4 {
			t.Errorf("LoadAfter() seqs = [%d %d], want [3 4]", msgs[0].Seq, msgs[1].Seq)
		}
	})

	t.Run("unknown session is empty", func(t *testing.T) {
		msgs, err := store.Load(ctx, "missing")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(msgs) != 0 {
			t.Errorf("Load() returned %d messages, want 0", len(msgs))
		}
	})
}

func TestSQLiteStore_MaxSeqAndListSessions(t *testing.T) {
	database := setupTestDB(t)
	store := NewSQLiteStore(database.Conn())
	ctx := context.Background()

	seq, err := store.MaxSeq(ctx, "empty")
	if err != nil {
		t.Fatalf("MaxSeq() error = %v", err)
	}
	if seq != 0 {
		t.Errorf("MaxSeq() = %d, want 0", seq)
	}

	ids, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("ListSessions() = %v, want empty", ids)
	}

	for _, id := range []string{"beta", "alpha", "beta"} {
		if _, err := store.Append(ctx, id, RoleUser, "hi"); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	seq, err = store.MaxSeq(ctx, "beta")
	if err != nil {
		t.Fatalf("MaxSeq() error = %v", err)
	}
	if seq != 2 {
		t.Errorf("MaxSeq(beta) = %d, want 2", seq)
	}

	ids, err = store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "alpha" || ids[1] != "beta" {
		t.Errorf("ListSessions() = %v, want [alpha beta]", ids)
	}
}
