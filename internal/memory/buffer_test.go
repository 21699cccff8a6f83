package memory

import (
	"context"
	"testing"

	"github.com/guilhermegouw/chatmem/internal/message"
	"github.com/guilhermegouw/chatmem/internal/summary"
	"github.com/guilhermegouw/chatmem/internal/tokens"
)

// flat prices every message at 100 tokens.
var flat = tokens.Func(func(*message.Message) int { return 100 })

func testMsg(sessionID string, seq int64) *message.Message {
	return &message.Message{SessionID: sessionID, Seq: seq, Role: message.RoleUser, Content: "hi"}
}

func TestBuffer_Stage(t *testing.T) {
	t.Run("accumulates tokens in order", func(t *testing.T) {
		b := NewBuffer("s", flat)
		for seq := int64(1); seq <= 3; seq++ {
			if err := b.Stage(testMsg("s", seq)); err != nil {
				t.Fatalf("Stage(%d) error = %v", seq, err)
			}
		}
		if b.Len() != 3 {
			t.Errorf("Len() = %d, want 3", b.Len())
		}
		if b.Tokens() != 300 {
			t.Errorf("Tokens() = %d, want 300", b.Tokens())
		}
	})

	t.Run("rejects other sessions", func(t *testing.T) {
		b := NewBuffer("s", flat)
		if err := b.Stage(testMsg("other", 1)); err == nil {
			t.Error("expected error staging another session's message")
		}
		if b.Len() != 0 {
			t.Errorf("Len() = %d, want 0", b.Len())
		}
	})

	t.Run("rejects out of order seq", func(t *testing.T) {
		b := NewBuffer("s", flat)
		if err := b.Stage(testMsg("s", 2)); err != nil {
			t.Fatalf("Stage() error = %v", err)
		}
		if err := b.Stage(testMsg("s", 2)); err == nil {
			t.Error("expected error for duplicate seq")
		}
		if err := b.Stage(testMsg("s", 1)); err == nil {
			t.Error("expected error for earlier seq")
		}
		if b.Tokens() != 100 {
			t.Errorf("Tokens() = %d, want 100", b.Tokens())
		}
	})

	t.Run("rejects seq covered by the summary", func(t *testing.T) {
		b := NewBuffer("s", flat)
		_ = b.Stage(testMsg("s", 1)) //nolint:errcheck // checked by the other subtests
		if err := b.Commit("sum", 1); err != nil {
			t.Fatalf("Commit() error = %v", err)
		}
		if err := b.Stage(testMsg("s", 1)); err == nil {
			t.Error("expected error staging a covered seq")
		}
	})

	t.Run("staged copy is detached", func(t *testing.T) {
		b := NewBuffer("s", flat)
		_ = b.Stage(testMsg("s", 1)) //nolint:errcheck // checked by the other subtests
		got := b.Staged()
		got[0] = testMsg("s", 99)
		if b.Staged()[0].Seq != 1 {
			t.Error("mutating Staged() result changed the buffer")
		}
	})
}

func TestBuffer_Commit(t *testing.T) {
	t.Run("keeps messages staged after the snapshot", func(t *testing.T) {
		b := NewBuffer("s", flat)
		for seq := int64(1); seq <= 3; seq++ {
			_ = b.Stage(testMsg("s", seq)) //nolint:errcheck // seqs are increasing
		}
		snap := b.Snapshot()
		_ = b.Stage(testMsg("s", 4)) //nolint:errcheck // seqs are increasing

		if err := b.Commit("folded", snap.HighSeq()); err != nil {
			t.Fatalf("Commit() error = %v", err)
		}
		if b.Summary() != "folded" || b.CoveredUpTo() != 3 {
			t.Errorf("summary = %q covered = %d, want folded/3", b.Summary(), b.CoveredUpTo())
		}
		staged := b.Staged()
		if len(staged) != 1 || staged[0].Seq != 4 {
			t.Fatalf("staged = %v, want only seq 4", staged)
		}
		if b.Tokens() != 100 {
			t.Errorf("Tokens() = %d, want 100", b.Tokens())
		}
	})

	t.Run("refuses to move coverage backwards", func(t *testing.T) {
		b := NewBuffer("s", flat)
		_ = b.Stage(testMsg("s", 1)) //nolint:errcheck // seqs are increasing
		_ = b.Stage(testMsg("s", 2)) //nolint:errcheck // seqs are increasing
		if err := b.Commit("a", 2); err != nil {
			t.Fatalf("Commit() error = %v", err)
		}
		if err := b.Commit("b", 1); err == nil {
			t.Error("expected error moving coverage backwards")
		}
		if b.Summary() != "a" {
			t.Errorf("Summary() = %q, want unchanged", b.Summary())
		}
	})

	t.Run("refuses coverage that skips staged messages", func(t *testing.T) {
		b := NewBuffer("s", flat)
		_ = b.Stage(testMsg("s", 1)) //nolint:errcheck // seqs are increasing
		if err := b.Commit("x", 5); err == nil {
			t.Error("expected error for coverage past the stage")
		}
		if b.Len() != 1 || b.CoveredUpTo() != 0 {
			t.Errorf("buffer changed: len=%d covered=%d", b.Len(), b.CoveredUpTo())
		}
	})

	t.Run("snapshot of empty buffer keeps coverage", func(t *testing.T) {
		b := NewBuffer("s", flat)
		snap := b.Snapshot()
		if snap.HighSeq() != 0 || len(snap.Messages) != 0 {
			t.Errorf("snapshot = %+v, want empty", snap)
		}
	})
}

func TestBuffer_Rebuild(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	msgs := message.NewSQLiteStore(database.Conn())
	sums := summary.NewSQLiteStore(database)

	for range 5 {
		if _, err := msgs.Append(ctx, "s", message.RoleUser, "hello"); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	if err := sums.Save(ctx, &summary.State{SessionID: "s", Text: "first three", CoveredUpTo: 3}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	b := NewBuffer("s", flat)
	if err := b.Rebuild(ctx, msgs, sums); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if b.Summary() != "first three" || b.CoveredUpTo() != 3 {
		t.Errorf("summary = %q covered = %d", b.Summary(), b.CoveredUpTo())
	}
	staged := b.Staged()
	if len(staged) != 2 || staged[0].Seq != 4 || staged[1].Seq != 5 {
		t.Errorf("staged seqs wrong: %v", staged)
	}
	if b.Tokens() != 200 {
		t.Errorf("Tokens() = %d, want 200", b.Tokens())
	}

	t.Run("failure leaves buffer unchanged", func(t *testing.T) {
		_ = database.Close() //nolint:errcheck // forcing a read failure
		if err := b.Rebuild(ctx, msgs, sums); err == nil {
			t.Fatal("expected error on closed database")
		}
		if b.Summary() != "first three" || b.Len() != 2 || b.Tokens() != 200 {
			t.Errorf("buffer changed after failed rebuild")
		}
	})
}
