package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/luminahome/lumina-core/internal/infrastructure/database"
	_ "github.com/luminahome/lumina-core/migrations" // embedded schema
)

func testRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "history.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	return NewRepository(db.DB)
}

func TestRecordAndRecent(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		action := map[string]any{
			"action": "turn_on",
			"device": fmt.Sprintf("light-%d", i),
			"n":      float64(i),
		}
		if err := repo.Record(ctx, "alice", action); err != nil {
			t.Fatalf("Record(%d) error: %v", i, err)
		}
	}
	if err := repo.Record(ctx, "bob", map[string]any{"action": "toggle"}); err != nil {
		t.Fatalf("Record(bob) error: %v", err)
	}

	entries, err := repo.Recent(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Recent() returned %d entries, want 3", len(entries))
	}
	// Newest first
	if entries[0].Action["n"] != float64(3) {
		t.Errorf("first entry n = %v, want 3", entries[0].Action["n"])
	}
	if entries[0].DeviceID != "light-3" {
		t.Errorf("DeviceID = %q, want light-3", entries[0].DeviceID)
	}
	if entries[0].CreatedAt.IsZero() {
		t.Error("CreatedAt not populated")
	}
}

func TestRecentLimit(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := repo.Record(ctx, "alice", map[string]any{"n": float64(i)}); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}

	entries, err := repo.Recent(ctx, "alice", 2)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Recent(limit=2) returned %d entries", len(entries))
	}
}

func TestRecordValidation(t *testing.T) {
	repo := testRepository(t)

	if err := repo.Record(context.Background(), "", map[string]any{}); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("expected ErrInvalidEntry, got %v", err)
	}
	if _, err := repo.Recent(context.Background(), "", 10); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("expected ErrInvalidEntry, got %v", err)
	}
}

func TestFetchShapesContextData(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	for i := 1; i <= 12; i++ {
		if err := repo.Record(ctx, "alice", map[string]any{"n": float64(i)}); err != nil {
			t.Fatalf("Record(%d) error: %v", i, err)
		}
	}

	data, err := repo.Fetch(ctx, "alice")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}

	actions, ok := data["recent_actions"].([]any)
	if !ok {
		t.Fatalf("recent_actions has type %T", data["recent_actions"])
	}
	if len(actions) != 10 {
		t.Fatalf("Fetch() returned %d actions, want 10", len(actions))
	}

	// Chronological: oldest of the window first, most recent last.
	first := actions[0].(map[string]any)
	last := actions[len(actions)-1].(map[string]any)
	if first["n"] != float64(3) {
		t.Errorf("first action n = %v, want 3", first["n"])
	}
	if last["n"] != float64(12) {
		t.Errorf("last action n = %v, want 12", last["n"])
	}
}

func TestFetchAnonymous(t *testing.T) {
	repo := testRepository(t)

	data, err := repo.Fetch(context.Background(), "")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if actions := data["recent_actions"].([]any); len(actions) != 0 {
		t.Errorf("anonymous fetch returned %d actions", len(actions))
	}
}

func TestPrune(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	if err := repo.Record(ctx, "alice", map[string]any{"action": "turn_on"}); err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	// Backdate the entry beyond the retention window.
	old := time.Now().UTC().Add(-48 * time.Hour).Format(time.RFC3339)
	if _, err := repo.db.ExecContext(ctx, "UPDATE action_history SET created_at = ?", old); err != nil {
		t.Fatalf("backdating entry: %v", err)
	}

	deleted, err := repo.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune() error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Prune() deleted %d rows, want 1", deleted)
	}

	if _, err := repo.Prune(ctx, 0); err == nil {
		t.Error("expected error for non-positive retention")
	}
}
