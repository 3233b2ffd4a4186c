package database

import (
	"context"
	"embed"
	"testing"
)

//go:embed testdata/*.sql
var testMigrationsFS embed.FS

// withTestMigrations points the package at the testdata migrations for the
// duration of one test.
func withTestMigrations(t *testing.T, fsys embed.FS, dir string) {
	t.Helper()

	origFS, origDir := MigrationsFS, MigrationsDir
	t.Cleanup(func() {
		MigrationsFS = origFS
		MigrationsDir = origDir
	})
	MigrationsFS = fsys
	MigrationsDir = dir
}

func TestMigrate(t *testing.T) {
	withTestMigrations(t, testMigrationsFS, "testdata")
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	// Both up migrations applied in version order: the second adds the
	// confidence column the insert below needs.
	_, err := db.ExecContext(ctx,
		"INSERT INTO action_history (user_id, device_id, action, confidence) VALUES (?, ?, ?, ?)",
		"user-1", "living_room_light", `{"action":"turn_on"}`, 0.9,
	)
	if err != nil {
		t.Fatalf("insert into migrated schema: %v", err)
	}

	var action string
	err = db.QueryRowContext(ctx,
		"SELECT action FROM action_history WHERE user_id = ?", "user-1",
	).Scan(&action)
	if err != nil {
		t.Fatalf("reading back action: %v", err)
	}
	if action != `{"action":"turn_on"}` {
		t.Errorf("action = %q, want the inserted JSON blob", action)
	}

	var recorded int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&recorded); err != nil {
		t.Fatalf("counting schema_migrations: %v", err)
	}
	if recorded != 2 {
		t.Errorf("recorded migrations = %d, want 2 (down files skipped)", recorded)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	withTestMigrations(t, testMigrationsFS, "testdata")
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("first Migrate() error = %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	var recorded int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&recorded); err != nil {
		t.Fatalf("counting schema_migrations: %v", err)
	}
	if recorded != 2 {
		t.Errorf("recorded migrations = %d after re-run, want 2", recorded)
	}
}

func TestMigrateNoMigrations(t *testing.T) {
	var emptyFS embed.FS
	withTestMigrations(t, emptyFS, ".")
	db := openTestDB(t)

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() with no embedded migrations error = %v", err)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion string
		wantName    string
		wantOk      bool
	}{
		{"20260801_090000_create_action_history.up.sql", "20260801_090000", "create_action_history", true},
		{"20260801_090000_create_action_history.down.sql", "", "", false},
		{"20260801_090000.up.sql", "", "", false},
		{"README.md", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOk {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOk)
			}
			if version != tt.wantVersion || name != tt.wantName {
				t.Errorf("parsed (%q, %q), want (%q, %q)", version, name, tt.wantVersion, tt.wantName)
			}
		})
	}
}
