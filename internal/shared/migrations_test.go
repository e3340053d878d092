package shared

import (
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) < 2 {
			t.Fatalf("expected at least two migrations, got %d", len(migrations))
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()
		ConfigureDatabase(db, 1, 1)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		for _, table := range []string{"playlist_runs", "playlist_runs_sequence", "feedback"} {
			if _, err := db.Exec("SELECT 1 FROM " + table + " LIMIT 1"); err != nil {
				t.Errorf("%s table should exist after migrations: %v", table, err)
			}
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		if _, err := db.Exec("SELECT 1 FROM feedback LIMIT 1"); err == nil {
			t.Error("feedback table should be gone after rollback")
		}
		if _, err := db.Exec("SELECT 1 FROM playlist_runs LIMIT 1"); err != nil {
			t.Errorf("playlist_runs should survive a single rollback: %v", err)
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()
		ConfigureDatabase(db, 1, 1)

		for range 2 {
			if err := RunMigrations(db); err != nil {
				t.Fatalf("failed to run migrations: %v", err)
			}
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}

		migrations, _ := loadMigrations()
		if count != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), count)
		}
	})

	t.Run("splitStatements", func(t *testing.T) {
		got := splitStatements("-- heading\nCREATE TABLE a (id INT);\n\nCREATE TABLE b (id INT); -- trailing\n")
		if len(got) != 2 {
			t.Fatalf("expected 2 statements, got %d: %q", len(got), got)
		}
		if got[1] != "CREATE TABLE b (id INT)" {
			t.Errorf("unexpected second statement %q", got[1])
		}
	})
}
