package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCreateMigrationWritesPair(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "migrations")
	now := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

	upPath, downPath, err := createMigration(dir, "add_rounds", now)
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if filepath.Base(upPath) != "20240501123000_add_rounds.up.sql" {
		t.Fatalf("unexpected up path %s", upPath)
	}
	for _, path := range []string{upPath, downPath} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to exist: %v", path, err)
		}
	}
	if _, _, err := createMigration(dir, "add_rounds", now); err == nil {
		t.Fatalf("expected existing migration to be refused")
	}
}

func TestCreateMigrationRejectsBadNames(t *testing.T) {
	for _, name := range []string{"", "  ", "add rounds", "../escape"} {
		if _, _, err := createMigration(t.TempDir(), name, time.Now()); err == nil {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
}
