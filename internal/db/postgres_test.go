package db

import (
	"os"
	"testing"
)

func TestOpen_InvalidDSN(t *testing.T) {
	for _, dsn := range []string{"", "invalid-dsn", "://localhost/test"} {
		db, err := Open(dsn)
		if err == nil {
			if db != nil {
				db.Close()
			}
			t.Errorf("Open(%q): want error", dsn)
			continue
		}
		if db != nil {
			t.Errorf("Open(%q): db must be nil on error", dsn)
		}
	}
}

func TestOpen(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	var result int
	if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
		t.Fatalf("query: %v", err)
	}
	if result != 1 {
		t.Errorf("SELECT 1 = %d", result)
	}
}
