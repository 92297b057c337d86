package database_test

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/database"
)

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := database.Open("oracle", "x"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestOpen_SQLiteMemory(t *testing.T) {
	db, err := database.Open("sqlite", "file::memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer database.Close(db)

	if database.SupportsRowLocks(db) {
		t.Error("sqlite must not use row locks")
	}
	if err := database.Ping(context.Background(), db); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"nil":       {nil, false},
		"gorm":      {gorm.ErrDuplicatedKey, true},
		"sqlite":    {errors.New("UNIQUE constraint failed: users.email"), true},
		"postgres":  {errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_email"`), true},
		"mysql":     {errors.New("Error 1062: Duplicate entry 'a' for key 'email'"), true},
		"unrelated": {errors.New("connection refused"), false},
	}
	for name, tc := range cases {
		if got := database.IsUniqueViolation(tc.err); got != tc.want {
			t.Errorf("%s: got %v, want %v", name, got, tc.want)
		}
	}
}
