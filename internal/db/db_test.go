package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestInitPostgresEmptyURLDisablesArchive(t *testing.T) {
	t.Cleanup(func() { Pool = nil })

	InitPostgres(context.Background(), "")
	if Pool != nil {
		t.Fatal("expected nil pool without DATABASE_URL")
	}
}

func TestInitPostgresConnectFailureDisablesArchive(t *testing.T) {
	origNewPool := newPool
	t.Cleanup(func() {
		newPool = origNewPool
		Pool = nil
	})

	newPool = func(ctx context.Context, url string) (*pgxpool.Pool, error) {
		return nil, errors.New("bad dsn")
	}

	InitPostgres(context.Background(), "postgres://bad")
	if Pool != nil {
		t.Fatal("expected nil pool when connect fails")
	}
}
