package db

import (
	"context"
	"log"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Pool *pgxpool.Pool

var (
	newPool = func(ctx context.Context, url string) (*pgxpool.Pool, error) {
		return pgxpool.New(ctx, url)
	}
	pingPool = func(ctx context.Context, pool *pgxpool.Pool) error {
		return pool.Ping(ctx)
	}
)

// InitPostgres connects the process-wide pool. Postgres only backs the
// optional signal archive, so a missing or unreachable database downgrades
// to a warning and a nil Pool instead of failing startup.
func InitPostgres(ctx context.Context, url string) {
	if strings.TrimSpace(url) == "" {
		Pool = nil
		return
	}

	pool, err := newPool(ctx, url)
	if err != nil {
		log.Printf("failed to create Postgres pool, signal archive disabled: %v", err)
		Pool = nil
		return
	}
	if err := pingPool(ctx, pool); err != nil {
		log.Printf("failed to connect to Postgres, signal archive disabled: %v", err)
		pool.Close()
		Pool = nil
		return
	}
	Pool = pool
	log.Println("Connected to Postgres")
}
