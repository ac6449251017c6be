package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNoDatabaseURL = errors.New("DATABASE_URL not set")

var (
	newPool  = pgxpool.New
	pingPool = func(ctx context.Context, p *pgxpool.Pool) error {
		return p.Ping(ctx)
	}
)

// InitPostgres opens a pool and verifies it with a ping. The caller owns the
// returned pool and closes it.
func InitPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, ErrNoDatabaseURL
	}
	p, err := newPool(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pingPool(ctx, p); err != nil {
		p.Close()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	log.Println("Connected to Postgres")
	return p, nil
}
