package registry

import (
	"context"
	"errors"

	"credtech/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

const createArtifactsTable = `
CREATE TABLE IF NOT EXISTS model_artifacts (
    ticker        TEXT PRIMARY KEY,
    artifact_blob BYTEA NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps one row per ticker in model_artifacts.
type PostgresStore struct {
	pool   pool
	tracer trace.Tracer
}

func NewPostgresStore(pool pool, tracer trace.Tracer) *PostgresStore {
	return &PostgresStore{pool: pool, tracer: tracer}
}

// EnsureSchema creates the artifacts table when it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, span := s.tracer.Start(ctx, "model-store.postgres.ensure-schema")
	defer span.End()

	_, err := s.pool.Exec(ctx, createArtifactsTable)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, ticker string) ([]byte, error) {
	_, span := s.tracer.Start(ctx, "model-store.postgres.get")
	defer span.End()

	var blob []byte
	err := s.pool.QueryRow(ctx, `SELECT artifact_blob FROM model_artifacts WHERE ticker = $1`, storageKey(ticker)).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrArtifactNotFound
	}
	if err != nil {
		return nil, err
	}
	return blob, nil
}

func (s *PostgresStore) Put(ctx context.Context, ticker string, blob []byte) error {
	_, span := s.tracer.Start(ctx, "model-store.postgres.put")
	defer span.End()

	_, err := s.pool.Exec(ctx, `
INSERT INTO model_artifacts (ticker, artifact_blob, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (ticker) DO UPDATE SET
    artifact_blob = EXCLUDED.artifact_blob,
    updated_at = EXCLUDED.updated_at`,
		storageKey(ticker), blob,
	)
	return err
}
