package repository

import (
	"context"
	"encoding/json"
	"time"

	"perp-pulse/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

const createSignalsTable = `
CREATE TABLE IF NOT EXISTS sentiment_signals (
    id          TEXT        PRIMARY KEY,
    source      TEXT        NOT NULL,
    headline    TEXT        NOT NULL,
    summary     TEXT,
    url         TEXT,
    sentiment   TEXT        NOT NULL,
    score       NUMERIC     NOT NULL,
    confidence  NUMERIC     NOT NULL,
    tags        JSONB,
    metadata    JSONB,
    created_at  TIMESTAMPTZ NOT NULL,
    archived_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_sentiment_signals_created_at
    ON sentiment_signals (created_at DESC);
`

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// SignalRepository archives committed sentiment signals. The archive is an
// append-only history: re-archiving a known id is a no-op.
type SignalRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewSignalRepository(pool PgxPool, tracer trace.Tracer) *SignalRepository {
	return &SignalRepository{pool: pool, tracer: tracer}
}

func (r *SignalRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "signal-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createSignalsTable)
	return err
}

func (r *SignalRepository) ArchiveSignals(ctx context.Context, signals []domain.SentimentSignal) error {
	if len(signals) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "signal-repo.archive-signals")
	defer span.End()

	batch := &pgx.Batch{}
	for _, s := range signals {
		tags, _ := json.Marshal(s.Tags)
		metadata, _ := json.Marshal(s.Metadata)
		batch.Queue(
			`INSERT INTO sentiment_signals (id, source, headline, summary, url, sentiment, score, confidence, tags, metadata, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 ON CONFLICT (id) DO NOTHING`,
			s.ID, s.Source, s.Headline, s.Summary, s.URL, string(s.Sentiment),
			s.Score, s.Confidence, tags, metadata, time.UnixMilli(s.CreatedAt),
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range signals {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// RecentSignals returns archived signals newest first.
func (r *SignalRepository) RecentSignals(ctx context.Context, limit int) ([]domain.SentimentSignal, error) {
	_, span := r.tracer.Start(ctx, "signal-repo.recent-signals")
	defer span.End()

	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, source, headline, summary, url, sentiment, score, confidence, tags, metadata, created_at
		 FROM sentiment_signals
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []domain.SentimentSignal
	for rows.Next() {
		var (
			s         domain.SentimentSignal
			sentiment string
			tags      []byte
			metadata  []byte
			createdAt time.Time
		)
		if err := rows.Scan(&s.ID, &s.Source, &s.Headline, &s.Summary, &s.URL, &sentiment, &s.Score, &s.Confidence, &tags, &metadata, &createdAt); err != nil {
			return nil, err
		}
		s.Sentiment = domain.SentimentTone(sentiment)
		s.CreatedAt = createdAt.UnixMilli()
		if len(tags) > 0 {
			_ = json.Unmarshal(tags, &s.Tags)
		}
		if len(metadata) > 0 {
			_ = json.Unmarshal(metadata, &s.Metadata)
		}
		signals = append(signals, s)
	}
	return signals, rows.Err()
}
