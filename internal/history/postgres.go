package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"call-quality-go/internal/types"
)

// PostgresStore persists the history in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS call_records (
			seq BIGSERIAL PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			call_id TEXT NOT NULL,
			customer_name TEXT NOT NULL,
			transcript_raw TEXT NOT NULL,
			transcript_clean TEXT NOT NULL,
			sentiment TEXT NOT NULL,
			sentiment_confidence DOUBLE PRECISION NOT NULL,
			quality_score DOUBLE PRECISION NOT NULL,
			review_threshold DOUBLE PRECISION NOT NULL,
			needs_review BOOLEAN NOT NULL,
			review_flags TEXT NOT NULL,
			supervisor_summary TEXT NOT NULL,
			customer_message TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_call_records_call_id ON call_records (call_id);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, rec types.CallRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO call_records (created_at, call_id, customer_name, transcript_raw, transcript_clean,
			sentiment, sentiment_confidence, quality_score, review_threshold,
			needs_review, review_flags, supervisor_summary, customer_message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		rec.Timestamp,
		rec.CallID,
		rec.CustomerName,
		rec.TranscriptRaw,
		rec.TranscriptClean,
		string(rec.Sentiment),
		rec.SentimentConfidence,
		rec.QualityScore,
		rec.ReviewThreshold,
		rec.NeedsReview,
		rec.ReviewFlags,
		rec.SupervisorSummary,
		rec.CustomerMessage,
	)
	if err != nil {
		return fmt.Errorf("append call %s: %w", rec.CallID, err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]types.CallRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT created_at, call_id, customer_name, transcript_raw, transcript_clean,
			sentiment, sentiment_confidence, quality_score, review_threshold,
			needs_review, review_flags, supervisor_summary, customer_message
		 FROM call_records ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list calls: %w", err)
	}
	defer rows.Close()

	var out []types.CallRecord
	for rows.Next() {
		var rec types.CallRecord
		var label string
		if err := rows.Scan(&rec.Timestamp, &rec.CallID, &rec.CustomerName, &rec.TranscriptRaw, &rec.TranscriptClean,
			&label, &rec.SentimentConfidence, &rec.QualityScore, &rec.ReviewThreshold,
			&rec.NeedsReview, &rec.ReviewFlags, &rec.SupervisorSummary, &rec.CustomerMessage); err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		rec.Sentiment = types.Sentiment(label)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
