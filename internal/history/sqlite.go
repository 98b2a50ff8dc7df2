package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"call-quality-go/internal/types"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore persists the history in a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) calls.db in dataDir and applies pending
// migrations. ":memory:" gives an in-memory database.
func OpenSQLite(dataDir string) (*SQLiteStore, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "calls.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// One connection: single writer, and ":memory:" stays one database.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA journal_mode=WAL"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}
	return nil
}

// parseMigrationVersion reads the numeric prefix of "001_calls.sql".
func parseMigrationVersion(name string) (int, error) {
	prefix, _, ok := strings.Cut(name, "_")
	if !ok {
		return 0, fmt.Errorf("migration %s: missing version prefix", name)
	}
	v, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, fmt.Errorf("migration %s: invalid version: %w", name, err)
	}
	return v, nil
}

// AppliedMigrations lists applied schema versions in ascending order.
func (s *SQLiteStore) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("querying schema_version: %w", err)
	}
	defer rows.Close()
	var out []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Append(ctx context.Context, rec types.CallRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO calls (
		created_at, call_id, customer_name, transcript_raw, transcript_clean,
		sentiment, sentiment_confidence, quality_score, review_threshold,
		needs_review, review_flags, supervisor_summary, customer_message
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
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
		return fmt.Errorf("inserting call %s: %w", rec.CallID, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]types.CallRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		created_at, call_id, customer_name, transcript_raw, transcript_clean,
		sentiment, sentiment_confidence, quality_score, review_threshold,
		needs_review, review_flags, supervisor_summary, customer_message
	FROM calls ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying calls: %w", err)
	}
	defer rows.Close()

	var out []types.CallRecord
	for rows.Next() {
		var (
			rec       types.CallRecord
			createdAt string
			label     string
		)
		if err := rows.Scan(&createdAt, &rec.CallID, &rec.CustomerName, &rec.TranscriptRaw, &rec.TranscriptClean,
			&label, &rec.SentimentConfidence, &rec.QualityScore, &rec.ReviewThreshold,
			&rec.NeedsReview, &rec.ReviewFlags, &rec.SupervisorSummary, &rec.CustomerMessage); err != nil {
			return nil, fmt.Errorf("scanning call: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
		}
		rec.Timestamp = ts
		rec.Sentiment = types.Sentiment(label)
		out = append(out, rec)
	}
	return out, rows.Err()
}
