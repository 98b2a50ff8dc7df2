// Package history keeps the append-only sequence of call records. Records
// are never updated or deleted once appended.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"call-quality-go/internal/types"
)

var ErrClosed = errors.New("history store closed")

// Store is an append-only ordered log of call records.
type Store interface {
	Append(ctx context.Context, rec types.CallRecord) error
	// List returns every record in append order.
	List(ctx context.Context) ([]types.CallRecord, error)
	Close() error
}

// Open picks a backend by name: "memory", "sqlite" (file under dir, or
// ":memory:"), or "postgres" (requires databaseURL).
func Open(ctx context.Context, backend, dir, databaseURL string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return OpenSQLite(dir)
	case "postgres":
		if strings.TrimSpace(databaseURL) == "" {
			return nil, errors.New("postgres history requires a database url")
		}
		return NewPostgresStore(ctx, databaseURL)
	default:
		return nil, fmt.Errorf("unknown history backend %q", backend)
	}
}

// Flagged filters records needing review, preserving order.
func Flagged(records []types.CallRecord) []types.CallRecord {
	var out []types.CallRecord
	for _, r := range records {
		if r.NeedsReview {
			out = append(out, r)
		}
	}
	return out
}
