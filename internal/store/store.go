package store

import (
	"context"
	"fmt"
	"time"

	"github.com/andresmejia3/facemask/internal/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store keeps the audit trail of proxy requests in PostgreSQL.
// The proxy serves concurrent requests, so it holds a pool rather than a single conn.
type Store struct {
	pool *pgxpool.Pool
}

// AuditEntry is a stored request record.
type AuditEntry struct {
	ID int64
	types.RequestRecord
}

// New connects and makes sure the schema exists.
func New(ctx context.Context, connString string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	// Initialize schema (Auto-Migration)
	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &Store{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	query := `
		CREATE TABLE IF NOT EXISTS proxy_requests (
			id BIGSERIAL PRIMARY KEY,
			received_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			status INT NOT NULL,
			outcome TEXT NOT NULL,
			upstream_ms BIGINT NOT NULL DEFAULT 0,
			faces INT NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS proxy_requests_received_at_idx ON proxy_requests (received_at DESC);
	`
	_, err := pool.Exec(ctx, query)
	return err
}

// Close releases all pooled connections.
func (s *Store) Close() {
	s.pool.Close()
}

// RecordRequest appends one request to the audit trail.
func (s *Store) RecordRequest(ctx context.Context, rec types.RequestRecord) error {
	receivedAt := rec.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO proxy_requests (received_at, status, outcome, upstream_ms, faces)
		VALUES ($1, $2, $3, $4, $5)
	`, receivedAt, rec.Status, rec.Outcome, rec.UpstreamMS, rec.Faces)
	return err
}

// ListRequests returns the most recent entries, newest first.
func (s *Store) ListRequests(ctx context.Context, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, received_at, status, outcome, upstream_ms, faces
		FROM proxy_requests
		ORDER BY received_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (AuditEntry, error) {
		var e AuditEntry
		err := row.Scan(&e.ID, &e.ReceivedAt, &e.Status, &e.Outcome, &e.UpstreamMS, &e.Faces)
		return e, err
	})
}

// OutcomeCounts tallies requests per outcome received at or after since.
func (s *Store) OutcomeCounts(ctx context.Context, since time.Time) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT outcome, COUNT(*) FROM proxy_requests
		WHERE received_at >= $1
		GROUP BY outcome
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}

// Reset drops the audit table. The next New recreates it.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DROP TABLE IF EXISTS proxy_requests CASCADE;`)
	return err
}
