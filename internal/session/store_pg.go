package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MigrationSessions is the SQL DDL for the portal_sessions table. It is safe
// to execute multiple times (uses IF NOT EXISTS); `portal-server migrate`
// runs it at deploy time and the serve command runs it at startup.
const MigrationSessions = `
CREATE TABLE IF NOT EXISTS portal_sessions (
    id          TEXT PRIMARY KEY,
    token       TEXT NOT NULL,
    role        TEXT NOT NULL,
    username    TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    expires_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_portal_sessions_expires_at
    ON portal_sessions (expires_at);
`

// ---------------------------------------------------------------------------
// pgRow / pgConn abstractions (allow unit testing without a real DB)
// ---------------------------------------------------------------------------

// pgRow represents a single row returned by QueryRow.
type pgRow interface {
	Scan(dest ...any) error
}

// pgConn is the minimal database interface required by PGStore. Both
// *pgxpool.Pool (via a thin adapter) and test mocks implement this.
type pgConn interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgRow
	Exec(ctx context.Context, sql string, args ...any) error
}

// ---------------------------------------------------------------------------
// PGStore
// ---------------------------------------------------------------------------

// PGStore is a PostgreSQL-backed Store. Sessions survive gateway restarts;
// expiry is enforced in SQL so a stale gateway clock cannot resurrect a
// dead session.
type PGStore struct {
	db pgConn
}

// NewPGStore creates a PG-backed store from anything satisfying pgConn.
// Use NewPGStoreFromPool in production; pass a mock in tests.
func NewPGStore(db pgConn) *PGStore {
	return &PGStore{db: db}
}

// Save inserts or replaces (upsert) the session row.
func (s *PGStore) Save(ctx context.Context, sess *Session) error {
	const query = `INSERT INTO portal_sessions (id, token, role, username, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET token      = EXCLUDED.token,
                               role       = EXCLUDED.role,
                               username   = EXCLUDED.username,
                               created_at = EXCLUDED.created_at,
                               expires_at = EXCLUDED.expires_at`

	if err := s.db.Exec(ctx, query, sess.ID, sess.Token, string(sess.Role), sess.Username, sess.CreatedAt, sess.ExpiresAt); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get selects the row only if it has not expired.
func (s *PGStore) Get(ctx context.Context, id string) (*Session, error) {
	const query = `SELECT token, role, username, created_at, expires_at
FROM portal_sessions WHERE id = $1 AND expires_at > now()`

	sess := &Session{ID: id}
	var role string
	err := s.db.QueryRow(ctx, query, id).Scan(&sess.Token, &role, &sess.Username, &sess.CreatedAt, &sess.ExpiresAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	sess.Role = Role(role)
	return sess, nil
}

// Delete removes the session row.
func (s *PGStore) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM portal_sessions WHERE id = $1`
	if err := s.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Cleanup deletes all expired rows from the table.
func (s *PGStore) Cleanup(ctx context.Context) error {
	const query = `DELETE FROM portal_sessions WHERE expires_at <= now()`
	if err := s.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("cleanup sessions: %w", err)
	}
	return nil
}

// isNoRows returns true when the error represents a "no rows" condition.
// It works with both pgx (pgx.ErrNoRows) and the mock used in tests.
func isNoRows(err error) bool {
	if err == pgx.ErrNoRows {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "no rows")
}

// ---------------------------------------------------------------------------
// pgxPoolWrapper adapts *pgxpool.Pool to the pgConn interface
// ---------------------------------------------------------------------------

// pgxPoolWrapper wraps a *pgxpool.Pool so it satisfies the pgConn interface.
// The adapter is necessary because pgxpool.Pool.Exec returns
// (pgconn.CommandTag, error) whereas pgConn.Exec returns only error.
type pgxPoolWrapper struct {
	pool *pgxpool.Pool
}

func (w *pgxPoolWrapper) QueryRow(ctx context.Context, sql string, args ...any) pgRow {
	return w.pool.QueryRow(ctx, sql, args...)
}

func (w *pgxPoolWrapper) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := w.pool.Exec(ctx, sql, args...)
	return err
}

// NewPGStoreFromPool creates a PG-backed store directly from a
// *pgxpool.Pool. This is the recommended constructor for production use.
func NewPGStoreFromPool(pool *pgxpool.Pool) *PGStore {
	return &PGStore{db: &pgxPoolWrapper{pool: pool}}
}
