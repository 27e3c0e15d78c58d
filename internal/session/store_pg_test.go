package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// mockConn is an in-memory pgConn that emulates the portal_sessions table
// closely enough to exercise PGStore's SQL paths.
type mockConn struct {
	rows     map[string]*Session
	execErr  error
	queryErr error
	execSQL  []string
}

func newMockConn() *mockConn {
	return &mockConn{rows: make(map[string]*Session)}
}

type mockRow struct {
	sess *Session
	err  error
}

func (r *mockRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.sess.Token
	*(dest[1].(*string)) = string(r.sess.Role)
	*(dest[2].(*string)) = r.sess.Username
	*(dest[3].(*time.Time)) = r.sess.CreatedAt
	*(dest[4].(*time.Time)) = r.sess.ExpiresAt
	return nil
}

func (c *mockConn) QueryRow(_ context.Context, sql string, args ...any) pgRow {
	if c.queryErr != nil {
		return &mockRow{err: c.queryErr}
	}
	id, _ := args[0].(string)
	sess, ok := c.rows[id]
	if !ok || sess.Expired(time.Now()) {
		return &mockRow{err: errors.New("no rows in result set")}
	}
	return &mockRow{sess: sess}
}

func (c *mockConn) Exec(_ context.Context, sql string, args ...any) error {
	if c.execErr != nil {
		return c.execErr
	}
	c.execSQL = append(c.execSQL, sql)
	switch {
	case strings.HasPrefix(sql, "INSERT"):
		c.rows[args[0].(string)] = &Session{
			ID:        args[0].(string),
			Token:     args[1].(string),
			Role:      Role(args[2].(string)),
			Username:  args[3].(string),
			CreatedAt: args[4].(time.Time),
			ExpiresAt: args[5].(time.Time),
		}
	case strings.HasPrefix(sql, "DELETE FROM portal_sessions WHERE id"):
		delete(c.rows, args[0].(string))
	case strings.HasPrefix(sql, "DELETE FROM portal_sessions WHERE expires_at"):
		for id, s := range c.rows {
			if s.Expired(time.Now()) {
				delete(c.rows, id)
			}
		}
	}
	return nil
}

func TestPGStore_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	conn := newMockConn()
	store := NewPGStore(conn)

	sess := &Session{
		ID:        "pg1",
		Token:     "tok",
		Role:      RoleCashier,
		Username:  "bob",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}

	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Get(ctx, "pg1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Role != RoleCashier || got.Username != "bob" {
		t.Errorf("unexpected session: %+v", got)
	}

	if err := store.Delete(ctx, "pg1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "pg1"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStore_ExpiredReadsAsNotFound(t *testing.T) {
	ctx := context.Background()
	conn := newMockConn()
	store := NewPGStore(conn)

	sess := &Session{ID: "stale", Token: "tok", Role: RoleLab, ExpiresAt: time.Now().Add(-time.Minute)}
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := store.Get(ctx, "stale"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for expired session, got %v", err)
	}
}

func TestPGStore_CleanupRemovesExpired(t *testing.T) {
	ctx := context.Background()
	conn := newMockConn()
	store := NewPGStore(conn)

	_ = store.Save(ctx, &Session{ID: "live", Token: "t", Role: RoleAdmin, ExpiresAt: time.Now().Add(time.Hour)})
	_ = store.Save(ctx, &Session{ID: "dead", Token: "t", Role: RoleAdmin, ExpiresAt: time.Now().Add(-time.Hour)})

	if err := store.Cleanup(ctx); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, ok := conn.rows["live"]; !ok {
		t.Error("cleanup removed a live session")
	}
	if _, ok := conn.rows["dead"]; ok {
		t.Error("cleanup left an expired session behind")
	}
}

func TestPGStore_SaveError(t *testing.T) {
	conn := newMockConn()
	conn.execErr = errors.New("connection reset")
	store := NewPGStore(conn)

	err := store.Save(context.Background(), &Session{ID: "x"})
	if err == nil {
		t.Fatal("expected error to propagate")
	}
}
