package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CookieName is the browser cookie carrying the signed session reference.
const CookieName = "careview_session"

// ErrCorrupt marks a stored session whose role no longer parses. The only
// recovery is a forced logout; partial recovery would leave the guard
// making decisions on a role it does not know.
var ErrCorrupt = errors.New("corrupt session")

// Manager mints and resolves sessions. The browser cookie is an HS256 JWT
// holding only the session id; token, role and username live in the Store.
type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	logger zerolog.Logger
}

// NewManager creates a Manager signing cookies with secret and expiring
// sessions after ttl.
func NewManager(store Store, secret []byte, ttl time.Duration, logger zerolog.Logger) *Manager {
	return &Manager{store: store, secret: secret, ttl: ttl, logger: logger}
}

// Login validates the upstream role, persists a new session and returns the
// signed cookie value. An unknown role fails before anything is stored.
func (m *Manager) Login(ctx context.Context, token, roleStr, username string) (string, *Session, error) {
	role, err := ParseRole(roleStr)
	if err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}

	now := time.Now()
	sess := &Session{
		ID:        uuid.New().String(),
		Token:     token,
		Role:      role,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}

	cookie, err := m.sign(sess)
	if err != nil {
		// Keep login atomic: no orphaned session row behind an unusable cookie.
		_ = m.store.Delete(ctx, sess.ID)
		return "", nil, fmt.Errorf("login: %w", err)
	}

	m.logger.Info().Str("username", username).Str("role", string(role)).Msg("session created")
	return cookie, sess, nil
}

// Logout deletes the stored session. An unverifiable cookie is not an
// error: the outcome the caller wants (no live session) already holds.
func (m *Manager) Logout(ctx context.Context, cookie string) error {
	sid, err := m.verify(cookie)
	if err != nil {
		return nil
	}
	if err := m.store.Delete(ctx, sid); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Current resolves the cookie to a live session. A session whose stored
// role no longer parses is deleted and reported as ErrCorrupt so the web
// layer forces a fresh login.
func (m *Manager) Current(ctx context.Context, cookie string) (*Session, error) {
	sid, err := m.verify(cookie)
	if err != nil {
		return nil, ErrNotFound
	}

	sess, err := m.store.Get(ctx, sid)
	if err != nil {
		return nil, err
	}

	if _, err := ParseRole(string(sess.Role)); err != nil {
		m.logger.Warn().Str("session_id", sid).Str("role", string(sess.Role)).Msg("corrupt session purged")
		_ = m.store.Delete(ctx, sid)
		return nil, ErrCorrupt
	}
	return sess, nil
}

// Invalidate removes a session by id, used when the upstream answers 401
// mid-session.
func (m *Manager) Invalidate(ctx context.Context, sessionID string) error {
	return m.store.Delete(ctx, sessionID)
}

func (m *Manager) sign(sess *Session) (string, error) {
	claims := jwt.MapClaims{
		"sid": sess.ID,
		"sub": sess.Username,
		"exp": sess.ExpiresAt.Unix(),
		"iat": sess.CreatedAt.Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session cookie: %w", err)
	}
	return signed, nil
}

func (m *Manager) verify(cookie string) (string, error) {
	tok, err := jwt.Parse(cookie, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !tok.Valid {
		return "", fmt.Errorf("invalid session cookie")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid session cookie claims")
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", fmt.Errorf("session cookie missing sid")
	}
	return sid, nil
}
