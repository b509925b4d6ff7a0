// Package session determines the signed-in identity of the local user.
//
// The identity comes from a JWT persisted in the local metadata store. Until
// Restore (or SignIn) has run, the identity is undetermined and Ready stays
// open; consumers must not treat "no identity" as "signed out" before Ready
// is closed.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rentsaathi/listingsync/internal/client/repositories/metadata"
	"github.com/rentsaathi/listingsync/internal/common"
	"github.com/rentsaathi/listingsync/internal/dbx"
	"github.com/rentsaathi/listingsync/internal/logging"
)

const (
	tokenKey = "session_token"
	userKey  = "session_user"
)

var ErrInvalidToken = common.ErrInvalidToken

// Manager owns the current identity. It is created once at startup and
// handed to every consumer.
type Manager struct {
	db     *sql.DB
	secret []byte
	log    logging.Logger
	now    func() time.Time

	readyOnce sync.Once
	ready     chan struct{}

	mu     sync.RWMutex
	userID string
}

func NewManager(db *sql.DB, secret string, log logging.Logger) *Manager {
	if log == nil {
		log = logging.Nop()
	}
	return &Manager{
		db:     db,
		secret: []byte(secret),
		log:    log,
		now:    time.Now,
		ready:  make(chan struct{}),
	}
}

// Ready is closed once the identity has been determined.
func (m *Manager) Ready() <-chan struct{} { return m.ready }

// Current returns the signed-in user id. The result is meaningful only after
// Ready is closed.
func (m *Manager) Current() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.userID, m.userID != ""
}

// Restore loads the persisted token. A missing, malformed or expired token
// leaves the user signed out; only storage failures are returned. Ready is
// closed in every case.
func (m *Manager) Restore(ctx context.Context) error {
	defer m.markReady()

	repo := metadata.NewSQLiteRepository(m.db)
	raw, err := repo.Get(ctx, tokenKey)
	if errors.Is(err, common.ErrNotFound) {
		m.log.Info(ctx, "no stored session")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	userID, err := m.parse(string(raw))
	if err != nil {
		m.log.Warn(ctx, "stored session rejected", "error", err)
		if err := m.clear(ctx); err != nil {
			return fmt.Errorf("clear rejected session: %w", err)
		}
		return nil
	}

	m.set(userID)
	m.log.Info(ctx, "session restored", "user_id", userID)
	return nil
}

// SignIn validates token, persists it and makes its subject the current
// identity.
func (m *Manager) SignIn(ctx context.Context, token string) (string, error) {
	userID, err := m.parse(token)
	if err != nil {
		return "", err
	}

	err = dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, tokenKey, []byte(token)); err != nil {
			return err
		}
		return repo.Set(ctx, userKey, []byte(userID))
	})
	if err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	m.set(userID)
	m.markReady()
	m.log.Info(ctx, "signed in", "user_id", userID)
	return userID, nil
}

// SignOut forgets the persisted token.
func (m *Manager) SignOut(ctx context.Context) error {
	if err := m.clear(ctx); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	m.set("")
	m.markReady()
	return nil
}

func (m *Manager) clear(ctx context.Context) error {
	return metadata.NewSQLiteRepository(m.db).Delete(ctx, tokenKey, userKey)
}

func (m *Manager) parse(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	var err error
	if len(m.secret) > 0 {
		_, err = jwt.ParseWithClaims(token, claims,
			func(*jwt.Token) (any, error) { return m.secret, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithTimeFunc(m.now),
		)
	} else {
		// Signature is checked by the backend; locally only expiry matters.
		_, _, err = jwt.NewParser().ParseUnverified(token, claims)
		if err == nil && claims.ExpiresAt != nil && !m.now().Before(claims.ExpiresAt.Time) {
			err = jwt.ErrTokenExpired
		}
	}

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, common.ErrTokenExpired)
	case err != nil:
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	case claims.Subject == "":
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

func (m *Manager) set(userID string) {
	m.mu.Lock()
	m.userID = userID
	m.mu.Unlock()
}

func (m *Manager) markReady() {
	m.readyOnce.Do(func() { close(m.ready) })
}

// Static is a fixed, already determined identity.
type Static string

var closed = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

func (Static) Ready() <-chan struct{} { return closed }

func (s Static) Current() (string, bool) { return string(s), s != "" }
