package session

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentsaathi/listingsync/internal/client/repositories/metadata"
	"github.com/rentsaathi/listingsync/internal/common"
	"github.com/rentsaathi/listingsync/internal/logging"

	_ "modernc.org/sqlite"
)

const secret = "test-secret"

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE metadata (key TEXT PRIMARY KEY, value BLOB NOT NULL);`)
	require.NoError(t, err)
	return db
}

func sign(t *testing.T, key, subject string, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: subject, ExpiresAt: jwt.NewNumericDate(exp)}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func isReady(m interface{ Ready() <-chan struct{} }) bool {
	select {
	case <-m.Ready():
		return true
	default:
		return false
	}
}

func TestManager_NotReadyUntilRestore(t *testing.T) {
	m := NewManager(setupDB(t), secret, logging.Nop())
	assert.False(t, isReady(m))

	_, ok := m.Current()
	assert.False(t, ok)
}

func TestRestore_NoStoredToken(t *testing.T) {
	m := NewManager(setupDB(t), secret, logging.Nop())
	require.NoError(t, m.Restore(context.Background()))

	assert.True(t, isReady(m))
	_, ok := m.Current()
	assert.False(t, ok)
}

func TestSignIn_PersistsAndRestores(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	m := NewManager(db, secret, logging.Nop())
	id, err := m.SignIn(ctx, sign(t, secret, "u1", time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "u1", id)
	assert.True(t, isReady(m))

	restored := NewManager(db, secret, logging.Nop())
	require.NoError(t, restored.Restore(ctx))
	require.True(t, isReady(restored))
	id, ok := restored.Current()
	assert.True(t, ok)
	assert.Equal(t, "u1", id)

	user, err := metadata.NewSQLiteRepository(db).Get(ctx, userKey)
	require.NoError(t, err)
	assert.Equal(t, "u1", string(user))
}

func TestSignIn_RejectsBadTokens(t *testing.T) {
	m := NewManager(setupDB(t), secret, logging.Nop())
	ctx := context.Background()

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "not-a-jwt", ErrInvalidToken},
		{"wrong key", sign(t, "other", "u1", time.Now().Add(time.Hour)), ErrInvalidToken},
		{"expired", sign(t, secret, "u1", time.Now().Add(-time.Hour)), common.ErrTokenExpired},
		{"no subject", sign(t, secret, "", time.Now().Add(time.Hour)), ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.SignIn(ctx, tt.token)
			require.ErrorIs(t, err, tt.want)
		})
	}
	_, ok := m.Current()
	assert.False(t, ok)
	assert.False(t, isReady(m))
}

func TestSignIn_WithoutSecretChecksOnlyExpiry(t *testing.T) {
	m := NewManager(setupDB(t), "", logging.Nop())
	ctx := context.Background()

	id, err := m.SignIn(ctx, sign(t, "anything", "u2", time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "u2", id)

	_, err = m.SignIn(ctx, sign(t, "anything", "u2", time.Now().Add(-time.Minute)))
	require.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestRestore_ExpiredTokenIsCleared(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	m := NewManager(db, secret, logging.Nop())
	_, err := m.SignIn(ctx, sign(t, secret, "u1", time.Now().Add(time.Hour)))
	require.NoError(t, err)

	later := NewManager(db, secret, logging.Nop())
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	require.NoError(t, later.Restore(ctx))

	assert.True(t, isReady(later))
	_, ok := later.Current()
	assert.False(t, ok)
	_, err = metadata.NewSQLiteRepository(db).Get(ctx, tokenKey)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestSignOut(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	m := NewManager(db, secret, logging.Nop())
	_, err := m.SignIn(ctx, sign(t, secret, "u1", time.Now().Add(time.Hour)))
	require.NoError(t, err)

	require.NoError(t, m.SignOut(ctx))
	_, ok := m.Current()
	assert.False(t, ok)

	store := metadata.NewSQLiteRepository(db)
	_, err = store.Get(ctx, tokenKey)
	require.ErrorIs(t, err, common.ErrNotFound)
	_, err = store.Get(ctx, userKey)
	require.ErrorIs(t, err, common.ErrNotFound)

	restored := NewManager(db, secret, logging.Nop())
	require.NoError(t, restored.Restore(ctx))
	_, ok = restored.Current()
	assert.False(t, ok)
}

func TestRestore_StorageFailureStillMarksReady(t *testing.T) {
	db := setupDB(t)
	m := NewManager(db, secret, logging.Nop())
	require.NoError(t, db.Close())

	require.Error(t, m.Restore(context.Background()))
	assert.True(t, isReady(m))
}

func TestStatic(t *testing.T) {
	s := Static("u1")
	assert.True(t, isReady(s))
	id, ok := s.Current()
	assert.True(t, ok)
	assert.Equal(t, "u1", id)

	_, ok = Static("").Current()
	assert.False(t, ok)
}
