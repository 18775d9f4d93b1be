package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/safar/go-storefront/internal/api"
	"github.com/safar/go-storefront/internal/localstore"
	"github.com/safar/go-storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	session *models.AuthSession
	err     error
}

func (f *fakeAuth) Signup(context.Context, api.SignupRequest) (*models.AuthSession, error) {
	return f.session, f.err
}

func (f *fakeAuth) Login(context.Context, api.LoginRequest) (*models.AuthSession, error) {
	return f.session, f.err
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": "u1", "exp": exp.Unix()})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func newManager(t *testing.T, auth Authenticator) (*Manager, localstore.Store) {
	t.Helper()
	store := localstore.NewMemoryStore()
	t.Cleanup(func() { store.Close() })
	return NewManager(store, auth, nil), store
}

func TestLoginPersistsSession(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))
	m, store := newManager(t, &fakeAuth{session: &models.AuthSession{
		Token: token,
		User:  models.User{ID: "u1", Email: "a@b.c"},
	}})
	ctx := context.Background()

	_, err := m.Login(ctx, api.LoginRequest{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)

	raw, err := store.Get(ctx, localstore.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, token, string(raw))

	state, err := m.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, Authenticated, state)

	cur, err := m.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", cur.User.ID)
}

func TestLoginFailureLeavesGuest(t *testing.T) {
	m, _ := newManager(t, &fakeAuth{err: api.ErrUnauthorized})
	ctx := context.Background()

	_, err := m.Login(ctx, api.LoginRequest{})
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	state, err := m.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, Guest, state)
}

func TestLogoutIsIdempotent(t *testing.T) {
	m, _ := newManager(t, &fakeAuth{session: &models.AuthSession{Token: "opaque", User: models.User{ID: "u1"}}})
	ctx := context.Background()

	_, err := m.Signup(ctx, api.SignupRequest{})
	require.NoError(t, err)

	require.NoError(t, m.Logout(ctx))
	require.NoError(t, m.Logout(ctx))

	_, err = m.Current(ctx)
	assert.True(t, errors.Is(err, ErrNotAuthenticated))
}

func TestExpiredTokenIsCleared(t *testing.T) {
	m, store := newManager(t, nil)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, localstore.KeyToken, []byte(signedToken(t, time.Now().Add(-time.Minute)))))
	require.NoError(t, localstore.SetJSON(ctx, store, localstore.KeyUser, models.User{ID: "u1"}))

	token, err := m.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	_, err = store.Get(ctx, localstore.KeyUser)
	assert.ErrorIs(t, err, localstore.ErrNotFound)
}

func TestTokenWithoutUserSignsOut(t *testing.T) {
	m, store := newManager(t, nil)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, localstore.KeyToken, []byte("opaque")))

	state, err := m.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, Guest, state)

	_, err = store.Get(ctx, localstore.KeyToken)
	assert.ErrorIs(t, err, localstore.ErrNotFound)
}

func TestExpiresAt(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	got, ok := ExpiresAt(signedToken(t, exp))
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	_, ok = ExpiresAt("not-a-jwt")
	assert.False(t, ok)
}
