// Package session keeps the signed-in user across runs. The token and a snapshot
// of the user are written to the local store on login and removed on logout;
// their presence is what makes the client Authenticated.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/safar/go-storefront/internal/api"
	"github.com/safar/go-storefront/internal/localstore"
	"github.com/safar/go-storefront/internal/logger"
	"github.com/safar/go-storefront/internal/models"
	"go.uber.org/zap"
)

type State int

const (
	Guest State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "guest"
}

var ErrNotAuthenticated = errors.New("not signed in")

// Authenticator is the part of the auth API a Manager needs.
type Authenticator interface {
	Signup(ctx context.Context, in api.SignupRequest) (*models.AuthSession, error)
	Login(ctx context.Context, in api.LoginRequest) (*models.AuthSession, error)
}

type Manager struct {
	store localstore.Store
	auth  Authenticator
	log   *zap.Logger
	now   func() time.Time
}

func NewManager(store localstore.Store, auth Authenticator, log *zap.Logger) *Manager {
	return &Manager{store: store, auth: auth, log: logger.OrNop(log), now: time.Now}
}

func (m *Manager) Signup(ctx context.Context, in api.SignupRequest) (*models.AuthSession, error) {
	s, err := m.auth.Signup(ctx, in)
	if err != nil {
		return nil, err
	}
	return s, m.persist(ctx, s)
}

func (m *Manager) Login(ctx context.Context, in api.LoginRequest) (*models.AuthSession, error) {
	s, err := m.auth.Login(ctx, in)
	if err != nil {
		return nil, err
	}
	return s, m.persist(ctx, s)
}

func (m *Manager) persist(ctx context.Context, s *models.AuthSession) error {
	if err := m.store.Set(ctx, localstore.KeyToken, []byte(s.Token)); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if err := localstore.SetJSON(ctx, m.store, localstore.KeyUser, s.User); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	m.log.Info("Signed in", zap.String("user_id", s.User.ID))
	return nil
}

// Logout forgets the token and user. It is safe to call when already signed out.
func (m *Manager) Logout(ctx context.Context) error {
	for _, key := range []string{localstore.KeyToken, localstore.KeyUser} {
		if err := m.store.Remove(ctx, key); err != nil && !errors.Is(err, localstore.ErrNotFound) {
			return fmt.Errorf("remove %s: %w", key, err)
		}
	}
	return nil
}

// Current returns the stored session or ErrNotAuthenticated. An expired token
// is cleared and reported as signed out.
func (m *Manager) Current(ctx context.Context) (*models.AuthSession, error) {
	token, err := m.Token(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	var user models.User
	err = localstore.GetJSON(ctx, m.store, localstore.KeyUser, &user)
	switch {
	case errors.Is(err, localstore.ErrNotFound), errors.Is(err, localstore.ErrShapeMismatch):
		// a token without a usable user snapshot cannot drive user-scoped calls
		m.log.Warn("Stored user missing or unreadable, signing out", zap.Error(err))
		if err := m.Logout(ctx); err != nil {
			return nil, err
		}
		return nil, ErrNotAuthenticated
	case err != nil:
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &models.AuthSession{Token: token, User: user}, nil
}

func (m *Manager) State(ctx context.Context) (State, error) {
	_, err := m.Current(ctx)
	if errors.Is(err, ErrNotAuthenticated) {
		return Guest, nil
	}
	if err != nil {
		return Guest, err
	}
	return Authenticated, nil
}

// Token implements api.TokenSource. It returns "" when signed out.
func (m *Manager) Token(ctx context.Context) (string, error) {
	raw, err := m.store.Get(ctx, localstore.KeyToken)
	if errors.Is(err, localstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}

	token := string(raw)
	if exp, ok := ExpiresAt(token); ok && !m.now().Before(exp) {
		m.log.Info("Stored token expired", zap.Time("expired_at", exp))
		if err := m.Logout(ctx); err != nil {
			return "", err
		}
		return "", nil
	}
	return token, nil
}

// ExpiresAt reads the exp claim of a JWT without verifying its signature; the
// server remains the authority. Opaque tokens report ok=false.
func ExpiresAt(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	switch exp := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(exp), 0), true
	case int64:
		return time.Unix(exp, 0), true
	}
	return time.Time{}, false
}
