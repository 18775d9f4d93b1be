package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/safar/go-storefront/internal/api"
	"github.com/safar/go-storefront/internal/localstore"
	"github.com/safar/go-storefront/internal/logger"
	"github.com/safar/go-storefront/internal/models"
	"go.uber.org/zap"
)

// Backend is where a cart lives. Every mutation returns the cart as the backend
// now holds it.
type Backend interface {
	Load(ctx context.Context) (models.Cart, error)
	Add(ctx context.Context, item models.CartItem, quantity int) (models.Cart, error)
	SetQuantity(ctx context.Context, id string, quantity int) (models.Cart, error)
	Remove(ctx context.Context, id string) (models.Cart, error)
	Clear(ctx context.Context) (models.Cart, error)
}

// GuestBackend keeps the cart as a JSON array under localstore.KeyGuestCart and
// rewrites the whole list after every mutation.
type GuestBackend struct {
	store  localstore.Store
	strict bool
	log    *zap.Logger
}

func NewGuestBackend(store localstore.Store, strict bool, log *zap.Logger) *GuestBackend {
	return &GuestBackend{store: store, strict: strict, log: logger.OrNop(log)}
}

func (g *GuestBackend) Load(ctx context.Context) (models.Cart, error) {
	var cart models.Cart
	err := localstore.GetJSON(ctx, g.store, localstore.KeyGuestCart, &cart)
	switch {
	case errors.Is(err, localstore.ErrNotFound):
		return models.Cart{}, nil
	case errors.Is(err, localstore.ErrShapeMismatch):
		if g.strict {
			return nil, err
		}
		g.log.Warn("Guest cart unreadable, starting empty", zap.Error(err))
		return models.Cart{}, nil
	case err != nil:
		return nil, fmt.Errorf("load guest cart: %w", err)
	}
	return cart.Normalize(), nil
}

func (g *GuestBackend) Save(ctx context.Context, cart models.Cart) error {
	if err := localstore.SetJSON(ctx, g.store, localstore.KeyGuestCart, cart.Clone()); err != nil {
		return fmt.Errorf("save guest cart: %w", err)
	}
	return nil
}

func (g *GuestBackend) Add(ctx context.Context, item models.CartItem, quantity int) (models.Cart, error) {
	return g.update(ctx, func(c models.Cart) models.Cart { return c.Add(item, quantity) })
}

func (g *GuestBackend) SetQuantity(ctx context.Context, id string, quantity int) (models.Cart, error) {
	return g.update(ctx, func(c models.Cart) models.Cart { return c.SetQuantity(id, quantity) })
}

func (g *GuestBackend) Remove(ctx context.Context, id string) (models.Cart, error) {
	return g.update(ctx, func(c models.Cart) models.Cart { return c.Remove(id) })
}

func (g *GuestBackend) Clear(ctx context.Context) (models.Cart, error) {
	if err := g.store.Remove(ctx, localstore.KeyGuestCart); err != nil && !errors.Is(err, localstore.ErrNotFound) {
		return nil, fmt.Errorf("clear guest cart: %w", err)
	}
	return models.Cart{}, nil
}

func (g *GuestBackend) update(ctx context.Context, fn func(models.Cart) models.Cart) (models.Cart, error) {
	cart, err := g.Load(ctx)
	if err != nil {
		return nil, err
	}
	cart = fn(cart)
	if err := g.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoteCart is the subset of the cart API the remote backend calls.
type RemoteCart interface {
	Get(ctx context.Context, userID string) (models.Cart, error)
	Add(ctx context.Context, userID, productID string, quantity int) error
	Update(ctx context.Context, userID, productID string, quantity int) error
	Remove(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
}

// RemoteBackend is the server-side cart of a signed-in user. Each mutation is
// followed by a full re-fetch; the server's answer replaces local state.
type RemoteBackend struct {
	api    RemoteCart
	userID string
	log    *zap.Logger
}

func NewRemoteBackend(remote RemoteCart, userID string, log *zap.Logger) *RemoteBackend {
	return &RemoteBackend{api: remote, userID: userID, log: logger.OrNop(log)}
}

func (r *RemoteBackend) Load(ctx context.Context) (models.Cart, error) {
	return r.api.Get(ctx, r.userID)
}

func (r *RemoteBackend) Add(ctx context.Context, item models.CartItem, quantity int) (models.Cart, error) {
	return r.resync(ctx, r.api.Add(ctx, r.userID, item.ID, quantity))
}

func (r *RemoteBackend) SetQuantity(ctx context.Context, id string, quantity int) (models.Cart, error) {
	return r.resync(ctx, r.api.Update(ctx, r.userID, id, quantity))
}

func (r *RemoteBackend) Remove(ctx context.Context, id string) (models.Cart, error) {
	return r.resync(ctx, r.api.Remove(ctx, r.userID, id))
}

func (r *RemoteBackend) Clear(ctx context.Context) (models.Cart, error) {
	return r.resync(ctx, r.api.Clear(ctx, r.userID))
}

// resync re-fetches after a mutation. A failed mutation is still returned to the
// caller, together with the fresh cart when the server could be reached.
func (r *RemoteBackend) resync(ctx context.Context, opErr error) (models.Cart, error) {
	if opErr != nil && api.IsTransport(opErr) {
		return nil, opErr
	}
	cart, err := r.api.Get(ctx, r.userID)
	if err != nil {
		if opErr != nil {
			r.log.Warn("Cart re-fetch failed after rejected mutation", zap.Error(err))
			return nil, opErr
		}
		return nil, err
	}
	return cart, opErr
}
