// Package cart owns the shopping cart of one client session. A Synchronizer
// holds the in-memory cart and mirrors every mutation to its backend: the
// local store while the visitor is a guest, the server cart once signed in.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/safar/go-storefront/internal/localstore"
	"github.com/safar/go-storefront/internal/logger"
	"github.com/safar/go-storefront/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInvalidItem       = errors.New("cart item needs a product id")
	ErrGuestCartNotEmpty = errors.New("guest cart is not empty")
	ErrWatchUnsupported  = errors.New("local store does not report changes")
)

// Transition reports what happened to guest lines on sign-in.
type Transition struct {
	Merged    models.Cart
	Discarded models.Cart
}

type Options struct {
	Strict bool
	Logger *zap.Logger
	// OnChange, when set, is called with a copy of the cart after every change,
	// including reloads triggered by Watch. See SetOnChange.
	OnChange func(models.Cart)
}

type Synchronizer struct {
	mu      sync.Mutex
	items   models.Cart
	backend Backend
	userID  string

	store    localstore.Store
	guest    *GuestBackend
	remote   RemoteCart
	log      *zap.Logger
	onChange func(models.Cart)
}

// New starts in guest mode. Call Refresh to load the persisted guest cart.
func New(store localstore.Store, remote RemoteCart, opts Options) *Synchronizer {
	log := logger.OrNop(opts.Logger)
	guest := NewGuestBackend(store, opts.Strict, log)
	return &Synchronizer{
		items:    models.Cart{},
		backend:  guest,
		store:    store,
		guest:    guest,
		remote:   remote,
		log:      log,
		onChange: opts.OnChange,
	}
}

// SetOnChange replaces the change callback. fn runs with the cart lock held and
// must not call back into the Synchronizer.
func (s *Synchronizer) SetOnChange(fn func(models.Cart)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

func (s *Synchronizer) Items() models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Clone()
}

func (s *Synchronizer) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Total()
}

func (s *Synchronizer) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Count()
}

// UserID is empty in guest mode.
func (s *Synchronizer) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *Synchronizer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(s.backend.Load(ctx))
}

func (s *Synchronizer) Add(ctx context.Context, item models.CartItem, quantity int) error {
	if item.ID == "" {
		return ErrInvalidItem
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(s.backend.Add(ctx, item, quantity))
}

// UpdateQuantity sets a line's quantity; zero or below removes the line.
func (s *Synchronizer) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return s.Remove(ctx, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(s.backend.SetQuantity(ctx, id, quantity))
}

func (s *Synchronizer) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(s.backend.Remove(ctx, id))
}

func (s *Synchronizer) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(s.backend.Clear(ctx))
}

// apply installs the cart a backend returned. A nil cart means the backend
// could not say what it holds, so the in-memory copy is left alone.
// Callers hold s.mu.
func (s *Synchronizer) apply(cart models.Cart, err error) error {
	if cart != nil {
		s.items = cart.Clone()
		if s.onChange != nil {
			s.onChange(s.items.Clone())
		}
	}
	return err
}

// Login switches the cart to the signed-in user's server cart, settling guest
// lines according to policy. On error the synchronizer stays in guest mode and
// the guest store keeps every line that did not reach the server.
func (s *Synchronizer) Login(ctx context.Context, userID string, policy MergePolicy) (Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report Transition
	if s.userID != "" {
		return report, fmt.Errorf("cart already signed in as %s", s.userID)
	}

	guestLines, err := s.guest.Load(ctx)
	if err != nil {
		return report, err
	}

	switch policy {
	case KeepGuestCart:
		if len(guestLines) > 0 {
			return report, ErrGuestCartNotEmpty
		}
	case ReplaceWithServer:
		report.Discarded = guestLines
	default:
		for i, line := range guestLines {
			if err := s.remote.Add(ctx, userID, line.ID, line.Quantity); err != nil {
				// keep what the server has not seen so a retry does not double it
				if saveErr := s.guest.Save(ctx, guestLines[i:]); saveErr != nil {
					s.log.Error("Failed to save unmerged guest lines", zap.Error(saveErr))
				}
				_ = s.apply(guestLines[i:], nil)
				return report, fmt.Errorf("merge %s into server cart: %w", line.ID, err)
			}
			report.Merged = append(report.Merged, line)
		}
	}

	if _, err := s.guest.Clear(ctx); err != nil {
		return report, err
	}
	if len(report.Discarded) > 0 {
		s.log.Warn("Guest cart replaced by server cart", zap.Int("discarded_lines", len(report.Discarded)))
	}

	s.userID = userID
	s.backend = NewRemoteBackend(s.remote, userID, s.log)
	cart, err := s.backend.Load(ctx)
	if err != nil {
		// the merge is done and the guest store is empty; never show guest lines as the account cart
		s.log.Warn("Signed in but server cart not loaded", zap.String("user_id", userID), zap.Error(err))
		_ = s.apply(models.Cart{}, nil)
		return report, nil
	}
	return report, s.apply(cart, nil)
}

// Resume attaches to the server cart of a user who was already signed in when
// the process started. Guest lines are left in the local store untouched.
func (s *Synchronizer) Resume(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.backend = NewRemoteBackend(s.remote, userID, s.log)
	return s.apply(s.backend.Load(ctx))
}

// Logout returns to guest mode with the persisted guest cart. The server cart
// stays on the server.
func (s *Synchronizer) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = ""
	s.backend = s.guest
	return s.apply(s.guest.Load(ctx))
}

// Watch reloads the guest cart whenever another handle on the same store
// rewrites it. It blocks until ctx is done.
func (s *Synchronizer) Watch(ctx context.Context) error {
	w, ok := s.store.(localstore.Watcher)
	if !ok {
		return ErrWatchUnsupported
	}
	changes, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch local store: %w", err)
	}
	for key := range changes {
		if key != localstore.KeyGuestCart {
			continue
		}
		if err := s.reloadGuest(ctx); err != nil {
			s.log.Warn("Guest cart reload failed", zap.Error(err))
		}
	}
	return ctx.Err()
}

func (s *Synchronizer) reloadGuest(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID != "" {
		return nil
	}
	return s.apply(s.guest.Load(ctx))
}
