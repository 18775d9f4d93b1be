// Package checkout turns the current cart into an order: pick the shipping
// address, price the cart and submit it once.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/safar/go-storefront/internal/localstore"
	"github.com/safar/go-storefront/internal/logger"
	"github.com/safar/go-storefront/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrNoAddress        = errors.New("no shipping address on file")
	ErrNotAuthenticated = errors.New("sign in to check out")
)

type Cart interface {
	UserID() string
	Items() models.Cart
	Clear(ctx context.Context) error
}

type Addresses interface {
	ListByUser(ctx context.Context, userID string) ([]models.Address, error)
}

type Orders interface {
	Create(ctx context.Context, in models.OrderRequest, idempotencyKey string) (*models.Order, error)
}

type Pricing struct {
	TaxPrice      decimal.Decimal
	ShippingPrice decimal.Decimal
}

// Summary is what the user confirms before the order is placed.
type Summary struct {
	UserID         string
	Address        models.Address
	Items          models.Cart
	Subtotal       decimal.Decimal
	Tax            decimal.Decimal
	Shipping       decimal.Decimal
	GrandTotal     decimal.Decimal
	IdempotencyKey string
}

// attempt is persisted between Prepare and a successful Place so a retry after
// a crash or timeout resubmits under the same key.
// A changed cart or address gets a fresh key.
type attempt struct {
	Key         string `json:"key"`
	UserID      string `json:"userId"`
	Fingerprint string `json:"fingerprint"`
}

type Orchestrator struct {
	cart      Cart
	addresses Addresses
	orders    Orders
	store     localstore.Store
	pricing   Pricing
	log       *zap.Logger
}

func New(cart Cart, addresses Addresses, orders Orders, store localstore.Store, pricing Pricing, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		cart:      cart,
		addresses: addresses,
		orders:    orders,
		store:     store,
		pricing:   pricing,
		log:       logger.OrNop(log),
	}
}

func (o *Orchestrator) Prepare(ctx context.Context) (*Summary, error) {
	userID := o.cart.UserID()
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	items := o.cart.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	addresses, err := o.addresses.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	addr, ok := latestAddress(addresses)
	if !ok {
		return nil, ErrNoAddress
	}

	key, err := o.attemptKey(ctx, userID, fingerprint(addr, items))
	if err != nil {
		return nil, err
	}

	subtotal := items.Total()
	return &Summary{
		UserID:         userID,
		Address:        addr,
		Items:          items,
		Subtotal:       subtotal,
		Tax:            o.pricing.TaxPrice,
		Shipping:       o.pricing.ShippingPrice,
		GrandTotal:     subtotal.Add(o.pricing.TaxPrice).Add(o.pricing.ShippingPrice),
		IdempotencyKey: key,
	}, nil
}

// Place submits the order described by s. On failure nothing local changes and
// the same summary can be placed again.
func (o *Orchestrator) Place(ctx context.Context, s *Summary) (*models.Order, error) {
	if s == nil || len(s.Items) == 0 {
		return nil, ErrEmptyCart
	}
	if s.Address.ID == "" {
		return nil, ErrNoAddress
	}

	order, err := o.orders.Create(ctx, orderRequest(s), s.IdempotencyKey)
	if err != nil {
		o.log.Warn("Order submission failed",
			zap.String("user_id", s.UserID),
			zap.String("idempotency_key", s.IdempotencyKey),
			zap.Error(err))
		return nil, err
	}

	o.log.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("user_id", s.UserID),
		zap.String("total", s.GrandTotal.String()))

	if err := o.store.Remove(ctx, localstore.KeyCheckoutAttempt); err != nil && !errors.Is(err, localstore.ErrNotFound) {
		o.log.Warn("Failed to clear checkout attempt", zap.Error(err))
	}
	if err := o.cart.Clear(ctx); err != nil {
		// the order exists; a stale cart is not worth failing it over
		o.log.Warn("Failed to clear cart after order", zap.String("order_id", order.ID), zap.Error(err))
	}
	return order, nil
}

func (o *Orchestrator) attemptKey(ctx context.Context, userID, print string) (string, error) {
	var a attempt
	err := localstore.GetJSON(ctx, o.store, localstore.KeyCheckoutAttempt, &a)
	switch {
	case err == nil && a.Key != "" && a.UserID == userID && a.Fingerprint == print:
		return a.Key, nil
	case err != nil && !errors.Is(err, localstore.ErrNotFound) && !errors.Is(err, localstore.ErrShapeMismatch):
		return "", fmt.Errorf("load checkout attempt: %w", err)
	}

	a = attempt{Key: uuid.NewString(), UserID: userID, Fingerprint: print}
	if err := localstore.SetJSON(ctx, o.store, localstore.KeyCheckoutAttempt, a); err != nil {
		return "", fmt.Errorf("save checkout attempt: %w", err)
	}
	return a.Key, nil
}

func fingerprint(addr models.Address, items models.Cart) string {
	var b strings.Builder
	b.WriteString(addr.ID)
	for _, it := range items {
		fmt.Fprintf(&b, "|%s:%d:%s", it.ID, it.Quantity, it.Price.String())
	}
	return b.String()
}

// latestAddress picks the most recently created address; without timestamps
// the last one listed wins.
func latestAddress(addresses []models.Address) (models.Address, bool) {
	if len(addresses) == 0 {
		return models.Address{}, false
	}
	best := len(addresses) - 1
	for i, a := range addresses {
		if a.CreatedAt == nil {
			continue
		}
		cur := addresses[best].CreatedAt
		if cur == nil || a.CreatedAt.After(*cur) {
			best = i
		}
	}
	return addresses[best], true
}

func orderRequest(s *Summary) models.OrderRequest {
	items := make([]models.OrderItemRequest, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, models.OrderItemRequest{
			Name:     it.Name,
			Product:  it.ID,
			Quantity: it.Quantity,
			Price:    it.Price,
		})
	}
	return models.OrderRequest{
		ShippingInfo:  models.ShippingInfo{Address: s.Address.ID},
		OrderItems:    items,
		PaymentInfo:   models.PaymentInfo{Status: models.PaymentStatusPending},
		TaxPrice:      s.Tax,
		ShippingPrice: s.Shipping,
	}
}
