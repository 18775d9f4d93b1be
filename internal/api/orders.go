package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/safar/go-storefront/internal/models"
)

type OrderAPI struct{ c *Client }

func NewOrderAPI(c *Client) *OrderAPI { return &OrderAPI{c: c} }

const HeaderIdempotencyKey = "Idempotency-Key"

// Create submits a new order. A non-empty idempotencyKey is sent so a server
// that honors it can recognize a resubmission of the same checkout.
func (a *OrderAPI) Create(ctx context.Context, in models.OrderRequest, idempotencyKey string) (*models.Order, error) {
	const op = "create order"
	req, err := jsonRequest(op, http.MethodPost, "/orders/new-order", in)
	if err != nil {
		return nil, err
	}
	if idempotencyKey != "" {
		req.header = http.Header{HeaderIdempotencyKey: []string{idempotencyKey}}
	}

	body, err := a.c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	var dto orderDTO
	if err := a.c.decode(op, body, &dto, "order"); err != nil {
		return nil, err
	}
	order := dto.toModel()
	if err := a.c.verify(op, order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (a *OrderAPI) Get(ctx context.Context, id string) (*models.Order, error) {
	const op = "get order"
	body, err := a.c.send(ctx, request{op: op, method: http.MethodGet, path: "/orders/" + url.PathEscape(id)})
	if err != nil {
		return nil, err
	}

	var dto orderDTO
	if err := a.c.decode(op, body, &dto, "order"); err != nil {
		return nil, err
	}
	order := dto.toModel()
	if err := a.c.verify(op, order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (a *OrderAPI) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	const op = "list orders"
	body, err := a.c.send(ctx, request{op: op, method: http.MethodGet, path: "/orders/user/" + url.PathEscape(userID)})
	if err != nil {
		return nil, err
	}

	var dtos []orderDTO
	if err := a.c.decode(op, body, &dtos, "orders"); err != nil {
		return nil, err
	}
	orders := make([]models.Order, 0, len(dtos))
	for _, d := range dtos {
		orders = append(orders, d.toModel())
	}
	if err := a.c.verify(op, orders); err != nil {
		return nil, err
	}
	return orders, nil
}
