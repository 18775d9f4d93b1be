package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/safar/go-storefront/internal/models"
)

type CartAPI struct{ c *Client }

func NewCartAPI(c *Client) *CartAPI { return &CartAPI{c: c} }

type cartMutation struct {
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (a *CartAPI) Get(ctx context.Context, userID string) (models.Cart, error) {
	const op = "get cart"
	body, err := a.c.send(ctx, request{op: op, method: http.MethodGet, path: "/cart/" + url.PathEscape(userID)})
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := a.c.decode(op, body, &raw, "cart", "items"); err != nil {
		return nil, err
	}

	var lines []cartLineDTO
	if err := a.c.decode(op, cartLines(raw), &lines); err != nil {
		return nil, err
	}

	cart := make(models.Cart, 0, len(lines))
	for _, line := range lines {
		cart = append(cart, line.toModel())
	}
	for _, item := range cart {
		if item.ID == "" || item.Quantity < 1 {
			if err := a.c.shapeError(op, errInvalidLine); err != nil {
				return nil, err
			}
		}
	}
	return cart.Normalize(), nil
}

var errInvalidLine = errors.New("cart line without product id or quantity")

// cartLines accepts a bare array of lines or a cart object holding one.
func cartLines(raw json.RawMessage) json.RawMessage {
	env, ok := parseEnvelope(raw)
	if !ok {
		if isNull(raw) {
			return json.RawMessage("[]")
		}
		return raw
	}
	for _, key := range []string{"items", "cartItems", "products"} {
		if v, ok := env.fields[key]; ok && !isNull(v) {
			return v
		}
	}
	return json.RawMessage("[]")
}

func (a *CartAPI) Add(ctx context.Context, userID, productID string, quantity int) error {
	return a.mutate(ctx, "add to cart", http.MethodPost, "/cart/add", cartMutation{userID, productID, quantity})
}

func (a *CartAPI) Update(ctx context.Context, userID, productID string, quantity int) error {
	return a.mutate(ctx, "update cart", http.MethodPut, "/cart/update", cartMutation{userID, productID, quantity})
}

func (a *CartAPI) Remove(ctx context.Context, userID, productID string) error {
	path := "/cart/remove/" + url.PathEscape(userID) + "/" + url.PathEscape(productID)
	return a.mutate(ctx, "remove from cart", http.MethodDelete, path, nil)
}

func (a *CartAPI) Clear(ctx context.Context, userID string) error {
	return a.mutate(ctx, "clear cart", http.MethodDelete, "/cart/clear/"+url.PathEscape(userID), nil)
}

func (a *CartAPI) mutate(ctx context.Context, op, method, path string, in any) error {
	req, err := jsonRequest(op, method, path, in)
	if err != nil {
		return err
	}
	_, err = a.c.send(ctx, req)
	return err
}
