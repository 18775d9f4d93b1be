package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/safar/go-storefront/internal/models"
)

type AddressAPI struct{ c *Client }

func NewAddressAPI(c *Client) *AddressAPI { return &AddressAPI{c: c} }

func (a *AddressAPI) ListByUser(ctx context.Context, userID string) ([]models.Address, error) {
	const op = "list addresses"
	body, err := a.c.send(ctx, request{op: op, method: http.MethodGet, path: "/addresses/user/" + url.PathEscape(userID)})
	if err != nil {
		return nil, err
	}

	var dtos []addressDTO
	if err := a.c.decode(op, body, &dtos, "addresses"); err != nil {
		return nil, err
	}
	addresses := make([]models.Address, 0, len(dtos))
	for _, d := range dtos {
		addresses = append(addresses, d.toModel())
	}
	return addresses, nil
}

func (a *AddressAPI) Create(ctx context.Context, in models.Address) (*models.Address, error) {
	const op = "create address"
	req, err := jsonRequest(op, http.MethodPost, "/addresses/new-address", in)
	if err != nil {
		return nil, err
	}
	body, err := a.c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	var dto addressDTO
	if err := a.c.decode(op, body, &dto, "address"); err != nil {
		return nil, err
	}
	addr := dto.toModel()
	if addr.ID == "" {
		if err := a.c.shapeError(op, errMissingAddressID); err != nil {
			return nil, err
		}
	}
	return &addr, nil
}

var errMissingAddressID = errors.New("address without id")
