package api

import (
	"bytes"
	"encoding/json"

	"github.com/safar/go-storefront/internal/models"
	"github.com/shopspring/decimal"
)

// The backend is not consistent about "_id" versus "id"; the DTOs accept both
// and the conversion picks whichever is set.

type userDTO struct {
	models.User
	AltID string `json:"id"`
}

func (d userDTO) toModel() models.User {
	u := d.User
	if u.ID == "" {
		u.ID = d.AltID
	}
	return u
}

type productDTO struct {
	models.Product
	AltID    string `json:"id"`
	ImageURL string `json:"image"`
}

func (d productDTO) toModel() models.Product {
	p := d.Product
	if p.ID == "" {
		p.ID = d.AltID
	}
	if len(p.Images) == 0 && d.ImageURL != "" {
		p.Images = []string{d.ImageURL}
	}
	return p
}

type orderDTO struct {
	models.Order
	AltID string `json:"id"`
}

func (d orderDTO) toModel() models.Order {
	o := d.Order
	if o.ID == "" {
		o.ID = d.AltID
	}
	return o
}

type addressDTO struct {
	models.Address
	AltID string `json:"id"`
}

func (d addressDTO) toModel() models.Address {
	a := d.Address
	if a.ID == "" {
		a.ID = d.AltID
	}
	return a
}

// cartLineDTO covers both flat lines and lines whose product is populated,
// either under "product" or under "productId".
type cartLineDTO struct {
	ID            string          `json:"id"`
	ProductID     json.RawMessage `json:"productId"`
	Product       json.RawMessage `json:"product"`
	Name          string          `json:"name"`
	Image         string          `json:"image"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Quantity      int             `json:"quantity"`
	Format        string          `json:"format"`
}

func (d cartLineDTO) toModel() models.CartItem {
	item := models.CartItem{
		ID:            d.ID,
		Name:          d.Name,
		Image:         d.Image,
		Price:         d.Price,
		OriginalPrice: d.OriginalPrice,
		Quantity:      d.Quantity,
		Format:        d.Format,
	}

	for _, raw := range []json.RawMessage{d.ProductID, d.Product} {
		id, product := productRef(raw)
		if item.ID == "" {
			item.ID = id
		}
		if product == nil {
			continue
		}
		if item.ID == "" {
			item.ID = product.ID
		}
		if item.Name == "" {
			item.Name = product.Name
		}
		if item.Image == "" {
			item.Image = product.Image()
		}
		if item.Price.IsZero() {
			item.Price = product.Price
		}
		if item.OriginalPrice.IsZero() {
			item.OriginalPrice = product.OriginalPrice
		}
		if item.Format == "" {
			item.Format = product.Format
		}
	}
	if item.OriginalPrice.IsZero() {
		item.OriginalPrice = item.Price
	}
	return item
}

// productRef reads a product reference that is either a bare id or a populated object.
func productRef(raw json.RawMessage) (string, *models.Product) {
	raw = bytes.TrimSpace(raw)
	if isNull(raw) {
		return "", nil
	}
	if raw[0] == '"' {
		var id string
		if json.Unmarshal(raw, &id) == nil {
			return id, nil
		}
		return "", nil
	}
	var dto productDTO
	if json.Unmarshal(raw, &dto) != nil {
		return "", nil
	}
	p := dto.toModel()
	return p.ID, &p
}
