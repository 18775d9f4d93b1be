package models

import "github.com/shopspring/decimal"

// CartItem is one cart line. ID is the product id and the line's identity.
type CartItem struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Image         string          `json:"image"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Quantity      int             `json:"quantity"`
	Format        string          `json:"format"`
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is an ordered list of lines, unique by product id.
type Cart []CartItem

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c {
		total = total.Add(item.Subtotal())
	}
	return total
}

func (c Cart) Count() int {
	n := 0
	for _, item := range c {
		n += item.Quantity
	}
	return n
}

func (c Cart) Index(id string) int {
	for i, item := range c {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (c Cart) Clone() Cart {
	if c == nil {
		return Cart{}
	}
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// Add increments an existing line or appends a new one.
func (c Cart) Add(item CartItem, quantity int) Cart {
	out := c.Clone()
	if i := out.Index(item.ID); i >= 0 {
		out[i].Quantity += quantity
		return out
	}
	item.Quantity = quantity
	return append(out, item)
}

// SetQuantity drops the line when quantity falls to zero or below.
func (c Cart) SetQuantity(id string, quantity int) Cart {
	if quantity <= 0 {
		return c.Remove(id)
	}
	out := c.Clone()
	if i := out.Index(id); i >= 0 {
		out[i].Quantity = quantity
	}
	return out
}

func (c Cart) Remove(id string) Cart {
	out := make(Cart, 0, len(c))
	for _, item := range c {
		if item.ID != id {
			out = append(out, item)
		}
	}
	return out
}

// Normalize merges duplicate ids and drops non-positive lines, keeping first-seen order.
func (c Cart) Normalize() Cart {
	out := make(Cart, 0, len(c))
	for _, item := range c {
		if item.ID == "" || item.Quantity <= 0 {
			continue
		}
		if i := out.Index(item.ID); i >= 0 {
			out[i].Quantity += item.Quantity
			continue
		}
		out = append(out, item)
	}
	return out
}
