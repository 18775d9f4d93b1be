package catalog

import (
	"context"
	"sort"

	"github.com/safar/go-storefront/internal/models"
)

type OrderLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
}

// OrderHistory pages a user's orders newest first. The cursor is the last order
// already shown, so a page stays stable when newer orders arrive meanwhile.
type OrderHistory struct {
	orders OrderLister
}

func NewOrderHistory(orders OrderLister) *OrderHistory {
	return &OrderHistory{orders: orders}
}

func (h *OrderHistory) Page(ctx context.Context, userID, cursor string, limit int) (CursorPage[models.Order], error) {
	after, err := DecodeCursor(cursor)
	if err != nil {
		return CursorPage[models.Order]{}, err
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	orders, err := h.orders.ListByUser(ctx, userID)
	if err != nil {
		return CursorPage[models.Order]{}, err
	}
	sort.SliceStable(orders, func(i, j int) bool { return newer(orders[i], orders[j]) })

	page := CursorPage[models.Order]{Items: []models.Order{}}
	for _, o := range orders {
		if cursor != "" && !olderThan(o, after) {
			continue
		}
		if len(page.Items) == limit {
			page.HasMore = true
			break
		}
		page.Items = append(page.Items, o)
	}
	if page.HasMore {
		last := page.Items[len(page.Items)-1]
		page.NextCursor = EncodeCursor(OrderCursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// newer orders by (CreatedAt, ID) descending.
func newer(a, b models.Order) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func olderThan(o models.Order, c OrderCursor) bool {
	return newer(models.Order{ID: c.ID, CreatedAt: c.CreatedAt}, o)
}
