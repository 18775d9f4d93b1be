package catalog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/safar/go-storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginateBounds(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name      string
		page      int
		size      int
		wantItems []int
		wantPages int
	}{
		{"first page", 1, 2, []int{1, 2}, 3},
		{"last partial page", 3, 2, []int{5}, 3},
		{"past the end", 4, 2, []int{}, 3},
		{"page below one", 0, 2, []int{1, 2}, 3},
		{"default size", 1, 0, []int{1, 2, 3, 4, 5}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Paginate(items, tt.page, tt.size)
			assert.Equal(t, tt.wantItems, page.Items)
			assert.Equal(t, tt.wantPages, page.TotalPages)
			assert.Equal(t, int64(5), page.Total)
		})
	}
}

func TestCursorRoundTrip(t *testing.T) {
	c := OrderCursor{CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), ID: "o42"}

	got, err := DecodeCursor(EncodeCursor(c))
	require.NoError(t, err)
	assert.True(t, c.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, "o42", got.ID)

	_, err = DecodeCursor("%%%")
	assert.Error(t, err)
}

type fakeOrders []models.Order

func (f fakeOrders) ListByUser(context.Context, string) ([]models.Order, error) {
	out := make([]models.Order, len(f))
	copy(out, f)
	return out, nil
}

func TestOrderHistoryPagesNewestFirst(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var orders fakeOrders
	for i := 1; i <= 5; i++ {
		orders = append(orders, models.Order{ID: fmt.Sprintf("o%d", i), CreatedAt: base.Add(time.Duration(i) * time.Hour)})
	}
	h := NewOrderHistory(orders)
	ctx := context.Background()

	first, err := h.Page(ctx, "u1", "", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"o5", "o4"}, ids(first.Items))
	assert.True(t, first.HasMore)

	second, err := h.Page(ctx, "u1", first.NextCursor, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"o3", "o2"}, ids(second.Items))

	third, err := h.Page(ctx, "u1", second.NextCursor, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"o1"}, ids(third.Items))
	assert.False(t, third.HasMore)
	assert.Empty(t, third.NextCursor)
}

func ids(orders []models.Order) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ID)
	}
	return out
}
