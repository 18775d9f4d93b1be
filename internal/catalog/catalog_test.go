package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/safar/go-storefront/internal/api"
	"github.com/safar/go-storefront/internal/localstore"
	"github.com/safar/go-storefront/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducts struct {
	items   map[string]models.Product
	order   []string
	listErr error
}

func newFakeProducts(n int) *fakeProducts {
	f := &fakeProducts{items: map[string]models.Product{}}
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("p%d", i)
		category := "vinyl"
		if i%2 == 0 {
			category = "cassette"
		}
		f.items[id] = models.Product{ID: id, Name: "Album " + id, Category: category, Price: decimal.NewFromInt(int64(i))}
		f.order = append(f.order, id)
	}
	return f
}

func (f *fakeProducts) List(context.Context) ([]models.Product, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Product, 0, len(f.order))
	for _, id := range f.order {
		if p, ok := f.items[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProducts) Get(_ context.Context, id string) (*models.Product, error) {
	p, ok := f.items[id]
	if !ok {
		return nil, api.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProducts) Create(_ context.Context, in api.ProductInput, _ []api.ImageFile) (*models.Product, error) {
	p := models.Product{ID: "new", Name: in.Name, Price: in.Price}
	f.items[p.ID] = p
	f.order = append(f.order, p.ID)
	return &p, nil
}

func (f *fakeProducts) Update(_ context.Context, id string, in api.ProductInput) (*models.Product, error) {
	p, ok := f.items[id]
	if !ok {
		return nil, api.ErrNotFound
	}
	p.Name = in.Name
	f.items[id] = p
	return &p, nil
}

func (f *fakeProducts) Delete(_ context.Context, id string) error {
	delete(f.items, id)
	return nil
}

func (f *fakeProducts) AddOffer(_ context.Context, id string, offer models.Offer) (*models.Product, error) {
	p := f.items[id]
	p.Offer = &offer
	f.items[id] = p
	return &p, nil
}

func (f *fakeProducts) RemoveOffer(_ context.Context, id string) (*models.Product, error) {
	p := f.items[id]
	p.Offer = nil
	f.items[id] = p
	return &p, nil
}

func newService(products *fakeProducts) (*Service, localstore.Store) {
	store := localstore.NewMemoryStore()
	return NewService(products, store, nil), store
}

func TestListPaginates(t *testing.T) {
	s, _ := newService(newFakeProducts(45))

	page, err := s.List(context.Background(), Query{Page: 3, PageSize: 20})
	require.NoError(t, err)

	assert.Len(t, page.Items, 5)
	assert.Equal(t, int64(45), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, "p41", page.Items[0].ID)
}

func TestListFilters(t *testing.T) {
	s, _ := newService(newFakeProducts(10))

	page, err := s.List(context.Background(), Query{Category: "Cassette"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)

	page, err = s.List(context.Background(), Query{Search: "album p1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total) // p1, p10
}

func TestListPropagatesAPIError(t *testing.T) {
	products := newFakeProducts(1)
	products.listErr = api.ErrServer
	s, _ := newService(products)

	_, err := s.List(context.Background(), Query{})
	assert.ErrorIs(t, err, api.ErrServer)
}

func TestTopOffersCache(t *testing.T) {
	products := newFakeProducts(5)
	s, store := newService(products)
	ctx := context.Background()

	offers, err := s.TopOffers(ctx)
	require.NoError(t, err)
	assert.Empty(t, offers)

	_, err = s.SetTopOffers(ctx, []string{"p3", "p1", "p3"})
	require.NoError(t, err)

	offers, err = s.TopOffers(ctx)
	require.NoError(t, err)
	require.Len(t, offers, 2)
	assert.Equal(t, "p3", offers[0].ID)

	// a stale shape is ignored
	require.NoError(t, store.Set(ctx, localstore.KeyTopOffers, []byte(`{"ids":["p1"]}`)))
	offers, err = s.TopOffers(ctx)
	require.NoError(t, err)
	assert.Empty(t, offers)
}

func TestSetTopOffersUnknownProduct(t *testing.T) {
	s, _ := newService(newFakeProducts(1))

	_, err := s.SetTopOffers(context.Background(), []string{"p1", "missing"})
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestAdminChangesRefreshTopOffers(t *testing.T) {
	products := newFakeProducts(3)
	s, _ := newService(products)
	ctx := context.Background()

	_, err := s.SetTopOffers(ctx, []string{"p1", "p2", "p3"})
	require.NoError(t, err)

	_, err = s.AddOffer(ctx, "p1", models.Offer{Title: "Summer", DiscountPercent: decimal.NewFromInt(15)})
	require.NoError(t, err)
	_, err = s.Update(ctx, "p2", api.ProductInput{Name: "Renamed"})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "p3"))

	offers, err := s.TopOffers(ctx)
	require.NoError(t, err)
	require.Len(t, offers, 2)
	require.NotNil(t, offers[0].Offer)
	assert.Equal(t, "Summer", offers[0].Offer.Title)
	assert.Equal(t, "Renamed", offers[1].Name)

	_, err = s.RemoveOffer(ctx, "p1")
	require.NoError(t, err)
	offers, err = s.TopOffers(ctx)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "p2", offers[0].ID)
}

func TestCreateProduct(t *testing.T) {
	products := newFakeProducts(0)
	s, _ := newService(products)

	p, err := s.Create(context.Background(), api.ProductInput{Name: "Tape", Price: decimal.NewFromInt(9)}, nil)
	require.NoError(t, err)
	assert.Equal(t, "new", p.ID)

	got, err := s.Get(context.Background(), "new")
	require.NoError(t, err)
	assert.Equal(t, "Tape", got.Name)
}
