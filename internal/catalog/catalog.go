// Package catalog serves product browsing on top of the product API: paged
// listings, single products, the admin-curated "top offers" shelf cached in
// the local store, and admin product maintenance.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/safar/go-storefront/internal/api"
	"github.com/safar/go-storefront/internal/localstore"
	"github.com/safar/go-storefront/internal/logger"
	"github.com/safar/go-storefront/internal/models"
	"go.uber.org/zap"
)

type Products interface {
	List(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, in api.ProductInput, images []api.ImageFile) (*models.Product, error)
	Update(ctx context.Context, id string, in api.ProductInput) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	AddOffer(ctx context.Context, id string, offer models.Offer) (*models.Product, error)
	RemoveOffer(ctx context.Context, id string) (*models.Product, error)
}

type Query struct {
	Page     int
	PageSize int
	Category string
	Search   string
}

type Service struct {
	products Products
	store    localstore.Store
	log      *zap.Logger
}

func NewService(products Products, store localstore.Store, log *zap.Logger) *Service {
	return &Service{products: products, store: store, log: logger.OrNop(log)}
}

// List fetches the full catalog and pages it locally; the backend has no
// server-side paging.
func (s *Service) List(ctx context.Context, q Query) (OffsetPage[models.Product], error) {
	all, err := s.products.List(ctx)
	if err != nil {
		return OffsetPage[models.Product]{}, err
	}

	filtered := all[:0:0]
	search := strings.ToLower(strings.TrimSpace(q.Search))
	for _, p := range all {
		if q.Category != "" && !strings.EqualFold(p.Category, q.Category) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		filtered = append(filtered, p)
	}
	return Paginate(filtered, q.Page, q.PageSize), nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Product, error) {
	return s.products.Get(ctx, id)
}

// TopOffers returns the cached shelf. A missing or unreadable cache is empty.
func (s *Service) TopOffers(ctx context.Context) ([]models.Product, error) {
	var offers []models.Product
	err := localstore.GetJSON(ctx, s.store, localstore.KeyTopOffers, &offers)
	switch {
	case errors.Is(err, localstore.ErrNotFound):
		return []models.Product{}, nil
	case errors.Is(err, localstore.ErrShapeMismatch):
		s.log.Warn("Top offers cache unreadable, ignoring", zap.Error(err))
		return []models.Product{}, nil
	case err != nil:
		return nil, fmt.Errorf("load top offers: %w", err)
	}
	if offers == nil {
		offers = []models.Product{}
	}
	return offers, nil
}

// SetTopOffers snapshots the given products, in order, as the shelf.
func (s *Service) SetTopOffers(ctx context.Context, ids []string) ([]models.Product, error) {
	offers := make([]models.Product, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		p, err := s.products.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("top offer %s: %w", id, err)
		}
		offers = append(offers, *p)
	}
	if err := s.saveTopOffers(ctx, offers); err != nil {
		return nil, err
	}
	return offers, nil
}

func (s *Service) Create(ctx context.Context, in api.ProductInput, images []api.ImageFile) (*models.Product, error) {
	p, err := s.products.Create(ctx, in, images)
	if err != nil {
		return nil, err
	}
	s.log.Info("Product created", zap.String("product_id", p.ID))
	return p, nil
}

func (s *Service) Update(ctx context.Context, id string, in api.ProductInput) (*models.Product, error) {
	p, err := s.products.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.refreshTopOffer(ctx, id, p)
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.refreshTopOffer(ctx, id, nil)
	return nil
}

func (s *Service) AddOffer(ctx context.Context, id string, offer models.Offer) (*models.Product, error) {
	p, err := s.products.AddOffer(ctx, id, offer)
	if err != nil {
		return nil, err
	}
	s.refreshTopOffer(ctx, id, p)
	return p, nil
}

// RemoveOffer also takes the product off the shelf.
func (s *Service) RemoveOffer(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.products.RemoveOffer(ctx, id)
	if err != nil {
		return nil, err
	}
	s.refreshTopOffer(ctx, id, nil)
	return p, nil
}

// refreshTopOffer replaces the cached entry for id with p, or drops it when p is nil.
// The server call already succeeded, so cache failures are only logged.
func (s *Service) refreshTopOffer(ctx context.Context, id string, p *models.Product) {
	offers, err := s.TopOffers(ctx)
	if err != nil {
		s.log.Warn("Failed to refresh top offers", zap.String("product_id", id), zap.Error(err))
		return
	}

	out := make([]models.Product, 0, len(offers))
	changed := false
	for _, o := range offers {
		if o.ID != id {
			out = append(out, o)
			continue
		}
		changed = true
		if p != nil {
			out = append(out, *p)
		}
	}
	if !changed {
		return
	}
	if err := s.saveTopOffers(ctx, out); err != nil {
		s.log.Warn("Failed to refresh top offers", zap.String("product_id", id), zap.Error(err))
	}
}

func (s *Service) saveTopOffers(ctx context.Context, offers []models.Product) error {
	if err := localstore.SetJSON(ctx, s.store, localstore.KeyTopOffers, offers); err != nil {
		return fmt.Errorf("save top offers: %w", err)
	}
	return nil
}
