package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/safar/go-storefront/internal/models"
	"github.com/shopspring/decimal"
)

type ProductAPI struct{ c *Client }

func NewProductAPI(c *Client) *ProductAPI { return &ProductAPI{c: c} }

type ProductInput struct {
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Format        string          `json:"format,omitempty"`
	Category      string          `json:"category,omitempty"`
	Stock         int             `json:"stock"`
}

type ImageFile struct {
	Name    string
	Content io.Reader
}

func (a *ProductAPI) List(ctx context.Context) ([]models.Product, error) {
	const op = "list products"
	body, err := a.c.send(ctx, request{op: op, method: http.MethodGet, path: "/products/allProducts"})
	if err != nil {
		return nil, err
	}
	return a.decodeList(op, body)
}

func (a *ProductAPI) Get(ctx context.Context, id string) (*models.Product, error) {
	const op = "get product"
	body, err := a.c.send(ctx, request{op: op, method: http.MethodGet, path: "/products/" + url.PathEscape(id)})
	if err != nil {
		return nil, err
	}
	return a.decodeOne(op, body)
}

// Create uploads the product fields and images as multipart/form-data.
func (a *ProductAPI) Create(ctx context.Context, in ProductInput, images []ImageFile) (*models.Product, error) {
	const op = "create product"

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	fields := map[string]string{
		"name":          in.Name,
		"description":   in.Description,
		"price":         in.Price.String(),
		"originalPrice": in.OriginalPrice.String(),
		"format":        in.Format,
		"category":      in.Category,
		"stock":         strconv.Itoa(in.Stock),
	}
	for _, name := range []string{"name", "description", "price", "originalPrice", "format", "category", "stock"} {
		if err := form.WriteField(name, fields[name]); err != nil {
			return nil, &Error{Kind: KindClient, Op: op, Message: "invalid request", Err: err}
		}
	}
	for _, img := range images {
		part, err := form.CreateFormFile("images", img.Name)
		if err != nil {
			return nil, &Error{Kind: KindClient, Op: op, Message: "invalid request", Err: err}
		}
		if _, err := io.Copy(part, img.Content); err != nil {
			return nil, &Error{Kind: KindClient, Op: op, Message: fmt.Sprintf("read image %s", img.Name), Err: err}
		}
	}
	if err := form.Close(); err != nil {
		return nil, &Error{Kind: KindClient, Op: op, Message: "invalid request", Err: err}
	}

	body, err := a.c.send(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        "/products/create-product",
		body:        &buf,
		contentType: form.FormDataContentType(),
	})
	if err != nil {
		return nil, err
	}
	return a.decodeOne(op, body)
}

func (a *ProductAPI) Update(ctx context.Context, id string, in ProductInput) (*models.Product, error) {
	const op = "update product"
	req, err := jsonRequest(op, http.MethodPut, "/products/product/"+url.PathEscape(id), in)
	if err != nil {
		return nil, err
	}
	body, err := a.c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	return a.decodeOne(op, body)
}

func (a *ProductAPI) Delete(ctx context.Context, id string) error {
	_, err := a.c.send(ctx, request{op: "delete product", method: http.MethodDelete, path: "/products/product/" + url.PathEscape(id)})
	return err
}

func (a *ProductAPI) AddOffer(ctx context.Context, id string, offer models.Offer) (*models.Product, error) {
	const op = "add offer"
	req, err := jsonRequest(op, http.MethodPut, "/products/"+url.PathEscape(id)+"/add-offer", offer)
	if err != nil {
		return nil, err
	}
	body, err := a.c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	return a.decodeOne(op, body)
}

func (a *ProductAPI) RemoveOffer(ctx context.Context, id string) (*models.Product, error) {
	const op = "remove offer"
	body, err := a.c.send(ctx, request{op: op, method: http.MethodPut, path: "/products/" + url.PathEscape(id) + "/remove-offer"})
	if err != nil {
		return nil, err
	}
	return a.decodeOne(op, body)
}

func (a *ProductAPI) decodeList(op string, body []byte) ([]models.Product, error) {
	var dtos []productDTO
	if err := a.c.decode(op, body, &dtos, "products"); err != nil {
		return nil, err
	}
	products := make([]models.Product, 0, len(dtos))
	for _, d := range dtos {
		products = append(products, d.toModel())
	}
	if err := a.c.verify(op, products); err != nil {
		return nil, err
	}
	return products, nil
}

func (a *ProductAPI) decodeOne(op string, body []byte) (*models.Product, error) {
	var dto productDTO
	if err := a.c.decode(op, body, &dto, "product"); err != nil {
		return nil, err
	}
	p := dto.toModel()
	if err := a.c.verify(op, p); err != nil {
		return nil, err
	}
	return &p, nil
}
