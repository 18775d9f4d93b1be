package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   string
}

type staticTokens string

func (s staticTokens) Token(context.Context) (string, error) { return string(s), nil }

// newStubServer answers every request with status and body and records what it saw.
func newStubServer(t *testing.T, status int, body string) (*httptest.Server, <-chan recordedRequest) {
	t.Helper()
	ch := make(chan recordedRequest, 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		ch <- recordedRequest{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone(), Body: string(raw)}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, ch
}

func newTestClient(t *testing.T, baseURL string, strict bool) *Client {
	t.Helper()
	c, err := NewClient(Options{
		BaseURL: baseURL + "/api/v1",
		Timeout: 2 * time.Second,
		Tokens:  staticTokens("tok-123"),
		Strict:  strict,
	})
	require.NoError(t, err)
	return c
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "localhost:5000"})
	assert.Error(t, err)
}

func TestBearerTokenAttached(t *testing.T) {
	srv, reqs := newStubServer(t, http.StatusOK, `{"success":true,"products":[]}`)
	c := newTestClient(t, srv.URL, true)

	_, err := NewProductAPI(c).List(context.Background())
	require.NoError(t, err)

	got := <-reqs
	assert.Equal(t, "Bearer tok-123", got.Header.Get("Authorization"))
	assert.Equal(t, "/api/v1/products/allProducts", got.Path)
}

func TestNoTokenNoHeader(t *testing.T) {
	srv, reqs := newStubServer(t, http.StatusOK, `[]`)
	c := newTestClient(t, srv.URL, true)
	c.http.Transport = &tokenTransport{base: http.DefaultTransport, tokens: staticTokens("")}

	_, err := NewProductAPI(c).List(context.Background())
	require.NoError(t, err)

	assert.Empty(t, (<-reqs).Header.Get("Authorization"))
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    Kind
		message string
		is      error
	}{
		{"validation", http.StatusBadRequest, `{"success":false,"message":"Quantity must be positive"}`, KindClient, "Quantity must be positive", ErrBadRequest},
		{"auth", http.StatusUnauthorized, `{"error":"jwt expired"}`, KindClient, "jwt expired", ErrUnauthorized},
		{"not found without body", http.StatusNotFound, ``, KindClient, "Not Found", ErrNotFound},
		{"server", http.StatusInternalServerError, `<html>oops</html>`, KindServer, "Internal Server Error", ErrServer},
		{"soft failure", http.StatusOK, `{"success":false,"message":"Product is out of stock"}`, KindClient, "Product is out of stock", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newStubServer(t, tt.status, tt.body)
			c := newTestClient(t, srv.URL, false)

			err := NewCartAPI(c).Add(context.Background(), "u1", "p1", 1)
			require.Error(t, err)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.kind, apiErr.Kind)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.message, MessageOf(err))
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url, false)
	err := NewCartAPI(c).Clear(context.Background(), "u1")

	assert.True(t, IsTransport(err))
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, "unable to reach the server", MessageOf(err))
}

func TestTimeoutIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, err := NewClient(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = NewProductAPI(c).List(context.Background())
	assert.True(t, IsTransport(err))
}

func TestRateLimiterHonorsContext(t *testing.T) {
	srv, _ := newStubServer(t, http.StatusOK, `[]`)
	c, err := NewClient(Options{BaseURL: srv.URL, RateLimit: 0.001, Burst: 1})
	require.NoError(t, err)

	_, err = NewProductAPI(c).List(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = NewProductAPI(c).List(ctx)
	assert.True(t, IsTransport(err))
}

func TestResultOf(t *testing.T) {
	ok := ResultOf(42, nil, "Added to cart")
	assert.True(t, ok.Success)
	assert.Equal(t, 42, ok.Data)
	assert.Equal(t, "Added to cart", ok.Message)

	failed := ResultOf(0, errors.New("boom"), "")
	assert.False(t, failed.Success)
	assert.Equal(t, GenericMessage, failed.Message)

	raw, err := json.Marshal(failed)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), `"success":false`))
}
