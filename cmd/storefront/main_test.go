package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is just enough of the storefront API for the CLI flows.
type fakeBackend struct {
	mu         sync.Mutex
	cart       map[string]int
	orderKeys  []string
	orderBody  string
	outOfStock map[string]bool
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	path := strings.TrimPrefix(r.URL.Path, "/api/v1")

	switch {
	case r.Method == http.MethodGet && (path == "/products/p1" || path == "/products/p2"):
		id := strings.TrimPrefix(path, "/products/")
		io.WriteString(w, `{"success":true,"product":{"_id":"`+id+`","name":"Blue Train","price":100,"images":["bt.jpg"],"format":"LP"}}`)
	case r.Method == http.MethodPost && path == "/users/login":
		io.WriteString(w, `{"success":true,"token":"opaque-token","user":{"_id":"u1","name":"Ann","email":"ann@example.com","userType":"customer"}}`)
	case r.Method == http.MethodPost && path == "/cart/add":
		if r.Header.Get("Authorization") != "Bearer opaque-token" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"success":false,"message":"Not authorized"}`)
			return
		}
		var in struct {
			ProductID string `json:"productId"`
			Quantity  int    `json:"quantity"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		if b.outOfStock[in.ProductID] {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"success":false,"message":"Product is out of stock"}`)
			return
		}
		b.cart[in.ProductID] += in.Quantity
		io.WriteString(w, `{"success":true,"message":"Added"}`)
	case r.Method == http.MethodGet && path == "/cart/u1":
		var items []string
		for id, qty := range b.cart {
			items = append(items, `{"product":{"_id":"`+id+`","name":"Blue Train","price":100},"quantity":`+itoa(qty)+`}`)
		}
		io.WriteString(w, `{"success":true,"cart":{"items":[`+strings.Join(items, ",")+`]}}`)
	case r.Method == http.MethodDelete && path == "/cart/clear/u1":
		b.cart = map[string]int{}
		io.WriteString(w, `{"success":true}`)
	case r.Method == http.MethodGet && path == "/addresses/user/u1":
		io.WriteString(w, `{"success":true,"addresses":[{"_id":"a1","fullName":"Ann","city":"Pune","createdAt":"2024-03-01T10:00:00Z"}]}`)
	case r.Method == http.MethodPost && path == "/orders/new-order":
		raw, _ := io.ReadAll(r.Body)
		b.orderBody = string(raw)
		b.orderKeys = append(b.orderKeys, r.Header.Get("Idempotency-Key"))
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"success":true,"order":{"_id":"o1","totalPrice":200}}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"success":false,"message":"Route not found"}`)
	}
}

func itoa(n int) string {
	raw, _ := json.Marshal(n)
	return string(raw)
}

func setupEnv(t *testing.T) *fakeBackend {
	t.Helper()
	backend := &fakeBackend{cart: map[string]int{}, outOfStock: map[string]bool{}}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	t.Setenv("STOREFRONT_API_URL", srv.URL+"/api/v1")
	t.Setenv("LOCAL_STORE_DRIVER", "sqlite")
	t.Setenv("LOCAL_STORE_DSN", filepath.Join(t.TempDir(), "storefront.db"))
	t.Setenv("CART_MERGE_POLICY", "merge")
	return backend
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd, cleanup := newRootCmd()
	defer cleanup()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

type result struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func runJSON(t *testing.T, args ...string) result {
	t.Helper()
	out, _ := run(t, append(args, "--json")...)
	var res result
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	return res
}

func TestGuestCartMergesOnLoginAndChecksOut(t *testing.T) {
	backend := setupEnv(t)

	res := runJSON(t, "cart", "add", "p1", "--qty", "2")
	require.True(t, res.Success, res.Message)
	assert.Contains(t, string(res.Data), `"quantity":2`)

	out, err := run(t, "cart")
	require.NoError(t, err)
	assert.Contains(t, out, "200.00")

	res = runJSON(t, "login", "--email", "ann@example.com", "--password", "pw")
	require.True(t, res.Success, res.Message)
	assert.Contains(t, string(res.Data), `"merged"`)
	assert.Equal(t, 2, backend.cart["p1"])

	res = runJSON(t, "checkout", "--yes")
	require.True(t, res.Success, res.Message)
	assert.Contains(t, string(res.Data), `"o1"`)
	require.Len(t, backend.orderKeys, 1)
	assert.NotEmpty(t, backend.orderKeys[0])
	assert.Contains(t, backend.orderBody, `"address":"a1"`)
	assert.Empty(t, backend.cart)
}

func TestFailedMergeLeavesGuestAndRetrySettlesRest(t *testing.T) {
	backend := setupEnv(t)

	_, err := run(t, "cart", "add", "p1")
	require.NoError(t, err)
	_, err = run(t, "cart", "add", "p2")
	require.NoError(t, err)

	backend.mu.Lock()
	backend.outOfStock["p2"] = true
	backend.mu.Unlock()

	res := runJSON(t, "login", "--email", "ann@example.com", "--password", "pw")
	assert.False(t, res.Success)
	assert.Equal(t, "Product is out of stock", res.Message)

	out, err := run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "guest")

	out, err = run(t, "cart")
	require.NoError(t, err)
	assert.Contains(t, out, "p2")
	assert.NotContains(t, out, "p1")

	backend.mu.Lock()
	delete(backend.outOfStock, "p2")
	backend.mu.Unlock()

	res = runJSON(t, "login", "--email", "ann@example.com", "--password", "pw")
	require.True(t, res.Success, res.Message)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, map[string]int{"p1": 1, "p2": 1}, backend.cart)
}

func TestCheckoutJSONWithoutConfirmationStaysParseable(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "cart", "add", "p1")
	require.NoError(t, err)
	_, err = run(t, "login", "--email", "ann@example.com", "--password", "pw")
	require.NoError(t, err)

	res := runJSON(t, "checkout")
	assert.True(t, res.Success, res.Message)
	assert.Equal(t, "Checkout cancelled", res.Message)
}

func TestCheckoutAsGuestFails(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "cart", "add", "p1")
	require.NoError(t, err)

	_, err = run(t, "checkout", "--yes")
	assert.EqualError(t, err, "sign in to check out")
}

func TestKeepPolicyRefusesLogin(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "cart", "add", "p1")
	require.NoError(t, err)

	_, err = run(t, "login", "--email", "ann@example.com", "--password", "pw", "--merge-policy", "keep")
	require.Error(t, err)

	out, err := run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "guest")
}

func TestAPIErrorMessageInJSON(t *testing.T) {
	setupEnv(t)

	res := runJSON(t, "products", "show", "nope")
	assert.False(t, res.Success)
	assert.Equal(t, "Route not found", res.Message)
}

func TestAdminCommandsNeedAdmin(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "login", "--email", "ann@example.com", "--password", "pw")
	require.NoError(t, err)

	_, err = run(t, "admin", "product", "delete", "p1")
	assert.ErrorIs(t, err, errAdminOnly)
}
