// Package api wraps the storefront REST backend. One Client is built at start and
// shared by every resource (auth, cart, products, orders, addresses); it owns the
// base URL, the timeout, the bearer-token interceptor and the optional request limiter.
//
// Resource methods return (value, error) and never panic. Errors are always *Error,
// classified as transport, client (4xx), server (5xx) or shape failures.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/safar/go-storefront/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TokenSource supplies the bearer token for each request; an empty token sends
// the request unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Tokens    TokenSource
	RateLimit float64 // requests per second, 0 disables the limiter
	Burst     int
	// Strict turns response shape mismatches into KindShape errors instead of
	// logging them and returning what decoded.
	Strict    bool
	Transport http.RoundTripper
	Logger    *zap.Logger
}

type Client struct {
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	strict   bool
	validate *validator.Validate
	log      *zap.Logger
}

func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(opts.BaseURL, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, fmt.Errorf("invalid api base url %q", opts.BaseURL)
	}

	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if opts.Tokens != nil {
		transport = &tokenTransport{base: transport, tokens: opts.Tokens}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL:  base,
		http:     &http.Client{Timeout: timeout, Transport: transport},
		strict:   opts.Strict,
		validate: validator.New(),
		log:      logger.OrNop(opts.Logger),
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c, nil
}

type tokenTransport struct {
	base   http.RoundTripper
	tokens TokenSource
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.tokens.Token(req.Context())
	if err != nil {
		return nil, fmt.Errorf("read auth token: %w", err)
	}
	if token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return t.base.RoundTrip(req)
}

type request struct {
	op          string
	method      string
	path        string
	body        io.Reader
	contentType string
	header      http.Header
}

// jsonRequest encodes in (when non-nil) as the request body.
func jsonRequest(op, method, path string, in any) (request, error) {
	r := request{op: op, method: method, path: path}
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return r, &Error{Kind: KindClient, Op: op, Message: "invalid request", Err: err}
		}
		r.body = bytes.NewReader(raw)
		r.contentType = "application/json"
	}
	return r, nil
}

// send performs one HTTP call and returns the body of a 2xx response.
// Anything else comes back as *Error; there is no retry.
func (c *Client) send(ctx context.Context, r request) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &Error{Kind: KindTransport, Op: r.op, Message: "request cancelled", Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return nil, &Error{Kind: KindClient, Op: r.op, Message: "invalid request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	for k, vv := range r.header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("Request failed",
			zap.String("op", r.op),
			zap.String("method", r.method),
			zap.String("path", r.path),
			zap.Error(err))
		return nil, &Error{Kind: KindTransport, Op: r.op, Message: transportMessage(err), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: r.op, Status: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	c.log.Debug("Request completed",
		zap.String("op", r.op),
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Kind:    kindForStatus(resp.StatusCode),
			Op:      r.op,
			Status:  resp.StatusCode,
			Message: serverMessage(body, http.StatusText(resp.StatusCode)),
		}
	}

	// some endpoints answer 200 with { success: false, message }
	if env, ok := parseEnvelope(body); ok && env.success != nil && !*env.success {
		return nil, &Error{
			Kind:    KindClient,
			Op:      r.op,
			Status:  resp.StatusCode,
			Message: serverMessage(body, GenericMessage),
		}
	}

	return body, nil
}

func transportMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	if errors.Is(err, context.Canceled) {
		return "request cancelled"
	}
	return "unable to reach the server"
}
