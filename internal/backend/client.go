// Package backend is a thin client for the rental REST API. It attaches the
// caller's bearer token, maps failures to typed errors and validates decoded
// payloads. It never retries or caches.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const maxErrorBody = 64 << 10

// Observer receives one callback per backend call. Status is zero for
// transport failures.
type Observer interface {
	ObserveBackend(resource, method string, status int, elapsed time.Duration)
}

// Client issues authenticated JSON requests against the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	validate   *validator.Validate
	observer   Observer
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithObserver installs a metrics observer.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient constructs a Client for baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tokenContextKey struct{}

// WithToken returns a context carrying the bearer token for backend calls.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// TokenFromContext extracts the bearer token.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey{}).(string)
	return token
}

type call struct {
	resource string
	method   string
	path     string
	body     any
	out      any
	anon     bool
}

func (c *Client) do(ctx context.Context, cl call) error {
	token := TokenFromContext(ctx)
	if token == "" && !cl.anon {
		return ErrNoToken
	}

	var body io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("backend: encode %s %s: %w", cl.method, cl.path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return fmt.Errorf("backend: build %s %s: %w", cl.method, cl.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(cl, 0, start)
		return &TransportError{Method: cl.method, Path: cl.path, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.observe(cl, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Method: cl.method, Path: cl.path, Status: resp.StatusCode, Message: errorMessage(raw)}
	}

	if cl.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(cl.out); err != nil {
		return &DecodeError{Path: cl.path, Err: err}
	}
	if err := c.check(cl.out); err != nil {
		return &DecodeError{Path: cl.path, Err: err}
	}
	return nil
}

func (c *Client) observe(cl call, status int, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveBackend(cl.resource, cl.method, status, time.Since(start))
}

// check validates decoded structs, and every element of decoded slices of
// structs, against their validate tags.
func (c *Client) check(out any) error {
	v := reflect.ValueOf(out)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Struct:
		return c.validate.Struct(v.Addr().Interface())
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			item := v.Index(i)
			if item.Kind() != reflect.Struct {
				return nil
			}
			if err := c.validate.Struct(item.Addr().Interface()); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
	}
	return nil
}

// errorMessage pulls a human readable message out of an error body. The
// "message" field wins; FastAPI style "detail" strings are the fallback.
func errorMessage(raw []byte) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return ""
	}
	var body struct {
		Message string          `json:"message"`
		Detail  json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(body.Message); msg != "" {
		return msg
	}
	var detail string
	if err := json.Unmarshal(body.Detail, &detail); err == nil {
		return strings.TrimSpace(detail)
	}
	// Validation failures arrive as a list of {msg} objects.
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(body.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

// TokenResponse is the login reply.
type TokenResponse struct {
	AccessToken string `json:"access_token" validate:"required"`
	TokenType   string `json:"token_type"`
}

// Login exchanges credentials for a bearer token. It is the only call made
// without a token.
func (c *Client) Login(ctx context.Context, username, password string) (TokenResponse, error) {
	var out TokenResponse
	err := c.do(ctx, call{
		resource: "auth",
		method:   http.MethodPost,
		path:     "/api/auth/login",
		body:     map[string]string{"username": username, "password": password},
		out:      &out,
		anon:     true,
	})
	return out, err
}

// Summary fetches the role dashboard summary at /api/<segment>/dashboard.
// Only scalar fields are kept.
func (c *Client) Summary(ctx context.Context, segment string) (map[string]any, error) {
	raw := make(map[string]any)
	err := c.do(ctx, call{
		resource: segment + "-dashboard",
		method:   http.MethodGet,
		path:     "/api/" + segment + "/dashboard",
		out:      &raw,
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		switch v.(type) {
		case string, float64, bool:
			out[k] = v
		}
	}
	return out, nil
}

// IsTransport reports whether err is a network-level failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
