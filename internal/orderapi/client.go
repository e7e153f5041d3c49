// Package orderapi talks to the order-management API that owns orders and
// their printed flags.
package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kiwari-pos/printer/internal/auth"
	"github.com/kiwari-pos/printer/internal/order"
)

const maxErrorBody = 512

// ErrNotFound is returned when the API answers 404.
var ErrNotFound = errors.New("not found")

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// TokenSource returns the bearer token for the next request.
type TokenSource func() (string, error)

// StaticToken always returns tok.
func StaticToken(tok string) TokenSource {
	return func() (string, error) { return tok, nil }
}

// SignedToken mints a fresh service token per request.
func SignedToken(secret, subject string, ttl time.Duration) TokenSource {
	return func() (string, error) {
		return auth.GenerateServiceToken(secret, subject, ttl)
	}
}

// Client is an order API client. It is safe for concurrent use.
type Client struct {
	baseURL string
	token   TokenSource
	http    *http.Client
}

// NewClient creates a Client. A nil httpClient uses a client with a
// 10 second timeout.
func NewClient(baseURL string, token TokenSource, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if token == nil {
		token = StaticToken("")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

// MarkPrinted sets isPrinted on one order item.
func (c *Client) MarkPrinted(ctx context.Context, itemID int64) error {
	path := "/order-items/" + strconv.FormatInt(itemID, 10)
	return c.do(ctx, http.MethodPut, path, map[string]bool{"isPrinted": true}, nil)
}

// GetOrder fetches an order snapshot with its items and products.
func (c *Client) GetOrder(ctx context.Context, orderID int64) (*order.Order, error) {
	var o order.Order
	path := "/orders/" + strconv.FormatInt(orderID, 10)
	if err := c.do(ctx, http.MethodGet, path, nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	token, err := c.token()
	if err != nil {
		return fmt.Errorf("api token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
