package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/rbright/basket/internal/command"
)

const (
	defaultTimeout = 5 * time.Second
	maxErrorBody   = 4 << 10
)

// Options configures a Client.
type Options struct {
	BaseURL string
	UserID  string
	Timeout time.Duration
	Retries int
	// UserAgent is sent on every request when set.
	UserAgent string
	Logger    *slog.Logger
}

// Client calls the shopping-list service for one user.
type Client struct {
	base   string
	user   string
	agent  string
	http   *retryablehttp.Client
	logger *slog.Logger
}

// New validates opts and builds a retrying client.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = opts.Timeout
	rc.RetryMax = opts.Retries
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = time.Second
	rc.Logger = logger
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.CheckRetry = checkRetry

	return &Client{
		base:   base,
		user:   strings.TrimSpace(opts.UserID),
		agent:  opts.UserAgent,
		http:   rc,
		logger: logger,
	}, nil
}

// UserID returns the user the list endpoints act for.
func (c *Client) UserID() string {
	return c.user
}

type itemRequest struct {
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

type itemsResponse struct {
	Status string `json:"status"`
	Items  []Item `json:"items"`
}

// List returns the user's shopping list.
func (c *Client) List(ctx context.Context) ([]Item, error) {
	path, err := c.userPath("")
	if err != nil {
		return nil, err
	}
	var items []Item
	if err := c.do(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, fmt.Errorf("get shopping list: %w", err)
	}
	return items, nil
}

// AddItem adds qty of name and returns the updated list.
func (c *Client) AddItem(ctx context.Context, name string, qty int) ([]Item, error) {
	return c.changeItem(ctx, "add", name, qty)
}

// RemoveItem removes qty of name and returns the updated list.
func (c *Client) RemoveItem(ctx context.Context, name string, qty int) ([]Item, error) {
	return c.changeItem(ctx, "remove", name, qty)
}

func (c *Client) changeItem(ctx context.Context, op, name string, qty int) ([]Item, error) {
	path, err := c.userPath("/" + op)
	if err != nil {
		return nil, err
	}
	var resp itemsResponse
	if err := c.do(withoutReplay(ctx), http.MethodPost, path, itemRequest{Name: name, Qty: qty}, &resp); err != nil {
		return nil, fmt.Errorf("%s item: %w", op, err)
	}
	return resp.Items, nil
}

// Clear empties the user's list.
func (c *Client) Clear(ctx context.Context) error {
	path, err := c.userPath("/clear")
	if err != nil {
		return err
	}
	if err := c.do(withoutReplay(ctx), http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("clear list: %w", err)
	}
	return nil
}

// History returns the user's most frequently added item names.
func (c *Client) History(ctx context.Context) ([]string, error) {
	if c.user == "" {
		return nil, ErrNoUser
	}
	var names []string
	if err := c.do(ctx, http.MethodGet, "/history/"+url.PathEscape(c.user), nil, &names); err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	return names, nil
}

// Search queries the product catalog.
func (c *Client) Search(ctx context.Context, query string, filters command.SearchFilters) ([]Product, error) {
	body := struct {
		Query   string                `json:"query"`
		Filters command.SearchFilters `json:"filters"`
	}{Query: query, Filters: filters}

	var products []Product
	if err := c.do(ctx, http.MethodPost, "/search", body, &products); err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return products, nil
}

// Seasonal returns item names in season this month.
func (c *Client) Seasonal(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.do(ctx, http.MethodGet, "/seasonal", nil, &names); err != nil {
		return nil, fmt.Errorf("get seasonal items: %w", err)
	}
	return names, nil
}

// Substitutes returns alternatives keyed by lowercase item name.
func (c *Client) Substitutes(ctx context.Context) (map[string][]string, error) {
	subs := map[string][]string{}
	if err := c.do(ctx, http.MethodGet, "/substitutes", nil, &subs); err != nil {
		return nil, fmt.Errorf("get substitutes: %w", err)
	}
	return subs, nil
}

type noReplayKey struct{}

// withoutReplay marks a request that changes the list. It is retried only
// when the connection was never established.
func withoutReplay(ctx context.Context) context.Context {
	return context.WithValue(ctx, noReplayKey{}, true)
}

func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Value(noReplayKey{}) != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		var opErr *net.OpError
		if !errors.As(err, &opErr) || opErr.Op != "dial" {
			return false, nil
		}
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func (c *Client) userPath(suffix string) (string, error) {
	if c.user == "" {
		return "", ErrNoUser
	}
	return "/shopping-list/" + url.PathEscape(c.user) + suffix, nil
}

// do sends one JSON request and decodes a JSON response into out when set.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.agent != "" {
		req.Header.Set("User-Agent", c.agent)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug("backend request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"elapsed_ms", time.Since(started).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload struct {
		Error string `json:"error"`
	}
	message := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		message = payload.Error
	}
	return &Error{Status: resp.StatusCode, Message: message}
}
