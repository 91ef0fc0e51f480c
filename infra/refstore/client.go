// Package refstore implements the reference store interfaces against a
// PocketBase-style HTTP collection API.
package refstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mucollege/dispatchtrack/core/logger"
	"github.com/mucollege/dispatchtrack/core/store"
)

const (
	collegesCollection = "colleges"
	dispatchCollection = "dispatch"
)

// Config defines the connection parameters for the reference store.
type Config struct {
	// BaseURL is the root of the store, e.g. "https://mucollegdb.pockethost.io".
	BaseURL string `json:"base_url"`
	// Token is sent as a bearer Authorization header when non-empty.
	Token string `json:"token"`
	// TimeoutSeconds bounds every request; expiry surfaces as a fetch or
	// write failure.
	TimeoutSeconds int `json:"timeout_seconds"`
	// PerPage is the page size requested on collection scans.
	PerPage int `json:"per_page"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 5
	}
	if c.PerPage <= 0 {
		c.PerPage = 500
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("store base_url is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("store base_url: %w", err)
	}
	return nil
}

// Client talks to the collection API. It implements store.CollegeStore and
// store.DispatchStore. All calls are unary and bounded by the configured
// timeout; there is no retry.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	perPage int
	log     logger.Logger
}

// New creates a Client from the configuration. A nil logger disables logging.
func New(cfg Config, log logger.Logger) *Client {
	cfg.SetDefaults()
	if log == nil {
		log = logger.Nop{}
	}
	return &Client{
		http:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   cfg.Token,
		perPage: cfg.PerPage,
		log:     log,
	}
}

func (c *Client) recordsURL(collection, id string) string {
	u := c.baseURL + "/api/collections/" + collection + "/records"
	if id != "" {
		u += "/" + url.PathEscape(id)
	}
	return u
}

func (c *Client) do(ctx context.Context, method, rawURL string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Warnf("close response body: %v", cerr)
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return resp.StatusCode, fmt.Errorf("status %d", resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// list runs a collection scan with an optional exact-match filter expression.
func (c *Client) list(ctx context.Context, collection, filter string, out any) error {
	q := url.Values{}
	q.Set("perPage", strconv.Itoa(c.perPage))
	if filter != "" {
		q.Set("filter", filter)
	}
	status, err := c.do(ctx, http.MethodGet, c.recordsURL(collection, "")+"?"+q.Encode(), nil, out)
	if err != nil {
		return &store.FetchError{Collection: collection, Status: status, Err: err}
	}
	return nil
}

// quote builds a quoted filter literal, escaping embedded quotes.
func quote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
}
