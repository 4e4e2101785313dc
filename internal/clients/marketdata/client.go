// Package marketdata provides a rate-limited HTTP quote client with a
// persistent stale-on-error cache.
package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/folioworks/folio/internal/clientdata"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 5.0 // requests per second
)

var (
	// ErrRateLimited is returned when the upstream answers 429
	ErrRateLimited = errors.New("market data rate limit exceeded")
	// ErrUnknownSymbol is returned when the upstream has no quote for a symbol
	ErrUnknownSymbol = errors.New("unknown symbol")
)

// Quote is a single price observation
type Quote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	AsOf   time.Time       `json:"asOf,omitempty"`
}

// APIError represents a non-success upstream response
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("market data API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Client fetches quotes from GET {baseURL}/quote/{symbol}
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *clientdata.Repository
	log        zerolog.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithRateLimit sets the request rate; non-positive values keep the default
func WithRateLimit(requestsPerSecond float64) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			return
		}
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithCache enables the persistent quote cache
func WithCache(repo *clientdata.Repository) ClientOption {
	return func(c *Client) {
		c.cache = repo
	}
}

// NewClient creates a new market data client
func NewClient(baseURL, apiKey string, log zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), int(DefaultRateLimit)),
		log:     log.With().Str("client", "marketdata").Logger(),
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetQuote fetches a single quote from the upstream API
func (c *Client) GetQuote(ctx context.Context, symbol string) (Quote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Quote{}, fmt.Errorf("rate limit wait: %w", err)
	}

	path := "/quote/" + url.PathEscape(symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.log.Debug().Str("symbol", symbol).Msg("Quote request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return Quote{}, ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		return Quote{}, fmt.Errorf("%s: %w", symbol, ErrUnknownSymbol)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Quote{}, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   path,
		}
	}

	var q Quote
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		return Quote{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if !q.Price.IsPositive() {
		return Quote{}, fmt.Errorf("invalid price %s for %s", q.Price, symbol)
	}
	if q.Symbol == "" {
		q.Symbol = symbol
	}
	return q, nil
}

// GetPrices implements domain.PriceProvider. Fresh cached quotes are served
// without a request; when a request fails the last cached quote is used.
// Symbols with neither are omitted. An error is returned only when the
// context is done or every request failed without a fallback.
func (c *Client) GetPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(symbols))
	var lastErr error
	failed := 0

	for _, symbol := range symbols {
		if q, ok := c.cached(symbol, true); ok {
			prices[symbol] = q.Price
			continue
		}

		q, err := c.GetQuote(ctx, symbol)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return prices, ctxErr
			}
			if stale, ok := c.cached(symbol, false); ok {
				c.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote request failed, using stale cached price")
				prices[symbol] = stale.Price
				continue
			}
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote unavailable")
			if !errors.Is(err, ErrUnknownSymbol) {
				failed++
				lastErr = err
			}
			continue
		}

		prices[symbol] = q.Price
		c.store(symbol, q)
	}

	if len(prices) == 0 && failed > 0 && failed == len(symbols) {
		return nil, fmt.Errorf("all %d quote requests failed: %w", failed, lastErr)
	}
	return prices, nil
}

func (c *Client) cached(symbol string, freshOnly bool) (Quote, bool) {
	if c.cache == nil {
		return Quote{}, false
	}

	get := c.cache.Get
	if freshOnly {
		get = c.cache.GetIfFresh
	}
	raw, err := get(clientdata.QuoteTable, symbol)
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote cache read failed")
		return Quote{}, false
	}
	if raw == nil {
		return Quote{}, false
	}

	var q Quote
	if err := json.Unmarshal(raw, &q); err != nil {
		return Quote{}, false
	}
	return q, true
}

func (c *Client) store(symbol string, q Quote) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Store(clientdata.QuoteTable, symbol, q, clientdata.TTLQuote); err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache quote")
	}
}
