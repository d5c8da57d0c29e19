// Package exchange implements the currency conversion collaborator
// against a public exchange-rate API. Rates are cached for an hour and
// refreshed lazily; every failure degrades to the unconverted amount.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/application/port"
)

// DefaultBaseURL is the public rate endpoint
const DefaultBaseURL = "https://api.exchangerate-api.com/v4/latest"

// fallbackCurrencies is served when no rates were ever fetched
var fallbackCurrencies = []string{"AUD", "CAD", "CHF", "CNY", "EUR", "GBP", "INR", "JPY", "SEK", "USD"}

// Config holds exchange client configuration
type Config struct {
	BaseURL      string
	BaseCurrency string
	Timeout      time.Duration
	CacheTTL     time.Duration
}

// Client fetches and caches exchange rates
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger

	mu          sync.RWMutex
	rates       map[string]float64
	lastUpdated time.Time
}

// NewClient creates a new exchange rate client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.BaseCurrency == "" {
		cfg.BaseCurrency = "USD"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = time.Hour
	}

	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type ratesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// Refresh fetches the current rate table. On failure the previous cache
// stays in place.
func (c *Client) Refresh(ctx context.Context) error {
	url := fmt.Sprintf("%s/%s", c.config.BaseURL, c.config.BaseCurrency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build rate request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch rates: unexpected status %d", resp.StatusCode)
	}

	var payload ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode rates: %w", err)
	}
	if len(payload.Rates) == 0 {
		return fmt.Errorf("decode rates: empty rate table")
	}

	c.mu.Lock()
	c.rates = payload.Rates
	c.lastUpdated = time.Now()
	c.mu.Unlock()

	c.logger.Info("Exchange rates refreshed",
		zap.String("base", c.config.BaseCurrency),
		zap.Int("currencies", len(payload.Rates)))
	return nil
}

// Convert converts amount between currencies using the cached table,
// refreshing it lazily when stale. A missing rate returns the
// unconverted amount together with the error so callers can fall back.
func (c *Client) Convert(ctx context.Context, amount float64, fromCurrency, toCurrency string) (float64, error) {
	if fromCurrency == toCurrency {
		return amount, nil
	}

	if err := c.ensureFresh(ctx); err != nil {
		c.logger.Warn("Exchange rate refresh failed, using cached rates", zap.Error(err))
	}

	c.mu.RLock()
	fromRate, fromOK := c.rates[fromCurrency]
	toRate, toOK := c.rates[toCurrency]
	c.mu.RUnlock()

	if !fromOK || !toOK {
		return amount, fmt.Errorf("conversion unavailable for %s to %s", fromCurrency, toCurrency)
	}

	return amount * toRate / fromRate, nil
}

// Currencies lists the supported currency codes, sorted. The static
// fallback keeps the submission form usable before the first
// successful refresh.
func (c *Client) Currencies(ctx context.Context) ([]string, error) {
	if err := c.ensureFresh(ctx); err != nil {
		c.logger.Warn("Exchange rate refresh failed", zap.Error(err))
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.rates) == 0 {
		return fallbackCurrencies, nil
	}

	codes := make([]string, 0, len(c.rates))
	for code := range c.rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}

func (c *Client) ensureFresh(ctx context.Context) error {
	c.mu.RLock()
	fresh := time.Since(c.lastUpdated) < c.config.CacheTTL && len(c.rates) > 0
	c.mu.RUnlock()

	if fresh {
		return nil
	}
	return c.Refresh(ctx)
}

// Verify interface compliance
var _ port.CurrencyConverter = (*Client)(nil)
