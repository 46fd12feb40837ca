package market

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/txplain/txplain/service/metrics"
)

// SOLMint is the wrapped SOL mint address, used as the network reference asset.
const SOLMint = "So11111111111111111111111111111111111111112"

// fallbackSOLPriceUSD is used when the price feed is unreachable so that
// fee-to-USD conversion never fails.
var fallbackSOLPriceUSD = decimal.NewFromInt(150)

// AssetInfo is the display metadata for a fungible token.
type AssetInfo struct {
	Mint     string
	Symbol   string
	Name     string
	Icon     string
	Decimals uint8
	PriceUSD decimal.Decimal
}

// PriceEntry is one asset's entry from a bulk price query.
type PriceEntry struct {
	PriceUSD decimal.Decimal
	Decimals uint8 // 0 when the feed did not report decimals
}

// Client fetches token metadata and USD prices from the market-data service.
// Lookups degrade instead of failing: metadata falls back to a synthetic
// entry, prices fall back to empty, the reference price falls back to a
// constant. Callers never see an error from this client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *Cache
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewClient creates a market-data client.
// If httpClient is nil a default with a 15s timeout is used.
// If metrics is nil, no metrics will be recorded.
func NewClient(baseURL string, httpClient *http.Client, cache *Cache, m *metrics.Metrics, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if cache == nil {
		cache = NewCache()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		cache:      cache,
		metrics:    m,
		logger:     logger,
	}
}

// tokenListing is the upstream token metadata shape, shared by the bulk
// listing and search endpoints.
type tokenListing struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	LogoURI  string `json:"logoURI"`
	Decimals uint8  `json:"decimals"`
}

// GetAssetInfo resolves display metadata for a mint. The cache is consulted
// first; on a miss the bulk recent-tokens listing is tried, then the
// search-by-mint endpoint, then a synthetic fallback entry (symbol = mint,
// price 0, decimals from the price feed or 9). The resolved entry is cached
// for the process lifetime. This method never fails the caller.
func (c *Client) GetAssetInfo(ctx context.Context, mint string) AssetInfo {
	if info, ok := c.cache.Get(mint); ok {
		if c.metrics != nil {
			c.metrics.RecordMarketLookup("cache_hit")
		}
		return info
	}

	prices := c.GetPrices(ctx, []string{mint})

	if listing, ok := c.lookupListing(ctx, mint); ok {
		info := AssetInfo{
			Mint:     mint,
			Symbol:   listing.Symbol,
			Name:     listing.Name,
			Icon:     listing.LogoURI,
			Decimals: listing.Decimals,
			PriceUSD: prices[mint].PriceUSD,
		}
		c.cache.Put(info)
		return info
	}

	// Both lookups failed. Degrade display accuracy rather than the request:
	// the raw mint stands in for the symbol and the price is unknown.
	if c.metrics != nil {
		c.metrics.RecordMarketLookup("synthetic")
	}
	c.logger.WarnContext(ctx, "token metadata unavailable, using synthetic entry", "mint", mint)

	decimals := prices[mint].Decimals
	if decimals == 0 {
		decimals = 9
	}
	info := AssetInfo{
		Mint:     mint,
		Symbol:   mint,
		Name:     "Unknown Token",
		Decimals: decimals,
		PriceUSD: decimal.Zero,
	}
	c.cache.Put(info)
	return info
}

// lookupListing tries the recent-tokens listing, then search-by-mint.
func (c *Client) lookupListing(ctx context.Context, mint string) (tokenListing, bool) {
	var listings []tokenListing
	if err := c.getJSON(ctx, "/tokens/v1/recent", nil, &listings); err != nil {
		c.logger.DebugContext(ctx, "recent-tokens listing failed", "error", err)
	} else {
		for _, l := range listings {
			if l.Address == mint {
				if c.metrics != nil {
					c.metrics.RecordMarketLookup("listing")
				}
				return l, true
			}
		}
	}

	listings = nil
	query := url.Values{"query": {mint}}
	if err := c.getJSON(ctx, "/tokens/v1/search", query, &listings); err != nil {
		c.logger.DebugContext(ctx, "token search failed", "mint", mint, "error", err)
		return tokenListing{}, false
	}
	for _, l := range listings {
		if l.Address == mint {
			if c.metrics != nil {
				c.metrics.RecordMarketLookup("search")
			}
			return l, true
		}
	}
	return tokenListing{}, false
}

// priceResponse is the bulk price endpoint shape. Prices are decimal strings.
type priceResponse struct {
	Data map[string]struct {
		Price    string `json:"price"`
		Decimals uint8  `json:"decimals,omitempty"`
	} `json:"data"`
}

// GetPrices fetches current USD prices for the given mints in one bulk query.
// On any failure it returns an empty map; callers treat missing entries as
// price-unknown, never as an error.
func (c *Client) GetPrices(ctx context.Context, mints []string) map[string]PriceEntry {
	out := make(map[string]PriceEntry)
	if len(mints) == 0 {
		return out
	}

	query := url.Values{"ids": {strings.Join(mints, ",")}}
	var resp priceResponse
	if err := c.getJSON(ctx, "/price/v2", query, &resp); err != nil {
		c.logger.WarnContext(ctx, "bulk price query failed", "mints", len(mints), "error", err)
		return out
	}

	for mint, entry := range resp.Data {
		price, err := decimal.NewFromString(entry.Price)
		if err != nil {
			c.logger.DebugContext(ctx, "unparseable price, skipping", "mint", mint, "price", entry.Price)
			continue
		}
		out[mint] = PriceEntry{PriceUSD: price, Decimals: entry.Decimals}
	}
	return out
}

// GetReferencePrice returns the USD price of SOL. On failure it returns a
// hardcoded fallback so fee conversion always succeeds.
func (c *Client) GetReferencePrice(ctx context.Context) decimal.Decimal {
	prices := c.GetPrices(ctx, []string{SOLMint})
	entry, ok := prices[SOLMint]
	if !ok || entry.PriceUSD.IsZero() {
		c.logger.WarnContext(ctx, "reference price unavailable, using fallback",
			"fallback", fallbackSOLPriceUSD.String(),
		)
		return fallbackSOLPriceUSD
	}
	return entry.PriceUSD
}

// getJSON issues a GET against the market-data service and decodes the body.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
	} else if resp.StatusCode != http.StatusOK {
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordMarketRequest(path, status, duration)
	}

	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
