// Package mindicador is a client for the Chilean economic indicator API,
// used to convert CLP and UF denominated positions into USD.
package mindicador

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Indicator endpoints: "dolar" is the USD/CLP rate, "uf" the UF value in CLP.
const (
	indicatorDolar = "dolar"
	indicatorUF    = "uf"
)

type serieEntry struct {
	Fecha string          `json:"fecha"`
	Valor decimal.Decimal `json:"valor"`
}

type indicatorResponse struct {
	Serie []serieEntry `json:"serie"`
}

// Client fetches exchange rates with a per-run cache. Rates move daily, so
// one fetch per indicator per run is enough.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu    sync.Mutex
	rates map[string]decimal.Decimal
}

// NewClient builds a client against the given API base URL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		rates:      map[string]decimal.Decimal{},
	}
}

// ToUSD converts a value from CLP, UF, or USD into USD. USD passes through
// unchanged; unsupported currencies return an error.
func (c *Client) ToUSD(ctx context.Context, value decimal.Decimal, currency string) (decimal.Decimal, error) {
	switch strings.ToUpper(strings.TrimSpace(currency)) {
	case "USD", "":
		return value, nil
	case "CLP":
		rate, err := c.rate(ctx, indicatorDolar)
		if err != nil {
			return decimal.Decimal{}, err
		}
		return value.Div(rate), nil
	case "UF":
		ufCLP, err := c.rate(ctx, indicatorUF)
		if err != nil {
			return decimal.Decimal{}, err
		}
		usdCLP, err := c.rate(ctx, indicatorDolar)
		if err != nil {
			return decimal.Decimal{}, err
		}
		return value.Mul(ufCLP).Div(usdCLP), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported currency %q", currency)
	}
}

// rate returns the latest value for one indicator, cached for the run.
func (c *Client) rate(ctx context.Context, indicator string) (decimal.Decimal, error) {
	c.mu.Lock()
	if r, ok := c.rates[indicator]; ok {
		c.mu.Unlock()
		return r, nil
	}
	c.mu.Unlock()

	url := c.baseURL + "/" + indicator
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to build indicator request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("indicator request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("indicator %s returned status %d", indicator, resp.StatusCode)
	}

	var body indicatorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to decode indicator response: %w", err)
	}
	if len(body.Serie) == 0 {
		return decimal.Decimal{}, fmt.Errorf("indicator %s returned an empty series", indicator)
	}
	latest := body.Serie[0].Valor
	if latest.IsZero() {
		return decimal.Decimal{}, fmt.Errorf("indicator %s returned a zero rate", indicator)
	}

	c.mu.Lock()
	c.rates[indicator] = latest
	c.mu.Unlock()
	c.logger.Debug("fetched exchange rate",
		slog.String("indicator", indicator), slog.String("value", latest.String()))
	return latest, nil
}
