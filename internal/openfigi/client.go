// Package openfigi is a batching client for the OpenFIGI mapping API, used
// to resolve tickers and security types for banks whose files carry bare or
// ambiguous identifiers.
package openfigi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// The public API allows 25 requests per 6-second window; the limiter keeps
// a full run under that ceiling without sleeping between single lookups.
const (
	requestsPerWindow = 25
	window            = 6 * time.Second
	maxJobsPerRequest = 100
)

// Job is one identifier to resolve.
type Job struct {
	IDType  string `json:"idType"`
	IDValue string `json:"idValue"`
}

// Result is the fields the pipeline consumes from a mapping response entry.
type Result struct {
	FIGI         string `json:"figi"`
	Ticker       string `json:"ticker"`
	Name         string `json:"name"`
	SecurityType string `json:"securityType"`
	MarketSector string `json:"marketSector"`
}

type mappingResponse struct {
	Data  []Result `json:"data"`
	Error string   `json:"error"`
}

// Client calls the OpenFIGI mapping endpoint with rate limiting and a
// per-run identifier cache.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger

	mu    sync.Mutex
	cache map[string]*Result // key: idType|idValue; nil value = known miss
}

// NewClient builds a client. An empty apiKey uses the anonymous tier, which
// the same limiter also satisfies.
func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(window/requestsPerWindow), requestsPerWindow),
		logger:     logger,
		cache:      map[string]*Result{},
	}
}

// Lookup resolves a single identifier, hitting the cache first. A nil result
// with nil error means the API knows no match.
func (c *Client) Lookup(ctx context.Context, idType, idValue string) (*Result, error) {
	results, err := c.Map(ctx, []Job{{IDType: idType, IDValue: idValue}})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// Map resolves a batch of jobs, splitting into API-sized requests. The
// returned slice is positional: results[i] answers jobs[i], nil for misses.
func (c *Client) Map(ctx context.Context, jobs []Job) ([]*Result, error) {
	results := make([]*Result, len(jobs))

	var pending []Job
	var pendingIdx []int
	c.mu.Lock()
	for i, j := range jobs {
		if cached, seen := c.cache[cacheKey(j)]; seen {
			results[i] = cached
			continue
		}
		pending = append(pending, j)
		pendingIdx = append(pendingIdx, i)
	}
	c.mu.Unlock()

	for start := 0; start < len(pending); start += maxJobsPerRequest {
		end := start + maxJobsPerRequest
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]
		resolved, err := c.post(ctx, batch)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		for i, r := range resolved {
			c.cache[cacheKey(batch[i])] = r
			results[pendingIdx[start+i]] = r
		}
		c.mu.Unlock()
	}
	return results, nil
}

func (c *Client) post(ctx context.Context, jobs []Job) ([]*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(jobs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mapping request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build mapping request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-OPENFIGI-APIKEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mapping request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mapping request returned status %d", resp.StatusCode)
	}

	var entries []mappingResponse
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode mapping response: %w", err)
	}
	if len(entries) != len(jobs) {
		return nil, fmt.Errorf("mapping response has %d entries for %d jobs", len(entries), len(jobs))
	}

	results := make([]*Result, len(jobs))
	for i, e := range entries {
		if e.Error != "" || len(e.Data) == 0 {
			continue // miss
		}
		r := e.Data[0]
		results[i] = &r
	}
	return results, nil
}

func cacheKey(j Job) string { return j.IDType + "|" + j.IDValue }
