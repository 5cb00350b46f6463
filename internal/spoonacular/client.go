package spoonacular

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"recipe-planner/internal/cache"
)

const (
	DefaultBaseURL = "https://api.spoonacular.com"
	serviceName    = "spoonacular"
	MaxResults     = 100
)

// QuotaRecorder persists the quota points each request consumed.
type QuotaRecorder interface {
	RecordQuota(ctx context.Context, service string, points float64, latency time.Duration) error
}

type Options struct {
	APIKey            string
	BaseURL           string
	RequestsPerSecond float64
	CacheTTL          time.Duration
}

// Client is a rate limited, caching Spoonacular client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      cache.Cache
	ttl        time.Duration
	quota      QuotaRecorder
	logger     *zap.Logger
}

func NewClient(opts Options, c cache.Cache, quota QuotaRecorder, logger *zap.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 1
	}
	if c == nil {
		c = cache.NewMemory()
	}
	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		cache:      c,
		ttl:        opts.CacheTTL,
		quota:      quota,
		logger:     logger,
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool { return c.apiKey != "" }

// Search runs complexSearch. number is clamped to 1..MaxResults.
func (c *Client) Search(ctx context.Context, query string, number int) (*SearchResult, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	query = strings.TrimSpace(query)
	number = min(max(number, 1), MaxResults)

	key := fmt.Sprintf("spoonacular:search:%s:%d", strings.ToLower(query), number)
	var out SearchResult
	params := url.Values{"query": {query}, "number": {strconv.Itoa(number)}}
	if err := c.cached(ctx, key, "/recipes/complexSearch", params, &out); err != nil {
		return nil, err
	}
	if out.Results == nil {
		out.Results = []Summary{}
	}
	return &out, nil
}

// Get loads the full information of one recipe.
func (c *Client) Get(ctx context.Context, id int) (*Recipe, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	if id <= 0 {
		return nil, fmt.Errorf("%w: id must be positive", ErrInvalidInput)
	}

	var out Recipe
	path := fmt.Sprintf("/recipes/%d/information", id)
	params := url.Values{"includeNutrition": {"false"}}
	if err := c.cached(ctx, fmt.Sprintf("spoonacular:recipe:%d", id), path, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) cached(ctx context.Context, key, path string, params url.Values, dst any) error {
	hit, err := cache.GetJSON(ctx, c.cache, key, dst)
	if err != nil {
		c.logger.Warn("spoonacular cache read failed", zap.String("key", key), zap.Error(err))
	}
	if hit {
		c.logger.Debug("spoonacular cache hit", zap.String("key", key))
		return nil
	}

	if err := c.get(ctx, path, params, dst); err != nil {
		return err
	}
	if err := cache.SetJSON(ctx, c.cache, key, dst, c.ttl); err != nil {
		c.logger.Warn("spoonacular cache write failed", zap.String("key", key), zap.Error(err))
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dst any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("spoonacular rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The URL is left out of client-visible errors.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	c.recordQuota(ctx, resp.Header, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status=%d body=%s", ErrUpstream, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrUpstream, err)
	}
	return nil
}

// recordQuota stores the points charged for a request. Spoonacular reports
// them in X-API-Quota-Request; X-API-Quota-Used is the running daily total.
func (c *Client) recordQuota(ctx context.Context, h http.Header, latency time.Duration) {
	if c.quota == nil {
		return
	}
	points, err := strconv.ParseFloat(h.Get("X-API-Quota-Request"), 64)
	if err != nil {
		points = 0
	}
	if used := h.Get("X-API-Quota-Used"); used != "" {
		c.logger.Debug("spoonacular quota", zap.String("used_today", used), zap.Float64("request", points))
	}
	if err := c.quota.RecordQuota(ctx, serviceName, points, latency); err != nil {
		c.logger.Warn("failed to record spoonacular quota", zap.Error(err))
	}
}
