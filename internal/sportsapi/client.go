// Package sportsapi is the HTTP layer shared by all sports-data providers.
// It issues authenticated GET requests, classifies failures into ErrorKinds,
// and gates raw bodies before any provider-specific normalization runs.
package sportsapi

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

	"github.com/rewired-gh/bettips/internal/cache"
	"github.com/rewired-gh/bettips/internal/logger"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 16 << 20

// BreakerConfig tunes the circuit breaker placed in front of a provider.
type BreakerConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// ClientConfig configures a provider client.
type ClientConfig struct {
	Provider          string
	BaseURL           string
	Token             string
	TokenParam        string // query parameter carrying the token, e.g. "api_token"
	Timeout           time.Duration
	MaxRetries        int // total attempts; values below 1 mean a single attempt
	RetryDelayBase    time.Duration
	RequestsPerSecond float64 // 0 disables pacing
	CacheTTL          time.Duration
	Breaker           BreakerConfig
}

// Client provides access to one provider's HTTP API
type Client struct {
	provider       string
	baseURL        string
	token          string
	tokenParam     string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
	limiter        *rate.Limiter
	breaker        *gobreaker.CircuitBreaker
	cache          cache.Cache
	cacheTTL       time.Duration
}

// Getter is the part of Client the providers depend on.
type Getter interface {
	Get(ctx context.Context, req Request) ([]byte, error)
	Provider() string
}

// Request describes a GET against the provider.
type Request struct {
	Endpoint    string     // path below the base URL, e.g. "/football/livescores/inplay"
	Query       url.Values // query parameters, without the token
	BypassCache bool
}

// NewClient creates a new provider client. The cache may be nil.
func NewClient(cfg ClientConfig, responseCache cache.Cache) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("%s: base url is required", cfg.Provider)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = time.Second
	}
	if cfg.TokenParam == "" {
		cfg.TokenParam = "api_token"
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	c := &Client{
		provider:       cfg.Provider,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		token:          cfg.Token,
		tokenParam:     cfg.TokenParam,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		maxRetries:     cfg.MaxRetries,
		retryDelayBase: cfg.RetryDelayBase,
		limiter:        limiter,
		cache:          responseCache,
		cacheTTL:       cfg.CacheTTL,
	}
	c.breaker = gobreaker.NewCircuitBreaker(breakerSettings(cfg.Provider, cfg.Breaker))

	return c, nil
}

func breakerSettings(name string, cfg BreakerConfig) gobreaker.Settings {
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = 0.6
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 3
	}
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureRatio
		},
		IsSuccessful: breakerSuccess,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker %s changed state: %s -> %s", name, from, to)
		},
	}
}

// breakerSuccess counts everything but transport failures and 5xx responses as
// success. A 4xx means the upstream is up and rejected the request.
func breakerSuccess(err error) bool {
	if err == nil || KindOf(err) != KindNetwork {
		return true
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		return true
	}
	return false
}

// Provider returns the provider name this client talks to.
func (c *Client) Provider() string {
	return c.provider
}

// HasCredential reports whether an API token is configured.
func (c *Client) HasCredential() bool {
	return c.token != ""
}

// BreakerState exposes the circuit breaker state for health reporting.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// Get fetches req and returns the raw JSON body.
func (c *Client) Get(ctx context.Context, req Request) ([]byte, error) {
	op := "GET " + req.Endpoint

	if c.token == "" {
		logger.Warn("%s API token is missing; configure it to fetch real data", c.provider)
		return nil, &Error{Kind: KindMissingCredential, Op: op, Provider: c.provider}
	}

	cacheKey := c.cacheKey(req)
	if c.cache != nil && !req.BypassCache {
		if body, ok, err := c.cache.Get(ctx, cacheKey); err != nil {
			logger.Warn("Cache lookup failed for %s: %v", cacheKey, err)
		} else if ok {
			logger.Debug("Cache hit for %s", cacheKey)
			return body, nil
		}
	}

	fullURL := c.buildURL(req)
	logger.Debug("Requesting %s (token %s)", logger.MaskInString(fullURL, c.token), logger.MaskSecret(c.token))

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doRequest(ctx, op, fullURL)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &Error{Kind: KindNetwork, Op: op, Provider: c.provider, Err: err}
		}
		return nil, err
	}
	body := result.([]byte)

	if c.cache != nil && c.cacheTTL > 0 {
		if err := c.cache.Set(ctx, cacheKey, body, c.cacheTTL); err != nil {
			logger.Warn("Failed to cache %s: %v", cacheKey, err)
		}
	}

	return body, nil
}

func (c *Client) buildURL(req Request) string {
	query := url.Values{}
	for k, v := range req.Query {
		query[k] = append([]string(nil), v...)
	}
	query.Set(c.tokenParam, c.token)

	endpoint := req.Endpoint
	if endpoint != "" && !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return c.baseURL + endpoint + "?" + query.Encode()
}

func (c *Client) cacheKey(req Request) string {
	return c.provider + ":" + req.Endpoint + "?" + req.Query.Encode()
}

// doRequest performs the HTTP request with retry logic on transport errors and 5xx.
func (c *Client) doRequest(ctx context.Context, op, fullURL string) ([]byte, error) {
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, &Error{Kind: KindNetwork, Op: op, Provider: c.provider, Err: ctx.Err()}
			case <-time.After(c.retryDelayBase * time.Duration(i)):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, &Error{Kind: KindNetwork, Op: op, Provider: c.provider, Err: err}
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, &Error{Kind: KindNetwork, Op: op, Provider: c.provider, Err: err}
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = &Error{Kind: KindNetwork, Op: op, Provider: c.provider,
				Err: errors.New(logger.MaskInString(err.Error(), c.token))}
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		resp.Body.Close()
		if readErr != nil {
			lastErr = &Error{Kind: KindNetwork, Op: op, Provider: c.provider, Err: readErr}
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = &Error{Kind: KindNetwork, Op: op, Provider: c.provider, StatusCode: resp.StatusCode,
				Err: errors.New(errorMessage(resp.Header.Get("Content-Type"), body))}
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &Error{Kind: KindNetwork, Op: op, Provider: c.provider, StatusCode: resp.StatusCode,
				Err: errors.New(errorMessage(resp.Header.Get("Content-Type"), body))}
		}

		decoded, err := decodeBody(resp.StatusCode, resp.Header.Get("Content-Type"), body)
		if err != nil {
			return nil, &Error{Kind: KindMalformedResponse, Op: op, Provider: c.provider, Err: err}
		}
		return decoded, nil
	}

	if c.maxRetries > 1 {
		logger.Warn("%s %s failed after %d attempts", c.provider, op, c.maxRetries)
	}
	return nil, lastErr
}

// decodeBody applies the content-type rules: no content means an empty object,
// JSON must parse, anything else is accepted only if it parses as JSON anyway.
func decodeBody(status int, contentType string, body []byte) ([]byte, error) {
	if status == http.StatusNoContent || contentType == "" {
		return []byte("{}"), nil
	}
	if isJSONContentType(contentType) {
		if !json.Valid(body) {
			return nil, errors.New("invalid JSON body")
		}
		return body, nil
	}
	if json.Valid(body) {
		return body, nil
	}
	return nil, fmt.Errorf("expected JSON but received: %s", contentType)
}

func isJSONContentType(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "application/json") || strings.Contains(ct, "+json")
}

// errorMessage pulls a human message out of an error body.
func errorMessage(contentType string, body []byte) string {
	fallback := "request failed"
	if isJSONContentType(contentType) {
		var payload struct {
			Message string          `json:"message"`
			Error   json.RawMessage `json:"error"`
		}
		if err := json.Unmarshal(body, &payload); err == nil {
			if payload.Message != "" {
				return payload.Message
			}
			var s string
			if json.Unmarshal(payload.Error, &s) == nil && s != "" {
				return s
			}
		}
		return fallback
	}

	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	if text == "" {
		return fallback
	}
	return text
}
