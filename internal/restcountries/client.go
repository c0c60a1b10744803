// Package restcountries is a client for the public REST Countries API.
package restcountries

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Aman-CERP/countryscope/internal/country"
	scerrors "github.com/Aman-CERP/countryscope/internal/errors"
)

const (
	// DefaultBaseURL is the v3.1 API root.
	DefaultBaseURL = "https://restcountries.com/v3.1"

	// DefaultTimeout bounds a single request, including body decode.
	DefaultTimeout = 10 * time.Second

	// maxBodyBytes caps the decoded payload; the full /name/a response is ~1MB.
	maxBodyBytes = 8 << 20
)

// Config configures the client.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	MaxFailures  int
	ResetTimeout time.Duration
	UserAgent    string
}

// DefaultConfig returns the production endpoint with default timeouts.
func DefaultConfig() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		Timeout:      DefaultTimeout,
		MaxFailures:  5,
		ResetTimeout: 30 * time.Second,
		UserAgent:    "countryscope",
	}
}

// Client fetches country records by name.
type Client struct {
	client  *http.Client
	config  Config
	breaker *scerrors.CircuitBreaker
}

// NewClient creates a client. Zero fields in cfg take their defaults.
func NewClient(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	// No http.Client.Timeout: per-request deadlines come from the context.
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
	}

	return &Client{
		client: &http.Client{Transport: transport},
		config: cfg,
		breaker: scerrors.NewCircuitBreaker("restcountries",
			scerrors.WithMaxFailures(cfg.MaxFailures),
			scerrors.WithResetTimeout(cfg.ResetTimeout),
		),
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// BreakerState reports the upstream circuit breaker state.
func (c *Client) BreakerState() scerrors.State {
	return c.breaker.State()
}

// SearchByName issues GET {base}/name/{name}. A 404 from the API is
// reported as ErrCodeNotFound; it does not count against the breaker.
func (c *Client) SearchByName(ctx context.Context, name string) (country.ResultSet, error) {
	if strings.TrimSpace(name) == "" {
		return nil, scerrors.New(scerrors.ErrCodeQueryEmpty, "query is empty", nil)
	}

	result, err := scerrors.Guard(c.breaker, func() (country.ResultSet, error) {
		return c.searchByName(ctx, name)
	}, tripsBreaker)
	if stderrors.Is(err, scerrors.ErrCircuitOpen) {
		return nil, scerrors.New(scerrors.ErrCodeCircuitOpen, "restcountries circuit is open", err).
			WithDetail("query", name).
			WithSuggestion("the API failed repeatedly; lookups resume automatically")
	}
	return result, err
}

func (c *Client) searchByName(ctx context.Context, name string) (country.ResultSet, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	endpoint := c.config.BaseURL + "/name/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, scerrors.New(scerrors.ErrCodeInvalidInput, "failed to create request", err).
			WithDetail("query", name)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err).WithDetail("query", name)
	}
	defer func() { _ = resp.Body.Close() }()

	slog.Debug("restcountries_response",
		slog.String("query", name),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, scerrors.New(scerrors.ErrCodeNotFound, fmt.Sprintf("no country matches %q", name), nil).
			WithDetail("query", name)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, scerrors.New(scerrors.ErrCodeUpstreamStatus,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), stderrors.New(strings.TrimSpace(string(body)))).
			WithDetail("query", name).
			WithDetail("status", strconv.Itoa(resp.StatusCode))
	}

	var result country.ResultSet
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&result); err != nil {
		if ctx.Err() != nil {
			return nil, classifyTransportError(err).WithDetail("query", name)
		}
		return nil, scerrors.New(scerrors.ErrCodeMalformedPayload, "failed to decode response", err).
			WithDetail("query", name)
	}
	if result == nil {
		result = country.Empty()
	}

	return result, nil
}

// classifyTransportError maps a failed round trip to a network error code.
func classifyTransportError(err error) *scerrors.ScopeError {
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		return scerrors.New(scerrors.ErrCodeNetworkTimeout, "restcountries request timed out", err)
	}
	return scerrors.New(scerrors.ErrCodeNetworkUnavailable, "restcountries request failed", err)
}

// tripsBreaker counts only failures that say something about upstream health.
// A caller abandoning its request is not one of them.
func tripsBreaker(err error) bool {
	if stderrors.Is(err, context.Canceled) {
		return false
	}
	return scerrors.IsRetryable(err)
}
