package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pricelens/pricewatch/internal/resilience"
)

// ClientOptions configures the shared collector HTTP client.
type ClientOptions struct {
	UserAgent string
	Timeout   time.Duration
	Retry     resilience.RetryConfig
	Circuit   resilience.CircuitBreakerConfig

	// RequestsPerSecond is the initial per-host rate. The limiter adapts:
	// it speeds up on success and halves on 429.
	RequestsPerSecond float64
	Burst             int
}

// Client wraps net/http with per-host adaptive rate limiting, retries on
// transient failures, and a per-host circuit breaker.
type Client struct {
	http     *http.Client
	opts     ClientOptions
	retry    resilience.RetryConfig
	mu       sync.Mutex
	limiters map[string]*adaptiveLimiter
	breakers *resilience.PlatformBreakers
}

// NewClient returns a Client with defaults filled in.
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "pricewatch/1.0"
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}
	if opts.Burst <= 0 {
		opts.Burst = 2
	}
	retryCfg := opts.Retry
	if retryCfg.MaxAttempts == 0 {
		retryCfg = resilience.DefaultRetryConfig()
	}
	circuitCfg := opts.Circuit
	if circuitCfg.FailureThreshold == 0 {
		circuitCfg = resilience.DefaultCircuitBreakerConfig()
	}
	return &Client{
		http:     &http.Client{Timeout: opts.Timeout},
		opts:     opts,
		retry:    retryCfg,
		limiters: map[string]*adaptiveLimiter{},
		breakers: resilience.NewPlatformBreakers(circuitCfg),
	}
}

// GetDocument fetches a URL and parses the response body as HTML.
func (c *Client) GetDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	body, err := c.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, eris.Wrapf(err, "collector: parse html from %s", rawURL)
	}
	return doc, nil
}

// Get fetches a URL through the host's limiter and breaker, retrying
// transient failures. The caller owns the returned body.
func (c *Client) Get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrapf(err, "collector: parse url %q", rawURL)
	}
	limiter := c.limiterFor(u.Host)
	breaker := c.breakers.Get(u.Host)

	retryCfg := c.retry
	retryCfg.OnRetry = resilience.RetryLogger(u.Host, "GET")

	return resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (io.ReadCloser, error) {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return resilience.ExecuteVal(ctx, breaker, func(ctx context.Context) (io.ReadCloser, error) {
			return c.doGet(ctx, rawURL, limiter)
		})
	})
}

func (c *Client) doGet(ctx context.Context, rawURL string, limiter *adaptiveLimiter) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "collector: build request")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		err := fmt.Errorf("GET %s: status %d", rawURL, resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests {
			limiter.OnRateLimit()
			return nil, resilience.NewThrottleError(err, parseRetryAfter(resp.Header.Get("Retry-After")))
		}
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}
	limiter.OnSuccess()
	return resp.Body, nil
}

// parseRetryAfter handles the delay-seconds form of the header. The HTTP-date
// form is rare on storefront throttles and is treated as no hint.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func (c *Client) limiterFor(host string) *adaptiveLimiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.limiters[host]; ok {
		return l
	}
	l := newAdaptiveLimiter(rate.Limit(c.opts.RequestsPerSecond), c.opts.Burst)
	c.limiters[host] = l
	return l
}

// adaptiveLimiter tunes a token bucket per host: +20% on success up to 2x
// the initial rate, halved on 429 down to a quarter of it.
type adaptiveLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	current rate.Limit
	max     rate.Limit
	min     rate.Limit
}

func newAdaptiveLimiter(initial rate.Limit, burst int) *adaptiveLimiter {
	return &adaptiveLimiter{
		limiter: rate.NewLimiter(initial, burst),
		current: initial,
		max:     initial * 2,
		min:     initial / 4,
	}
}

func (a *adaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

func (a *adaptiveLimiter) OnSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()
	next := a.current * 1.2
	if next > a.max {
		next = a.max
	}
	a.current = next
	a.limiter.SetLimit(next)
}

func (a *adaptiveLimiter) OnRateLimit() {
	a.mu.Lock()
	defer a.mu.Unlock()
	next := a.current * 0.5
	if next < a.min {
		next = a.min
	}
	a.current = next
	a.limiter.SetLimit(next)
	zap.L().Warn("halving request rate after 429",
		zap.Float64("requests_per_second", float64(next)))
}
