package fetch

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Config struct {
	Timeout   time.Duration `json:"timeout"`    // 0 keeps the transport default
	RateLimit time.Duration `json:"rate_limit"` // minimum delay between requests, 0 disables
	UserAgent string        `json:"user_agent"`

	// Transport replaces the network transport of every request client.
	Transport http.RoundTripper `json:"-"`
	Metrics   *Metrics          `json:"-"`
	Logger    *zap.Logger       `json:"-"`
}

// Client holds the settings shared by eager fetches and descriptors.
// It does not hold a connection: every request builds its own transport client.
type Client struct {
	mu        sync.RWMutex
	timeout   time.Duration
	userAgent string

	transport http.RoundTripper
	limiter   *rate.Limiter
	metrics   *Metrics
	logger    *zap.Logger
}

func New(config Config) *Client {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		timeout:   config.Timeout,
		userAgent: config.UserAgent,
		transport: config.Transport,
		limiter:   rate.NewLimiter(rate.Inf, 1),
		metrics:   config.Metrics,
		logger:    logger,
	}
	c.SetRateLimit(config.RateLimit)
	return c
}

func (c *Client) SetTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d < 0 {
		d = 0
	}
	c.timeout = d
}

func (c *Client) Timeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.timeout
}

// SetRateLimit sets the minimum delay between two requests of this client.
func (c *Client) SetRateLimit(delay time.Duration) {
	if delay <= 0 {
		c.limiter.SetLimit(rate.Inf)
		return
	}
	c.limiter.SetLimit(rate.Every(delay))
}

func (c *Client) RateLimit() time.Duration {
	l := c.limiter.Limit()
	if l == rate.Inf || l <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(l))
}

// Request captures a deferred GET of url. Nothing is validated or sent until
// Generate is called on the result. Headers and cookies are accepted but not
// applied to the request yet.
func (c *Client) Request(url, headers, cookies string) *Descriptor {
	return c.Do(http.MethodGet, url, headers, nil, cookies)
}

// Do captures a deferred request with an arbitrary method and payload.
// The body is ignored for GET requests.
func (c *Client) Do(method, url, headers string, body []byte, cookies string) *Descriptor {
	return &Descriptor{
		method:   method,
		url:      url,
		headers:  headers,
		body:     body,
		cookies:  cookies,
		settings: c.snapshot(),
	}
}

// GetBody performs the GET immediately and returns the whole body.
func (c *Client) GetBody(ctx context.Context, url, headers, cookies string) ([]byte, error) {
	return c.Request(url, headers, cookies).Bytes(ctx)
}

// DoBody performs the request immediately and returns the whole body.
func (c *Client) DoBody(ctx context.Context, method, url, headers string, body []byte, cookies string) ([]byte, error) {
	return c.Do(method, url, headers, body, cookies).Bytes(ctx)
}

func (c *Client) snapshot() settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return settings{
		timeout:   c.timeout,
		userAgent: c.userAgent,
		transport: c.transport,
		limiter:   c.limiter,
		metrics:   c.metrics,
		logger:    c.logger,
	}
}

// settings is the copy of the client state a descriptor carries.
// The limiter is the only shared object, it delays requests but never
// changes what they fetch.
type settings struct {
	timeout   time.Duration
	userAgent string
	transport http.RoundTripper
	limiter   *rate.Limiter
	metrics   *Metrics
	logger    *zap.Logger
}

func (s settings) newRestyClient() *resty.Client {
	rc := resty.New().
		SetRetryCount(0).
		SetCloseConnection(true).
		SetLogger(s.logger.Sugar())
	if s.transport != nil {
		rc.SetTransport(s.transport)
	}
	if s.timeout > 0 {
		rc.SetTimeout(s.timeout)
	}
	if s.userAgent != "" {
		rc.SetHeader("User-Agent", s.userAgent)
	}
	return rc
}

func (s settings) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}
