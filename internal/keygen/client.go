// internal/keygen/client.go
package keygen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/keygen-bridge/internal/config"
)

const (
	mediaType = "application/vnd.api+json"

	defaultTimeout        = 10 * time.Second
	defaultMaxRetries     = 3
	defaultInitialBackoff = 100 * time.Millisecond
	defaultLinkTTL        = 900 * time.Second
)

// Client talks to the licensing service under /v1/accounts/<account>. Every
// call goes through RequestWithRetry.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	version        string
	timeout        time.Duration
	maxRetries     int
	initialBackoff time.Duration
	linkTTL        time.Duration
	sleep          func(ctx context.Context, d time.Duration) error
	now            func() time.Time
	links          *LinkCache
	log            *logrus.Entry
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithMaxRetries sets the total number of attempts per request.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

func WithInitialBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.initialBackoff = d
	}
}

// WithSleep replaces the backoff wait, mainly for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

func WithLinkCache(cache *LinkCache) Option {
	return func(c *Client) {
		c.links = cache
	}
}

// WithLinkTTL sets the lifetime assumed for download links the service
// returns without an expiry.
func WithLinkTTL(d time.Duration) Option {
	return func(c *Client) {
		c.linkTTL = d
	}
}

func WithLogger(entry *logrus.Entry) Option {
	return func(c *Client) {
		c.log = entry
	}
}

func NewClient(cfg config.KeygenConfig, opts ...Option) *Client {
	c := &Client{
		httpClient:     &http.Client{},
		baseURL:        fmt.Sprintf("%s/v1/accounts/%s", cfg.Host, url.PathEscape(cfg.Account)),
		token:          cfg.Token,
		version:        cfg.Version,
		timeout:        defaultTimeout,
		maxRetries:     defaultMaxRetries,
		initialBackoff: defaultInitialBackoff,
		linkTTL:        defaultLinkTTL,
		sleep:          sleepContext,
		now:            time.Now,
		log:            logrus.WithField("component", "keygen"),
	}

	if cfg.TimeoutMs > 0 {
		c.timeout = cfg.Timeout()
	}
	if cfg.MaxRetries > 0 {
		c.maxRetries = cfg.MaxRetries
	}
	if cfg.InitialBackoffMs > 0 {
		c.initialBackoff = cfg.InitialBackoff()
	}
	if cfg.DownloadTTL > 0 {
		c.linkTTL = time.Duration(cfg.DownloadTTL) * time.Second
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.maxRetries < 1 {
		c.maxRetries = 1
	}
	if c.links == nil {
		c.links = NewLinkCache(c.now)
	}

	return c
}

// Request describes one call relative to the account base URL.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string
}

// Response is a fully read answer from the licensing service.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// RequestWithRetry performs req, retrying transport failures (timeouts included)
// and 5xx answers with doubling backoff until maxRetries attempts are used.
// 4xx answers are returned after one attempt. The returned error is non-nil
// only when the last attempt failed at the transport level or ctx ended.
func (c *Client) RequestWithRetry(ctx context.Context, op string, req Request) (*Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		if body, err = json.Marshal(req.Body); err != nil {
			return nil, fmt.Errorf("encode %s request: %w", op, err)
		}
	}

	var (
		lastResp *Response
		lastErr  error
	)

	delay := c.initialBackoff
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		resp, err := c.do(ctx, req, body)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}
		lastResp, lastErr = resp, err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == c.maxRetries {
			break
		}

		retriesTotal.WithLabelValues(op).Inc()
		entry := c.log.WithFields(logrus.Fields{
			"operation": op,
			"attempt":   attempt,
			"delay_ms":  delay.Milliseconds(),
		})
		if err != nil {
			entry.WithError(err).Warn("[keygen] transport failure, retrying")
		} else {
			entry.WithField("status", resp.StatusCode).Warn("[keygen] server error, retrying")
		}

		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
		delay *= 2
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return lastResp, nil
}

func (c *Client) do(ctx context.Context, req Request, body []byte) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, target, reader)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Accept", mediaType)
	if c.version != "" {
		httpReq.Header.Set("Keygen-Version", c.version)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", mediaType)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// The body has to be read before attemptCtx is canceled.
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// call runs req and turns every failure into the package error taxonomy.
// When out is non-nil a successful body is decoded into it.
func (c *Client) call(ctx context.Context, op string, req Request, out interface{}) (*Response, error) {
	resp, err := c.RequestWithRetry(ctx, op, req)
	if err != nil {
		requestsTotal.WithLabelValues(op, outcomeTransport).Inc()
		return nil, fmt.Errorf("[keygen] %s request failed: %w", op, err)
	}
	if err := classify(op, resp); err != nil {
		requestsTotal.WithLabelValues(op, outcomeHTTPError).Inc()
		return resp, err
	}
	requestsTotal.WithLabelValues(op, outcomeSuccess).Inc()

	if out != nil && len(bytes.TrimSpace(resp.Body)) > 0 {
		if err := json.Unmarshal(resp.Body, out); err != nil {
			return resp, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, op, err)
		}
	}
	return resp, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
