// Package transport implements the HTTP collaborator consumed by the
// route engine. It owns everything the engine delegates: URL assembly,
// signing transport, retries, rate limiting, and JSON decoding.
package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	"resty.dev/v3"

	"nakula/internal/ratelimit"
	"nakula/pkg/core"
)

// SignFunc mutates a built request in place to add authentication
// material (signature fields or headers) before it goes on the wire.
// The request's Events.KeyFields tells the signer which payload fields
// are signature material without redoing the alias mapping.
type SignFunc func(req *core.Request) error

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Service    string
	StatusCode int
	Body       []byte
}

// Error implements the error interface for StatusError.
func (e *StatusError) Error() string {
	return fmt.Sprintf("[%s] http status %d: %s", e.Service, e.StatusCode, string(e.Body))
}

// Client performs built requests over resty and retains the decoded
// JSON body of the most recent call for the engine to read back.
type Client struct {
	http    *resty.Client
	logger  zerolog.Logger
	limiter *ratelimit.Limiter
	signer  SignFunc
	service string

	mu      sync.Mutex
	body    any
	hasBody bool
}

var _ core.Caller = (*Client)(nil)

// Option configures a transport Client during construction.
type Option func(*Client)

// WithLogger sets the structured logger for request/response tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSigner sets the function applied to requests marked RequireAuth.
func WithSigner(signer SignFunc) Option {
	return func(c *Client) {
		c.signer = signer
	}
}

// New creates a transport Client from the service config.
func New(cfg *core.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(cfg.BaseURL)
	httpClient.SetTimeout(cfg.Timeout)
	httpClient.SetRetryCount(cfg.MaxRetries)
	httpClient.SetRetryWaitTime(cfg.RetryWaitMin)
	httpClient.SetRetryMaxWaitTime(cfg.RetryWaitMax)

	c := &Client{
		http:    httpClient,
		logger:  zerolog.Nop(),
		limiter: ratelimit.New(cfg.RateLimitRequests, cfg.RateLimitPeriod),
		service: cfg.Service,
	}
	for _, opt := range opts {
		opt(c)
	}

	logger := c.logger
	httpClient.AddRequestMiddleware(func(_ *resty.Client, req *resty.Request) error {
		logger.Debug().
			Str("method", req.Method).
			Str("url", req.URL).
			Msg("http request")
		return nil
	})
	httpClient.AddResponseMiddleware(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug().
			Str("method", resp.Request.Method).
			Str("url", resp.Request.URL).
			Int("status", resp.StatusCode()).
			Int("size", len(resp.Bytes())).
			Msg("http response")
		return nil
	})

	return c, nil
}

// Perform executes a built request: rate limit, sign when required,
// send the payload as query parameters (GET/DELETE) or a JSON body
// (POST/PUT/PATCH), and decode the response once for ParsedBody.
// The returned handle is the underlying *resty.Response.
func (c *Client) Perform(ctx context.Context, req *core.Request) (any, error) {
	if err := c.limiter.WaitEndpoint(ctx, req.Path); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	if req.RequireAuth && c.signer != nil {
		if err := c.signer(req); err != nil {
			return nil, fmt.Errorf("sign request: %w", err)
		}
	}

	r := c.http.R().SetContext(ctx)
	for k, v := range req.Headers {
		r.SetHeader(k, v)
	}

	var resp *resty.Response
	var err error
	switch req.Method {
	case "GET":
		r.SetQueryParams(payloadToQuery(req.Payload))
		resp, err = r.Get(req.Path)
	case "DELETE":
		r.SetQueryParams(payloadToQuery(req.Payload))
		resp, err = r.Delete(req.Path)
	case "POST":
		resp, err = r.SetHeader("Content-Type", "application/json").SetBody(encodeBody(req.Payload)).Post(req.Path)
	case "PUT":
		resp, err = r.SetHeader("Content-Type", "application/json").SetBody(encodeBody(req.Payload)).Put(req.Path)
	case "PATCH":
		resp, err = r.SetHeader("Content-Type", "application/json").SetBody(encodeBody(req.Payload)).Patch(req.Path)
	default:
		return nil, fmt.Errorf("unsupported http method: %s", req.Method)
	}
	if err != nil {
		c.logger.Error().Err(err).
			Str("method", req.Method).
			Str("path", req.Path).
			Msg("http request failed")
		return nil, fmt.Errorf("http request: %w", err)
	}

	if resp.StatusCode() >= 400 {
		return nil, &StatusError{
			Service:    c.service,
			StatusCode: resp.StatusCode(),
			Body:       resp.Bytes(),
		}
	}

	var body any
	if raw := resp.Bytes(); len(raw) > 0 {
		if err := sonic.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("decode response body: %w", err)
		}
	}

	c.mu.Lock()
	c.body = body
	c.hasBody = true
	c.mu.Unlock()

	return resp, nil
}

// ParsedBody returns the decoded JSON body of the most recent call.
func (c *Client) ParsedBody() (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasBody {
		return nil, core.ErrNoResponseBody
	}
	return c.body, nil
}

// Stats returns the rate limiter counters for observability.
func (c *Client) Stats() ratelimit.Snapshot {
	return c.limiter.Stats()
}

// Close releases the underlying HTTP client resources.
func (c *Client) Close() error {
	return c.http.Close()
}

func payloadToQuery(payload core.Params) map[string]string {
	query := make(map[string]string, len(payload))
	for k, v := range payload {
		if v == nil {
			// include=always fields surface as empty-valued parameters
			query[k] = ""
			continue
		}
		query[k] = cast.ToString(v)
	}
	return query
}

func encodeBody(payload core.Params) []byte {
	data, err := sonic.Marshal(payload)
	if err != nil {
		return []byte("{}")
	}
	return data
}
