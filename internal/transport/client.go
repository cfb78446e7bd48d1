// ABOUTME: Authenticated JSON HTTP invoker shared by the Store API clients
// ABOUTME: Attaches bearer tokens and default headers, maps non-2xx responses to APIError
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	jsoniter "github.com/json-iterator/go"
)

const (
	DefaultTimeout = 100 * time.Second
	UserAgent      = "msstore-cli"

	HeaderTenantID      = "X-Tenant-Id"
	HeaderSellerID      = "X-Seller-Account-Id"
	HeaderCorrelationID = "MS-CorrelationId"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNoTokenProvider is returned by New when Opts carries no token source
var ErrNoTokenProvider = errors.New("transport: token provider is required")

// TokenProvider supplies bearer tokens for outgoing requests
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenProviderFunc adapts a function to TokenProvider
type TokenProviderFunc func(ctx context.Context) (string, error)

func (f TokenProviderFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// Opts configures a transport Client
type Opts struct {
	// Base URL all request paths are resolved against
	BaseURL string

	// Static headers sent with every request
	Headers map[string]string

	// Request timeout (default: 100s)
	Timeout time.Duration

	// Source of bearer tokens (required)
	Tokens TokenProvider

	// Optional HTTP client override, mostly for tests
	HTTPClient *http.Client
}

// DefaultOpts returns transport options with the default timeout
func DefaultOpts() *Opts {
	return &Opts{
		Timeout: DefaultTimeout,
		Headers: make(map[string]string),
	}
}

// WithBaseURL sets the API base URL
func (opts *Opts) WithBaseURL(baseURL string) *Opts {
	opts.BaseURL = baseURL
	return opts
}

// WithHeader adds a static default header
func (opts *Opts) WithHeader(key, value string) *Opts {
	if opts.Headers == nil {
		opts.Headers = make(map[string]string)
	}
	opts.Headers[key] = value
	return opts
}

// WithTimeout sets the per-request timeout
func (opts *Opts) WithTimeout(timeout time.Duration) *Opts {
	opts.Timeout = timeout
	return opts
}

// WithTokenProvider sets the bearer token source
func (opts *Opts) WithTokenProvider(provider TokenProvider) *Opts {
	opts.Tokens = provider
	return opts
}

// WithHTTPClient sets the underlying HTTP client
func (opts *Opts) WithHTTPClient(client *http.Client) *Opts {
	opts.HTTPClient = client
	return opts
}

// Client performs authenticated JSON requests against a single API host
type Client struct {
	opts  *Opts
	resty *resty.Client
}

// New creates a transport client bound to the given options
func New(opts *Opts) (*Client, error) {
	if opts == nil {
		opts = DefaultOpts()
	}
	if opts.Tokens == nil {
		return nil, ErrNoTokenProvider
	}

	var r *resty.Client
	if opts.HTTPClient != nil {
		r = resty.NewWithClient(opts.HTTPClient)
	} else {
		r = resty.New()
	}

	r.SetBaseURL(opts.BaseURL).
		SetHeader("User-Agent", UserAgent).
		SetHeader("Accept", "application/json").
		SetHeaders(opts.Headers).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	if opts.Timeout > 0 {
		r.SetTimeout(opts.Timeout)
	}

	tokens := opts.Tokens
	r.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		token, err := tokens.Token(req.Context())
		if err != nil {
			return fmt.Errorf("failed to acquire access token: %w", err)
		}
		req.SetAuthToken(token)
		return nil
	})

	return &Client{opts: opts, resty: r}, nil
}

// BaseURL returns the base URL requests are resolved against
func (c *Client) BaseURL() string {
	return c.opts.BaseURL
}

// do issues one request and returns the raw body of a 2xx response
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	req := c.resty.R().SetContext(ctx)

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		req.SetHeader("Content-Type", "application/json").SetBody(data)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, &APIError{
			StatusCode: resp.StatusCode(),
			Body:       resp.String(),
			Method:     method,
			Path:       path,
		}
	}

	return resp.Body(), nil
}

// Invoke performs a request and decodes a successful response into T.
// An empty response body yields (nil, nil).
func Invoke[T any](ctx context.Context, c *Client, method, path string, body any) (*T, error) {
	data, err := c.do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}

	return &result, nil
}

// InvokeRaw performs a request and returns the response body verbatim
func InvokeRaw(ctx context.Context, c *Client, method, path string, body any) (string, error) {
	data, err := c.do(ctx, method, path, body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
