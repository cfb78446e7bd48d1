// ABOUTME: Store API client for unpackaged (MSI/EXE) products
// ABOUTME: Wraps the submission endpoints under /submission/v1/product/{productId}
package storeapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gillisandrew/msstore-cli/internal/transport"
)

const (
	DefaultEndpoint = "https://api.store.microsoft.com"
	DefaultScope    = "https://api.store.microsoft.com/.default"
)

// ErrNotInitialized is returned by every operation called before Initialize
var ErrNotInitialized = errors.New("storeapi: client used before Initialize")

// ErrMissingSellerID is returned by Initialize when no seller id is configured
var ErrMissingSellerID = errors.New("storeapi: seller id is required")

// ClientOpts configures the Store API client
type ClientOpts struct {
	// API host (default: https://api.store.microsoft.com)
	Endpoint string

	// Partner Center seller account id, sent on every request (required)
	SellerID string

	// Correlation id attached to every request
	CorrelationID string

	// Request timeout (default: transport.DefaultTimeout)
	Timeout time.Duration

	// Bearer token source (required)
	Tokens transport.TokenProvider

	HTTPClient *http.Client
}

// DefaultClientOpts returns options pointing at the public Store API endpoint
func DefaultClientOpts() *ClientOpts {
	return &ClientOpts{
		Endpoint: DefaultEndpoint,
		Timeout:  transport.DefaultTimeout,
	}
}

// WithEndpoint sets the API host
func (opts *ClientOpts) WithEndpoint(endpoint string) *ClientOpts {
	opts.Endpoint = endpoint
	return opts
}

// WithSellerID sets the seller account header value
func (opts *ClientOpts) WithSellerID(sellerID string) *ClientOpts {
	opts.SellerID = sellerID
	return opts
}

// WithCorrelationID sets the correlation header value
func (opts *ClientOpts) WithCorrelationID(id string) *ClientOpts {
	opts.CorrelationID = id
	return opts
}

// WithTokenProvider sets the bearer token source
func (opts *ClientOpts) WithTokenProvider(tokens transport.TokenProvider) *ClientOpts {
	opts.Tokens = tokens
	return opts
}

// WithHTTPClient sets the underlying HTTP client
func (opts *ClientOpts) WithHTTPClient(client *http.Client) *ClientOpts {
	opts.HTTPClient = client
	return opts
}

// Client talks to the unpackaged Store submission API
type Client struct {
	opts *ClientOpts
	http *transport.Client
}

// NewClient creates an uninitialized client; call Initialize before use
func NewClient(opts *ClientOpts) *Client {
	if opts == nil {
		opts = DefaultClientOpts()
	}
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	return &Client{opts: opts}
}

// Initialize acquires a first token and binds the HTTP transport
func (c *Client) Initialize(ctx context.Context) error {
	if c.opts.Tokens == nil {
		return transport.ErrNoTokenProvider
	}
	if c.opts.SellerID == "" {
		return ErrMissingSellerID
	}

	if _, err := c.opts.Tokens.Token(ctx); err != nil {
		return fmt.Errorf("failed to acquire Store API access token: %w", err)
	}

	topts := transport.DefaultOpts().
		WithBaseURL(c.opts.Endpoint).
		WithTokenProvider(c.opts.Tokens).
		WithHTTPClient(c.opts.HTTPClient).
		WithHeader(transport.HeaderSellerID, c.opts.SellerID)
	if c.opts.Timeout > 0 {
		topts = topts.WithTimeout(c.opts.Timeout)
	}
	if c.opts.CorrelationID != "" {
		topts = topts.WithHeader(transport.HeaderCorrelationID, c.opts.CorrelationID)
	}

	httpClient, err := transport.New(topts)
	if err != nil {
		return fmt.Errorf("failed to create Store API transport: %w", err)
	}
	c.http = httpClient
	return nil
}

// IsInitialized reports whether Initialize has completed
func (c *Client) IsInitialized() bool {
	return c.http != nil
}

func (c *Client) product(productID, suffix string) string {
	return "/submission/v1/product/" + url.PathEscape(productID) + "/" + suffix
}

// call performs one wrapped request, decoding the envelope into T
func call[T any](ctx context.Context, c *Client, method, path string, body any) (*ResponseWrapper[T], error) {
	if c.http == nil {
		return nil, ErrNotInitialized
	}
	return transport.Invoke[ResponseWrapper[T]](ctx, c.http, method, path, body)
}

// GetModuleStatus reports whether the product is ready for a new submission
func (c *Client) GetModuleStatus(ctx context.Context, productID string) (*ResponseWrapper[ModuleStatus], error) {
	return call[ModuleStatus](ctx, c, http.MethodGet, c.product(productID, "status"), nil)
}

// GetListings fetches the draft listings
func (c *Client) GetListings(ctx context.Context, productID string) (*ResponseWrapper[ListingsResponse], error) {
	return call[ListingsResponse](ctx, c, http.MethodGet, c.product(productID, "metadata/listings"), nil)
}

// GetAvailability fetches the draft availability
func (c *Client) GetAvailability(ctx context.Context, productID string) (*ResponseWrapper[Availability], error) {
	return call[Availability](ctx, c, http.MethodGet, c.product(productID, "metadata/availability"), nil)
}

// GetProperties fetches the draft properties
func (c *Client) GetProperties(ctx context.Context, productID string) (*ResponseWrapper[Properties], error) {
	return call[Properties](ctx, c, http.MethodGet, c.product(productID, "metadata/properties"), nil)
}

// UpdateMetadata replaces any subset of the draft metadata
func (c *Client) UpdateMetadata(ctx context.Context, productID string, req *UpdateMetadataRequest) (*ResponseWrapper[UpdateMetadataResponse], error) {
	return call[UpdateMetadataResponse](ctx, c, http.MethodPut, c.product(productID, "metadata"), req)
}

// GetPackages lists the draft packages
func (c *Client) GetPackages(ctx context.Context, productID string) (*ResponseWrapper[PackagesResponse], error) {
	return call[PackagesResponse](ctx, c, http.MethodGet, c.product(productID, "packages"), nil)
}

// UpdatePackages replaces the draft package set
func (c *Client) UpdatePackages(ctx context.Context, productID string, req *UpdatePackagesRequest) (*ResponseWrapper[PackagesResponse], error) {
	return call[PackagesResponse](ctx, c, http.MethodPatch, c.product(productID, "packages"), req)
}

// CommitPackages starts processing of the updated packages
func (c *Client) CommitPackages(ctx context.Context, productID string) (*ResponseWrapper[PackagesCommitResponse], error) {
	return call[PackagesCommitResponse](ctx, c, http.MethodPost, c.product(productID, "packages/commit"), nil)
}

// CreateSubmission submits the current draft for certification
func (c *Client) CreateSubmission(ctx context.Context, productID string) (*ResponseWrapper[CreateSubmissionResponse], error) {
	return call[CreateSubmissionResponse](ctx, c, http.MethodPost, c.product(productID, "submit"), nil)
}

// GetSubmissionStatus fetches the publishing status of a submission
func (c *Client) GetSubmissionStatus(ctx context.Context, productID, submissionID string) (*ResponseWrapper[SubmissionStatus], error) {
	return call[SubmissionStatus](ctx, c, http.MethodGet, c.product(productID, "submission/"+url.PathEscape(submissionID)+"/status"), nil)
}
