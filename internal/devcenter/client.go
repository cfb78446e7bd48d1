// ABOUTME: DevCenter API client for packaged (MSIX) Store products
// ABOUTME: One method per remote submission action over the shared authenticated transport
package devcenter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/gillisandrew/msstore-cli/internal/transport"
)

const (
	DefaultEndpoint   = "https://manage.devcenter.microsoft.com"
	DefaultAPIVersion = "1.0"
	DefaultScope      = "https://manage.devcenter.microsoft.com/.default"

	// DefaultPageSize is the number of applications requested per listing page
	DefaultPageSize = 100
)

var (
	// ErrNotInitialized is returned by every operation called before Initialize
	ErrNotInitialized = errors.New("devcenter: client used before Initialize")

	// ErrEmptyDocument is returned when a submission document has no body
	ErrEmptyDocument = errors.New("devcenter: empty submission document")
)

// ClientOpts configures the DevCenter client
type ClientOpts struct {
	// API host (default: https://manage.devcenter.microsoft.com)
	Endpoint string

	// API version segment (default: "1.0")
	APIVersion string

	// Azure AD tenant the service principal belongs to
	TenantID string

	// Correlation id attached to every request
	CorrelationID string

	// Request timeout (default: transport.DefaultTimeout)
	Timeout time.Duration

	// Bearer token source (required)
	Tokens transport.TokenProvider

	// Optional HTTP client override
	HTTPClient *http.Client
}

// DefaultClientOpts returns options pointing at the public DevCenter endpoint
func DefaultClientOpts() *ClientOpts {
	return &ClientOpts{
		Endpoint:   DefaultEndpoint,
		APIVersion: DefaultAPIVersion,
		Timeout:    transport.DefaultTimeout,
	}
}

// WithEndpoint sets the API host
func (opts *ClientOpts) WithEndpoint(endpoint string) *ClientOpts {
	opts.Endpoint = endpoint
	return opts
}

// WithTenantID sets the tenant header value
func (opts *ClientOpts) WithTenantID(tenantID string) *ClientOpts {
	opts.TenantID = tenantID
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

// Client talks to the DevCenter submission API
type Client struct {
	opts *ClientOpts
	http *transport.Client
}

// NewClient creates an uninitialized client; call Initialize before use
func NewClient(opts *ClientOpts) *Client {
	if opts == nil {
		opts = DefaultClientOpts()
	}
	if opts.APIVersion == "" {
		opts.APIVersion = DefaultAPIVersion
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

	// Fail here rather than on the first API call when the credentials are bad
	if _, err := c.opts.Tokens.Token(ctx); err != nil {
		return fmt.Errorf("failed to acquire DevCenter access token: %w", err)
	}

	topts := transport.DefaultOpts().
		WithBaseURL(c.opts.Endpoint).
		WithTokenProvider(c.opts.Tokens).
		WithHTTPClient(c.opts.HTTPClient)
	if c.opts.Timeout > 0 {
		topts = topts.WithTimeout(c.opts.Timeout)
	}
	if c.opts.TenantID != "" {
		topts = topts.WithHeader(transport.HeaderTenantID, c.opts.TenantID)
	}
	if c.opts.CorrelationID != "" {
		topts = topts.WithHeader(transport.HeaderCorrelationID, c.opts.CorrelationID)
	}

	httpClient, err := transport.New(topts)
	if err != nil {
		return fmt.Errorf("failed to create DevCenter transport: %w", err)
	}
	c.http = httpClient
	return nil
}

// IsInitialized reports whether Initialize has completed
func (c *Client) IsInitialized() bool {
	return c.http != nil
}

func (c *Client) ready() error {
	if c.http == nil {
		return ErrNotInitialized
	}
	return nil
}

func (c *Client) path(format string, args ...any) string {
	escaped := make([]any, len(args))
	for i, a := range args {
		if s, ok := a.(string); ok {
			escaped[i] = url.PathEscape(s)
		} else {
			escaped[i] = a
		}
	}
	return fmt.Sprintf("/v%s/my/", c.opts.APIVersion) + fmt.Sprintf(format, escaped...)
}

// GetApplication fetches a single application by product id
func (c *Client) GetApplication(ctx context.Context, productID string) (*Application, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	return transport.Invoke[Application](ctx, c.http, http.MethodGet, c.path("applications/%s", productID), nil)
}

// ListApplications fetches one page of applications
func (c *Client) ListApplications(ctx context.Context, skip, top int) (*ApplicationsPage, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	return transport.Invoke[ApplicationsPage](ctx, c.http, http.MethodGet, c.path("applications?skip=%d&top=%d", skip, top), nil)
}

// GetApplications walks every page of the applications listing
func (c *Client) GetApplications(ctx context.Context) ([]Application, error) {
	var apps []Application
	for skip := 0; ; skip += DefaultPageSize {
		page, err := c.ListApplications(ctx, skip, DefaultPageSize)
		if err != nil {
			return nil, err
		}
		if page == nil {
			break
		}
		apps = append(apps, page.Value...)
		if len(page.Value) < DefaultPageSize {
			break
		}
		// totalCount is optional; without it only a short page ends the walk
		if page.TotalCount > 0 && len(apps) >= page.TotalCount {
			break
		}
	}
	return apps, nil
}

// CreateSubmission opens a new submission cloned from the last published one.
// The service rejects this while another submission is pending.
func (c *Client) CreateSubmission(ctx context.Context, productID string) (*Submission, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	return transport.Invoke[Submission](ctx, c.http, http.MethodPost, c.path("applications/%s/submissions?isMinimalResponse=true", productID), nil)
}

// GetSubmission fetches a submission
func (c *Client) GetSubmission(ctx context.Context, productID, submissionID string) (*Submission, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	return transport.Invoke[Submission](ctx, c.http, http.MethodGet, c.path("applications/%s/submissions/%s", productID, submissionID), nil)
}

// UpdateSubmission replaces an uncommitted submission
func (c *Client) UpdateSubmission(ctx context.Context, productID, submissionID string, submission *Submission) (*Submission, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	return transport.Invoke[Submission](ctx, c.http, http.MethodPut, c.path("applications/%s/submissions/%s", productID, submissionID), submission)
}

// GetSubmissionDocument fetches a submission as the JSON document the service
// returned, including fields Submission does not model
func (c *Client) GetSubmissionDocument(ctx context.Context, productID, submissionID string) ([]byte, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	body, err := transport.InvokeRaw(ctx, c.http, http.MethodGet, c.path("applications/%s/submissions/%s", productID, submissionID), nil)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, submissionID)
	}
	return []byte(body), nil
}

// UpdateSubmissionDocument replaces an uncommitted submission with doc as-is
func (c *Client) UpdateSubmissionDocument(ctx context.Context, productID, submissionID string, doc []byte) (*Submission, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, submissionID)
	}
	return transport.Invoke[Submission](ctx, c.http, http.MethodPut, c.path("applications/%s/submissions/%s", productID, submissionID), jsoniter.RawMessage(doc))
}

// CommitSubmission hands the submission to the Store pipeline.
// A nil response with a nil error means the service accepted the commit without detail.
func (c *Client) CommitSubmission(ctx context.Context, productID, submissionID string) (*CommitResponse, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	return transport.Invoke[CommitResponse](ctx, c.http, http.MethodPost, c.path("applications/%s/submissions/%s/Commit", productID, submissionID), nil)
}

// DeleteSubmission removes a pending submission. It returns nil when the
// service answered with an empty body, or the error payload it returned.
func (c *Client) DeleteSubmission(ctx context.Context, productID, submissionID string) (*DevCenterError, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	return transport.Invoke[DevCenterError](ctx, c.http, http.MethodDelete, c.path("applications/%s/submissions/%s", productID, submissionID), nil)
}

// GetSubmissionStatus fetches the current status of a submission
func (c *Client) GetSubmissionStatus(ctx context.Context, productID, submissionID string) (*SubmissionStatus, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	return transport.Invoke[SubmissionStatus](ctx, c.http, http.MethodGet, c.path("applications/%s/submissions/%s/status", productID, submissionID), nil)
}

// GetFlights lists the package flights of an application
func (c *Client) GetFlights(ctx context.Context, productID string) ([]Flight, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	page, err := transport.Invoke[FlightsPage](ctx, c.http, http.MethodGet, c.path("applications/%s/listflights?skip=0&top=%d", productID, DefaultPageSize), nil)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, nil
	}
	return page.Value, nil
}
