// ABOUTME: Service principal (client id + secret) token provider for the Store APIs
// ABOUTME: Uses the OAuth2 client credentials grant against the Azure AD v2 endpoint
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// DefaultAuthorityHost is the Azure AD login host
	DefaultAuthorityHost = "https://login.microsoftonline.com"
)

var (
	ErrMissingTenantID     = errors.New("auth: tenant id is required")
	ErrMissingClientID     = errors.New("auth: client id is required")
	ErrMissingClientSecret = errors.New("auth: client secret is required")
)

// ClientCredentialOpts configures a ClientCredentialProvider
type ClientCredentialOpts struct {
	// Azure AD tenant that owns the app registration
	TenantID string

	// App registration (client) id
	ClientID string

	// Client secret read from the credential store
	ClientSecret string

	// Scopes to request; a resource "X" becomes "X/.default"
	Scopes []string

	// Token endpoint override (default: <AuthorityHost>/<tenant>/oauth2/v2.0/token)
	TokenURL string

	// HTTP client used for token requests
	HTTPClient *http.Client
}

// DefaultClientCredentialOpts returns empty options; tenant, client and secret must be set
func DefaultClientCredentialOpts() *ClientCredentialOpts {
	return &ClientCredentialOpts{}
}

func (opts *ClientCredentialOpts) WithTenantID(tenantID string) *ClientCredentialOpts {
	opts.TenantID = tenantID
	return opts
}

func (opts *ClientCredentialOpts) WithClientID(clientID string) *ClientCredentialOpts {
	opts.ClientID = clientID
	return opts
}

func (opts *ClientCredentialOpts) WithClientSecret(secret string) *ClientCredentialOpts {
	opts.ClientSecret = secret
	return opts
}

// WithScopes sets the requested scopes
func (opts *ClientCredentialOpts) WithScopes(scopes ...string) *ClientCredentialOpts {
	opts.Scopes = scopes
	return opts
}

// WithTokenURL overrides the token endpoint
func (opts *ClientCredentialOpts) WithTokenURL(tokenURL string) *ClientCredentialOpts {
	opts.TokenURL = tokenURL
	return opts
}

func (opts *ClientCredentialOpts) WithHTTPClient(client *http.Client) *ClientCredentialOpts {
	opts.HTTPClient = client
	return opts
}

// ClientCredentialProvider issues app-only access tokens
type ClientCredentialProvider struct {
	opts   *ClientCredentialOpts
	config *clientcredentials.Config

	mu    sync.Mutex
	token *oauth2.Token
}

// NewClientCredentialProvider validates opts and returns a provider
func NewClientCredentialProvider(opts *ClientCredentialOpts) (*ClientCredentialProvider, error) {
	if opts == nil {
		opts = DefaultClientCredentialOpts()
	}
	switch {
	case opts.TenantID == "":
		return nil, ErrMissingTenantID
	case opts.ClientID == "":
		return nil, ErrMissingClientID
	case opts.ClientSecret == "":
		return nil, ErrMissingClientSecret
	}

	tokenURL := opts.TokenURL
	if tokenURL == "" {
		tokenURL = TokenURL(opts.TenantID)
	}

	return &ClientCredentialProvider{
		opts: opts,
		config: &clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     tokenURL,
			Scopes:       DefaultScopes(opts.Scopes...),
			AuthStyle:    oauth2.AuthStyleInParams,
		},
	}, nil
}

// Token returns a valid access token, fetching a new one when the cached
// token is missing or about to expire
func (p *ClientCredentialProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token.Valid() {
		return p.token.AccessToken, nil
	}

	if p.opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.opts.HTTPClient)
	}
	token, err := p.config.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("client credentials token request failed: %w", err)
	}
	p.token = token
	return token.AccessToken, nil
}

// TokenURL returns the Azure AD v2 token endpoint of a tenant
func TokenURL(tenantID string) string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", DefaultAuthorityHost, tenantID)
}

// DefaultScopes turns resource URIs into ".default" scopes, leaving full scopes untouched
func DefaultScopes(resources ...string) []string {
	scopes := make([]string, 0, len(resources))
	for _, r := range resources {
		if strings.HasSuffix(r, "/.default") {
			scopes = append(scopes, r)
			continue
		}
		scopes = append(scopes, strings.TrimSuffix(r, "/")+"/.default")
	}
	return scopes
}
