// ABOUTME: Delegated (signed-in user) token provider built on MSAL
// ABOUTME: Tries the cache silently first and falls back to one interactive sign-in
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/public"
	"github.com/pterm/pterm"

	"github.com/gillisandrew/msstore-cli/internal/ui"
)

const (
	// MicrosoftAccountTenantID is the tenant of personal Microsoft accounts
	MicrosoftAccountTenantID = "9188040d-6c67-4c5b-b112-36a304b66dad"

	// DefaultDelegatedAuthority accepts work and school accounts from any tenant
	DefaultDelegatedAuthority = DefaultAuthorityHost + "/organizations"
)

var timeNow = time.Now

// ErrNoScopes is returned when a token is requested without scopes
var ErrNoScopes = errors.New("auth: at least one scope is required")

// Token is an access token together with the account it was issued to
type Token struct {
	AccessToken string
	Account     string
	TenantID    string
	ExpiresOn   time.Time
}

func newToken(res public.AuthResult) *Token {
	return &Token{
		AccessToken: res.AccessToken,
		Account:     res.Account.PreferredUsername,
		TenantID:    res.Account.Realm,
		ExpiresOn:   res.ExpiresOn,
	}
}

// DelegatedOpts configures a DelegatedProvider
type DelegatedOpts struct {
	// Public client (app registration) id
	ClientID string

	// Authority URL (default: https://login.microsoftonline.com/organizations)
	Authority string

	// Scopes used by Token
	Scopes []string

	// Persisted token cache; nil keeps tokens in memory only
	Cache *FileCache

	// Use the device code flow instead of opening a browser
	UseDeviceCode bool

	// Hide personal Microsoft accounts when selecting an account
	ExcludeMicrosoftAccounts bool

	// Prompter for account selection
	Prompter ui.Prompter

	// Optional logger
	Logger *pterm.Logger

	// Client overrides the MSAL client, used by tests
	Client PublicClient
}

// DefaultDelegatedOpts returns options for the organizations authority
func DefaultDelegatedOpts() *DelegatedOpts {
	return &DelegatedOpts{
		Authority:                DefaultDelegatedAuthority,
		ExcludeMicrosoftAccounts: true,
	}
}

// WithClientID sets the app registration used for sign-in
func (opts *DelegatedOpts) WithClientID(clientID string) *DelegatedOpts {
	opts.ClientID = clientID
	return opts
}

// WithTenantID narrows the authority to a single tenant
func (opts *DelegatedOpts) WithTenantID(tenantID string) *DelegatedOpts {
	if tenantID != "" {
		opts.Authority = DefaultAuthorityHost + "/" + tenantID
	}
	return opts
}

// WithScopes sets the scopes Token requests
func (opts *DelegatedOpts) WithScopes(scopes ...string) *DelegatedOpts {
	opts.Scopes = scopes
	return opts
}

// WithCache persists the token cache to a file
func (opts *DelegatedOpts) WithCache(cache *FileCache) *DelegatedOpts {
	opts.Cache = cache
	return opts
}

// WithDeviceCode signs in with a device code instead of a browser
func (opts *DelegatedOpts) WithDeviceCode(enabled bool) *DelegatedOpts {
	opts.UseDeviceCode = enabled
	return opts
}

// WithPrompter sets the prompter used for account selection
func (opts *DelegatedOpts) WithPrompter(p ui.Prompter) *DelegatedOpts {
	opts.Prompter = p
	return opts
}

// WithLogger sets the debug logger
func (opts *DelegatedOpts) WithLogger(logger *pterm.Logger) *DelegatedOpts {
	opts.Logger = logger
	return opts
}

// WithClient replaces the MSAL public client
func (opts *DelegatedOpts) WithClient(client PublicClient) *DelegatedOpts {
	opts.Client = client
	return opts
}

// DelegatedProvider acquires tokens on behalf of a signed-in user
type DelegatedProvider struct {
	opts    *DelegatedOpts
	client  PublicClient
	account *public.Account
}

// NewDelegatedProvider creates a provider, building the MSAL client unless one is supplied
func NewDelegatedProvider(opts *DelegatedOpts) (*DelegatedProvider, error) {
	if opts == nil {
		opts = DefaultDelegatedOpts()
	}

	client := opts.Client
	if client == nil {
		if opts.ClientID == "" {
			return nil, ErrMissingClientID
		}
		authority := opts.Authority
		if authority == "" {
			authority = DefaultDelegatedAuthority
		}

		var err error
		client, err = NewPublicClient(opts.ClientID, authority, opts.Cache)
		if err != nil {
			return nil, err
		}
	}

	return &DelegatedProvider{opts: opts, client: client}, nil
}

// Accounts lists the accounts in the token cache
func (p *DelegatedProvider) Accounts(ctx context.Context) ([]public.Account, error) {
	accounts, err := p.client.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached accounts: %w", err)
	}
	return accounts, nil
}

// SelectAccount picks the cached account to use. With no candidates it
// returns nil. A single candidate is used directly, or after a yes/no
// confirmation when forceSelectionPrompt is set. Several candidates always
// prompt for a choice.
func (p *DelegatedProvider) SelectAccount(ctx context.Context, excludeMicrosoftAccounts, forceSelectionPrompt bool) (*public.Account, error) {
	accounts, err := p.Accounts(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]public.Account, 0, len(accounts))
	for _, acc := range accounts {
		if excludeMicrosoftAccounts && acc.Realm == MicrosoftAccountTenantID {
			continue
		}
		candidates = append(candidates, acc)
	}

	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		acc := candidates[0]
		if !forceSelectionPrompt {
			return &acc, nil
		}
		if p.opts.Prompter == nil {
			return &acc, nil
		}
		ok, err := p.opts.Prompter.Confirm(ctx, fmt.Sprintf("Continue as %s?", acc.PreferredUsername), true)
		if err != nil {
			return nil, fmt.Errorf("account confirmation failed: %w", err)
		}
		if !ok {
			return nil, nil
		}
		return &acc, nil
	default:
		if p.opts.Prompter == nil {
			return nil, fmt.Errorf("%d cached accounts found and no prompt available to choose one", len(candidates))
		}
		names := make([]string, len(candidates))
		for i, acc := range candidates {
			names[i] = acc.PreferredUsername
		}
		idx, err := p.opts.Prompter.Select(ctx, "Select the account to use", names)
		if err != nil {
			return nil, fmt.Errorf("account selection failed: %w", err)
		}
		acc := candidates[idx]
		return &acc, nil
	}
}

// UseAccount pins the account used for silent acquisition
func (p *DelegatedProvider) UseAccount(account *public.Account) {
	p.account = account
}

// GetToken returns a token for scopes. A cached account is tried silently
// first; when that needs user interaction, or no account is cached, exactly
// one interactive sign-in runs.
func (p *DelegatedProvider) GetToken(ctx context.Context, scopes []string) (*Token, error) {
	if len(scopes) == 0 {
		return nil, ErrNoScopes
	}

	if p.account == nil {
		acc, err := p.SelectAccount(ctx, p.opts.ExcludeMicrosoftAccounts, false)
		if err != nil {
			return nil, err
		}
		p.account = acc
	}

	if p.account != nil {
		silent, err := p.client.AcquireTokenSilent(ctx, scopes, *p.account)
		if err != nil {
			return nil, fmt.Errorf("silent token acquisition failed: %w", err)
		}
		if !silent.InteractionRequired {
			return newToken(silent.Result), nil
		}
		p.debug("cached token needs user interaction", "account", p.account.PreferredUsername)
	}

	res, err := p.acquireInteractive(ctx, scopes)
	if err != nil {
		return nil, err
	}
	p.account = &res.Account
	return newToken(res), nil
}

func (p *DelegatedProvider) acquireInteractive(ctx context.Context, scopes []string) (public.AuthResult, error) {
	if p.opts.UseDeviceCode {
		res, err := p.client.AcquireTokenByDeviceCode(ctx, scopes, ShowDeviceCode)
		if err != nil {
			return public.AuthResult{}, fmt.Errorf("device code sign-in failed: %w", err)
		}
		return res, nil
	}

	res, err := p.client.AcquireTokenInteractive(ctx, scopes)
	if err != nil {
		return public.AuthResult{}, fmt.Errorf("interactive sign-in failed: %w", err)
	}
	return res, nil
}

// Token implements transport.TokenProvider using the configured scopes
func (p *DelegatedProvider) Token(ctx context.Context) (string, error) {
	token, err := p.GetToken(ctx, p.opts.Scopes)
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// ClearAllCache signs every cached account out and removes the cache file
func (p *DelegatedProvider) ClearAllCache(ctx context.Context) error {
	accounts, err := p.Accounts(ctx)
	if err != nil {
		return err
	}
	for _, acc := range accounts {
		if err := p.client.RemoveAccount(ctx, acc); err != nil {
			return fmt.Errorf("failed to remove account %s: %w", acc.PreferredUsername, err)
		}
	}
	p.account = nil

	if p.opts.Cache != nil {
		return p.opts.Cache.Clear()
	}
	return nil
}

func (p *DelegatedProvider) debug(msg string, args ...any) {
	if p.opts.Logger != nil {
		p.opts.Logger.Debug(msg, p.opts.Logger.Args(args...))
	}
}
