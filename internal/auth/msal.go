// ABOUTME: Thin adapter over the MSAL public client application
// ABOUTME: Turns silent acquisition failures into a typed interaction-required result
package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	msalerrors "github.com/AzureAD/microsoft-authentication-library-for-go/apps/errors"
	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/public"
)

// SilentResult is the outcome of a silent acquisition attempt. When
// InteractionRequired is set the caller must run an interactive flow; Result
// is only meaningful otherwise.
type SilentResult struct {
	Result              public.AuthResult
	InteractionRequired bool
}

// DeviceCodeInfo is what the user needs to complete a device code sign-in
type DeviceCodeInfo struct {
	UserCode        string
	VerificationURL string
	Message         string
	ExpiresIn       int
}

// PublicClient is the subset of MSAL the delegated provider needs
type PublicClient interface {
	Accounts(ctx context.Context) ([]public.Account, error)
	AcquireTokenSilent(ctx context.Context, scopes []string, account public.Account) (SilentResult, error)
	AcquireTokenInteractive(ctx context.Context, scopes []string) (public.AuthResult, error)
	AcquireTokenByDeviceCode(ctx context.Context, scopes []string, show func(DeviceCodeInfo)) (public.AuthResult, error)
	RemoveAccount(ctx context.Context, account public.Account) error
}

type msalClient struct {
	app public.Client
}

// NewPublicClient creates an MSAL public client for clientID signing in
// against authority and persisting its cache through fc
func NewPublicClient(clientID, authority string, fc *FileCache) (PublicClient, error) {
	options := []public.Option{public.WithAuthority(authority)}
	if fc != nil {
		options = append(options, public.WithCache(fc))
	}

	app, err := public.New(clientID, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create MSAL public client: %w", err)
	}
	return &msalClient{app: app}, nil
}

func (c *msalClient) Accounts(ctx context.Context) ([]public.Account, error) {
	return c.app.Accounts(ctx)
}

func (c *msalClient) AcquireTokenSilent(ctx context.Context, scopes []string, account public.Account) (SilentResult, error) {
	res, err := c.app.AcquireTokenSilent(ctx, scopes, public.WithSilentAccount(account))
	if err == nil {
		return SilentResult{Result: res}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return SilentResult{}, ctxErr
	}
	if requiresInteraction(err) {
		return SilentResult{InteractionRequired: true}, nil
	}
	return SilentResult{}, err
}

func (c *msalClient) AcquireTokenInteractive(ctx context.Context, scopes []string) (public.AuthResult, error) {
	return c.app.AcquireTokenInteractive(ctx, scopes)
}

func (c *msalClient) AcquireTokenByDeviceCode(ctx context.Context, scopes []string, show func(DeviceCodeInfo)) (public.AuthResult, error) {
	dc, err := c.app.AcquireTokenByDeviceCode(ctx, scopes)
	if err != nil {
		return public.AuthResult{}, err
	}
	if show != nil {
		show(DeviceCodeInfo{
			UserCode:        dc.Result.UserCode,
			VerificationURL: dc.Result.VerificationURL,
			Message:         dc.Result.Message,
			ExpiresIn:       int(dc.Result.ExpiresOn.Sub(timeNow()).Seconds()),
		})
	}
	return dc.AuthenticationResult(ctx)
}

func (c *msalClient) RemoveAccount(ctx context.Context, account public.Account) error {
	return c.app.RemoveAccount(ctx, account)
}

// requiresInteraction reports whether a silent failure can be fixed by
// signing in again. Transport failures and server errors cannot.
func requiresInteraction(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return false
	}

	var callErr msalerrors.CallErr
	if errors.As(err, &callErr) && callErr.Resp != nil {
		return callErr.Resp.StatusCode >= http.StatusBadRequest && callErr.Resp.StatusCode < http.StatusInternalServerError
	}

	// cache misses and expired refresh tokens
	return true
}
