package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/public"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gillisandrew/msstore-cli/internal/mock"
)

var storeScopes = []string{"https://api.store.microsoft.com/.default"}

type fakePublicClient struct {
	accounts []public.Account

	silent    SilentResult
	silentErr error

	interactive    public.AuthResult
	interactiveErr error

	silentCalls      int
	interactiveCalls int
	deviceCodeCalls  int
	removed          []string
}

func (f *fakePublicClient) Accounts(ctx context.Context) ([]public.Account, error) {
	return f.accounts, nil
}

func (f *fakePublicClient) AcquireTokenSilent(ctx context.Context, scopes []string, account public.Account) (SilentResult, error) {
	f.silentCalls++
	return f.silent, f.silentErr
}

func (f *fakePublicClient) AcquireTokenInteractive(ctx context.Context, scopes []string) (public.AuthResult, error) {
	f.interactiveCalls++
	return f.interactive, f.interactiveErr
}

func (f *fakePublicClient) AcquireTokenByDeviceCode(ctx context.Context, scopes []string, show func(DeviceCodeInfo)) (public.AuthResult, error) {
	f.deviceCodeCalls++
	return f.interactive, f.interactiveErr
}

func (f *fakePublicClient) RemoveAccount(ctx context.Context, account public.Account) error {
	f.removed = append(f.removed, account.PreferredUsername)
	return nil
}

func account(name, tenant string) public.Account {
	return public.Account{PreferredUsername: name, Realm: tenant, HomeAccountID: name + "." + tenant}
}

func result(token string, acc public.Account) public.AuthResult {
	return public.AuthResult{AccessToken: token, Account: acc, ExpiresOn: time.Now().Add(time.Hour)}
}

func newProvider(t *testing.T, client *fakePublicClient, prompter *mock.Prompter) *DelegatedProvider {
	t.Helper()
	opts := DefaultDelegatedOpts().WithClient(client).WithScopes(storeScopes...)
	if prompter != nil {
		opts = opts.WithPrompter(prompter)
	}
	p, err := NewDelegatedProvider(opts)
	require.NoError(t, err)
	return p
}

func TestGetTokenSilentSuccess(t *testing.T) {
	alice := account("alice@contoso.com", "tenant-a")
	client := &fakePublicClient{
		accounts: []public.Account{alice},
		silent:   SilentResult{Result: result("silent-token", alice)},
	}
	p := newProvider(t, client, nil)

	token, err := p.GetToken(context.Background(), storeScopes)
	require.NoError(t, err)
	assert.Equal(t, "silent-token", token.AccessToken)
	assert.Equal(t, "alice@contoso.com", token.Account)
	assert.Equal(t, 1, client.silentCalls)
	assert.Zero(t, client.interactiveCalls)
}

func TestGetTokenFallsBackToInteractiveOnce(t *testing.T) {
	alice := account("alice@contoso.com", "tenant-a")
	client := &fakePublicClient{
		accounts:    []public.Account{alice},
		silent:      SilentResult{InteractionRequired: true},
		interactive: result("interactive-token", alice),
	}
	p := newProvider(t, client, nil)

	token, err := p.GetToken(context.Background(), storeScopes)
	require.NoError(t, err)
	assert.Equal(t, "interactive-token", token.AccessToken)
	assert.Equal(t, 1, client.silentCalls)
	assert.Equal(t, 1, client.interactiveCalls)
}

func TestGetTokenInteractiveFailureDoesNotLoop(t *testing.T) {
	signInErr := errors.New("user cancelled the sign-in")
	client := &fakePublicClient{
		accounts:       []public.Account{account("alice@contoso.com", "tenant-a")},
		silent:         SilentResult{InteractionRequired: true},
		interactiveErr: signInErr,
	}
	p := newProvider(t, client, nil)

	_, err := p.GetToken(context.Background(), storeScopes)
	assert.ErrorIs(t, err, signInErr)
	assert.Equal(t, 1, client.silentCalls)
	assert.Equal(t, 1, client.interactiveCalls)
}

func TestGetTokenSilentErrorIsNotAnInteractionPrompt(t *testing.T) {
	netErr := errors.New("login.microsoftonline.com: no such host")
	client := &fakePublicClient{
		accounts:  []public.Account{account("alice@contoso.com", "tenant-a")},
		silentErr: netErr,
	}
	p := newProvider(t, client, nil)

	_, err := p.GetToken(context.Background(), storeScopes)
	assert.ErrorIs(t, err, netErr)
	assert.Zero(t, client.interactiveCalls)
}

func TestGetTokenWithoutCachedAccount(t *testing.T) {
	bob := account("bob@fabrikam.com", "tenant-b")
	client := &fakePublicClient{interactive: result("fresh-token", bob)}
	p := newProvider(t, client, nil)

	token, err := p.GetToken(context.Background(), storeScopes)
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token.AccessToken)
	assert.Zero(t, client.silentCalls)
	assert.Equal(t, 1, client.interactiveCalls)

	// the signed-in account is reused for the next silent attempt
	client.silent = SilentResult{Result: result("cached-token", bob)}
	token, err = p.GetToken(context.Background(), storeScopes)
	require.NoError(t, err)
	assert.Equal(t, "cached-token", token.AccessToken)
	assert.Equal(t, 1, client.interactiveCalls)
}

func TestGetTokenUsesDeviceCode(t *testing.T) {
	client := &fakePublicClient{interactive: result("device-token", account("carol@contoso.com", "tenant-a"))}
	p, err := NewDelegatedProvider(DefaultDelegatedOpts().WithClient(client).WithDeviceCode(true))
	require.NoError(t, err)

	token, err := p.GetToken(context.Background(), storeScopes)
	require.NoError(t, err)
	assert.Equal(t, "device-token", token.AccessToken)
	assert.Equal(t, 1, client.deviceCodeCalls)
	assert.Zero(t, client.interactiveCalls)
}

func TestGetTokenRequiresScopes(t *testing.T) {
	p := newProvider(t, &fakePublicClient{}, nil)
	_, err := p.GetToken(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoScopes)
}

func TestSelectAccount(t *testing.T) {
	alice := account("alice@contoso.com", "tenant-a")
	bob := account("bob@fabrikam.com", "tenant-b")
	personal := account("me@outlook.com", MicrosoftAccountTenantID)

	tests := []struct {
		name       string
		accounts   []public.Account
		excludeMSA bool
		force      bool
		prompter   *mock.Prompter
		want       string
		wantAsked  int
	}{
		{name: "no accounts", want: ""},
		{name: "only personal account excluded", accounts: []public.Account{personal}, excludeMSA: true, want: ""},
		{name: "personal account allowed", accounts: []public.Account{personal}, want: "me@outlook.com"},
		{name: "single account used silently", accounts: []public.Account{alice}, prompter: &mock.Prompter{}, want: "alice@contoso.com"},
		{
			name:     "single account confirmed", accounts: []public.Account{alice}, force: true,
			prompter: &mock.Prompter{Confirms: []bool{true}}, want: "alice@contoso.com", wantAsked: 1,
		},
		{
			name:     "single account declined", accounts: []public.Account{alice}, force: true,
			prompter: &mock.Prompter{Confirms: []bool{false}}, want: "", wantAsked: 1,
		},
		{
			name:     "several accounts prompt", accounts: []public.Account{alice, personal, bob}, excludeMSA: true,
			prompter: &mock.Prompter{Selects: []int{1}}, want: "bob@fabrikam.com", wantAsked: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProvider(t, &fakePublicClient{accounts: tt.accounts}, tt.prompter)

			acc, err := p.SelectAccount(context.Background(), tt.excludeMSA, tt.force)
			require.NoError(t, err)
			if tt.want == "" {
				assert.Nil(t, acc)
			} else {
				require.NotNil(t, acc)
				assert.Equal(t, tt.want, acc.PreferredUsername)
			}
			if tt.prompter != nil {
				assert.Len(t, tt.prompter.Questions, tt.wantAsked)
			}
		})
	}
}

func TestSelectAccountSeveralWithoutPrompter(t *testing.T) {
	p := newProvider(t, &fakePublicClient{accounts: []public.Account{
		account("alice@contoso.com", "tenant-a"),
		account("bob@fabrikam.com", "tenant-b"),
	}}, nil)

	_, err := p.SelectAccount(context.Background(), false, false)
	assert.Error(t, err)
}

func TestClearAllCache(t *testing.T) {
	cachePath := t.TempDir() + "/msal_cache.json"
	fc := NewFileCache(cachePath)
	client := &fakePublicClient{accounts: []public.Account{
		account("alice@contoso.com", "tenant-a"),
		account("bob@fabrikam.com", "tenant-b"),
	}}
	p, err := NewDelegatedProvider(DefaultDelegatedOpts().WithClient(client).WithCache(fc))
	require.NoError(t, err)

	require.NoError(t, p.ClearAllCache(context.Background()))
	assert.Equal(t, []string{"alice@contoso.com", "bob@fabrikam.com"}, client.removed)
}

func TestNewDelegatedProviderRequiresClientID(t *testing.T) {
	_, err := NewDelegatedProvider(DefaultDelegatedOpts())
	assert.ErrorIs(t, err, ErrMissingClientID)
}

func TestWithTenantID(t *testing.T) {
	assert.Equal(t, "https://login.microsoftonline.com/abc", DefaultDelegatedOpts().WithTenantID("abc").Authority)
	assert.Equal(t, DefaultDelegatedAuthority, DefaultDelegatedOpts().WithTenantID("").Authority)
}
