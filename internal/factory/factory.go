// ABOUTME: Per-invocation factory that builds authenticated Store API clients
// ABOUTME: Loads configuration, reads the client secret and memoizes initialized façades
package factory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pterm/pterm"

	"github.com/gillisandrew/msstore-cli/internal/auth"
	"github.com/gillisandrew/msstore-cli/internal/config"
	"github.com/gillisandrew/msstore-cli/internal/devcenter"
	"github.com/gillisandrew/msstore-cli/internal/domain"
	"github.com/gillisandrew/msstore-cli/internal/storeapi"
	"github.com/gillisandrew/msstore-cli/internal/ui"
)

var (
	// ErrMissingClientID is returned when no client id has been configured
	ErrMissingClientID = config.ErrMissingClientID

	// ErrInvalidCredential is returned when the keychain holds no secret for the client id
	ErrInvalidCredential = errors.New("no client secret stored for the configured client id")
)

// Opts configures a Factory
type Opts struct {
	// Source of settings.json (default: config.NewConfigManager(nil))
	ConfigManager *config.ConfigManager

	// Keychain holding client secrets keyed by client id
	Credentials domain.CredentialStore

	// Prompter used by the delegated sign-in account picker
	Prompter ui.Prompter

	Logger *pterm.Logger

	// Optional HTTP client shared by token providers and façades
	HTTPClient *http.Client

	// Correlation id sent with every request (default: a random uuid)
	CorrelationID string

	// Token endpoint override for the client credential flow
	TokenURL string

	// Sign in with the device code flow in delegated mode
	UseDeviceCode bool

	// PublicClient overrides the MSAL client in delegated mode
	PublicClient auth.PublicClient
}

// DefaultOpts returns options with a fresh correlation id
func DefaultOpts() *Opts {
	return &Opts{
		CorrelationID: uuid.NewString(),
	}
}

func (opts *Opts) WithConfigManager(cm *config.ConfigManager) *Opts {
	opts.ConfigManager = cm
	return opts
}

func (opts *Opts) WithCredentials(store domain.CredentialStore) *Opts {
	opts.Credentials = store
	return opts
}

func (opts *Opts) WithPrompter(p ui.Prompter) *Opts {
	opts.Prompter = p
	return opts
}

func (opts *Opts) WithLogger(logger *pterm.Logger) *Opts {
	opts.Logger = logger
	return opts
}

func (opts *Opts) WithHTTPClient(client *http.Client) *Opts {
	opts.HTTPClient = client
	return opts
}

func (opts *Opts) WithCorrelationID(id string) *Opts {
	opts.CorrelationID = id
	return opts
}

func (opts *Opts) WithTokenURL(tokenURL string) *Opts {
	opts.TokenURL = tokenURL
	return opts
}

func (opts *Opts) WithDeviceCode(enabled bool) *Opts {
	opts.UseDeviceCode = enabled
	return opts
}

func (opts *Opts) WithPublicClient(client auth.PublicClient) *Opts {
	opts.PublicClient = client
	return opts
}

// Factory builds and caches API clients for one command invocation
type Factory struct {
	opts *Opts

	config     *config.Config
	packaged   *devcenter.Client
	unpackaged *storeapi.Client
	delegated  *auth.DelegatedProvider
}

// New creates a factory; nothing is loaded or contacted until a client is requested
func New(opts *Opts) *Factory {
	if opts == nil {
		opts = DefaultOpts()
	}
	if opts.ConfigManager == nil {
		opts.ConfigManager = config.NewConfigManager(nil)
	}
	if opts.CorrelationID == "" {
		opts.CorrelationID = uuid.NewString()
	}
	return &Factory{opts: opts}
}

// CorrelationID returns the id attached to every request of this invocation
func (f *Factory) CorrelationID() string {
	return f.opts.CorrelationID
}

// Config loads the configuration once per factory
func (f *Factory) Config() (*config.Config, error) {
	if f.config != nil {
		return f.config, nil
	}
	cfg, path, err := f.opts.ConfigManager.LoadConfig()
	if err != nil {
		return nil, err
	}
	f.debug("loaded configuration", "path", path)
	f.config = cfg
	return cfg, nil
}

// CreatePackagedClient returns an initialized DevCenter client
func (f *Factory) CreatePackagedClient(ctx context.Context, cfg *config.Config) (*devcenter.Client, error) {
	if f.packaged != nil {
		return f.packaged, nil
	}

	cfg, err := f.resolveConfig(cfg)
	if err != nil {
		return nil, err
	}
	tokens, err := f.clientCredentials(cfg, devcenter.DefaultScope)
	if err != nil {
		return nil, err
	}

	client := devcenter.NewClient(devcenter.DefaultClientOpts().
		WithEndpoint(cfg.DevCenterEndpoint).
		WithTenantID(cfg.TenantID).
		WithCorrelationID(f.opts.CorrelationID).
		WithTokenProvider(tokens).
		WithHTTPClient(f.opts.HTTPClient))
	if err := client.Initialize(ctx); err != nil {
		return nil, err
	}

	f.debug("initialized packaged client", "endpoint", cfg.DevCenterEndpoint)
	f.packaged = client
	return client, nil
}

// CreateUnpackagedClient returns an initialized Store API client
func (f *Factory) CreateUnpackagedClient(ctx context.Context, cfg *config.Config) (*storeapi.Client, error) {
	if f.unpackaged != nil {
		return f.unpackaged, nil
	}

	cfg, err := f.resolveConfig(cfg)
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireSeller(); err != nil {
		return nil, err
	}

	var tokens domain.TokenProvider
	if cfg.AuthMode == config.AuthModeDelegated {
		tokens, err = f.DelegatedProvider(cfg)
	} else {
		tokens, err = f.clientCredentials(cfg, storeapi.DefaultScope)
	}
	if err != nil {
		return nil, err
	}

	client := storeapi.NewClient(storeapi.DefaultClientOpts().
		WithEndpoint(cfg.StoreAPIEndpoint).
		WithSellerID(cfg.SellerID).
		WithCorrelationID(f.opts.CorrelationID).
		WithTokenProvider(tokens).
		WithHTTPClient(f.opts.HTTPClient))
	if err := client.Initialize(ctx); err != nil {
		return nil, err
	}

	f.debug("initialized unpackaged client", "endpoint", cfg.StoreAPIEndpoint, "authMode", string(cfg.AuthMode))
	f.unpackaged = client
	return client, nil
}

// DelegatedProvider returns the signed-in user token provider for the Store API
func (f *Factory) DelegatedProvider(cfg *config.Config) (*auth.DelegatedProvider, error) {
	if f.delegated != nil {
		return f.delegated, nil
	}

	cfg, err := f.resolveConfig(cfg)
	if err != nil {
		return nil, err
	}

	opts := auth.DefaultDelegatedOpts().
		WithClientID(cfg.ClientID).
		WithTenantID(cfg.TenantID).
		WithScopes(storeapi.DefaultScope).
		WithDeviceCode(f.opts.UseDeviceCode).
		WithLogger(f.opts.Logger)
	if f.opts.Prompter != nil {
		opts = opts.WithPrompter(f.opts.Prompter)
	}
	if f.opts.PublicClient != nil {
		opts = opts.WithClient(f.opts.PublicClient)
	}
	if configPath, err := f.opts.ConfigManager.Path(); err == nil {
		opts = opts.WithCache(auth.NewFileCache(filepath.Join(filepath.Dir(configPath), auth.DefaultCacheFile)))
	}

	provider, err := auth.NewDelegatedProvider(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create delegated token provider: %w", err)
	}
	f.delegated = provider
	return provider, nil
}

func (f *Factory) resolveConfig(cfg *config.Config) (*config.Config, error) {
	if cfg == nil {
		var err error
		if cfg, err = f.Config(); err != nil {
			return nil, err
		}
	}
	if cfg.ClientID == "" {
		return nil, ErrMissingClientID
	}
	return cfg, nil
}

func (f *Factory) clientCredentials(cfg *config.Config, scope string) (*auth.ClientCredentialProvider, error) {
	if err := cfg.RequireCredentials(); err != nil {
		return nil, err
	}
	if f.opts.Credentials == nil {
		return nil, ErrInvalidCredential
	}

	secret, err := f.opts.Credentials.ReadCredential(cfg.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secret: %w", err)
	}
	if secret == "" {
		return nil, ErrInvalidCredential
	}

	opts := auth.DefaultClientCredentialOpts().
		WithTenantID(cfg.TenantID).
		WithClientID(cfg.ClientID).
		WithClientSecret(secret).
		WithScopes(scope).
		WithHTTPClient(f.opts.HTTPClient)
	if f.opts.TokenURL != "" {
		opts = opts.WithTokenURL(f.opts.TokenURL)
	}
	return auth.NewClientCredentialProvider(opts)
}

func (f *Factory) debug(msg string, args ...any) {
	if f.opts.Logger != nil {
		f.opts.Logger.Debug(msg, f.opts.Logger.Args(args...))
	}
}
