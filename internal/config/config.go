// ABOUTME: Configuration management for the msstore CLI
// ABOUTME: Loads settings.json from the user config dir, applies MSSTORE_* overrides and validates
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/kelseyhightower/envconfig"
)

const (
	AppDirName         = "msstore-cli"
	ConfigFileName     = "settings.json"
	EnvPrefix          = "msstore"
	CurrentVersion     = "1"
	DefaultConfigPerms = 0600
	DefaultDirPerms    = 0700

	DefaultStoreAPIEndpoint  = "https://api.store.microsoft.com"
	DefaultDevCenterEndpoint = "https://manage.devcenter.microsoft.com"
	DefaultPollInterval      = 30 * time.Second
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrMissingTenantID = errors.New("tenant id is not configured")
	ErrMissingClientID = errors.New("client id is not configured")
	ErrMissingSellerID = errors.New("seller id is not configured")
	ErrConfigNotFound  = errors.New("config file not found")
)

// AuthMode selects how the unpackaged Store API client authenticates
type AuthMode string

const (
	AuthModeClientCredentials AuthMode = "client-credentials"
	AuthModeDelegated         AuthMode = "delegated"
)

// Duration is a time.Duration stored as a Go duration string ("30s")
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	return d.Decode(s)
}

// Decode implements envconfig.Decoder
func (d *Duration) Decode(value string) error {
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

type Config struct {
	Version string `json:"version" ignored:"true" validate:"required"`

	// Partner Center seller account id
	SellerID string `json:"sellerId,omitempty" envconfig:"SELLER_ID" validate:"omitempty,numeric"`

	// Azure AD tenant and app registration
	TenantID string `json:"tenantId,omitempty" envconfig:"TENANT_ID" validate:"omitempty,uuid"`
	ClientID string `json:"clientId,omitempty" envconfig:"CLIENT_ID" validate:"omitempty,uuid"`

	// API hosts
	StoreAPIEndpoint  string `json:"storeApiEndpoint,omitempty" envconfig:"STORE_API_ENDPOINT" validate:"omitempty,url"`
	DevCenterEndpoint string `json:"devCenterEndpoint,omitempty" envconfig:"DEVCENTER_ENDPOINT" validate:"omitempty,url"`

	AuthMode     AuthMode `json:"authMode" envconfig:"AUTH_MODE" validate:"oneof=client-credentials delegated"`
	PollInterval Duration `json:"pollInterval" envconfig:"POLL_INTERVAL" validate:"gte=0"`

	// Output preferences
	Output OutputConfig `json:"output"`
}

type OutputConfig struct {
	Format string `json:"format" envconfig:"FORMAT" validate:"oneof=table json yaml"` // "table", "json", "yaml"
}

func DefaultConfig() *Config {
	return &Config{
		Version:           CurrentVersion,
		StoreAPIEndpoint:  DefaultStoreAPIEndpoint,
		DevCenterEndpoint: DefaultDevCenterEndpoint,
		AuthMode:          AuthModeClientCredentials,
		PollInterval:      Duration(DefaultPollInterval),
		Output: OutputConfig{
			Format: "table",
		},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json names so messages match the settings file
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := fld.Tag.Get("json")
		if idx := strings.Index(tag, ","); idx >= 0 {
			tag = tag[:idx]
		}
		if tag == "" || tag == "-" {
			return fld.Name
		}
		return tag
	})
	return v
}

func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		switch {
		case fe.Tag() == "required":
			msgs = append(msgs, fmt.Sprintf("%s: is required", field))
		case fe.Param() != "":
			msgs = append(msgs, fmt.Sprintf("%s: must satisfy %s=%s (got %q)", field, fe.Tag(), fe.Param(), fmt.Sprint(fe.Value())))
		default:
			msgs = append(msgs, fmt.Sprintf("%s: must be a valid %s (got %q)", field, fe.Tag(), fmt.Sprint(fe.Value())))
		}
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// RequireCredentials checks that the identity fields needed to call the APIs are set
func (c *Config) RequireCredentials() error {
	switch {
	case c.ClientID == "":
		return ErrMissingClientID
	case c.TenantID == "":
		return ErrMissingTenantID
	}
	return nil
}

// RequireSeller checks that the seller id needed by the Store API is set
func (c *Config) RequireSeller() error {
	if c.SellerID == "" {
		return ErrMissingSellerID
	}
	return nil
}

// IsConfigured reports whether reconfigure has been run
func (c *Config) IsConfigured() bool {
	return c.ClientID != "" && c.TenantID != "" && c.SellerID != ""
}

// PollEvery returns the poll interval, falling back to the default
func (c *Config) PollEvery() time.Duration {
	if c.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return time.Duration(c.PollInterval)
}

// applyDefaults fills fields an older or hand-edited file left empty
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Version == "" {
		c.Version = d.Version
	}
	if c.StoreAPIEndpoint == "" {
		c.StoreAPIEndpoint = d.StoreAPIEndpoint
	}
	if c.DevCenterEndpoint == "" {
		c.DevCenterEndpoint = d.DevCenterEndpoint
	}
	if c.AuthMode == "" {
		c.AuthMode = d.AuthMode
	}
	if c.Output.Format == "" {
		c.Output.Format = d.Output.Format
	}
}

// DefaultConfigDir returns <UserConfigDir>/msstore-cli
func DefaultConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(dir, AppDirName), nil
}

// DefaultConfigPath returns <UserConfigDir>/msstore-cli/settings.json
func DefaultConfigPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// LoadConfig reads and validates a config file, returning defaults when it does not exist
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func SaveConfig(config *Config, configPath string) error {
	if err := config.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), DefaultDirPerms); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, DefaultConfigPerms); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ConfigOpts configures how configuration is loaded and managed
type ConfigOpts struct {
	// Override config file path (default: <UserConfigDir>/msstore-cli/settings.json)
	ConfigPath string

	// Apply MSSTORE_* environment overrides after loading the file
	UseEnv bool

	// Fail when the file does not exist instead of returning defaults
	RequireFile bool
}

// DefaultConfigOpts returns default configuration loading options
func DefaultConfigOpts() *ConfigOpts {
	return &ConfigOpts{
		UseEnv: true,
	}
}

// WithConfigPath sets a custom config file path
func (opts *ConfigOpts) WithConfigPath(path string) *ConfigOpts {
	opts.ConfigPath = path
	return opts
}

// WithEnv controls whether environment overrides are applied
func (opts *ConfigOpts) WithEnv(use bool) *ConfigOpts {
	opts.UseEnv = use
	return opts
}

// WithRequireFile controls whether a missing file is an error
func (opts *ConfigOpts) WithRequireFile(require bool) *ConfigOpts {
	opts.RequireFile = require
	return opts
}

// ConfigManager handles configuration loading and management
type ConfigManager struct {
	opts *ConfigOpts
}

// NewConfigManager creates a configuration manager with the given options
func NewConfigManager(opts *ConfigOpts) *ConfigManager {
	if opts == nil {
		opts = DefaultConfigOpts()
	}
	return &ConfigManager{opts: opts}
}

// Path returns the config file location
func (cm *ConfigManager) Path() (string, error) {
	if cm.opts.ConfigPath != "" {
		return cm.opts.ConfigPath, nil
	}
	return DefaultConfigPath()
}

// LoadConfig loads the file, applies environment overrides and validates the result
func (cm *ConfigManager) LoadConfig() (*Config, string, error) {
	configPath, err := cm.Path()
	if err != nil {
		return nil, "", err
	}

	if cm.opts.RequireFile {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, configPath, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, configPath, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	if cm.opts.UseEnv {
		if err := envconfig.Process(EnvPrefix, config); err != nil {
			return nil, configPath, fmt.Errorf("error loading values from environment variables: %w", err)
		}
		if err := config.Validate(); err != nil {
			return nil, configPath, err
		}
	}

	return config, configPath, nil
}

// SaveConfig writes config to the managed path
func (cm *ConfigManager) SaveConfig(config *Config) (string, error) {
	configPath, err := cm.Path()
	if err != nil {
		return "", err
	}
	if err := SaveConfig(config, configPath); err != nil {
		return configPath, err
	}
	return configPath, nil
}
