// ABOUTME: Shared command context structure for CLI commands
// ABOUTME: Carries global flags, the logger and the per-invocation API factory
package cmd

import (
	"io"
	"os"

	"github.com/pterm/pterm"

	"github.com/gillisandrew/msstore-cli/internal/config"
	"github.com/gillisandrew/msstore-cli/internal/domain"
	"github.com/gillisandrew/msstore-cli/internal/factory"
	"github.com/gillisandrew/msstore-cli/internal/poll"
	"github.com/gillisandrew/msstore-cli/internal/publish"
	"github.com/gillisandrew/msstore-cli/internal/render"
	"github.com/gillisandrew/msstore-cli/internal/ui"
)

// CommandContext holds global configuration that can be passed to commands
type CommandContext struct {
	ConfigPath    string
	Output        string
	UseDeviceCode bool
	Logger        *pterm.Logger

	Prompter    ui.Prompter
	Credentials domain.CredentialStore

	// Out receives rendered results (default: stdout)
	Out io.Writer

	// PollOpts overrides the poll settings derived from the configuration
	PollOpts *poll.Opts

	// FactoryOpts, when set, is used instead of the defaults built from the fields above
	FactoryOpts *factory.Opts

	factory *factory.Factory
}

// ConfigManager returns a manager for the --config path or the default location
func (c *CommandContext) ConfigManager() *config.ConfigManager {
	opts := config.DefaultConfigOpts()
	if c.ConfigPath != "" {
		opts = opts.WithConfigPath(c.ConfigPath)
	}
	return config.NewConfigManager(opts)
}

// Factory returns the API factory for this invocation, creating it on first use
func (c *CommandContext) Factory() *factory.Factory {
	if c.factory != nil {
		return c.factory
	}
	opts := c.FactoryOpts
	if opts == nil {
		opts = factory.DefaultOpts()
	}
	if opts.ConfigManager == nil {
		opts = opts.WithConfigManager(c.ConfigManager())
	}
	if opts.Credentials == nil {
		opts = opts.WithCredentials(c.Credentials)
	}
	if opts.Prompter == nil {
		opts = opts.WithPrompter(c.Prompter)
	}
	if opts.Logger == nil {
		opts = opts.WithLogger(c.Logger)
	}
	if c.UseDeviceCode {
		opts = opts.WithDeviceCode(true)
	}
	c.FactoryOpts = opts
	c.factory = factory.New(opts)
	return c.factory
}

// ResetFactory drops the cached factory so the next call reloads configuration
func (c *CommandContext) ResetFactory() {
	c.factory = nil
}

// FileConfigManager is like ConfigManager but ignores MSSTORE_* overrides,
// so values read from it can be written back to the file
func (c *CommandContext) FileConfigManager() *config.ConfigManager {
	opts := config.DefaultConfigOpts().WithEnv(false)
	if c.ConfigPath != "" {
		opts = opts.WithConfigPath(c.ConfigPath)
	}
	return config.NewConfigManager(opts)
}

// Config loads configuration through the factory
func (c *CommandContext) Config() (*config.Config, error) {
	return c.Factory().Config()
}

// Renderer returns a renderer for --output, falling back to the configured format
func (c *CommandContext) Renderer(cfg *config.Config) (*render.Renderer, error) {
	format := c.Output
	if format == "" && cfg != nil {
		format = cfg.Output.Format
	}
	f, err := render.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	return render.New(f, out), nil
}

// PublishOpts returns workflow options using the configured poll interval
func (c *CommandContext) PublishOpts(cfg *config.Config) *publish.Opts {
	pollOpts := c.PollOpts
	if pollOpts == nil {
		pollOpts = poll.DefaultOpts().WithInterval(cfg.PollEvery())
	}
	return publish.DefaultOpts().
		WithPoll(pollOpts).
		WithLogger(c.Logger)
}
