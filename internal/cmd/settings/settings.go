// ABOUTME: Settings and info commands for inspecting and editing settings.json
// ABOUTME: Values are validated before saving; secrets are only ever shown masked
package settings

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/gillisandrew/msstore-cli/internal/cmd"
	"github.com/gillisandrew/msstore-cli/internal/config"
)

var ErrUnknownSetting = errors.New("unknown setting")

// setters maps settings.json keys to how a string value is applied
var setters = map[string]func(c *config.Config, value string) error{
	"sellerId":          func(c *config.Config, v string) error { c.SellerID = v; return nil },
	"tenantId":          func(c *config.Config, v string) error { c.TenantID = v; return nil },
	"clientId":          func(c *config.Config, v string) error { c.ClientID = v; return nil },
	"authMode":          func(c *config.Config, v string) error { c.AuthMode = config.AuthMode(v); return nil },
	"pollInterval":      func(c *config.Config, v string) error { return c.PollInterval.Decode(v) },
	"output.format":     func(c *config.Config, v string) error { c.Output.Format = strings.ToLower(v); return nil },
	"storeApiEndpoint":  func(c *config.Config, v string) error { c.StoreAPIEndpoint = v; return nil },
	"devCenterEndpoint": func(c *config.Config, v string) error { c.DevCenterEndpoint = v; return nil },
}

// Keys returns the settable keys in display order
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Set applies one key=value change to c
func Set(c *config.Config, key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("%w %q (expected one of %s)", ErrUnknownSetting, key, strings.Join(Keys(), ", "))
	}
	if err := set(c, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return nil
}

// view is settings.json as displayed, with the stored secret masked
type view struct {
	Path   string         `json:"path"`
	Config *config.Config `json:"settings"`
	Secret string         `json:"clientSecret"`
}

func NewSettingsCommand(ctx *cmd.CommandContext) *cobra.Command {
	command := &cobra.Command{
		Use:   "settings",
		Short: "Show the current settings",
		Long:  `Show the settings stored in settings.json. Environment overrides
(MSSTORE_*) are applied to the displayed values.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			cfg, path, err := ctx.ConfigManager().LoadConfig()
			if err != nil {
				return err
			}
			renderer, err := ctx.Renderer(cfg)
			if err != nil {
				return err
			}

			v := view{Path: path, Config: cfg, Secret: storedSecret(ctx, cfg)}
			return renderer.Fields(v, [][]string{
				{"path", path},
				{"sellerId", cfg.SellerID},
				{"tenantId", cfg.TenantID},
				{"clientId", cfg.ClientID},
				{"clientSecret", v.Secret},
				{"authMode", string(cfg.AuthMode)},
				{"pollInterval", cfg.PollInterval.String()},
				{"output.format", cfg.Output.Format},
				{"storeApiEndpoint", cfg.StoreAPIEndpoint},
				{"devCenterEndpoint", cfg.DevCenterEndpoint},
			})
		},
	}

	command.AddCommand(newSetCommand(ctx))
	return command
}

func newSetCommand(ctx *cmd.CommandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting",
		Long:  fmt.Sprintf(`Change one value in settings.json.

Keys: %s`, strings.Join(Keys(), ", ")),
		Args: cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			manager := ctx.FileConfigManager()
			cfg, _, err := manager.LoadConfig()
			if err != nil {
				return err
			}
			if err := Set(cfg, args[0], args[1]); err != nil {
				return err
			}
			path, err := manager.SaveConfig(cfg)
			if err != nil {
				return err
			}

			ctx.ResetFactory()
			ctx.Logger.Debug("Saved settings", ctx.Logger.Args("path", path, "key", args[0]))
			pterm.Success.Printfln("Set %s to %s", args[0], args[1])
			return nil
		},
	}
}

// info describes this installation
type info struct {
	Version       string `json:"version"`
	GoVersion     string `json:"goVersion"`
	Platform      string `json:"platform"`
	ConfigPath    string `json:"configPath"`
	Configured    bool   `json:"configured"`
	CorrelationID string `json:"correlationId"`
}

func NewInfoCommand(ctx *cmd.CommandContext, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show version and configuration details",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := ctx.Config()
			if err != nil {
				return err
			}
			renderer, err := ctx.Renderer(cfg)
			if err != nil {
				return err
			}
			path, err := ctx.ConfigManager().Path()
			if err != nil {
				return err
			}

			i := info{
				Version:       version,
				GoVersion:     runtime.Version(),
				Platform:      runtime.GOOS + "/" + runtime.GOARCH,
				ConfigPath:    path,
				Configured:    cfg.IsConfigured(),
				CorrelationID: ctx.Factory().CorrelationID(),
			}
			return renderer.Fields(i, [][]string{
				{"version", i.Version},
				{"go", i.GoVersion},
				{"platform", i.Platform},
				{"config", i.ConfigPath},
				{"configured", fmt.Sprint(i.Configured)},
				{"correlationId", i.CorrelationID},
			})
		},
	}
}

func storedSecret(ctx *cmd.CommandContext, cfg *config.Config) string {
	if ctx.Credentials == nil || cfg.ClientID == "" {
		return ""
	}
	secret, err := ctx.Credentials.ReadCredential(cfg.ClientID)
	if err != nil {
		ctx.Logger.Warn("Failed to read client secret", ctx.Logger.Args("error", err))
		return ""
	}
	return cmd.MaskSecret(secret)
}
