// ABOUTME: Reconfigure command that sets up the Partner Center identity
// ABOUTME: Writes ids to settings.json and the client secret to the OS keychain
package reconfigure

import (
	"context"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/gillisandrew/msstore-cli/internal/cmd"
	"github.com/gillisandrew/msstore-cli/internal/config"
	"github.com/gillisandrew/msstore-cli/internal/ui"
)

type flags struct {
	tenantID     string
	clientID     string
	clientSecret string
	sellerID     string
	authMode     string
	reset        bool
	verify       bool
}

func NewReconfigureCommand(ctx *cmd.CommandContext) *cobra.Command {
	f := &flags{}

	command := &cobra.Command{
		Use:   "reconfigure",
		Short: "Configure the Partner Center credentials used by msstore",
		Long:  `Set the Azure AD tenant, app registration and seller account used to call
the Store APIs. Values not given as flags are prompted for, prefilled with
the current settings. The client secret is kept in the OS keychain.

Find these values in Partner Center under Account settings > User management >
Azure AD applications.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return run(c, ctx, f)
		},
	}

	command.Flags().StringVar(&f.tenantID, "tenant-id", "", "Azure AD tenant id")
	command.Flags().StringVar(&f.clientID, "client-id", "", "Azure AD application (client) id")
	command.Flags().StringVar(&f.clientSecret, "client-secret", "", "Azure AD application client secret")
	command.Flags().StringVar(&f.sellerID, "seller-id", "", "Partner Center seller id")
	command.Flags().StringVar(&f.authMode, "auth-mode", "", "client-credentials or delegated")
	command.Flags().BoolVar(&f.reset, "reset", false, "Discard the current settings and stored secret first")
	command.Flags().BoolVar(&f.verify, "verify", true, "Acquire a token with the new settings before finishing")
	return command
}

func run(c *cobra.Command, ctx *cmd.CommandContext, f *flags) error {
	manager := ctx.FileConfigManager()
	cfg, _, err := manager.LoadConfig()
	if err != nil {
		return err
	}
	previousClient := cfg.ClientID

	if f.reset {
		if previousClient != "" && ctx.Credentials != nil {
			if err := ctx.Credentials.ClearCredentials(previousClient); err != nil {
				return fmt.Errorf("failed to remove client secret: %w", err)
			}
		}
		cfg = config.DefaultConfig()
		ctx.Logger.Debug("Reset settings", ctx.Logger.Args("previousClientId", previousClient))
	}

	changed := c.Flags().Changed
	p := ctx.Prompter
	cc := c.Context()

	if cfg.TenantID, err = value(cc, p, changed("tenant-id"), f.tenantID, "Azure AD tenant id", cfg.TenantID); err != nil {
		return err
	}
	if cfg.ClientID, err = value(cc, p, changed("client-id"), f.clientID, "Client id", cfg.ClientID); err != nil {
		return err
	}
	if cfg.SellerID, err = value(cc, p, changed("seller-id"), f.sellerID, "Seller id", cfg.SellerID); err != nil {
		return err
	}
	if changed("auth-mode") {
		cfg.AuthMode = config.AuthMode(strings.TrimSpace(f.authMode))
	}
	if err := cfg.RequireCredentials(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	secret := f.clientSecret
	if !changed("client-secret") && cfg.AuthMode == config.AuthModeClientCredentials && p != nil {
		question := "Client secret"
		if previousClient == cfg.ClientID && !f.reset {
			question += " (leave empty to keep the stored one)"
		}
		if secret, err = p.Secret(cc, question); err != nil {
			return err
		}
	}

	path, err := manager.SaveConfig(cfg)
	if err != nil {
		return err
	}
	if secret != "" {
		if ctx.Credentials == nil {
			return fmt.Errorf("no keychain available to store the client secret")
		}
		if err := ctx.Credentials.WriteCredential(cfg.ClientID, secret); err != nil {
			return err
		}
	}
	ctx.ResetFactory()
	pterm.Success.Printfln("Saved settings to %s", path)

	if !f.verify {
		return nil
	}
	if cfg.AuthMode == config.AuthModeDelegated {
		pterm.Info.Println("Run 'msstore auth login' to sign in")
		return nil
	}

	spinner, _ := pterm.DefaultSpinner.Start("Verifying credentials")
	if _, err := ctx.Factory().CreatePackagedClient(cc, cfg); err != nil {
		if spinner != nil {
			spinner.Fail("Credentials could not be verified")
		}
		return err
	}
	if spinner != nil {
		spinner.Success("Credentials verified")
	}
	return nil
}

// value returns the flag value when it was given, otherwise asks with the
// current value as default. Without a prompter the current value is kept.
func value(ctx context.Context, p ui.Prompter, given bool, flagValue, question, current string) (string, error) {
	if given {
		return strings.TrimSpace(flagValue), nil
	}
	if p == nil {
		return current, nil
	}
	answer, err := p.Input(ctx, question, current)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}
