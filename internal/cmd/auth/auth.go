// ABOUTME: Authentication commands for delegated sign-in and credential status
// ABOUTME: Handles interactive and device code sign-in to the Store API
package auth

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/gillisandrew/msstore-cli/internal/cmd"
	"github.com/gillisandrew/msstore-cli/internal/config"
	"github.com/gillisandrew/msstore-cli/internal/storeapi"
)

func NewAuthCommand(ctx *cmd.CommandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage Store API sign-in",
		Long:  `Manage how msstore authenticates to the Microsoft Store APIs.

With authMode "client-credentials" the app registration secret stored by
'msstore reconfigure' is used. With authMode "delegated" you sign in with
your own Partner Center account and tokens are cached next to settings.json.`,
	}

	cmd.AddCommand(newLoginCommand(ctx))
	cmd.AddCommand(newStatusCommand(ctx))
	cmd.AddCommand(newLogoutCommand(ctx))

	return cmd
}

func newLoginCommand(ctx *cmd.CommandContext) *cobra.Command {
	var deviceCode, pick bool

	c := &cobra.Command{
		Use:   "login",
		Short: "Sign in with a Partner Center account",
		Long:  `Sign in interactively with a work or school account.
A browser window is opened unless --device-code is given, in which case a
code is shown to enter on another device.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if deviceCode {
				ctx.UseDeviceCode = true
			}
			cfg, err := ctx.Config()
			if err != nil {
				return err
			}

			provider, err := ctx.Factory().DelegatedProvider(cfg)
			if err != nil {
				return err
			}

			if pick {
				account, err := provider.SelectAccount(c.Context(), true, true)
				if err != nil {
					return fmt.Errorf("failed to select account: %w", err)
				}
				if account != nil {
					provider.UseAccount(account)
				}
			}

			token, err := provider.GetToken(c.Context(), []string{storeapi.DefaultScope})
			if err != nil {
				return err
			}

			pterm.Success.Printfln("Signed in as %s", pterm.LightCyan(token.Account))
			if cfg.AuthMode != config.AuthModeDelegated {
				pterm.Info.Println("Set authMode to \"delegated\" to use this account for unpackaged products:")
				pterm.Info.Println("  msstore settings set authMode delegated")
			}
			return nil
		},
	}

	c.Flags().BoolVar(&deviceCode, "device-code", false, "Sign in with a device code instead of a browser")
	c.Flags().BoolVar(&pick, "select-account", false, "Choose among cached accounts")
	return c
}

func newStatusCommand(ctx *cmd.CommandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "View authentication status",
		Long:  `Display the configured identity and any signed-in accounts.`,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := ctx.Config()
			if err != nil {
				return err
			}
			if cfg.ClientID == "" {
				pterm.Warning.Println("msstore is not configured")
				pterm.Info.Println("Run 'msstore reconfigure' to set up credentials")
				return nil
			}

			secret := ""
			if ctx.Credentials != nil {
				if secret, err = ctx.Credentials.ReadCredential(cfg.ClientID); err != nil {
					ctx.Logger.Warn("Failed to read client secret", ctx.Logger.Args("error", err))
				}
			}

			logArgs := []any{
				"authMode", string(cfg.AuthMode),
				"tenantId", cfg.TenantID,
				"clientId", cfg.ClientID,
				"sellerId", cfg.SellerID,
				"secret", secretState(secret),
			}

			provider, err := ctx.Factory().DelegatedProvider(cfg)
			if err != nil {
				return err
			}
			accounts, err := provider.Accounts(c.Context())
			if err != nil {
				return err
			}
			names := make([]string, 0, len(accounts))
			for _, a := range accounts {
				names = append(names, a.PreferredUsername)
			}
			logArgs = append(logArgs, "accounts", names)

			ctx.Logger.Info("Authentication status", ctx.Logger.Args(logArgs...))
			return nil
		},
	}
}

func newLogoutCommand(ctx *cmd.CommandContext) *cobra.Command {
	var clearSecret bool

	c := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and remove cached tokens",
		Long:  `Remove every cached account. With --clear-secret the stored client secret is deleted too.`,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := ctx.Config()
			if err != nil {
				return err
			}

			provider, err := ctx.Factory().DelegatedProvider(cfg)
			if err != nil {
				return err
			}
			if err := provider.ClearAllCache(c.Context()); err != nil {
				return fmt.Errorf("failed to clear token cache: %w", err)
			}
			pterm.Success.Println("Signed out of all cached accounts")

			if clearSecret && ctx.Credentials != nil {
				if err := ctx.Credentials.ClearCredentials(cfg.ClientID); err != nil {
					return fmt.Errorf("failed to remove client secret: %w", err)
				}
				pterm.Info.Println("Stored client secret removed")
			}
			return nil
		},
	}

	c.Flags().BoolVar(&clearSecret, "clear-secret", false, "Also remove the client secret from the keychain")
	return c
}

func secretState(secret string) string {
	if secret == "" {
		return "not stored"
	}
	return "stored (" + cmd.MaskSecret(secret) + ")"
}
