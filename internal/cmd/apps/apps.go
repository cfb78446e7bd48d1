// ABOUTME: Apps commands for listing and inspecting Store products
// ABOUTME: Packaged products come from DevCenter, unpackaged ones from the Store API
package apps

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/gillisandrew/msstore-cli/internal/cmd"
	"github.com/gillisandrew/msstore-cli/internal/domain"
)

func NewAppsCommand(ctx *cmd.CommandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apps",
		Short: "List and inspect Store applications",
	}

	cmd.AddCommand(newListCommand(ctx))
	cmd.AddCommand(newGetCommand(ctx))

	return cmd
}

func newListCommand(ctx *cmd.CommandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the packaged applications of the account",
		Long:  `List every packaged (MSIX) application in the Partner Center account.
Unpackaged products cannot be enumerated by the Store API.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := ctx.Config()
			if err != nil {
				return err
			}
			renderer, err := ctx.Renderer(cfg)
			if err != nil {
				return err
			}

			client, err := ctx.Factory().CreatePackagedClient(c.Context(), cfg)
			if err != nil {
				return err
			}
			apps, err := client.GetApplications(c.Context())
			if err != nil {
				return fmt.Errorf("failed to list applications: %w", err)
			}

			if len(apps) == 0 {
				pterm.Info.Println("No applications found")
				return nil
			}
			if err := renderer.Applications(apps); err != nil {
				return err
			}
			ctx.Logger.Debug("Application list summary", ctx.Logger.Args("total", len(apps)))
			return nil
		},
	}
}

func newGetCommand(ctx *cmd.CommandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <productId>",
		Short: "Show one application",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			productID := args[0]
			kind, err := domain.ResolveProductKind(productID)
			if err != nil {
				return err
			}

			cfg, err := ctx.Config()
			if err != nil {
				return err
			}
			renderer, err := ctx.Renderer(cfg)
			if err != nil {
				return err
			}

			if kind == domain.Unpackaged {
				client, err := ctx.Factory().CreateUnpackagedClient(c.Context(), cfg)
				if err != nil {
					return err
				}
				resp, err := client.GetProperties(c.Context(), productID)
				if err != nil {
					return fmt.Errorf("failed to get product %s: %w", productID, err)
				}
				props, err := resp.Data()
				if err != nil {
					return fmt.Errorf("failed to get product %s: %w", productID, err)
				}
				return renderer.Value(props)
			}

			client, err := ctx.Factory().CreatePackagedClient(c.Context(), cfg)
			if err != nil {
				return err
			}
			app, err := client.GetApplication(c.Context(), productID)
			if err != nil {
				return fmt.Errorf("failed to get application %s: %w", productID, err)
			}
			return renderer.Application(app)
		},
	}
}
