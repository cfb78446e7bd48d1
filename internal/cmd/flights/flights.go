// ABOUTME: Flights command for listing package flights of a packaged application
// ABOUTME: Flights are a DevCenter feature and do not exist for unpackaged products
package flights

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/gillisandrew/msstore-cli/internal/cmd"
	"github.com/gillisandrew/msstore-cli/internal/domain"
)

var ErrUnpackagedFlights = errors.New("flights are only available for packaged (MSIX) products")

func NewFlightsCommand(ctx *cmd.CommandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flights",
		Short: "Manage package flights",
	}

	cmd.AddCommand(newListCommand(ctx))

	return cmd
}

func newListCommand(ctx *cmd.CommandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <productId>",
		Short: "List the package flights of an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			productID := args[0]
			kind, err := domain.ResolveProductKind(productID)
			if err != nil {
				return err
			}
			if kind == domain.Unpackaged {
				return ErrUnpackagedFlights
			}

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
			flights, err := client.GetFlights(c.Context(), productID)
			if err != nil {
				return fmt.Errorf("failed to list flights of %s: %w", productID, err)
			}
			if len(flights) == 0 {
				pterm.Info.Printfln("Application %s has no flights", productID)
				return nil
			}
			return renderer.Flights(flights)
		},
	}
}
