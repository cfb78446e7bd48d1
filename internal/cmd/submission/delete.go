package submission

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/gillisandrew/msstore-cli/internal/cmd"
	"github.com/gillisandrew/msstore-cli/internal/domain"
	"github.com/gillisandrew/msstore-cli/internal/render"
)

func newDeleteCommand(ctx *cmd.CommandContext) *cobra.Command {
	var (
		submissionID string
		yes          bool
	)

	command := &cobra.Command{
		Use:   "delete <productId>",
		Short: "Delete the pending submission of a packaged product",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			t, err := resolve(ctx, args[0])
			if err != nil {
				return err
			}
			if t.kind == domain.Unpackaged {
				return ErrUnsupportedForUnpackaged
			}

			api, err := t.packaged(c.Context(), ctx)
			if err != nil {
				return err
			}
			id, err := pendingSubmissionID(c.Context(), api, t.productID, submissionID)
			if err != nil {
				return err
			}

			if !yes {
				if ctx.Prompter == nil {
					return fmt.Errorf("refusing to delete submission %s without confirmation; pass --yes", id)
				}
				ok, err := ctx.Prompter.Confirm(c.Context(), fmt.Sprintf("Delete submission %s of %s?", id, t.productID), false)
				if err != nil {
					return err
				}
				if !ok {
					pterm.Info.Println(render.MsgCancelled)
					return nil
				}
			}

			payload, err := api.DeleteSubmission(c.Context(), t.productID, id)
			if err != nil {
				return fmt.Errorf("failed to delete submission %s: %w", id, err)
			}
			if payload != nil && (payload.Code != "" || payload.Message != "") {
				return fmt.Errorf("failed to delete submission %s: %w", id, payload)
			}

			pterm.Success.Printfln("Deleted submission %s", id)
			return nil
		},
	}

	command.Flags().StringVar(&submissionID, "submission-id", "", "Submission to delete (default: pending)")
	command.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return command
}
