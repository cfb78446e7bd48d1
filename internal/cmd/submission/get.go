package submission

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gillisandrew/msstore-cli/internal/cmd"
	"github.com/gillisandrew/msstore-cli/internal/domain"
)

func newGetCommand(ctx *cmd.CommandContext) *cobra.Command {
	var submissionID string

	command := &cobra.Command{
		Use:   "get <productId>",
		Short: "Show a submission",
		Long:  `Show a packaged submission, defaulting to the pending one and then the
last published one. For unpackaged products the current draft is shown:
packages, listings, availability and properties.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			t, err := resolve(ctx, args[0])
			if err != nil {
				return err
			}

			if t.kind == domain.Unpackaged {
				api, err := t.unpackaged(c.Context(), ctx)
				if err != nil {
					return err
				}
				d, err := loadDraft(c.Context(), api, t.productID)
				if err != nil {
					return err
				}
				return t.renderer.Value(d)
			}

			api, err := t.packaged(c.Context(), ctx)
			if err != nil {
				return err
			}
			id, err := latestSubmissionID(c.Context(), api, t.productID, submissionID)
			if err != nil {
				return err
			}
			sub, err := api.GetSubmission(c.Context(), t.productID, id)
			if err != nil {
				return fmt.Errorf("failed to get submission %s: %w", id, err)
			}
			return t.renderer.Submission(sub)
		},
	}

	command.Flags().StringVar(&submissionID, "submission-id", "", "Submission to show (packaged only)")
	return command
}
