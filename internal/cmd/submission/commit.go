package submission

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/gillisandrew/msstore-cli/internal/cmd"
	"github.com/gillisandrew/msstore-cli/internal/domain"
	"github.com/gillisandrew/msstore-cli/internal/publish"
)

func newCommitCommand(ctx *cmd.CommandContext) *cobra.Command {
	var submissionID string

	command := &cobra.Command{
		Use:   "commit <productId>",
		Short: "Commit a draft submission",
		Long:  `Commit the pending packaged submission for certification, or commit the
updated package set of an unpackaged product.`,
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
				resp, err := api.CommitPackages(c.Context(), t.productID)
				if err != nil {
					return fmt.Errorf("failed to commit packages: %w", err)
				}
				data, err := resp.Data()
				if err != nil {
					return fmt.Errorf("failed to commit packages: %w", err)
				}
				if data != nil && data.OngoingSubmissionID != "" {
					return fmt.Errorf("%w: %s", publish.ErrPendingSubmission, data.OngoingSubmissionID)
				}
				pterm.Success.Printfln("Committed packages of %s", t.productID)
				return nil
			}

			api, err := t.packaged(c.Context(), ctx)
			if err != nil {
				return err
			}
			id, err := pendingSubmissionID(c.Context(), api, t.productID, submissionID)
			if err != nil {
				return err
			}
			resp, err := api.CommitSubmission(c.Context(), t.productID, id)
			if err != nil {
				return fmt.Errorf("failed to commit submission %s: %w", id, err)
			}

			status := ""
			if resp != nil {
				status = resp.Status
			}
			pterm.Success.Printfln("Committed submission %s %s", id, status)
			pterm.Info.Printfln("Run `msstore submission poll %s --submission-id %s` to follow certification", t.productID, id)
			return nil
		},
	}

	command.Flags().StringVar(&submissionID, "submission-id", "", "Submission to commit (packaged only; default: pending)")
	return command
}
