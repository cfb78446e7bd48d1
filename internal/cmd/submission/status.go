package submission

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gillisandrew/msstore-cli/internal/cmd"
	"github.com/gillisandrew/msstore-cli/internal/domain"
)

func newStatusCommand(ctx *cmd.CommandContext) *cobra.Command {
	var submissionID string

	command := &cobra.Command{
		Use:   "status <productId>",
		Short: "Show the status of a submission",
		Long:  `Show the current status of a submission without waiting.

Packaged products default to the pending submission. Unpackaged products
default to the ongoing submission; when there is none the product's
readiness is shown instead.`,
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

				id := submissionID
				if id == "" {
					resp, err := api.GetModuleStatus(c.Context(), t.productID)
					if err != nil {
						return fmt.Errorf("failed to get status of %s: %w", t.productID, err)
					}
					module, err := resp.Data()
					if err != nil {
						return fmt.Errorf("failed to get status of %s: %w", t.productID, err)
					}
					if module == nil || module.OngoingSubmissionID == "" {
						return t.renderer.ModuleStatus(module)
					}
					id = module.OngoingSubmissionID
				}

				resp, err := api.GetSubmissionStatus(c.Context(), t.productID, id)
				if err != nil {
					return fmt.Errorf("failed to get status of submission %s: %w", id, err)
				}
				status, err := resp.Data()
				if err != nil {
					return fmt.Errorf("failed to get status of submission %s: %w", id, err)
				}
				return t.renderer.UnpackagedStatus(status)
			}

			api, err := t.packaged(c.Context(), ctx)
			if err != nil {
				return err
			}
			id, err := pendingSubmissionID(c.Context(), api, t.productID, submissionID)
			if err != nil {
				return err
			}
			status, err := api.GetSubmissionStatus(c.Context(), t.productID, id)
			if err != nil {
				return fmt.Errorf("failed to get status of submission %s: %w", id, err)
			}
			return t.renderer.PackagedStatus(status)
		},
	}

	command.Flags().StringVar(&submissionID, "submission-id", "", "Submission to check")
	return command
}
