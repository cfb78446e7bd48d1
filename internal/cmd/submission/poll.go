package submission

import (
	"github.com/spf13/cobra"

	"github.com/gillisandrew/msstore-cli/internal/cmd"
	"github.com/gillisandrew/msstore-cli/internal/domain"
	"github.com/gillisandrew/msstore-cli/internal/publish"
)

func newPollCommand(ctx *cmd.CommandContext) *cobra.Command {
	var submissionID string

	command := &cobra.Command{
		Use:   "poll <productId>",
		Short: "Wait for a submission to finish",
		Long:  `Poll a committed submission until it reaches a terminal state. The
command fails when the submission fails certification or publishing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			t, err := resolve(ctx, args[0])
			if err != nil {
				return err
			}

			onEvent, stop := ctx.Progress("Polling submission")
			opts := ctx.PublishOpts(t.cfg).WithProgress(onEvent)

			if t.kind == domain.Unpackaged {
				api, err := t.unpackaged(c.Context(), ctx)
				if err != nil {
					stop(err, "Polling failed")
					return err
				}
				id, err := ongoingSubmissionID(c.Context(), api, t.productID, submissionID)
				if err != nil {
					stop(err, "Polling failed")
					return err
				}
				final, err := publish.PollUnpackaged(c.Context(), api, t.productID, id, opts)
				if err != nil {
					stop(err, "Polling failed")
					return err
				}
				result := &publish.UnpackagedResult{SubmissionID: id, Final: final}
				return finishUnpackaged(t, result, stop)
			}

			api, err := t.packaged(c.Context(), ctx)
			if err != nil {
				stop(err, "Polling failed")
				return err
			}
			id, err := pendingSubmissionID(c.Context(), api, t.productID, submissionID)
			if err != nil {
				stop(err, "Polling failed")
				return err
			}
			final, err := publish.PollPackaged(c.Context(), api, t.productID, id, opts)
			if err != nil {
				stop(err, "Polling failed")
				return err
			}
			return finishPackaged(t, &publish.PackagedResult{SubmissionID: id, Final: final}, stop)
		},
	}

	command.Flags().StringVar(&submissionID, "submission-id", "", "Submission to poll (default: pending or ongoing)")
	return command
}

// finishPackaged reports the terminal state and renders the final status
func finishPackaged(t *target, result *publish.PackagedResult, stop cmd.StopFunc) error {
	status := ""
	if result.Final.Status != nil {
		status = result.Final.Status.Status
	}
	if !result.Succeeded() {
		failed := statusError(result.Final.State, status)
		stop(failed, "Submission "+result.SubmissionID+" did not succeed")
		if result.Final.Status != nil {
			if err := t.renderer.PackagedStatus(result.Final.Status); err != nil {
				return err
			}
		}
		return failed
	}
	stop(nil, "Submission "+result.SubmissionID+" reached "+status)
	return t.renderer.PackagedStatus(result.Final.Status)
}

func finishUnpackaged(t *target, result *publish.UnpackagedResult, stop cmd.StopFunc) error {
	resp := result.Final.Status
	status := ""
	if resp != nil && resp.ResponseData != nil {
		status = string(resp.ResponseData.PublishingStatus)
	}
	if !result.Succeeded() {
		failed := statusError(result.Final.State, status)
		if resp != nil {
			if err := resp.Err(); err != nil {
				failed = statusError(result.Final.State, err.Error())
			}
		}
		stop(failed, "Submission "+result.SubmissionID+" did not succeed")
		return failed
	}
	stop(nil, "Submission "+result.SubmissionID+" reached "+status)
	if resp == nil {
		return nil
	}
	return t.renderer.UnpackagedStatus(resp.ResponseData)
}
