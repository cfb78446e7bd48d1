package cmd

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/gillisandrew/msstore-cli/internal/publish"
	"github.com/gillisandrew/msstore-cli/internal/render"
)

// StopFunc ends a progress spinner. A nil error prints msg as a success, a
// cancelled command a warning and any other error msg as a failure.
type StopFunc func(err error, msg string)

type outcome int

const (
	outcomeSucceeded outcome = iota
	outcomeCancelled
	outcomeFailed
)

func outcomeOf(err error) outcome {
	switch {
	case err == nil:
		return outcomeSucceeded
	case render.IsCancelled(err):
		return outcomeCancelled
	default:
		return outcomeFailed
	}
}

// Progress shows workflow events on a spinner
func (c *CommandContext) Progress(title string) (publish.ProgressFunc, StopFunc) {
	spinner, err := pterm.DefaultSpinner.WithRemoveWhenDone(false).Start(title)
	if err != nil {
		spinner = nil
	}

	onEvent := func(e publish.Event) {
		text := describeEvent(e)
		if c.Logger != nil {
			c.Logger.Debug("publish progress", c.Logger.Args("step", string(e.Step), "tick", e.Tick, "state", e.State.String(), "status", e.Status))
		}
		if spinner != nil {
			spinner.UpdateText(text)
		}
	}

	stop := func(err error, msg string) {
		if spinner == nil {
			return
		}
		switch outcomeOf(err) {
		case outcomeSucceeded:
			spinner.Success(msg)
		case outcomeCancelled:
			spinner.Warning(title + " " + render.MsgCancelled)
		default:
			spinner.Fail(msg)
		}
	}
	return onEvent, stop
}

func describeEvent(e publish.Event) string {
	switch e.Step {
	case publish.StepGetApplication:
		return fmt.Sprintf("Fetching application %s", e.ProductID)
	case publish.StepDeletePending:
		return fmt.Sprintf("Deleting pending submission %s", e.SubmissionID)
	case publish.StepCreate:
		return "Creating submission"
	case publish.StepUpdate:
		return fmt.Sprintf("Updating submission %s", e.SubmissionID)
	case publish.StepCommit:
		return fmt.Sprintf("Committing submission %s", e.SubmissionID)
	case publish.StepUpdatePackages:
		return "Updating packages"
	case publish.StepUpdateMetadata:
		return "Updating metadata"
	case publish.StepCommitPackages:
		return "Committing packages"
	case publish.StepWaitReady:
		return fmt.Sprintf("Waiting for product to be ready (check %d)", e.Tick)
	case publish.StepSubmit:
		return "Submitting"
	case publish.StepPoll:
		if e.Status != "" {
			return fmt.Sprintf("Submission %s: %s (check %d)", e.SubmissionID, e.Status, e.Tick)
		}
		return fmt.Sprintf("Submission %s: waiting (check %d)", e.SubmissionID, e.Tick)
	}
	return string(e.Step)
}
