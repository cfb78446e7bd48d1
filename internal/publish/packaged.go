package publish

import (
	"context"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
	jsoniter "github.com/json-iterator/go"

	"github.com/gillisandrew/msstore-cli/internal/devcenter"
	"github.com/gillisandrew/msstore-cli/internal/domain"
	"github.com/gillisandrew/msstore-cli/internal/poll"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PackagedRequest describes one packaged (DevCenter) publish
type PackagedRequest struct {
	ProductID string

	// Delete an existing pending submission instead of failing
	Replace bool

	// JSON merge patch (RFC 7386) applied to the new submission before update
	Patch []byte
}

// PackagedResult is the outcome of a packaged publish
type PackagedResult struct {
	SubmissionID string

	// Terminal poll snapshot; zero when polling was skipped
	Final poll.Snapshot[*devcenter.SubmissionStatus]
}

// Succeeded reports whether the submission reached a successful terminal state
func (r *PackagedResult) Succeeded() bool {
	return r != nil && r.Final.State == poll.StateSucceeded
}

// PublishPackaged runs get app → pending handling → create → update → commit → poll
func PublishPackaged(ctx context.Context, api domain.PackagedAPI, req PackagedRequest, opts *Opts) (*PackagedResult, error) {
	opts = orDefault(opts)
	productID := req.ProductID

	opts.emit(Event{Step: StepGetApplication, ProductID: productID})
	app, err := api.GetApplication(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get application %s: %w", productID, err)
	}
	if app == nil {
		return nil, fmt.Errorf("application %s not found", productID)
	}

	if app.HasPendingSubmission() {
		pendingID := app.PendingApplicationSubmission.ID
		if !req.Replace {
			return nil, fmt.Errorf("%w: %s (use --replace to delete it)", ErrPendingSubmission, pendingID)
		}
		opts.emit(Event{Step: StepDeletePending, ProductID: productID, SubmissionID: pendingID})
		if err := deletePending(ctx, api, productID, pendingID); err != nil {
			return nil, err
		}
	}

	opts.emit(Event{Step: StepCreate, ProductID: productID})
	sub, err := api.CreateSubmission(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}
	if sub == nil || sub.ID == "" {
		return nil, ErrEmptySubmission
	}
	opts.debug("created submission", "productId", productID, "submissionId", sub.ID)

	if len(req.Patch) > 0 {
		opts.emit(Event{Step: StepUpdate, ProductID: productID, SubmissionID: sub.ID})
		if _, err := PatchSubmission(ctx, api, productID, sub.ID, req.Patch); err != nil {
			return nil, err
		}
	}

	opts.emit(Event{Step: StepCommit, ProductID: productID, SubmissionID: sub.ID})
	commit, err := api.CommitSubmission(ctx, productID, sub.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to commit submission %s: %w", sub.ID, err)
	}
	if commit != nil {
		opts.debug("commit accepted", "submissionId", sub.ID, "status", commit.Status)
	}

	result := &PackagedResult{SubmissionID: sub.ID}
	if opts.NoWait {
		return result, nil
	}

	final, err := PollPackaged(ctx, api, productID, sub.ID, opts)
	result.Final = final
	return result, err
}

func deletePending(ctx context.Context, api domain.PackagedAPI, productID, submissionID string) error {
	payload, err := api.DeleteSubmission(ctx, productID, submissionID)
	if err != nil {
		return fmt.Errorf("failed to delete pending submission %s: %w", submissionID, err)
	}
	if payload != nil && (payload.Code != "" || payload.Message != "") {
		return fmt.Errorf("failed to delete pending submission %s: %w", submissionID, payload)
	}
	return nil
}

// PollPackaged waits for a committed submission to reach a terminal status
func PollPackaged(ctx context.Context, api domain.PackagedAPI, productID, submissionID string, opts *Opts) (poll.Snapshot[*devcenter.SubmissionStatus], error) {
	opts = orDefault(opts)
	fetch := func(ctx context.Context) (*devcenter.SubmissionStatus, error) {
		return api.GetSubmissionStatus(ctx, productID, submissionID)
	}
	seq := poll.Poll(ctx, fetch, devcenter.ClassifyStatus, opts.pollOpts())
	return poll.Wait(seq, func(s poll.Snapshot[*devcenter.SubmissionStatus]) {
		status := ""
		if s.Status != nil {
			status = s.Status.Status
		}
		opts.emit(Event{Step: StepPoll, ProductID: productID, SubmissionID: submissionID, Tick: s.Tick, State: s.State, Status: status, At: s.At})
	})
}

// PatchSubmission fetches the full submission document, merges patch into it
// and writes the result back. The create response is minimal, so the
// document is always read fresh before the replace.
func PatchSubmission(ctx context.Context, api domain.PackagedAPI, productID, submissionID string, patch []byte) (*devcenter.Submission, error) {
	doc, err := api.GetSubmissionDocument(ctx, productID, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get submission %s: %w", submissionID, err)
	}
	merged, err := ApplySubmissionPatch(doc, patch)
	if err != nil {
		return nil, err
	}
	updated, err := api.UpdateSubmissionDocument(ctx, productID, submissionID, merged)
	if err != nil {
		return nil, fmt.Errorf("failed to update submission %s: %w", submissionID, err)
	}
	return updated, nil
}

// ApplySubmissionPatch merges patch (RFC 7386) into a submission document.
// Fields set to null in the patch are removed; everything the patch does not
// name is kept verbatim, including fields Submission does not model.
func ApplySubmissionPatch(doc, patch []byte) ([]byte, error) {
	merged, err := jsonpatch.MergePatch(doc, patch)
	if err != nil {
		return nil, fmt.Errorf("invalid submission patch: %w", err)
	}
	var check devcenter.Submission
	if err := json.Unmarshal(merged, &check); err != nil {
		return nil, fmt.Errorf("patched submission is not valid: %w", err)
	}
	return merged, nil
}
