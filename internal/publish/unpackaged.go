package publish

import (
	"context"
	"fmt"

	"github.com/gillisandrew/msstore-cli/internal/domain"
	"github.com/gillisandrew/msstore-cli/internal/poll"
	"github.com/gillisandrew/msstore-cli/internal/storeapi"
)

// UnpackagedRequest describes one unpackaged (Store API) publish
type UnpackagedRequest struct {
	ProductID string

	// Replacement package set; nil keeps the current draft packages
	Packages *storeapi.UpdatePackagesRequest

	// Draft metadata changes; nil keeps the current metadata
	Metadata *storeapi.UpdateMetadataRequest
}

// UnpackagedResult is the outcome of an unpackaged publish
type UnpackagedResult struct {
	SubmissionID string
	PollingURL   string

	// Terminal poll snapshot; zero when polling was skipped
	Final poll.Snapshot[*storeapi.ResponseWrapper[storeapi.SubmissionStatus]]
}

// Succeeded reports whether the submission was published
func (r *UnpackagedResult) Succeeded() bool {
	return r != nil && r.Final.State == poll.StateSucceeded
}

// PublishUnpackaged runs update packages → commit → wait ready → submit → poll
func PublishUnpackaged(ctx context.Context, api domain.UnpackagedAPI, req UnpackagedRequest, opts *Opts) (*UnpackagedResult, error) {
	opts = orDefault(opts)
	productID := req.ProductID

	if req.Packages != nil {
		opts.emit(Event{Step: StepUpdatePackages, ProductID: productID})
		resp, err := api.UpdatePackages(ctx, productID, req.Packages)
		if err := wrapperErr(resp, err); err != nil {
			return nil, fmt.Errorf("failed to update packages: %w", err)
		}

		opts.emit(Event{Step: StepCommitPackages, ProductID: productID})
		commit, err := api.CommitPackages(ctx, productID)
		if err := wrapperErr(commit, err); err != nil {
			return nil, fmt.Errorf("failed to commit packages: %w", err)
		}
		if data := commit.ResponseData; data != nil && data.OngoingSubmissionID != "" {
			return nil, fmt.Errorf("%w: %s", ErrPendingSubmission, data.OngoingSubmissionID)
		}
	}

	if req.Metadata != nil {
		opts.emit(Event{Step: StepUpdateMetadata, ProductID: productID})
		resp, err := api.UpdateMetadata(ctx, productID, req.Metadata)
		if err := wrapperErr(resp, err); err != nil {
			return nil, fmt.Errorf("failed to update metadata: %w", err)
		}
	}

	if err := waitReady(ctx, api, productID, opts); err != nil {
		return nil, err
	}

	opts.emit(Event{Step: StepSubmit, ProductID: productID})
	resp, err := api.CreateSubmission(ctx, productID)
	if err := wrapperErr(resp, err); err != nil {
		return nil, fmt.Errorf("failed to submit: %w", err)
	}
	created := resp.ResponseData
	if created == nil || created.SubmissionID == "" {
		if created != nil && created.OngoingSubmissionID != "" {
			return nil, fmt.Errorf("%w: %s", ErrPendingSubmission, created.OngoingSubmissionID)
		}
		return nil, ErrEmptySubmission
	}
	opts.debug("created submission", "productId", productID, "submissionId", created.SubmissionID)

	result := &UnpackagedResult{SubmissionID: created.SubmissionID, PollingURL: created.PollingURL}
	if opts.NoWait {
		return result, nil
	}

	final, err := PollUnpackaged(ctx, api, productID, created.SubmissionID, opts)
	result.Final = final
	return result, err
}

// waitReady polls the module status until the product accepts a submission
func waitReady(ctx context.Context, api domain.UnpackagedAPI, productID string, opts *Opts) error {
	fetch := func(ctx context.Context) (*storeapi.ResponseWrapper[storeapi.ModuleStatus], error) {
		return api.GetModuleStatus(ctx, productID)
	}

	// readiness is checked right away; only later checks wait
	pollOpts := *opts.pollOpts()
	pollOpts.WaitFirst = false

	final, err := poll.Wait(poll.Poll(ctx, fetch, storeapi.ClassifyModuleStatus, &pollOpts), func(s poll.Snapshot[*storeapi.ResponseWrapper[storeapi.ModuleStatus]]) {
		opts.emit(Event{Step: StepWaitReady, ProductID: productID, Tick: s.Tick, State: s.State, At: s.At})
	})
	if err != nil {
		return fmt.Errorf("failed to get module status: %w", err)
	}
	if final.State != poll.StateSucceeded {
		if final.Status != nil {
			if err := final.Status.Err(); err != nil {
				return fmt.Errorf("%w: %w", ErrNotReady, err)
			}
		}
		return ErrNotReady
	}
	return nil
}

// PollUnpackaged waits for a submission to be published or to fail
func PollUnpackaged(ctx context.Context, api domain.UnpackagedAPI, productID, submissionID string, opts *Opts) (poll.Snapshot[*storeapi.ResponseWrapper[storeapi.SubmissionStatus]], error) {
	opts = orDefault(opts)
	fetch := func(ctx context.Context) (*storeapi.ResponseWrapper[storeapi.SubmissionStatus], error) {
		return api.GetSubmissionStatus(ctx, productID, submissionID)
	}
	seq := poll.Poll(ctx, fetch, storeapi.ClassifyStatus, opts.pollOpts())
	return poll.Wait(seq, func(s poll.Snapshot[*storeapi.ResponseWrapper[storeapi.SubmissionStatus]]) {
		status := ""
		if s.Status != nil && s.Status.ResponseData != nil {
			status = string(s.Status.ResponseData.PublishingStatus)
		}
		opts.emit(Event{Step: StepPoll, ProductID: productID, SubmissionID: submissionID, Tick: s.Tick, State: s.State, Status: status, At: s.At})
	})
}

// wrapperErr folds a transport error and an unsuccessful envelope into one error
func wrapperErr[T any](resp *storeapi.ResponseWrapper[T], err error) error {
	if err != nil {
		return err
	}
	return resp.Err()
}
