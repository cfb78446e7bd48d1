// ABOUTME: Submission commands covering the full packaged and unpackaged submission lifecycle
// ABOUTME: get, status, update, commit, delete, poll and the end-to-end publish workflow
package submission

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gillisandrew/msstore-cli/internal/cmd"
	"github.com/gillisandrew/msstore-cli/internal/config"
	"github.com/gillisandrew/msstore-cli/internal/domain"
	"github.com/gillisandrew/msstore-cli/internal/poll"
	"github.com/gillisandrew/msstore-cli/internal/render"
	"github.com/gillisandrew/msstore-cli/internal/storeapi"
)

var (
	// ErrSubmissionFailed is returned when a polled submission ends in a failed state
	ErrSubmissionFailed = errors.New("submission did not succeed")

	ErrUnsupportedForUnpackaged = errors.New("operation is not supported for unpackaged products")
)

func NewSubmissionCommand(ctx *cmd.CommandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submission",
		Short: "Manage Store submissions",
		Long:  `Create, inspect, update, commit and publish submissions.

Product ids made only of digits are unpackaged (MSI/EXE) products served by
the Store API; other ids are packaged (MSIX) products served by DevCenter.`,
	}

	cmd.AddCommand(newGetCommand(ctx))
	cmd.AddCommand(newStatusCommand(ctx))
	cmd.AddCommand(newUpdateCommand(ctx))
	cmd.AddCommand(newCommitCommand(ctx))
	cmd.AddCommand(newDeleteCommand(ctx))
	cmd.AddCommand(newPollCommand(ctx))
	cmd.AddCommand(newPublishCommand(ctx))

	return cmd
}

// target bundles what every submission subcommand resolves first
type target struct {
	productID string
	kind      domain.ProductKind
	cfg       *config.Config
	renderer  *render.Renderer
}

func resolve(ctx *cmd.CommandContext, productID string) (*target, error) {
	kind, err := domain.ResolveProductKind(productID)
	if err != nil {
		return nil, err
	}
	cfg, err := ctx.Config()
	if err != nil {
		return nil, err
	}
	renderer, err := ctx.Renderer(cfg)
	if err != nil {
		return nil, err
	}
	return &target{productID: productID, kind: kind, cfg: cfg, renderer: renderer}, nil
}

func (t *target) packaged(c context.Context, ctx *cmd.CommandContext) (domain.PackagedAPI, error) {
	return ctx.Factory().CreatePackagedClient(c, t.cfg)
}

func (t *target) unpackaged(c context.Context, ctx *cmd.CommandContext) (domain.UnpackagedAPI, error) {
	return ctx.Factory().CreateUnpackagedClient(c, t.cfg)
}

// pendingSubmissionID returns submissionID or, when empty, the application's pending submission
func pendingSubmissionID(c context.Context, api domain.PackagedAPI, productID, submissionID string) (string, error) {
	if submissionID != "" {
		return submissionID, nil
	}
	app, err := api.GetApplication(c, productID)
	if err != nil {
		return "", fmt.Errorf("failed to get application %s: %w", productID, err)
	}
	if !app.HasPendingSubmission() {
		return "", cmd.ErrNoSubmission
	}
	return app.PendingApplicationSubmission.ID, nil
}

// latestSubmissionID prefers the pending submission and falls back to the last published one
func latestSubmissionID(c context.Context, api domain.PackagedAPI, productID, submissionID string) (string, error) {
	if submissionID != "" {
		return submissionID, nil
	}
	app, err := api.GetApplication(c, productID)
	if err != nil {
		return "", fmt.Errorf("failed to get application %s: %w", productID, err)
	}
	switch {
	case app == nil:
		return "", fmt.Errorf("application %s not found", productID)
	case app.HasPendingSubmission():
		return app.PendingApplicationSubmission.ID, nil
	case app.LastPublishedApplicationSubmission != nil && app.LastPublishedApplicationSubmission.ID != "":
		return app.LastPublishedApplicationSubmission.ID, nil
	}
	return "", cmd.ErrNoSubmission
}

// ongoingSubmissionID returns submissionID or the unpackaged product's ongoing submission
func ongoingSubmissionID(c context.Context, api domain.UnpackagedAPI, productID, submissionID string) (string, error) {
	if submissionID != "" {
		return submissionID, nil
	}
	resp, err := api.GetModuleStatus(c, productID)
	if err != nil {
		return "", fmt.Errorf("failed to get status of %s: %w", productID, err)
	}
	status, err := resp.Data()
	if err != nil {
		return "", err
	}
	if status == nil || status.OngoingSubmissionID == "" {
		return "", cmd.ErrNoSubmission
	}
	return status.OngoingSubmissionID, nil
}

// draft is the unpackaged product's current draft as shown by `submission get`
type draft struct {
	Packages     []storeapi.Package     `json:"packages"`
	Listings     []storeapi.Listing     `json:"listings"`
	Availability *storeapi.Availability `json:"availability,omitempty"`
	Properties   *storeapi.Properties   `json:"properties,omitempty"`
}

func loadDraft(c context.Context, api domain.UnpackagedAPI, productID string) (*draft, error) {
	d := &draft{}

	packages, err := api.GetPackages(c, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get packages: %w", err)
	}
	if data, err := packages.Data(); err != nil {
		return nil, err
	} else if data != nil {
		d.Packages = data.Packages
	}

	listings, err := api.GetListings(c, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get listings: %w", err)
	}
	if data, err := listings.Data(); err != nil {
		return nil, err
	} else if data != nil {
		d.Listings = data.Listings
	}

	availability, err := api.GetAvailability(c, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get availability: %w", err)
	}
	if d.Availability, err = availability.Data(); err != nil {
		return nil, err
	}

	properties, err := api.GetProperties(c, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get properties: %w", err)
	}
	if d.Properties, err = properties.Data(); err != nil {
		return nil, err
	}
	return d, nil
}

func statusError(state poll.State, status string) error {
	if status == "" {
		return fmt.Errorf("%w: %s", ErrSubmissionFailed, state)
	}
	return fmt.Errorf("%w: %s (%s)", ErrSubmissionFailed, status, state)
}
