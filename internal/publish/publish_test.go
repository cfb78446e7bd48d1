package publish

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gillisandrew/msstore-cli/internal/devcenter"
	"github.com/gillisandrew/msstore-cli/internal/poll"
	"github.com/gillisandrew/msstore-cli/internal/storeapi"
)

func testOpts(delays *[]time.Duration, events *[]Event) *Opts {
	return DefaultOpts().
		WithPoll(poll.DefaultOpts().WithInterval(30 * time.Second).WithSleep(noSleep(delays))).
		WithProgress(func(e Event) { *events = append(*events, e) })
}

// fullSubmission is a submission document as DevCenter returns it, with
// fields Submission does not model
const fullSubmission = `{
	"id": "sub-1",
	"applicationCategory": "Productivity",
	"visibility": "Public",
	"notesForCertification": "old",
	"meetAccessibilityGuidelines": true,
	"allowMicrosoftDecideAppAvailabilityToFutureDeviceFamilies": true,
	"listings": {"en-us": {"baseListing": {"title": "Contoso", "releaseNotes": "1.0"}}},
	"gamingOptions": [{"genres": ["Games_Puzzle"], "isLocalMultiplayer": true}],
	"trailers": [{"id": "t1", "videoFileName": "trailer.mp4"}]
}`

func TestPublishPackaged(t *testing.T) {
	api := &fakePackaged{
		app:      &devcenter.Application{ID: "9NBLGGH4NNS1"},
		created:  &devcenter.Submission{ID: "sub-1"},
		document: fullSubmission,
		statuses: []*devcenter.SubmissionStatus{
			{Status: devcenter.StatusCommitStarted},
			{Status: devcenter.StatusCommitStarted},
			{Status: devcenter.StatusPreProcessing},
		},
	}
	var delays []time.Duration
	var events []Event

	result, err := PublishPackaged(context.Background(), api, PackagedRequest{
		ProductID: "9NBLGGH4NNS1",
		Patch:     []byte(`{"notesForCertification":"new build","visibility":null}`),
	}, testOpts(&delays, &events))
	require.NoError(t, err)

	assert.Equal(t, "sub-1", result.SubmissionID)
	assert.True(t, result.Succeeded())
	assert.Equal(t, devcenter.StatusPreProcessing, result.Final.Status.Status)
	assert.Equal(t, []string{"get-app", "create", "get-submission", "update", "commit", "status", "status", "status"}, api.calls)
	assert.Len(t, delays, 3)

	require.NotNil(t, api.updatedDoc)
	var sent map[string]any
	require.NoError(t, json.Unmarshal(api.updatedDoc, &sent))
	assert.Equal(t, "new build", sent["notesForCertification"])
	assert.NotContains(t, sent, "visibility")
	assert.Equal(t, "Productivity", sent["applicationCategory"])
	assert.Equal(t, true, sent["meetAccessibilityGuidelines"])
	assert.Equal(t, true, sent["allowMicrosoftDecideAppAvailabilityToFutureDeviceFamilies"])
	assert.Contains(t, sent, "listings")
	assert.Contains(t, sent, "gamingOptions")
	assert.Contains(t, sent, "trailers")

	var steps []Step
	for _, e := range events {
		steps = append(steps, e.Step)
	}
	assert.Equal(t, []Step{StepGetApplication, StepCreate, StepUpdate, StepCommit, StepPoll, StepPoll, StepPoll}, steps)
	assert.Equal(t, poll.StateSucceeded, events[len(events)-1].State)
}

func TestPublishPackagedWithoutPatchSkipsUpdate(t *testing.T) {
	api := &fakePackaged{app: &devcenter.Application{ID: "app"}, created: &devcenter.Submission{ID: "sub-1"}}
	_, err := PublishPackaged(context.Background(), api, PackagedRequest{ProductID: "app"}, DefaultOpts().WithNoWait(true))
	require.NoError(t, err)
	assert.Equal(t, []string{"get-app", "create", "commit"}, api.calls)
}

func TestPublishPackagedPendingSubmission(t *testing.T) {
	pending := &devcenter.Application{
		ID:                           "9NBLGGH4NNS1",
		PendingApplicationSubmission: &devcenter.SubmissionRef{ID: "pending-1"},
	}

	t.Run("refuses without replace", func(t *testing.T) {
		api := &fakePackaged{app: pending}
		_, err := PublishPackaged(context.Background(), api, PackagedRequest{ProductID: "9NBLGGH4NNS1"}, DefaultOpts())
		assert.ErrorIs(t, err, ErrPendingSubmission)
		assert.Contains(t, err.Error(), "pending-1")
		assert.Equal(t, []string{"get-app"}, api.calls)
	})

	t.Run("replace deletes first", func(t *testing.T) {
		api := &fakePackaged{app: pending, created: &devcenter.Submission{ID: "sub-2"}}
		result, err := PublishPackaged(context.Background(), api,
			PackagedRequest{ProductID: "9NBLGGH4NNS1", Replace: true}, DefaultOpts().WithNoWait(true))
		require.NoError(t, err)
		assert.Equal(t, "sub-2", result.SubmissionID)
		assert.Equal(t, []string{"get-app", "delete:pending-1", "create", "commit"}, api.calls)
		assert.Equal(t, poll.State(0), result.Final.State)
	})

	t.Run("delete error payload stops the workflow", func(t *testing.T) {
		api := &fakePackaged{app: pending, deleteErr: &devcenter.DevCenterError{Code: "InvalidState", Message: "already committed"}}
		_, err := PublishPackaged(context.Background(), api,
			PackagedRequest{ProductID: "9NBLGGH4NNS1", Replace: true}, DefaultOpts())
		var dcErr *devcenter.DevCenterError
		require.ErrorAs(t, err, &dcErr)
		assert.Equal(t, "InvalidState", dcErr.Code)
		assert.NotContains(t, api.calls, "create")
	})
}

func TestPublishPackagedCreateConflict(t *testing.T) {
	conflict := &devcenter.DevCenterError{Code: "InvalidState", Message: "A pending submission already exists"}
	api := &fakePackaged{app: &devcenter.Application{ID: "app"}, createErr: conflict}

	_, err := PublishPackaged(context.Background(), api, PackagedRequest{ProductID: "app"}, DefaultOpts())
	assert.ErrorIs(t, err, conflict)
}

func TestPublishPackagedReportsFailure(t *testing.T) {
	api := &fakePackaged{
		app:      &devcenter.Application{ID: "app"},
		created:  &devcenter.Submission{ID: "sub-1"},
		statuses: []*devcenter.SubmissionStatus{{Status: devcenter.StatusCommitFailed}},
	}
	var delays []time.Duration
	var events []Event

	result, err := PublishPackaged(context.Background(), api, PackagedRequest{ProductID: "app"}, testOpts(&delays, &events))
	require.NoError(t, err, "a reported failure is a terminal snapshot, not an error")
	assert.False(t, result.Succeeded())
	assert.Equal(t, poll.StateFailed, result.Final.State)
}

func TestPublishPackagedInvalidPatch(t *testing.T) {
	api := &fakePackaged{app: &devcenter.Application{ID: "app"}, created: &devcenter.Submission{ID: "sub-1"}, document: fullSubmission}
	_, err := PublishPackaged(context.Background(), api, PackagedRequest{ProductID: "app", Patch: []byte(`{not json`)}, DefaultOpts())
	assert.Error(t, err)
	assert.NotContains(t, api.calls, "commit")
}

func TestApplySubmissionPatch(t *testing.T) {
	doc := []byte(fullSubmission)

	merged, err := ApplySubmissionPatch(doc, []byte(`{"listings":{"en-us":{"baseListing":{"releaseNotes":"1.1"}}}}`))
	require.NoError(t, err)

	var patched devcenter.Submission
	require.NoError(t, json.Unmarshal(merged, &patched))
	assert.Equal(t, "1.1", patched.Listings["en-us"].BaseListing.ReleaseNotes)
	assert.Equal(t, "Contoso", patched.Listings["en-us"].BaseListing.Title, "merge keeps untouched fields")
	assert.Equal(t, "sub-1", patched.ID)
	assert.True(t, patched.MeetAccessibilityGuidelines)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(merged, &raw))
	assert.Contains(t, raw, "gamingOptions", "fields without a Go model are kept")
	assert.Contains(t, raw, "trailers")
	assert.JSONEq(t, fullSubmission, string(doc), "input is not modified")
}

func TestApplySubmissionPatchRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		patch string
	}{
		{name: "not json", patch: `{not json`},
		{name: "wrong field type", patch: `{"visibility":42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ApplySubmissionPatch([]byte(fullSubmission), []byte(tt.patch))
			assert.Error(t, err)
		})
	}
}

func okModule(ready bool) *storeapi.ResponseWrapper[storeapi.ModuleStatus] {
	return &storeapi.ResponseWrapper[storeapi.ModuleStatus]{IsSuccess: true, ResponseData: &storeapi.ModuleStatus{IsReady: ready}}
}

func okStatus(status storeapi.PublishingStatus, failed bool) *storeapi.ResponseWrapper[storeapi.SubmissionStatus] {
	return &storeapi.ResponseWrapper[storeapi.SubmissionStatus]{
		IsSuccess:    true,
		ResponseData: &storeapi.SubmissionStatus{PublishingStatus: status, HasFailed: failed},
	}
}

func TestPublishUnpackaged(t *testing.T) {
	api := &fakeUnpackaged{
		updatePackages: &storeapi.ResponseWrapper[storeapi.PackagesResponse]{IsSuccess: true},
		commit:         &storeapi.ResponseWrapper[storeapi.PackagesCommitResponse]{IsSuccess: true, ResponseData: &storeapi.PackagesCommitResponse{}},
		modules:        []*storeapi.ResponseWrapper[storeapi.ModuleStatus]{okModule(false), okModule(true)},
		submit: &storeapi.ResponseWrapper[storeapi.CreateSubmissionResponse]{
			IsSuccess:    true,
			ResponseData: &storeapi.CreateSubmissionResponse{SubmissionID: "sub-9", PollingURL: "https://api.store.microsoft.com/poll"},
		},
		statuses: []*storeapi.ResponseWrapper[storeapi.SubmissionStatus]{
			okStatus(storeapi.PublishingInProgress, false),
			okStatus(storeapi.PublishingPublished, false),
		},
	}
	packages := &storeapi.UpdatePackagesRequest{Packages: []storeapi.Package{{PackageURL: "https://contoso.com/setup.msi", PackageType: "msi"}}}
	var delays []time.Duration
	var events []Event

	result, err := PublishUnpackaged(context.Background(), api, UnpackagedRequest{ProductID: "424242", Packages: packages}, testOpts(&delays, &events))
	require.NoError(t, err)

	assert.Equal(t, "sub-9", result.SubmissionID)
	assert.Equal(t, "https://api.store.microsoft.com/poll", result.PollingURL)
	assert.True(t, result.Succeeded())
	assert.Same(t, packages, api.packages)
	assert.Equal(t, []string{"update-packages", "commit-packages", "module-status", "module-status", "submit", "status", "status"}, api.calls)
	// readiness: first check immediate, one delay; submission poll: delay before each tick
	assert.Len(t, delays, 3)
}

func TestPublishUnpackagedErrors(t *testing.T) {
	notSuccessful := storeapi.ResponseErrors{{Code: "InvalidInput", Message: "packageUrl is required"}}

	t.Run("package update rejected", func(t *testing.T) {
		api := &fakeUnpackaged{updatePackages: &storeapi.ResponseWrapper[storeapi.PackagesResponse]{IsSuccess: false, Errors: notSuccessful}}
		_, err := PublishUnpackaged(context.Background(), api, UnpackagedRequest{ProductID: "1", Packages: &storeapi.UpdatePackagesRequest{}}, DefaultOpts())
		var errs storeapi.ResponseErrors
		require.ErrorAs(t, err, &errs)
		assert.Equal(t, "InvalidInput", errs[0].Code)
		assert.Equal(t, []string{"update-packages"}, api.calls)
	})

	t.Run("module status call fails", func(t *testing.T) {
		api := &fakeUnpackaged{modules: []*storeapi.ResponseWrapper[storeapi.ModuleStatus]{{IsSuccess: false, Errors: notSuccessful}}}
		_, err := PublishUnpackaged(context.Background(), api, UnpackagedRequest{ProductID: "1"}, DefaultOpts())
		assert.ErrorIs(t, err, ErrNotReady)
		assert.NotContains(t, api.calls, "submit")
	})

	t.Run("ongoing submission", func(t *testing.T) {
		api := &fakeUnpackaged{
			modules: []*storeapi.ResponseWrapper[storeapi.ModuleStatus]{okModule(true)},
			submit: &storeapi.ResponseWrapper[storeapi.CreateSubmissionResponse]{
				IsSuccess:    true,
				ResponseData: &storeapi.CreateSubmissionResponse{OngoingSubmissionID: "sub-0"},
			},
		}
		_, err := PublishUnpackaged(context.Background(), api, UnpackagedRequest{ProductID: "1"}, DefaultOpts())
		assert.ErrorIs(t, err, ErrPendingSubmission)
		assert.Contains(t, err.Error(), "sub-0")
	})

	t.Run("reported failure is a terminal snapshot", func(t *testing.T) {
		api := &fakeUnpackaged{
			modules:  []*storeapi.ResponseWrapper[storeapi.ModuleStatus]{okModule(true)},
			submit:   &storeapi.ResponseWrapper[storeapi.CreateSubmissionResponse]{IsSuccess: true, ResponseData: &storeapi.CreateSubmissionResponse{SubmissionID: "s"}},
			statuses: []*storeapi.ResponseWrapper[storeapi.SubmissionStatus]{okStatus(storeapi.PublishingInProgress, true)},
		}
		var delays []time.Duration
		var events []Event
		result, err := PublishUnpackaged(context.Background(), api, UnpackagedRequest{ProductID: "1"}, testOpts(&delays, &events))
		require.NoError(t, err)
		assert.Equal(t, poll.StateFailed, result.Final.State)
		assert.False(t, result.Succeeded())
	})
}

func TestPollPackagedCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	api := &fakePackaged{statuses: []*devcenter.SubmissionStatus{{Status: devcenter.StatusCommitStarted}}}
	_, err := PollPackaged(ctx, api, "app", "sub", DefaultOpts())
	assert.True(t, errors.Is(err, context.Canceled))
}
