package publish

import (
	"context"
	"time"

	"github.com/gillisandrew/msstore-cli/internal/devcenter"
	"github.com/gillisandrew/msstore-cli/internal/poll"
	"github.com/gillisandrew/msstore-cli/internal/storeapi"
)

// noSleep records requested delays without waiting
func noSleep(delays *[]time.Duration) poll.SleepFunc {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
}

type fakePackaged struct {
	app       *devcenter.Application
	appErr    error
	created   *devcenter.Submission
	createErr error
	document  string
	deleteErr *devcenter.DevCenterError
	statuses  []*devcenter.SubmissionStatus

	calls      []string
	updated    *devcenter.Submission
	updatedDoc []byte
}

func (f *fakePackaged) GetApplication(ctx context.Context, productID string) (*devcenter.Application, error) {
	f.calls = append(f.calls, "get-app")
	return f.app, f.appErr
}

func (f *fakePackaged) GetApplications(ctx context.Context) ([]devcenter.Application, error) {
	return nil, nil
}

func (f *fakePackaged) CreateSubmission(ctx context.Context, productID string) (*devcenter.Submission, error) {
	f.calls = append(f.calls, "create")
	return f.created, f.createErr
}

func (f *fakePackaged) GetSubmission(ctx context.Context, productID, submissionID string) (*devcenter.Submission, error) {
	return f.created, nil
}

func (f *fakePackaged) UpdateSubmission(ctx context.Context, productID, submissionID string, submission *devcenter.Submission) (*devcenter.Submission, error) {
	f.calls = append(f.calls, "update")
	f.updated = submission
	return submission, nil
}

func (f *fakePackaged) GetSubmissionDocument(ctx context.Context, productID, submissionID string) ([]byte, error) {
	f.calls = append(f.calls, "get-submission")
	return []byte(f.document), nil
}

func (f *fakePackaged) UpdateSubmissionDocument(ctx context.Context, productID, submissionID string, doc []byte) (*devcenter.Submission, error) {
	f.calls = append(f.calls, "update")
	f.updatedDoc = doc
	var sub devcenter.Submission
	if err := json.Unmarshal(doc, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (f *fakePackaged) CommitSubmission(ctx context.Context, productID, submissionID string) (*devcenter.CommitResponse, error) {
	f.calls = append(f.calls, "commit")
	return &devcenter.CommitResponse{Status: devcenter.StatusCommitStarted}, nil
}

func (f *fakePackaged) DeleteSubmission(ctx context.Context, productID, submissionID string) (*devcenter.DevCenterError, error) {
	f.calls = append(f.calls, "delete:"+submissionID)
	return f.deleteErr, nil
}

func (f *fakePackaged) GetSubmissionStatus(ctx context.Context, productID, submissionID string) (*devcenter.SubmissionStatus, error) {
	f.calls = append(f.calls, "status")
	s := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return s, nil
}

func (f *fakePackaged) GetFlights(ctx context.Context, productID string) ([]devcenter.Flight, error) {
	return nil, nil
}

type fakeUnpackaged struct {
	updatePackages *storeapi.ResponseWrapper[storeapi.PackagesResponse]
	commit         *storeapi.ResponseWrapper[storeapi.PackagesCommitResponse]
	modules        []*storeapi.ResponseWrapper[storeapi.ModuleStatus]
	submit         *storeapi.ResponseWrapper[storeapi.CreateSubmissionResponse]
	statuses       []*storeapi.ResponseWrapper[storeapi.SubmissionStatus]

	calls    []string
	packages *storeapi.UpdatePackagesRequest
}

func (f *fakeUnpackaged) GetModuleStatus(ctx context.Context, productID string) (*storeapi.ResponseWrapper[storeapi.ModuleStatus], error) {
	f.calls = append(f.calls, "module-status")
	m := f.modules[0]
	if len(f.modules) > 1 {
		f.modules = f.modules[1:]
	}
	return m, nil
}

func (f *fakeUnpackaged) GetListings(ctx context.Context, productID string) (*storeapi.ResponseWrapper[storeapi.ListingsResponse], error) {
	return nil, nil
}

func (f *fakeUnpackaged) GetAvailability(ctx context.Context, productID string) (*storeapi.ResponseWrapper[storeapi.Availability], error) {
	return nil, nil
}

func (f *fakeUnpackaged) GetProperties(ctx context.Context, productID string) (*storeapi.ResponseWrapper[storeapi.Properties], error) {
	return nil, nil
}

func (f *fakeUnpackaged) UpdateMetadata(ctx context.Context, productID string, req *storeapi.UpdateMetadataRequest) (*storeapi.ResponseWrapper[storeapi.UpdateMetadataResponse], error) {
	f.calls = append(f.calls, "update-metadata")
	return &storeapi.ResponseWrapper[storeapi.UpdateMetadataResponse]{IsSuccess: true}, nil
}

func (f *fakeUnpackaged) GetPackages(ctx context.Context, productID string) (*storeapi.ResponseWrapper[storeapi.PackagesResponse], error) {
	return nil, nil
}

func (f *fakeUnpackaged) UpdatePackages(ctx context.Context, productID string, req *storeapi.UpdatePackagesRequest) (*storeapi.ResponseWrapper[storeapi.PackagesResponse], error) {
	f.calls = append(f.calls, "update-packages")
	f.packages = req
	return f.updatePackages, nil
}

func (f *fakeUnpackaged) CommitPackages(ctx context.Context, productID string) (*storeapi.ResponseWrapper[storeapi.PackagesCommitResponse], error) {
	f.calls = append(f.calls, "commit-packages")
	return f.commit, nil
}

func (f *fakeUnpackaged) CreateSubmission(ctx context.Context, productID string) (*storeapi.ResponseWrapper[storeapi.CreateSubmissionResponse], error) {
	f.calls = append(f.calls, "submit")
	return f.submit, nil
}

func (f *fakeUnpackaged) GetSubmissionStatus(ctx context.Context, productID, submissionID string) (*storeapi.ResponseWrapper[storeapi.SubmissionStatus], error) {
	f.calls = append(f.calls, "status")
	s := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return s, nil
}
