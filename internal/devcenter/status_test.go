package devcenter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gillisandrew/msstore-cli/internal/poll"
	"github.com/gillisandrew/msstore-cli/internal/transport"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name   string
		status *SubmissionStatus
		want   poll.State
	}{
		{name: "nil status", status: nil, want: poll.StateError},
		{name: "commit running", status: &SubmissionStatus{Status: StatusCommitStarted}, want: poll.StatePolling},
		{name: "commit failed", status: &SubmissionStatus{Status: StatusCommitFailed}, want: poll.StateFailed},
		{name: "certification failed", status: &SubmissionStatus{Status: StatusCertificationFailed}, want: poll.StateFailed},
		{name: "pre-processing", status: &SubmissionStatus{Status: StatusPreProcessing}, want: poll.StateSucceeded},
		{name: "published", status: &SubmissionStatus{Status: StatusPublished}, want: poll.StateSucceeded},
		{
			name: "errors while committing",
			status: &SubmissionStatus{
				Status:        StatusCommitStarted,
				StatusDetails: &StatusDetails{Errors: []StatusDetail{{Code: "InvalidParameterValue", Details: "bad listing"}}},
			},
			want: poll.StateFailed,
		},
		{
			name: "warnings only",
			status: &SubmissionStatus{
				Status:        StatusPreProcessing,
				StatusDetails: &StatusDetails{Warnings: []StatusDetail{{Code: "SalesUnsupportedWarning"}}},
			},
			want: poll.StateSucceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStatus(tt.status))
		})
	}
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "plain error", err: errors.New("dial tcp: timeout")},
		{name: "empty body", err: &transport.APIError{StatusCode: 500}},
		{name: "non json body", err: &transport.APIError{StatusCode: 502, Body: "<html>bad gateway</html>"}},
		{name: "unrelated json", err: &transport.APIError{StatusCode: 400, Body: `{"foo":"bar"}`}},
		{name: "devcenter payload", err: &transport.APIError{StatusCode: 409, Body: `{"code":"InvalidState","message":"pending"}`}, wantCode: "InvalidState"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseError(tt.err)
			if tt.wantCode == "" {
				assert.Nil(t, got)
				return
			}
			if assert.NotNil(t, got) {
				assert.Equal(t, tt.wantCode, got.Code)
			}
		})
	}
}

func TestDevCenterErrorMessage(t *testing.T) {
	err := &DevCenterError{
		Code:    "InvalidParameterValue",
		Message: "submission is invalid",
		Target:  "listings",
		Details: []DevCenterError{{Code: "MissingTitle", Message: "title is required"}},
	}
	assert.Equal(t, "InvalidParameterValue: submission is invalid (target: listings); MissingTitle: title is required", err.Error())
}
