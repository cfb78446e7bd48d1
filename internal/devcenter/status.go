// ABOUTME: Poll classification and error decoding for packaged submissions
// ABOUTME: Maps DevCenter status strings onto poll states
package devcenter

import (
	"errors"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/gillisandrew/msstore-cli/internal/poll"
	"github.com/gillisandrew/msstore-cli/internal/transport"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Submission status values reported by DevCenter
const (
	StatusPendingCommit           = "PendingCommit"
	StatusCommitStarted           = "CommitStarted"
	StatusCommitFailed            = "CommitFailed"
	StatusPreProcessing           = "PreProcessing"
	StatusPreProcessingFailed     = "PreProcessingFailed"
	StatusCertification           = "Certification"
	StatusCertificationFailed     = "CertificationFailed"
	StatusRelease                 = "Release"
	StatusReleaseFailed           = "ReleaseFailed"
	StatusPublishing              = "Publishing"
	StatusPublished               = "Published"
	StatusPublishFailed           = "PublishFailed"
	StatusPreProcessingInProgress = "PreProcessingInProgress"
)

// ClassifyStatus maps a submission status onto a poll state. Only
// CommitStarted keeps polling: once the commit finished the submission moves
// into the certification pipeline, which is tracked in Partner Center.
func ClassifyStatus(status *SubmissionStatus) poll.State {
	if status == nil {
		return poll.StateError
	}
	if status.StatusDetails != nil && len(status.StatusDetails.Errors) > 0 {
		return poll.StateFailed
	}
	switch {
	case status.Status == StatusCommitStarted:
		return poll.StatePolling
	case strings.HasSuffix(status.Status, "Failed"):
		return poll.StateFailed
	default:
		return poll.StateSucceeded
	}
}

// ParseError extracts the DevCenter error payload carried by an API error.
// It returns nil when err holds no decodable payload.
func ParseError(err error) *DevCenterError {
	var apiErr *transport.APIError
	if !errors.As(err, &apiErr) || strings.TrimSpace(apiErr.Body) == "" {
		return nil
	}

	var dcErr DevCenterError
	if json.UnmarshalFromString(apiErr.Body, &dcErr) != nil {
		return nil
	}
	if dcErr.Code == "" && dcErr.Message == "" {
		return nil
	}
	return &dcErr
}
