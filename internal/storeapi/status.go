// ABOUTME: Poll classification for unpackaged submissions and module readiness
// ABOUTME: Separates failed status calls from failures reported by the service
package storeapi

import (
	"errors"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/gillisandrew/msstore-cli/internal/poll"
	"github.com/gillisandrew/msstore-cli/internal/transport"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ClassifyStatus maps a submission status response onto a poll state.
// A response that is unsuccessful or carries no data is StateError; a
// failure reported by the service is StateFailed. Both end polling.
func ClassifyStatus(resp *ResponseWrapper[SubmissionStatus]) poll.State {
	if resp == nil || !resp.IsSuccess || resp.ResponseData == nil {
		return poll.StateError
	}

	status := resp.ResponseData
	if status.HasFailed {
		return poll.StateFailed
	}
	switch status.PublishingStatus {
	case PublishingPublished:
		return poll.StateSucceeded
	case PublishingFailed:
		return poll.StateFailed
	default:
		return poll.StatePolling
	}
}

// ClassifyModuleStatus maps a module status response onto a poll state.
// The module is ready once package processing finished.
func ClassifyModuleStatus(resp *ResponseWrapper[ModuleStatus]) poll.State {
	if resp == nil || !resp.IsSuccess {
		return poll.StateError
	}
	if resp.ResponseData != nil && resp.ResponseData.IsReady {
		return poll.StateSucceeded
	}
	return poll.StatePolling
}

// ParseError extracts the wrapper errors carried by a non-2xx API error.
// It returns nil when err holds no decodable wrapper.
func ParseError(err error) ResponseErrors {
	var apiErr *transport.APIError
	if !errors.As(err, &apiErr) || strings.TrimSpace(apiErr.Body) == "" {
		return nil
	}

	var wrapper ResponseWrapper[struct{}]
	if json.UnmarshalFromString(apiErr.Body, &wrapper) != nil || len(wrapper.Errors) == 0 {
		return nil
	}
	return ResponseErrors(wrapper.Errors)
}
