package render

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gillisandrew/msstore-cli/internal/config"
	"github.com/gillisandrew/msstore-cli/internal/devcenter"
	"github.com/gillisandrew/msstore-cli/internal/factory"
	"github.com/gillisandrew/msstore-cli/internal/storeapi"
	"github.com/gillisandrew/msstore-cli/internal/transport"
)

const (
	MsgCancelled    = "cancelled"
	MsgForbidden    = "product not found or access denied, check the product id"
	HintReconfigure = "run `msstore reconfigure` to set up credentials"
)

// Error turns err into the message shown to the user. Remote error payloads
// are expanded field by field.
func Error(err error) string {
	if err == nil {
		return ""
	}
	if IsCancelled(err) {
		return MsgCancelled
	}

	var dcErr *devcenter.DevCenterError
	if errors.As(err, &dcErr) {
		return DevCenterError(dcErr)
	}
	var storeErrs storeapi.ResponseErrors
	if errors.As(err, &storeErrs) {
		return ResponseErrors(storeErrs)
	}

	var apiErr *transport.APIError
	if errors.As(err, &apiErr) {
		if transport.IsForbidden(apiErr) {
			return MsgForbidden
		}
		if parsed := devcenter.ParseError(err); parsed != nil {
			return DevCenterError(parsed)
		}
		if parsed := storeapi.ParseError(err); len(parsed) > 0 {
			return ResponseErrors(parsed)
		}
	}
	return err.Error()
}

// Hint returns a follow-up suggestion for configuration and credential errors
func Hint(err error) string {
	switch {
	case errors.Is(err, factory.ErrInvalidCredential),
		errors.Is(err, config.ErrMissingClientID),
		errors.Is(err, config.ErrMissingTenantID),
		errors.Is(err, config.ErrMissingSellerID):
		return HintReconfigure
	}
	return ""
}

// IsCancelled reports whether err comes from an interrupted command
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// DevCenterError expands a DevCenter error payload, including nested details
func DevCenterError(e *devcenter.DevCenterError) string {
	var b strings.Builder
	writeDevCenterError(&b, e, "")
	return strings.TrimRight(b.String(), "\n")
}

func writeDevCenterError(b *strings.Builder, e *devcenter.DevCenterError, indent string) {
	fmt.Fprintf(b, "%sCode: %s\n", indent, e.Code)
	fmt.Fprintf(b, "%sMessage: %s\n", indent, e.Message)
	if e.Source != "" {
		fmt.Fprintf(b, "%sSource: %s\n", indent, e.Source)
	}
	if e.Target != "" {
		fmt.Fprintf(b, "%sTarget: %s\n", indent, e.Target)
	}
	for _, d := range e.Data {
		fmt.Fprintf(b, "%sData: %v\n", indent, d)
	}
	if len(e.Details) > 0 {
		fmt.Fprintf(b, "%sDetails:\n", indent)
		for i := range e.Details {
			writeDevCenterError(b, &e.Details[i], indent+"  ")
		}
	}
}

// ResponseErrors lists Store API errors one per line
func ResponseErrors(errs storeapi.ResponseErrors) string {
	if len(errs) == 0 {
		return errs.Error()
	}
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.String()
	}
	return strings.Join(lines, "\n")
}
