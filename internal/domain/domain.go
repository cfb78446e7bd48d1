// ABOUTME: Core domain types shared by the msstore commands and workflows
// ABOUTME: Product kinds and the contracts the API façades and credential sources fulfil
package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/gillisandrew/msstore-cli/internal/devcenter"
	"github.com/gillisandrew/msstore-cli/internal/storeapi"
)

// ProductKind tells which Store API serves a product
type ProductKind int

const (
	// Packaged products (MSIX) are managed through the DevCenter API
	Packaged ProductKind = iota
	// Unpackaged products (MSI/EXE) are managed through the Store API
	Unpackaged
)

func (k ProductKind) String() string {
	if k == Unpackaged {
		return "unpackaged"
	}
	return "packaged"
}

var ErrEmptyProductID = errors.New("product id is required")

// ResolveProductKind maps a product id to its API. Unpackaged products have
// all-digit ids; packaged Store ids are alphanumeric (e.g. 9NBLGGH4NNS1).
func ResolveProductKind(productID string) (ProductKind, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Packaged, ErrEmptyProductID
	}
	for _, r := range productID {
		if r < '0' || r > '9' {
			return Packaged, nil
		}
	}
	return Unpackaged, nil
}

// PackagedAPI is the DevCenter façade used by commands and workflows
type PackagedAPI interface {
	GetApplication(ctx context.Context, productID string) (*devcenter.Application, error)
	GetApplications(ctx context.Context) ([]devcenter.Application, error)
	CreateSubmission(ctx context.Context, productID string) (*devcenter.Submission, error)
	GetSubmission(ctx context.Context, productID, submissionID string) (*devcenter.Submission, error)
	UpdateSubmission(ctx context.Context, productID, submissionID string, submission *devcenter.Submission) (*devcenter.Submission, error)
	GetSubmissionDocument(ctx context.Context, productID, submissionID string) ([]byte, error)
	UpdateSubmissionDocument(ctx context.Context, productID, submissionID string, doc []byte) (*devcenter.Submission, error)
	CommitSubmission(ctx context.Context, productID, submissionID string) (*devcenter.CommitResponse, error)
	DeleteSubmission(ctx context.Context, productID, submissionID string) (*devcenter.DevCenterError, error)
	GetSubmissionStatus(ctx context.Context, productID, submissionID string) (*devcenter.SubmissionStatus, error)
	GetFlights(ctx context.Context, productID string) ([]devcenter.Flight, error)
}

// UnpackagedAPI is the Store API façade used by commands and workflows
type UnpackagedAPI interface {
	GetModuleStatus(ctx context.Context, productID string) (*storeapi.ResponseWrapper[storeapi.ModuleStatus], error)
	GetListings(ctx context.Context, productID string) (*storeapi.ResponseWrapper[storeapi.ListingsResponse], error)
	GetAvailability(ctx context.Context, productID string) (*storeapi.ResponseWrapper[storeapi.Availability], error)
	GetProperties(ctx context.Context, productID string) (*storeapi.ResponseWrapper[storeapi.Properties], error)
	UpdateMetadata(ctx context.Context, productID string, req *storeapi.UpdateMetadataRequest) (*storeapi.ResponseWrapper[storeapi.UpdateMetadataResponse], error)
	GetPackages(ctx context.Context, productID string) (*storeapi.ResponseWrapper[storeapi.PackagesResponse], error)
	UpdatePackages(ctx context.Context, productID string, req *storeapi.UpdatePackagesRequest) (*storeapi.ResponseWrapper[storeapi.PackagesResponse], error)
	CommitPackages(ctx context.Context, productID string) (*storeapi.ResponseWrapper[storeapi.PackagesCommitResponse], error)
	CreateSubmission(ctx context.Context, productID string) (*storeapi.ResponseWrapper[storeapi.CreateSubmissionResponse], error)
	GetSubmissionStatus(ctx context.Context, productID, submissionID string) (*storeapi.ResponseWrapper[storeapi.SubmissionStatus], error)
}

// TokenProvider yields bearer tokens for one API resource
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// CredentialStore keeps client secrets keyed by client id
type CredentialStore interface {
	ReadCredential(key string) (string, error)
	WriteCredential(key, secret string) error
	ClearCredentials(key string) error
}
