// ABOUTME: Wire shapes for the unpackaged (MSI/EXE) Store submission API
// ABOUTME: Every response body is a ResponseWrapper around the operation payload
package storeapi

import (
	"fmt"
	"strings"
)

// ResponseError is one entry of a wrapper's error list
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Target  string `json:"target,omitempty"`
}

func (e ResponseError) String() string {
	if e.Target != "" {
		return fmt.Sprintf("%s: %s (target: %s)", e.Code, e.Message, e.Target)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ResponseErrors is returned when the service reports IsSuccess=false
type ResponseErrors []ResponseError

func (e ResponseErrors) Error() string {
	if len(e) == 0 {
		return "store api: request was not successful"
	}
	parts := make([]string, len(e))
	for i, re := range e {
		parts[i] = re.String()
	}
	return "store api: " + strings.Join(parts, "; ")
}

// ResponseWrapper is the envelope around every Store API payload
type ResponseWrapper[T any] struct {
	IsSuccess    bool            `json:"isSuccess"`
	Errors       []ResponseError `json:"errors,omitempty"`
	ResponseData *T              `json:"responseData,omitempty"`
}

// Err returns the reported errors when the call was not successful
func (w *ResponseWrapper[T]) Err() error {
	if w == nil {
		return ResponseErrors(nil)
	}
	if w.IsSuccess {
		return nil
	}
	return ResponseErrors(w.Errors)
}

// Data returns the payload, or the reported errors when the call failed
func (w *ResponseWrapper[T]) Data() (*T, error) {
	if err := w.Err(); err != nil {
		return nil, err
	}
	return w.ResponseData, nil
}

// PublishingStatus is the coarse state of an unpackaged submission
type PublishingStatus string

const (
	PublishingInProgress PublishingStatus = "INPROGRESS"
	PublishingPublished  PublishingStatus = "PUBLISHED"
	PublishingFailed     PublishingStatus = "FAILED"
	PublishingUnknown    PublishingStatus = "UNKNOWN"
)

// SubmissionStatus is one poll tick of an unpackaged submission
type SubmissionStatus struct {
	PublishingStatus PublishingStatus `json:"publishingStatus"`
	HasFailed        bool             `json:"hasFailed"`
}

// ModuleStatus reports whether the product can accept a new submission
type ModuleStatus struct {
	IsReady             bool   `json:"isReady"`
	OngoingSubmissionID string `json:"ongoingSubmissionId,omitempty"`
}

// CreateSubmissionResponse identifies the submission created by submit
type CreateSubmissionResponse struct {
	SubmissionID        string `json:"submissionId"`
	PollingURL          string `json:"pollingUrl,omitempty"`
	OngoingSubmissionID string `json:"ongoingSubmissionId,omitempty"`
}

// PackagesCommitResponse acknowledges a package commit
type PackagesCommitResponse struct {
	PollingURL          string `json:"pollingUrl,omitempty"`
	OngoingSubmissionID string `json:"ongoingSubmissionId,omitempty"`
}

// InstallerParameter is a custom installer return code mapping
type InstallerParameter struct {
	ReturnCode   int    `json:"returnCode"`
	ReturnString string `json:"returnString"`
}

// Package is an installer hosted at a public URL
type Package struct {
	PackageID           string               `json:"packageId,omitempty"`
	PackageURL          string               `json:"packageUrl"`
	Languages           []string             `json:"languages,omitempty"`
	Architectures       []string             `json:"architectures,omitempty"`
	IsSilentInstall     bool                 `json:"isSilentInstall"`
	InstallerParameters string               `json:"installerParameters,omitempty"`
	GenericDocURL       string               `json:"genericDocUrl,omitempty"`
	PackageType         string               `json:"packageType,omitempty"`
	CustomReturnCodes   []InstallerParameter `json:"customInstallerReturnCodes,omitempty"`
	ErrorDetails        []ResponseError      `json:"errorDetails,omitempty"`
}

// PackagesResponse lists the packages of the draft submission
type PackagesResponse struct {
	Packages []Package `json:"packages"`
}

// UpdatePackagesRequest replaces the package set of the draft submission
type UpdatePackagesRequest struct {
	Packages []Package `json:"packages"`
}

// ListingAsset is an image or trailer attached to a listing
type ListingAsset struct {
	Type     string `json:"type"`
	URL      string `json:"url"`
	Language string `json:"language,omitempty"`
}

// Listing is the per-language store listing
type Listing struct {
	Language                string         `json:"language"`
	Description             string         `json:"description,omitempty"`
	WhatsNew                string         `json:"whatsNew,omitempty"`
	ProductFeatures         []string       `json:"productFeatures,omitempty"`
	ShortDescription        string         `json:"shortDescription,omitempty"`
	SearchTerms             []string       `json:"searchTerms,omitempty"`
	AdditionalLicenseTerms  string         `json:"additionalLicenseTerms,omitempty"`
	Copyright               string         `json:"copyright,omitempty"`
	DevelopedBy             string         `json:"developedBy,omitempty"`
	SortTitle               string         `json:"sortTitle,omitempty"`
	RequirementsMinimum     []string       `json:"requirements_minimum,omitempty"`
	RequirementsRecommended []string       `json:"requirements_recommended,omitempty"`
	ContactInfo             string         `json:"contactInfo,omitempty"`
	PrivacyPolicyURL        string         `json:"privacyPolicyUrl,omitempty"`
	ProductWebsiteURL       string         `json:"productWebsiteUrl,omitempty"`
	Images                  []ListingAsset `json:"images,omitempty"`
}

// ListingsResponse holds every listing of the draft submission
type ListingsResponse struct {
	Listings []Listing `json:"listings"`
}

// Pricing is the base price of an unpackaged product
type Pricing struct {
	PricingID   string `json:"pricingId,omitempty"`
	PricingType string `json:"pricingType,omitempty"`
}

// Availability is the market and visibility setup
type Availability struct {
	Markets               []string `json:"markets,omitempty"`
	Discoverability       string   `json:"discoverability,omitempty"`
	EnableInFutureMarkets bool     `json:"enableInFutureMarkets"`
	Pricing               *Pricing `json:"pricing,omitempty"`
	FreeTrial             string   `json:"freeTrial,omitempty"`
}

// ProductDeclarations are the certification declarations of a product
type ProductDeclarations struct {
	DependsOnDriversOrNT        bool `json:"dependsOnDriversOrNT"`
	AccessibilitySupport        bool `json:"accessibilitySupport"`
	PenTestAllowed              bool `json:"penTestAllowed"`
	ProductMarketedAsFree       bool `json:"productMarketedAsFree"`
	InstallableOnRemovableMedia bool `json:"installableOnRemovableMedia"`
}

// Properties is the category and contact setup
type Properties struct {
	IsPrivacyPolicyRequired bool                 `json:"isPrivacyPolicyRequired"`
	PrivacyPolicyURL        string               `json:"privacyPolicyUrl,omitempty"`
	Website                 string               `json:"website,omitempty"`
	SupportContactInfo      string               `json:"supportContactInfo,omitempty"`
	CertificationNotes      string               `json:"certificationNotes,omitempty"`
	Category                string               `json:"category,omitempty"`
	SubCategory             string               `json:"subcategory,omitempty"`
	ProductDeclarations     *ProductDeclarations `json:"productDeclarations,omitempty"`
}

// UpdateMetadataRequest replaces any subset of the draft metadata
type UpdateMetadataRequest struct {
	Availability *Availability `json:"availability,omitempty"`
	Listings     []Listing     `json:"listings,omitempty"`
	Properties   *Properties   `json:"properties,omitempty"`
}

// UpdateMetadataResponse acknowledges a metadata update
type UpdateMetadataResponse struct {
	PollingURL          string `json:"pollingUrl,omitempty"`
	OngoingSubmissionID string `json:"ongoingSubmissionId,omitempty"`
}
