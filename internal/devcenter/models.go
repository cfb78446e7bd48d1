// ABOUTME: Wire shapes for the DevCenter (packaged product) submission API
// ABOUTME: Field names mirror the JSON contract; unknown fields are ignored on decode
package devcenter

import (
	"fmt"
	"strings"
	"time"
)

// SubmissionRef points at a submission resource owned by an application
type SubmissionRef struct {
	ID               string `json:"id"`
	ResourceLocation string `json:"resourceLocation,omitempty"`
}

// Application is a registered Store product
type Application struct {
	ID                                 string         `json:"id"`
	PrimaryName                        string         `json:"primaryName"`
	PackageFamilyName                  string         `json:"packageFamilyName,omitempty"`
	PackageIdentityName                string         `json:"packageIdentityName,omitempty"`
	PublisherName                      string         `json:"publisherName,omitempty"`
	FirstPublishedDate                 *time.Time     `json:"firstPublishedDate,omitempty"`
	LastPublishedApplicationSubmission *SubmissionRef `json:"lastPublishedApplicationSubmission,omitempty"`
	PendingApplicationSubmission       *SubmissionRef `json:"pendingApplicationSubmission,omitempty"`
	HasAdvancedListingPermission       bool           `json:"hasAdvancedListingPermission,omitempty"`
}

// HasPendingSubmission reports whether the application already has an open submission
func (a *Application) HasPendingSubmission() bool {
	return a != nil && a.PendingApplicationSubmission != nil && a.PendingApplicationSubmission.ID != ""
}

// ApplicationsPage is one page of the applications listing
type ApplicationsPage struct {
	Value      []Application `json:"value"`
	NextLink   string        `json:"@nextLink,omitempty"`
	TotalCount int           `json:"totalCount"`
}

// Flight is a named pre-release distribution ring
type Flight struct {
	FlightID                      string         `json:"flightId"`
	FriendlyName                  string         `json:"friendlyName"`
	GroupIDs                      []string       `json:"groupIds,omitempty"`
	RankHigherThan                string         `json:"rankHigherThan,omitempty"`
	LastPublishedFlightSubmission *SubmissionRef `json:"lastPublishedFlightSubmission,omitempty"`
	PendingFlightSubmission       *SubmissionRef `json:"pendingFlightSubmission,omitempty"`
}

// FlightsPage is one page of the flights listing
type FlightsPage struct {
	Value      []Flight `json:"value"`
	NextLink   string   `json:"@nextLink,omitempty"`
	TotalCount int      `json:"totalCount"`
}

// Pricing holds base and market specific pricing of a submission
type Pricing struct {
	TrialPeriod            string            `json:"trialPeriod,omitempty"`
	MarketSpecificPricings map[string]string `json:"marketSpecificPricings,omitempty"`
	Sales                  []any             `json:"sales,omitempty"`
	PriceID                string            `json:"priceId,omitempty"`
	IsAdvancedPricingModel bool              `json:"isAdvancedPricingModel,omitempty"`
}

// BaseListing is the per-language store listing content
type BaseListing struct {
	CopyrightAndTrademarkInfo string   `json:"copyrightAndTrademarkInfo,omitempty"`
	Keywords                  []string `json:"keywords,omitempty"`
	LicenseTerms              string   `json:"licenseTerms,omitempty"`
	PrivacyPolicy             string   `json:"privacyPolicy,omitempty"`
	SupportContact            string   `json:"supportContact,omitempty"`
	WebsiteURL                string   `json:"websiteUrl,omitempty"`
	Description               string   `json:"description,omitempty"`
	Features                  []string `json:"features,omitempty"`
	ReleaseNotes              string   `json:"releaseNotes,omitempty"`
	Images                    []Image  `json:"images,omitempty"`
	RecommendedHardware       []string `json:"recommendedHardware,omitempty"`
	MinimumHardware           []string `json:"minimumHardware,omitempty"`
	Title                     string   `json:"title,omitempty"`
	ShortDescription          string   `json:"shortDescription,omitempty"`
	ShortTitle                string   `json:"shortTitle,omitempty"`
	SortTitle                 string   `json:"sortTitle,omitempty"`
	VoiceTitle                string   `json:"voiceTitle,omitempty"`
	DevStudio                 string   `json:"devStudio,omitempty"`
}

// Image is a listing image reference
type Image struct {
	FileName    string `json:"fileName"`
	FileStatus  string `json:"fileStatus"`
	ID          string `json:"id,omitempty"`
	Description string `json:"description,omitempty"`
	ImageType   string `json:"imageType"`
}

// Listing wraps a base listing and its platform overrides
type Listing struct {
	BaseListing       BaseListing            `json:"baseListing"`
	PlatformOverrides map[string]BaseListing `json:"platformOverrides,omitempty"`
}

// ApplicationPackage is a package attached to a submission
type ApplicationPackage struct {
	FileName              string   `json:"fileName"`
	FileStatus            string   `json:"fileStatus"`
	ID                    string   `json:"id,omitempty"`
	Version               string   `json:"version,omitempty"`
	Architecture          string   `json:"architecture,omitempty"`
	TargetPlatform        string   `json:"targetPlatform,omitempty"`
	Languages             []string `json:"languages,omitempty"`
	Capabilities          []string `json:"capabilities,omitempty"`
	MinimumDirectXVersion string   `json:"minimumDirectXVersion,omitempty"`
	MinimumSystemRAM      string   `json:"minimumSystemRam,omitempty"`
	TargetDeviceFamilies  []string `json:"targetDeviceFamilies,omitempty"`
}

// PackageRollout controls gradual exposure of a published submission
type PackageRollout struct {
	IsPackageRollout         bool    `json:"isPackageRollout"`
	PackageRolloutPercentage float64 `json:"packageRolloutPercentage"`
	PackageRolloutStatus     string  `json:"packageRolloutStatus,omitempty"`
	FallbackSubmissionID     string  `json:"fallbackSubmissionId,omitempty"`
}

// PackageDeliveryOptions groups rollout and mandatory update settings
type PackageDeliveryOptions struct {
	PackageRollout               *PackageRollout `json:"packageRollout,omitempty"`
	IsMandatoryUpdate            bool            `json:"isMandatoryUpdate"`
	MandatoryUpdateEffectiveDate *time.Time      `json:"mandatoryUpdateEffectiveDate,omitempty"`
}

// StatusDetail is one error or warning entry in StatusDetails
type StatusDetail struct {
	Code    string `json:"code"`
	Details string `json:"details"`
}

// CertificationReport links to a certification result
type CertificationReport struct {
	Date      *time.Time `json:"date,omitempty"`
	ReportURL string     `json:"reportUrl,omitempty"`
}

// StatusDetails carries structured diagnostics for a submission status
type StatusDetails struct {
	Errors               []StatusDetail        `json:"errors,omitempty"`
	Warnings             []StatusDetail        `json:"warnings,omitempty"`
	CertificationReports []CertificationReport `json:"certificationReports,omitempty"`
}

// Submission is a versioned change set for an application
type Submission struct {
	ID                                                        string                  `json:"id,omitempty"`
	ApplicationCategory                                       string                  `json:"applicationCategory,omitempty"`
	Pricing                                                   *Pricing                `json:"pricing,omitempty"`
	Visibility                                                string                  `json:"visibility,omitempty"`
	TargetPublishMode                                         string                  `json:"targetPublishMode,omitempty"`
	TargetPublishDate                                         *time.Time              `json:"targetPublishDate,omitempty"`
	Listings                                                  map[string]Listing      `json:"listings,omitempty"`
	HardwarePreferences                                       []string                `json:"hardwarePreferences,omitempty"`
	AutomaticBackupEnabled                                    bool                    `json:"automaticBackupEnabled"`
	CanInstallOnRemovableMedia                                bool                    `json:"canInstallOnRemovableMedia"`
	IsGameDvrEnabled                                          bool                    `json:"isGameDvrEnabled"`
	HasExternalInAppProducts                                  bool                    `json:"hasExternalInAppProducts"`
	MeetAccessibilityGuidelines                               bool                    `json:"meetAccessibilityGuidelines"`
	NotesForCertification                                     string                  `json:"notesForCertification,omitempty"`
	Status                                                    string                  `json:"status,omitempty"`
	StatusDetails                                             *StatusDetails          `json:"statusDetails,omitempty"`
	FileUploadURL                                             string                  `json:"fileUploadUrl,omitempty"`
	ApplicationPackages                                       []ApplicationPackage    `json:"applicationPackages,omitempty"`
	PackageDeliveryOptions                                    *PackageDeliveryOptions `json:"packageDeliveryOptions,omitempty"`
	EnterpriseLicensing                                       string                  `json:"enterpriseLicensing,omitempty"`
	AllowMicrosoftDecideAppAvailabilityToFutureDeviceFamilies bool                    `json:"allowMicrosoftDecideAppAvailabilityToFutureDeviceFamilies"`
	AllowTargetFutureDeviceFamilies                           map[string]bool         `json:"allowTargetFutureDeviceFamilies,omitempty"`
	FriendlyName                                              string                  `json:"friendlyName,omitempty"`
}

// SubmissionStatus is one poll tick of a packaged submission
type SubmissionStatus struct {
	Status        string         `json:"status"`
	StatusDetails *StatusDetails `json:"statusDetails,omitempty"`
}

// CommitResponse acknowledges a commit request
type CommitResponse struct {
	Status string `json:"status"`
}

// DevCenterError is the structured error body DevCenter returns
type DevCenterError struct {
	Code    string           `json:"code"`
	Message string           `json:"message"`
	Source  string           `json:"source,omitempty"`
	Target  string           `json:"target,omitempty"`
	Data    []any            `json:"data,omitempty"`
	Details []DevCenterError `json:"details,omitempty"`
}

func (e *DevCenterError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if e.Target != "" {
		fmt.Fprintf(&b, " (target: %s)", e.Target)
	}
	for _, d := range e.Details {
		fmt.Fprintf(&b, "; %s", d.Error())
	}
	return b.String()
}
