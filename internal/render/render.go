// ABOUTME: Output rendering for msstore commands in table, JSON and YAML form
// ABOUTME: Tables use pterm, structured output uses json-iterator and ghodss/yaml
package render

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/ghodss/yaml"
	jsoniter "github.com/json-iterator/go"
	"github.com/pterm/pterm"

	"github.com/gillisandrew/msstore-cli/internal/devcenter"
	"github.com/gillisandrew/msstore-cli/internal/storeapi"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Format selects how command results are printed
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat accepts table, json or yaml (case-insensitive); empty means table
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("%w %q (expected table, json or yaml)", ErrUnknownFormat, s)
}

// Renderer prints command results in one format
type Renderer struct {
	format Format
	out    io.Writer
}

// New creates a renderer writing to out (default: stdout)
func New(format Format, out io.Writer) *Renderer {
	if format == "" {
		format = FormatTable
	}
	if out == nil {
		out = os.Stdout
	}
	return &Renderer{format: format, out: out}
}

func (r *Renderer) Format() Format {
	return r.format
}

// Value prints v as JSON or YAML; tables fall back to YAML for free-form values
func (r *Renderer) Value(v any) error {
	switch r.format {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode json output: %w", err)
		}
		_, err = fmt.Fprintln(r.out, string(data))
		return err
	default:
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode yaml output: %w", err)
		}
		_, err = fmt.Fprint(r.out, string(data))
		return err
	}
}

func (r *Renderer) table(data pterm.TableData) error {
	s, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	_, err = fmt.Fprintln(r.out, s)
	return err
}

// Fields prints rows as a two-column table, or v for structured formats
func (r *Renderer) Fields(v any, rows [][]string) error {
	if r.format != FormatTable {
		return r.Value(v)
	}
	data := pterm.TableData{{"Field", "Value"}}
	for _, row := range rows {
		data = append(data, row)
	}
	return r.table(data)
}

// Applications prints an application listing
func (r *Renderer) Applications(apps []devcenter.Application) error {
	if r.format != FormatTable {
		return r.Value(apps)
	}
	data := pterm.TableData{{"ID", "NAME", "PENDING SUBMISSION", "LAST PUBLISHED"}}
	for _, app := range apps {
		data = append(data, []string{app.ID, app.PrimaryName, refID(app.PendingApplicationSubmission), refID(app.LastPublishedApplicationSubmission)})
	}
	return r.table(data)
}

// Application prints one application
func (r *Renderer) Application(app *devcenter.Application) error {
	if r.format != FormatTable || app == nil {
		return r.Value(app)
	}
	published := ""
	if app.FirstPublishedDate != nil {
		published = app.FirstPublishedDate.Format("2006-01-02")
	}
	return r.table(pterm.TableData{
		{"FIELD", "VALUE"},
		{"ID", app.ID},
		{"Name", app.PrimaryName},
		{"Package family", app.PackageFamilyName},
		{"Package identity", app.PackageIdentityName},
		{"Publisher", app.PublisherName},
		{"First published", published},
		{"Pending submission", refID(app.PendingApplicationSubmission)},
		{"Last published submission", refID(app.LastPublishedApplicationSubmission)},
	})
}

// Submission prints a packaged submission summary
func (r *Renderer) Submission(sub *devcenter.Submission) error {
	if r.format != FormatTable || sub == nil {
		return r.Value(sub)
	}
	data := pterm.TableData{
		{"FIELD", "VALUE"},
		{"ID", sub.ID},
		{"Status", sub.Status},
		{"Visibility", sub.Visibility},
		{"Publish mode", sub.TargetPublishMode},
		{"Packages", strconv.Itoa(len(sub.ApplicationPackages))},
		{"Listings", strings.Join(sortedKeys(sub.Listings), ", ")},
	}
	if sub.PackageDeliveryOptions != nil && sub.PackageDeliveryOptions.PackageRollout != nil && sub.PackageDeliveryOptions.PackageRollout.IsPackageRollout {
		data = append(data, []string{"Rollout", strconv.FormatFloat(sub.PackageDeliveryOptions.PackageRollout.PackageRolloutPercentage, 'f', -1, 64) + "%"})
	}
	if err := r.table(data); err != nil {
		return err
	}
	return r.statusDetails(sub.StatusDetails)
}

// PackagedStatus prints a DevCenter submission status
func (r *Renderer) PackagedStatus(status *devcenter.SubmissionStatus) error {
	if r.format != FormatTable || status == nil {
		return r.Value(status)
	}
	if err := r.table(pterm.TableData{{"STATUS"}, {status.Status}}); err != nil {
		return err
	}
	return r.statusDetails(status.StatusDetails)
}

func (r *Renderer) statusDetails(details *devcenter.StatusDetails) error {
	if details == nil || len(details.Errors)+len(details.Warnings)+len(details.CertificationReports) == 0 {
		return nil
	}
	data := pterm.TableData{{"KIND", "CODE", "DETAILS"}}
	for _, e := range details.Errors {
		data = append(data, []string{"error", e.Code, e.Details})
	}
	for _, w := range details.Warnings {
		data = append(data, []string{"warning", w.Code, w.Details})
	}
	for _, c := range details.CertificationReports {
		data = append(data, []string{"certification", "", c.ReportURL})
	}
	return r.table(data)
}

// UnpackagedStatus prints a Store API submission status
func (r *Renderer) UnpackagedStatus(status *storeapi.SubmissionStatus) error {
	if r.format != FormatTable || status == nil {
		return r.Value(status)
	}
	return r.table(pterm.TableData{
		{"PUBLISHING STATUS", "HAS FAILED"},
		{string(status.PublishingStatus), strconv.FormatBool(status.HasFailed)},
	})
}

// ModuleStatus prints whether an unpackaged product accepts a new submission
func (r *Renderer) ModuleStatus(status *storeapi.ModuleStatus) error {
	if r.format != FormatTable || status == nil {
		return r.Value(status)
	}
	return r.table(pterm.TableData{
		{"READY", "ONGOING SUBMISSION"},
		{strconv.FormatBool(status.IsReady), status.OngoingSubmissionID},
	})
}

// Flights prints the package flights of an application
func (r *Renderer) Flights(flights []devcenter.Flight) error {
	if r.format != FormatTable {
		return r.Value(flights)
	}
	data := pterm.TableData{{"FLIGHT ID", "NAME", "GROUPS", "PENDING SUBMISSION", "RANK HIGHER THAN"}}
	for _, f := range flights {
		data = append(data, []string{f.FlightID, f.FriendlyName, strings.Join(f.GroupIDs, ","), refID(f.PendingFlightSubmission), f.RankHigherThan})
	}
	return r.table(data)
}

func refID(ref *devcenter.SubmissionRef) string {
	if ref == nil {
		return ""
	}
	return ref.ID
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
