// ABOUTME: End-to-end publish workflows for packaged and unpackaged Store products
// ABOUTME: Drives create/update/commit/poll sequences and reports progress through a callback
package publish

import (
	"errors"
	"time"

	"github.com/pterm/pterm"

	"github.com/gillisandrew/msstore-cli/internal/poll"
)

var (
	// ErrPendingSubmission is returned when the product already has an uncommitted submission
	ErrPendingSubmission = errors.New("product already has a pending submission")

	// ErrNotReady is returned when an unpackaged product never became ready for submission
	ErrNotReady = errors.New("product is not ready for a new submission")

	ErrEmptySubmission = errors.New("service returned no submission")
)

// Step names one stage of a publish workflow
type Step string

const (
	StepGetApplication Step = "get-application"
	StepDeletePending  Step = "delete-pending"
	StepCreate         Step = "create-submission"
	StepUpdate         Step = "update-submission"
	StepCommit         Step = "commit-submission"
	StepUpdatePackages Step = "update-packages"
	StepUpdateMetadata Step = "update-metadata"
	StepCommitPackages Step = "commit-packages"
	StepWaitReady      Step = "wait-ready"
	StepSubmit         Step = "submit"
	StepPoll           Step = "poll"
)

// Event is one progress notification
type Event struct {
	Step         Step
	ProductID    string
	SubmissionID string

	// Set for poll ticks
	Tick   int
	State  poll.State
	Status string
	At     time.Time
}

// ProgressFunc receives workflow events in order
type ProgressFunc func(Event)

// Opts configures the publish workflows
type Opts struct {
	// Poll settings shared by every wait in the workflow
	Poll *poll.Opts

	// Skip polling after commit/submit
	NoWait bool

	Progress ProgressFunc

	Logger *pterm.Logger
}

// DefaultOpts polls every 30 seconds and reports nothing
func DefaultOpts() *Opts {
	return &Opts{
		Poll: poll.DefaultOpts(),
	}
}

func (opts *Opts) WithPoll(p *poll.Opts) *Opts {
	opts.Poll = p
	return opts
}

func (opts *Opts) WithNoWait(noWait bool) *Opts {
	opts.NoWait = noWait
	return opts
}

func (opts *Opts) WithProgress(fn ProgressFunc) *Opts {
	opts.Progress = fn
	return opts
}

func (opts *Opts) WithLogger(logger *pterm.Logger) *Opts {
	opts.Logger = logger
	return opts
}

func (opts *Opts) emit(e Event) {
	if opts.Progress != nil {
		opts.Progress(e)
	}
}

func (opts *Opts) debug(msg string, args ...any) {
	if opts.Logger != nil {
		opts.Logger.Debug(msg, opts.Logger.Args(args...))
	}
}

func (opts *Opts) pollOpts() *poll.Opts {
	if opts.Poll == nil {
		return poll.DefaultOpts()
	}
	return opts.Poll
}

func orDefault(opts *Opts) *Opts {
	if opts == nil {
		return DefaultOpts()
	}
	return opts
}
