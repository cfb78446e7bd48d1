// ABOUTME: Fixed-interval status poller for Store submissions
// ABOUTME: Produces a lazy sequence of snapshots that ends at the first terminal state
package poll

import (
	"context"
	"iter"
	"time"
)

// DefaultInterval is the delay between two status requests
const DefaultInterval = 30 * time.Second

// State is the classification of one status snapshot
type State int

const (
	// StatePolling means the remote operation is still running
	StatePolling State = iota

	// StateSucceeded means the remote operation finished successfully
	StateSucceeded

	// StateFailed means the remote operation reported a failure
	StateFailed

	// StateError means the status call itself did not produce a usable answer
	StateError
)

func (s State) String() string {
	switch s {
	case StatePolling:
		return "Polling"
	case StateSucceeded:
		return "Succeeded"
	case StateFailed:
		return "Failed"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further polling follows this state
func (s State) Terminal() bool {
	return s != StatePolling
}

// Snapshot is one observed status together with its classification
type Snapshot[T any] struct {
	Tick   int
	State  State
	Status T
	At     time.Time
}

// FetchFunc performs one status request
type FetchFunc[T any] func(ctx context.Context) (T, error)

// ClassifyFunc maps a status to a poll state
type ClassifyFunc[T any] func(status T) State

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Opts configures polling behavior
type Opts struct {
	// Delay between requests (default: 30s)
	Interval time.Duration

	// Wait one interval before the first request as well
	WaitFirst bool

	// Replaceable wait, used by tests
	Sleep SleepFunc

	// Replaceable clock for snapshot timestamps
	Now func() time.Time
}

// DefaultOpts returns options with the default interval that wait before the first tick
func DefaultOpts() *Opts {
	return &Opts{
		Interval:  DefaultInterval,
		WaitFirst: true,
	}
}

// WithInterval sets the delay between requests
func (opts *Opts) WithInterval(d time.Duration) *Opts {
	opts.Interval = d
	return opts
}

// WithWaitFirst controls whether the first request is delayed too
func (opts *Opts) WithWaitFirst(wait bool) *Opts {
	opts.WaitFirst = wait
	return opts
}

// WithSleep replaces the wait implementation
func (opts *Opts) WithSleep(sleep SleepFunc) *Opts {
	opts.Sleep = sleep
	return opts
}

// Sleep waits for d, returning ctx.Err() if ctx ends first
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Poll returns a sequence of status snapshots. Each range over the sequence
// starts polling from scratch. The sequence ends after the first terminal
// snapshot, after the first fetch error, or when ctx is cancelled; errors are
// yielded once as the second value with a zero snapshot.
func Poll[T any](ctx context.Context, fetch FetchFunc[T], classify ClassifyFunc[T], opts *Opts) iter.Seq2[Snapshot[T], error] {
	if opts == nil {
		opts = DefaultOpts()
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	waitFirst := opts.WaitFirst

	return func(yield func(Snapshot[T], error) bool) {
		for tick := 1; ; tick++ {
			if tick > 1 || waitFirst {
				if err := sleep(ctx, interval); err != nil {
					yield(Snapshot[T]{}, err)
					return
				}
			}

			status, err := fetch(ctx)
			if err != nil {
				yield(Snapshot[T]{}, err)
				return
			}

			snap := Snapshot[T]{
				Tick:   tick,
				State:  classify(status),
				Status: status,
				At:     now(),
			}
			if !yield(snap, nil) || snap.State.Terminal() {
				return
			}
		}
	}
}

// Wait drains a poll sequence, calling onTick for every snapshot, and returns
// the terminal snapshot.
func Wait[T any](seq iter.Seq2[Snapshot[T], error], onTick func(Snapshot[T])) (Snapshot[T], error) {
	var last Snapshot[T]
	for snap, err := range seq {
		if err != nil {
			return last, err
		}
		last = snap
		if onTick != nil {
			onTick(snap)
		}
	}
	return last, nil
}
