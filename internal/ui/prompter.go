// ABOUTME: Interactive terminal prompts used by account selection and reconfigure
// ABOUTME: Backed by pterm interactive printers; a scripted fake lives in internal/mock
package ui

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/pterm/pterm"
)

// ErrNoOptions is returned by Select when there is nothing to choose from
var ErrNoOptions = errors.New("ui: no options to select from")

// Prompter asks the user for input
type Prompter interface {
	// Confirm asks a yes/no question
	Confirm(ctx context.Context, question string, defaultYes bool) (bool, error)

	// Select asks the user to pick one option and returns its index
	Select(ctx context.Context, question string, options []string) (int, error)

	// Input asks for free text, prefilled with def
	Input(ctx context.Context, question, def string) (string, error)

	// Secret asks for masked text
	Secret(ctx context.Context, question string) (string, error)
}

// Terminal prompts on the controlling terminal
type Terminal struct{}

// NewTerminal returns a pterm-backed Prompter
func NewTerminal() *Terminal {
	return &Terminal{}
}

func (Terminal) Confirm(ctx context.Context, question string, defaultYes bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return pterm.DefaultInteractiveConfirm.WithDefaultValue(defaultYes).Show(question)
}

func (Terminal) Select(ctx context.Context, question string, options []string) (int, error) {
	if len(options) == 0 {
		return -1, ErrNoOptions
	}
	if err := ctx.Err(); err != nil {
		return -1, err
	}

	choice, err := pterm.DefaultInteractiveSelect.
		WithOptions(options).
		WithDefaultText(question).
		Show()
	if err != nil {
		return -1, err
	}

	idx := slices.Index(options, choice)
	if idx < 0 {
		return -1, fmt.Errorf("ui: unexpected selection %q", choice)
	}
	return idx, nil
}

func (Terminal) Input(ctx context.Context, question, def string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return pterm.DefaultInteractiveTextInput.WithDefaultValue(def).Show(question)
}

func (Terminal) Secret(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return pterm.DefaultInteractiveTextInput.WithMask("*").Show(question)
}
