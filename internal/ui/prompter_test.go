package ui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectWithoutOptions(t *testing.T) {
	_, err := NewTerminal().Select(context.Background(), "Pick an account", nil)
	assert.ErrorIs(t, err, ErrNoOptions)
}

func TestPromptsHonourCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	term := NewTerminal()

	_, err := term.Confirm(ctx, "Continue?", true)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = term.Select(ctx, "Pick", []string{"a", "b"})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = term.Input(ctx, "Seller id", "1")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = term.Secret(ctx, "Client secret")
	assert.ErrorIs(t, err, context.Canceled)
}
