// ABOUTME: Shared mock implementations for testing across all packages
// ABOUTME: Centralizes test doubles to avoid duplication and improve test maintainability
package mock

import (
	"context"
	"errors"
	"sync"
)

// TokenProvider returns a fixed token or error and counts calls
type TokenProvider struct {
	token string
	err   error

	mu    sync.Mutex
	calls int
}

// NewTokenProvider creates a mock token provider; an empty token becomes "mock-token"
func NewTokenProvider(token string, err error) *TokenProvider {
	if token == "" {
		token = "mock-token"
	}
	return &TokenProvider{token: token, err: err}
}

// Token implements transport.TokenProvider
func (m *TokenProvider) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.err != nil {
		return "", m.err
	}
	return m.token, nil
}

// Calls returns how many tokens were requested
func (m *TokenProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// CredentialStore keeps secrets in memory
type CredentialStore struct {
	secrets map[string]string

	// Err, when set, is returned by every operation
	Err error
}

// NewCredentialStore creates an in-memory store pre-populated with secrets
func NewCredentialStore(secrets map[string]string) *CredentialStore {
	s := &CredentialStore{secrets: make(map[string]string)}
	for k, v := range secrets {
		s.secrets[k] = v
	}
	return s
}

func (s *CredentialStore) ReadCredential(key string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return s.secrets[key], nil
}

func (s *CredentialStore) WriteCredential(key, secret string) error {
	if s.Err != nil {
		return s.Err
	}
	s.secrets[key] = secret
	return nil
}

func (s *CredentialStore) ClearCredentials(key string) error {
	if s.Err != nil {
		return s.Err
	}
	delete(s.secrets, key)
	return nil
}

// ErrScriptExhausted is returned by Prompter when no scripted answer is left
var ErrScriptExhausted = errors.New("mock: no scripted answer left")

// Prompter replays scripted answers and records the questions asked
type Prompter struct {
	Confirms []bool
	Selects  []int
	Inputs   []string
	Secrets  []string

	Questions []string
}

func (p *Prompter) Confirm(ctx context.Context, question string, defaultYes bool) (bool, error) {
	p.Questions = append(p.Questions, question)
	if len(p.Confirms) == 0 {
		return false, ErrScriptExhausted
	}
	answer := p.Confirms[0]
	p.Confirms = p.Confirms[1:]
	return answer, nil
}

func (p *Prompter) Select(ctx context.Context, question string, options []string) (int, error) {
	p.Questions = append(p.Questions, question)
	if len(p.Selects) == 0 {
		return -1, ErrScriptExhausted
	}
	answer := p.Selects[0]
	p.Selects = p.Selects[1:]
	return answer, nil
}

func (p *Prompter) Input(ctx context.Context, question, def string) (string, error) {
	p.Questions = append(p.Questions, question)
	if len(p.Inputs) == 0 {
		return "", ErrScriptExhausted
	}
	answer := p.Inputs[0]
	p.Inputs = p.Inputs[1:]
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

func (p *Prompter) Secret(ctx context.Context, question string) (string, error) {
	p.Questions = append(p.Questions, question)
	if len(p.Secrets) == 0 {
		return "", ErrScriptExhausted
	}
	answer := p.Secrets[0]
	p.Secrets = p.Secrets[1:]
	return answer, nil
}
