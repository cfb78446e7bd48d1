// ABOUTME: Test harness for msstore commands backed by a scripted HTTP server
// ABOUTME: Serves the token endpoint plus DevCenter and Store API routes from canned replies
package cmdtest

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/gillisandrew/msstore-cli/internal/cmd"
	"github.com/gillisandrew/msstore-cli/internal/config"
	"github.com/gillisandrew/msstore-cli/internal/factory"
	"github.com/gillisandrew/msstore-cli/internal/mock"
	"github.com/gillisandrew/msstore-cli/internal/poll"
)

const (
	TenantID = "72f988bf-86f1-41af-91ab-2d7cd011db47"
	ClientID = "3f7a5a3e-9c1b-4a5e-8d4f-0a1b2c3d4e5f"
	SellerID = "12345678"
	Secret   = "s3cr3t-value-1234"
)

// Reply is one canned response
type Reply struct {
	Status int
	Body   string
}

// OK returns a 200 reply with a JSON body
func OK(body string) Reply {
	return Reply{Status: http.StatusOK, Body: body}
}

// Request is a request the server received
type Request struct {
	Method string
	Path   string
	Body   string
}

// Server answers "METHOD /path" routes with queued replies. The last reply of
// a route is repeated once the queue is drained; unknown routes get a 404.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string][]Reply
	requests []Request
}

// NewServer starts a server that is closed when the test ends
func NewServer(t *testing.T) *Server {
	t.Helper()
	s := &Server{routes: make(map[string][]Reply)}
	s.Handle("POST /token", OK(`{"access_token":"app-token","token_type":"Bearer","expires_in":3600}`))
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Handle queues replies for a route such as "GET /v1.0/my/applications/X"
func (s *Server) Handle(route string, replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[route] = append(s.routes[route], replies...)
}

// Requests returns the API requests received so far, without token requests
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, 0, len(s.requests))
	for _, r := range s.requests {
		if r.Path != "/token" {
			out = append(out, r)
		}
	}
	return out
}

// Routes returns "METHOD /path" for every API request, in order
func (s *Server) Routes() []string {
	reqs := s.Requests()
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.Method + " " + r.Path
	}
	return out
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	route := r.Method + " " + r.URL.Path

	s.mu.Lock()
	s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Body: string(body)})
	queue := s.routes[route]
	var reply Reply
	found := len(queue) > 0
	if found {
		reply = queue[0]
		if len(queue) > 1 {
			s.routes[route] = queue[1:]
		}
	}
	s.mu.Unlock()

	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.Status)
	_, _ = w.Write([]byte(reply.Body))
}

// Env is a command context wired to a Server
type Env struct {
	Server      *Server
	Context     *cmd.CommandContext
	Out         *bytes.Buffer
	Prompter    *mock.Prompter
	Credentials *mock.CredentialStore
	ConfigPath  string
}

// NewEnv writes a configured settings.json pointing at a fresh Server and
// returns a context that renders JSON into Out and polls without waiting
func NewEnv(t *testing.T) *Env {
	t.Helper()
	server := NewServer(t)
	configPath := filepath.Join(t.TempDir(), config.ConfigFileName)

	cfg := config.DefaultConfig()
	cfg.TenantID = TenantID
	cfg.ClientID = ClientID
	cfg.SellerID = SellerID
	cfg.DevCenterEndpoint = server.URL
	cfg.StoreAPIEndpoint = server.URL
	if err := config.SaveConfig(cfg, configPath); err != nil {
		t.Fatalf("failed to write settings: %v", err)
	}

	env := &Env{
		Server:      server,
		Out:         &bytes.Buffer{},
		Prompter:    &mock.Prompter{},
		Credentials: mock.NewCredentialStore(map[string]string{ClientID: Secret}),
		ConfigPath:  configPath,
	}
	env.Context = &cmd.CommandContext{
		ConfigPath:  configPath,
		Output:      "json",
		Logger:      pterm.DefaultLogger.WithWriter(io.Discard),
		Prompter:    env.Prompter,
		Credentials: env.Credentials,
		Out:         env.Out,
		PollOpts: poll.DefaultOpts().WithInterval(time.Millisecond).WithSleep(func(ctx context.Context, d time.Duration) error {
			return ctx.Err()
		}),
		FactoryOpts: factory.DefaultOpts().
			WithTokenURL(server.URL + "/token").
			WithCorrelationID("test-correlation").
			WithConfigManager(config.NewConfigManager(config.DefaultConfigOpts().WithConfigPath(configPath).WithEnv(false))),
	}
	return env
}

// Run executes command with args
func Run(command *cobra.Command, args ...string) error {
	command.SetArgs(args)
	command.SetOut(io.Discard)
	command.SetErr(io.Discard)
	command.SilenceUsage = true
	command.SilenceErrors = true
	return command.ExecuteContext(context.Background())
}
