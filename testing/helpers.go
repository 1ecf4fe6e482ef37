// Package pondertest provides test utilities for ponder.
package pondertest

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/zoobzio/ponder"
)

// MockGenerator implements ponder.Generator without an LLM. Responses
// play back in order; the last one repeats once the script runs out.
type MockGenerator struct {
	mu        sync.Mutex
	responses []string
	failure   error
	calls     int
	prompts   []string
}

// NewMockGenerator creates a generator scripted with the given
// responses. With no responses it answers every call with a fixed
// placeholder.
func NewMockGenerator(responses ...string) *MockGenerator {
	return &MockGenerator{responses: responses}
}

// FailWith makes every subsequent call return err.
func (g *MockGenerator) FailWith(err error) *MockGenerator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failure = err
	return g
}

// Generate plays back the next scripted response.
func (g *MockGenerator) Generate(_ context.Context, prompt string, _ ponder.GenerationConfig) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.prompts = append(g.prompts, prompt)
	g.calls++
	if g.failure != nil {
		return "", g.failure
	}
	if len(g.responses) == 0 {
		return "mock reasoning", nil
	}
	i := g.calls - 1
	if i >= len(g.responses) {
		i = len(g.responses) - 1
	}
	return g.responses[i], nil
}

// Name identifies the mock in signals and errors.
func (g *MockGenerator) Name() string {
	return "mock"
}

// Calls returns how many times Generate ran.
func (g *MockGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// Prompts returns every prompt Generate received, in call order.
func (g *MockGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.prompts))
	copy(out, g.prompts)
	return out
}

// Verify MockGenerator implements ponder.Generator.
var _ ponder.Generator = (*MockGenerator)(nil)

// NewTestSession creates a session pre-filled with one plain thought
// per body.
func NewTestSession(t *testing.T, bodies ...string) *ponder.Session {
	t.Helper()
	s := ponder.NewSession()
	ctx := context.Background()
	for i, body := range bodies {
		_, err := s.Append(ctx, ponder.Thought{
			Query:        "test query",
			Body:         body,
			Index:        i + 1,
			TotalPlanned: len(bodies),
		})
		if err != nil {
			t.Fatalf("failed to seed test session: %v", err)
		}
	}
	return s
}

// NewTestController creates a controller over a fresh session with
// diagnostics discarded.
func NewTestController(t *testing.T, gen ponder.Generator) *ponder.Controller {
	t.Helper()
	c := ponder.NewController(ponder.NewSession()).WithDiagnostics(io.Discard)
	if gen != nil {
		c.WithGenerator(gen)
	}
	return c
}

// RequireHistoryLength asserts the session's history length.
func RequireHistoryLength(t *testing.T, s *ponder.Session, want int) {
	t.Helper()
	if got := s.Len(); got != want {
		t.Fatalf("expected history length %d, got %d", want, got)
	}
}

// RequireBranch asserts that the branch exists with the expected number
// of thoughts.
func RequireBranch(t *testing.T, s *ponder.Session, id string, wantLen int) {
	t.Helper()
	branch, ok := s.Branch(id)
	if !ok {
		t.Fatalf("expected branch %q, not found", id)
	}
	if len(branch) != wantLen {
		t.Fatalf("expected %d thoughts in branch %q, got %d", wantLen, id, len(branch))
	}
}
