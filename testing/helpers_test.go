package pondertest

import (
	"context"
	"errors"
	"testing"

	"github.com/zoobzio/ponder"
)

func TestMockGenerator(t *testing.T) {
	t.Run("scripted playback", func(t *testing.T) {
		gen := NewMockGenerator("first", "second")
		ctx := context.Background()

		out, err := gen.Generate(ctx, "p1", ponder.GenerationConfig{})
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if out != "first" {
			t.Errorf("expected 'first', got %q", out)
		}

		out, _ = gen.Generate(ctx, "p2", ponder.GenerationConfig{})
		if out != "second" {
			t.Errorf("expected 'second', got %q", out)
		}

		// Script exhausted: the last response repeats.
		out, _ = gen.Generate(ctx, "p3", ponder.GenerationConfig{})
		if out != "second" {
			t.Errorf("expected 'second' repeated, got %q", out)
		}
	})

	t.Run("records calls and prompts", func(t *testing.T) {
		gen := NewMockGenerator("r")
		_, _ = gen.Generate(context.Background(), "the prompt", ponder.GenerationConfig{})

		if gen.Calls() != 1 {
			t.Errorf("expected 1 call, got %d", gen.Calls())
		}
		prompts := gen.Prompts()
		if len(prompts) != 1 || prompts[0] != "the prompt" {
			t.Errorf("expected recorded prompt, got %v", prompts)
		}
	})

	t.Run("FailWith", func(t *testing.T) {
		cause := errors.New("scripted failure")
		gen := NewMockGenerator("unused").FailWith(cause)

		_, err := gen.Generate(context.Background(), "p", ponder.GenerationConfig{})
		if !errors.Is(err, cause) {
			t.Errorf("expected scripted failure, got %v", err)
		}
	})

	t.Run("default response", func(t *testing.T) {
		gen := NewMockGenerator()
		out, err := gen.Generate(context.Background(), "p", ponder.GenerationConfig{})
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if out == "" {
			t.Error("expected a non-empty default response")
		}
	})
}

func TestNewTestSession(t *testing.T) {
	s := NewTestSession(t, "one", "two", "three")

	RequireHistoryLength(t, s, 3)

	last, ok := s.LastThought()
	if !ok {
		t.Fatal("expected a last thought")
	}
	if last.Body != "three" {
		t.Errorf("expected body 'three', got %q", last.Body)
	}
}

func TestNewTestController(t *testing.T) {
	gen := NewMockGenerator("generated")
	ctrl := NewTestController(t, gen)

	resp, err := ctrl.Turn(context.Background(), ponder.TurnRequest{
		Query:        "test query",
		Index:        1,
		TotalPlanned: 1,
	})
	if err != nil {
		t.Fatalf("Turn failed: %v", err)
	}
	if resp.Body != "generated" {
		t.Errorf("expected generated body, got %q", resp.Body)
	}
	RequireHistoryLength(t, ctrl.Session(), 1)
}

func TestRequireBranch(t *testing.T) {
	s := NewTestSession(t, "root")
	branchFrom := 1
	_, err := s.Append(context.Background(), ponder.Thought{
		Query:        "test query",
		Body:         "side",
		Index:        2,
		TotalPlanned: 2,
		BranchFrom:   &branchFrom,
		BranchID:     "side-branch",
	})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// This should not fail.
	RequireBranch(t, s, "side-branch", 1)
}
