package ponder

import (
	"context"
	"errors"
	"testing"

	"github.com/zoobzio/zyn"
)

// fakeProvider records zyn calls and plays back a scripted response.
type fakeProvider struct {
	name     string
	response string
	err      error
	messages [][]zyn.Message
	temps    []float32
}

func (p *fakeProvider) Call(_ context.Context, messages []zyn.Message, temperature float32) (*zyn.ProviderResponse, error) {
	p.messages = append(p.messages, messages)
	p.temps = append(p.temps, temperature)
	if p.err != nil {
		return nil, p.err
	}
	return &zyn.ProviderResponse{Content: p.response}, nil
}

func (p *fakeProvider) Name() string {
	return p.name
}

func TestResolveGeneratorPrecedence(t *testing.T) {
	explicit := &mockGenerator{name: "explicit"}
	inContext := &mockGenerator{name: "context"}
	global := &mockGenerator{name: "global"}

	prev := GetGenerator()
	defer SetGenerator(prev)
	SetGenerator(global)

	ctx := WithGenerator(context.Background(), inContext)

	tests := []struct {
		name     string
		ctx      context.Context
		explicit Generator
		want     string
	}{
		{"explicit wins over all", ctx, explicit, "explicit"},
		{"context wins over global", ctx, nil, "context"},
		{"global is the fallback", context.Background(), nil, "global"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveGenerator(tt.ctx, tt.explicit)
			if err != nil {
				t.Fatalf("ResolveGenerator() error = %v", err)
			}
			if got.Name() != tt.want {
				t.Errorf("resolved %q, want %q", got.Name(), tt.want)
			}
		})
	}
}

func TestResolveGeneratorNone(t *testing.T) {
	prev := GetGenerator()
	defer SetGenerator(prev)
	SetGenerator(nil)

	_, err := ResolveGenerator(context.Background(), nil)
	if !errors.Is(err, ErrNoGenerator) {
		t.Errorf("ResolveGenerator() error = %v, want ErrNoGenerator", err)
	}
}

func TestZynGeneratorSendsSingleUserMessage(t *testing.T) {
	provider := &fakeProvider{name: "fake", response: "the reasoning"}
	gen := NewZynGenerator(provider)

	out, err := gen.Generate(context.Background(), "the prompt", GenerationConfig{Temperature: 0.4})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out != "the reasoning" {
		t.Errorf("Generate() = %q", out)
	}
	if gen.Name() != "fake" {
		t.Errorf("Name() = %q, want provider name", gen.Name())
	}

	if len(provider.messages) != 1 {
		t.Fatalf("provider called %d times, want 1", len(provider.messages))
	}
	msgs := provider.messages[0]
	if len(msgs) != 1 {
		t.Fatalf("call carried %d messages, want 1", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[0].Content != "the prompt" {
		t.Errorf("message = %+v", msgs[0])
	}
	if provider.temps[0] != 0.4 {
		t.Errorf("temperature = %v, want 0.4", provider.temps[0])
	}
}

func TestZynGeneratorWrapsFailure(t *testing.T) {
	cause := errors.New("rate limited")
	gen := NewZynGenerator(&fakeProvider{name: "flaky", err: cause})

	_, err := gen.Generate(context.Background(), "p", GenerationConfig{})
	var gErr *GeneratorError
	if !errors.As(err, &gErr) {
		t.Fatalf("Generate() error = %v, want *GeneratorError", err)
	}
	if gErr.Generator != "flaky" {
		t.Errorf("Generator = %q, want %q", gErr.Generator, "flaky")
	}
	if !errors.Is(err, cause) {
		t.Error("GeneratorError must unwrap to the provider failure")
	}
}
