package ponder

import (
	"context"
	"errors"
	"sync"

	"github.com/zoobzio/zyn"
)

// GenerationConfig carries sampling settings for generator calls.
// Temperature is passed per call; zyn providers fix the remaining
// settings at construction, so TopP, TopK, and MaxTokens exist for
// generators whose backends accept them per request.
type GenerationConfig struct {
	Temperature float32
	TopP        float32
	TopK        int
	MaxTokens   int
}

// Generator produces the body of a thought from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error)
	Name() string
}

// generatorKeyType is the context key for generator injection.
type generatorKeyType struct{}

var generatorKey = generatorKeyType{}

// Global generator state.
var (
	globalGenerator   Generator
	globalGeneratorMu sync.RWMutex
)

// ErrNoGenerator is returned when generator resolution finds nothing at
// any level.
var ErrNoGenerator = errors.New("no generator configured: set via context, controller-level, or global")

// SetGenerator configures the global generator used when neither the
// controller nor the context supplies one.
func SetGenerator(g Generator) {
	globalGeneratorMu.Lock()
	defer globalGeneratorMu.Unlock()
	globalGenerator = g
}

// GetGenerator returns the current global generator, or nil.
func GetGenerator() Generator {
	globalGeneratorMu.RLock()
	defer globalGeneratorMu.RUnlock()
	return globalGenerator
}

// WithGenerator returns a context carrying g, overriding the global
// generator for operations under that context.
func WithGenerator(ctx context.Context, g Generator) context.Context {
	return context.WithValue(ctx, generatorKey, g)
}

// GeneratorFromContext extracts a generator injected with
// [WithGenerator].
func GeneratorFromContext(ctx context.Context) (Generator, bool) {
	g, ok := ctx.Value(generatorKey).(Generator)
	return g, ok
}

// ResolveGenerator picks the generator for a call: the explicit one
// wins, then the context, then the global. Returns [ErrNoGenerator]
// when all three are empty.
func ResolveGenerator(ctx context.Context, explicit Generator) (Generator, error) {
	if explicit != nil {
		return explicit, nil
	}
	if g, ok := GeneratorFromContext(ctx); ok && g != nil {
		return g, nil
	}
	if g := GetGenerator(); g != nil {
		return g, nil
	}
	return nil, ErrNoGenerator
}

// ZynProvider is the slice of zyn's provider surface a generator needs.
type ZynProvider interface {
	Call(ctx context.Context, messages []zyn.Message, temperature float32) (*zyn.ProviderResponse, error)
	Name() string
}

// ZynGenerator adapts a zyn provider to the [Generator] interface. The
// prompt is sent as a single user message and the raw response content
// is returned untouched.
type ZynGenerator struct {
	provider ZynProvider
}

// NewZynGenerator wraps a zyn provider.
func NewZynGenerator(provider ZynProvider) *ZynGenerator {
	return &ZynGenerator{provider: provider}
}

// Generate sends the prompt and returns the response content. Failures
// are wrapped in a *GeneratorError naming the provider.
func (g *ZynGenerator) Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	messages := []zyn.Message{
		{Role: "user", Content: prompt},
	}
	resp, err := g.provider.Call(ctx, messages, cfg.Temperature)
	if err != nil {
		return "", &GeneratorError{Generator: g.Name(), Err: err}
	}
	return resp.Content, nil
}

// Name returns the underlying provider's name.
func (g *ZynGenerator) Name() string {
	return g.provider.Name()
}

var _ Generator = (*ZynGenerator)(nil)
