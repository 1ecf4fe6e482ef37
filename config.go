package ponder

import "github.com/zoobzio/zyn"

// Default configuration for ponder sessions.
// These can be overridden per-controller using builder methods.
var (
	// DefaultGeneration governs generator calls when a controller is not
	// given its own settings. Analytical temperature suits step-by-step
	// reasoning; the sampling and length fields mirror what zyn providers
	// are typically constructed with.
	DefaultGeneration = GenerationConfig{
		Temperature: zyn.DefaultTemperatureAnalytical,
		TopP:        0.95,
		TopK:        40,
		MaxTokens:   4096,
	}
)

const (
	// DefaultTopSections is how many document sections the sieve keeps
	// when no limit is configured.
	DefaultTopSections = 10

	// DefaultMaxKeywords caps keyword extraction when no limit is given.
	DefaultMaxKeywords = 10

	// FormatVersion marks the serialized session layout. Snapshots carry
	// it so future layouts can be told apart.
	FormatVersion = "1.0"
)
