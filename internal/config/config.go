// Package config reads process configuration from the environment. Policy
// values all have defaults; only the deployment-specific settings are
// required.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// ParamPrefix is the SSM parameter tree holding the provider API token
	// and optional prompt-policy overrides.
	ParamPrefix string `env:"PARAM_PREFIX,required,notEmpty"`

	// UploadsTable is the DynamoDB table for upload manifests.
	UploadsTable string `env:"UPLOADS_TABLE,required,notEmpty"`

	// ModelCandidates is the completion model fallback list in attempt order.
	ModelCandidates []string `env:"MODEL_CANDIDATES" envSeparator:"," envDefault:"gpt-4o,gpt-3.5-turbo"`

	// WindowSize bounds how many trailing conversation messages go to the
	// provider.
	WindowSize int `env:"WINDOW_SIZE" envDefault:"6"`

	// MaxFileExcerpt caps the combined uploaded-file excerpt, in runes.
	MaxFileExcerpt int `env:"MAX_FILE_EXCERPT" envDefault:"3000"`

	// Completion sampling parameters.
	Temperature float64 `env:"TEMPERATURE" envDefault:"0.5"`
	MaxTokens   int     `env:"MAX_TOKENS" envDefault:"300"`

	// ProviderBackoffMs is the wait between a transient model failure and
	// the next candidate attempt.
	ProviderBackoffMs int `env:"PROVIDER_BACKOFF_MS" envDefault:"1000"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
