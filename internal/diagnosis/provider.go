// Package diagnosis sends the assembled prompt to an LLM provider and
// returns the Markdown diagnosis. Two providers are supported: the
// Anthropic Messages API and any OpenAI-compatible chat completions
// endpoint. Responses are not streamed; a run waits for the full
// diagnosis and renders it once.
package diagnosis

import (
	"context"
	"fmt"
	"os"

	"github.com/cloudsleuth/cloudsleuth/internal/config"
)

// Environment variables that override the configured API key.
const (
	anthropicKeyEnv = "ANTHROPIC_API_KEY"
	openAIKeyEnv    = "OPENAI_API_KEY"
)

// Provider produces a diagnosis from a system prompt and the assembled
// data prompt.
type Provider interface {
	// Diagnose blocks until the provider answers or ctx ends. Failures
	// are reported as *Error.
	Diagnose(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Name identifies the provider ("anthropic", "openai").
	Name() string

	// Model reports the configured model identifier.
	Model() string
}

// Error wraps a failed diagnosis request with its provider name. The
// assembled prompt stays printable when Diagnose fails; callers rely on
// that to avoid losing a run's gathered data.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s diagnosis failed: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds the configured provider. The provider's environment
// variable wins over the api_key in the config file, so keys can stay
// out of committed configs.
func New(cfg config.DiagnosisConfig) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return newAnthropicProvider(resolveKey(anthropicKeyEnv, cfg.APIKey), cfg.Model, cfg.MaxTokens)
	case config.ProviderOpenAI:
		return newOpenAIProvider(resolveKey(openAIKeyEnv, cfg.APIKey), cfg.Model, cfg.MaxTokens, cfg.BaseURL)
	default:
		return nil, config.NewConfigError(fmt.Sprintf("unknown diagnosis provider %q", cfg.Provider))
	}
}

func resolveKey(envVar, configured string) string {
	if key := os.Getenv(envVar); key != "" {
		return key
	}
	return configured
}
