// Package llm abstracts the interchangeable language-model backends used by
// query planning and extraction. Prompt construction stays backend-agnostic;
// implementations isolate only auth and transport differences.
package llm

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
)

// Request is a batched context + prompt completion request.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature *float64
}

// Response carries the raw text plus an estimated dollar cost computed from
// provider-reported token counts.
type Response struct {
	Text    string
	Model   string
	CostUSD float64
}

// Backend is a single language-model provider.
type Backend interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Rate holds per-model token pricing (USD per million tokens).
type Rate struct {
	Input  float64
	Output float64
}

// Rates maps model IDs to pricing. Unknown models cost 0.
type Rates map[string]Rate

// Cost computes an estimated USD cost for a completion.
func (r Rates) Cost(model string, inputTokens, outputTokens int) float64 {
	rate, ok := r[model]
	if !ok {
		return 0
	}
	return (float64(inputTokens)/1e6)*rate.Input + (float64(outputTokens)/1e6)*rate.Output
}

// Config selects and configures a backend.
type Config struct {
	Provider        string // "openai", "azure", "anthropic"
	OpenAIKey       string
	OpenAIModel     string
	AzureKey        string
	AzureEndpoint   string
	AzureDeployment string
	AnthropicKey    string
	AnthropicModel  string
	MaxTokens       int
	Rates           Rates
}

// New builds the backend named by cfg.Provider.
func New(cfg Config) (Backend, error) {
	switch cfg.Provider {
	case "", "openai":
		if cfg.OpenAIKey == "" {
			return nil, eris.New("llm: openai key not configured")
		}
		return newOpenAI(cfg), nil
	case "azure":
		if cfg.AzureKey == "" || cfg.AzureEndpoint == "" {
			return nil, eris.New("llm: azure key or endpoint not configured")
		}
		return newAzure(cfg), nil
	case "anthropic":
		if cfg.AnthropicKey == "" {
			return nil, eris.New("llm: anthropic key not configured")
		}
		return newAnthropic(cfg), nil
	default:
		return nil, eris.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

// StripFences removes a wrapping Markdown code fence from model output.
// Some backends wrap JSON in ```json fences even when told not to.
func StripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag line ("json", "JSON", or empty).
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
