package cmd

import (
	"os"

	"github.com/joescharf/worked/internal/config"
	"github.com/joescharf/worked/internal/llm"
)

// newLLMClient creates an LLM client from config/env, or returns nil if no API key is configured.
var newLLMClient = func(cfg config.Config) summarizer {
	apiKey := cfg.AnthropicAPIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil
	}
	return llm.NewClient(apiKey, cfg.AnthropicModel)
}
