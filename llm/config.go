package llm

import (
	"fmt"
	"time"
)

// Config holds configuration for creating an LLM adapter.
// It is provider-agnostic; the Dialect field selects the provider mapping.
type Config struct {
	// Name identifies this adapter instance (e.g. "cleanup-llm").
	Name string `yaml:"name" mapstructure:"name"`

	// Dialect selects the provider mapping. Must match a registered dialect name.
	Dialect string `yaml:"dialect" mapstructure:"dialect"`

	// BaseURL is the provider's API base URL (e.g. "https://api.openai.com/v1").
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`

	// Model is the default model.
	Model string `yaml:"model" mapstructure:"model"`

	// Temperature is the default sampling temperature (0.0-1.0). Nil leaves
	// it to the provider.
	Temperature *float64 `yaml:"temperature" mapstructure:"temperature" validate:"omitempty,gte=0,lte=2"`

	// MaxTokens is the default maximum tokens for responses. 0 means provider default.
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens" validate:"gte=0"`

	// Timeout for HTTP requests. Zero waits indefinitely.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// APIKey is sent as a bearer token when set.
	APIKey string `yaml:"-" mapstructure:"-"`

	// Headers are additional HTTP headers sent with every request.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`
}

// applyDefaults sets default values for unset config fields.
func (c *Config) applyDefaults() {
	if c.Name == "" && c.Dialect != "" {
		c.Name = c.Dialect + "-llm"
	}
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("llm: base URL is required")
	}
	return nil
}
