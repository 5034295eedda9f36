package httpclient

import (
	"fmt"
	"time"

	"github.com/kbukum/dictation/version"
)

// Config configures the HTTP client.
type Config struct {
	// BaseURL is prepended to relative request paths.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds each request. Zero means no timeout; cancellation is
	// left to the caller's context.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Auth is applied to every request unless the request overrides it.
	Auth *AuthConfig `yaml:"-" mapstructure:"-"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.UserAgent == "" {
		c.UserAgent = version.UserAgent()
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("httpclient: timeout must not be negative")
	}
	return nil
}
