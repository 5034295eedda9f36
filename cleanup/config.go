package cleanup

import "time"

const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.3
)

// Config configures the cleanup client.
type Config struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`
	// Model is used when the caller passes none.
	Model string `yaml:"model" mapstructure:"model"`
	// Temperature defaults to DefaultTemperature when unset; 0 is honoured.
	Temperature *float64 `yaml:"temperature" mapstructure:"temperature" validate:"omitempty,gte=0,lte=2"`
	// Timeout bounds each request. Zero waits indefinitely.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Temperature == nil {
		t := DefaultTemperature
		c.Temperature = &t
	}
}
