package openai

import "time"

const (
	// DefaultRemoteURL is the hosted transcription endpoint.
	DefaultRemoteURL = "https://api.openai.com/v1/audio/transcriptions"
	// DefaultSelfHostedURL is used when settings leave the self-hosted URL blank.
	DefaultSelfHostedURL = "http://localhost:8000/v1/audio/transcriptions"
	// DefaultModel is sent as the multipart "model" field.
	DefaultModel = "whisper-1"
)

// Config holds the endpoints and model shared by both provider variants.
type Config struct {
	RemoteURL     string `yaml:"remote_url" mapstructure:"remote_url" validate:"omitempty,url"`
	SelfHostedURL string `yaml:"self_hosted_url" mapstructure:"self_hosted_url" validate:"omitempty,url"`
	Model         string `yaml:"model" mapstructure:"model"`
	// Timeout bounds each upload. Zero waits indefinitely.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.RemoteURL == "" {
		c.RemoteURL = DefaultRemoteURL
	}
	if c.SelfHostedURL == "" {
		c.SelfHostedURL = DefaultSelfHostedURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
}
