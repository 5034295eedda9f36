package mqtt

import (
	"time"

	"github.com/kbukum/dictation/security"
	"github.com/kbukum/dictation/validation"
)

const (
	DefaultTopic          = "dictation/transcripts"
	DefaultClientID       = "dictation"
	DefaultConnectTimeout = 10 * time.Second
	DefaultPublishTimeout = 5 * time.Second
	DefaultConnectRetries = 3
	DefaultMaxFailures    = 3
	DefaultCooldown       = time.Minute
)

// Config configures transcript publishing. Topic may contain "{job_id}".
type Config struct {
	Enabled        bool          `mapstructure:"enabled"`
	Broker         string        `mapstructure:"broker" validate:"omitempty,url"`
	ClientID       string        `mapstructure:"client_id"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	Topic          string        `mapstructure:"topic"`
	QoS            byte          `mapstructure:"qos" validate:"lte=2"`
	Retained       bool          `mapstructure:"retained"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
	// ConnectRetries is the number of connect attempts.
	ConnectRetries int `mapstructure:"connect_retries" validate:"gte=0"`
	// MaxFailures consecutive publish failures pause publishing for Cooldown.
	MaxFailures int           `mapstructure:"max_failures" validate:"gte=0"`
	Cooldown    time.Duration `mapstructure:"cooldown"`
	// TLS is used for ssl:// and tls:// brokers.
	TLS security.TLSConfig `mapstructure:"tls"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.ClientID == "" {
		c.ClientID = DefaultClientID
	}
	if c.Topic == "" {
		c.Topic = DefaultTopic
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = DefaultPublishTimeout
	}
	if c.ConnectRetries <= 0 {
		c.ConnectRetries = DefaultConnectRetries
	}
	if c.MaxFailures <= 0 {
		c.MaxFailures = DefaultMaxFailures
	}
	if c.Cooldown <= 0 {
		c.Cooldown = DefaultCooldown
	}
}

// Validate checks a configuration about to be used for connecting.
func (c *Config) Validate() error {
	if err := validation.New().Required("broker", c.Broker).Validate(); err != nil {
		return err
	}
	if err := c.TLS.Validate(); err != nil {
		return err
	}
	return validation.Validate(c)
}
