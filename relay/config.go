package relay

import (
	"fmt"
	"net"
	"time"
)

const (
	defaultShutdownDelay = 500 * time.Millisecond
	defaultMaxBodySize   = "256MB"
	defaultPageTitle     = "Dictation"
)

// Config configures the browser relay server.
type Config struct {
	// Host is the loopback address the relay binds; the port is always ephemeral.
	Host string `yaml:"host" mapstructure:"host" validate:"omitempty,ip"`
	// PageTitle is shown in the capture page's title bar and heading.
	PageTitle string `yaml:"page_title" mapstructure:"page_title"`
	// ShutdownDelay lets the browser receive the upload response before teardown.
	ShutdownDelay time.Duration `yaml:"shutdown_delay" mapstructure:"shutdown_delay"`
	MaxBodySize   string        `yaml:"max_body_size" mapstructure:"max_body_size"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.PageTitle == "" {
		c.PageTitle = defaultPageTitle
	}
	if c.ShutdownDelay <= 0 {
		c.ShutdownDelay = defaultShutdownDelay
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = defaultMaxBodySize
	}
}

// Validate rejects hosts that are not loopback addresses.
func (c *Config) Validate() error {
	ip := net.ParseIP(c.Host)
	if ip == nil || !ip.IsLoopback() {
		return fmt.Errorf("relay.host must be a loopback address (got: %q)", c.Host)
	}
	return nil
}
