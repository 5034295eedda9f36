package security

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TLSConfig configures a TLS client. The zero value means "use the
// platform defaults".
type TLSConfig struct {
	// CAFile verifies the server against a private CA instead of the system pool.
	CAFile string `yaml:"ca_file" mapstructure:"ca_file"`
	// CertFile and KeyFile present a client certificate.
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile  string `yaml:"key_file" mapstructure:"key_file"`
	// ServerName overrides the name checked against the server certificate.
	ServerName string `yaml:"server_name" mapstructure:"server_name"`
	// SkipVerify disables server verification. Only for local testing.
	SkipVerify bool `yaml:"skip_verify" mapstructure:"skip_verify"`
}

// IsEnabled reports whether any setting is present.
func (c TLSConfig) IsEnabled() bool {
	return c.SkipVerify || c.CAFile != "" || c.CertFile != "" || c.ServerName != ""
}

// Validate checks that a client certificate comes with its key.
func (c TLSConfig) Validate() error {
	if (c.CertFile != "") != (c.KeyFile != "") {
		return fmt.Errorf("tls: cert_file and key_file must be set together")
	}
	return nil
}

// Build returns the client configuration, or nil when nothing is set.
func (c TLSConfig) Build() (*tls.Config, error) {
	if !c.IsEnabled() {
		return nil, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         c.ServerName,
		InsecureSkipVerify: c.SkipVerify, //nolint:gosec // opt-in for local brokers
	}
	if c.CAFile != "" {
		pem, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, fmt.Errorf("tls: read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("tls: no certificates in %s", c.CAFile)
		}
		cfg.RootCAs = pool
	}
	if c.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("tls: load client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}
