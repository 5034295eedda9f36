// Package security builds client TLS settings for outbound connections
// such as the MQTT broker.
//
//	cfg := security.TLSConfig{CAFile: "/etc/dictation/ca.pem"}
//	tlsConfig, err := cfg.Build()
package security
