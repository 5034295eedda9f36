package provider

import "context"

// Provider is a named backend that can report whether it is usable on this host.
type Provider interface {
	Name() string
	IsAvailable(ctx context.Context) bool
}

// Factory creates a provider instance from loosely typed configuration.
type Factory[T Provider] func(cfg map[string]any) (T, error)

// String reads a string option from a factory config, returning "" when absent.
func String(cfg map[string]any, key string) string {
	s, _ := cfg[key].(string)
	return s
}
