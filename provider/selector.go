package provider

import (
	"context"
	"errors"
)

// ErrNoneAvailable is returned when no candidate provider reports available.
var ErrNoneAvailable = errors.New("no available provider")

// Selector picks a provider from the available options.
type Selector[T Provider] interface {
	Select(ctx context.Context, providers map[string]T) (T, error)
}

// PrioritySelector returns the first available provider in Priority order.
type PrioritySelector[T Provider] struct {
	Priority []string
}

// Select implements Selector.
func (s *PrioritySelector[T]) Select(ctx context.Context, providers map[string]T) (T, error) {
	for _, name := range s.Priority {
		if p, ok := providers[name]; ok && p.IsAvailable(ctx) {
			return p, nil
		}
	}
	var zero T
	return zero, ErrNoneAvailable
}
