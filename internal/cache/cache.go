// Package cache stores serialized explain responses keyed by a hash of
// everything that affects the model's answer. A cache failure is never a
// request failure: providers log and degrade to a miss.
package cache

import "context"

// Provider is a key-value store for serialized responses. Get returns
// (nil, nil) on a miss.
type Provider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Noop is a Provider that stores nothing. Used when caching is disabled
// and in tests.
type Noop struct{}

func (Noop) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, nil
}

func (Noop) Put(ctx context.Context, key string, value []byte) error {
	return nil
}
