package storage

import "context"

// Keys of the persisted values.
const (
	StateKey     = "financialData"
	OnboardedKey = "hasOnboarded"
)

// KV is the opaque key/value store the gateway persists into.
type KV interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
