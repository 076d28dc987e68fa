package metadata

import (
	"context"
)

// Repository persists named session values. Get returns (nil, nil) for a
// name that was never set.
type Repository interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Set(ctx context.Context, name string, value []byte) error
	Delete(ctx context.Context, names ...string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
