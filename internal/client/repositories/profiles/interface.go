package profiles

import (
	"context"

	"github.com/aligned-app/aligned/internal/client/models"
)

// Repository stores cached profiles keyed by UID.
type Repository interface {
	// Upsert inserts or replaces the profile of p.User.UID.
	Upsert(ctx context.Context, p models.CachedProfile) error

	// Get returns (nil, nil) when uid is not cached.
	Get(ctx context.Context, uid string) (*models.CachedProfile, error)

	// List returns the profiles cached for q, or all of them when q is empty.
	List(ctx context.Context, q models.Queue) ([]models.CachedProfile, error)

	// SetQueue moves a cached profile to q. An empty q keeps the profile but
	// detaches it from every queue.
	SetQueue(ctx context.Context, uid string, q models.Queue) error

	Delete(ctx context.Context, uid string) error
	Clear(ctx context.Context) error
}
