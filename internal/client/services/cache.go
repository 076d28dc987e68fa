package services

import (
	"context"
	"database/sql"

	"github.com/aligned-app/aligned/internal/client/models"
	"github.com/aligned-app/aligned/internal/client/repositories/profiles"
)

// ProfileCache is the best-effort store of fetched profiles used while the
// backend is unreachable.
type ProfileCache interface {
	profiles.Repository
	// SaveAll writes a batch of profiles atomically.
	SaveAll(ctx context.Context, list []models.CachedProfile) error
}

type sqliteProfileCache struct {
	*profiles.SQLiteRepository
	db *sql.DB
}

// NewProfileCache returns a ProfileCache backed by the sqlite cache database.
func NewProfileCache(db *sql.DB) ProfileCache {
	return &sqliteProfileCache{SQLiteRepository: profiles.NewSQLiteRepository(db), db: db}
}

func (c *sqliteProfileCache) SaveAll(ctx context.Context, list []models.CachedProfile) error {
	if len(list) == 0 {
		return nil
	}
	return profiles.UpsertMany(ctx, c.db, list)
}
