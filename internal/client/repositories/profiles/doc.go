// Package profiles caches normalized profiles together with the triage queue
// they were last seen in.
//
// The cache is best-effort: it is filled while online and read back when the
// backend is unreachable, so the CLI can still list the three queues.
//
//	repo := profiles.NewSQLiteRepository(db)
//	_ = repo.Upsert(ctx, models.CachedProfile{User: u, Queue: models.QueueMatches})
//	list, _ := repo.List(ctx, models.QueueMatches)
package profiles
