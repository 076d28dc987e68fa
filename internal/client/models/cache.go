package models

import "time"

// CachedProfile is a normalized profile kept in the local cache so the
// triage queues can be shown while the backend is unreachable.
type CachedProfile struct {
	User      NormalizedUser
	Queue     Queue
	FetchedAt time.Time
}
