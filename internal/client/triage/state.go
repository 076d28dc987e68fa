package triage

import (
	"sync"
	"time"

	"github.com/aligned-app/aligned/internal/client/models"
	"github.com/aligned-app/aligned/internal/client/normalize"
	"github.com/google/uuid"
)

// Snapshot is a deep copy of the state at one point in time.
type Snapshot struct {
	Recommendations []models.NormalizedUser
	Matches         []models.NormalizedUser
	Awaiting        []models.NormalizedUser
	Messages        []models.Message
	Notifications   []models.Notification
	Unread          bool
}

// Queue returns the users of q.
func (s Snapshot) Queue(q models.Queue) []models.NormalizedUser {
	switch q {
	case models.QueueMatches:
		return s.Matches
	case models.QueueAwaiting:
		return s.Awaiting
	}
	return s.Recommendations
}

// NotificationCount is the number shown on the notification badge: local
// messages plus server notifications.
func (s Snapshot) NotificationCount() int {
	return len(s.Messages) + len(s.Notifications)
}

type bucket struct {
	users map[string]models.NormalizedUser
	order []string
}

func newBucket() *bucket {
	return &bucket{users: make(map[string]models.NormalizedUser)}
}

func (b *bucket) put(u models.NormalizedUser) {
	if _, ok := b.users[u.UID]; !ok {
		b.order = append(b.order, u.UID)
	}
	b.users[u.UID] = u
}

func (b *bucket) remove(uid string) bool {
	if _, ok := b.users[uid]; !ok {
		return false
	}
	delete(b.users, uid)
	for i, id := range b.order {
		if id == uid {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return true
}

func (b *bucket) list() []models.NormalizedUser {
	out := make([]models.NormalizedUser, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.users[id].Clone())
	}
	return out
}

// State is the triage view state. It is safe for concurrent use.
type State struct {
	mu            sync.Mutex
	buckets       map[models.Queue]*bucket
	messages      []models.Message
	notifications []models.Notification
	unread        bool
	listeners     []func(Snapshot)
	now           func() time.Time
}

// NewState returns an empty State.
func NewState() *State {
	s := &State{now: time.Now}
	s.reset()
	return s
}

func (s *State) reset() {
	s.buckets = map[models.Queue]*bucket{
		models.QueueRecommendations: newBucket(),
		models.QueueMatches:         newBucket(),
		models.QueueAwaiting:        newBucket(),
	}
	s.messages = nil
	s.notifications = nil
	s.unread = false
}

// OnChange registers fn to be called with a fresh snapshot after every
// mutation. Listeners run outside the lock.
func (s *State) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// mutate runs fn under the lock and then notifies listeners.
func (s *State) mutate(fn func() bool) {
	s.mu.Lock()
	changed := fn()
	var snap Snapshot
	listeners := s.listeners
	if changed && len(listeners) > 0 {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, l := range listeners {
		l(snap)
	}
}

func (s *State) removeLocked(uid string) bool {
	removed := false
	for _, b := range s.buckets {
		if b.remove(uid) {
			removed = true
		}
	}
	return removed
}

// Route places u into the bucket named by tag, removing it from every other
// bucket first. It returns the bucket chosen and whether the tag was known.
func (s *State) Route(u models.NormalizedUser, tag string) (models.Queue, bool) {
	q, known := RouteFor(tag)
	s.mutate(func() bool {
		s.removeLocked(u.UID)
		s.buckets[q].put(u.Clone())
		return true
	})
	return q, known
}

// Remove drops uid from every bucket.
func (s *State) Remove(uid string) bool {
	var removed bool
	s.mutate(func() bool {
		removed = s.removeLocked(uid)
		return removed
	})
	return removed
}

// Prune drops every user of q whose uid is not in keep and returns the
// dropped uids.
func (s *State) Prune(q models.Queue, keep []string) []string {
	var dropped []string
	s.mutate(func() bool {
		b, ok := s.buckets[q]
		if !ok {
			return false
		}
		wanted := make(map[string]struct{}, len(keep))
		for _, uid := range keep {
			wanted[uid] = struct{}{}
		}
		for _, uid := range append([]string(nil), b.order...) {
			if _, ok := wanted[uid]; !ok {
				b.remove(uid)
				dropped = append(dropped, uid)
			}
		}
		return len(dropped) > 0
	})
	return dropped
}

// Locate reports which bucket holds uid.
func (s *State) Locate(uid string) (models.Queue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range models.Queues {
		if _, ok := s.buckets[q].users[uid]; ok {
			return q, true
		}
	}
	return "", false
}

// Get returns the user stored under uid in any bucket.
func (s *State) Get(uid string) (models.NormalizedUser, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range models.Queues {
		if u, ok := s.buckets[q].users[uid]; ok {
			return u.Clone(), true
		}
	}
	return models.NormalizedUser{}, false
}

// List returns the users of q in insertion order.
func (s *State) List(q models.Queue) []models.NormalizedUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[q]
	if !ok {
		return nil
	}
	return b.list()
}

// ApplyActionResult applies a successful align/skip answer for uid in one
// step: the subject leaves every bucket, the optional message is appended to
// the feed, and the subject is re-inserted when the answer names a queue.
// fallback supplies the profile when uid is not held by any bucket.
func (s *State) ApplyActionResult(uid string, res models.ActionResult, fallback models.NormalizedUser) (models.Queue, bool) {
	var (
		target models.Queue
		placed bool
	)
	s.mutate(func() bool {
		user, found := models.NormalizedUser{}, false
		for _, q := range models.Queues {
			if u, ok := s.buckets[q].users[uid]; ok {
				user, found = u, true
				break
			}
		}
		if !found {
			user = fallback
			user.UID = uid
		}
		if res.HasExpressedInterest != nil {
			user.HasExpressedInterest = *res.HasExpressedInterest
		}

		s.removeLocked(uid)

		if models.HasTag(res.Message) {
			s.addMessageLocked(res.Message, user.Name)
		}
		if models.HasTag(res.Queue) {
			target, _ = RouteFor(res.Queue)
			s.buckets[target].put(user)
			placed = true
		}
		return true
	})
	return target, placed
}

// AddMessage prepends a local message to the feed.
func (s *State) AddMessage(text, userName string) models.Message {
	var m models.Message
	s.mutate(func() bool {
		m = s.addMessageLocked(text, userName)
		return true
	})
	return m
}

func (s *State) addMessageLocked(text, userName string) models.Message {
	m := models.Message{
		ID:        uuid.NewString(),
		Text:      text,
		UserName:  userName,
		Timestamp: s.now(),
	}
	s.messages = append([]models.Message{m}, s.messages...)
	s.unread = true
	return m
}

// Messages returns the local feed, newest first.
func (s *State) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.messages...)
}

// SetNotifications replaces the server notifications. Duplicates by
// (message, updated) are dropped.
func (s *State) SetNotifications(list []models.Notification) {
	s.mutate(func() bool {
		s.notifications = normalize.DedupeNotifications(list)
		if len(s.notifications) > 0 {
			s.unread = true
		}
		return true
	})
}

// Notifications returns the server notifications.
func (s *State) Notifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification(nil), s.notifications...)
}

// MarkRead clears the unread indicator.
func (s *State) MarkRead() {
	s.mutate(func() bool {
		changed := s.unread
		s.unread = false
		return changed
	})
}

// Reset discards everything, as on logout.
func (s *State) Reset() {
	s.mutate(func() bool {
		s.reset()
		return true
	})
}

// Snapshot returns a deep copy of the whole state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() Snapshot {
	return Snapshot{
		Recommendations: s.buckets[models.QueueRecommendations].list(),
		Matches:         s.buckets[models.QueueMatches].list(),
		Awaiting:        s.buckets[models.QueueAwaiting].list(),
		Messages:        append([]models.Message(nil), s.messages...),
		Notifications:   append([]models.Notification(nil), s.notifications...),
		Unread:          s.unread,
	}
}
