// Package triage holds the client's view state: three mutually exclusive
// queues of candidates plus the local message feed and server notifications.
//
// A subject id is present in at most one queue at any time. Every mutation
// that moves a subject removes it from all queues first, under the same lock.
package triage

import (
	"strings"

	"github.com/aligned-app/aligned/internal/client/models"
)

// RouteFor maps a server queue tag to a bucket. MATCHED and AWAITING are
// matched case-insensitively; every other tag, including "None", empty and
// unknown values, maps to recommendations. known is false for tags that were
// defaulted.
func RouteFor(tag string) (q models.Queue, known bool) {
	switch strings.ToUpper(strings.TrimSpace(tag)) {
	case models.TagMatched:
		return models.QueueMatches, true
	case models.TagAwaiting:
		return models.QueueAwaiting, true
	case models.TagRecommendations:
		return models.QueueRecommendations, true
	}
	return models.QueueRecommendations, false
}
