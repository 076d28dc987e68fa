package models

import (
	"fmt"
	"strings"
)

// Queue names one of the three mutually exclusive triage buckets.
type Queue string

const (
	QueueRecommendations Queue = "recommendations"
	QueueMatches         Queue = "matches"
	QueueAwaiting        Queue = "awaiting"
)

// Queues lists the buckets in display order.
var Queues = []Queue{QueueRecommendations, QueueMatches, QueueAwaiting}

// ParseQueue accepts a bucket name as typed by a user ("matches", "Awaiting", ...).
func ParseQueue(s string) (Queue, error) {
	switch Queue(strings.ToLower(strings.TrimSpace(s))) {
	case QueueRecommendations, "recs", "recommendation":
		return QueueRecommendations, nil
	case QueueMatches, "match", "matched":
		return QueueMatches, nil
	case QueueAwaiting, "pending":
		return QueueAwaiting, nil
	}
	return "", fmt.Errorf("unknown queue %q", s)
}

// Tag returns the server tag that routes into q.
func (q Queue) Tag() string {
	switch q {
	case QueueMatches:
		return TagMatched
	case QueueAwaiting:
		return TagAwaiting
	}
	return TagRecommendations
}

// Server-side queue tags.
const (
	TagRecommendations = "RECOMMENDATIONS"
	TagMatched         = "MATCHED"
	TagAwaiting        = "AWAITING"
	TagNone            = "None"
)

// RecommendationCard is the lightweight record that precedes a profile fetch.
type RecommendationCard struct {
	SubjectID            string   `mapstructure:"recommendation_uid"`
	Score                *float64 `mapstructure:"score"`
	Queue                string   `mapstructure:"queue"`
	HasExpressedInterest bool     `mapstructure:"user_align"`
}

// ActionKind is a user's decision about a candidate.
type ActionKind string

const (
	ActionAlign ActionKind = "align"
	ActionSkip  ActionKind = "skip"
)

// StatusOK is the status value of a successful action response.
const StatusOK = "OK"

// ActionResult is the backend answer to an align/skip request.
type ActionResult struct {
	Status               string
	Queue                string
	Message              string
	HasExpressedInterest *bool
}

// OK reports whether the backend accepted the action.
func (r ActionResult) OK() bool {
	return strings.EqualFold(strings.TrimSpace(r.Status), StatusOK)
}

// HasTag reports whether s carries a real queue tag (not empty, not "None").
func HasTag(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && !strings.EqualFold(s, TagNone)
}
