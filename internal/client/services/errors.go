// Package services contains the application services of the Aligned client:
// authentication, feed ingestion, align/skip actions, notifications, the
// Destiny assistant, peer chat and profile editing.
//
// Services share one triage.State and one session.Store. Network failures are
// logged and returned; the triage state is only mutated by successful
// responses.
package services

import "errors"

var (
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrEmailTaken     = errors.New("email already registered")
	ErrValidation     = errors.New("invalid input")
	ErrNoConversation = errors.New("conversation unavailable")
)

// MaxImages is the number of photos a profile may hold.
const MaxImages = 5
