// Package messaging is the real-time transport of peer conversations.
//
// A conversation is joined with a short-lived chat token and a conversation
// id obtained from the backend. The wire format is one JSON Frame per
// websocket message:
//
//	client -> server  {"type":"join","conversation":"CH1"}
//	server -> client  {"type":"history","lines":[...]}
//	client -> server  {"type":"send","body":"hi"}
//	server -> client  {"type":"message","line":{...}}   (to every member)
//	server -> client  {"type":"error","error":"..."}
package messaging

import (
	"context"
	"errors"

	"github.com/aligned-app/aligned/internal/client/models"
)

// Frame types.
const (
	FrameJoin    = "join"
	FrameHistory = "history"
	FrameSend    = "send"
	FrameMessage = "message"
	FrameError   = "error"
)

var ErrClosed = errors.New("conversation closed")

// Frame is one websocket message in either direction.
type Frame struct {
	Type         string            `json:"type"`
	Conversation string            `json:"conversation,omitempty"`
	Body         string            `json:"body,omitempty"`
	Media        string            `json:"media,omitempty"`
	Line         *models.ChatLine  `json:"line,omitempty"`
	Lines        []models.ChatLine `json:"lines,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// Conversation is an open peer conversation.
type Conversation interface {
	ID() string
	// History blocks until the server delivered the backlog.
	History(ctx context.Context) ([]models.ChatLine, error)
	Send(ctx context.Context, body string) error
	// Events yields lines posted after joining. It is closed when the
	// conversation ends.
	Events() <-chan models.ChatLine
	Close() error
}

// Dialer opens conversations.
type Dialer interface {
	Dial(ctx context.Context, token, conversationID string) (Conversation, error)
}
