package models

import "time"

// Notification is a server-supplied notice.
type Notification struct {
	ID      string `mapstructure:"id" json:"id,omitempty"`
	Message string `mapstructure:"message" json:"message"`
	Updated string `mapstructure:"updated" json:"updated"`
}

// Key identifies a notification for de-duplication.
func (n Notification) Key() string {
	if n.ID != "" {
		return n.ID
	}
	return n.Message + "-" + n.Updated
}

// Message is a locally generated, session-only feed entry.
type Message struct {
	ID        string
	Text      string
	UserName  string
	Timestamp time.Time
}

// LoginResult is the decoded authentication response.
type LoginResult struct {
	UID           string
	Token         string
	Message       string
	Profile       RawRecord
	Cards         []RawRecord
	Notifications []RawRecord
}

// DestinyReply is one answer of the scripted assistant.
type DestinyReply struct {
	Message   string `json:"message"`
	Completed bool   `json:"completed"`
}

// ChatLine is one message of a peer conversation.
type ChatLine struct {
	ID     string    `json:"id,omitempty"`
	Author string    `json:"author"`
	Body   string    `json:"body"`
	Media  string    `json:"media,omitempty"`
	Sent   time.Time `json:"sent"`
}
