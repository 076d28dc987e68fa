package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aligned-app/aligned/internal/client/client"
	"github.com/aligned-app/aligned/internal/client/messaging"
	"github.com/aligned-app/aligned/internal/client/session"
	"github.com/aligned-app/aligned/internal/logging"
)

// tokenSkew is how long before its expiry a chat token is replaced.
const tokenSkew = 30 * time.Second

// ChatService opens peer conversations.
type ChatService interface {
	Open(ctx context.Context, peerUID string) (messaging.Conversation, error)
}

type chatService struct {
	client  client.Client
	session *session.Store
	dialer  messaging.Dialer
	log     logging.Logger
	now     func() time.Time

	mu       sync.Mutex
	token    string
	tokenUID string
}

func NewChatService(c client.Client, sess *session.Store, dialer messaging.Dialer, log logging.Logger) ChatService {
	return &chatService{client: c, session: sess, dialer: dialer, log: log, now: time.Now}
}

// chatToken returns the messaging token cached for uid, asking for a new one
// when there is none, it belongs to another user or it is about to expire.
func (s *chatService) chatToken(ctx context.Context, uid string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokenUID != uid {
		s.token, s.tokenUID = "", ""
	}
	if s.token != "" && !client.TokenExpired(s.token, s.now(), tokenSkew) {
		return s.token, nil
	}
	if s.token != "" {
		s.log.Debug(ctx, "chat token expired, refreshing")
	}

	tok, err := s.client.ChatToken(ctx, uid)
	if err != nil {
		return "", err
	}
	s.token, s.tokenUID = tok, uid
	return tok, nil
}

func (s *chatService) Open(ctx context.Context, peerUID string) (messaging.Conversation, error) {
	uid := s.session.UID()
	if uid == "" {
		return nil, ErrNotLoggedIn
	}
	peerUID = strings.TrimSpace(peerUID)
	if peerUID == "" || peerUID == uid {
		return nil, fmt.Errorf("%w: invalid peer", ErrValidation)
	}

	tok, err := s.chatToken(ctx, uid)
	if err != nil {
		s.log.Warn(ctx, "chat token request failed", "error", err)
		return nil, fmt.Errorf("chat token: %w", err)
	}

	id, err := s.client.Conversation(ctx, uid, peerUID)
	if err != nil {
		s.log.Warn(ctx, "conversation lookup failed", "peer", peerUID, "error", err)
		if errors.Is(err, client.ErrRejected) || errors.Is(err, client.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrNoConversation, err)
		}
		return nil, err
	}

	conv, err := s.dialer.Dial(ctx, tok, id)
	if err != nil {
		s.log.Error(ctx, "messaging connection failed", "conversation", id, "error", err)
		return nil, fmt.Errorf("dial conversation: %w", err)
	}
	return conv, nil
}
