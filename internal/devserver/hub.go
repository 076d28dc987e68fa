package devserver

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/aligned-app/aligned/internal/client/messaging"
	"github.com/aligned-app/aligned/internal/logging"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Hub serves the messaging websocket. Every connection joins at most one
// conversation at a time; posted lines are broadcast to every connection in
// that conversation, the author included.
type Hub struct {
	store    *Store
	secret   []byte
	log      logging.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	rooms map[string]map[*peer]struct{}
}

type peer struct {
	uid  string
	conn *websocket.Conn
	conv string

	writeMu sync.Mutex
}

func (p *peer) write(f messaging.Frame) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteJSON(f)
}

func NewHub(store *Store, secret []byte, log logging.Logger) *Hub {
	return &Hub{
		store:  store,
		secret: secret,
		log:    log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		rooms: make(map[string]map[*peer]struct{}),
	}
}

// ServeWS authenticates a chat token and runs the connection until the
// client leaves.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	tok := bearer(r)
	if tok == "" {
		tok = r.URL.Query().Get("token")
	}
	uid, err := UserIDFromToken(tok, ScopeChat, h.secret)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	p := &peer{uid: uid, conn: conn}
	defer func() {
		h.leave(p)
		_ = conn.Close()
	}()

	ctx := r.Context()
	for {
		var f messaging.Frame
		if err := conn.ReadJSON(&f); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug(ctx, "websocket read ended", "uid", uid, "error", err)
			}
			return
		}
		if err := h.handle(ctx, p, f); err != nil {
			h.log.Debug(ctx, "websocket write failed", "uid", uid, "error", err)
			return
		}
	}
}

func (h *Hub) handle(ctx context.Context, p *peer, f messaging.Frame) error {
	switch f.Type {
	case messaging.FrameJoin:
		lines, err := h.store.History(f.Conversation, p.uid)
		if err != nil {
			return p.write(messaging.Frame{Type: messaging.FrameError, Error: err.Error()})
		}
		h.join(p, f.Conversation)
		return p.write(messaging.Frame{Type: messaging.FrameHistory, Conversation: f.Conversation, Lines: lines})

	case messaging.FrameSend:
		if p.conv == "" {
			return p.write(messaging.Frame{Type: messaging.FrameError, Error: "join a conversation first"})
		}
		line, err := h.store.Post(p.conv, p.uid, f.Body, f.Media)
		if err != nil {
			return p.write(messaging.Frame{Type: messaging.FrameError, Error: err.Error()})
		}
		h.broadcast(ctx, p.conv, messaging.Frame{Type: messaging.FrameMessage, Conversation: p.conv, Line: &line})
		return nil
	}
	return p.write(messaging.Frame{Type: messaging.FrameError, Error: "unknown frame type " + f.Type})
}

func (h *Hub) join(p *peer, conv string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(p)
	if h.rooms[conv] == nil {
		h.rooms[conv] = make(map[*peer]struct{})
	}
	h.rooms[conv][p] = struct{}{}
	p.conv = conv
}

func (h *Hub) leave(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(p)
}

func (h *Hub) leaveLocked(p *peer) {
	if p.conv == "" {
		return
	}
	room := h.rooms[p.conv]
	delete(room, p)
	if len(room) == 0 {
		delete(h.rooms, p.conv)
	}
	p.conv = ""
}

func (h *Hub) broadcast(ctx context.Context, conv string, f messaging.Frame) {
	h.mu.Lock()
	peers := make([]*peer, 0, len(h.rooms[conv]))
	for p := range h.rooms[conv] {
		peers = append(peers, p)
	}
	h.mu.Unlock()

	for _, p := range peers {
		if err := p.write(f); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			h.log.Debug(ctx, "broadcast failed", "uid", p.uid, "error", err)
		}
	}
}

// Members returns the number of connections joined to conv.
func (h *Hub) Members(conv string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[conv])
}
