package messaging

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/aligned-app/aligned/internal/client/models"
	"github.com/aligned-app/aligned/internal/logging"
	"github.com/gorilla/websocket"
)

const (
	writeWait   = 10 * time.Second
	eventBuffer = 64
)

// WSDialer dials conversations over gorilla/websocket.
type WSDialer struct {
	URL    string
	Log    logging.Logger
	Dialer *websocket.Dialer
}

func NewWSDialer(url string, log logging.Logger) *WSDialer {
	return &WSDialer{URL: url, Log: log, Dialer: websocket.DefaultDialer}
}

func (d *WSDialer) Dial(ctx context.Context, token, conversationID string) (Conversation, error) {
	if d.URL == "" {
		return nil, errors.New("messaging url not configured")
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := d.Dialer.DialContext(ctx, d.URL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial messaging: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("dial messaging: %w", err)
	}

	c := &wsConversation{
		id:          conversationID,
		conn:        conn,
		log:         d.Log.With("conversation", conversationID),
		events:      make(chan models.ChatLine, eventBuffer),
		historyDone: make(chan struct{}),
		readDone:    make(chan struct{}),
		closing:     make(chan struct{}),
	}

	if err := c.write(Frame{Type: FrameJoin, Conversation: conversationID}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("join conversation: %w", err)
	}

	go c.readLoop()
	return c, nil
}

type wsConversation struct {
	id   string
	conn *websocket.Conn
	log  logging.Logger

	writeMu sync.Mutex

	mu          sync.Mutex
	history     []models.ChatLine
	historyErr  error
	historyDone chan struct{}
	historyOnce sync.Once

	events    chan models.ChatLine
	readDone  chan struct{}
	closing   chan struct{}
	closeOnce sync.Once
}

func (c *wsConversation) ID() string { return c.id }

func (c *wsConversation) Events() <-chan models.ChatLine { return c.events }

func (c *wsConversation) History(ctx context.Context) ([]models.ChatLine, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.historyDone:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.ChatLine(nil), c.history...), c.historyErr
}

func (c *wsConversation) Send(ctx context.Context, body string) error {
	select {
	case <-c.readDone:
		return ErrClosed
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.write(Frame{Type: FrameSend, Conversation: c.id, Body: body})
}

func (c *wsConversation) write(f Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(f)
}

func (c *wsConversation) finishHistory(lines []models.ChatLine, err error) {
	c.historyOnce.Do(func() {
		c.mu.Lock()
		c.history = lines
		c.historyErr = err
		c.mu.Unlock()
		close(c.historyDone)
	})
}

func (c *wsConversation) readLoop() {
	defer close(c.readDone)
	defer close(c.events)
	defer c.finishHistory(nil, ErrClosed)

	for {
		var f Frame
		if err := c.conn.ReadJSON(&f); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
				!errors.Is(err, net.ErrClosed) {
				c.log.Debug(context.Background(), "messaging read ended", "error", err)
			}
			return
		}

		switch f.Type {
		case FrameHistory:
			c.finishHistory(f.Lines, nil)
		case FrameMessage:
			if f.Line == nil {
				continue
			}
			select {
			case c.events <- *f.Line:
			case <-c.closing:
				return
			}
		case FrameError:
			c.log.Warn(context.Background(), "messaging error frame", "error", f.Error)
			c.finishHistory(nil, errors.New(f.Error))
		default:
			c.log.Debug(context.Background(), "unknown frame", "type", f.Type)
		}
	}
}

// Close leaves the conversation and waits for the reader to stop.
func (c *wsConversation) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closing)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		c.writeMu.Unlock()
		err = c.conn.Close()
		<-c.readDone
	})
	return err
}
