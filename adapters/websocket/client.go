package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/satriahrh/supportchat/domain"
)

// Client talks to the relay's websocket endpoint.
type Client struct {
	url    string
	dialer *websocket.Dialer
}

func NewClient(url string) *Client {
	return &Client{url: url, dialer: websocket.DefaultDialer}
}

func (c *Client) Stream(ctx context.Context, turns []domain.Turn) (domain.DeltaStream, error) {
	payload, err := json.Marshal(turns)
	if err != nil {
		return nil, fmt.Errorf("marshal turns: %w", err)
	}

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send turns: %w", err)
	}

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})

	s := &wsStream{conn: conn}
	s.mu.Lock()
	s.stop = context.AfterFunc(ctx, func() { s.Close() })
	s.mu.Unlock()
	return s, nil
}

// Complete drains the stream into a single reply.
func (c *Client) Complete(ctx context.Context, turns []domain.Turn) (string, error) {
	stream, err := c.Stream(ctx, turns)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var b strings.Builder
	for {
		delta, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return b.String(), nil
		}
		if err != nil {
			return "", err
		}
		b.WriteString(delta)
	}
}

type wsStream struct {
	conn *websocket.Conn
	stop func() bool

	mu     sync.Mutex
	closed bool
}

func (s *wsStream) Recv() (string, error) {
	for {
		kind, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return "", io.EOF
			}
			return "", fmt.Errorf("relay stream: %w", err)
		}
		if kind != websocket.TextMessage {
			continue
		}
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return string(msg), nil
	}
}

func (s *wsStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.stop != nil {
		s.stop()
	}
	return s.conn.Close()
}

var _ domain.Llm = (*Client)(nil)
