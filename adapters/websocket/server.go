package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/satriahrh/supportchat/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 512 * 1024
)

// Streamer is the part of the relay use case the websocket endpoint needs.
type Streamer interface {
	Stream(ctx context.Context, turns []domain.Turn) (domain.DeltaStream, error)
}

type Server struct {
	upgrader websocket.Upgrader
	relay    Streamer
}

func NewServer(relay Streamer) *Server {
	return &Server{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		relay:    relay,
	}
}
