package websocket

import (
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/supportchat/domain"
	"github.com/satriahrh/supportchat/utils/log"
)

// Handler serves one exchange per connection: the client sends the turn
// sequence as a single text frame, the server answers with one text frame
// per delta and closes. Failures close with 1011.
func (s *Server) Handler(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx := log.WithRequestID(c.Request().Context(), c.Response().Header().Get(echo.HeaderXRequestID))
	logger := log.WithCtx(ctx)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))

	_, payload, err := conn.ReadMessage()
	if err != nil {
		logger.Debug("No conversation received", zap.Error(err))
		return nil
	}

	var turns []domain.Turn
	if err := json.Unmarshal(payload, &turns); err != nil {
		closeWith(conn, websocket.CloseUnsupportedData, "Invalid request body")
		return nil
	}
	if err := domain.ValidateTurns(turns); err != nil {
		closeWith(conn, websocket.CloseUnsupportedData, err.Error())
		return nil
	}

	stream, err := s.relay.Stream(ctx, turns)
	if err != nil {
		logger.Error("Upstream call failed", zap.Error(err))
		closeWith(conn, websocket.CloseInternalServerErr, "Error")
		return nil
	}
	defer stream.Close()

	stopPing := make(chan struct{})
	defer close(stopPing)
	go ping(conn, stopPing, logger)

	for {
		delta, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			closeWith(conn, websocket.CloseNormalClosure, "")
			return nil
		}
		if err != nil {
			logger.Error("Upstream stream failed", zap.Error(err))
			closeWith(conn, websocket.CloseInternalServerErr, "Error")
			return nil
		}
		if delta == "" {
			continue
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(delta)); err != nil {
			logger.Warn("Failed to write delta", zap.Error(err))
			return nil
		}
	}
}

func ping(conn *websocket.Conn, stop <-chan struct{}, logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				logger.Debug("Failed to send ping", zap.Error(err))
				return
			}
		case <-stop:
			return
		}
	}
}

func closeWith(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
