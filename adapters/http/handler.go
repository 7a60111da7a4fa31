package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/supportchat/domain"
	"github.com/satriahrh/supportchat/utils/log"
)

// Relayer is the server-side view of the relay use case.
type Relayer interface {
	Stream(ctx context.Context, turns []domain.Turn) (domain.DeltaStream, error)
	Complete(ctx context.Context, turns []domain.Turn) (string, error)
}

type ChatHandler struct {
	relay    Relayer
	provider string
}

// CompletionResponse mirrors the upstream chat completion shape so the
// buffered path can be decoded the same way by every client.
type CompletionResponse struct {
	Choices []CompletionChoice `json:"choices"`
}

type CompletionChoice struct {
	Message domain.Turn `json:"message"`
}

func NewChatHandler(relay Relayer, provider string) *ChatHandler {
	return &ChatHandler{relay: relay, provider: provider}
}

// Chat relays a turn sequence upstream. The reply is streamed as raw
// UTF-8 chunks unless the caller asks for JSON.
func (h *ChatHandler) Chat(c echo.Context) error {
	ctx := requestContext(c)

	var turns []domain.Turn
	if err := json.NewDecoder(c.Request().Body).Decode(&turns); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := domain.ValidateTurns(turns); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	log.WithCtx(ctx).Debug("Relaying conversation", zap.Int("turns", len(turns)))

	if wantsJSON(c.Request()) {
		return h.complete(ctx, c, turns)
	}
	return h.stream(ctx, c, turns)
}

func (h *ChatHandler) complete(ctx context.Context, c echo.Context, turns []domain.Turn) error {
	reply, err := h.relay.Complete(ctx, turns)
	if err != nil {
		log.WithCtx(ctx).Error("Upstream completion failed", zap.Error(err))
		return c.String(http.StatusInternalServerError, "Error")
	}
	return c.JSON(http.StatusOK, CompletionResponse{
		Choices: []CompletionChoice{{Message: domain.Turn{Role: domain.AssistantRole, Content: reply}}},
	})
}

func (h *ChatHandler) stream(ctx context.Context, c echo.Context, turns []domain.Turn) error {
	stream, err := h.relay.Stream(ctx, turns)
	if err != nil {
		log.WithCtx(ctx).Error("Upstream call failed", zap.Error(err))
		return c.String(http.StatusInternalServerError, "Error")
	}
	defer stream.Close()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
	res.Header().Set("X-Content-Type-Options", "nosniff")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	written := 0
	for {
		delta, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			log.WithCtx(ctx).Debug("Upstream stream finished", zap.Int("bytes", written))
			return nil
		}
		if err != nil {
			log.WithCtx(ctx).Error("Upstream stream failed", zap.Error(err), zap.Int("bytes", written))
			// Abort the connection so the client sees a truncated body, not a clean end.
			panic(http.ErrAbortHandler)
		}
		if delta == "" {
			continue
		}
		n, err := io.WriteString(res, delta)
		written += n
		if err != nil {
			log.WithCtx(ctx).Warn("Client went away", zap.Error(err))
			return nil
		}
		res.Flush()
	}
}

// HealthCheck endpoint
func (h *ChatHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "support-chat-relay",
		"provider":  h.provider,
	})
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

func requestContext(c echo.Context) context.Context {
	id := c.Response().Header().Get(echo.HeaderXRequestID)
	if id == "" {
		id = c.Request().Header.Get(echo.HeaderXRequestID)
	}
	return log.WithRequestID(c.Request().Context(), id)
}
