package main

import (
	"context"
	"errors"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/satriahrh/supportchat/adapters/http"
	"github.com/satriahrh/supportchat/adapters/llm"
	"github.com/satriahrh/supportchat/adapters/websocket"
	"github.com/satriahrh/supportchat/config"
	"github.com/satriahrh/supportchat/domain"
	"github.com/satriahrh/supportchat/usecase"
	"github.com/satriahrh/supportchat/utils/log"
)

func main() {
	cfg := config.Load()
	if err := log.Configure(cfg.Debug); err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.With(zap.Error(err)).Fatal("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	upstream, err := newUpstream(ctx, cfg)
	if err != nil {
		log.With(zap.Error(err)).Fatal("Failed to create upstream client")
	}
	svc := usecase.NewRelayService(upstream)

	chatHandler := http.NewChatHandler(svc, cfg.Provider)
	wsServer := websocket.NewServer(svc)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.OPTIONS},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderXRequestID,
		},
		MaxAge: 86400,
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	api := e.Group("/api")
	api.GET("/health", chatHandler.HealthCheck)
	api.POST("/chat", chatHandler.Chat)

	e.GET("/ws/chat", wsServer.Handler)

	go func() {
		log.With(
			zap.String("port", cfg.Port),
			zap.String("provider", cfg.Provider),
			zap.String("model", cfg.Model),
		).Info("Starting relay server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.With(zap.Error(err)).Fatal("Server stopped")
		}
	}()

	<-ctx.Done()
	log.With().Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.With(zap.Error(err)).Error("Graceful shutdown failed")
	}
}

func newUpstream(ctx context.Context, cfg *config.Config) (domain.Llm, error) {
	if cfg.Provider == config.ProviderGemini {
		return llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.Model)
	}
	return llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})
}

// requestLogger reports each finished request through zap.
func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger := log.With(
				zap.String("request_id", v.RequestID),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			if v.Error != nil {
				logger.Error("Request failed", zap.Error(v.Error))
				return nil
			}
			logger.Info("Request handled")
			return nil
		},
	})
}
