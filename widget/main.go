package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satriahrh/supportchat/adapters/llm"
	"github.com/satriahrh/supportchat/adapters/relay"
	"github.com/satriahrh/supportchat/adapters/tui"
	"github.com/satriahrh/supportchat/adapters/websocket"
	"github.com/satriahrh/supportchat/config"
	"github.com/satriahrh/supportchat/domain"
	"github.com/satriahrh/supportchat/usecase"
	"github.com/satriahrh/supportchat/utils/log"
)

const (
	modeStream   = "stream"
	modeBuffered = "buffered"
	modeDirect   = "direct"
	modeWS       = "ws"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "widget",
		Short: "Terminal support chat widget",
		Long:  "Chat with the Headstarter support assistant through the relay server, or straight against an OpenAI-compatible upstream.",
		RunE: func(cmd *cobra.Command, args []string) error {
			relayURL, _ := cmd.Flags().GetString("relay-url")
			mode, _ := cmd.Flags().GetString("mode")
			model, _ := cmd.Flags().GetString("model")
			logFile, _ := cmd.Flags().GetString("log-file")
			markdown, _ := cmd.Flags().GetBool("markdown")
			debug, _ := cmd.Flags().GetBool("debug")

			if err := log.Configure(debug, logFile); err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}
			defer log.Sync()

			backend, tuiMode, err := newBackend(mode, relayURL, model)
			if err != nil {
				return err
			}

			log.With(
				zap.String("session_id", uuid.NewString()),
				zap.String("mode", mode),
			).Info("Widget started")

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			m := tui.NewModel(ctx, backend, tui.Options{Mode: tuiMode, Markdown: markdown})
			if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
				return fmt.Errorf("run widget: %w", err)
			}
			return nil
		},
	}

	rootCmd.Flags().String("relay-url", "http://localhost:8080/api/chat", "Relay chat endpoint (ws://.../ws/chat in ws mode)")
	rootCmd.Flags().String("mode", modeStream, "Transport: stream, buffered, direct or ws")
	rootCmd.Flags().String("model", "", "Model override for direct mode")
	rootCmd.Flags().String("log-file", "supportchat-widget.log", "File receiving widget logs")
	rootCmd.Flags().Bool("markdown", true, "Render assistant replies as markdown")
	rootCmd.Flags().Bool("debug", false, "Verbose logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newBackend(mode, relayURL, model string) (domain.Llm, tui.Mode, error) {
	switch mode {
	case modeStream:
		return relay.NewClient(relayURL), tui.Streamed, nil
	case modeBuffered:
		return relay.NewClient(relayURL), tui.Buffered, nil
	case modeWS:
		return websocket.NewClient(relayURL), tui.Streamed, nil
	case modeDirect:
		// Same prompt handling as the relay, but in-process.
		cfg := config.LoadDirect()
		if model != "" {
			cfg.Model = model
		}
		if err := cfg.Validate(); err != nil {
			return nil, 0, err
		}
		upstream, err := llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
		if err != nil {
			return nil, 0, err
		}
		return usecase.NewRelayService(upstream), tui.Buffered, nil
	default:
		return nil, 0, fmt.Errorf("unknown mode %q", mode)
	}
}
