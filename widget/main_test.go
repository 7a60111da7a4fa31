package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/supportchat/adapters/relay"
	"github.com/satriahrh/supportchat/adapters/tui"
	"github.com/satriahrh/supportchat/adapters/websocket"
	"github.com/satriahrh/supportchat/config"
	"github.com/satriahrh/supportchat/usecase"
)

func TestNewBackendModes(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-test")

	tests := []struct {
		mode     string
		wantMode tui.Mode
		check    func(t *testing.T, backend any)
	}{
		{modeStream, tui.Streamed, func(t *testing.T, b any) { assert.IsType(t, &relay.Client{}, b) }},
		{modeBuffered, tui.Buffered, func(t *testing.T, b any) { assert.IsType(t, &relay.Client{}, b) }},
		{modeWS, tui.Streamed, func(t *testing.T, b any) { assert.IsType(t, &websocket.Client{}, b) }},
		{modeDirect, tui.Buffered, func(t *testing.T, b any) { assert.IsType(t, &usecase.RelayService{}, b) }},
	}
	for _, tc := range tests {
		t.Run(tc.mode, func(t *testing.T) {
			backend, mode, err := newBackend(tc.mode, "http://localhost:8080/api/chat", "")
			require.NoError(t, err)
			assert.Equal(t, tc.wantMode, mode)
			tc.check(t, backend)
		})
	}
}

func TestNewBackendDirectNeedsKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")

	_, _, err := newBackend(modeDirect, "", "")
	assert.ErrorIs(t, err, config.ErrMissingCredential)
}

func TestNewBackendUnknownMode(t *testing.T) {
	_, _, err := newBackend("carrier-pigeon", "", "")
	assert.Error(t, err)
}
