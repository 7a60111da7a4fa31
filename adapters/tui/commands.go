package tui

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/satriahrh/supportchat/domain"
	"github.com/satriahrh/supportchat/usecase"
)

// streamOpenedMsg carries the upstream stream for the pending turn.
type streamOpenedMsg struct {
	index  int
	stream domain.DeltaStream
}

// deltaMsg delivers one non-empty fragment in arrival order.
type deltaMsg struct {
	index int
	text  string
}

type streamDoneMsg struct {
	index int
}

type replyMsg struct {
	index   int
	content string
}

type failedMsg struct {
	index int
	err   error
}

func openStream(ctx context.Context, backend domain.Llm, ex usecase.Exchange) tea.Cmd {
	return func() tea.Msg {
		stream, err := backend.Stream(ctx, ex.Payload)
		if err != nil {
			return failedMsg{index: ex.Index, err: err}
		}
		return streamOpenedMsg{index: ex.Index, stream: stream}
	}
}

// recvDelta waits for the next fragment; empty fragments are skipped.
func recvDelta(stream domain.DeltaStream, index int) tea.Cmd {
	return func() tea.Msg {
		for {
			text, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return streamDoneMsg{index: index}
			}
			if err != nil {
				return failedMsg{index: index, err: err}
			}
			if text != "" {
				return deltaMsg{index: index, text: text}
			}
		}
	}
}

func complete(ctx context.Context, backend domain.Llm, ex usecase.Exchange) tea.Cmd {
	return func() tea.Msg {
		content, err := backend.Complete(ctx, ex.Payload)
		if err != nil {
			return failedMsg{index: ex.Index, err: err}
		}
		return replyMsg{index: ex.Index, content: content}
	}
}
