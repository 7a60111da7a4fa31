// Package tui is the terminal chat widget. It owns one usecase.Conversation
// and drives it from the Bubble Tea event loop.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/satriahrh/supportchat/domain"
	"github.com/satriahrh/supportchat/usecase"
	"github.com/satriahrh/supportchat/utils/log"
)

type Mode int

const (
	// Streamed appends deltas to the placeholder as they arrive.
	Streamed Mode = iota
	// Buffered waits for the full reply.
	Buffered
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	inputHeight   = 3
)

type Options struct {
	Mode Mode
	// Markdown renders assistant turns through glamour.
	Markdown bool
	// Style is a glamour standard style name; empty picks one from the terminal.
	Style string
}

type Model struct {
	ctx     context.Context
	conv    *usecase.Conversation
	backend domain.Llm
	opts    Options

	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	stream domain.DeltaStream
	width  int
	height int
}

func NewModel(ctx context.Context, backend domain.Llm, opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask your question..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.SetWidth(defaultWidth)
	// Enter submits; Alt+Enter is handled in Update.
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)

	m := Model{
		ctx:      ctx,
		conv:     usecase.NewConversation(usecase.Greeting),
		backend:  backend,
		opts:     opts,
		input:    ta,
		viewport: viewport.New(defaultWidth, defaultHeight-inputHeight-2),
		spinner:  sp,
		width:    defaultWidth,
		height:   defaultHeight,
	}
	m.renderer = m.newRenderer()
	m.refresh()
	return m
}

// Conversation exposes the store for inspection.
func (m Model) Conversation() *usecase.Conversation { return m.conv }

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			if m.stream != nil {
				m.stream.Close()
			}
			return m, tea.Quit
		case "alt+enter":
			m.input.InsertString("\n")
			return m, nil
		case "enter":
			return m.submit()
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case spinner.TickMsg:
		if !m.conv.InFlight() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd

	case streamOpenedMsg:
		m.stream = msg.stream
		return m, recvDelta(msg.stream, msg.index)

	case deltaMsg:
		if err := m.conv.AppendDelta(msg.index, msg.text); err != nil {
			return m, nil
		}
		m.refresh()
		return m, recvDelta(m.stream, msg.index)

	case streamDoneMsg:
		m.closeStream()
		if err := m.conv.Finish(msg.index); err == nil {
			m.refresh()
		}
		return m, nil

	case replyMsg:
		if err := m.conv.ApplyReply(msg.index, msg.content); err == nil {
			m.refresh()
		}
		return m, nil

	case failedMsg:
		log.With(zap.Int("turn", msg.index)).Error("Exchange failed", zap.Error(msg.err))
		m.closeStream()
		if err := m.conv.Fail(msg.index); err == nil {
			m.refresh()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	ex, err := m.conv.Submit(m.input.Value())
	if err != nil {
		// Blank input or an exchange already running: nothing to do.
		return m, nil
	}
	m.input.Reset()
	m.refresh()

	var send tea.Cmd
	if m.opts.Mode == Buffered {
		send = complete(m.ctx, m.backend, ex)
	} else {
		send = openStream(m.ctx, m.backend, ex)
	}
	return m, tea.Batch(m.spinner.Tick, send)
}

func (m *Model) closeStream() {
	if m.stream != nil {
		m.stream.Close()
		m.stream = nil
	}
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.input.SetWidth(width)
	m.viewport.Width = width
	m.viewport.Height = max(1, height-inputHeight-2)
	m.renderer = m.newRenderer()
	m.refresh()
}

// refresh re-renders the transcript and scrolls to the latest turn.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTurns())
	m.viewport.GotoBottom()
}

func (m Model) newRenderer() *glamour.TermRenderer {
	if !m.opts.Markdown {
		return nil
	}
	style := glamour.WithAutoStyle()
	if m.opts.Style != "" {
		style = glamour.WithStandardStyle(m.opts.Style)
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(bubbleWidth(m.width)-4))
	if err != nil {
		log.With(zap.Error(err)).Warn("Markdown renderer unavailable")
		return nil
	}
	return r
}
