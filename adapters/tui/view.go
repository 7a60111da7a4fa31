package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/satriahrh/supportchat/domain"
)

var (
	userBubble = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#007BFF")).
			Padding(0, 1)

	assistantBubble = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#333333")).
			Background(lipgloss.Color("#F1F1F1")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.conv.InFlight() {
		b.WriteString(m.spinner.View() + " waiting for reply")
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter send • alt+enter newline • esc quit"))
	return b.String()
}

func (m Model) renderTurns() string {
	turns := m.conv.Turns()
	width := bubbleWidth(m.width)

	blocks := make([]string, 0, len(turns))
	for i, t := range turns {
		switch t.Role {
		case domain.UserRole:
			bubble := userBubble.MaxWidth(width).Render(wrap(t.Content, width-2))
			blocks = append(blocks, lipgloss.PlaceHorizontal(m.width, lipgloss.Right, bubble))
		case domain.AssistantRole:
			content := m.renderAssistant(t.Content)
			if content == "" && m.conv.InFlight() && i == len(turns)-1 {
				content = m.spinner.View()
			}
			blocks = append(blocks, assistantBubble.MaxWidth(width).Render(content))
		}
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderAssistant(content string) string {
	width := bubbleWidth(m.width)
	if m.renderer == nil || content == "" {
		return wrap(content, width-2)
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return wrap(content, width-2)
	}
	return strings.Trim(out, "\n")
}

// bubbleWidth keeps a bubble at three quarters of the screen.
func bubbleWidth(screen int) int {
	return max(10, screen*3/4)
}

func wrap(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().Width(max(1, width)).Render(s)
}
