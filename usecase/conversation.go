package usecase

import (
	"errors"
	"strings"

	"github.com/satriahrh/supportchat/domain"
)

const (
	// Greeting is the synthetic assistant turn a new conversation starts with.
	Greeting = "Hi! I'm the Headstarter support assistant. How can I help you today?"
	// FallbackReply replaces the placeholder when an exchange fails.
	FallbackReply = "I encountered an issue. Please try again later."
)

var (
	ErrEmptyInput = errors.New("input is empty")
	ErrInFlight   = errors.New("an exchange is already in flight")
	ErrStaleTurn  = errors.New("turn is not the pending placeholder")
)

// Exchange describes one submitted round trip.
type Exchange struct {
	// Index of the placeholder assistant turn in the conversation.
	Index int
	// Payload is the history to send upstream: every turn up to and
	// including the new user turn, without the synthetic greeting.
	Payload []domain.Turn
}

// Conversation is the client-side Conversation Store. It is owned by a
// single UI loop and is not safe for concurrent use.
type Conversation struct {
	turns    []domain.Turn
	greeted  bool
	pending  int
	inFlight bool
}

func NewConversation(greeting string) *Conversation {
	c := &Conversation{pending: -1}
	if greeting != "" {
		c.turns = append(c.turns, domain.Turn{Role: domain.AssistantRole, Content: greeting})
		c.greeted = true
	}
	return c
}

// Submit appends the user turn and an empty assistant placeholder.
// Blank input and submissions while in flight are rejected without
// touching the conversation.
func (c *Conversation) Submit(text string) (Exchange, error) {
	if strings.TrimSpace(text) == "" {
		return Exchange{}, ErrEmptyInput
	}
	if c.inFlight {
		return Exchange{}, ErrInFlight
	}

	c.turns = append(c.turns,
		domain.Turn{Role: domain.UserRole, Content: text},
		domain.Turn{Role: domain.AssistantRole},
	)
	c.pending = len(c.turns) - 1
	c.inFlight = true

	start := 0
	if c.greeted {
		start = 1
	}
	payload := make([]domain.Turn, c.pending-start)
	copy(payload, c.turns[start:c.pending])

	return Exchange{Index: c.pending, Payload: payload}, nil
}

// ApplyReply sets the buffered reply and ends the exchange.
func (c *Conversation) ApplyReply(idx int, content string) error {
	if err := c.checkPending(idx); err != nil {
		return err
	}
	c.turns[idx].Content = content
	c.finish()
	return nil
}

// AppendDelta extends the placeholder with a streamed fragment.
func (c *Conversation) AppendDelta(idx int, chunk string) error {
	if err := c.checkPending(idx); err != nil {
		return err
	}
	c.turns[idx].Content += chunk
	return nil
}

// Finish ends a streamed exchange.
func (c *Conversation) Finish(idx int) error {
	if err := c.checkPending(idx); err != nil {
		return err
	}
	c.finish()
	return nil
}

// Fail ends the exchange. The fallback message replaces the placeholder
// only while it is still empty; partially streamed content is kept.
func (c *Conversation) Fail(idx int) error {
	if err := c.checkPending(idx); err != nil {
		return err
	}
	if c.turns[idx].Content == "" {
		c.turns[idx].Content = FallbackReply
	}
	c.finish()
	return nil
}

func (c *Conversation) InFlight() bool { return c.inFlight }

func (c *Conversation) Len() int { return len(c.turns) }

// Turns returns a copy in display order.
func (c *Conversation) Turns() []domain.Turn {
	out := make([]domain.Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

func (c *Conversation) checkPending(idx int) error {
	if !c.inFlight || idx != c.pending {
		return ErrStaleTurn
	}
	return nil
}

func (c *Conversation) finish() {
	c.inFlight = false
	c.pending = -1
}
