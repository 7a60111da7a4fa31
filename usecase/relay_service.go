package usecase

import (
	"context"
	"fmt"

	"github.com/satriahrh/supportchat/domain"
)

// SystemPrompt is the fixed instruction prepended to every relayed conversation.
const SystemPrompt = "You are a customer support bot for Headstarter AI, a platform for AI-powered Software Engineering interview preparation. " +
	"Your role is to assist users with account management, technical issues, platform features, and subscription inquiries. " +
	"Your goal is to ensure users have a positive experience and that their issues are resolved efficiently."

// RelayService forwards a turn sequence to the upstream provider behind
// the fixed system prompt. It holds no per-request state.
type RelayService struct {
	llm    domain.Llm
	prompt string
}

func NewRelayService(llm domain.Llm) *RelayService {
	return &RelayService{llm: llm, prompt: SystemPrompt}
}

// Prepare returns a new slice with the system turn first, followed by turns
// unchanged. Caller-supplied system turns are kept after it.
func (s *RelayService) Prepare(turns []domain.Turn) []domain.Turn {
	out := make([]domain.Turn, 0, len(turns)+1)
	out = append(out, domain.Turn{Role: domain.SystemRole, Content: s.prompt})
	return append(out, turns...)
}

func (s *RelayService) Stream(ctx context.Context, turns []domain.Turn) (domain.DeltaStream, error) {
	stream, err := s.llm.Stream(ctx, s.Prepare(turns))
	if err != nil {
		return nil, fmt.Errorf("open upstream stream: %w", err)
	}
	return stream, nil
}

func (s *RelayService) Complete(ctx context.Context, turns []domain.Turn) (string, error) {
	reply, err := s.llm.Complete(ctx, s.Prepare(turns))
	if err != nil {
		return "", fmt.Errorf("upstream completion: %w", err)
	}
	return reply, nil
}

var _ domain.Llm = (*RelayService)(nil)
