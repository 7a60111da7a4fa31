package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"google.golang.org/genai"

	"github.com/satriahrh/supportchat/domain"
)

type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(
		ctx,
		&genai.ClientConfig{
			APIKey:      apiKey,
			Backend:     genai.BackendGeminiAPI,
			HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GeminiClient{client: client, model: model}, nil
}

func (g *GeminiClient) Complete(ctx context.Context, turns []domain.Turn) (string, error) {
	contents, config := toGemini(turns)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", domain.ErrNoChoices
	}
	return resp.Text(), nil
}

// Stream pulls chunks lazily. The first chunk is fetched before returning
// so that a failing call surfaces here rather than mid-stream.
func (g *GeminiClient) Stream(ctx context.Context, turns []domain.Turn) (domain.DeltaStream, error) {
	contents, config := toGemini(turns)

	next, stop := iter.Pull2(g.client.Models.GenerateContentStream(ctx, g.model, contents, config))
	s := &geminiStream{next: next, stop: stop}

	first, err := s.pull()
	if err != nil && !errors.Is(err, io.EOF) {
		stop()
		return nil, fmt.Errorf("generate content stream: %w", err)
	}
	s.first, s.firstErr, s.primed = first, err, true
	return s, nil
}

type geminiStream struct {
	next func() (*genai.GenerateContentResponse, error, bool)
	stop func()

	primed   bool
	first    string
	firstErr error
}

func (s *geminiStream) Recv() (string, error) {
	if s.primed {
		s.primed = false
		return s.first, s.firstErr
	}
	return s.pull()
}

func (s *geminiStream) pull() (string, error) {
	resp, err, ok := s.next()
	if !ok {
		return "", io.EOF
	}
	if err != nil {
		return "", err
	}
	return chunkText(resp), nil
}

func (s *geminiStream) Close() error {
	s.stop()
	return nil
}

func chunkText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// toGemini maps turns onto Gemini contents. System turns are folded into
// the system instruction since Gemini has no system role in contents.
func toGemini(turns []domain.Turn) ([]*genai.Content, *genai.GenerateContentConfig) {
	var (
		contents []*genai.Content
		system   []*genai.Part
	)
	for _, t := range turns {
		switch t.Role {
		case domain.SystemRole:
			system = append(system, &genai.Part{Text: t.Content})
		case domain.UserRole:
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: t.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: t.Content}}})
		}
	}

	var config *genai.GenerateContentConfig
	if len(system) > 0 {
		config = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: system},
		}
	}
	return contents, config
}

var _ domain.Llm = (*GeminiClient)(nil)
