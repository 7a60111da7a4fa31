package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/satriahrh/supportchat/domain"
)

// OpenAIConfig configures an OpenAI-compatible chat completion upstream.
// BaseURL may point at any compatible service (OpenRouter for example).
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai api key must be provided")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("openai model must be provided")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

func (o *OpenAIClient) Complete(ctx context.Context, turns []domain.Turn) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, o.request(turns, false))
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAIClient) Stream(ctx context.Context, turns []domain.Turn) (domain.DeltaStream, error) {
	stream, err := o.client.CreateChatCompletionStream(ctx, o.request(turns, true))
	if err != nil {
		return nil, fmt.Errorf("create chat completion stream: %w", err)
	}
	return &openAIStream{stream: stream}, nil
}

func (o *OpenAIClient) request(turns []domain.Turn, stream bool) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, len(turns))
	for i, t := range turns {
		messages[i] = openai.ChatCompletionMessage{Role: string(t.Role), Content: t.Content}
	}
	return openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: messages,
		Stream:   stream,
	}
}

type openAIStream struct {
	stream *openai.ChatCompletionStream
}

// Recv returns the first choice's delta, or "" for chunks without one.
// io.EOF from the underlying stream is passed through unwrapped.
func (s *openAIStream) Recv() (string, error) {
	resp, err := s.stream.Recv()
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Delta.Content, nil
}

func (s *openAIStream) Close() error {
	return s.stream.Close()
}

var _ domain.Llm = (*OpenAIClient)(nil)
