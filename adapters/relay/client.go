// Package relay is the widget-side HTTP transport for the completion relay.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/satriahrh/supportchat/domain"
)

var ErrUnexpectedStatus = errors.New("relay returned unexpected status")

const readChunkSize = 4096

type Client struct {
	url  string
	http *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient targets the relay chat endpoint, e.g. http://localhost:8080/api/chat.
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url: url,
		// No overall timeout: streamed replies can outlive any fixed budget.
		http: &http.Client{Transport: &http.Transport{ResponseHeaderTimeout: 60 * time.Second}},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Stream(ctx context.Context, turns []domain.Turn) (domain.DeltaStream, error) {
	resp, err := c.post(ctx, turns, "text/plain")
	if err != nil {
		return nil, err
	}
	return &chunkStream{body: resp.Body, buf: make([]byte, readChunkSize)}, nil
}

// Complete asks the relay for a buffered JSON reply.
func (c *Client) Complete(ctx context.Context, turns []domain.Turn) (string, error) {
	resp, err := c.post(ctx, turns, "application/json")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode relay reply: %w", err)
	}
	if len(body.Choices) == 0 {
		return "", domain.ErrNoChoices
	}
	return body.Choices[0].Message.Content, nil
}

func (c *Client) post(ctx context.Context, turns []domain.Turn, accept string) (*http.Response, error) {
	if turns == nil {
		turns = []domain.Turn{}
	}
	payload, err := json.Marshal(turns)
	if err != nil {
		return nil, fmt.Errorf("marshal turns: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("perform request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return resp, nil
}

// chunkStream turns the chunked body into text fragments. A multi-byte
// rune split across reads is held back until its remaining bytes arrive.
type chunkStream struct {
	body    io.ReadCloser
	buf     []byte
	carry   []byte
	err     error
	drained bool
}

func (s *chunkStream) Recv() (string, error) {
	for {
		if s.err != nil {
			return "", s.err
		}
		if s.drained {
			return "", io.EOF
		}

		n, err := s.body.Read(s.buf)
		data := append(s.carry, s.buf[:n]...)
		s.carry = nil

		if errors.Is(err, io.EOF) {
			s.drained = true
			if len(data) > 0 {
				return string(data), nil
			}
			return "", io.EOF
		}
		if err != nil {
			// Deliver what arrived before the failure first.
			s.err = fmt.Errorf("read relay stream: %w", err)
			if len(data) > 0 {
				return string(data), nil
			}
			return "", s.err
		}

		cut := completePrefix(data)
		if cut < len(data) {
			s.carry = append([]byte(nil), data[cut:]...)
		}
		if cut > 0 {
			return string(data[:cut]), nil
		}
	}
}

func (s *chunkStream) Close() error {
	return s.body.Close()
}

// completePrefix returns the length of the longest prefix of p that does
// not end in the middle of a UTF-8 sequence.
func completePrefix(p []byte) int {
	// A rune is at most utf8.UTFMax bytes, so only the tail needs checking.
	for i := len(p) - 1; i >= 0 && i >= len(p)-utf8.UTFMax; i-- {
		if utf8.RuneStart(p[i]) {
			if utf8.FullRune(p[i:]) {
				return len(p)
			}
			return i
		}
	}
	return len(p)
}

var _ domain.Llm = (*Client)(nil)
