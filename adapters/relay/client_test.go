package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/supportchat/domain"
)

// piecewiseBody returns each piece from a separate Read call.
type piecewiseBody struct {
	pieces [][]byte
	tail   error
}

func (b *piecewiseBody) Read(p []byte) (int, error) {
	if len(b.pieces) == 0 {
		if b.tail != nil {
			return 0, b.tail
		}
		return 0, io.EOF
	}
	n := copy(p, b.pieces[0])
	b.pieces = b.pieces[1:]
	return n, nil
}

func (b *piecewiseBody) Close() error { return nil }

func collect(t *testing.T, s domain.DeltaStream) (string, error) {
	t.Helper()
	var sb strings.Builder
	for {
		d, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
		assert.NotEmpty(t, d)
		sb.WriteString(d)
	}
}

func TestChunkStreamHoldsSplitRune(t *testing.T) {
	euro := []byte("€") // three bytes
	body := &piecewiseBody{pieces: [][]byte{
		append([]byte("price "), euro[:1]...),
		euro[1:2],
		append(euro[2:], []byte("5")...),
	}}
	s := &chunkStream{body: body, buf: make([]byte, readChunkSize)}

	first, err := s.Recv()
	require.NoError(t, err)
	assert.Equal(t, "price ", first)

	second, err := s.Recv()
	require.NoError(t, err)
	assert.Equal(t, "€5", second)

	_, err = s.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestChunkStreamDeliversPartialBeforeError(t *testing.T) {
	body := &piecewiseBody{pieces: [][]byte{[]byte("Part")}, tail: io.ErrUnexpectedEOF}
	s := &chunkStream{body: body, buf: make([]byte, readChunkSize)}

	got, err := collect(t, s)
	assert.Equal(t, "Part", got)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestCompletePrefix(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want int
	}{
		{"empty", nil, 0},
		{"ascii", []byte("abc"), 3},
		{"complete multibyte", []byte("añ"), 3},
		{"split two byte", []byte("a\xc3"), 1},
		{"split four byte", []byte("a\xf0\x9f\x98"), 1},
		{"complete four byte", []byte("😀"), 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, completePrefix(tc.in))
		})
	}
}

func TestClientStreamAgainstRelay(t *testing.T) {
	received := make(chan []domain.Turn, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got []domain.Turn
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		received <- got
		assert.Equal(t, "text/plain", r.Header.Get("Accept"))
		flusher := w.(http.Flusher)
		for _, part := range []string{"He", "llo"} {
			_, _ = io.WriteString(w, part)
			flusher.Flush()
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, WithHTTPClient(server.Client()))
	stream, err := client.Stream(context.Background(), []domain.Turn{{Role: domain.UserRole, Content: "Hi"}})
	require.NoError(t, err)
	defer stream.Close()

	text, err := collect(t, stream)
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)
	assert.Equal(t, []domain.Turn{{Role: domain.UserRole, Content: "Hi"}}, <-received)
}

func TestClientStreamNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithHTTPClient(server.Client()))
	_, err := client.Stream(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestClientCompleteDecodesReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"X"}}]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithHTTPClient(server.Client()))
	reply, err := client.Complete(context.Background(), []domain.Turn{{Role: domain.UserRole, Content: "Hi"}})
	require.NoError(t, err)
	assert.Equal(t, "X", reply)
}

func TestClientCompleteMalformedReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[`)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithHTTPClient(server.Client()))
	_, err := client.Complete(context.Background(), nil)
	assert.Error(t, err)
}

func TestClientCompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithHTTPClient(server.Client()))
	_, err := client.Complete(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrNoChoices)
}
