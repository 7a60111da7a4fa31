package usecase

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/supportchat/domain"
)

type recordingLlm struct {
	got    []domain.Turn
	reply  string
	deltas []string
	err    error
}

func (r *recordingLlm) Complete(_ context.Context, turns []domain.Turn) (string, error) {
	r.got = turns
	return r.reply, r.err
}

func (r *recordingLlm) Stream(_ context.Context, turns []domain.Turn) (domain.DeltaStream, error) {
	r.got = turns
	if r.err != nil {
		return nil, r.err
	}
	return &sliceStream{deltas: r.deltas}, nil
}

type sliceStream struct {
	deltas []string
}

func (s *sliceStream) Recv() (string, error) {
	if len(s.deltas) == 0 {
		return "", io.EOF
	}
	d := s.deltas[0]
	s.deltas = s.deltas[1:]
	return d, nil
}

func (s *sliceStream) Close() error { return nil }

func TestRelayServicePrependsSystemTurn(t *testing.T) {
	upstream := &recordingLlm{deltas: []string{"ok"}}
	svc := NewRelayService(upstream)

	stream, err := svc.Stream(context.Background(), []domain.Turn{{Role: domain.UserRole, Content: "Hi"}})
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, []domain.Turn{
		{Role: domain.SystemRole, Content: SystemPrompt},
		{Role: domain.UserRole, Content: "Hi"},
	}, upstream.got)
}

func TestRelayServicePrependsEvenWhenCallerSendsSystem(t *testing.T) {
	svc := NewRelayService(&recordingLlm{})

	got := svc.Prepare([]domain.Turn{
		{Role: domain.SystemRole, Content: "caller"},
		{Role: domain.UserRole, Content: "Hi"},
	})

	require.Len(t, got, 3)
	assert.Equal(t, domain.Turn{Role: domain.SystemRole, Content: SystemPrompt}, got[0])
	assert.Equal(t, "caller", got[1].Content)
}

func TestRelayServicePrepareDoesNotAliasInput(t *testing.T) {
	svc := NewRelayService(&recordingLlm{})
	in := make([]domain.Turn, 1, 8)
	in[0] = domain.Turn{Role: domain.UserRole, Content: "Hi"}

	out := svc.Prepare(in)
	out[1].Content = "changed"

	assert.Equal(t, "Hi", in[0].Content)
}

func TestRelayServiceCompleteWrapsError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewRelayService(&recordingLlm{err: boom})

	_, err := svc.Complete(context.Background(), nil)
	assert.ErrorIs(t, err, boom)

	_, err = svc.Stream(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
}

func TestRelayServiceCompleteReturnsReply(t *testing.T) {
	upstream := &recordingLlm{reply: "X"}
	svc := NewRelayService(upstream)

	reply, err := svc.Complete(context.Background(), []domain.Turn{{Role: domain.UserRole, Content: "Hi"}})
	require.NoError(t, err)
	assert.Equal(t, "X", reply)
	assert.Equal(t, domain.SystemRole, upstream.got[0].Role)
}
