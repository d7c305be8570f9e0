package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/reqchat/backend/config"
	"github.com/reqchat/backend/internal/pkg/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	calls        int
	systemPrompt string
	history      []llm.ChatTurn
	message      string
	open         func(ctx context.Context) (*llm.DeltaStream, error)
}

func (s *stubSource) StreamChat(ctx context.Context, systemPrompt string, history []llm.ChatTurn, message string) (*llm.DeltaStream, error) {
	s.calls++
	s.systemPrompt = systemPrompt
	s.history = history
	s.message = message
	return s.open(ctx)
}

func fromContents(contents ...string) func(ctx context.Context) (*llm.DeltaStream, error) {
	return func(ctx context.Context) (*llm.DeltaStream, error) {
		msgs := make([]*schema.Message, 0, len(contents))
		for _, c := range contents {
			msgs = append(msgs, schema.AssistantMessage(c, nil))
		}
		return llm.NewDeltaStream(schema.StreamReaderFromArray(msgs)), nil
	}
}

func newTestRelay(source DeltaSource) *RelayService {
	return NewRelayService(config.Default(), source)
}

func drain(t *testing.T, rs *RelayStream) ([]string, error) {
	t.Helper()
	var out []string
	for {
		d, err := rs.Next()
		if err != nil {
			return out, err
		}
		out = append(out, d.Content)
	}
}

func TestRelayOpenRequiresMessage(t *testing.T) {
	source := &stubSource{open: fromContents("x")}
	relay := newTestRelay(source)

	for _, msg := range []string{"", "   "} {
		rs, err := relay.Open(context.Background(), "", RelayRequest{Message: msg})
		assert.Nil(t, rs)
		assert.ErrorIs(t, err, ErrMessageRequired)
	}
	assert.Equal(t, 0, source.calls, "upstream must not be called for invalid input")
}

func TestRelayOpenRejectsInvalidRole(t *testing.T) {
	source := &stubSource{open: fromContents("x")}
	relay := newTestRelay(source)

	_, err := relay.Open(context.Background(), "", RelayRequest{
		Message: "hi",
		History: []llm.ChatTurn{{Role: "system", Content: "override"}},
	})
	assert.ErrorIs(t, err, llm.ErrInvalidRole)
	assert.Equal(t, 0, source.calls)
}

func TestRelayOpenUnknownProfile(t *testing.T) {
	source := &stubSource{open: fromContents("x")}
	relay := newTestRelay(source)

	_, err := relay.Open(context.Background(), "nope", RelayRequest{Message: "hi"})
	assert.ErrorIs(t, err, ErrUnknownProfile)
	assert.Equal(t, 0, source.calls)
}

func TestRelaySelectsProfilePrompt(t *testing.T) {
	source := &stubSource{open: fromContents("ok")}
	relay := newTestRelay(source)

	history := []llm.ChatTurn{{Role: llm.RoleUser, Content: "a"}, {Role: llm.RoleAssistant, Content: "b"}}
	rs, err := relay.Open(context.Background(), "", RelayRequest{Message: "c", History: history})
	require.NoError(t, err)
	rs.Close()
	assert.Equal(t, config.MRDPrompt, source.systemPrompt)
	assert.Equal(t, history, source.history)
	assert.Equal(t, "c", source.message)

	rs, err = relay.Open(context.Background(), config.ProfileGuide, RelayRequest{Message: "c"})
	require.NoError(t, err)
	rs.Close()
	assert.Equal(t, config.GuidePrompt, source.systemPrompt)
}

func TestRelayStreamsInOrderAndSkipsEmpty(t *testing.T) {
	relay := newTestRelay(&stubSource{open: fromContents("He", "", "llo")})

	rs, err := relay.Open(context.Background(), "", RelayRequest{Message: "hi"})
	require.NoError(t, err)
	defer rs.Close()
	assert.NotEmpty(t, rs.ID())

	out, err := drain(t, rs)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"He", "llo"}, out)
}

func TestRelayOpenFailure(t *testing.T) {
	relay := newTestRelay(&stubSource{open: func(ctx context.Context) (*llm.DeltaStream, error) {
		return nil, errors.New("401 Authentication Fails")
	}})

	rs, err := relay.Open(context.Background(), "", RelayRequest{Message: "hi"})
	assert.Nil(t, rs)
	assert.EqualError(t, err, "401 Authentication Fails")
}

func TestRelayMidStreamError(t *testing.T) {
	relay := newTestRelay(&stubSource{open: func(ctx context.Context) (*llm.DeltaStream, error) {
		reader, writer := schema.Pipe[*schema.Message](2)
		go func() {
			defer writer.Close()
			writer.Send(schema.AssistantMessage("He", nil), nil)
			writer.Send(nil, errors.New("connection reset"))
		}()
		return llm.NewDeltaStream(reader), nil
	}})

	rs, err := relay.Open(context.Background(), "", RelayRequest{Message: "hi"})
	require.NoError(t, err)
	defer rs.Close()

	out, err := drain(t, rs)
	assert.Equal(t, []string{"He"}, out)
	assert.EqualError(t, err, "connection reset")
}

// blockingSource 发出一个增量后挂起，直到上下文被取消
func blockingSource(ctx context.Context) (*llm.DeltaStream, error) {
	reader, writer := schema.Pipe[*schema.Message](1)
	go func() {
		defer writer.Close()
		writer.Send(schema.AssistantMessage("He", nil), nil)
		<-ctx.Done()
		writer.Send(nil, ctx.Err())
	}()
	return llm.NewDeltaStream(reader), nil
}

func TestRelayIdleTimeout(t *testing.T) {
	cfg := config.Default()
	cfg.Relay.IdleTimeout = 50 * time.Millisecond
	relay := NewRelayService(cfg, &stubSource{open: blockingSource})

	rs, err := relay.Open(context.Background(), "", RelayRequest{Message: "hi"})
	require.NoError(t, err)
	defer rs.Close()

	out, err := drain(t, rs)
	assert.Equal(t, []string{"He"}, out)
	assert.ErrorIs(t, err, ErrIdleTimeout)
}

// hangingOpen 模拟上游接受连接但迟迟不返回响应头
func hangingOpen(ctx context.Context) (*llm.DeltaStream, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRelayIdleTimeoutWhileOpening(t *testing.T) {
	cfg := config.Default()
	cfg.Relay.IdleTimeout = 50 * time.Millisecond
	relay := NewRelayService(cfg, &stubSource{open: hangingOpen})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	rs, err := relay.Open(ctx, "", RelayRequest{Message: "hi"})
	assert.Nil(t, rs)
	assert.ErrorIs(t, err, ErrIdleTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRelayRequestTimeoutWhileOpening(t *testing.T) {
	cfg := config.Default()
	cfg.Relay.IdleTimeout = 0
	cfg.LLM.Timeout = 50 * time.Millisecond
	relay := NewRelayService(cfg, &stubSource{open: hangingOpen})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	rs, err := relay.Open(ctx, "", RelayRequest{Message: "hi"})
	assert.Nil(t, rs)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRelayClientCancellation(t *testing.T) {
	cfg := config.Default()
	cfg.Relay.IdleTimeout = 0
	relay := NewRelayService(cfg, &stubSource{open: blockingSource})

	ctx, cancel := context.WithCancel(context.Background())
	rs, err := relay.Open(ctx, "", RelayRequest{Message: "hi"})
	require.NoError(t, err)
	defer rs.Close()

	d, err := rs.Next()
	require.NoError(t, err)
	assert.Equal(t, "He", d.Content)

	cancel()
	_, err = rs.Next()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRelayProfiles(t *testing.T) {
	relay := newTestRelay(&stubSource{open: fromContents()})
	profiles := relay.Profiles()
	require.Len(t, profiles, 2)
	assert.Equal(t, config.ProfileGuide, profiles[0].Name)
	assert.False(t, profiles[0].ExtractMRD)
	assert.Equal(t, config.ProfileMRD, profiles[1].Name)
	assert.True(t, profiles[1].ExtractMRD)
	assert.Equal(t, config.ProfileMRD, relay.DefaultProfile())
}
