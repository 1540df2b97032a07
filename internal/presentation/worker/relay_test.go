package workerpresentation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domoutbox "github.com/Zhima-Mochi/minishop-batches/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-batches/internal/observability"
	"github.com/Zhima-Mochi/minishop-batches/internal/observability/logctx"
)

type fakeSubscriber struct {
	handlers map[string]domoutbox.Handler
}

func (s *fakeSubscriber) Subscribe(name string, h domoutbox.Handler) { s.handlers[name] = h }

type fakeSink struct {
	mu     sync.Mutex
	got    []domoutbox.Envelope
	hadLog bool
	err    error
}

func (s *fakeSink) Forward(ctx context.Context, env domoutbox.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, env)
	s.hadLog = logctx.From(ctx) != nil
	return s.err
}

type placed struct{}

func (placed) EventName() string { return "order.placed" }

func TestRelay_SubscribesToAllEventsByDefault(t *testing.T) {
	sub := &fakeSubscriber{handlers: map[string]domoutbox.Handler{}}
	sink := &fakeSink{}

	NewRelay(sub, sink, observability.Nop()).Start()

	h, ok := sub.handlers[domoutbox.AllEvents]
	require.True(t, ok)
	require.NoError(t, h(context.Background(), domoutbox.Envelope{ID: "e-1", Name: "order.placed", Event: placed{}}))
	require.Len(t, sink.got, 1)
	assert.Equal(t, "e-1", sink.got[0].ID)
	assert.True(t, sink.hadLog)
}

func TestRelay_WrapsSinkErrors(t *testing.T) {
	sub := &fakeSubscriber{handlers: map[string]domoutbox.Handler{}}
	boom := errors.New("broker down")
	sink := &fakeSink{err: boom}

	NewRelay(sub, sink, nil, "order.placed").Start()

	err := sub.handlers["order.placed"](context.Background(), domoutbox.Envelope{Name: "order.placed", Event: placed{}})
	assert.ErrorIs(t, err, boom)
}
