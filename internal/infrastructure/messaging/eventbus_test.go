package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeya/tradeya-backend/internal/domain/shared"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []shared.Event
	done   chan struct{}
	err    error
	panics bool
}

func newRecordingHandler(expected int) *recordingHandler {
	return &recordingHandler{done: make(chan struct{}, expected)}
}

func (h *recordingHandler) Name() string { return "recording" }

func (h *recordingHandler) Handle(_ context.Context, event shared.Event) error {
	h.mu.Lock()
	h.events = append(h.events, event)
	h.mu.Unlock()
	h.done <- struct{}{}
	if h.panics {
		panic("boom")
	}
	return h.err
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func waitFor(t *testing.T, ch chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handler")
	}
}

func TestEventBus_PublishDeliversToSubscriber(t *testing.T) {
	bus := NewEventBus(DefaultEventBusConfig())
	defer bus.Close()

	handler := newRecordingHandler(1)
	require.NoError(t, bus.Subscribe(shared.EventXPAwarded, handler))

	event := shared.NewXPAwardedEvent("user-1", 50, 150, 2, "trade_completion")
	require.NoError(t, bus.Publish(context.Background(), event))

	waitFor(t, handler.done)
	assert.Equal(t, 1, handler.count())
}

func TestEventBus_IgnoresUnrelatedEventTypes(t *testing.T) {
	bus := NewEventBus(DefaultEventBusConfig())
	defer bus.Close()

	handler := newRecordingHandler(1)
	require.NoError(t, bus.Subscribe(shared.EventLevelUp, handler))

	event := shared.NewXPAwardedEvent("user-1", 50, 150, 2, "trade_completion")
	require.NoError(t, bus.Publish(context.Background(), event))

	require.NoError(t, bus.Close())
	assert.Equal(t, 0, handler.count())
}

func TestEventBus_HandlerErrorDoesNotFailPublish(t *testing.T) {
	bus := NewEventBus(DefaultEventBusConfig())
	defer bus.Close()

	handler := newRecordingHandler(1)
	handler.err = errors.New("handler failed")
	require.NoError(t, bus.Subscribe(shared.EventXPAwarded, handler))

	event := shared.NewXPAwardedEvent("user-1", 10, 60, 1, "adjustment")
	require.NoError(t, bus.Publish(context.Background(), event))
	waitFor(t, handler.done)
}

func TestEventBus_HandlerPanicIsRecovered(t *testing.T) {
	bus := NewEventBus(DefaultEventBusConfig())

	handler := newRecordingHandler(1)
	handler.panics = true
	require.NoError(t, bus.Subscribe(shared.EventXPAwarded, handler))

	event := shared.NewXPAwardedEvent("user-1", 10, 60, 1, "adjustment")
	require.NoError(t, bus.Publish(context.Background(), event))

	// Close waits for the dispatch goroutine; a leaked panic would fail the test.
	require.NoError(t, bus.Close())
}

func TestEventBus_ClosedBusRejectsOperations(t *testing.T) {
	bus := NewEventBus(DefaultEventBusConfig())
	require.NoError(t, bus.Close())

	err := bus.Publish(context.Background(), shared.NewXPAwardedEvent("u", 1, 1, 1, "adjustment"))
	assert.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe(shared.EventXPAwarded, newRecordingHandler(1))
	assert.ErrorIs(t, err, ErrEventBusClosed)
}

func TestEventBus_MultipleSubscribersAllReceive(t *testing.T) {
	bus := NewEventBus(DefaultEventBusConfig())
	defer bus.Close()

	first := newRecordingHandler(1)
	second := newRecordingHandler(1)
	require.NoError(t, bus.Subscribe(shared.EventXPAwarded, first))
	require.NoError(t, bus.Subscribe(shared.EventXPAwarded, second))

	event := shared.NewXPAwardedEvent("user-1", 25, 75, 1, "challenge_completion")
	require.NoError(t, bus.Publish(context.Background(), event))

	waitFor(t, first.done)
	waitFor(t, second.done)
}
