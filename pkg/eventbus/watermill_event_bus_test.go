package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/aferraz/driveline/pkg/channels/gochannel"
	"github.com/aferraz/driveline/pkg/eventbus"
	"github.com/aferraz/driveline/pkg/events"
	"github.com/aferraz/driveline/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermillEventBus_PublishAndSubscribe(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)

	received := make(chan *events.ExecutionFinished, 1)

	err = bus.Handle(events.ExecutionFinishedEvent, func(_ context.Context, event interface{}) error {
		finished, ok := event.(*events.ExecutionFinished)
		require.True(t, ok)

		received <- finished

		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Subscribe(ctx))

	err = bus.Publish(ctx, "auto-1", events.ExecutionFinished{
		BaseEvent: events.BaseEvent{
			ID:           bus.GenerateID(),
			Type:         events.ExecutionFinishedEvent,
			Timestamp:    time.Now().UTC(),
			AutomationID: "auto-1",
			AccountID:    "acct-1",
		},
		ExecutionID: "exec-1",
		Status:      models.ExecutionStatusSuccess,
		StepCount:   2,
	})
	require.NoError(t, err)

	select {
	case finished := <-received:
		assert.Equal(t, "exec-1", finished.ExecutionID)
		assert.Equal(t, models.ExecutionStatusSuccess, finished.Status)
		assert.Equal(t, "auto-1", finished.AutomationID)
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestWatermillEventBus_UnhandledEventTypeIsAcked(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	require.NoError(t, bus.Subscribe(ctx))

	// No handler registered: publish must not block or error.
	err = bus.Publish(ctx, "auto-1", events.AutomationTriggered{
		BaseEvent: events.BaseEvent{ID: bus.GenerateID(), Type: events.AutomationTriggeredEvent},
	})
	assert.NoError(t, err)
}
