package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"insuranceInsights/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h, cancel
}

func receive(t *testing.T, ch <-chan []byte) Message {
	t.Helper()
	select {
	case data, ok := <-ch:
		require.True(t, ok, "channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func TestHub_BroadcastsToEverySubscriber(t *testing.T) {
	h, _ := startHub(t)

	a, cancelA, ok := h.Subscribe()
	require.True(t, ok)
	defer cancelA()
	b, cancelB, ok := h.Subscribe()
	require.True(t, ok)
	defer cancelB()

	h.DatasetPrepared(&domain.Dataset{Rows: make([]domain.Applicant, 3)})

	for _, ch := range []<-chan []byte{a, b} {
		msg := receive(t, ch)
		assert.Equal(t, EventDatasetPrepared, msg.Event)
		payload, ok := msg.Payload.(map[string]any)
		require.True(t, ok)
		assert.EqualValues(t, 3, payload["row_count"])
	}
}

func TestHub_CancelClosesSubscription(t *testing.T) {
	h, _ := startHub(t)

	ch, cancel, ok := h.Subscribe()
	require.True(t, ok)
	assert.Equal(t, 1, h.Clients())

	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, h.Clients())
}

func TestHub_StopClosesSubscribers(t *testing.T) {
	h, stop := startHub(t)

	ch, cancel, ok := h.Subscribe()
	require.True(t, ok)

	stop()
	select {
	case _, open := <-ch:
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber not closed")
	}
	cancel()

	_, _, ok = h.Subscribe()
	assert.False(t, ok)
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h, _ := startHub(t)

	slow, cancelSlow, ok := h.Subscribe()
	require.True(t, ok)
	defer cancelSlow()

	// More than the hub and subscriber can buffer; Publish must still return.
	for i := 0; i < broadcastBuffer*3; i++ {
		h.Publish("tick", i)
	}

	assert.Eventually(t, func() bool {
		return len(slow) == clientBuffer
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, h.Clients())
}
