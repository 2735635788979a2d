package realtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBus_DeliversInSubscriptionOrder(t *testing.T) {
	bus := NewMemoryBus()
	ctx := context.Background()

	var got []string
	_, err := bus.Subscribe(ctx, "c", func(p []byte) { got = append(got, "first:"+string(p)) })
	require.NoError(t, err)
	_, err = bus.Subscribe(ctx, "c", func(p []byte) { got = append(got, "second:"+string(p)) })
	require.NoError(t, err)
	_, err = bus.Subscribe(ctx, "other", func(p []byte) { got = append(got, "other") })
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, "c", []byte("x")))
	assert.Equal(t, []string{"first:x", "second:x"}, got)
}

func TestMemoryBus_CloseSubscription(t *testing.T) {
	bus := NewMemoryBus()
	ctx := context.Background()

	calls := 0
	sub, err := bus.Subscribe(ctx, "c", func([]byte) { calls++ })
	require.NoError(t, err)
	assert.Equal(t, 1, bus.Subscribers("c"))

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	assert.Equal(t, 0, bus.Subscribers("c"))

	require.NoError(t, bus.Publish(ctx, "c", []byte("x")))
	assert.Zero(t, calls)
}

func TestMemoryBus_ClosedBusRejects(t *testing.T) {
	bus := NewMemoryBus()
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(context.Background(), "c", nil), ErrClosed)
	_, err := bus.Subscribe(context.Background(), "c", func([]byte) {})
	assert.ErrorIs(t, err, ErrClosed)
}
