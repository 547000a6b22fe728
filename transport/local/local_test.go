package local_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesselfabric/vessels/transport/local"
)

func TestSendReceiveRoundTrip(t *testing.T) {
	a, b := local.NewPair()
	defer a.Close()
	defer b.Close()

	ctx := context.Background()
	done := make(chan error, 1)
	go func() {
		done <- a.Send(ctx, []byte("hello"))
	}()

	msg, err := b.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(msg))
	require.NoError(t, <-done)
}

func TestReceiveRespectsContextDeadline(t *testing.T) {
	a, b := local.NewPair()
	defer a.Close()
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := b.Receive(ctx)
	assert.Error(t, err)
}

func TestMultipleFramesPreserveOrder(t *testing.T) {
	a, b := local.NewPair()
	defer a.Close()
	defer b.Close()

	ctx := context.Background()
	go func() {
		_ = a.Send(ctx, []byte("first"))
		_ = a.Send(ctx, []byte("second"))
	}()

	first, err := b.Receive(ctx)
	require.NoError(t, err)
	second, err := b.Receive(ctx)
	require.NoError(t, err)

	assert.Equal(t, "first", string(first))
	assert.Equal(t, "second", string(second))
}
