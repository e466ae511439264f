package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListenCmd_ReceivesEvent(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := broker.Subscribe(ctx)
	broker.Publish(UpdatedEvent, "hello world")

	msg := ListenCmd(ctx, ch)()

	event, ok := msg.(Event[string])
	require.True(t, ok, "msg should be Event[string]")
	require.Equal(t, "hello world", event.Payload)
}

func TestListenCmd_ContextCancelled(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := broker.Subscribe(ctx)
	cancel()

	require.Nil(t, ListenCmd(ctx, ch)())
}

func TestContinuousListener_ListenRepeatedly(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewContinuousListener(ctx, broker)
	broker.Publish(UpdatedEvent, 3)
	broker.Publish(UpdatedEvent, 4)

	for _, want := range []int{3, 4} {
		event, ok := l.Listen()().(Event[int])
		require.True(t, ok)
		require.Equal(t, want, event.Payload)
	}
}

func TestContinuousListener_NilListenerHasNoCmd(t *testing.T) {
	var l *ContinuousListener[string]
	require.Nil(t, l.Listen())
}
