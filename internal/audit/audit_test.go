package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_EmitStampsTime(t *testing.T) {
	st := NewMemoryStore()
	pub := NewPublisher(st)

	err := pub.Emit(context.Background(), Event{UserID: 7, Action: ActionCheckIn, RequestID: "req-1"})
	require.NoError(t, err)

	events := st.All()
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Equal(t, ActionCheckIn, events[0].Action)
}

func TestPublisher_ListNewestFirst(t *testing.T) {
	st := NewMemoryStore()
	pub := NewPublisher(st)

	base := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, pub.Emit(context.Background(), Event{UserID: 7, Action: ActionCheckIn, Timestamp: base}))
	require.NoError(t, pub.Emit(context.Background(), Event{UserID: 7, Action: ActionCheckOut, Timestamp: base.Add(time.Hour)}))
	require.NoError(t, pub.Emit(context.Background(), Event{UserID: 8, Action: ActionCheckIn, Timestamp: base}))

	events, err := pub.List(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionCheckOut, events[0].Action)
	assert.Equal(t, ActionCheckIn, events[1].Action)
}

func TestChannelSink_QueuesForWorker(t *testing.T) {
	st := NewMemoryStore()
	inbox := make(chan Event, 4)
	pub := NewPublisher(NewChannelSink(inbox, st))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewWorker(st, inbox).Run(ctx)

	require.NoError(t, pub.Emit(context.Background(), Event{UserID: 7, Action: ActionCheckIn}))
	require.Eventually(t, func() bool { return len(st.All()) == 1 }, time.Second, 10*time.Millisecond)

	events, err := pub.List(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, events, 1, "reads pass through to the backing store")
}

func TestChannelSink_FullInboxDropsEvent(t *testing.T) {
	st := NewMemoryStore()
	inbox := make(chan Event, 1)
	sink := NewChannelSink(inbox, st)

	require.NoError(t, sink.Append(context.Background(), Event{UserID: 1}))
	err := sink.Append(context.Background(), Event{UserID: 2})
	assert.ErrorIs(t, err, ErrInboxFull)
}

func TestWorker_DrainsInbox(t *testing.T) {
	st := NewMemoryStore()
	inbox := make(chan Event, 4)
	worker := NewWorker(st, inbox)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	inbox <- Event{UserID: 1, Action: ActionEvidenceOrphaned, Detail: "ref=abc.jpg"}
	inbox <- Event{UserID: 1, Action: ActionCheckIn}

	require.Eventually(t, func() bool { return len(st.All()) == 2 }, time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
