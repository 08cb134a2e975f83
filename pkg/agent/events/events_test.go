package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *capturingSink) PublishEvent(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func TestPublishReachesAllContextSinks(t *testing.T) {
	a := &capturingSink{}
	b := &capturingSink{}
	ctx := WithSinks(context.Background(), a)
	ctx = WithSinks(ctx, b)

	meta := Metadata{ConversationID: "conv-1", Round: 1}
	Publish(ctx, NewToolCall(meta, "get_lead", "call-1", `{"lead_id":7}`))

	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
	assert.Equal(t, EventTypeToolCall, a.events[0].Type())
	assert.Equal(t, "conv-1", a.events[0].Meta().ConversationID)
}

func TestPublishWithoutSinksIsNoOp(t *testing.T) {
	Publish(context.Background(), NewQueryDone(Metadata{}, true))
}

func TestWatermillSinkSequencesMessages(t *testing.T) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer func() { _ = pubsub.Close() }()

	messages, err := pubsub.Subscribe(context.Background(), "agent-events")
	require.NoError(t, err)

	sink := NewWatermillSink(pubsub, "agent-events")
	meta := Metadata{ConversationID: "conv-1"}
	require.NoError(t, sink.PublishEvent(NewRoundStart(meta, 2)))
	require.NoError(t, sink.PublishEvent(NewToolResult(meta, "get_lead", "call-1", false, "", 5*time.Millisecond)))

	first := <-messages
	first.Ack()
	assert.Equal(t, "0", first.Metadata.Get("sequence_number"))
	assert.Equal(t, string(EventTypeRoundStart), first.Metadata.Get("event_type"))

	second := <-messages
	second.Ack()
	assert.Equal(t, "1", second.Metadata.Get("sequence_number"))
	assert.JSONEq(t, `{
		"type": "tool-result",
		"meta": {"conversation_id": "conv-1"},
		"tool": "get_lead",
		"call_id": "call-1",
		"failed": false,
		"duration": 5000000
	}`, string(second.Payload))
}
