package events

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog/log"
)

// WatermillSink publishes orchestration events as JSON messages on a
// watermill topic. Each message carries a monotonically increasing
// sequence number in its metadata, in the order events were published.
type WatermillSink struct {
	publisher message.Publisher
	topic     string

	mu       sync.Mutex
	sequence uint64
}

// NewWatermillSink wraps a watermill publisher for the given topic.
func NewWatermillSink(publisher message.Publisher, topic string) *WatermillSink {
	return &WatermillSink{publisher: publisher, topic: topic}
}

func (s *WatermillSink) PublishEvent(e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}

	s.mu.Lock()
	seq := s.sequence
	s.sequence++
	s.mu.Unlock()

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("sequence_number", fmt.Sprintf("%d", seq))
	msg.Metadata.Set("event_type", string(e.Type()))

	if err := s.publisher.Publish(s.topic, msg); err != nil {
		log.Warn().Err(err).Str("topic", s.topic).Msg("events: failed to publish")
		return err
	}
	return nil
}
