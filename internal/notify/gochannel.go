package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// GoChannelBus implements Bus on top of Watermill's in-process go-channel
// pub/sub. Every subscriber receives its own copy of each event.
type GoChannelBus struct {
	pubsub *gochannel.GoChannel
	logger *slog.Logger
}

// NewGoChannelBus creates a Bus backed by an in-process pub/sub.
func NewGoChannelBus(logger *slog.Logger) *GoChannelBus {
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewSlogLogger(logger),
	)
	return &GoChannelBus{pubsub: pubsub, logger: logger}
}

// Publish marshals the event and delivers it to all current subscribers of
// the topic.
func (b *GoChannelBus) Publish(topic string, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

// Subscribe returns a channel of events for the topic. The channel is closed
// when ctx is cancelled or the bus is closed; no events are delivered after
// that point.
func (b *GoChannelBus) Subscribe(ctx context.Context, topic string) (<-chan Event, error) {
	messages, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}

	events := make(chan Event)
	go func() {
		defer close(events)
		for msg := range messages {
			var ev Event
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				b.logger.Error("dropping malformed change event", "topic", topic, "error", err)
				msg.Ack()
				continue
			}
			msg.Ack()

			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

// Close shuts down the pub/sub and closes all subscriber channels.
func (b *GoChannelBus) Close() error {
	return b.pubsub.Close()
}
