package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/kalambet/lookbook/internal/metrics"
)

// Topic is the bus topic analytics events are published on.
const Topic = "lookbook.analytics"

// PublisherSink publishes events to a watermill topic.
type PublisherSink struct {
	pub   message.Publisher
	topic string
}

func NewPublisherSink(pub message.Publisher, topic string) *PublisherSink {
	return &PublisherSink{pub: pub, topic: topic}
}

func (s *PublisherSink) Emit(_ context.Context, event string, props map[string]string) error {
	payload, err := json.Marshal(Event{Name: event, Props: props, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encoding event %s: %w", event, err)
	}
	return s.pub.Publish(s.topic, message.NewMessage(watermill.NewUUID(), payload))
}

// Consume reads events from topic until ctx is cancelled or the subscriber
// closes. Malformed payloads are acked and skipped so they are not redelivered.
func Consume(ctx context.Context, sub message.Subscriber, topic string, handle func(Event)) error {
	msgs, err := sub.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	for msg := range msgs {
		var ev Event
		if err := decodeEvent(msg, &ev); err != nil {
			slog.Warn("malformed analytics payload, skipping", "uuid", msg.UUID, "error", err)
			msg.Ack()
			continue
		}
		handle(ev)
		msg.Ack()
	}
	return nil
}

// CountAndLog is the default consumer handler: it updates the event counter
// and writes a debug line.
func CountAndLog(logger *slog.Logger) func(Event) {
	return func(ev Event) {
		metrics.AnalyticsEvents.WithLabelValues(ev.Name).Inc()
		logger.Debug("analytics event", "event", ev.Name, "props", ev.Props, "at", ev.At)
	}
}

// Pipeline is an in-process bus: emitters publish through an Async
// dispatcher and Run consumes on the other side.
type Pipeline struct {
	bus  *gochannel.GoChannel
	sink *Async
}

func NewPipeline(logger *slog.Logger, buffer int) *Pipeline {
	bus := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: int64(buffer)},
		watermill.NewSlogLogger(logger),
	)
	return &Pipeline{
		bus:  bus,
		sink: NewAsync(NewPublisherSink(bus, Topic), buffer),
	}
}

// Sink is what stores emit into.
func (p *Pipeline) Sink() Sink {
	return p.sink
}

// Run blocks consuming events until ctx is cancelled or Close is called.
func (p *Pipeline) Run(ctx context.Context, handle func(Event)) error {
	return Consume(ctx, p.bus, Topic, handle)
}

// Close flushes pending events and shuts the bus down.
func (p *Pipeline) Close() error {
	p.sink.Close()
	return p.bus.Close()
}

func decodeEvent(msg *message.Message, ev *Event) error {
	return json.Unmarshal(msg.Payload, ev)
}
