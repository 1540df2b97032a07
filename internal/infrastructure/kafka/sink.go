package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	domoutbox "github.com/Zhima-Mochi/minishop-batches/internal/domain/outbox"
)

const (
	HeaderEventName = "event_name"
	HeaderEventID   = "event_id"
)

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

// Sink publishes bus envelopes as JSON messages keyed by the event key.
type Sink struct {
	w MessageWriter
}

func NewSink(w MessageWriter) *Sink {
	return &Sink{w: w}
}

func (s *Sink) Forward(ctx context.Context, env domoutbox.Envelope) error {
	payload, err := json.Marshal(env.Event)
	if err != nil {
		return fmt.Errorf("kafka: encode %s: %w", env.Name, err)
	}

	headers := []kafka.Header{
		{Key: HeaderEventName, Value: []byte(env.Name)},
		{Key: HeaderEventID, Value: []byte(env.ID)},
	}
	msg := kafka.Message{
		Value:   payload,
		Headers: InjectHeaders(ctx, headers),
		Time:    env.PublishedAt,
	}
	if key := env.Key(); key != "" {
		msg.Key = []byte(key)
	}

	if err := s.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write %s: %w", env.Name, err)
	}
	return nil
}

// InjectHeaders appends the W3C trace context of ctx to headers.
func InjectHeaders(ctx context.Context, headers []kafka.Header) []kafka.Header {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return headers
}
