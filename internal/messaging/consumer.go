package messaging

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// ErrDiscard marks a message that can never be processed, such as a malformed payload.
// Handlers wrap it; the consumer then commits the message and carries on.
var ErrDiscard = errors.New("discard message")

var meter = otel.Meter("beverageshop/messaging")

var consumedCounter, _ = meter.Int64Counter("messages.consumed",
	metric.WithDescription("Messages handled by consumers, by topic and result"))

// Message is what a Handler receives.
type Message struct {
	Key       string
	EventType string
	Payload   []byte
}

type Handler func(ctx context.Context, msg Message) error

type Consumer struct {
	reader  *kafka.Reader
	topic   string
	groupID string
	logger  *slog.Logger
}

type ConsumerOption func(*kafka.ReaderConfig)

func WithStartOffset(offset int64) ConsumerOption {
	return func(cfg *kafka.ReaderConfig) {
		cfg.StartOffset = offset
	}
}

func NewConsumer(brokers []string, topic, groupID string, logger *slog.Logger, opts ...ConsumerOption) *Consumer {
	cfg := kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return &Consumer{
		reader:  kafka.NewReader(cfg),
		topic:   topic,
		groupID: groupID,
		logger:  logger,
	}
}

// Consume feeds messages to handler until ctx ends or handler fails. A message is committed
// only after handler returns nil or a discard error, so a crash redelivers it.
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}

		if err := c.processMessage(ctx, msg, handler); err != nil {
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return err
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message, handler Handler) error {
	parentCtx := otel.GetTextMapPropagator().Extract(ctx, NewMessageCarrier(&msg))

	spanCtx, span := tracer.Start(parentCtx, "process "+c.topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingOperationName("process"),
			semconv.MessagingOperationTypeDeliver,
			semconv.MessagingDestinationName(c.topic),
			semconv.MessagingKafkaConsumerGroup(c.groupID),
			semconv.MessagingKafkaMessageOffset(int(msg.Offset)),
			semconv.MessagingDestinationPartitionID(strconv.Itoa(msg.Partition)),
			semconv.MessagingKafkaMessageKey(string(msg.Key)),
		),
	)
	defer span.End()

	err := handler(spanCtx, Message{
		Key:       string(msg.Key),
		EventType: header(&msg, HeaderEventType),
		Payload:   msg.Value,
	})

	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrDiscard):
		result = "discarded"
		span.RecordError(err)
		c.logger.WarnContext(spanCtx, "discarding message", "error", err, "topic", c.topic,
			"partition", msg.Partition, "offset", msg.Offset)
		err = nil
	default:
		result = "failed"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	consumedCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("topic", c.topic),
		attribute.String("result", result),
	))
	return err
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
