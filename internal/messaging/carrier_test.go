package messaging

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestMessageCarrier(t *testing.T) {
	msg := &kafka.Message{Headers: []kafka.Header{{Key: HeaderEventType, Value: []byte("domain.OrderPlacedEvent")}}}
	c := NewMessageCarrier(msg)

	c.Set("traceparent", "a")
	c.Set("traceparent", "b")

	if got := c.Get("traceparent"); got != "b" {
		t.Errorf("expected replaced value b, got %q", got)
	}
	if len(msg.Headers) != 2 {
		t.Errorf("expected 2 headers, got %d", len(msg.Headers))
	}
	if got := c.Get("missing"); got != "" {
		t.Errorf("expected empty value, got %q", got)
	}
	if keys := c.Keys(); len(keys) != 2 || keys[0] != HeaderEventType {
		t.Errorf("unexpected keys %v", keys)
	}
}

func TestTraceContextRoundTrip(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	var prop propagation.TraceContext
	msg := &kafka.Message{}
	prop.Inject(ctx, NewMessageCarrier(msg))

	extracted := trace.SpanContextFromContext(prop.Extract(context.Background(), NewMessageCarrier(msg)))
	if extracted.TraceID() != traceID || extracted.SpanID() != spanID {
		t.Errorf("trace context lost: %v", extracted)
	}
}
