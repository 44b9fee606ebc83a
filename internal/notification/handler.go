package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/joao-fontenele/beverageshop/internal/domain"
	"github.com/joao-fontenele/beverageshop/internal/email"
	"github.com/joao-fontenele/beverageshop/internal/messaging"
)

const orderPlacedType = "domain.OrderPlacedEvent"

type OrderPlacedHandler struct {
	mailer email.Mailer
	logger *slog.Logger
}

func NewOrderPlacedHandler(mailer email.Mailer, logger *slog.Logger) *OrderPlacedHandler {
	return &OrderPlacedHandler{
		mailer: mailer,
		logger: logger,
	}
}

// Handle sends the confirmation email for one order.placed message. Send failures are
// returned so the message is redelivered.
func (h *OrderPlacedHandler) Handle(ctx context.Context, msg messaging.Message) error {
	if msg.EventType != "" && msg.EventType != orderPlacedType {
		h.logger.InfoContext(ctx, "ignoring event", "event_type", msg.EventType, "key", msg.Key)
		return nil
	}

	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return fmt.Errorf("unmarshal order placed event: %w: %w", messaging.ErrDiscard, err)
	}

	h.logger.InfoContext(ctx, "processing order placed event", "order_id", event.OrderID, "reference", event.Reference)

	if event.CustomerEmail == "" {
		h.logger.InfoContext(ctx, "skipping confirmation, no customer email", "order_id", event.OrderID)
		return nil
	}

	mail, err := email.OrderConfirmation(event)
	if err != nil {
		return fmt.Errorf("render confirmation for order %d: %w: %w", event.OrderID, messaging.ErrDiscard, err)
	}

	if err := h.mailer.Send(ctx, mail); err != nil {
		h.logger.ErrorContext(ctx, "failed to send confirmation email", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("send confirmation email: %w", err)
	}

	h.logger.InfoContext(ctx, "confirmation email sent", "order_id", event.OrderID, "to", event.CustomerEmail)
	return nil
}
