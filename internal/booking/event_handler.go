package booking

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tsegaye/travel-listings/internal/core/events"
)

// EventHandler reacts to payment outcomes: a settled payment confirms its
// booking.
type EventHandler struct {
	service ServiceAPI
	logger  *slog.Logger
}

func NewEventHandler(service ServiceAPI, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		service: service,
		logger:  logger,
	}
}

// Register subscribes the handler to the payment lifecycle events.
func (h *EventHandler) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypePaymentSuccessful, h.handlePaymentSuccessful)
	bus.Subscribe(events.EventTypePaymentFailed, h.handlePaymentFailed)
}

func (h *EventHandler) handlePaymentSuccessful(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.PaymentSuccessfulEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	h.logger.Info("payment settled, confirming booking",
		"booking_id", e.BookingID,
		"payment_id", e.PaymentID)

	if err := h.service.ConfirmBooking(e.BookingID); err != nil {
		h.logger.Error("failed to confirm booking after payment",
			"booking_id", e.BookingID,
			"error", err)
		return err
	}
	return nil
}

func (h *EventHandler) handlePaymentFailed(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.PaymentFailedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	// The booking stays pending; the guest can initiate a fresh payment.
	h.logger.Warn("payment failed for booking",
		"booking_id", e.BookingID,
		"payment_id", e.PaymentID,
		"reason", e.FailureReason)
	return nil
}
