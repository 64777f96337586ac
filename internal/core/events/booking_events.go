package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeBookingCreated    = "booking.created"
	EventTypePaymentSuccessful = "payment.successful"
	EventTypePaymentFailed     = "payment.failed"
)

// BookingCreatedEvent drives the booking confirmation email. The notification
// path is fire-and-forget and must never affect booking or payment state.
type BookingCreatedEvent struct {
	BaseEvent
	BookingID   string    `json:"booking_id"`
	GuestEmail  string    `json:"guest_email"`
	ListingName string    `json:"listing_name"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

func NewBookingCreatedEvent(bookingID, guestEmail, listingName string, startDate, endDate time.Time) *BookingCreatedEvent {
	return &BookingCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      EventTypeBookingCreated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"booking_id":   bookingID,
				"guest_email":  guestEmail,
				"listing_name": listingName,
				"start_date":   startDate,
				"end_date":     endDate,
			},
		},
		BookingID:   bookingID,
		GuestEmail:  guestEmail,
		ListingName: listingName,
		StartDate:   startDate,
		EndDate:     endDate,
	}
}

type PaymentSuccessfulEvent struct {
	BaseEvent
	PaymentID string `json:"payment_id"`
	BookingID string `json:"booking_id"`
	TxRef     string `json:"tx_ref"`
	Amount    string `json:"amount"`
}

func NewPaymentSuccessfulEvent(paymentID, bookingID, txRef, amount string) *PaymentSuccessfulEvent {
	return &PaymentSuccessfulEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      EventTypePaymentSuccessful,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id": paymentID,
				"booking_id": bookingID,
				"tx_ref":     txRef,
				"amount":     amount,
			},
		},
		PaymentID: paymentID,
		BookingID: bookingID,
		TxRef:     txRef,
		Amount:    amount,
	}
}

type PaymentFailedEvent struct {
	BaseEvent
	PaymentID     string `json:"payment_id"`
	BookingID     string `json:"booking_id"`
	TxRef         string `json:"tx_ref"`
	FailureReason string `json:"failure_reason"`
}

func NewPaymentFailedEvent(paymentID, bookingID, txRef, failureReason string) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      EventTypePaymentFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":     paymentID,
				"booking_id":     bookingID,
				"tx_ref":         txRef,
				"failure_reason": failureReason,
			},
		},
		PaymentID:     paymentID,
		BookingID:     bookingID,
		TxRef:         txRef,
		FailureReason: failureReason,
	}
}
