package payment

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/tsegaye/travel-listings/internal"
	paymentDatamodel "github.com/tsegaye/travel-listings/internal/core/datamodel/payment"
	"github.com/tsegaye/travel-listings/internal/paymentgateway"
)

// Store-level sentinels. ErrDuplicateTxRef is caught inside InitiatePayment
// and retried with a fresh reference; it never reaches a caller.
var (
	ErrDuplicateTxRef = errors.New("tx_ref already exists")
	ErrTerminalStatus = errors.New("payment already in terminal status")
)

var (
	ErrPendingExists = apperrors.NewConflictError(
		"A pending payment already exists for this booking",
		apperrors.ErrCodePendingPaymentExists)
	ErrPaymentNotFound = apperrors.NewNotFoundError(
		"Payment not found",
		apperrors.ErrCodePaymentNotFound)
)

// Repository is the durable record store for payment attempts.
type Repository interface {
	// Create fails with ErrDuplicateTxRef when the transaction reference is
	// already taken.
	Create(p *paymentDatamodel.Payment) error
	GetByID(id string) (*paymentDatamodel.Payment, error)
	GetByTxRef(txRef string) (*paymentDatamodel.Payment, error)
	// GetPendingByBooking returns (nil, nil) when the booking has no pending
	// payment.
	GetPendingByBooking(bookingID string) (*paymentDatamodel.Payment, error)
	// UpdateStatus fails with ErrTerminalStatus when the record is no longer
	// pending; terminal records are never overwritten.
	UpdateStatus(id, status string, gatewayResponse json.RawMessage, failureReason *string) error
	ListVisible(scope AccessScope, filters ListFilters) ([]*paymentDatamodel.Payment, error)
}

// GatewayAPI is the transport to the external payment gateway.
type GatewayAPI interface {
	Initialize(ctx context.Context, req paymentgateway.InitializeRequest) (*paymentgateway.Result, error)
	Verify(ctx context.Context, txRef string) (*paymentgateway.Result, error)
}

// BookingContext is what the orchestrator needs to know about a booking to
// initiate a payment for it: the amount owed and the payer's identity.
type BookingContext struct {
	BookingID      string
	GuestID        string
	GuestEmail     string
	GuestFirstName string
	GuestLastName  string
	HostID         string
	ListingName    string
	TotalPrice     decimal.Decimal
}

// BookingReader resolves a booking reference against the booking service.
type BookingReader interface {
	PaymentContext(bookingID string) (*BookingContext, error)
}

// ListFilters narrows ListVisible results. Query is matched against tx_ref
// and status; Status and BookingID are exact.
type ListFilters struct {
	Query     string
	Status    string
	BookingID string
	Limit     int
	Offset    int
}

// Payment is the caller-facing view of a payment record.
type Payment struct {
	ID              string          `json:"payment_id"`
	BookingID       string          `json:"booking_id"`
	TxRef           string          `json:"transaction_id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Status          string          `json:"payment_status"`
	GatewayResponse json.RawMessage `json:"gateway_response,omitempty"`
	FailureReason   *string         `json:"failure_reason,omitempty"`
	PaymentDate     time.Time       `json:"payment_date"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty"`
}

func FromDataModel(p *paymentDatamodel.Payment) *Payment {
	return &Payment{
		ID:              p.ID,
		BookingID:       p.BookingID,
		TxRef:           p.TxRef,
		Amount:          p.Amount,
		Currency:        p.Currency,
		Status:          p.Status,
		GatewayResponse: p.GatewayResponse,
		FailureReason:   p.FailureReason,
		PaymentDate:     p.PaymentDate,
		ProcessedAt:     p.ProcessedAt,
	}
}

func FromDataModelSlice(records []*paymentDatamodel.Payment) []*Payment {
	result := make([]*Payment, len(records))
	for i, p := range records {
		result[i] = FromDataModel(p)
	}
	return result
}
