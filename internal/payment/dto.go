package payment

import (
	"github.com/tsegaye/travel-listings/internal/core/common/validation"
)

// InitiatePaymentRequest is the payload for starting a payment attempt.
type InitiatePaymentRequest struct {
	BookingID string `json:"booking_id" validate:"required"`
}

func (r *InitiatePaymentRequest) Validate() error {
	validator := validation.NewValidator()

	validator.Field("booking_id", r.BookingID).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// CallbackRequest is the payload the gateway posts to the callback URL after
// the customer completes checkout. Only the reference is trusted; the status
// is re-checked against the gateway's verify endpoint.
type CallbackRequest struct {
	TxRef  string `json:"tx_ref"`
	Status string `json:"status"`
}

func (r *CallbackRequest) Validate() error {
	validator := validation.NewValidator()

	validator.Field("tx_ref", r.TxRef).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
