package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/tsegaye/travel-listings/internal"
	paymentDatamodel "github.com/tsegaye/travel-listings/internal/core/datamodel/payment"
	userDatamodel "github.com/tsegaye/travel-listings/internal/core/datamodel/user"
	"github.com/tsegaye/travel-listings/internal/core/events"
	"github.com/tsegaye/travel-listings/internal/lock"
	"github.com/tsegaye/travel-listings/internal/monitoring"
	"github.com/tsegaye/travel-listings/internal/paymentgateway"
)

const (
	// maxTxRefAttempts bounds the re-mint loop on store-reported reference
	// collisions. With 128-bit random suffixes a second attempt is already
	// vanishingly unlikely.
	maxTxRefAttempts = 5

	defaultCurrency = "ETB"
)

// Authoritative failure verdicts from the gateway's verify endpoint. Anything
// else that is not "success" is treated as inconclusive and changes no state.
var authoritativeFailures = map[string]bool{
	"failed":    true,
	"declined":  true,
	"cancelled": true,
}

type ServiceAPI interface {
	InitiatePayment(ctx context.Context, bookingID, requesterID, requesterRole string) (*InitiateResult, error)
	VerifyPayment(ctx context.Context, txRef string) (*VerifyResult, error)
	ListPayments(role, userID string, filters ListFilters) ([]*Payment, error)
}

// InitiateResult pairs the created record with the gateway's response payload,
// which is passed through to the caller verbatim.
type InitiateResult struct {
	Payment        *Payment        `json:"payment"`
	GatewayPayload json.RawMessage `json:"gateway_payload,omitempty"`
}

type VerifyResult struct {
	Payment        *Payment        `json:"payment"`
	GatewayPayload json.RawMessage `json:"gateway_payload,omitempty"`
}

// Service owns the payment lifecycle: it is the only writer of payment
// records, and all status transitions pass through it.
type Service struct {
	repo     Repository
	gateway  GatewayAPI
	bookings BookingReader
	locks    lock.Locker
	bus      *events.EventBus
	metrics  *monitoring.PaymentMetrics
	currency string
	logger   *slog.Logger
}

func NewService(repo Repository, gateway GatewayAPI, bookings BookingReader, locks lock.Locker, bus *events.EventBus, metrics *monitoring.PaymentMetrics, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		gateway:  gateway,
		bookings: bookings,
		locks:    locks,
		bus:      bus,
		metrics:  metrics,
		currency: defaultCurrency,
		logger:   logger,
	}
}

// InitiatePayment starts a payment attempt for a booking. The pending-check
// and record creation are serialized per booking: of two concurrent calls for
// the same booking exactly one creates a record, the other gets a conflict.
// The pending record is durably committed before the gateway is called, so a
// crash mid-call still leaves an auditable record behind.
func (s *Service) InitiatePayment(ctx context.Context, bookingID, requesterID, requesterRole string) (*InitiateResult, error) {
	bctx, err := s.bookings.PaymentContext(bookingID)
	if err != nil {
		if appErr, ok := apperrors.IsAppError(err); ok {
			return nil, appErr
		}
		return nil, apperrors.NewInternalError("failed to resolve booking", err)
	}
	if requesterRole != userDatamodel.RoleAdmin && bctx.GuestID != requesterID {
		return nil, apperrors.ErrNotBookingOwner
	}

	release, err := s.locks.Acquire(ctx, "payment:booking:"+bookingID)
	if err != nil {
		return nil, apperrors.NewInternalError("could not serialize payment initiation", err)
	}
	defer release()

	pending, err := s.repo.GetPendingByBooking(bookingID)
	if err != nil {
		s.logger.Error("pending-payment lookup failed", "booking_id", bookingID, "error", err)
		return nil, apperrors.NewInternalError("failed to check for pending payments", err)
	}
	if pending != nil {
		s.logger.Warn("payment initiation rejected: pending payment exists",
			"booking_id", bookingID,
			"tx_ref", pending.TxRef)
		s.metrics.RecordInitiate("conflict")
		return nil, ErrPendingExists
	}

	record, err := s.createWithFreshTxRef(bookingID, bctx)
	if err != nil {
		return nil, err
	}

	// From here the record exists durably; every failure path below must
	// leave it in failed status, never silently pending.
	result, gwErr := s.callInitialize(ctx, record, bctx)
	if gwErr != nil {
		return nil, gwErr
	}
	return result, nil
}

func (s *Service) createWithFreshTxRef(bookingID string, bctx *BookingContext) (*paymentDatamodel.Payment, error) {
	var lastErr error
	for attempt := 0; attempt < maxTxRefAttempts; attempt++ {
		record := &paymentDatamodel.Payment{
			BookingID: bookingID,
			TxRef:     NewTxRef(),
			Amount:    bctx.TotalPrice,
			Currency:  s.currency,
			Status:    paymentDatamodel.StatusPending,
		}

		err := s.repo.Create(record)
		if err == nil {
			s.logger.Info("pending payment record created",
				"payment_id", record.ID,
				"booking_id", bookingID,
				"tx_ref", record.TxRef,
				"amount", record.Amount.String())
			return record, nil
		}
		if errors.Is(err, ErrDuplicateTxRef) {
			s.logger.Warn("transaction reference collision, re-minting",
				"booking_id", bookingID,
				"attempt", attempt+1)
			lastErr = err
			continue
		}
		s.logger.Error("failed to create payment record", "booking_id", bookingID, "error", err)
		return nil, apperrors.NewInternalError("failed to create payment record", err)
	}
	return nil, apperrors.NewInternalError("could not mint a unique transaction reference", lastErr)
}

func (s *Service) callInitialize(ctx context.Context, record *paymentDatamodel.Payment, bctx *BookingContext) (*InitiateResult, error) {
	start := time.Now()
	res, err := s.gateway.Initialize(ctx, paymentgateway.InitializeRequest{
		Amount:      record.Amount,
		Currency:    record.Currency,
		Email:       bctx.GuestEmail,
		FirstName:   bctx.GuestFirstName,
		LastName:    bctx.GuestLastName,
		TxRef:       record.TxRef,
		Description: fmt.Sprintf("Booking payment for %s", bctx.ListingName),
	})
	s.metrics.ObserveGatewayCall("initialize", start)

	if err != nil {
		reason := err.Error()
		s.markFailed(record, nil, &reason)

		var transportErr *paymentgateway.TransportError
		if errors.As(err, &transportErr) {
			s.metrics.RecordInitiate("transport_error")
			return nil, apperrors.NewExternalError("payment gateway unreachable",
				apperrors.ErrCodeGatewayUnavailable).WithCause(err)
		}
		// Unclassified failure: the record is already marked failed above.
		s.metrics.RecordInitiate("error")
		return nil, apperrors.NewInternalError("payment initiation failed", err)
	}

	if !res.OK {
		reason := fmt.Sprintf("gateway rejected initialization with status %q", res.Status)
		s.markFailed(record, res.Raw, &reason)
		s.metrics.RecordInitiate("rejected")
		return nil, apperrors.NewExternalError("payment gateway rejected the transaction",
			apperrors.ErrCodeGatewayRejected).WithDetails(res.Raw)
	}

	// Business success: the record stays pending until the gateway confirms
	// completion through verification.
	s.logger.Info("payment initialized with gateway",
		"payment_id", record.ID,
		"tx_ref", record.TxRef)
	s.metrics.RecordInitiate("pending")

	return &InitiateResult{
		Payment:        FromDataModel(record),
		GatewayPayload: res.Raw,
	}, nil
}

// VerifyPayment reconciles a record against the gateway's authoritative view.
// A transport failure changes no state; only an explicit gateway verdict
// moves a pending record to a terminal status.
func (s *Service) VerifyPayment(ctx context.Context, txRef string) (*VerifyResult, error) {
	record, err := s.repo.GetByTxRef(txRef)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to look up payment", err)
	}
	if record == nil {
		s.metrics.RecordVerify("not_found")
		return nil, ErrPaymentNotFound
	}

	start := time.Now()
	res, err := s.gateway.Verify(ctx, txRef)
	s.metrics.ObserveGatewayCall("verify", start)
	if err != nil {
		s.logger.Error("gateway verify unreachable, leaving state unchanged",
			"tx_ref", txRef,
			"error", err)
		s.metrics.RecordVerify("transport_error")
		return nil, apperrors.NewExternalError("payment gateway unreachable",
			apperrors.ErrCodeGatewayUnavailable).WithCause(err)
	}

	switch {
	case res.OK:
		if record.Status == paymentDatamodel.StatusPending {
			if err := s.transition(record, paymentDatamodel.StatusSuccessful, res.Raw, nil); err != nil {
				return nil, err
			}
			if s.bus != nil {
				s.bus.Publish(ctx, events.NewPaymentSuccessfulEvent(
					record.ID, record.BookingID, record.TxRef, record.Amount.String()))
			}
		} else if record.Status == paymentDatamodel.StatusFailed {
			// Terminal records are never overwritten, even by a success
			// verdict; flag the mismatch for the operator.
			s.logger.Warn("gateway reports success for a locally failed payment",
				"payment_id", record.ID,
				"tx_ref", txRef)
		}
		s.metrics.RecordVerify("successful")

	case authoritativeFailures[res.Status]:
		if record.Status == paymentDatamodel.StatusPending {
			reason := fmt.Sprintf("gateway verdict %q", res.Status)
			if err := s.transition(record, paymentDatamodel.StatusFailed, res.Raw, &reason); err != nil {
				return nil, err
			}
			if s.bus != nil {
				s.bus.Publish(ctx, events.NewPaymentFailedEvent(
					record.ID, record.BookingID, record.TxRef, reason))
			}
		}
		s.metrics.RecordVerify("failed")

	default:
		// Neither success nor an authoritative failure: inconclusive.
		// Report it, change nothing.
		s.logger.Warn("inconclusive gateway verdict, leaving state unchanged",
			"tx_ref", txRef,
			"gateway_status", res.Status)
		s.metrics.RecordVerify("ambiguous")
		return nil, apperrors.NewExternalError("payment gateway returned an inconclusive verdict",
			apperrors.ErrCodeGatewayRejected).WithDetails(res.Raw)
	}

	return &VerifyResult{
		Payment:        FromDataModel(record),
		GatewayPayload: res.Raw,
	}, nil
}

// ListPayments enumerates records visible to the caller's role. Unrecognized
// roles see nothing.
func (s *Service) ListPayments(role, userID string, filters ListFilters) ([]*Payment, error) {
	scope := ScopeForRole(role, userID)

	records, err := s.repo.ListVisible(scope, filters)
	if err != nil {
		s.logger.Error("payment listing failed", "role", role, "user_id", userID, "error", err)
		return nil, apperrors.NewInternalError("failed to list payments", err)
	}

	return FromDataModelSlice(records), nil
}

func (s *Service) transition(record *paymentDatamodel.Payment, status string, raw json.RawMessage, reason *string) error {
	if err := s.repo.UpdateStatus(record.ID, status, raw, reason); err != nil {
		if errors.Is(err, ErrTerminalStatus) {
			// Lost a race against another verifier; reload the settled state.
			fresh, ferr := s.repo.GetByID(record.ID)
			if ferr == nil && fresh != nil {
				*record = *fresh
				return nil
			}
		}
		s.logger.Error("status transition failed",
			"payment_id", record.ID,
			"target_status", status,
			"error", err)
		return apperrors.NewInternalError("failed to update payment status", err)
	}

	record.Status = status
	record.GatewayResponse = raw
	record.FailureReason = reason
	now := time.Now().UTC()
	record.ProcessedAt = &now

	s.logger.Info("payment status updated",
		"payment_id", record.ID,
		"tx_ref", record.TxRef,
		"status", status)
	return nil
}

func (s *Service) markFailed(record *paymentDatamodel.Payment, raw json.RawMessage, reason *string) {
	if err := s.repo.UpdateStatus(record.ID, paymentDatamodel.StatusFailed, raw, reason); err != nil {
		// The record stays pending; verification will reconcile it later.
		s.logger.Error("failed to mark payment failed",
			"payment_id", record.ID,
			"tx_ref", record.TxRef,
			"error", err)
		return
	}
	record.Status = paymentDatamodel.StatusFailed
	record.GatewayResponse = raw
	record.FailureReason = reason

	if s.bus != nil {
		failure := ""
		if reason != nil {
			failure = *reason
		}
		s.bus.Publish(context.Background(), events.NewPaymentFailedEvent(
			record.ID, record.BookingID, record.TxRef, failure))
	}
}
