package payment

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	apperrors "github.com/tsegaye/travel-listings/internal"
	"github.com/tsegaye/travel-listings/internal/auth"
	"github.com/tsegaye/travel-listings/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// InitiatePayment handles POST /api/v1/payments/initiate
func (h *Handler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("InitiatePayment: user not found in context")
		h.HandleError(w, apperrors.NewUnauthorizedError("authentication required", apperrors.ErrCodeInvalidToken))
		return
	}

	var req InitiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("InitiatePayment: failed to parse request body", "error", err)
		h.HandleError(w, apperrors.NewValidationError("invalid request body", apperrors.ErrCodeValidationFailed))
		return
	}

	if err := req.Validate(); err != nil {
		h.Logger.Error("InitiatePayment: validation error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	result, err := h.Service.InitiatePayment(r.Context(), req.BookingID, user.ID, user.Role)
	if err != nil {
		h.Logger.Error("InitiatePayment: service error", "error", err, "booking_id", req.BookingID, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("InitiatePayment: payment initiated",
		"booking_id", req.BookingID,
		"tx_ref", result.Payment.TxRef,
		"user_id", user.ID)

	h.WriteJSON(w, http.StatusCreated, result)
}

// VerifyPayment handles POST /api/v1/payments/verify/{txRef}
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, apperrors.NewUnauthorizedError("authentication required", apperrors.ErrCodeInvalidToken))
		return
	}

	txRef := chi.URLParam(r, "txRef")
	if txRef == "" {
		h.HandleError(w, apperrors.NewValidationError("transaction reference is required", apperrors.ErrCodeValidationFailed))
		return
	}

	result, err := h.Service.VerifyPayment(r.Context(), txRef)
	if err != nil {
		h.Logger.Error("VerifyPayment: service error", "error", err, "tx_ref", txRef, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

// ListPayments handles GET /api/v1/payments
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, apperrors.NewUnauthorizedError("authentication required", apperrors.ErrCodeInvalidToken))
		return
	}

	filters := listFiltersFromQuery(r)

	payments, err := h.Service.ListPayments(user.Role, user.ID, filters)
	if err != nil {
		h.Logger.Error("ListPayments: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"payments": payments,
		"count":    len(payments),
	})
}

func listFiltersFromQuery(r *http.Request) ListFilters {
	q := r.URL.Query()

	filters := ListFilters{
		Query:     q.Get("q"),
		Status:    q.Get("status"),
		BookingID: q.Get("booking_id"),
		Limit:     50,
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			filters.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filters.Offset = n
		}
	}
	return filters
}
