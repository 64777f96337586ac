package payment

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/tsegaye/travel-listings/internal"
	"github.com/tsegaye/travel-listings/internal/transport"
)

// WebhookHandler receives the gateway's callback after checkout. The callback
// body is untrusted input: the reported status is never applied directly, the
// reference is re-checked against the gateway's verify endpoint instead.
type WebhookHandler struct {
	*transport.BaseHandler
	paymentService ServiceAPI
	logger         *slog.Logger
}

func NewWebhookHandler(baseHandler *transport.BaseHandler, paymentService ServiceAPI, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler:    baseHandler,
		paymentService: paymentService,
		logger:         logger,
	}
}

type CallbackResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (h *WebhookHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	var req CallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("invalid payment callback request", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		h.logger.Error("payment callback missing tx_ref")
		h.WriteError(w, http.StatusBadRequest, "tx_ref is required")
		return
	}

	h.logger.Info("received payment callback",
		"tx_ref", req.TxRef,
		"reported_status", req.Status)

	_, err := h.paymentService.VerifyPayment(r.Context(), req.TxRef)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			h.logger.Warn("callback for unknown transaction reference", "tx_ref", req.TxRef)
			h.WriteError(w, http.StatusNotFound, "unknown transaction reference")
			return
		}

		// Transport failures and inconclusive verdicts leave the record
		// untouched; the gateway retries the callback later.
		if appErr, ok := apperrors.IsAppError(err); ok && appErr.Type == apperrors.ErrorTypeExternal {
			h.logger.Error("callback verification inconclusive",
				"tx_ref", req.TxRef,
				"error", err)
			h.WriteError(w, http.StatusBadGateway, "verification failed, will retry")
			return
		}

		h.logger.Error("failed to process payment callback", "tx_ref", req.TxRef, "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to process payment callback")
		return
	}

	h.logger.Info("payment callback processed", "tx_ref", req.TxRef)

	h.WriteJSON(w, http.StatusOK, CallbackResponse{
		Status:  "success",
		Message: "callback processed successfully",
	})
}
