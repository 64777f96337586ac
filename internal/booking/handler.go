package booking

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

// CreateBooking handles POST /api/v1/bookings
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, apperrors.NewUnauthorizedError("authentication required", apperrors.ErrCodeInvalidToken))
		return
	}

	var dto CreateBookingDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateBooking: failed to parse request body", "error", err)
		h.HandleError(w, apperrors.NewValidationError("invalid request body", apperrors.ErrCodeValidationFailed))
		return
	}

	created, err := h.Service.CreateBooking(user.ID, dto)
	if err != nil {
		h.Logger.Error("CreateBooking: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, created)
}

// GetBooking handles GET /api/v1/bookings/{id}
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, apperrors.NewUnauthorizedError("authentication required", apperrors.ErrCodeInvalidToken))
		return
	}

	id := chi.URLParam(r, "id")

	b, err := h.Service.GetBooking(id, user.ID, user.Role)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, b)
}

// MyBookings handles GET /api/v1/bookings/my
func (h *Handler) MyBookings(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, apperrors.NewUnauthorizedError("authentication required", apperrors.ErrCodeInvalidToken))
		return
	}

	limit, offset := paginationFromQuery(r)

	bookings, err := h.Service.GuestBookings(user.ID, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// HostBookings handles GET /api/v1/bookings/host
func (h *Handler) HostBookings(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, apperrors.NewUnauthorizedError("authentication required", apperrors.ErrCodeInvalidToken))
		return
	}

	limit, offset := paginationFromQuery(r)

	bookings, err := h.Service.HostBookings(user.ID, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// CancelBooking handles POST /api/v1/bookings/{id}/cancel
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, apperrors.NewUnauthorizedError("authentication required", apperrors.ErrCodeInvalidToken))
		return
	}

	id := chi.URLParam(r, "id")

	cancelled, err := h.Service.CancelBooking(id, user.ID, user.Role)
	if err != nil {
		h.Logger.Error("CancelBooking: service error", "error", err, "booking_id", id, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, cancelled)
}

// RescheduleBooking handles POST /api/v1/bookings/{id}/reschedule
func (h *Handler) RescheduleBooking(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, apperrors.NewUnauthorizedError("authentication required", apperrors.ErrCodeInvalidToken))
		return
	}

	id := chi.URLParam(r, "id")

	var dto RescheduleBookingDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("RescheduleBooking: failed to parse request body", "error", err)
		h.HandleError(w, apperrors.NewValidationError("invalid request body", apperrors.ErrCodeValidationFailed))
		return
	}

	rescheduled, err := h.Service.RescheduleBooking(id, user.ID, user.Role, dto)
	if err != nil {
		h.Logger.Error("RescheduleBooking: service error", "error", err, "booking_id", id, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rescheduled)
}

func paginationFromQuery(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit = 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
