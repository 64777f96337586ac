package listing

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"

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

// CreateListing handles POST /api/v1/listings
func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, apperrors.NewUnauthorizedError("authentication required", apperrors.ErrCodeInvalidToken))
		return
	}

	var dto CreateListingDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateListing: failed to parse request body", "error", err)
		h.HandleError(w, apperrors.NewValidationError("invalid request body", apperrors.ErrCodeValidationFailed))
		return
	}

	created, err := h.Service.CreateListing(user.ID, dto)
	if err != nil {
		h.Logger.Error("CreateListing: service error", "error", err, "host_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, created)
}

// GetListing handles GET /api/v1/listings/{id}
func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	l, err := h.Service.GetListing(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, l)
}

// SearchListings handles GET /api/v1/listings
func (h *Handler) SearchListings(w http.ResponseWriter, r *http.Request) {
	filters := searchFiltersFromQuery(r)

	listings, err := h.Service.SearchListings(filters)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"listings": listings,
		"count":    len(listings),
	})
}

// MyListings handles GET /api/v1/listings/mine
func (h *Handler) MyListings(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, apperrors.NewUnauthorizedError("authentication required", apperrors.ErrCodeInvalidToken))
		return
	}

	filters := SearchFilters{HostID: user.ID}
	filters.Limit, filters.Offset = paginationFromQuery(r)

	listings, err := h.Service.SearchListings(filters)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"listings": listings,
		"count":    len(listings),
	})
}

// UpdateListing handles PATCH /api/v1/listings/{id}
func (h *Handler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, apperrors.NewUnauthorizedError("authentication required", apperrors.ErrCodeInvalidToken))
		return
	}

	id := chi.URLParam(r, "id")

	var dto UpdateListingDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateListing: failed to parse request body", "error", err)
		h.HandleError(w, apperrors.NewValidationError("invalid request body", apperrors.ErrCodeValidationFailed))
		return
	}

	updated, err := h.Service.UpdateListing(id, user.ID, user.Role, dto)
	if err != nil {
		h.Logger.Error("UpdateListing: service error", "error", err, "listing_id", id, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, updated)
}

// DeleteListing handles DELETE /api/v1/listings/{id}
func (h *Handler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, apperrors.NewUnauthorizedError("authentication required", apperrors.ErrCodeInvalidToken))
		return
	}

	id := chi.URLParam(r, "id")

	if err := h.Service.DeleteListing(id, user.ID, user.Role); err != nil {
		h.Logger.Error("DeleteListing: service error", "error", err, "listing_id", id, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddReview handles POST /api/v1/listings/{id}/reviews
func (h *Handler) AddReview(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, apperrors.NewUnauthorizedError("authentication required", apperrors.ErrCodeInvalidToken))
		return
	}

	id := chi.URLParam(r, "id")

	var dto CreateReviewDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid request body", apperrors.ErrCodeValidationFailed))
		return
	}

	review, err := h.Service.AddReview(id, user.ID, dto)
	if err != nil {
		h.Logger.Error("AddReview: service error", "error", err, "listing_id", id, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, review)
}

// ListReviews handles GET /api/v1/listings/{id}/reviews
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit, offset := paginationFromQuery(r)

	reviews, err := h.Service.ListReviews(id, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reviews": reviews,
		"count":   len(reviews),
	})
}

func searchFiltersFromQuery(r *http.Request) SearchFilters {
	q := r.URL.Query()

	filters := SearchFilters{
		City:         q.Get("city"),
		Country:      q.Get("country"),
		PropertyType: q.Get("property_type"),
	}
	if v := q.Get("min_price"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			filters.MinPrice = d
		}
	}
	if v := q.Get("max_price"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			filters.MaxPrice = d
		}
	}
	if v := q.Get("min_bedrooms"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filters.MinBedrooms = n
		}
	}
	filters.Limit, filters.Offset = paginationFromQuery(r)
	return filters
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
