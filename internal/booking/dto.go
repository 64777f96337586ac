package booking

import (
	"time"

	apperrors "github.com/tsegaye/travel-listings/internal"
	"github.com/tsegaye/travel-listings/internal/core/common/validation"
)

const dateLayout = "2006-01-02"

// CreateBookingDTO is the payload for booking a stay.
type CreateBookingDTO struct {
	ListingID string `json:"listing_id" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

// Parse validates the payload and returns the check-in and check-out dates.
func (d *CreateBookingDTO) Parse() (start, end time.Time, err error) {
	validator := validation.NewValidator()

	validator.Field("listing_id", d.ListingID).Required()
	validator.Field("start_date", d.StartDate).Required()
	validator.Field("end_date", d.EndDate).Required()

	if appErr := validator.Validate(); appErr != nil {
		return time.Time{}, time.Time{}, appErr
	}

	start, err = time.Parse(dateLayout, d.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.NewValidationFieldError(
			"start_date", "must be a date in YYYY-MM-DD format", apperrors.ErrCodeInvalidDate)
	}
	end, err = time.Parse(dateLayout, d.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.NewValidationFieldError(
			"end_date", "must be a date in YYYY-MM-DD format", apperrors.ErrCodeInvalidDate)
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, apperrors.NewValidationFieldError(
			"end_date", "must be after start_date", apperrors.ErrCodeInvalidDate)
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if start.Before(today) {
		return time.Time{}, time.Time{}, apperrors.NewValidationFieldError(
			"start_date", "must not be in the past", apperrors.ErrCodeInvalidDate)
	}

	return start, end, nil
}

// RescheduleBookingDTO carries a partial date change. An omitted field keeps
// the booking's current date.
type RescheduleBookingDTO struct {
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// Parse merges the payload with the booking's current dates and validates
// the result.
func (d *RescheduleBookingDTO) Parse(currentStart, currentEnd time.Time) (start, end time.Time, err error) {
	if d.StartDate == "" && d.EndDate == "" {
		return time.Time{}, time.Time{}, apperrors.NewValidationFieldError(
			"start_date", "at least one of start_date or end_date is required", apperrors.ErrCodeValidationFailed)
	}

	start = currentStart
	if d.StartDate != "" {
		start, err = time.Parse(dateLayout, d.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, apperrors.NewValidationFieldError(
				"start_date", "must be a date in YYYY-MM-DD format", apperrors.ErrCodeInvalidDate)
		}
		today := time.Now().UTC().Truncate(24 * time.Hour)
		if start.Before(today) {
			return time.Time{}, time.Time{}, apperrors.NewValidationFieldError(
				"start_date", "must not be in the past", apperrors.ErrCodeInvalidDate)
		}
	}

	end = currentEnd
	if d.EndDate != "" {
		end, err = time.Parse(dateLayout, d.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, apperrors.NewValidationFieldError(
				"end_date", "must be a date in YYYY-MM-DD format", apperrors.ErrCodeInvalidDate)
		}
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, apperrors.NewValidationFieldError(
			"end_date", "must be after start_date", apperrors.ErrCodeInvalidDate)
	}

	return start, end, nil
}
