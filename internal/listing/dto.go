package listing

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	apperrors "github.com/tsegaye/travel-listings/internal"
	"github.com/tsegaye/travel-listings/internal/core/common/validation"
)

// CreateListingDTO is the payload for creating a listing.
type CreateListingDTO struct {
	Title         string          `json:"title" validate:"required"`
	Description   string          `json:"description" validate:"required"`
	Address       string          `json:"address" validate:"required"`
	City          string          `json:"city" validate:"required"`
	Country       string          `json:"country" validate:"required"`
	PricePerNight decimal.Decimal `json:"price_per_night" validate:"required"`
	PropertyType  string          `json:"property_type" validate:"required"`
	Bedrooms      int             `json:"bedrooms"`
	Amenities     json.RawMessage `json:"amenities,omitempty"`
}

func (d *CreateListingDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("title", d.Title).Required().MaxLength(200)
	validator.Field("description", d.Description).Required()
	validator.Field("address", d.Address).Required()
	validator.Field("city", d.City).Required()
	validator.Field("country", d.Country).Required()
	validator.Field("price_per_night", d.PricePerNight).Required().PositiveDecimal(apperrors.ErrCodeInvalidAmount)
	validator.Field("property_type", d.PropertyType).Required()
	validator.Field("bedrooms", d.Bedrooms).MinInt(0, apperrors.ErrCodeValidationFailed)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// UpdateListingDTO carries partial updates. Nil fields are left untouched.
type UpdateListingDTO struct {
	Title         *string          `json:"title,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Address       *string          `json:"address,omitempty"`
	City          *string          `json:"city,omitempty"`
	Country       *string          `json:"country,omitempty"`
	PricePerNight *decimal.Decimal `json:"price_per_night,omitempty"`
	PropertyType  *string          `json:"property_type,omitempty"`
	Bedrooms      *int             `json:"bedrooms,omitempty"`
	Amenities     json.RawMessage  `json:"amenities,omitempty"`
}

func (d *UpdateListingDTO) Validate() error {
	validator := validation.NewValidator()

	if d.Title != nil {
		validator.Field("title", *d.Title).Required().MaxLength(200)
	}
	if d.PricePerNight != nil {
		validator.Field("price_per_night", *d.PricePerNight).PositiveDecimal(apperrors.ErrCodeInvalidAmount)
	}
	if d.Bedrooms != nil {
		validator.Field("bedrooms", *d.Bedrooms).MinInt(0, apperrors.ErrCodeValidationFailed)
	}

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// CreateReviewDTO is the payload for reviewing a listing.
type CreateReviewDTO struct {
	Rating  int    `json:"rating" validate:"required"`
	Comment string `json:"comment,omitempty"`
}

func (d *CreateReviewDTO) Validate() error {
	if appErr := validation.ValidateRating(d.Rating); appErr != nil {
		return appErr
	}
	return nil
}
