package listing

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	listingDatamodel "github.com/tsegaye/travel-listings/internal/core/datamodel/listing"
)

// Repository defines the data access methods for listings and their reviews.
type Repository interface {
	Create(l *listingDatamodel.Listing) error
	GetByID(id string) (*listingDatamodel.Listing, error)
	Search(filters SearchFilters) ([]*listingDatamodel.Listing, error)
	Update(l *listingDatamodel.Listing) error
	Delete(id string) error

	CreateReview(rv *listingDatamodel.Review) error
	ReviewsForListing(listingID string, limit, offset int) ([]*listingDatamodel.Review, error)
}

// SearchFilters narrows a listing search. Zero values mean "no constraint".
type SearchFilters struct {
	City         string
	Country      string
	PropertyType string
	HostID       string
	MinPrice     decimal.Decimal
	MaxPrice     decimal.Decimal
	MinBedrooms  int
	Limit        int
	Offset       int
}

// Listing is the API view of a listing.
type Listing struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Address       string          `json:"address"`
	City          string          `json:"city"`
	Country       string          `json:"country"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
	PropertyType  string          `json:"property_type"`
	Bedrooms      int             `json:"bedrooms"`
	HostID        string          `json:"host_id"`
	Amenities     json.RawMessage `json:"amenities,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Review is the API view of a guest review.
type Review struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listing_id"`
	GuestID   string    `json:"guest_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func FromDataModel(l *listingDatamodel.Listing) *Listing {
	return &Listing{
		ID:            l.ID,
		Title:         l.Title,
		Description:   l.Description,
		Address:       l.Address,
		City:          l.City,
		Country:       l.Country,
		PricePerNight: l.PricePerNight,
		PropertyType:  l.PropertyType,
		Bedrooms:      l.Bedrooms,
		HostID:        l.HostID,
		Amenities:     l.Amenities,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

func FromDataModelSlice(listings []*listingDatamodel.Listing) []*Listing {
	out := make([]*Listing, 0, len(listings))
	for _, l := range listings {
		out = append(out, FromDataModel(l))
	}
	return out
}

func ReviewFromDataModel(rv *listingDatamodel.Review) *Review {
	return &Review{
		ID:        rv.ID,
		ListingID: rv.ListingID,
		GuestID:   rv.GuestID,
		Rating:    rv.Rating,
		Comment:   rv.Comment,
		CreatedAt: rv.CreatedAt,
	}
}

func ReviewsFromDataModel(reviews []*listingDatamodel.Review) []*Review {
	out := make([]*Review, 0, len(reviews))
	for _, rv := range reviews {
		out = append(out, ReviewFromDataModel(rv))
	}
	return out
}
