package booking

import (
	"time"

	"github.com/shopspring/decimal"

	bookingDatamodel "github.com/tsegaye/travel-listings/internal/core/datamodel/booking"
)

// ListingInfo is the slice of a listing a booking needs: pricing and the
// host for access checks.
type ListingInfo struct {
	ID            string
	HostID        string
	Title         string
	PricePerNight decimal.Decimal
}

// GuestContact carries what the confirmation mail and the payment gateway
// need to know about the guest.
type GuestContact struct {
	Email     string
	FirstName string
	LastName  string
}

// Repository defines the data access methods for bookings.
type Repository interface {
	Create(b *bookingDatamodel.Booking) error
	GetByID(id string) (*bookingDatamodel.Booking, error)
	ForGuest(guestID string, limit, offset int) ([]*bookingDatamodel.Booking, error)
	ForHost(hostID string, limit, offset int) ([]*bookingDatamodel.Booking, error)
	UpdateStatus(id, status string) error
	Reschedule(id string, start, end time.Time, total decimal.Decimal) error

	// HasOverlap reports whether the listing already has a pending or
	// confirmed booking intersecting [start, end). excludeBookingID leaves
	// one booking out of the check, for reschedules against itself.
	HasOverlap(listingID, excludeBookingID string, start, end time.Time) (bool, error)

	ListingInfo(listingID string) (*ListingInfo, error)
	GuestContact(guestID string) (*GuestContact, error)
}

// Booking is the API view of a booking.
type Booking struct {
	ID         string          `json:"id"`
	ListingID  string          `json:"listing_id"`
	GuestID    string          `json:"guest_id"`
	Status     string          `json:"status"`
	StartDate  time.Time       `json:"start_date"`
	EndDate    time.Time       `json:"end_date"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func FromDataModel(b *bookingDatamodel.Booking) *Booking {
	return &Booking{
		ID:         b.ID,
		ListingID:  b.ListingID,
		GuestID:    b.GuestID,
		Status:     b.Status,
		StartDate:  b.StartDate,
		EndDate:    b.EndDate,
		TotalPrice: b.TotalPrice,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func FromDataModelSlice(bookings []*bookingDatamodel.Booking) []*Booking {
	out := make([]*Booking, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, FromDataModel(b))
	}
	return out
}

// Nights returns the whole nights between check-in and check-out.
func Nights(start, end time.Time) int {
	return int(end.Sub(start).Hours() / 24)
}
