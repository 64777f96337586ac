package postgres

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/tsegaye/travel-listings/internal"
	bookingpkg "github.com/tsegaye/travel-listings/internal/booking"
	"github.com/tsegaye/travel-listings/internal/core/datamodel/booking"
	"github.com/tsegaye/travel-listings/internal/core/datamodel/listing"
	"github.com/tsegaye/travel-listings/internal/core/datamodel/user"
	paymentpkg "github.com/tsegaye/travel-listings/internal/payment"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{
		db: db,
	}
}

func (r *BookingRepository) Create(b *booking.Booking) error {
	return r.db.Create(b).Error
}

func (r *BookingRepository) GetByID(id string) (*booking.Booking, error) {
	var b booking.Booking
	if err := r.db.Where("id = ?", id).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepository) ForGuest(guestID string, limit, offset int) ([]*booking.Booking, error) {
	var bookings []*booking.Booking
	err := r.db.
		Where("guest_id = ?", guestID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&bookings).Error
	return bookings, err
}

func (r *BookingRepository) ForHost(hostID string, limit, offset int) ([]*booking.Booking, error) {
	var bookings []*booking.Booking
	err := r.db.
		Joins("JOIN listings ON listings.id = bookings.listing_id").
		Where("listings.host_id = ?", hostID).
		Order("bookings.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&bookings).Error
	return bookings, err
}

func (r *BookingRepository) UpdateStatus(id, status string) error {
	return r.db.Model(&booking.Booking{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *BookingRepository) Reschedule(id string, start, end time.Time, total decimal.Decimal) error {
	return r.db.Model(&booking.Booking{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"start_date":  start,
			"end_date":    end,
			"total_price": total,
		}).Error
}

func (r *BookingRepository) HasOverlap(listingID, excludeBookingID string, start, end time.Time) (bool, error) {
	query := r.db.Model(&booking.Booking{}).
		Where("listing_id = ?", listingID).
		Where("status IN ?", []string{booking.StatusPending, booking.StatusConfirmed}).
		Where("start_date < ? AND end_date > ?", end, start)
	if excludeBookingID != "" {
		query = query.Where("id <> ?", excludeBookingID)
	}

	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *BookingRepository) ListingInfo(listingID string) (*bookingpkg.ListingInfo, error) {
	var l listing.Listing
	if err := r.db.Select("id", "host_id", "title", "price_per_night").
		Where("id = ?", listingID).
		First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bookingpkg.ListingInfo{
		ID:            l.ID,
		HostID:        l.HostID,
		Title:         l.Title,
		PricePerNight: l.PricePerNight,
	}, nil
}

func (r *BookingRepository) GuestContact(guestID string) (*bookingpkg.GuestContact, error) {
	var u user.User
	if err := r.db.Select("id", "email", "first_name", "last_name").
		Where("id = ?", guestID).
		First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bookingpkg.GuestContact{
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}, nil
}

// PaymentContext assembles everything the payment orchestrator needs to
// charge a booking: the amount, the parties, and the listing name for the
// gateway description.
func (r *BookingRepository) PaymentContext(bookingID string) (*paymentpkg.BookingContext, error) {
	b, err := r.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperrors.ErrBookingNotFound
	}

	info, err := r.ListingInfo(b.ListingID)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, apperrors.ErrListingNotFound
	}

	contact, err := r.GuestContact(b.GuestID)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, apperrors.ErrBookingNotFound
	}

	return &paymentpkg.BookingContext{
		BookingID:      b.ID,
		GuestID:        b.GuestID,
		GuestEmail:     contact.Email,
		GuestFirstName: contact.FirstName,
		GuestLastName:  contact.LastName,
		HostID:         info.HostID,
		ListingName:    info.Title,
		TotalPrice:     b.TotalPrice,
	}, nil
}
