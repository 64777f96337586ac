package postgres

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tsegaye/travel-listings/internal/core/datamodel/payment"
	paymentpkg "github.com/tsegaye/travel-listings/internal/payment"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) paymentpkg.Repository {
	return &PaymentRepository{
		db: db,
	}
}

// Create inserts a new record. A transaction reference collision surfaces as
// ErrDuplicateTxRef so the caller can mint a fresh reference and retry.
// Requires the gorm session to be opened with TranslateError enabled.
func (r *PaymentRepository) Create(p *payment.Payment) error {
	if err := r.db.Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return paymentpkg.ErrDuplicateTxRef
		}
		return err
	}
	return nil
}

func (r *PaymentRepository) GetByID(id string) (*payment.Payment, error) {
	var p payment.Payment
	err := r.db.Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByTxRef(txRef string) (*payment.Payment, error) {
	var p payment.Payment
	err := r.db.Where("tx_ref = ?", txRef).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetPendingByBooking(bookingID string) (*payment.Payment, error) {
	var p payment.Payment
	err := r.db.
		Where("booking_id = ? AND status = ?", bookingID, payment.StatusPending).
		Order("created_at DESC").
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// UpdateStatus moves a pending record to a terminal status. The pending guard
// in the WHERE clause makes terminal records immutable: a second writer
// matches zero rows and gets ErrTerminalStatus.
func (r *PaymentRepository) UpdateStatus(id, status string, gatewayResponse json.RawMessage, failureReason *string) error {
	updates := map[string]interface{}{
		"status":       status,
		"processed_at": time.Now().UTC(),
	}

	if gatewayResponse != nil {
		updates["gateway_response"] = gatewayResponse
	}

	if failureReason != nil {
		updates["failure_reason"] = *failureReason
	}

	result := r.db.Model(&payment.Payment{}).
		Where("id = ? AND status = ?", id, payment.StatusPending).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var existing payment.Payment
		if err := r.db.Select("id").Where("id = ?", id).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return gorm.ErrRecordNotFound
			}
			return err
		}
		return paymentpkg.ErrTerminalStatus
	}
	return nil
}

// ListVisible enumerates payments within the caller's access scope. Guests
// see payments on their own bookings, hosts see payments on bookings of
// their listings, admins see everything. An empty scope queries nothing.
func (r *PaymentRepository) ListVisible(scope paymentpkg.AccessScope, filters paymentpkg.ListFilters) ([]*payment.Payment, error) {
	query := r.db.Model(&payment.Payment{}).Select("payments.*")

	switch scope.Capability {
	case paymentpkg.CapViewAll:
	case paymentpkg.CapViewOwnGuest:
		query = query.
			Joins("JOIN bookings ON bookings.id = payments.booking_id").
			Where("bookings.guest_id = ?", scope.UserID)
	case paymentpkg.CapViewOwnHost:
		query = query.
			Joins("JOIN bookings ON bookings.id = payments.booking_id").
			Joins("JOIN listings ON listings.id = bookings.listing_id").
			Where("listings.host_id = ?", scope.UserID)
	default:
		return []*payment.Payment{}, nil
	}

	if filters.Status != "" {
		query = query.Where("payments.status = ?", filters.Status)
	}
	if filters.BookingID != "" {
		query = query.Where("payments.booking_id = ?", filters.BookingID)
	}
	if filters.Query != "" {
		needle := "%" + filters.Query + "%"
		query = query.Where("payments.tx_ref LIKE ? OR payments.status LIKE ?", needle, needle)
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var payments []*payment.Payment
	err := query.Order("payments.created_at DESC").Find(&payments).Error
	return payments, err
}
