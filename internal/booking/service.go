package booking

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	apperrors "github.com/tsegaye/travel-listings/internal"
	bookingDatamodel "github.com/tsegaye/travel-listings/internal/core/datamodel/booking"
	userDatamodel "github.com/tsegaye/travel-listings/internal/core/datamodel/user"
	"github.com/tsegaye/travel-listings/internal/core/events"
)

type ServiceAPI interface {
	CreateBooking(guestID string, dto CreateBookingDTO) (*Booking, error)
	GetBooking(id, requesterID, requesterRole string) (*Booking, error)
	GuestBookings(guestID string, limit, offset int) ([]*Booking, error)
	HostBookings(hostID string, limit, offset int) ([]*Booking, error)
	CancelBooking(id, requesterID, requesterRole string) (*Booking, error)
	RescheduleBooking(id, requesterID, requesterRole string, dto RescheduleBookingDTO) (*Booking, error)
	ConfirmBooking(id string) error
	CompleteBooking(id string) error
}

// Service handles booking business logic
type Service struct {
	repo   Repository
	bus    *events.EventBus
	logger *slog.Logger
}

func NewService(repo Repository, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		bus:    bus,
		logger: logger,
	}
}

// CreateBooking books a stay. The total is the listing's nightly price times
// the number of nights between check-in and check-out.
func (s *Service) CreateBooking(guestID string, dto CreateBookingDTO) (*Booking, error) {
	start, end, err := dto.Parse()
	if err != nil {
		s.logger.Error("booking validation failed", "error", err, "guest_id", guestID)
		return nil, err
	}

	info, err := s.repo.ListingInfo(dto.ListingID)
	if err != nil {
		s.logger.Error("failed to resolve listing", "error", err, "listing_id", dto.ListingID)
		return nil, apperrors.NewInternalError("failed to resolve listing", err)
	}
	if info == nil {
		return nil, apperrors.ErrListingNotFound
	}

	overlap, err := s.repo.HasOverlap(dto.ListingID, "", start, end)
	if err != nil {
		s.logger.Error("availability check failed", "error", err, "listing_id", dto.ListingID)
		return nil, apperrors.NewInternalError("failed to check availability", err)
	}
	if overlap {
		return nil, apperrors.NewConflictError("listing is not available for the selected dates",
			apperrors.ErrCodeInvalidDate)
	}

	nights := Nights(start, end)
	total := info.PricePerNight.Mul(decimal.NewFromInt(int64(nights)))

	b := &bookingDatamodel.Booking{
		ListingID:  dto.ListingID,
		GuestID:    guestID,
		Status:     bookingDatamodel.StatusPending,
		StartDate:  start,
		EndDate:    end,
		TotalPrice: total,
	}
	if err := s.repo.Create(b); err != nil {
		s.logger.Error("failed to create booking", "error", err, "guest_id", guestID)
		return nil, apperrors.NewInternalError("failed to create booking", err)
	}

	s.logger.Info("booking created",
		"booking_id", b.ID,
		"listing_id", dto.ListingID,
		"guest_id", guestID,
		"nights", nights,
		"total_price", total.String())

	s.publishCreated(b, info)

	return FromDataModel(b), nil
}

func (s *Service) publishCreated(b *bookingDatamodel.Booking, info *ListingInfo) {
	if s.bus == nil {
		return
	}

	contact, err := s.repo.GuestContact(b.GuestID)
	if err != nil || contact == nil {
		s.logger.Error("failed to resolve guest contact for notification",
			"booking_id", b.ID,
			"guest_id", b.GuestID,
			"error", err)
		return
	}

	event := events.NewBookingCreatedEvent(b.ID, contact.Email, info.Title, b.StartDate, b.EndDate)
	s.bus.Publish(context.Background(), event)
}

// GetBooking returns a booking if the requester is its guest, the host of
// the booked listing, or an admin.
func (s *Service) GetBooking(id, requesterID, requesterRole string) (*Booking, error) {
	b, err := s.getExisting(id)
	if err != nil {
		return nil, err
	}

	if requesterRole != userDatamodel.RoleAdmin && b.GuestID != requesterID {
		info, err := s.repo.ListingInfo(b.ListingID)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to resolve listing", err)
		}
		if info == nil || info.HostID != requesterID {
			return nil, apperrors.ErrNotBookingOwner
		}
	}

	return FromDataModel(b), nil
}

func (s *Service) GuestBookings(guestID string, limit, offset int) ([]*Booking, error) {
	bookings, err := s.repo.ForGuest(guestID, normalizeLimit(limit), offset)
	if err != nil {
		s.logger.Error("failed to list guest bookings", "error", err, "guest_id", guestID)
		return nil, apperrors.NewInternalError("failed to list bookings", err)
	}
	return FromDataModelSlice(bookings), nil
}

func (s *Service) HostBookings(hostID string, limit, offset int) ([]*Booking, error) {
	bookings, err := s.repo.ForHost(hostID, normalizeLimit(limit), offset)
	if err != nil {
		s.logger.Error("failed to list host bookings", "error", err, "host_id", hostID)
		return nil, apperrors.NewInternalError("failed to list bookings", err)
	}
	return FromDataModelSlice(bookings), nil
}

// CancelBooking cancels a pending or confirmed booking. Only the guest who
// made it or an admin may cancel.
func (s *Service) CancelBooking(id, requesterID, requesterRole string) (*Booking, error) {
	b, err := s.getExisting(id)
	if err != nil {
		return nil, err
	}

	if requesterRole != userDatamodel.RoleAdmin && b.GuestID != requesterID {
		return nil, apperrors.ErrNotBookingOwner
	}

	switch b.Status {
	case bookingDatamodel.StatusPending, bookingDatamodel.StatusConfirmed:
	default:
		return nil, apperrors.NewConflictError("booking can no longer be cancelled",
			apperrors.ErrCodeValidationFailed)
	}

	if err := s.repo.UpdateStatus(id, bookingDatamodel.StatusCancelled); err != nil {
		s.logger.Error("failed to cancel booking", "error", err, "booking_id", id)
		return nil, apperrors.NewInternalError("failed to cancel booking", err)
	}

	b.Status = bookingDatamodel.StatusCancelled
	s.logger.Info("booking cancelled", "booking_id", id, "requester_id", requesterID)

	return FromDataModel(b), nil
}

// RescheduleBooking moves a pending or confirmed booking to new dates. Only
// the guest who made it or an admin may reschedule; the overlap check is
// re-run against the other bookings of the listing and the total price is
// recomputed from the new number of nights.
func (s *Service) RescheduleBooking(id, requesterID, requesterRole string, dto RescheduleBookingDTO) (*Booking, error) {
	b, err := s.getExisting(id)
	if err != nil {
		return nil, err
	}

	if requesterRole != userDatamodel.RoleAdmin && b.GuestID != requesterID {
		return nil, apperrors.ErrNotBookingOwner
	}

	switch b.Status {
	case bookingDatamodel.StatusPending, bookingDatamodel.StatusConfirmed:
	default:
		return nil, apperrors.NewConflictError("booking can no longer be rescheduled",
			apperrors.ErrCodeValidationFailed)
	}

	start, end, err := dto.Parse(b.StartDate, b.EndDate)
	if err != nil {
		s.logger.Error("reschedule validation failed", "error", err, "booking_id", id)
		return nil, err
	}

	info, err := s.repo.ListingInfo(b.ListingID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to resolve listing", err)
	}
	if info == nil {
		return nil, apperrors.ErrListingNotFound
	}

	overlap, err := s.repo.HasOverlap(b.ListingID, b.ID, start, end)
	if err != nil {
		s.logger.Error("availability check failed", "error", err, "listing_id", b.ListingID)
		return nil, apperrors.NewInternalError("failed to check availability", err)
	}
	if overlap {
		return nil, apperrors.NewConflictError("listing is not available for the selected dates",
			apperrors.ErrCodeInvalidDate)
	}

	nights := Nights(start, end)
	total := info.PricePerNight.Mul(decimal.NewFromInt(int64(nights)))

	if err := s.repo.Reschedule(b.ID, start, end, total); err != nil {
		s.logger.Error("failed to reschedule booking", "error", err, "booking_id", id)
		return nil, apperrors.NewInternalError("failed to reschedule booking", err)
	}

	b.StartDate = start
	b.EndDate = end
	b.TotalPrice = total

	s.logger.Info("booking rescheduled",
		"booking_id", id,
		"requester_id", requesterID,
		"nights", nights,
		"total_price", total.String())

	return FromDataModel(b), nil
}

// ConfirmBooking marks a booking confirmed, normally after its payment
// settles.
func (s *Service) ConfirmBooking(id string) error {
	b, err := s.getExisting(id)
	if err != nil {
		return err
	}
	if b.Status != bookingDatamodel.StatusPending {
		s.logger.Warn("confirm skipped for non-pending booking",
			"booking_id", id,
			"status", b.Status)
		return nil
	}

	if err := s.repo.UpdateStatus(id, bookingDatamodel.StatusConfirmed); err != nil {
		s.logger.Error("failed to confirm booking", "error", err, "booking_id", id)
		return apperrors.NewInternalError("failed to confirm booking", err)
	}

	s.logger.Info("booking confirmed", "booking_id", id)
	return nil
}

// CompleteBooking marks a confirmed booking completed after the stay.
func (s *Service) CompleteBooking(id string) error {
	b, err := s.getExisting(id)
	if err != nil {
		return err
	}
	if b.Status != bookingDatamodel.StatusConfirmed {
		return apperrors.NewConflictError("only confirmed bookings can be completed",
			apperrors.ErrCodeValidationFailed)
	}

	if err := s.repo.UpdateStatus(id, bookingDatamodel.StatusCompleted); err != nil {
		return apperrors.NewInternalError("failed to complete booking", err)
	}

	s.logger.Info("booking completed", "booking_id", id)
	return nil
}

func (s *Service) getExisting(id string) (*bookingDatamodel.Booking, error) {
	b, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get booking", "error", err, "booking_id", id)
		return nil, apperrors.NewInternalError("failed to get booking", err)
	}
	if b == nil {
		return nil, apperrors.ErrBookingNotFound
	}
	return b, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}
