package listing

import (
	"log/slog"

	apperrors "github.com/tsegaye/travel-listings/internal"
	listingDatamodel "github.com/tsegaye/travel-listings/internal/core/datamodel/listing"
	userDatamodel "github.com/tsegaye/travel-listings/internal/core/datamodel/user"
)

type ServiceAPI interface {
	CreateListing(hostID string, dto CreateListingDTO) (*Listing, error)
	GetListing(id string) (*Listing, error)
	SearchListings(filters SearchFilters) ([]*Listing, error)
	UpdateListing(id, requesterID, requesterRole string, dto UpdateListingDTO) (*Listing, error)
	DeleteListing(id, requesterID, requesterRole string) error
	AddReview(listingID, guestID string, dto CreateReviewDTO) (*Review, error)
	ListReviews(listingID string, limit, offset int) ([]*Review, error)
}

// Service handles listing business logic
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) CreateListing(hostID string, dto CreateListingDTO) (*Listing, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("listing validation failed", "error", err, "host_id", hostID)
		return nil, err
	}

	l := &listingDatamodel.Listing{
		Title:         dto.Title,
		Description:   dto.Description,
		Address:       dto.Address,
		City:          dto.City,
		Country:       dto.Country,
		PricePerNight: dto.PricePerNight,
		PropertyType:  dto.PropertyType,
		Bedrooms:      dto.Bedrooms,
		HostID:        hostID,
		Amenities:     dto.Amenities,
	}

	if err := s.repo.Create(l); err != nil {
		s.logger.Error("failed to create listing", "error", err, "host_id", hostID)
		return nil, apperrors.NewInternalError("failed to create listing", err)
	}

	s.logger.Info("listing created",
		"listing_id", l.ID,
		"host_id", hostID,
		"city", l.City)

	return FromDataModel(l), nil
}

func (s *Service) GetListing(id string) (*Listing, error) {
	l, err := s.getOwned(id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(l), nil
}

func (s *Service) SearchListings(filters SearchFilters) ([]*Listing, error) {
	if filters.Limit <= 0 || filters.Limit > 200 {
		filters.Limit = 50
	}

	listings, err := s.repo.Search(filters)
	if err != nil {
		s.logger.Error("listing search failed", "error", err)
		return nil, apperrors.NewInternalError("failed to search listings", err)
	}

	return FromDataModelSlice(listings), nil
}

// UpdateListing applies a partial update. Only the host of the listing or an
// admin may modify it.
func (s *Service) UpdateListing(id, requesterID, requesterRole string, dto UpdateListingDTO) (*Listing, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	l, err := s.getOwned(id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeHost(l, requesterID, requesterRole); err != nil {
		return nil, err
	}

	if dto.Title != nil {
		l.Title = *dto.Title
	}
	if dto.Description != nil {
		l.Description = *dto.Description
	}
	if dto.Address != nil {
		l.Address = *dto.Address
	}
	if dto.City != nil {
		l.City = *dto.City
	}
	if dto.Country != nil {
		l.Country = *dto.Country
	}
	if dto.PricePerNight != nil {
		l.PricePerNight = *dto.PricePerNight
	}
	if dto.PropertyType != nil {
		l.PropertyType = *dto.PropertyType
	}
	if dto.Bedrooms != nil {
		l.Bedrooms = *dto.Bedrooms
	}
	if dto.Amenities != nil {
		l.Amenities = dto.Amenities
	}

	if err := s.repo.Update(l); err != nil {
		s.logger.Error("failed to update listing", "error", err, "listing_id", id)
		return nil, apperrors.NewInternalError("failed to update listing", err)
	}

	s.logger.Info("listing updated", "listing_id", id, "requester_id", requesterID)

	return FromDataModel(l), nil
}

func (s *Service) DeleteListing(id, requesterID, requesterRole string) error {
	l, err := s.getOwned(id)
	if err != nil {
		return err
	}
	if err := s.authorizeHost(l, requesterID, requesterRole); err != nil {
		return err
	}

	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete listing", "error", err, "listing_id", id)
		return apperrors.NewInternalError("failed to delete listing", err)
	}

	s.logger.Info("listing deleted", "listing_id", id, "requester_id", requesterID)
	return nil
}

func (s *Service) AddReview(listingID, guestID string, dto CreateReviewDTO) (*Review, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.getOwned(listingID); err != nil {
		return nil, err
	}

	rv := &listingDatamodel.Review{
		ListingID: listingID,
		GuestID:   guestID,
		Rating:    dto.Rating,
		Comment:   dto.Comment,
	}
	if err := s.repo.CreateReview(rv); err != nil {
		s.logger.Error("failed to create review", "error", err, "listing_id", listingID)
		return nil, apperrors.NewInternalError("failed to create review", err)
	}

	s.logger.Info("review created", "listing_id", listingID, "guest_id", guestID, "rating", dto.Rating)

	return ReviewFromDataModel(rv), nil
}

func (s *Service) ListReviews(listingID string, limit, offset int) ([]*Review, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	if _, err := s.getOwned(listingID); err != nil {
		return nil, err
	}

	reviews, err := s.repo.ReviewsForListing(listingID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list reviews", "error", err, "listing_id", listingID)
		return nil, apperrors.NewInternalError("failed to list reviews", err)
	}

	return ReviewsFromDataModel(reviews), nil
}

func (s *Service) getOwned(id string) (*listingDatamodel.Listing, error) {
	l, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get listing", "error", err, "listing_id", id)
		return nil, apperrors.NewInternalError("failed to get listing", err)
	}
	if l == nil {
		return nil, apperrors.ErrListingNotFound
	}
	return l, nil
}

func (s *Service) authorizeHost(l *listingDatamodel.Listing, requesterID, requesterRole string) error {
	if requesterRole == userDatamodel.RoleAdmin {
		return nil
	}
	if l.HostID != requesterID {
		s.logger.Warn("listing modification denied",
			"listing_id", l.ID,
			"host_id", l.HostID,
			"requester_id", requesterID)
		return apperrors.ErrNotListingHost
	}
	return nil
}
