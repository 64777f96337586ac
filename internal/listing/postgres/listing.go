package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/tsegaye/travel-listings/internal/core/datamodel/listing"
	listingpkg "github.com/tsegaye/travel-listings/internal/listing"
)

type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) listingpkg.Repository {
	return &ListingRepository{
		db: db,
	}
}

func (r *ListingRepository) Create(l *listing.Listing) error {
	return r.db.Create(l).Error
}

func (r *ListingRepository) GetByID(id string) (*listing.Listing, error) {
	var l listing.Listing
	if err := r.db.Where("id = ?", id).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *ListingRepository) Search(filters listingpkg.SearchFilters) ([]*listing.Listing, error) {
	query := r.db.Model(&listing.Listing{})

	if filters.City != "" {
		query = query.Where("city = ?", filters.City)
	}
	if filters.Country != "" {
		query = query.Where("country = ?", filters.Country)
	}
	if filters.PropertyType != "" {
		query = query.Where("property_type = ?", filters.PropertyType)
	}
	if filters.HostID != "" {
		query = query.Where("host_id = ?", filters.HostID)
	}
	if !filters.MinPrice.IsZero() {
		query = query.Where("price_per_night >= ?", filters.MinPrice)
	}
	if !filters.MaxPrice.IsZero() {
		query = query.Where("price_per_night <= ?", filters.MaxPrice)
	}
	if filters.MinBedrooms > 0 {
		query = query.Where("bedrooms >= ?", filters.MinBedrooms)
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var listings []*listing.Listing
	err := query.Order("created_at DESC").Find(&listings).Error
	return listings, err
}

func (r *ListingRepository) Update(l *listing.Listing) error {
	return r.db.Save(l).Error
}

func (r *ListingRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&listing.Listing{}).Error
}

func (r *ListingRepository) CreateReview(rv *listing.Review) error {
	return r.db.Create(rv).Error
}

func (r *ListingRepository) ReviewsForListing(listingID string, limit, offset int) ([]*listing.Review, error) {
	query := r.db.Where("listing_id = ?", listingID).Order("created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var reviews []*listing.Review
	err := query.Find(&reviews).Error
	return reviews, err
}
