package listing

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Listing struct {
	ID            string          `gorm:"primaryKey;type:uuid"`
	Title         string          `gorm:"column:title;not null"`
	Description   string          `gorm:"column:description;not null"`
	Address       string          `gorm:"column:address;not null"`
	City          string          `gorm:"column:city;not null"`
	Country       string          `gorm:"column:country;not null"`
	PricePerNight decimal.Decimal `gorm:"column:price_per_night;type:numeric(10,2);not null"`
	PropertyType  string          `gorm:"column:property_type;not null"`
	Bedrooms      int             `gorm:"column:bedrooms;not null"`
	HostID        string          `gorm:"column:host_id;type:uuid;not null;index"`
	Amenities     json.RawMessage `gorm:"column:amenities;type:jsonb"`
	CreatedAt     time.Time       `gorm:"column:created_at;default:now()"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;default:now()"`
}

func (Listing) TableName() string {
	return "listings"
}

func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

type Review struct {
	ID        string    `gorm:"primaryKey;type:uuid"`
	ListingID string    `gorm:"column:listing_id;type:uuid;not null;index"`
	GuestID   string    `gorm:"column:guest_id;type:uuid;not null"`
	Rating    int       `gorm:"column:rating;not null"`
	Comment   string    `gorm:"column:comment"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
}

func (Review) TableName() string {
	return "reviews"
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
