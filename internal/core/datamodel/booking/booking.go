package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

type Booking struct {
	ID         string          `gorm:"primaryKey;type:uuid"`
	ListingID  string          `gorm:"column:listing_id;type:uuid;not null;index"`
	GuestID    string          `gorm:"column:guest_id;type:uuid;not null;index"`
	Status     string          `gorm:"column:status;not null;default:pending"`
	StartDate  time.Time       `gorm:"column:start_date;type:date;not null"`
	EndDate    time.Time       `gorm:"column:end_date;type:date;not null"`
	TotalPrice decimal.Decimal `gorm:"column:total_price;type:numeric(10,2);not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;default:now()"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;default:now()"`
}

func (Booking) TableName() string {
	return "bookings"
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
