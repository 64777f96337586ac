package payment

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	StatusPending    = "pending"
	StatusSuccessful = "successful"
	StatusFailed     = "failed"
)

// Payment is one attempt to pay for a booking. Records are append-mostly:
// once a row reaches a terminal status it is never overwritten or deleted.
type Payment struct {
	ID              string          `gorm:"primaryKey;type:uuid"`
	BookingID       string          `gorm:"column:booking_id;type:uuid;not null;index"`
	TxRef           string          `gorm:"column:tx_ref;not null;uniqueIndex"`
	Amount          decimal.Decimal `gorm:"column:amount;type:numeric(10,2);not null"`
	Currency        string          `gorm:"column:currency;not null;default:ETB"`
	Status          string          `gorm:"column:status;not null;default:pending;index"`
	GatewayResponse json.RawMessage `gorm:"column:gateway_response;type:jsonb"`
	FailureReason   *string         `gorm:"column:failure_reason"`
	PaymentDate     time.Time       `gorm:"column:payment_date;not null"`
	ProcessedAt     *time.Time      `gorm:"column:processed_at"`
	CreatedAt       time.Time       `gorm:"column:created_at;default:now()"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;default:now()"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.PaymentDate.IsZero() {
		p.PaymentDate = time.Now().UTC()
	}
	return nil
}

// IsTerminal reports whether the status permits no further transitions.
func IsTerminal(status string) bool {
	return status == StatusSuccessful || status == StatusFailed
}

// CanTransition reports whether a status change is legal. The lifecycle is
// strictly forward-only: pending -> successful, pending -> failed.
func CanTransition(from, to string) bool {
	if from != StatusPending {
		return false
	}
	return to == StatusSuccessful || to == StatusFailed
}
