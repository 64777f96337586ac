package postgres

import (
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tsegaye/travel-listings/internal/core/datamodel/booking"
)

func TestBookingRepository(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Booking Repository Suite")
}

// BookingSQLite mirrors the bookings table with SQLite-friendly column types
type BookingSQLite struct {
	ID         string    `gorm:"primaryKey"`
	ListingID  string    `gorm:"column:listing_id;not null;index"`
	GuestID    string    `gorm:"column:guest_id;not null;index"`
	Status     string    `gorm:"column:status;default:pending"`
	StartDate  time.Time `gorm:"column:start_date;not null"`
	EndDate    time.Time `gorm:"column:end_date;not null"`
	TotalPrice string    `gorm:"column:total_price"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (BookingSQLite) TableName() string {
	return "bookings"
}

var _ = ginkgo.Describe("BookingRepository", func() {
	var (
		db   *gorm.DB
		repo *BookingRepository
	)

	const (
		listingID = "listing-1"
		guestID   = "guest-1"
	)

	date := func(day int) time.Time {
		return time.Date(2026, 10, day, 0, 0, 0, 0, time.UTC)
	}

	newBooking := func(start, end time.Time, status string) *booking.Booking {
		return &booking.Booking{
			ListingID:  listingID,
			GuestID:    guestID,
			Status:     status,
			StartDate:  start,
			EndDate:    end,
			TotalPrice: decimal.NewFromInt(7000),
		}
	}

	ginkgo.BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			TranslateError: true,
			NowFunc: func() time.Time {
				return time.Now().UTC()
			},
		})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		gomega.Expect(db.AutoMigrate(&BookingSQLite{})).To(gomega.Succeed())

		repo = NewBookingRepository(db)
	})

	ginkgo.Describe("HasOverlap", func() {
		var existing *booking.Booking

		ginkgo.BeforeEach(func() {
			existing = newBooking(date(10), date(13), booking.StatusConfirmed)
			gomega.Expect(repo.Create(existing)).To(gomega.Succeed())
		})

		ginkgo.It("should report intersecting dates", func() {
			overlap, err := repo.HasOverlap(listingID, "", date(12), date(15))

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(overlap).To(gomega.BeTrue())
		})

		ginkgo.It("should ignore back-to-back stays", func() {
			overlap, err := repo.HasOverlap(listingID, "", date(13), date(16))

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(overlap).To(gomega.BeFalse())
		})

		ginkgo.It("should ignore cancelled bookings", func() {
			gomega.Expect(db.Model(&BookingSQLite{}).
				Where("id = ?", existing.ID).
				Update("status", booking.StatusCancelled).Error).ToNot(gomega.HaveOccurred())

			overlap, err := repo.HasOverlap(listingID, "", date(12), date(15))

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(overlap).To(gomega.BeFalse())
		})

		ginkgo.It("should leave the excluded booking out of the check", func() {
			overlap, err := repo.HasOverlap(listingID, existing.ID, date(11), date(14))

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(overlap).To(gomega.BeFalse())
		})

		ginkgo.It("should still notice other bookings when one is excluded", func() {
			other := newBooking(date(14), date(16), booking.StatusPending)
			gomega.Expect(repo.Create(other)).To(gomega.Succeed())

			overlap, err := repo.HasOverlap(listingID, existing.ID, date(11), date(15))

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(overlap).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("Reschedule", func() {
		ginkgo.It("should persist the new dates and total", func() {
			// Given
			b := newBooking(date(10), date(13), booking.StatusPending)
			gomega.Expect(repo.Create(b)).To(gomega.Succeed())

			// When
			err := repo.Reschedule(b.ID, date(20), date(22), decimal.NewFromInt(4400))

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			updated, gerr := repo.GetByID(b.ID)
			gomega.Expect(gerr).ToNot(gomega.HaveOccurred())
			gomega.Expect(updated.StartDate.UTC()).To(gomega.Equal(date(20)))
			gomega.Expect(updated.EndDate.UTC()).To(gomega.Equal(date(22)))
			gomega.Expect(updated.TotalPrice.Equal(decimal.NewFromInt(4400))).To(gomega.BeTrue())
		})
	})
})
