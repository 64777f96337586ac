package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/tsegaye/travel-listings/internal/core/datamodel/listing"
	"github.com/tsegaye/travel-listings/internal/core/datamodel/user"

	"github.com/shopspring/decimal"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initGorm(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		if clearData {
			for _, table := range []string{"payments", "bookings", "reviews", "listings", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		seedUser := func(email, firstName, lastName, role string) string {
			var existing user.User
			if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
				fmt.Printf("%s user already exists: %s\n", role, email)
				return existing.ID
			}

			u := &user.User{
				Email:        email,
				PasswordHash: string(hash),
				FirstName:    firstName,
				LastName:     lastName,
				Role:         role,
				IsActive:     true,
			}
			if err := db.Create(u).Error; err != nil {
				log.Fatalf("failed to insert %s user: %v", role, err)
			}
			fmt.Printf("Seeded %s user: %s\n", role, email)
			return u.ID
		}

		seedUser("admin@travel.local", "Abeba", "Admin", user.RoleAdmin)
		hostID := seedUser("host@travel.local", "Hanna", "Host", user.RoleHost)
		seedUser("guest@travel.local", "Girum", "Guest", user.RoleGuest)

		var count int64
		db.Model(&listing.Listing{}).Where("host_id = ?", hostID).Count(&count)
		if count > 0 {
			fmt.Println("Listings already seeded")
			return
		}

		listings := []*listing.Listing{
			{
				Title:         "Lakeside Villa in Bishoftu",
				Description:   "A quiet villa overlooking the crater lake, with a private garden.",
				Address:       "Lake Babogaya Road",
				City:          "Bishoftu",
				Country:       "Ethiopia",
				PricePerNight: decimal.NewFromInt(3500),
				PropertyType:  "villa",
				Bedrooms:      3,
				HostID:        hostID,
				Amenities:     []byte(`["wifi","parking","garden"]`),
			},
			{
				Title:         "Bole Apartment with City View",
				Description:   "Modern two-bedroom apartment close to the airport.",
				Address:       "Bole Medhanealem",
				City:          "Addis Ababa",
				Country:       "Ethiopia",
				PricePerNight: decimal.NewFromInt(2200),
				PropertyType:  "apartment",
				Bedrooms:      2,
				HostID:        hostID,
				Amenities:     []byte(`["wifi","elevator","kitchen"]`),
			},
		}
		for _, l := range listings {
			if err := db.Create(l).Error; err != nil {
				log.Fatalf("failed to insert listing: %v", err)
			}
			fmt.Println("Seeded listing:", l.Title)
		}
	},
}
