package postgres

import (
	"errors"

	"gorm.io/gorm"

	userDatamodel "github.com/tsegaye/travel-listings/internal/core/datamodel/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetByEmail(email string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	if err := r.db.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) GetByID(userID string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	if err := r.db.Where("id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) Create(u *userDatamodel.User) error {
	return r.db.Create(u).Error
}
