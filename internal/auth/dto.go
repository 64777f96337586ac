package auth

import (
	"strings"

	userDatamodel "github.com/tsegaye/travel-listings/internal/core/datamodel/user"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterDTO for account creation requests.
type RegisterDTO struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Role        string  `json:"role,omitempty"`
}

// RefreshTokenDTO for refresh token requests
type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

// Validate checks required fields and returns a ValidationError on failure.
func (d LoginDTO) Validate() error {
	if d.Email == "" {
		return ValidationError{Msg: "email is required"}
	}
	if d.Password == "" {
		return ValidationError{Msg: "password is required"}
	}
	return nil
}

func (d RegisterDTO) Validate() error {
	if d.Email == "" || !strings.Contains(d.Email, "@") {
		return ValidationError{Msg: "a valid email is required"}
	}
	if len(d.Password) < 8 {
		return ValidationError{Msg: "password must be at least 8 characters"}
	}
	if d.FirstName == "" {
		return ValidationError{Msg: "first_name is required"}
	}
	if d.LastName == "" {
		return ValidationError{Msg: "last_name is required"}
	}
	switch d.Role {
	case "", userDatamodel.RoleGuest, userDatamodel.RoleHost:
	default:
		return ValidationError{Msg: "role must be guest or host"}
	}
	return nil
}

// Validate for refresh token DTO
func (d RefreshTokenDTO) Validate() error {
	if d.RefreshToken == "" {
		return ValidationError{Msg: "refresh_token is required"}
	}
	return nil
}
