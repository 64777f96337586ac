package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/tsegaye/travel-listings/internal"
	userDatamodel "github.com/tsegaye/travel-listings/internal/core/datamodel/user"
)

type UserRepository interface {
	GetByEmail(email string) (*userDatamodel.User, error)
	GetByID(userID string) (*userDatamodel.User, error)
	Create(u *userDatamodel.User) error
}

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	Register(dto RegisterDTO) (*User, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetUser(userID string) (*User, error)
}

// Service is the main auth service with dependencies
type Service struct {
	userRepo       UserRepository
	tokenGenerator TokenGenerator
	bcryptCost     int
}

// NewService creates a new auth service. Costs outside bcrypt's supported
// range fall back to the library default.
func NewService(userRepo UserRepository, tokenGen TokenGenerator, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo:       userRepo,
		tokenGenerator: tokenGen,
		bcryptCost:     bcryptCost,
	}
}

// NewJWTTokenGenerator creates a new JWT token generator
func NewJWTTokenGenerator(accessSecret, refreshSecret string) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    24 * 7 * time.Hour,
	}
}

// Authenticate validates credentials and returns tokens
func (s *Service) Authenticate(dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	u, err := s.userRepo.GetByEmail(dto.Email)
	if err != nil || u == nil {
		return AuthTokens{}, apperrors.ErrInvalidCredentials
	}
	if !u.IsActive {
		return AuthTokens{}, apperrors.ErrUserInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, apperrors.ErrInvalidCredentials
	}

	return s.issueTokens(u)
}

// Register creates a new account with a guest role unless one was requested.
func (s *Service) Register(dto RegisterDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(dto.Email)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to check for existing account", err)
	}
	if existing != nil {
		return nil, apperrors.NewConflictError("an account with this email already exists",
			apperrors.ErrCodeValidationFailed)
	}

	hash, err := s.HashPassword(dto.Password)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to hash password", err)
	}

	role := dto.Role
	if role == "" {
		role = userDatamodel.RoleGuest
	}

	u := &userDatamodel.User{
		Email:        dto.Email,
		PasswordHash: hash,
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		PhoneNumber:  dto.PhoneNumber,
		Role:         role,
		IsActive:     true,
	}
	if err := s.userRepo.Create(u); err != nil {
		return nil, apperrors.NewInternalError("failed to create account", err)
	}

	return toView(u), nil
}

// RefreshTokens validates refresh token and returns new tokens
func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	u, err := s.userRepo.GetByID(claims.UserID)
	if err != nil || u == nil {
		return AuthTokens{}, apperrors.ErrInvalidToken
	}
	if !u.IsActive {
		return AuthTokens{}, apperrors.ErrUserInactive
	}

	return s.issueTokens(u)
}

// ValidateAccessToken validates access token and returns claims
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateToken(tokenString)
}

// GetUser loads an active user by id.
func (s *Service) GetUser(userID string) (*User, error) {
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load user", err)
	}
	if u == nil || !u.IsActive {
		return nil, apperrors.ErrInvalidToken
	}
	return toView(u), nil
}

func (s *Service) issueTokens(u *userDatamodel.User) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(u.ID, u.Email, u.Role)
	if err != nil {
		return AuthTokens{}, err
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(u.ID, u.Email, u.Role)
	if err != nil {
		return AuthTokens{}, err
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func toView(u *userDatamodel.User) *User {
	return &User{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	}
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// GenerateAccessToken creates a new access token
func (j *JWTTokenGenerator) GenerateAccessToken(userID, email, role string) (string, error) {
	return j.signed(userID, email, role, j.AccessTokenTTL, j.AccessTokenSecret)
}

// GenerateRefreshToken creates a new refresh token
func (j *JWTTokenGenerator) GenerateRefreshToken(userID, email, role string) (string, error) {
	return j.signed(userID, email, role, j.RefreshTokenTTL, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) signed(userID, email, role string, ttl time.Duration, secret []byte) (string, error) {
	expiresAt := time.Now().Add(ttl)

	claims := &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates a JWT token and returns claims
func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		// Long-lived tokens were signed with the refresh secret.
		if claims, ok := token.Claims.(*Claims); ok {
			if time.Until(claims.ExpiresAt.Time) > j.AccessTokenTTL {
				return j.RefreshTokenSecret, nil
			}
		}
		return j.AccessTokenSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, apperrors.ErrInvalidToken
}
