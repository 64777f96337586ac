package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/tsegaye/travel-listings/internal"
	"github.com/tsegaye/travel-listings/internal/auth"
	userDatamodel "github.com/tsegaye/travel-listings/internal/core/datamodel/user"
)

func TestAuth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Module Suite")
}

type mockUserRepository struct {
	byEmail map[string]*userDatamodel.User
	byID    map[string]*userDatamodel.User

	getError    error
	createError error
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		byEmail: make(map[string]*userDatamodel.User),
		byID:    make(map[string]*userDatamodel.User),
	}
}

func (m *mockUserRepository) GetByEmail(email string) (*userDatamodel.User, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	return m.byEmail[email], nil
}

func (m *mockUserRepository) GetByID(userID string) (*userDatamodel.User, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	return m.byID[userID], nil
}

func (m *mockUserRepository) Create(u *userDatamodel.User) error {
	if m.createError != nil {
		return m.createError
	}
	u.ID = uuid.NewString()
	m.byEmail[u.Email] = u
	m.byID[u.ID] = u
	return nil
}

func (m *mockUserRepository) add(email, password, role string, active bool) *userDatamodel.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := &userDatamodel.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    "Girum",
		LastName:     "Guest",
		Role:         role,
		IsActive:     active,
	}
	m.byEmail[email] = u
	m.byID[u.ID] = u
	return u
}

var _ = Describe("AuthService", func() {
	var (
		service  *auth.Service
		repo     *mockUserRepository
		tokenGen *auth.JWTTokenGenerator
	)

	BeforeEach(func() {
		repo = newMockUserRepository()
		tokenGen = auth.NewJWTTokenGenerator(
			"test-access-secret-0123456789abcdef",
			"test-refresh-secret-0123456789abcdef",
		)
		service = auth.NewService(repo, tokenGen, bcrypt.MinCost)
	})

	Describe("Authenticate", func() {
		Context("with valid credentials", func() {
			It("should return access and refresh tokens", func() {
				repo.add("guest@travel.local", "password123", userDatamodel.RoleGuest, true)

				tokens, err := service.Authenticate(auth.LoginDTO{
					Email:    "guest@travel.local",
					Password: "password123",
				})

				Expect(err).ToNot(HaveOccurred())
				Expect(tokens.AccessToken).ToNot(BeEmpty())
				Expect(tokens.RefreshToken).ToNot(BeEmpty())
			})
		})

		Context("with a wrong password", func() {
			It("should return invalid credentials", func() {
				repo.add("guest@travel.local", "password123", userDatamodel.RoleGuest, true)

				_, err := service.Authenticate(auth.LoginDTO{
					Email:    "guest@travel.local",
					Password: "wrong-password",
				})

				Expect(err).To(MatchError(apperrors.ErrInvalidCredentials))
			})
		})

		Context("with an unknown email", func() {
			It("should return invalid credentials, not a lookup miss", func() {
				_, err := service.Authenticate(auth.LoginDTO{
					Email:    "nobody@travel.local",
					Password: "password123",
				})

				Expect(err).To(MatchError(apperrors.ErrInvalidCredentials))
			})
		})

		Context("with a deactivated account", func() {
			It("should refuse", func() {
				repo.add("guest@travel.local", "password123", userDatamodel.RoleGuest, false)

				_, err := service.Authenticate(auth.LoginDTO{
					Email:    "guest@travel.local",
					Password: "password123",
				})

				Expect(err).To(MatchError(apperrors.ErrUserInactive))
			})
		})
	})

	Describe("Register", func() {
		validDTO := func() auth.RegisterDTO {
			return auth.RegisterDTO{
				Email:     "new@travel.local",
				Password:  "password123",
				FirstName: "Hanna",
				LastName:  "Host",
			}
		}

		It("should create an active guest account by default", func() {
			result, err := service.Register(validDTO())

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Role).To(Equal(userDatamodel.RoleGuest))
			Expect(repo.byEmail["new@travel.local"].IsActive).To(BeTrue())
		})

		It("should hash passwords at the configured bcrypt cost", func() {
			_, err := service.Register(validDTO())

			Expect(err).ToNot(HaveOccurred())
			cost, err := bcrypt.Cost([]byte(repo.byEmail["new@travel.local"].PasswordHash))
			Expect(err).ToNot(HaveOccurred())
			Expect(cost).To(Equal(bcrypt.MinCost))
		})

		It("should fall back to the default cost when configured out of range", func() {
			fallback := auth.NewService(repo, tokenGen, 99)

			_, err := fallback.Register(validDTO())

			Expect(err).ToNot(HaveOccurred())
			cost, err := bcrypt.Cost([]byte(repo.byEmail["new@travel.local"].PasswordHash))
			Expect(err).ToNot(HaveOccurred())
			Expect(cost).To(Equal(bcrypt.DefaultCost))
		})

		It("should honor a requested host role", func() {
			dto := validDTO()
			dto.Role = userDatamodel.RoleHost

			result, err := service.Register(dto)

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Role).To(Equal(userDatamodel.RoleHost))
		})

		It("should never store the plaintext password", func() {
			_, err := service.Register(validDTO())

			Expect(err).ToNot(HaveOccurred())
			stored := repo.byEmail["new@travel.local"].PasswordHash
			Expect(stored).ToNot(Equal("password123"))
			Expect(bcrypt.CompareHashAndPassword([]byte(stored), []byte("password123"))).To(Succeed())
		})

		It("should reject a duplicate email", func() {
			repo.add("new@travel.local", "whatever1", userDatamodel.RoleGuest, true)

			result, err := service.Register(validDTO())

			Expect(result).To(BeNil())
			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(apperrors.ErrorTypeConflict))
		})

		It("should reject a short password", func() {
			dto := validDTO()
			dto.Password = "short"

			_, err := service.Register(dto)

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ValidateAccessToken", func() {
		It("should round-trip claims through a generated token", func() {
			u := repo.add("guest@travel.local", "password123", userDatamodel.RoleGuest, true)
			tokens, err := service.Authenticate(auth.LoginDTO{
				Email:    "guest@travel.local",
				Password: "password123",
			})
			Expect(err).ToNot(HaveOccurred())

			claims, err := service.ValidateAccessToken(tokens.AccessToken)

			Expect(err).ToNot(HaveOccurred())
			Expect(claims.UserID).To(Equal(u.ID))
			Expect(claims.Email).To(Equal("guest@travel.local"))
			Expect(claims.Role).To(Equal(userDatamodel.RoleGuest))
		})

		It("should reject garbage", func() {
			_, err := service.ValidateAccessToken("not-a-token")

			Expect(err).To(MatchError(apperrors.ErrInvalidToken))
		})

		It("should reject an expired token", func() {
			expiredGen := &auth.JWTTokenGenerator{
				AccessTokenSecret:  []byte("test-access-secret-0123456789abcdef"),
				RefreshTokenSecret: []byte("test-refresh-secret-0123456789abcdef"),
				AccessTokenTTL:     -time.Minute,
				RefreshTokenTTL:    -time.Hour,
			}
			token, err := expiredGen.GenerateAccessToken("user-1", "guest@travel.local", userDatamodel.RoleGuest)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.ValidateAccessToken(token)

			Expect(err).To(MatchError(apperrors.ErrTokenExpired))
		})
	})

	Describe("RefreshTokens", func() {
		It("should issue a fresh pair for a valid refresh token", func() {
			repo.add("guest@travel.local", "password123", userDatamodel.RoleGuest, true)
			tokens, err := service.Authenticate(auth.LoginDTO{
				Email:    "guest@travel.local",
				Password: "password123",
			})
			Expect(err).ToNot(HaveOccurred())

			refreshed, err := service.RefreshTokens(tokens.RefreshToken)

			Expect(err).ToNot(HaveOccurred())
			Expect(refreshed.AccessToken).ToNot(BeEmpty())
			Expect(refreshed.RefreshToken).ToNot(BeEmpty())
		})

		It("should refuse once the account is deactivated", func() {
			u := repo.add("guest@travel.local", "password123", userDatamodel.RoleGuest, true)
			tokens, err := service.Authenticate(auth.LoginDTO{
				Email:    "guest@travel.local",
				Password: "password123",
			})
			Expect(err).ToNot(HaveOccurred())

			u.IsActive = false

			_, err = service.RefreshTokens(tokens.RefreshToken)

			Expect(err).To(MatchError(apperrors.ErrUserInactive))
		})
	})

	Describe("GetUser", func() {
		It("should return the view of an active user", func() {
			u := repo.add("guest@travel.local", "password123", userDatamodel.RoleGuest, true)

			result, err := service.GetUser(u.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Email).To(Equal("guest@travel.local"))
		})

		It("should refuse an inactive user", func() {
			u := repo.add("guest@travel.local", "password123", userDatamodel.RoleGuest, false)

			_, err := service.GetUser(u.ID)

			Expect(err).To(MatchError(apperrors.ErrInvalidToken))
		})
	})
})
