package payment_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	apperrors "github.com/tsegaye/travel-listings/internal"
	paymentDatamodel "github.com/tsegaye/travel-listings/internal/core/datamodel/payment"
	userDatamodel "github.com/tsegaye/travel-listings/internal/core/datamodel/user"
	"github.com/tsegaye/travel-listings/internal/lock"
	paymentPkg "github.com/tsegaye/travel-listings/internal/payment"
	"github.com/tsegaye/travel-listings/internal/paymentgateway"
)

func TestPaymentService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Payment Service Suite")
}

// Mock repository for testing
type mockRepository struct {
	mu sync.Mutex

	byID    map[string]*paymentDatamodel.Payment
	byTxRef map[string]*paymentDatamodel.Payment

	createError      error
	createErrorQueue []error
	getError         error
	updateError      error

	lastScope   paymentPkg.AccessScope
	listResults []*paymentDatamodel.Payment
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		byID:    make(map[string]*paymentDatamodel.Payment),
		byTxRef: make(map[string]*paymentDatamodel.Payment),
	}
}

func (m *mockRepository) Create(p *paymentDatamodel.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.createErrorQueue) > 0 {
		err := m.createErrorQueue[0]
		m.createErrorQueue = m.createErrorQueue[1:]
		if err != nil {
			return err
		}
	} else if m.createError != nil {
		return m.createError
	}

	if _, exists := m.byTxRef[p.TxRef]; exists {
		return paymentPkg.ErrDuplicateTxRef
	}

	p.ID = uuid.NewString()
	p.PaymentDate = time.Now().UTC()
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	m.byID[p.ID] = p
	m.byTxRef[p.TxRef] = p
	return nil
}

func (m *mockRepository) GetByID(id string) (*paymentDatamodel.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getError != nil {
		return nil, m.getError
	}
	return m.byID[id], nil
}

func (m *mockRepository) GetByTxRef(txRef string) (*paymentDatamodel.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getError != nil {
		return nil, m.getError
	}
	return m.byTxRef[txRef], nil
}

func (m *mockRepository) GetPendingByBooking(bookingID string) (*paymentDatamodel.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getError != nil {
		return nil, m.getError
	}
	for _, p := range m.byID {
		if p.BookingID == bookingID && p.Status == paymentDatamodel.StatusPending {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockRepository) UpdateStatus(id, status string, gatewayResponse json.RawMessage, failureReason *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateError != nil {
		return m.updateError
	}
	p, exists := m.byID[id]
	if !exists {
		return errors.New("payment not found")
	}
	if p.Status != paymentDatamodel.StatusPending {
		return paymentPkg.ErrTerminalStatus
	}
	p.Status = status
	if gatewayResponse != nil {
		p.GatewayResponse = gatewayResponse
	}
	p.FailureReason = failureReason
	now := time.Now().UTC()
	p.ProcessedAt = &now
	return nil
}

func (m *mockRepository) ListVisible(scope paymentPkg.AccessScope, filters paymentPkg.ListFilters) ([]*paymentDatamodel.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastScope = scope
	if scope.Capability == paymentPkg.CapViewNone {
		return []*paymentDatamodel.Payment{}, nil
	}
	return m.listResults, nil
}

// Mock gateway with injectable behavior
type mockGateway struct {
	mu sync.Mutex

	initializeFunc func(req paymentgateway.InitializeRequest) (*paymentgateway.Result, error)
	verifyFunc     func(txRef string) (*paymentgateway.Result, error)

	initializeCalls int
	verifyCalls     int
}

func (m *mockGateway) Initialize(_ context.Context, req paymentgateway.InitializeRequest) (*paymentgateway.Result, error) {
	m.mu.Lock()
	m.initializeCalls++
	fn := m.initializeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(req)
	}
	return &paymentgateway.Result{OK: true, Status: "success", Raw: json.RawMessage(`{"status":"success"}`)}, nil
}

func (m *mockGateway) Verify(_ context.Context, txRef string) (*paymentgateway.Result, error) {
	m.mu.Lock()
	m.verifyCalls++
	fn := m.verifyFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(txRef)
	}
	return &paymentgateway.Result{OK: true, Status: "success", Raw: json.RawMessage(`{"status":"success"}`)}, nil
}

type mockBookingReader struct {
	contexts map[string]*paymentPkg.BookingContext
}

func (m *mockBookingReader) PaymentContext(bookingID string) (*paymentPkg.BookingContext, error) {
	bctx, exists := m.contexts[bookingID]
	if !exists {
		return nil, apperrors.ErrBookingNotFound
	}
	return bctx, nil
}

var _ = Describe("PaymentService", func() {
	var (
		service  *paymentPkg.Service
		repo     *mockRepository
		gateway  *mockGateway
		bookings *mockBookingReader
		logger   *slog.Logger
	)

	const (
		bookingID = "11111111-1111-1111-1111-111111111111"
		guestID   = "22222222-2222-2222-2222-222222222222"
	)

	BeforeEach(func() {
		repo = newMockRepository()
		gateway = &mockGateway{}
		bookings = &mockBookingReader{
			contexts: map[string]*paymentPkg.BookingContext{
				bookingID: {
					BookingID:      bookingID,
					GuestID:        guestID,
					GuestEmail:     "guest@travel.local",
					GuestFirstName: "Girum",
					GuestLastName:  "Guest",
					HostID:         "33333333-3333-3333-3333-333333333333",
					ListingName:    "Lakeside Villa in Bishoftu",
					TotalPrice:     decimal.NewFromInt(7000),
				},
			},
		}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		service = paymentPkg.NewService(repo, gateway, bookings, lock.NewKeyed(), nil, nil, logger)
	})

	Describe("InitiatePayment", func() {
		Context("when the booking has no pending payment", func() {
			It("should create a pending record and return the gateway payload", func() {
				result, err := service.InitiatePayment(context.Background(), bookingID, guestID, userDatamodel.RoleGuest)

				Expect(err).ToNot(HaveOccurred())
				Expect(result).ToNot(BeNil())
				Expect(result.Payment.Status).To(Equal(paymentDatamodel.StatusPending))
				Expect(result.Payment.BookingID).To(Equal(bookingID))
				Expect(result.Payment.TxRef).To(HavePrefix("tx-"))
				Expect(result.Payment.Amount.Equal(decimal.NewFromInt(7000))).To(BeTrue())
				Expect(result.GatewayPayload).To(MatchJSON(`{"status":"success"}`))
			})

			It("should mint a fresh reference on every attempt", func() {
				first, err := service.InitiatePayment(context.Background(), bookingID, guestID, userDatamodel.RoleGuest)
				Expect(err).ToNot(HaveOccurred())

				// settle the first attempt so a second one is allowed
				Expect(repo.UpdateStatus(first.Payment.ID, paymentDatamodel.StatusFailed, nil, nil)).To(Succeed())

				second, err := service.InitiatePayment(context.Background(), bookingID, guestID, userDatamodel.RoleGuest)
				Expect(err).ToNot(HaveOccurred())
				Expect(second.Payment.TxRef).ToNot(Equal(first.Payment.TxRef))
			})
		})

		Context("when a pending payment already exists", func() {
			It("should reject with a conflict", func() {
				_, err := service.InitiatePayment(context.Background(), bookingID, guestID, userDatamodel.RoleGuest)
				Expect(err).ToNot(HaveOccurred())

				result, err := service.InitiatePayment(context.Background(), bookingID, guestID, userDatamodel.RoleGuest)

				Expect(result).To(BeNil())
				Expect(err).To(MatchError(paymentPkg.ErrPendingExists))
				Expect(gateway.initializeCalls).To(Equal(1))
			})
		})

		Context("when many initiations race for the same booking", func() {
			It("should let exactly one through", func() {
				const attempts = 8

				var wg sync.WaitGroup
				results := make([]error, attempts)
				for i := 0; i < attempts; i++ {
					wg.Add(1)
					go func(idx int) {
						defer wg.Done()
						_, err := service.InitiatePayment(context.Background(), bookingID, guestID, userDatamodel.RoleGuest)
						results[idx] = err
					}(i)
				}
				wg.Wait()

				succeeded := 0
				conflicted := 0
				for _, err := range results {
					if err == nil {
						succeeded++
					} else if errors.Is(err, paymentPkg.ErrPendingExists) {
						conflicted++
					}
				}
				Expect(succeeded).To(Equal(1))
				Expect(conflicted).To(Equal(attempts - 1))
				Expect(gateway.initializeCalls).To(Equal(1))
			})
		})

		Context("when the requester does not own the booking", func() {
			It("should refuse for another guest", func() {
				result, err := service.InitiatePayment(context.Background(), bookingID, "someone-else", userDatamodel.RoleGuest)

				Expect(result).To(BeNil())
				Expect(err).To(MatchError(apperrors.ErrNotBookingOwner))
			})

			It("should allow an admin", func() {
				_, err := service.InitiatePayment(context.Background(), bookingID, "admin-id", userDatamodel.RoleAdmin)

				Expect(err).ToNot(HaveOccurred())
			})
		})

		Context("when the booking does not exist", func() {
			It("should return not found without creating a record", func() {
				result, err := service.InitiatePayment(context.Background(), "missing-booking", guestID, userDatamodel.RoleGuest)

				Expect(result).To(BeNil())
				Expect(err).To(MatchError(apperrors.ErrBookingNotFound))
				Expect(repo.byID).To(BeEmpty())
			})
		})

		Context("when the gateway is unreachable", func() {
			It("should mark the record failed and report the gateway as unavailable", func() {
				gateway.initializeFunc = func(paymentgateway.InitializeRequest) (*paymentgateway.Result, error) {
					return nil, &paymentgateway.TransportError{Op: "initialize", Err: errors.New("connection refused")}
				}

				result, err := service.InitiatePayment(context.Background(), bookingID, guestID, userDatamodel.RoleGuest)

				Expect(result).To(BeNil())
				appErr, ok := apperrors.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(apperrors.ErrCodeGatewayUnavailable))

				Expect(repo.byID).To(HaveLen(1))
				for _, p := range repo.byID {
					Expect(p.Status).To(Equal(paymentDatamodel.StatusFailed))
					Expect(p.FailureReason).ToNot(BeNil())
				}
			})
		})

		Context("when the gateway answers 2xx with a failure status", func() {
			It("should mark the record failed and attach the gateway payload", func() {
				raw := json.RawMessage(`{"status":"failed","message":"insufficient funds"}`)
				gateway.initializeFunc = func(paymentgateway.InitializeRequest) (*paymentgateway.Result, error) {
					return &paymentgateway.Result{OK: false, Status: "failed", Raw: raw}, nil
				}

				result, err := service.InitiatePayment(context.Background(), bookingID, guestID, userDatamodel.RoleGuest)

				Expect(result).To(BeNil())
				appErr, ok := apperrors.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(apperrors.ErrCodeGatewayRejected))

				for _, p := range repo.byID {
					Expect(p.Status).To(Equal(paymentDatamodel.StatusFailed))
					Expect(p.GatewayResponse).To(MatchJSON(raw))
				}
			})
		})

		Context("when the transaction reference collides", func() {
			It("should re-mint and retry the insert", func() {
				repo.createErrorQueue = []error{paymentPkg.ErrDuplicateTxRef, nil}

				result, err := service.InitiatePayment(context.Background(), bookingID, guestID, userDatamodel.RoleGuest)

				Expect(err).ToNot(HaveOccurred())
				Expect(result.Payment.TxRef).To(HavePrefix("tx-"))
			})
		})
	})

	Describe("VerifyPayment", func() {
		var record *paymentDatamodel.Payment

		BeforeEach(func() {
			record = &paymentDatamodel.Payment{
				BookingID: bookingID,
				TxRef:     paymentPkg.NewTxRef(),
				Amount:    decimal.NewFromInt(7000),
				Currency:  "ETB",
				Status:    paymentDatamodel.StatusPending,
			}
			Expect(repo.Create(record)).To(Succeed())
		})

		Context("when the reference is unknown", func() {
			It("should return not found", func() {
				result, err := service.VerifyPayment(context.Background(), "tx-unknown")

				Expect(result).To(BeNil())
				Expect(err).To(MatchError(paymentPkg.ErrPaymentNotFound))
			})
		})

		Context("when the gateway confirms success", func() {
			It("should move a pending record to successful", func() {
				result, err := service.VerifyPayment(context.Background(), record.TxRef)

				Expect(err).ToNot(HaveOccurred())
				Expect(result.Payment.Status).To(Equal(paymentDatamodel.StatusSuccessful))
				Expect(repo.byID[record.ID].Status).To(Equal(paymentDatamodel.StatusSuccessful))
			})

			It("should be idempotent for an already successful record", func() {
				_, err := service.VerifyPayment(context.Background(), record.TxRef)
				Expect(err).ToNot(HaveOccurred())

				result, err := service.VerifyPayment(context.Background(), record.TxRef)

				Expect(err).ToNot(HaveOccurred())
				Expect(result.Payment.Status).To(Equal(paymentDatamodel.StatusSuccessful))
			})

			It("should never overwrite a locally failed record", func() {
				reason := "gateway verdict \"failed\""
				Expect(repo.UpdateStatus(record.ID, paymentDatamodel.StatusFailed, nil, &reason)).To(Succeed())

				result, err := service.VerifyPayment(context.Background(), record.TxRef)

				Expect(err).ToNot(HaveOccurred())
				Expect(result.Payment.Status).To(Equal(paymentDatamodel.StatusFailed))
			})
		})

		Context("when the gateway reports an authoritative failure", func() {
			It("should move a pending record to failed", func() {
				gateway.verifyFunc = func(string) (*paymentgateway.Result, error) {
					return &paymentgateway.Result{OK: false, Status: "declined", Raw: json.RawMessage(`{"status":"declined"}`)}, nil
				}

				result, err := service.VerifyPayment(context.Background(), record.TxRef)

				Expect(err).ToNot(HaveOccurred())
				Expect(result.Payment.Status).To(Equal(paymentDatamodel.StatusFailed))
				Expect(*repo.byID[record.ID].FailureReason).To(ContainSubstring("declined"))
			})
		})

		Context("when the gateway is unreachable", func() {
			It("should leave the record untouched and surface the error", func() {
				gateway.verifyFunc = func(string) (*paymentgateway.Result, error) {
					return nil, &paymentgateway.TransportError{Op: "verify", Err: errors.New("timeout")}
				}

				result, err := service.VerifyPayment(context.Background(), record.TxRef)

				Expect(result).To(BeNil())
				appErr, ok := apperrors.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(apperrors.ErrCodeGatewayUnavailable))
				Expect(repo.byID[record.ID].Status).To(Equal(paymentDatamodel.StatusPending))
			})
		})

		Context("when the gateway verdict is inconclusive", func() {
			It("should change nothing and report the verdict", func() {
				gateway.verifyFunc = func(string) (*paymentgateway.Result, error) {
					return &paymentgateway.Result{OK: false, Status: "processing", Raw: json.RawMessage(`{"status":"processing"}`)}, nil
				}

				result, err := service.VerifyPayment(context.Background(), record.TxRef)

				Expect(result).To(BeNil())
				appErr, ok := apperrors.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(apperrors.ErrCodeGatewayRejected))
				Expect(repo.byID[record.ID].Status).To(Equal(paymentDatamodel.StatusPending))
			})
		})
	})

	Describe("ListPayments", func() {
		It("should query with the caller's scope", func() {
			repo.listResults = []*paymentDatamodel.Payment{
				{ID: "p1", BookingID: bookingID, TxRef: "tx-abc", Status: paymentDatamodel.StatusSuccessful},
			}

			payments, err := service.ListPayments(userDatamodel.RoleGuest, guestID, paymentPkg.ListFilters{})

			Expect(err).ToNot(HaveOccurred())
			Expect(payments).To(HaveLen(1))
			Expect(repo.lastScope.Capability).To(Equal(paymentPkg.CapViewOwnGuest))
			Expect(repo.lastScope.UserID).To(Equal(guestID))
		})

		It("should return nothing for an unrecognized role", func() {
			repo.listResults = []*paymentDatamodel.Payment{
				{ID: "p1", BookingID: bookingID, TxRef: "tx-abc", Status: paymentDatamodel.StatusSuccessful},
			}

			payments, err := service.ListPayments("weird-role", guestID, paymentPkg.ListFilters{})

			Expect(err).ToNot(HaveOccurred())
			Expect(payments).To(BeEmpty())
			Expect(repo.lastScope.Capability).To(Equal(paymentPkg.CapViewNone))
		})
	})
})

var _ = Describe("transaction references", func() {
	It("should carry the tx prefix and a unique suffix", func() {
		seen := map[string]bool{}
		for i := 0; i < 100; i++ {
			ref := paymentPkg.NewTxRef()
			Expect(strings.HasPrefix(ref, paymentPkg.TxRefPrefix)).To(BeTrue())
			Expect(seen[ref]).To(BeFalse(), fmt.Sprintf("duplicate reference %s", ref))
			seen[ref] = true
		}
	})
})
