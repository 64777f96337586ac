package notification_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tsegaye/travel-listings/internal/core/events"
	"github.com/tsegaye/travel-listings/internal/notification"
)

func TestNotification(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Notification Suite")
}

type mockMailer struct {
	mu        sync.Mutex
	sent      []notification.Message
	sendError error
}

func (m *mockMailer) Send(msg notification.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendError != nil {
		return m.sendError
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mockMailer) messages() []notification.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]notification.Message, len(m.sent))
	copy(out, m.sent)
	return out
}

var _ = Describe("Dispatcher", func() {
	var (
		mailer     *mockMailer
		dispatcher *notification.Dispatcher
		logger     *slog.Logger
	)

	BeforeEach(func() {
		mailer = &mockMailer{}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		dispatcher = notification.NewDispatcher(mailer, 2, logger)
		dispatcher.Start()
	})

	AfterEach(func() {
		dispatcher.Stop()
	})

	It("should deliver enqueued messages through the worker pool", func() {
		dispatcher.Enqueue(notification.Message{
			To:      "guest@travel.local",
			Subject: "Booking received",
			Body:    "Thanks for booking.",
		})

		Eventually(func() int {
			return len(mailer.messages())
		}).Should(Equal(1))
		Expect(mailer.messages()[0].To).To(Equal("guest@travel.local"))
	})

	It("should keep delivering after a send failure", func() {
		mailer.mu.Lock()
		mailer.sendError = errors.New("smtp unavailable")
		mailer.mu.Unlock()

		dispatcher.Enqueue(notification.Message{To: "a@travel.local", Subject: "first"})

		mailer.mu.Lock()
		mailer.sendError = nil
		mailer.mu.Unlock()

		dispatcher.Enqueue(notification.Message{To: "b@travel.local", Subject: "second"})

		Eventually(func() int {
			return len(mailer.messages())
		}).Should(BeNumerically(">=", 1))
	})

	Describe("booking created events", func() {
		It("should turn the event into a confirmation mail", func() {
			bus := events.NewEventBus(logger)
			dispatcher.Register(bus)

			start := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
			end := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
			event := events.NewBookingCreatedEvent(
				"booking-1",
				"guest@travel.local",
				"Lakeside Villa in Bishoftu",
				start, end)

			Expect(bus.PublishSync(context.Background(), event)).To(Succeed())

			Eventually(func() int {
				return len(mailer.messages())
			}).Should(Equal(1))

			msg := mailer.messages()[0]
			Expect(msg.To).To(Equal("guest@travel.local"))
			Expect(msg.Subject).To(ContainSubstring("Lakeside Villa in Bishoftu"))
			Expect(msg.Body).To(ContainSubstring("booking-1"))
			Expect(msg.Body).To(ContainSubstring("Thursday, 10 September 2026"))
		})
	})
})
