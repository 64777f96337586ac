package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tsegaye/travel-listings/internal/core/events"
)

const defaultQueueSize = 256

// Dispatcher fans booking notifications out to a pool of mail workers. Mail
// delivery is fire-and-forget: a full queue or a failed send is logged and
// dropped, it never propagates back into the booking flow.
type Dispatcher struct {
	mailer  Mailer
	workers int
	jobs    chan Message
	logger  *slog.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewDispatcher(mailer Mailer, workers int, logger *slog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 4
	}
	return &Dispatcher{
		mailer:  mailer,
		workers: workers,
		jobs:    make(chan Message, defaultQueueSize),
		logger:  logger,
	}
}

// Start launches the worker pool. Workers drain the queue until Stop is
// called.
func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work(i)
	}
	d.logger.Info("notification dispatcher started", "workers", d.workers)
}

// Stop closes the queue and waits for in-flight deliveries to finish.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.jobs)
	})
	d.wg.Wait()
	d.logger.Info("notification dispatcher stopped")
}

// Enqueue queues a message for delivery. Messages are dropped when the queue
// is full.
func (d *Dispatcher) Enqueue(msg Message) {
	select {
	case d.jobs <- msg:
	default:
		d.logger.Warn("notification queue full, dropping message", "to", msg.To, "subject", msg.Subject)
	}
}

func (d *Dispatcher) work(id int) {
	defer d.wg.Done()

	for msg := range d.jobs {
		if err := d.mailer.Send(msg); err != nil {
			d.logger.Error("failed to send notification",
				"worker", id,
				"to", msg.To,
				"error", err)
			continue
		}
		d.logger.Info("notification sent", "worker", id, "to", msg.To, "subject", msg.Subject)
	}
}

// Register subscribes the dispatcher to the events that produce mail.
func (d *Dispatcher) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeBookingCreated, d.handleBookingCreated)
}

func (d *Dispatcher) handleBookingCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.BookingCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	const dateLayout = "Monday, 2 January 2006"

	body := fmt.Sprintf(
		"Your booking at %s is confirmed for %s through %s.\n\n"+
			"Booking reference: %s\n\n"+
			"Complete your payment to secure the reservation.\n",
		e.ListingName,
		e.StartDate.Format(dateLayout),
		e.EndDate.Format(dateLayout),
		e.BookingID,
	)

	d.Enqueue(Message{
		To:      e.GuestEmail,
		Subject: fmt.Sprintf("Booking received for %s", e.ListingName),
		Body:    body,
	})
	return nil
}
