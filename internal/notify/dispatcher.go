// Package notify delivers reservation lifecycle notices off the request path.
// Delivery failures are retried and logged; they never reach the caller.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/logger"
	"hotel-pms-backend/internal/repository"

	"github.com/google/uuid"
)

var ErrQueueFull = errors.New("notification queue is full")

type job struct {
	ID      string
	Notice  domain.LifecycleNotice
	Retries int
}

type Options struct {
	Workers    int
	QueueSize  int
	MaxRetries int
	// Backoff is multiplied by the square of the attempt number.
	Backoff time.Duration
}

// Dispatcher writes an in-app notification for the acting staff member and
// emails the guest. It satisfies service.Notifier.
type Dispatcher struct {
	sender    Sender
	noteRepo  repository.NotificationRepository
	jobs      chan job
	opts      Options
	wg        sync.WaitGroup
	startOnce sync.Once
}

func NewDispatcher(sender Sender, noteRepo repository.NotificationRepository, opts Options) *Dispatcher {
	if opts.Workers < 1 {
		opts.Workers = 2
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 100
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	return &Dispatcher{
		sender:   sender,
		noteRepo: noteRepo,
		jobs:     make(chan job, opts.QueueSize),
		opts:     opts,
	}
}

// Start launches the workers; they stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		for i := 0; i < d.opts.Workers; i++ {
			d.wg.Add(1)
			go d.worker(ctx, i)
		}
	})
}

// Wait blocks until every worker has stopped.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// Notify enqueues without blocking. A full queue drops the notice.
func (d *Dispatcher) Notify(ctx context.Context, notice domain.LifecycleNotice) {
	if err := d.Enqueue(notice); err != nil {
		logger.Warn("Dropping lifecycle notice", "type", notice.Type, "reservation_id", notice.Reservation.ID, "error", err)
	}
}

func (d *Dispatcher) Enqueue(notice domain.LifecycleNotice) error {
	j := job{ID: uuid.NewString(), Notice: notice}
	select {
	case d.jobs <- j:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	logger.Debug("Notification worker started", "worker", id)
	for {
		select {
		case <-ctx.Done():
			logger.Debug("Notification worker stopping", "worker", id)
			return
		case j := <-d.jobs:
			d.process(ctx, j)
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, j job) {
	res := j.Notice.Reservation
	ctx = logger.WithAttrs(ctx, "job", j.ID, "type", j.Notice.Type, "reservation_id", res.ID)
	if j.Retries == 0 && j.Notice.ActorID != 0 && d.noteRepo != nil {
		note := inAppNotification(j.Notice)
		if err := d.noteRepo.Create(ctx, &note); err != nil {
			logger.ErrorContext(ctx, "Failed to store notification", "error", err)
		}
	}
	if res.GuestEmail == "" {
		return
	}

	msg := guestEmail(j.Notice)
	for {
		err := d.sender.Send(ctx, msg)
		if err == nil {
			logger.InfoContext(ctx, "Guest notified")
			return
		}
		if j.Retries >= d.opts.MaxRetries {
			logger.ErrorContext(ctx, "Guest notification failed", "attempts", j.Retries+1, "error", err)
			return
		}
		j.Retries++
		backoff := time.Duration(j.Retries*j.Retries) * d.opts.Backoff
		logger.WarnContext(ctx, "Retrying guest notification", "attempt", j.Retries, "backoff", backoff, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
}

func inAppNotification(n domain.LifecycleNotice) domain.Notification {
	res := n.Reservation
	title, message := "", ""
	switch n.Type {
	case domain.NotificationReservationConfirmed:
		title = "Reservation confirmed"
		message = fmt.Sprintf("%s for %s (%s to %s) is confirmed.", res.ConfirmationNumber, res.GuestName, res.CheckInDate, res.CheckOutDate)
	case domain.NotificationReservationCancelled:
		title = "Reservation cancelled"
		message = fmt.Sprintf("%s for %s was cancelled: %s", res.ConfirmationNumber, res.GuestName, n.Reason)
	case domain.NotificationReservationCheckedIn:
		title = "Guest checked in"
		message = fmt.Sprintf("%s checked in under %s.", res.GuestName, res.ConfirmationNumber)
	}
	return domain.Notification{
		UserID:         n.ActorID,
		BusinessUnitID: res.BusinessUnitID,
		Title:          title,
		Message:        message,
		Attributes: map[string]string{
			"type":                string(n.Type),
			"reservation_id":      strconv.Itoa(int(res.ID)),
			"confirmation_number": res.ConfirmationNumber,
		},
	}
}

func guestEmail(n domain.LifecycleNotice) Message {
	res := n.Reservation
	msg := Message{To: res.GuestEmail, ToName: res.GuestName}
	switch n.Type {
	case domain.NotificationReservationConfirmed:
		msg.Subject = fmt.Sprintf("Your reservation %s is confirmed", res.ConfirmationNumber)
		msg.Body = fmt.Sprintf("Hello %s,\n\nYour stay from %s to %s is confirmed.\nTotal: %s %s\n\nConfirmation number: %s",
			res.GuestName, res.CheckInDate, res.CheckOutDate, res.TotalAmount.StringFixed(2), res.Currency, res.ConfirmationNumber)
	case domain.NotificationReservationCancelled:
		msg.Subject = fmt.Sprintf("Your reservation %s was cancelled", res.ConfirmationNumber)
		msg.Body = fmt.Sprintf("Hello %s,\n\nYour stay from %s to %s has been cancelled.", res.GuestName, res.CheckInDate, res.CheckOutDate)
		if n.Reason != "" {
			msg.Body += fmt.Sprintf("\n\nReason: %s", n.Reason)
		}
	case domain.NotificationReservationCheckedIn:
		msg.Subject = "Welcome, you are checked in"
		msg.Body = fmt.Sprintf("Hello %s,\n\nYou are checked in until %s. Enjoy your stay.", res.GuestName, res.CheckOutDate)
	}
	return msg
}
