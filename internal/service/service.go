package service

import (
	"context"
	"time"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/repository"

	"github.com/shopspring/decimal"
)

type RoomTypeService interface {
	CreateRoomType(ctx context.Context, p *domain.Principal, rt *domain.RoomType) error
	GetRoomType(ctx context.Context, p *domain.Principal, id int32) (*domain.RoomType, error)
	UpdateRoomType(ctx context.Context, p *domain.Principal, rt *domain.RoomType) error
	DeactivateRoomType(ctx context.Context, p *domain.Principal, id int32) (*domain.RoomType, error)
	DeleteRoomType(ctx context.Context, p *domain.Principal, id int32) error
	ListRoomTypes(ctx context.Context, p *domain.Principal, businessUnitID int32, includeInactive bool) ([]domain.RoomType, error)
}

// QuoteRequest prices a stay without writing anything.
type QuoteRequest struct {
	RoomTypeID int32
	CheckIn    domain.Date
	CheckOut   domain.Date
	Adults     int
	Children   int
	WalkIn     bool
}

type Quote struct {
	RoomTypeID int32                       `json:"room_type_id"`
	CheckIn    domain.Date                 `json:"check_in"`
	CheckOut   domain.Date                 `json:"check_out"`
	Nights     []domain.NightlyRate        `json:"nights"`
	Total      decimal.Decimal             `json:"total"`
	Currency   string                      `json:"currency"`
	Violations domain.ConstraintViolations `json:"violations,omitempty"`
}

type RateService interface {
	CreateRate(ctx context.Context, p *domain.Principal, rate *domain.RoomRate) error
	GetRate(ctx context.Context, p *domain.Principal, id int32) (*domain.RoomRate, error)
	UpdateRate(ctx context.Context, p *domain.Principal, rate *domain.RoomRate) error
	SetRateActive(ctx context.Context, p *domain.Principal, id int32, active bool) (*domain.RoomRate, error)
	SetDefaultRate(ctx context.Context, p *domain.Principal, id int32) (*domain.RoomRate, error)
	DeleteRate(ctx context.Context, p *domain.Principal, id int32) error
	ListRates(ctx context.Context, p *domain.Principal, roomTypeID int32, activeOnly bool) ([]domain.RoomRate, error)
	// QuoteStay returns rate errors as errors and constraint violations
	// inside the quote.
	QuoteStay(ctx context.Context, p *domain.Principal, req QuoteRequest) (*Quote, error)
}

type StatusOverride struct {
	Status          domain.RoomStatus
	OutOfOrderUntil *time.Time
	// Force acknowledges that the room is held by an active reservation.
	Force  bool
	Reason string
}

type RoomService interface {
	CreateRoom(ctx context.Context, p *domain.Principal, room *domain.Room) error
	GetRoom(ctx context.Context, p *domain.Principal, id int32) (*domain.Room, error)
	ListRooms(ctx context.Context, p *domain.Principal, businessUnitID int32, status domain.RoomStatus) ([]domain.Room, error)
	OverrideStatus(ctx context.Context, p *domain.Principal, id int32, o StatusOverride) (*domain.Room, error)
	SetHousekeepingStatus(ctx context.Context, p *domain.Principal, id int32, hk domain.HousekeepingStatus) (*domain.Room, error)
	ReleaseExpiredOutOfOrder(ctx context.Context) ([]int32, error)
}

type CreateReservationRequest struct {
	BusinessUnitID  int32
	GuestID         int32
	GuestName       string
	GuestEmail      string
	CheckIn         domain.Date
	CheckOut        domain.Date
	Adults          int
	Children        int
	Status          domain.ReservationStatus
	RoomIDs         []int32
	SpecialRequests string
	InternalNotes   string
	Source          string
}

type CancellationResult struct {
	Reservation *domain.Reservation `json:"reservation"`
	// RefundablePayments are captured payments staff may now refund.
	RefundablePayments []domain.Payment `json:"refundable_payments"`
}

type ReservationService interface {
	CreateReservation(ctx context.Context, p *domain.Principal, req CreateReservationRequest) (*domain.Reservation, error)
	GetReservation(ctx context.Context, p *domain.Principal, id int32) (*domain.Reservation, error)
	GetByConfirmationNumber(ctx context.Context, p *domain.Principal, number string) (*domain.Reservation, error)
	ListReservations(ctx context.Context, p *domain.Principal, filter repository.ReservationFilter) ([]domain.Reservation, int32, error)
	ListEvents(ctx context.Context, p *domain.Principal, id int32) ([]domain.ReservationEvent, error)
	Confirm(ctx context.Context, p *domain.Principal, id int32) (*domain.Reservation, error)
	CheckIn(ctx context.Context, p *domain.Principal, id int32) (*domain.Reservation, error)
	CheckOut(ctx context.Context, p *domain.Principal, id int32) (*domain.Reservation, error)
	Cancel(ctx context.Context, p *domain.Principal, id int32, reason string) (*CancellationResult, error)
	MarkNoShow(ctx context.Context, p *domain.Principal, id int32) (*domain.Reservation, error)
	// ListNoShowCandidates returns CONFIRMED reservations whose check-in day
	// has fully elapsed in their property's calendar.
	ListNoShowCandidates(ctx context.Context) ([]domain.Reservation, error)
}

type RefundInput struct {
	PaymentID int32
	// Zero refunds the remaining balance.
	Amount decimal.Decimal
	Reason string
	// A generated key is used when empty.
	IdempotencyKey string
}

type PaymentService interface {
	RecordPayment(ctx context.Context, p *domain.Principal, payment *domain.Payment) error
	GetPayment(ctx context.Context, p *domain.Principal, id int32) (*domain.Payment, error)
	ListByReservation(ctx context.Context, p *domain.Principal, reservationID int32) ([]domain.Payment, error)
	Refund(ctx context.Context, p *domain.Principal, in RefundInput) (*domain.Payment, *domain.PaymentRefund, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, p *domain.Principal, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, p *domain.Principal, notificationID int32) error
}

// Notifier receives lifecycle notices after a transition commits. It must not
// block and its failures never affect the transition.
type Notifier interface {
	Notify(ctx context.Context, notice domain.LifecycleNotice)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, domain.LifecycleNotice) {}

// NopNotifier discards every notice.
func NopNotifier() Notifier { return nopNotifier{} }
