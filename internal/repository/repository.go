package repository

import (
	"context"
	"time"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/lifecycle"

	"github.com/shopspring/decimal"
)

type BusinessUnitRepository interface {
	Create(ctx context.Context, bu *domain.BusinessUnit) error
	GetByID(ctx context.Context, id int32) (*domain.BusinessUnit, error)
}

type RoomTypeRepository interface {
	Create(ctx context.Context, rt *domain.RoomType) error
	GetByID(ctx context.Context, id int32) (*domain.RoomType, error)
	Update(ctx context.Context, rt *domain.RoomType) error
	// Delete fails with domain.ErrRoomTypeInUse while rooms reference the type.
	Delete(ctx context.Context, id int32) error
	ListByBusinessUnit(ctx context.Context, businessUnitID int32, includeInactive bool) ([]domain.RoomType, error)
}

// RoomChangeFunc decides a room's new status under the room lock, given how
// many active reservations currently hold it.
type RoomChangeFunc func(room *domain.Room, activeHolders int) (domain.RoomStatusChange, error)

type RoomRepository interface {
	Create(ctx context.Context, room *domain.Room) error
	GetByID(ctx context.Context, id int32) (*domain.Room, error)
	ListByBusinessUnit(ctx context.Context, businessUnitID int32, status domain.RoomStatus) ([]domain.Room, error)
	// UpdateStatus locks the room, counts its active holders and applies the
	// change decided by fn in one transaction.
	UpdateStatus(ctx context.Context, id int32, fn RoomChangeFunc) (*domain.Room, error)
	// ReleaseExpiredOutOfOrder is a single conditional update; it returns the
	// ids of the rooms it released.
	ReleaseExpiredOutOfOrder(ctx context.Context, now time.Time) ([]int32, error)
}

type RoomRateRepository interface {
	// Create and Update clear any other default of the room type in the same
	// transaction when rate.IsDefault is set.
	Create(ctx context.Context, rate *domain.RoomRate) error
	Update(ctx context.Context, rate *domain.RoomRate) error
	GetByID(ctx context.Context, id int32) (*domain.RoomRate, error)
	Delete(ctx context.Context, id int32) error
	ListByRoomType(ctx context.Context, roomTypeID int32, activeOnly bool) ([]domain.RoomRate, error)
	// SetDefault atomically makes rateID the only default of its room type.
	SetDefault(ctx context.Context, roomTypeID, rateID int32) error
	SetActive(ctx context.Context, id int32, active bool) error
}

type ReservationFilter struct {
	BusinessUnitID int32
	Statuses       []domain.ReservationStatus
	// Stays overlapping [From, To) when both are set.
	From     domain.Date
	To       domain.Date
	Page     int32
	PageSize int32
}

type TransitionRequest struct {
	ReservationID int32
	Action        lifecycle.Action
	ActorID       int32
	Reason        string
}

type TransitionResult struct {
	Reservation *domain.Reservation
	Transition  lifecycle.Transition
	NoOp        bool
	// RoomChanges lists rooms whose status the transition changed.
	RoomChanges map[int32]domain.RoomStatus
}

type ReservationRepository interface {
	// Create locks every assigned room, rejects overlapping active holders
	// with *domain.InventoryConflictError and writes the reservation, its
	// stays and the opening audit event atomically. roomEffect is applied to
	// each room when not EffectNone.
	Create(ctx context.Context, res *domain.Reservation, roomEffect lifecycle.RoomEffect, actorID int32) error
	GetByID(ctx context.Context, id int32) (*domain.Reservation, error)
	GetByConfirmationNumber(ctx context.Context, number string) (*domain.Reservation, error)
	List(ctx context.Context, filter ReservationFilter) ([]domain.Reservation, int32, error)
	// Transition plans req.Action against the locked reservation and applies
	// status, room side effects and audit event in one transaction. A failed
	// transition leaves nothing behind.
	Transition(ctx context.Context, req TransitionRequest) (*TransitionResult, error)
	// ListNoShowCandidates returns CONFIRMED reservations checking in before
	// the given date.
	ListNoShowCandidates(ctx context.Context, before domain.Date) ([]domain.Reservation, error)
	ListEvents(ctx context.Context, reservationID int32) ([]domain.ReservationEvent, error)
}

type RefundRequest struct {
	PaymentID int32
	// Zero refunds the remaining balance.
	Amount         decimal.Decimal
	Reason         string
	IdempotencyKey string
	ActorID        int32
}

type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByID(ctx context.Context, id int32) (*domain.Payment, error)
	ListByReservation(ctx context.Context, reservationID int32) ([]domain.Payment, error)
	// Refund replays the earlier result when IdempotencyKey was already used.
	Refund(ctx context.Context, req RefundRequest) (*domain.Payment, *domain.PaymentRefund, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, userID int32) error
}

// Store groups the repositories one backend provides.
type Store struct {
	BusinessUnits BusinessUnitRepository
	RoomTypes     RoomTypeRepository
	Rooms         RoomRepository
	Rates         RoomRateRepository
	Reservations  ReservationRepository
	Payments      PaymentRepository
	Notifications NotificationRepository
}
