package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/repository"

	"github.com/lib/pq"
)

const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeSerialization       = "40001"
	codeDeadlock            = "40P01"
)

func NewStore(db *sql.DB) *repository.Store {
	return &repository.Store{
		BusinessUnits: NewBusinessUnitRepository(db),
		RoomTypes:     NewRoomTypeRepository(db),
		Rooms:         NewRoomRepository(db),
		Rates:         NewRoomRateRepository(db),
		Reservations:  NewReservationRepository(db),
		Payments:      NewPaymentRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}

func pgCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// notFound turns sql.ErrNoRows into domain.ErrNotFound.
func notFound(err error, what string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", what, id, domain.ErrNotFound)
	}
	return err
}

// conflictOrErr reports lock contention on a room as a retryable conflict.
func conflictOrErr(err error, roomID int32) error {
	switch pgCode(err) {
	case codeSerialization, codeDeadlock:
		return &domain.InventoryConflictError{RoomID: roomID}
	}
	return err
}

func statusStrings(statuses []domain.ReservationStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func activeStatuses() any {
	return pq.Array(statusStrings(domain.ActiveReservationStatuses))
}
