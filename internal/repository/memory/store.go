// Package memory is an in-process backend with the same transactional
// behavior as the PostgreSQL store. One mutex plays the role of the row
// locks, so every repository call is atomic.
package memory

import (
	"fmt"
	"sync"
	"time"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/repository"
)

type state struct {
	mu sync.Mutex

	seq map[string]int32

	businessUnits map[int32]domain.BusinessUnit
	roomTypes     map[int32]domain.RoomType
	rooms         map[int32]domain.Room
	rates         map[int32]domain.RoomRate
	reservations  map[int32]domain.Reservation
	events        []domain.ReservationEvent
	payments      map[int32]domain.Payment
	refunds       map[refundKey]domain.PaymentRefund
	notifications []domain.Notification

	now func() time.Time
}

func (s *state) next(table string) int32 {
	s.seq[table]++
	return s.seq[table]
}

func notFound(what string, id any) error {
	return fmt.Errorf("%s %v: %w", what, id, domain.ErrNotFound)
}

// NewStore returns an empty store.
func NewStore() *repository.Store {
	s := &state{
		seq:           make(map[string]int32),
		businessUnits: make(map[int32]domain.BusinessUnit),
		roomTypes:     make(map[int32]domain.RoomType),
		rooms:         make(map[int32]domain.Room),
		rates:         make(map[int32]domain.RoomRate),
		reservations:  make(map[int32]domain.Reservation),
		payments:      make(map[int32]domain.Payment),
		refunds:       make(map[refundKey]domain.PaymentRefund),
		now:           time.Now,
	}
	return &repository.Store{
		BusinessUnits: &businessUnitRepository{s},
		RoomTypes:     &roomTypeRepository{s},
		Rooms:         &roomRepository{s},
		Rates:         &roomRateRepository{s},
		Reservations:  &reservationRepository{s},
		Payments:      &paymentRepository{s},
		Notifications: &notificationRepository{s},
	}
}

// activeHolders counts active reservations other than excludeID holding roomID.
func (s *state) activeHolders(roomID, excludeID int32) int {
	n := 0
	for id, res := range s.reservations {
		if id == excludeID || !res.Status.Active() {
			continue
		}
		for _, st := range res.Stays {
			if st.RoomID == roomID {
				n++
				break
			}
		}
	}
	return n
}

// overlap returns the lowest id of an active reservation other than
// excludeID holding roomID on a night of [checkIn, checkOut), or 0.
func (s *state) overlap(roomID, excludeID int32, checkIn, checkOut domain.Date) int32 {
	var found int32
	for id, res := range s.reservations {
		if id == excludeID || !res.Status.Active() {
			continue
		}
		if !res.CheckInDate.Before(checkOut) || !res.CheckOutDate.After(checkIn) {
			continue
		}
		for _, st := range res.Stays {
			if st.RoomID == roomID && (found == 0 || id < found) {
				found = id
			}
		}
	}
	return found
}

func copyReservation(res domain.Reservation) domain.Reservation {
	stays := make([]domain.RoomStay, len(res.Stays))
	for i, st := range res.Stays {
		st.NightlyRates = append([]domain.NightlyRate(nil), st.NightlyRates...)
		stays[i] = st
	}
	res.Stays = stays
	return res
}

func applyChange(room *domain.Room, change domain.RoomStatusChange, now time.Time) {
	room.Status = change.Status
	room.HousekeepingStatus = change.HousekeepingStatus
	room.OutOfOrderUntil = change.OutOfOrderUntil
	room.UpdatedAt = now
}
