package service

import (
	"context"
	"testing"
	"time"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/repository"
	"hotel-pms-backend/internal/repository/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, notice domain.LifecycleNotice) {
	m.Called(ctx, notice)
}

func noticeOf(kind domain.NotificationType) any {
	return mock.MatchedBy(func(n domain.LifecycleNotice) bool { return n.Type == kind })
}

// env is a Manila property with one Deluxe room and a weekend special, seen
// from a clock the test controls.
type env struct {
	store    *repository.Store
	bu       *domain.BusinessUnit
	deluxe   *domain.RoomType
	room101  *domain.Room
	weekend  *domain.RoomRate
	notifier *mockNotifier

	reservations *reservationService
	rates        *rateService
	rooms        *roomService
	payments     PaymentService

	manager   *domain.Principal
	frontDesk *domain.Principal

	now time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	e := &env{
		store:    memory.NewStore(),
		notifier: new(mockNotifier),
		// Thursday 2024-01-04, 10:00 in Manila.
		now: time.Date(2024, 1, 4, 2, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return e.now }

	e.bu = &domain.BusinessUnit{Name: "Manila Bay Hotel", Timezone: "Asia/Manila", Currency: "PHP"}
	require.NoError(t, e.store.BusinessUnits.Create(ctx, e.bu))
	e.deluxe = &domain.RoomType{BusinessUnitID: e.bu.ID, Name: "Deluxe", MaxAdults: 2, MaxChildren: 1, Currency: "PHP",
		BaseRate: decimal.NewNullDecimal(decimal.NewFromInt(5000)), IsActive: true}
	require.NoError(t, e.store.RoomTypes.Create(ctx, e.deluxe))
	e.room101 = &domain.Room{BusinessUnitID: e.bu.ID, RoomTypeID: e.deluxe.ID, RoomNumber: "101",
		Status: domain.RoomStatusAvailable, HousekeepingStatus: domain.HousekeepingClean, IsActive: true}
	require.NoError(t, e.store.Rooms.Create(ctx, e.room101))
	e.weekend = &domain.RoomRate{RoomTypeID: e.deluxe.ID, Name: "Weekend Special", BaseRate: decimal.NewFromInt(4000),
		Currency: "PHP", ValidFrom: domain.MustParseDate("2024-01-01"), IsActive: true, MinStay: 1}
	e.weekend.SetWeekdays(time.Friday, time.Saturday, time.Sunday)
	require.NoError(t, e.store.Rates.Create(ctx, e.weekend))

	e.manager = &domain.Principal{UserID: 1, Roles: []domain.Role{domain.RoleManager}, BusinessUnitIDs: []int32{e.bu.ID}}
	e.frontDesk = &domain.Principal{UserID: 2, Roles: []domain.Role{domain.RoleFrontDesk}, BusinessUnitIDs: []int32{e.bu.ID}}

	loc := time.UTC
	e.reservations = NewReservationService(e.store.Reservations, e.store.Rooms, e.store.RoomTypes, e.store.Rates,
		e.store.Payments, e.store.BusinessUnits, e.notifier, loc).(*reservationService)
	e.reservations.calendar.now = clock
	e.rates = NewRateService(e.store.Rates, e.store.RoomTypes, e.store.BusinessUnits, loc).(*rateService)
	e.rates.calendar.now = clock
	e.rooms = NewRoomService(e.store.Rooms, e.store.RoomTypes).(*roomService)
	e.rooms.now = clock
	e.payments = NewPaymentService(e.store.Payments, e.store.Reservations)
	return e
}

func (e *env) book(t *testing.T, status domain.ReservationStatus, checkIn, checkOut string) *domain.Reservation {
	t.Helper()
	res, err := e.reservations.CreateReservation(context.Background(), e.frontDesk, CreateReservationRequest{
		BusinessUnitID: e.bu.ID,
		GuestName:      "Maria Santos",
		GuestEmail:     "maria@example.com",
		CheckIn:        domain.MustParseDate(checkIn),
		CheckOut:       domain.MustParseDate(checkOut),
		Adults:         2,
		Status:         status,
		RoomIDs:        []int32{e.room101.ID},
	})
	require.NoError(t, err)
	return res
}

func (e *env) roomStatus(t *testing.T) domain.RoomStatus {
	t.Helper()
	room, err := e.store.Rooms.GetByID(context.Background(), e.room101.ID)
	require.NoError(t, err)
	return room.Status
}
