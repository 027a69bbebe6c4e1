package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateReservation_SnapshotsNightlyRates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// Thu at the base rate, Fri and Sat at the weekend special.
	res := e.book(t, "", "2024-01-04", "2024-01-07")

	assert.Equal(t, domain.ReservationPending, res.Status)
	assert.Equal(t, "PHP", res.Currency)
	require.Len(t, res.Stays, 1)
	nights := res.Stays[0].NightlyRates
	require.Len(t, nights, 3)
	assert.True(t, nights[0].Amount.Equal(decimal.NewFromInt(5000)))
	assert.Nil(t, nights[0].RateID)
	assert.True(t, nights[1].Amount.Equal(decimal.NewFromInt(4000)))
	assert.Equal(t, e.weekend.ID, *nights[1].RateID)
	assert.True(t, res.TotalAmount.Equal(decimal.NewFromInt(13000)))
	assert.Equal(t, domain.RoomStatusAvailable, e.roomStatus(t))

	// Later rate edits never reach the booked snapshot.
	e.weekend.BaseRate = decimal.NewFromInt(9000)
	require.NoError(t, e.store.Rates.Update(ctx, e.weekend))
	stored, err := e.reservations.GetReservation(ctx, e.frontDesk, res.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalAmount.Equal(decimal.NewFromInt(13000)))
	assert.True(t, stored.Stays[0].NightlyRates[1].Amount.Equal(decimal.NewFromInt(4000)))
}

func TestCreateReservation_TooEarly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	advance := &domain.RoomRate{RoomTypeID: e.deluxe.ID, Name: "Advance Purchase", BaseRate: decimal.NewFromInt(3500),
		Currency: "PHP", ValidFrom: domain.MustParseDate("2024-01-01"), IsActive: true, MinStay: 1, MinAdvance: intPtr(3)}
	advance.SetWeekdays(time.Monday, time.Tuesday, time.Wednesday, time.Thursday)
	require.NoError(t, e.store.Rates.Create(ctx, advance))

	// Thursday night booked on Wednesday.
	e.now = time.Date(2024, 1, 10, 2, 0, 0, 0, time.UTC)
	_, err := e.reservations.CreateReservation(ctx, e.frontDesk, CreateReservationRequest{
		BusinessUnitID: e.bu.ID,
		GuestName:      "Late Booker",
		CheckIn:        domain.MustParseDate("2024-01-11"),
		CheckOut:       domain.MustParseDate("2024-01-12"),
		Adults:         3,
		RoomIDs:        []int32{e.room101.ID},
	})

	var violations domain.ConstraintViolations
	require.True(t, errors.As(err, &violations))
	assert.True(t, violations.Has(domain.TooEarly))
	assert.True(t, violations.Has(domain.OccupancyExceeded))

	list, total, err := e.reservations.ListReservations(ctx, e.frontDesk, repository.ReservationFilter{BusinessUnitID: e.bu.ID})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, int32(0), total)
}

func TestCreateReservation_NoApplicableRate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.deluxe.BaseRate = decimal.NullDecimal{}
	require.NoError(t, e.store.RoomTypes.Update(ctx, e.deluxe))

	_, err := e.reservations.CreateReservation(ctx, e.frontDesk, CreateReservationRequest{
		BusinessUnitID: e.bu.ID,
		GuestName:      "Weekday Guest",
		CheckIn:        domain.MustParseDate("2024-01-08"),
		CheckOut:       domain.MustParseDate("2024-01-09"),
		Adults:         1,
		RoomIDs:        []int32{e.room101.ID},
	})

	var rateErr *domain.RateError
	require.True(t, errors.As(err, &rateErr))
	assert.Equal(t, domain.NoApplicableRate, rateErr.Kind)
	assert.Equal(t, domain.MustParseDate("2024-01-08"), rateErr.Night)
}

func TestCreateReservation_Rejects(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	base := CreateReservationRequest{
		BusinessUnitID: e.bu.ID,
		GuestName:      "Guest",
		CheckIn:        domain.MustParseDate("2024-01-05"),
		CheckOut:       domain.MustParseDate("2024-01-06"),
		Adults:         1,
		RoomIDs:        []int32{e.room101.ID},
	}

	t.Run("confirmed is not an initial status", func(t *testing.T) {
		req := base
		req.Status = domain.ReservationConfirmed
		_, err := e.reservations.CreateReservation(ctx, e.frontDesk, req)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("no rooms", func(t *testing.T) {
		req := base
		req.RoomIDs = nil
		_, err := e.reservations.CreateReservation(ctx, e.frontDesk, req)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("inactive room type", func(t *testing.T) {
		inactive := *e.deluxe
		inactive.IsActive = false
		require.NoError(t, e.store.RoomTypes.Update(ctx, &inactive))
		defer func() { require.NoError(t, e.store.RoomTypes.Update(ctx, e.deluxe)) }()
		_, err := e.reservations.CreateReservation(ctx, e.frontDesk, base)
		assert.ErrorIs(t, err, domain.ErrRoomInactive)
	})

	t.Run("housekeeping cannot book", func(t *testing.T) {
		hk := &domain.Principal{UserID: 9, Roles: []domain.Role{domain.RoleHousekeeping}, BusinessUnitIDs: []int32{e.bu.ID}}
		_, err := e.reservations.CreateReservation(ctx, hk, base)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("other property", func(t *testing.T) {
		other := &domain.Principal{UserID: 3, Roles: []domain.Role{domain.RoleFrontDesk}, BusinessUnitIDs: []int32{e.bu.ID + 1}}
		_, err := e.reservations.CreateReservation(ctx, other, base)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestCreateReservation_WalkIn(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.notifier.On("Notify", mock.Anything, noticeOf(domain.NotificationReservationCheckedIn)).Once()
	e.notifier.On("Notify", mock.Anything, noticeOf(domain.NotificationReservationConfirmed)).Once()

	res := e.book(t, domain.ReservationWalkedIn, "2024-01-04", "2024-01-05")
	assert.Equal(t, domain.ReservationWalkedIn, res.Status)
	assert.Equal(t, domain.RoomStatusOccupied, e.roomStatus(t))

	// Stays are half-open, so the next night is free to confirm and the room
	// stays occupied until check-out.
	other := e.book(t, domain.ReservationPending, "2024-01-05", "2024-01-06")
	_, err := e.reservations.Confirm(ctx, e.frontDesk, other.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.RoomStatusOccupied, e.roomStatus(t))

	_, err = e.reservations.CreateReservation(ctx, e.frontDesk, CreateReservationRequest{
		BusinessUnitID: e.bu.ID,
		GuestName:      "Tomorrow",
		CheckIn:        domain.MustParseDate("2024-01-05"),
		CheckOut:       domain.MustParseDate("2024-01-06"),
		Adults:         1,
		Status:         domain.ReservationWalkedIn,
		RoomIDs:        []int32{e.room101.ID},
	})
	var violations domain.ConstraintViolations
	require.True(t, errors.As(err, &violations))
	assert.True(t, violations.Has(domain.InvalidStayRange))
	e.notifier.AssertExpectations(t)
}

func TestCreateReservation_WalkInConflict(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.notifier.On("Notify", mock.Anything, mock.Anything)

	booked := e.book(t, domain.ReservationPending, "2024-01-04", "2024-01-06")
	_, err := e.reservations.Confirm(ctx, e.frontDesk, booked.ID)
	require.NoError(t, err)

	_, err = e.reservations.CreateReservation(ctx, e.frontDesk, CreateReservationRequest{
		BusinessUnitID: e.bu.ID,
		GuestName:      "Walk-in",
		CheckIn:        domain.MustParseDate("2024-01-04"),
		CheckOut:       domain.MustParseDate("2024-01-05"),
		Adults:         1,
		Status:         domain.ReservationWalkedIn,
		RoomIDs:        []int32{e.room101.ID},
	})
	var conflict *domain.InventoryConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, booked.ID, conflict.ConflictingReservationID)
	assert.True(t, conflict.Retryable())
}

func TestCancel_ConfirmedRoom101(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.notifier.On("Notify", mock.Anything, noticeOf(domain.NotificationReservationConfirmed)).Once()
	e.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n domain.LifecycleNotice) bool {
		return n.Type == domain.NotificationReservationCancelled && n.Reason == "guest request"
	})).Once()

	res := e.book(t, domain.ReservationPending, "2024-01-05", "2024-01-07")
	_, err := e.reservations.Confirm(ctx, e.frontDesk, res.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusReserved, e.roomStatus(t))

	payment := &domain.Payment{ReservationID: &res.ID, Amount: res.TotalAmount, Method: "CARD"}
	require.NoError(t, e.payments.RecordPayment(ctx, e.frontDesk, payment))
	assert.Equal(t, domain.PaymentSucceeded, payment.Status)

	result, err := e.reservations.Cancel(ctx, e.frontDesk, res.ID, "guest request")
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationCancelled, result.Reservation.Status)
	assert.Equal(t, "guest request", result.Reservation.CancellationReason)
	require.Len(t, result.RefundablePayments, 1)
	assert.Equal(t, payment.ID, result.RefundablePayments[0].ID)
	assert.Equal(t, domain.RoomStatusAvailable, e.roomStatus(t))

	events, err := e.reservations.ListEvents(ctx, e.frontDesk, res.ID)
	require.NoError(t, err)
	last := events[len(events)-1]
	assert.Equal(t, domain.ReservationConfirmed, last.FromStatus)
	assert.Equal(t, domain.ReservationCancelled, last.ToStatus)
	assert.Equal(t, e.frontDesk.UserID, last.ActorID)
	assert.Equal(t, "guest request", last.Reason)

	// Cancelling again changes nothing and sends nothing.
	again, err := e.reservations.Cancel(ctx, e.frontDesk, res.ID, "duplicate click")
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationCancelled, again.Reservation.Status)
	e.notifier.AssertExpectations(t)
}

func TestCancel_RequiresReason(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	res := e.book(t, domain.ReservationPending, "2024-01-05", "2024-01-07")

	_, err := e.reservations.Cancel(ctx, e.frontDesk, res.ID, "   ")
	assert.ErrorIs(t, err, domain.ErrReasonRequired)

	stored, err := e.reservations.GetReservation(ctx, e.frontDesk, res.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationPending, stored.Status)
}

func TestConfirm_IsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.notifier.On("Notify", mock.Anything, noticeOf(domain.NotificationReservationConfirmed)).Once()
	res := e.book(t, domain.ReservationPending, "2024-01-05", "2024-01-07")

	first, err := e.reservations.Confirm(ctx, e.frontDesk, res.ID)
	require.NoError(t, err)
	second, err := e.reservations.Confirm(ctx, e.frontDesk, res.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.ReservationConfirmed, first.Status)
	assert.Equal(t, domain.ReservationConfirmed, second.Status)
	events, err := e.reservations.ListEvents(ctx, e.frontDesk, res.ID)
	require.NoError(t, err)
	assert.Len(t, events, 2)
	e.notifier.AssertExpectations(t)
}

func TestConfirm_ConcurrentOverlapsConfirmOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.notifier.On("Notify", mock.Anything, mock.Anything)

	const n = 6
	ids := make([]int32, n)
	for i := range ids {
		ids[i] = e.book(t, domain.ReservationPending, "2024-01-05", "2024-01-08").ID
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.reservations.Confirm(ctx, e.frontDesk, ids[i])
		}(i)
	}
	wg.Wait()

	confirmed := 0
	for _, err := range errs {
		if err == nil {
			confirmed++
			continue
		}
		var conflict *domain.InventoryConflictError
		assert.True(t, errors.As(err, &conflict), "unexpected error %v", err)
	}
	assert.Equal(t, 1, confirmed)
}

func TestTransitions_Illegal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.notifier.On("Notify", mock.Anything, mock.Anything)
	res := e.book(t, domain.ReservationPending, "2024-01-04", "2024-01-05")

	_, err := e.reservations.CheckIn(ctx, e.frontDesk, res.ID)
	var invalid *domain.InvalidTransitionError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, domain.ReservationPending, invalid.From)
	assert.Equal(t, domain.ReservationCheckedIn, invalid.To)

	_, err = e.reservations.Confirm(ctx, e.frontDesk, res.ID)
	require.NoError(t, err)
	_, err = e.reservations.CheckIn(ctx, e.frontDesk, res.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusOccupied, e.roomStatus(t))

	out, err := e.reservations.CheckOut(ctx, e.frontDesk, res.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationCheckedOut, out.Status)
	assert.Equal(t, domain.RoomStatusCleaning, e.roomStatus(t))

	_, err = e.reservations.Cancel(ctx, e.frontDesk, res.ID, "too late")
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, domain.ReservationCheckedOut, invalid.From)
}

func TestMarkNoShow_UsesPropertyCalendar(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.notifier.On("Notify", mock.Anything, mock.Anything)
	res := e.book(t, domain.ReservationPending, "2024-01-04", "2024-01-06")
	_, err := e.reservations.Confirm(ctx, e.frontDesk, res.ID)
	require.NoError(t, err)

	_, err = e.reservations.MarkNoShow(ctx, e.frontDesk, res.ID)
	assert.ErrorIs(t, err, domain.ErrNoShowTooEarly)
	due, err := e.reservations.ListNoShowCandidates(ctx)
	require.NoError(t, err)
	assert.Empty(t, due)

	// Still the 4th in UTC but already the 5th in Manila.
	e.now = time.Date(2024, 1, 4, 17, 0, 0, 0, time.UTC)
	due, err = e.reservations.ListNoShowCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, res.ID, due[0].ID)

	marked, err := e.reservations.MarkNoShow(ctx, domain.SystemPrincipal(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationNoShow, marked.Status)
	assert.Equal(t, domain.RoomStatusAvailable, e.roomStatus(t))
}

func TestGetByConfirmationNumber(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	res := e.book(t, domain.ReservationInquiry, "2024-01-05", "2024-01-06")

	found, err := e.reservations.GetByConfirmationNumber(ctx, e.frontDesk, " "+res.ConfirmationNumber+" ")
	require.NoError(t, err)
	assert.Equal(t, res.ID, found.ID)

	_, err = e.reservations.GetByConfirmationNumber(ctx, e.frontDesk, "HTL-NOPE")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func intPtr(v int) *int { return &v }
