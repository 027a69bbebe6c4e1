package service

import (
	"context"
	"testing"
	"time"

	"hotel-pms-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRoomService_OverrideHeldRoomNeedsForce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.notifier.On("Notify", mock.Anything, mock.Anything)
	res := e.book(t, domain.ReservationPending, "2024-01-05", "2024-01-07")
	_, err := e.reservations.Confirm(ctx, e.frontDesk, res.ID)
	require.NoError(t, err)

	until := e.now.Add(time.Hour)
	_, err = e.rooms.OverrideStatus(ctx, e.manager, e.room101.ID, StatusOverride{Status: domain.RoomStatusOutOfOrder, OutOfOrderUntil: &until})
	assert.ErrorIs(t, err, domain.ErrOverrideRequiresConfirmation)
	assert.Equal(t, domain.RoomStatusReserved, e.roomStatus(t))

	room, err := e.rooms.OverrideStatus(ctx, e.manager, e.room101.ID, StatusOverride{
		Status: domain.RoomStatusOutOfOrder, OutOfOrderUntil: &until, Force: true, Reason: "burst pipe",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusOutOfOrder, room.Status)
	require.NotNil(t, room.OutOfOrderUntil)

	_, err = e.rooms.OverrideStatus(ctx, e.frontDesk, e.room101.ID, StatusOverride{Status: domain.RoomStatusAvailable})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestRoomService_OverrideRejectsPastDeadline(t *testing.T) {
	e := newEnv(t)
	past := e.now.Add(-time.Minute)
	_, err := e.rooms.OverrideStatus(context.Background(), e.manager, e.room101.ID,
		StatusOverride{Status: domain.RoomStatusOutOfOrder, OutOfOrderUntil: &past})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRoomService_ReleaseExpiredOutOfOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	until := e.now.Add(30 * time.Minute)
	_, err := e.rooms.OverrideStatus(ctx, e.manager, e.room101.ID, StatusOverride{Status: domain.RoomStatusOutOfOrder, OutOfOrderUntil: &until})
	require.NoError(t, err)

	ids, err := e.rooms.ReleaseExpiredOutOfOrder(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	e.now = e.now.Add(time.Hour)
	ids, err = e.rooms.ReleaseExpiredOutOfOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int32{e.room101.ID}, ids)
	assert.Equal(t, domain.RoomStatusAvailable, e.roomStatus(t))

	ids, err = e.rooms.ReleaseExpiredOutOfOrder(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRoomService_HousekeepingReturnsRoomToSale(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.notifier.On("Notify", mock.Anything, mock.Anything)
	res := e.book(t, domain.ReservationWalkedIn, "2024-01-04", "2024-01-05")
	_, err := e.reservations.CheckOut(ctx, e.frontDesk, res.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusCleaning, e.roomStatus(t))

	hk := &domain.Principal{UserID: 5, Roles: []domain.Role{domain.RoleHousekeeping}, BusinessUnitIDs: []int32{e.bu.ID}}
	room, err := e.rooms.SetHousekeepingStatus(ctx, hk, e.room101.ID, domain.HousekeepingInspected)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusAvailable, room.Status)
	assert.Equal(t, domain.HousekeepingInspected, room.HousekeepingStatus)

	_, err = e.rooms.SetHousekeepingStatus(ctx, hk, e.room101.ID, "SPARKLING")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRoomService_HousekeepingKeepsLaterBookingHeld(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.notifier.On("Notify", mock.Anything, mock.Anything)
	walkIn := e.book(t, domain.ReservationWalkedIn, "2024-01-04", "2024-01-05")
	_, err := e.reservations.CheckOut(ctx, e.frontDesk, walkIn.ID)
	require.NoError(t, err)

	next := e.book(t, domain.ReservationPending, "2024-01-10", "2024-01-12")
	_, err = e.reservations.Confirm(ctx, e.frontDesk, next.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusCleaning, e.roomStatus(t))

	hk := &domain.Principal{UserID: 5, Roles: []domain.Role{domain.RoleHousekeeping}, BusinessUnitIDs: []int32{e.bu.ID}}
	room, err := e.rooms.SetHousekeepingStatus(ctx, hk, e.room101.ID, domain.HousekeepingClean)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusReserved, room.Status)
}

func TestRoomService_CreateAndList(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	room := &domain.Room{RoomTypeID: e.deluxe.ID, RoomNumber: "102", Floor: 1}
	require.NoError(t, e.rooms.CreateRoom(ctx, e.manager, room))
	assert.Equal(t, e.bu.ID, room.BusinessUnitID)
	assert.Equal(t, domain.RoomStatusAvailable, room.Status)
	assert.Equal(t, domain.HousekeepingClean, room.HousekeepingStatus)

	rooms, err := e.rooms.ListRooms(ctx, e.frontDesk, e.bu.ID, domain.RoomStatusAvailable)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)

	_, err = e.rooms.ListRooms(ctx, e.frontDesk, e.bu.ID, "HAUNTED")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorIs(t, e.rooms.CreateRoom(ctx, e.manager, &domain.Room{RoomTypeID: e.deluxe.ID}), domain.ErrInvalidInput)
}
