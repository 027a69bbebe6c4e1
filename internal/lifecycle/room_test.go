package lifecycle

import (
	"testing"
	"time"

	"hotel-pms-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func room(status domain.RoomStatus) *domain.Room {
	return &domain.Room{ID: 101, RoomNumber: "101", Status: status, HousekeepingStatus: domain.HousekeepingClean, IsActive: true}
}

func TestApplyRoomEffect(t *testing.T) {
	t.Run("Reserve available room", func(t *testing.T) {
		change, changed, err := ApplyRoomEffect(EffectReserve, room(domain.RoomStatusAvailable), 0)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, domain.RoomStatusReserved, change.Status)
	})

	t.Run("Reserve leaves occupied room alone", func(t *testing.T) {
		_, changed, err := ApplyRoomEffect(EffectReserve, room(domain.RoomStatusOccupied), 0)
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("Reserve out of service room fails", func(t *testing.T) {
		for _, s := range []domain.RoomStatus{domain.RoomStatusMaintenance, domain.RoomStatusOutOfOrder, domain.RoomStatusBlocked} {
			_, _, err := ApplyRoomEffect(EffectReserve, room(s), 0)
			assert.ErrorIs(t, err, domain.ErrRoomOutOfService)
		}
	})

	t.Run("Occupy", func(t *testing.T) {
		change, changed, err := ApplyRoomEffect(EffectOccupy, room(domain.RoomStatusReserved), 0)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, domain.RoomStatusOccupied, change.Status)
	})

	t.Run("Vacate marks cleaning and dirty", func(t *testing.T) {
		change, changed, err := ApplyRoomEffect(EffectVacate, room(domain.RoomStatusOccupied), 0)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, domain.RoomStatusCleaning, change.Status)
		assert.Equal(t, domain.HousekeepingDirty, change.HousekeepingStatus)
	})

	t.Run("Release frees reserved room", func(t *testing.T) {
		change, changed, err := ApplyRoomEffect(EffectRelease, room(domain.RoomStatusReserved), 0)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, domain.RoomStatusAvailable, change.Status)
	})

	t.Run("Release keeps room held by another reservation", func(t *testing.T) {
		_, changed, err := ApplyRoomEffect(EffectRelease, room(domain.RoomStatusReserved), 1)
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("Release never touches maintenance", func(t *testing.T) {
		_, changed, err := ApplyRoomEffect(EffectRelease, room(domain.RoomStatusMaintenance), 0)
		require.NoError(t, err)
		assert.False(t, changed)
	})
}

func TestCheckOverride(t *testing.T) {
	until := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Rejected with active reservation", func(t *testing.T) {
		_, err := CheckOverride(room(domain.RoomStatusReserved), domain.RoomStatusMaintenance, nil, 1, false)
		assert.ErrorIs(t, err, domain.ErrOverrideRequiresConfirmation)
	})

	t.Run("Forced with active reservation", func(t *testing.T) {
		change, err := CheckOverride(room(domain.RoomStatusReserved), domain.RoomStatusOutOfOrder, &until, 1, true)
		require.NoError(t, err)
		assert.Equal(t, domain.RoomStatusOutOfOrder, change.Status)
		require.NotNil(t, change.OutOfOrderUntil)
		assert.True(t, until.Equal(*change.OutOfOrderUntil))
	})

	t.Run("Until only kept for out of order", func(t *testing.T) {
		change, err := CheckOverride(room(domain.RoomStatusAvailable), domain.RoomStatusBlocked, &until, 0, false)
		require.NoError(t, err)
		assert.Nil(t, change.OutOfOrderUntil)
	})

	t.Run("Back to available needs no confirmation", func(t *testing.T) {
		change, err := CheckOverride(room(domain.RoomStatusMaintenance), domain.RoomStatusAvailable, nil, 2, false)
		require.NoError(t, err)
		assert.Equal(t, domain.RoomStatusAvailable, change.Status)
	})

	t.Run("Unknown status", func(t *testing.T) {
		_, err := CheckOverride(room(domain.RoomStatusAvailable), "BROKEN", nil, 0, false)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestApplyHousekeeping(t *testing.T) {
	change, err := ApplyHousekeeping(room(domain.RoomStatusCleaning), domain.HousekeepingInspected, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusAvailable, change.Status)

	change, err = ApplyHousekeeping(room(domain.RoomStatusCleaning), domain.HousekeepingClean, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusReserved, change.Status)

	change, err = ApplyHousekeeping(room(domain.RoomStatusCleaning), domain.HousekeepingDirty, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusCleaning, change.Status)

	change, err = ApplyHousekeeping(room(domain.RoomStatusOccupied), domain.HousekeepingClean, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusOccupied, change.Status)
	assert.Equal(t, domain.HousekeepingClean, change.HousekeepingStatus)

	_, err = ApplyHousekeeping(room(domain.RoomStatusCleaning), "SPARKLING", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOutOfOrderExpired(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	r := room(domain.RoomStatusOutOfOrder)
	r.OutOfOrderUntil = &past
	assert.True(t, OutOfOrderExpired(r, now))

	r.OutOfOrderUntil = &future
	assert.False(t, OutOfOrderExpired(r, now))

	r.OutOfOrderUntil = nil
	assert.False(t, OutOfOrderExpired(r, now))
}
