package lifecycle

import (
	"time"

	"hotel-pms-backend/internal/domain"
)

// ApplyRoomEffect works out the room change for one transition. otherHolders
// is the number of other active reservations holding the room, and decides
// whether a release actually frees it. changed is false when the room must be
// left alone.
func ApplyRoomEffect(effect RoomEffect, room *domain.Room, otherHolders int) (domain.RoomStatusChange, bool, error) {
	current := domain.RoomStatusChange{
		Status:             room.Status,
		HousekeepingStatus: room.HousekeepingStatus,
		OutOfOrderUntil:    room.OutOfOrderUntil,
	}

	switch effect {
	case EffectReserve:
		if room.Status.OutOfService() {
			return current, false, domain.ErrRoomOutOfService
		}
		if room.Status != domain.RoomStatusAvailable {
			return current, false, nil
		}
		current.Status = domain.RoomStatusReserved
		return current, true, nil

	case EffectOccupy:
		if room.Status.OutOfService() {
			return current, false, domain.ErrRoomOutOfService
		}
		if room.Status == domain.RoomStatusOccupied {
			return current, false, nil
		}
		current.Status = domain.RoomStatusOccupied
		return current, true, nil

	case EffectVacate:
		if room.Status != domain.RoomStatusOccupied {
			return current, false, nil
		}
		current.Status = domain.RoomStatusCleaning
		current.HousekeepingStatus = domain.HousekeepingDirty
		return current, true, nil

	case EffectRelease:
		if room.Status != domain.RoomStatusReserved || otherHolders > 0 {
			return current, false, nil
		}
		current.Status = domain.RoomStatusAvailable
		return current, true, nil
	}
	return current, false, nil
}

// CheckOverride validates an admin status override. Taking a room out of
// service while an active reservation holds it needs force.
func CheckOverride(room *domain.Room, target domain.RoomStatus, until *time.Time, activeHolders int, force bool) (domain.RoomStatusChange, error) {
	if !target.Valid() {
		return domain.RoomStatusChange{}, domain.ErrInvalidInput
	}
	if target.OutOfService() && activeHolders > 0 && !force {
		return domain.RoomStatusChange{}, domain.ErrOverrideRequiresConfirmation
	}
	change := domain.RoomStatusChange{
		Status:             target,
		HousekeepingStatus: room.HousekeepingStatus,
	}
	if target == domain.RoomStatusOutOfOrder {
		change.OutOfOrderUntil = until
	}
	return change, nil
}

// ApplyHousekeeping records a housekeeping status. A room being cleaned comes
// out of CLEANING once it is marked clean or inspected: RESERVED when an
// active reservation still holds it, AVAILABLE otherwise.
func ApplyHousekeeping(room *domain.Room, hk domain.HousekeepingStatus, activeHolders int) (domain.RoomStatusChange, error) {
	if !hk.Valid() {
		return domain.RoomStatusChange{}, domain.ErrInvalidInput
	}
	change := domain.RoomStatusChange{
		Status:             room.Status,
		HousekeepingStatus: hk,
		OutOfOrderUntil:    room.OutOfOrderUntil,
	}
	if room.Status == domain.RoomStatusCleaning && hk != domain.HousekeepingDirty {
		change.Status = domain.RoomStatusAvailable
		if activeHolders > 0 {
			change.Status = domain.RoomStatusReserved
		}
	}
	return change, nil
}

// OutOfOrderExpired is the in-process form of the sweep predicate.
func OutOfOrderExpired(room *domain.Room, now time.Time) bool {
	return room.Status == domain.RoomStatusOutOfOrder && room.OutOfOrderUntil != nil && room.OutOfOrderUntil.Before(now)
}
