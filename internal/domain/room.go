package domain

import "time"

type RoomStatus string

const (
	RoomStatusAvailable   RoomStatus = "AVAILABLE"
	RoomStatusOccupied    RoomStatus = "OCCUPIED"
	RoomStatusReserved    RoomStatus = "RESERVED"
	RoomStatusCleaning    RoomStatus = "CLEANING"
	RoomStatusMaintenance RoomStatus = "MAINTENANCE"
	RoomStatusOutOfOrder  RoomStatus = "OUT_OF_ORDER"
	RoomStatusBlocked     RoomStatus = "BLOCKED"
)

func (s RoomStatus) Valid() bool {
	switch s {
	case RoomStatusAvailable, RoomStatusOccupied, RoomStatusReserved, RoomStatusCleaning,
		RoomStatusMaintenance, RoomStatusOutOfOrder, RoomStatusBlocked:
		return true
	}
	return false
}

// OutOfService is true for statuses that take the room out of sellable inventory.
func (s RoomStatus) OutOfService() bool {
	return s == RoomStatusMaintenance || s == RoomStatusOutOfOrder || s == RoomStatusBlocked
}

type HousekeepingStatus string

const (
	HousekeepingClean     HousekeepingStatus = "CLEAN"
	HousekeepingDirty     HousekeepingStatus = "DIRTY"
	HousekeepingInspected HousekeepingStatus = "INSPECTED"
)

func (s HousekeepingStatus) Valid() bool {
	return s == HousekeepingClean || s == HousekeepingDirty || s == HousekeepingInspected
}

type Room struct {
	ID                 int32              `json:"id"`
	BusinessUnitID     int32              `json:"business_unit_id"`
	RoomTypeID         int32              `json:"room_type_id"`
	RoomNumber         string             `json:"room_number"`
	Floor              int                `json:"floor"`
	Status             RoomStatus         `json:"status"`
	HousekeepingStatus HousekeepingStatus `json:"housekeeping_status"`
	OutOfOrderUntil    *time.Time         `json:"out_of_order_until,omitempty"`
	IsActive           bool               `json:"is_active"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// RoomStatusChange is the outcome of applying a lifecycle side effect or an
// override to a room.
type RoomStatusChange struct {
	Status             RoomStatus
	HousekeepingStatus HousekeepingStatus
	OutOfOrderUntil    *time.Time
}
