package domain

import "time"

type NotificationType string

const (
	NotificationReservationConfirmed NotificationType = "RESERVATION_CONFIRMED"
	NotificationReservationCancelled NotificationType = "RESERVATION_CANCELLED"
	NotificationReservationCheckedIn NotificationType = "RESERVATION_CHECKED_IN"
)

// Notification is the in-app record written for staff of a business unit.
type Notification struct {
	ID             int32             `json:"id"`
	UserID         int32             `json:"user_id"`
	BusinessUnitID int32             `json:"business_unit_id"`
	Title          string            `json:"title"`
	Message        string            `json:"message"`
	IsRead         bool              `json:"is_read"`
	Attributes     map[string]string `json:"attributes"`
	CreatedAt      time.Time         `json:"created_at"`
}

// LifecycleNotice is handed to the dispatcher after a transition commits.
type LifecycleNotice struct {
	Type        NotificationType
	Reservation Reservation
	ActorID     int32
	Reason      string
}
