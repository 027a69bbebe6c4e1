package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound                     = errors.New("not found")
	ErrForbidden                    = errors.New("forbidden")
	ErrInvalidInput                 = errors.New("invalid input")
	ErrInvalidRate                  = errors.New("invalid room rate")
	ErrNoApplicableWeekday          = errors.New("rate must apply to at least one weekday")
	ErrCurrencyMismatch             = errors.New("currency does not match room type currency")
	ErrReasonRequired               = errors.New("cancellation reason is required")
	ErrRoomTypeInUse                = errors.New("room type still has rooms")
	ErrRoomOutOfService             = errors.New("room is out of service")
	ErrRoomInactive                 = errors.New("room or room type is inactive")
	ErrOverrideRequiresConfirmation = errors.New("room has an active reservation; status override requires explicit confirmation")
	ErrNoShowTooEarly               = errors.New("check-in date has not fully elapsed")
	ErrRefundExceedsBalance         = errors.New("refund exceeds refundable balance")
)

type RateErrorKind string

const (
	NoApplicableRate RateErrorKind = "NO_APPLICABLE_RATE"
	AmbiguousRate    RateErrorKind = "AMBIGUOUS_RATE"
)

// RateError reports a night the selector could not price.
type RateError struct {
	Kind       RateErrorKind `json:"kind"`
	RoomTypeID int32         `json:"room_type_id"`
	Night      Date          `json:"night"`
	RateIDs    []int32       `json:"rate_ids,omitempty"`
}

func (e *RateError) Error() string {
	if e.Kind == AmbiguousRate {
		return fmt.Sprintf("ambiguous rates %v for room type %d on %s", e.RateIDs, e.RoomTypeID, e.Night)
	}
	return fmt.Sprintf("no applicable rate for room type %d on %s", e.RoomTypeID, e.Night)
}

type ViolationKind string

const (
	StayTooShort      ViolationKind = "STAY_TOO_SHORT"
	StayTooLong       ViolationKind = "STAY_TOO_LONG"
	TooEarly          ViolationKind = "TOO_EARLY"
	TooLate           ViolationKind = "TOO_LATE"
	InvalidStayRange  ViolationKind = "INVALID_STAY_RANGE"
	CheckInInPast     ViolationKind = "CHECK_IN_IN_PAST"
	OccupancyExceeded ViolationKind = "OCCUPANCY_EXCEEDED"
)

type ConstraintViolation struct {
	Kind    ViolationKind `json:"kind"`
	RateID  int32         `json:"rate_id,omitempty"`
	Limit   int           `json:"limit"`
	Actual  int           `json:"actual"`
	Message string        `json:"message"`
}

// ConstraintViolations is every problem found with a candidate stay.
type ConstraintViolations []ConstraintViolation

func (v ConstraintViolations) Error() string {
	msgs := make([]string, len(v))
	for i, c := range v {
		msgs[i] = c.Message
	}
	return "stay constraints violated: " + strings.Join(msgs, "; ")
}

func (v ConstraintViolations) Has(kind ViolationKind) bool {
	for _, c := range v {
		if c.Kind == kind {
			return true
		}
	}
	return false
}

type InvalidTransitionError struct {
	From ReservationStatus `json:"from"`
	To   ReservationStatus `json:"to"`
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid reservation transition from %s to %s", e.From, e.To)
}

// InventoryConflictError means another stay holds the room; callers should
// search availability again and retry.
type InventoryConflictError struct {
	RoomID                   int32 `json:"room_id"`
	ConflictingReservationID int32 `json:"conflicting_reservation_id"`
}

func (e *InventoryConflictError) Error() string {
	if e.ConflictingReservationID == 0 {
		return fmt.Sprintf("room %d was modified concurrently", e.RoomID)
	}
	return fmt.Sprintf("room %d is held by reservation %d", e.RoomID, e.ConflictingReservationID)
}

func (e *InventoryConflictError) Retryable() bool { return true }

type RefundNotAllowedError struct {
	CurrentStatus PaymentStatus `json:"current_status"`
}

func (e *RefundNotAllowedError) Error() string {
	return fmt.Sprintf("refund not allowed for payment in status %s", e.CurrentStatus)
}
