// Package lifecycle holds the reservation state machine and the room side
// effects each transition carries. Nothing here touches storage; repositories
// apply the planned changes inside their own transactions.
package lifecycle

import (
	"hotel-pms-backend/internal/domain"
)

type Action string

const (
	ActionConfirm  Action = "CONFIRM"
	ActionCheckIn  Action = "CHECK_IN"
	ActionCheckOut Action = "CHECK_OUT"
	ActionCancel   Action = "CANCEL"
	ActionNoShow   Action = "NO_SHOW"
)

// Target is the status an action moves a reservation to.
func (a Action) Target() domain.ReservationStatus {
	switch a {
	case ActionConfirm:
		return domain.ReservationConfirmed
	case ActionCheckIn:
		return domain.ReservationCheckedIn
	case ActionCheckOut:
		return domain.ReservationCheckedOut
	case ActionCancel:
		return domain.ReservationCancelled
	case ActionNoShow:
		return domain.ReservationNoShow
	}
	return ""
}

// RoomEffect is what a transition does to the rooms a reservation holds.
type RoomEffect string

const (
	EffectNone    RoomEffect = ""
	EffectReserve RoomEffect = "RESERVE"
	EffectOccupy  RoomEffect = "OCCUPY"
	EffectVacate  RoomEffect = "VACATE"
	EffectRelease RoomEffect = "RELEASE"
)

type Transition struct {
	Action Action
	From   domain.ReservationStatus
	To     domain.ReservationStatus
	Effect RoomEffect
	// AssignsRoom transitions must re-check overlapping holders under lock.
	AssignsRoom bool
}

type edge struct {
	from   domain.ReservationStatus
	action Action
}

var transitions = map[edge]RoomEffect{
	{domain.ReservationPending, ActionConfirm}:     EffectReserve,
	{domain.ReservationProvisional, ActionConfirm}: EffectReserve,
	{domain.ReservationInquiry, ActionConfirm}:     EffectReserve,

	{domain.ReservationConfirmed, ActionCheckIn}: EffectOccupy,

	{domain.ReservationCheckedIn, ActionCheckOut}: EffectVacate,
	{domain.ReservationWalkedIn, ActionCheckOut}:  EffectVacate,

	{domain.ReservationPending, ActionCancel}:     EffectRelease,
	{domain.ReservationProvisional, ActionCancel}: EffectRelease,
	{domain.ReservationConfirmed, ActionCancel}:   EffectRelease,

	{domain.ReservationConfirmed, ActionNoShow}: EffectRelease,
}

// Plan resolves action against the current status. A true noop means the
// reservation is already where the action would put it and the caller should
// report success without writing anything.
func Plan(current domain.ReservationStatus, action Action) (Transition, bool, error) {
	if action == ActionConfirm && current == domain.ReservationConfirmed {
		return Transition{}, true, nil
	}
	if action == ActionCancel && current == domain.ReservationCancelled {
		return Transition{}, true, nil
	}

	effect, ok := transitions[edge{current, action}]
	if !ok {
		return Transition{}, false, &domain.InvalidTransitionError{From: current, To: action.Target()}
	}
	return Transition{
		Action:      action,
		From:        current,
		To:          action.Target(),
		Effect:      effect,
		AssignsRoom: action == ActionConfirm || action == ActionCheckIn,
	}, false, nil
}

// Terminal reports whether no further transitions are allowed from s.
func Terminal(s domain.ReservationStatus) bool {
	return s == domain.ReservationCheckedOut || s == domain.ReservationCancelled || s == domain.ReservationNoShow
}

// ValidInitialStatus lists the statuses a reservation may be created in.
func ValidInitialStatus(s domain.ReservationStatus) bool {
	switch s {
	case domain.ReservationPending, domain.ReservationProvisional, domain.ReservationInquiry, domain.ReservationWalkedIn:
		return true
	}
	return false
}

// NoShowDue is true once the check-in date has fully elapsed in the
// property calendar.
func NoShowDue(checkIn, today domain.Date) bool {
	return today.After(checkIn)
}
