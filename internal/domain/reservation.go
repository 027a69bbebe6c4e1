package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	ReservationPending     ReservationStatus = "PENDING"
	ReservationProvisional ReservationStatus = "PROVISIONAL"
	ReservationInquiry     ReservationStatus = "INQUIRY"
	ReservationConfirmed   ReservationStatus = "CONFIRMED"
	ReservationCheckedIn   ReservationStatus = "CHECKED_IN"
	ReservationCheckedOut  ReservationStatus = "CHECKED_OUT"
	ReservationCancelled   ReservationStatus = "CANCELLED"
	ReservationNoShow      ReservationStatus = "NO_SHOW"
	ReservationWalkedIn    ReservationStatus = "WALKED_IN"
)

// ActiveReservationStatuses hold a room for their nights.
var ActiveReservationStatuses = []ReservationStatus{
	ReservationConfirmed,
	ReservationCheckedIn,
	ReservationWalkedIn,
}

func (s ReservationStatus) Active() bool {
	for _, a := range ActiveReservationStatuses {
		if s == a {
			return true
		}
	}
	return false
}

// NightlyRate is the price of one night of one room stay.
type NightlyRate struct {
	Night    Date            `json:"night"`
	RateID   *int32          `json:"rate_id,omitempty"` // nil when the room type base rate was used
	RateName string          `json:"rate_name"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// RoomStay is a reservation line item. Nightly rates are a snapshot taken at
// booking time and are never re-derived from live rates.
type RoomStay struct {
	ID            int32           `json:"id"`
	ReservationID int32           `json:"reservation_id"`
	RoomID        int32           `json:"room_id"`
	RoomTypeID    int32           `json:"room_type_id"`
	NightlyRates  []NightlyRate   `json:"nightly_rates"`
	NightlyRate   decimal.Decimal `json:"nightly_rate"`
	Total         decimal.Decimal `json:"total"`
}

// Recalculate sets Total to the sum of the nightly amounts and NightlyRate to
// their average.
func (s *RoomStay) Recalculate() {
	total := decimal.Zero
	for _, n := range s.NightlyRates {
		total = total.Add(n.Amount)
	}
	s.Total = total
	if len(s.NightlyRates) > 0 {
		s.NightlyRate = total.Div(decimal.NewFromInt(int64(len(s.NightlyRates)))).Round(2)
	}
}

type Reservation struct {
	ID                 int32             `json:"id"`
	ConfirmationNumber string            `json:"confirmation_number"`
	BusinessUnitID     int32             `json:"business_unit_id"`
	GuestID            int32             `json:"guest_id"`
	GuestName          string            `json:"guest_name"`
	GuestEmail         string            `json:"guest_email"`
	CheckInDate        Date              `json:"check_in_date"`
	CheckOutDate       Date              `json:"check_out_date"`
	Adults             int               `json:"adults"`
	Children           int               `json:"children"`
	Status             ReservationStatus `json:"status"`
	PaymentStatus      PaymentStatus     `json:"payment_status"`
	TotalAmount        decimal.Decimal   `json:"total_amount"`
	Currency           string            `json:"currency"`
	SpecialRequests    string            `json:"special_requests"`
	InternalNotes      string            `json:"internal_notes"`
	Source             string            `json:"source"`
	CancellationReason string            `json:"cancellation_reason,omitempty"`
	Stays              []RoomStay        `json:"stays"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

func (r *Reservation) Nights() int { return DaysBetween(r.CheckInDate, r.CheckOutDate) }

func (r *Reservation) RoomIDs() []int32 {
	ids := make([]int32, 0, len(r.Stays))
	for _, s := range r.Stays {
		ids = append(ids, s.RoomID)
	}
	return ids
}

// RecalculateTotal keeps TotalAmount equal to the sum of line-item totals.
func (r *Reservation) RecalculateTotal() {
	total := decimal.Zero
	for i := range r.Stays {
		r.Stays[i].Recalculate()
		total = total.Add(r.Stays[i].Total)
	}
	r.TotalAmount = total
}

// NewConfirmationNumber returns a short unique booking reference.
func NewConfirmationNumber() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("HTL-%s", id[:10])
}

// ReservationEvent is the immutable audit row written with every transition.
type ReservationEvent struct {
	ID            int32             `json:"id"`
	ReservationID int32             `json:"reservation_id"`
	FromStatus    ReservationStatus `json:"from_status"`
	ToStatus      ReservationStatus `json:"to_status"`
	ActorID       int32             `json:"actor_id"`
	Reason        string            `json:"reason"`
	CreatedAt     time.Time         `json:"created_at"`
}
