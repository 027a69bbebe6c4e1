package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RoomRate is a pricing rule scoped to one RoomType.
type RoomRate struct {
	ID         int32           `json:"id"`
	RoomTypeID int32           `json:"room_type_id"`
	Name       string          `json:"name"`
	BaseRate   decimal.Decimal `json:"base_rate"`
	Currency   string          `json:"currency"`
	ValidFrom  Date            `json:"valid_from"`
	ValidTo    *Date           `json:"valid_to,omitempty"`
	Monday     bool            `json:"monday"`
	Tuesday    bool            `json:"tuesday"`
	Wednesday  bool            `json:"wednesday"`
	Thursday   bool            `json:"thursday"`
	Friday     bool            `json:"friday"`
	Saturday   bool            `json:"saturday"`
	Sunday     bool            `json:"sunday"`
	IsDefault  bool            `json:"is_default"`
	IsActive   bool            `json:"is_active"`
	MinStay    int             `json:"min_stay"`
	MaxStay    *int            `json:"max_stay,omitempty"`
	MinAdvance *int            `json:"min_advance,omitempty"`
	MaxAdvance *int            `json:"max_advance,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// AppliesOn returns the flag for the given weekday.
func (r *RoomRate) AppliesOn(wd time.Weekday) bool {
	switch wd {
	case time.Monday:
		return r.Monday
	case time.Tuesday:
		return r.Tuesday
	case time.Wednesday:
		return r.Wednesday
	case time.Thursday:
		return r.Thursday
	case time.Friday:
		return r.Friday
	case time.Saturday:
		return r.Saturday
	case time.Sunday:
		return r.Sunday
	}
	return false
}

// WeekdayCount is the number of weekday flags set.
func (r *RoomRate) WeekdayCount() int {
	n := 0
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if r.AppliesOn(wd) {
			n++
		}
	}
	return n
}

// SetWeekdays replaces every weekday flag.
func (r *RoomRate) SetWeekdays(days ...time.Weekday) {
	r.Monday, r.Tuesday, r.Wednesday, r.Thursday = false, false, false, false
	r.Friday, r.Saturday, r.Sunday = false, false, false
	for _, d := range days {
		switch d {
		case time.Monday:
			r.Monday = true
		case time.Tuesday:
			r.Tuesday = true
		case time.Wednesday:
			r.Wednesday = true
		case time.Thursday:
			r.Thursday = true
		case time.Friday:
			r.Friday = true
		case time.Saturday:
			r.Saturday = true
		case time.Sunday:
			r.Sunday = true
		}
	}
}
