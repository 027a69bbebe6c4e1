package pricing

import (
	"fmt"

	"hotel-pms-backend/internal/domain"
)

// StayCandidate is a proposed stay against the rates that priced it.
type StayCandidate struct {
	CheckIn  domain.Date
	CheckOut domain.Date
	// Today is the booking date in the property's calendar.
	Today    domain.Date
	Adults   int
	Children int
	RoomType *domain.RoomType
	Rates    []domain.RoomRate
	WalkIn   bool
}

// ValidateStay checks every constraint independently and returns all
// violations as domain.ConstraintViolations, or nil.
func ValidateStay(c StayCandidate) error {
	var v domain.ConstraintViolations

	nights := domain.DaysBetween(c.CheckIn, c.CheckOut)
	if nights <= 0 {
		v = append(v, domain.ConstraintViolation{
			Kind:    domain.InvalidStayRange,
			Limit:   1,
			Actual:  nights,
			Message: "check-out must be after check-in",
		})
	}

	advance := domain.DaysBetween(c.Today, c.CheckIn)
	if advance < 0 {
		v = append(v, domain.ConstraintViolation{
			Kind:    domain.CheckInInPast,
			Actual:  advance,
			Message: fmt.Sprintf("check-in %s is before today %s", c.CheckIn, c.Today),
		})
	}

	if c.RoomType != nil {
		if c.RoomType.MaxAdults > 0 && c.Adults > c.RoomType.MaxAdults {
			v = append(v, domain.ConstraintViolation{
				Kind:    domain.OccupancyExceeded,
				Limit:   c.RoomType.MaxAdults,
				Actual:  c.Adults,
				Message: fmt.Sprintf("%s allows at most %d adults", c.RoomType.Name, c.RoomType.MaxAdults),
			})
		}
		if c.Children > c.RoomType.MaxChildren {
			v = append(v, domain.ConstraintViolation{
				Kind:    domain.OccupancyExceeded,
				Limit:   c.RoomType.MaxChildren,
				Actual:  c.Children,
				Message: fmt.Sprintf("%s allows at most %d children", c.RoomType.Name, c.RoomType.MaxChildren),
			})
		}
	}

	for _, r := range c.Rates {
		if nights > 0 && nights < r.MinStay {
			v = append(v, domain.ConstraintViolation{
				Kind:    domain.StayTooShort,
				RateID:  r.ID,
				Limit:   r.MinStay,
				Actual:  nights,
				Message: fmt.Sprintf("rate %q requires at least %d nights", r.Name, r.MinStay),
			})
		}
		if nights > 0 && r.MaxStay != nil && nights > *r.MaxStay {
			v = append(v, domain.ConstraintViolation{
				Kind:    domain.StayTooLong,
				RateID:  r.ID,
				Limit:   *r.MaxStay,
				Actual:  nights,
				Message: fmt.Sprintf("rate %q allows at most %d nights", r.Name, *r.MaxStay),
			})
		}
		if c.WalkIn {
			continue
		}
		if r.MinAdvance != nil && advance < *r.MinAdvance {
			v = append(v, domain.ConstraintViolation{
				Kind:    domain.TooEarly,
				RateID:  r.ID,
				Limit:   *r.MinAdvance,
				Actual:  advance,
				Message: fmt.Sprintf("rate %q must be booked at least %d days before check-in", r.Name, *r.MinAdvance),
			})
		}
		if r.MaxAdvance != nil && advance > *r.MaxAdvance {
			v = append(v, domain.ConstraintViolation{
				Kind:    domain.TooLate,
				RateID:  r.ID,
				Limit:   *r.MaxAdvance,
				Actual:  advance,
				Message: fmt.Sprintf("rate %q cannot be booked more than %d days before check-in", r.Name, *r.MaxAdvance),
			})
		}
	}

	if len(v) == 0 {
		return nil
	}
	return v
}
