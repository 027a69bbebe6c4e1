// Package pricing holds the pure rate rules: which rate applies on a night,
// which rate wins when several do, and whether a stay satisfies the
// constraints of the rates that priced it.
package pricing

import (
	"fmt"
	"strings"

	"hotel-pms-backend/internal/domain"
)

// Applies reports whether rate can price the given night. Nights are civil
// dates in the property's calendar.
func Applies(rate *domain.RoomRate, night domain.Date) bool {
	if rate == nil || !rate.IsActive {
		return false
	}
	if night.Before(rate.ValidFrom) {
		return false
	}
	if rate.ValidTo != nil && night.After(*rate.ValidTo) {
		return false
	}
	return rate.AppliesOn(night.Weekday())
}

// ValidateRate rejects configurations that could never apply or that
// contradict themselves.
func ValidateRate(rate *domain.RoomRate) error {
	if rate.WeekdayCount() == 0 {
		return domain.ErrNoApplicableWeekday
	}
	var problems []string
	if strings.TrimSpace(rate.Name) == "" {
		problems = append(problems, "name is required")
	}
	if !rate.BaseRate.IsPositive() {
		problems = append(problems, "base rate must be positive")
	}
	if len(rate.Currency) != 3 {
		problems = append(problems, "currency must be a 3-letter code")
	}
	if rate.ValidFrom.IsZero() {
		problems = append(problems, "valid_from is required")
	}
	if rate.ValidTo != nil && rate.ValidTo.Before(rate.ValidFrom) {
		problems = append(problems, "valid_to is before valid_from")
	}
	if rate.MinStay < 1 {
		problems = append(problems, "min_stay must be at least 1")
	}
	if rate.MaxStay != nil && *rate.MaxStay < rate.MinStay {
		problems = append(problems, "max_stay is below min_stay")
	}
	if rate.MinAdvance != nil && *rate.MinAdvance < 0 {
		problems = append(problems, "min_advance is negative")
	}
	if rate.MaxAdvance != nil && *rate.MaxAdvance < 0 {
		problems = append(problems, "max_advance is negative")
	}
	if rate.MinAdvance != nil && rate.MaxAdvance != nil && *rate.MaxAdvance < *rate.MinAdvance {
		problems = append(problems, "max_advance is below min_advance")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidRate, strings.Join(problems, "; "))
	}
	return nil
}
