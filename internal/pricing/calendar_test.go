package pricing

import (
	"testing"
	"time"

	"hotel-pms-backend/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func weekendSpecial() domain.RoomRate {
	r := domain.RoomRate{
		ID:         1,
		RoomTypeID: 10,
		Name:       "Weekend Special",
		BaseRate:   decimal.NewFromInt(4000),
		Currency:   "PHP",
		ValidFrom:  domain.MustParseDate("2024-01-01"),
		IsActive:   true,
		MinStay:    1,
	}
	r.SetWeekdays(time.Friday, time.Saturday, time.Sunday)
	return r
}

func TestApplies(t *testing.T) {
	rate := weekendSpecial()

	t.Run("Applicable weekday inside window", func(t *testing.T) {
		assert.True(t, Applies(&rate, domain.MustParseDate("2024-01-05"))) // Friday
		assert.True(t, Applies(&rate, domain.MustParseDate("2024-01-07"))) // Sunday
	})

	t.Run("Weekday not flagged", func(t *testing.T) {
		assert.False(t, Applies(&rate, domain.MustParseDate("2024-01-08"))) // Monday
	})

	t.Run("Before valid_from", func(t *testing.T) {
		assert.False(t, Applies(&rate, domain.MustParseDate("2023-12-29"))) // Friday
	})

	t.Run("After valid_to", func(t *testing.T) {
		r := rate
		to := domain.MustParseDate("2024-01-31")
		r.ValidTo = &to
		assert.True(t, Applies(&r, domain.MustParseDate("2024-01-28")))
		assert.False(t, Applies(&r, domain.MustParseDate("2024-02-02")))
	})

	t.Run("Inactive rate", func(t *testing.T) {
		r := rate
		r.IsActive = false
		assert.False(t, Applies(&r, domain.MustParseDate("2024-01-05")))
	})

	t.Run("No weekday flags never applies", func(t *testing.T) {
		r := rate
		r.SetWeekdays()
		for d := domain.MustParseDate("2024-01-01"); d.Before(domain.MustParseDate("2024-03-01")); d = d.AddDays(1) {
			assert.False(t, Applies(&r, d), d.String())
		}
	})

	t.Run("Every night of a stay inside the window", func(t *testing.T) {
		r := rate
		r.SetWeekdays(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday)
		to := domain.MustParseDate("2024-06-30")
		r.ValidTo = &to
		for _, night := range domain.Nights(domain.MustParseDate("2024-06-20"), domain.MustParseDate("2024-07-01")) {
			assert.True(t, Applies(&r, night), night.String())
		}
	})
}

func TestValidateRate(t *testing.T) {
	t.Run("Valid rate", func(t *testing.T) {
		r := weekendSpecial()
		assert.NoError(t, ValidateRate(&r))
	})

	t.Run("No weekday rejected", func(t *testing.T) {
		r := weekendSpecial()
		r.SetWeekdays()
		assert.ErrorIs(t, ValidateRate(&r), domain.ErrNoApplicableWeekday)
	})

	t.Run("Inverted window and stay limits", func(t *testing.T) {
		r := weekendSpecial()
		to := domain.MustParseDate("2023-12-01")
		maxStay := 0
		r.ValidTo = &to
		r.MaxStay = &maxStay
		err := ValidateRate(&r)
		assert.ErrorIs(t, err, domain.ErrInvalidRate)
		assert.Contains(t, err.Error(), "valid_to is before valid_from")
		assert.Contains(t, err.Error(), "max_stay is below min_stay")
	})

	t.Run("Non-positive amount", func(t *testing.T) {
		r := weekendSpecial()
		r.BaseRate = decimal.Zero
		assert.ErrorIs(t, ValidateRate(&r), domain.ErrInvalidRate)
	})
}
