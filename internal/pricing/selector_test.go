package pricing

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"hotel-pms-backend/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deluxe() *domain.RoomType {
	return &domain.RoomType{
		ID:        10,
		Name:      "Deluxe",
		MaxAdults: 2,
		BaseRate:  decimal.NewNullDecimal(decimal.NewFromInt(5000)),
		Currency:  "PHP",
		IsActive:  true,
	}
}

func allWeek(r *domain.RoomRate) {
	r.SetWeekdays(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday)
}

func TestSelect_DeluxeWeekendScenario(t *testing.T) {
	rates := []domain.RoomRate{weekendSpecial()}

	t.Run("Friday to Sunday uses weekend special", func(t *testing.T) {
		nightly, err := Select(deluxe(), rates, domain.MustParseDate("2024-01-05"), domain.MustParseDate("2024-01-08"))
		require.NoError(t, err)
		require.Len(t, nightly, 3)
		for _, n := range nightly {
			assert.True(t, decimal.NewFromInt(4000).Equal(n.Amount), n.Night.String())
			require.NotNil(t, n.RateID)
			assert.Equal(t, int32(1), *n.RateID)
		}
	})

	t.Run("Monday to Wednesday falls back to base rate", func(t *testing.T) {
		nightly, err := Select(deluxe(), rates, domain.MustParseDate("2024-01-08"), domain.MustParseDate("2024-01-10"))
		require.NoError(t, err)
		require.Len(t, nightly, 2)
		for _, n := range nightly {
			assert.True(t, decimal.NewFromInt(5000).Equal(n.Amount))
			assert.Nil(t, n.RateID)
			assert.Equal(t, "PHP", n.Currency)
		}
	})

	t.Run("Mixed stay prices each night", func(t *testing.T) {
		nightly, err := Select(deluxe(), rates, domain.MustParseDate("2024-01-04"), domain.MustParseDate("2024-01-06"))
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(5000).Equal(nightly[0].Amount)) // Thursday
		assert.True(t, decimal.NewFromInt(4000).Equal(nightly[1].Amount)) // Friday
	})
}

func TestSelect_NoApplicableRate(t *testing.T) {
	rt := deluxe()
	rt.BaseRate = decimal.NullDecimal{}

	_, err := Select(rt, []domain.RoomRate{weekendSpecial()}, domain.MustParseDate("2024-01-08"), domain.MustParseDate("2024-01-09"))
	var rateErr *domain.RateError
	require.True(t, errors.As(err, &rateErr))
	assert.Equal(t, domain.NoApplicableRate, rateErr.Kind)
	assert.Equal(t, domain.MustParseDate("2024-01-08"), rateErr.Night)
}

func TestSelect_TieBreaks(t *testing.T) {
	checkIn := domain.MustParseDate("2024-03-04")
	checkOut := domain.MustParseDate("2024-03-05")

	rack := domain.RoomRate{ID: 1, RoomTypeID: 10, Name: "Rack", BaseRate: decimal.NewFromInt(6000), Currency: "PHP",
		ValidFrom: domain.MustParseDate("2024-01-01"), IsActive: true, IsDefault: true, MinStay: 1}
	allWeek(&rack)

	seasonEnd := domain.MustParseDate("2024-03-31")
	season := domain.RoomRate{ID: 2, RoomTypeID: 10, Name: "Season", BaseRate: decimal.NewFromInt(5500), Currency: "PHP",
		ValidFrom: domain.MustParseDate("2024-03-01"), ValidTo: &seasonEnd, IsActive: true, MinStay: 1}
	allWeek(&season)

	promoEnd := domain.MustParseDate("2024-03-10")
	promo := domain.RoomRate{ID: 3, RoomTypeID: 10, Name: "Promo", BaseRate: decimal.NewFromInt(4500), Currency: "PHP",
		ValidFrom: domain.MustParseDate("2024-03-01"), ValidTo: &promoEnd, IsActive: true, MinStay: 1}
	allWeek(&promo)

	t.Run("Non-default beats default", func(t *testing.T) {
		nightly, err := Select(deluxe(), []domain.RoomRate{rack, season}, checkIn, checkOut)
		require.NoError(t, err)
		assert.Equal(t, int32(2), *nightly[0].RateID)
	})

	t.Run("Narrowest window wins", func(t *testing.T) {
		nightly, err := Select(deluxe(), []domain.RoomRate{rack, season, promo}, checkIn, checkOut)
		require.NoError(t, err)
		assert.Equal(t, int32(3), *nightly[0].RateID)
	})

	t.Run("Fewer weekdays wins on equal window", func(t *testing.T) {
		monOnly := season
		monOnly.ID = 4
		monOnly.SetWeekdays(time.Monday)
		nightly, err := Select(deluxe(), []domain.RoomRate{season, monOnly}, checkIn, checkOut)
		require.NoError(t, err)
		assert.Equal(t, int32(4), *nightly[0].RateID)
	})

	t.Run("Identical specificity with different price is ambiguous", func(t *testing.T) {
		twin := promo
		twin.ID = 5
		twin.BaseRate = decimal.NewFromInt(4200)
		_, err := Select(deluxe(), []domain.RoomRate{promo, twin}, checkIn, checkOut)
		var rateErr *domain.RateError
		require.True(t, errors.As(err, &rateErr))
		assert.Equal(t, domain.AmbiguousRate, rateErr.Kind)
		assert.ElementsMatch(t, []int32{3, 5}, rateErr.RateIDs)
	})

	t.Run("Identical specificity with same price picks lowest id", func(t *testing.T) {
		twin := promo
		twin.ID = 7
		nightly, err := Select(deluxe(), []domain.RoomRate{twin, promo}, checkIn, checkOut)
		require.NoError(t, err)
		assert.Equal(t, int32(3), *nightly[0].RateID)
	})

	t.Run("Rates of other room types are ignored", func(t *testing.T) {
		other := promo
		other.ID = 9
		other.RoomTypeID = 11
		other.BaseRate = decimal.NewFromInt(100)
		nightly, err := Select(deluxe(), []domain.RoomRate{season, other}, checkIn, checkOut)
		require.NoError(t, err)
		assert.Equal(t, int32(2), *nightly[0].RateID)
	})
}

func TestSelect_Deterministic(t *testing.T) {
	var rates []domain.RoomRate
	for i := int32(1); i <= 8; i++ {
		r := domain.RoomRate{ID: i, RoomTypeID: 10, Name: "R", BaseRate: decimal.NewFromInt(int64(3000 + i*100)), Currency: "PHP",
			ValidFrom: domain.MustParseDate("2024-01-01").AddDays(int(i)), IsActive: true, MinStay: 1, IsDefault: i == 1}
		allWeek(&r)
		if i%2 == 0 {
			to := domain.MustParseDate("2024-12-31").AddDays(-int(i))
			r.ValidTo = &to
		}
		rates = append(rates, r)
	}
	checkIn := domain.MustParseDate("2024-05-01")
	checkOut := domain.MustParseDate("2024-05-15")

	first, err := Select(deluxe(), rates, checkIn, checkOut)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]domain.RoomRate(nil), rates...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		again, err := Select(deluxe(), shuffled, checkIn, checkOut)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRatesUsed(t *testing.T) {
	rates := []domain.RoomRate{weekendSpecial()}
	nightly, err := Select(deluxe(), rates, domain.MustParseDate("2024-01-04"), domain.MustParseDate("2024-01-08"))
	require.NoError(t, err)

	used := RatesUsed(nightly, rates)
	require.Len(t, used, 1)
	assert.Equal(t, int32(1), used[0].ID)
}
