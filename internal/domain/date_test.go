package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate(t *testing.T) {
	t.Run("Parse and weekday", func(t *testing.T) {
		d, err := ParseDate("2024-01-05")
		require.NoError(t, err)
		assert.Equal(t, time.Friday, d.Weekday())
		assert.Equal(t, "2024-01-05", d.String())

		_, err = ParseDate("05/01/2024")
		assert.Error(t, err)
	})

	t.Run("Local calendar", func(t *testing.T) {
		manila, err := time.LoadLocation("Asia/Manila")
		require.NoError(t, err)
		instant := time.Date(2024, 1, 4, 20, 0, 0, 0, time.UTC)
		assert.Equal(t, MustParseDate("2024-01-05"), DateOf(instant, manila))
		assert.Equal(t, MustParseDate("2024-01-04"), DateOf(instant, time.UTC))
	})

	t.Run("Nights are half open", func(t *testing.T) {
		nights := Nights(MustParseDate("2024-02-28"), MustParseDate("2024-03-02"))
		require.Len(t, nights, 3)
		assert.Equal(t, MustParseDate("2024-02-29"), nights[1])
		assert.Empty(t, Nights(MustParseDate("2024-03-02"), MustParseDate("2024-03-02")))
	})

	t.Run("Days between crosses DST", func(t *testing.T) {
		assert.Equal(t, 7, DaysBetween(MustParseDate("2024-03-07"), MustParseDate("2024-03-14")))
		assert.Equal(t, -1, DaysBetween(MustParseDate("2024-01-02"), MustParseDate("2024-01-01")))
	})

	t.Run("JSON", func(t *testing.T) {
		b, err := json.Marshal(struct {
			D Date  `json:"d"`
			P *Date `json:"p"`
		}{D: MustParseDate("2024-01-05")})
		require.NoError(t, err)
		assert.JSONEq(t, `{"d":"2024-01-05","p":null}`, string(b))

		var d Date
		require.NoError(t, json.Unmarshal([]byte(`"2024-12-31"`), &d))
		assert.Equal(t, MustParseDate("2024-12-31"), d)
	})

	t.Run("Scan", func(t *testing.T) {
		var d Date
		require.NoError(t, d.Scan(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)))
		assert.Equal(t, "2024-07-01", d.String())
		require.NoError(t, d.Scan([]byte("2024-07-02")))
		assert.Equal(t, "2024-07-02", d.String())
	})
}

func TestReservation_RecalculateTotal(t *testing.T) {
	res := Reservation{
		CheckInDate:  MustParseDate("2024-01-04"),
		CheckOutDate: MustParseDate("2024-01-06"),
		Stays: []RoomStay{{NightlyRates: []NightlyRate{
			{Night: MustParseDate("2024-01-04"), Amount: decimal.NewFromInt(5000)},
			{Night: MustParseDate("2024-01-05"), Amount: decimal.NewFromInt(4000)},
		}}},
	}
	res.RecalculateTotal()
	assert.Equal(t, 2, res.Nights())
	assert.True(t, decimal.NewFromInt(9000).Equal(res.TotalAmount))
	assert.True(t, decimal.NewFromInt(4500).Equal(res.Stays[0].NightlyRate))
	assert.Len(t, NewConfirmationNumber(), len("HTL-")+10)
}
