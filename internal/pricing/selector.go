package pricing

import (
	"cmp"
	"math"
	"slices"

	"hotel-pms-backend/internal/domain"
)

const baseRateName = "Base rate"

// Select prices every night of [checkIn, checkOut) for one room type.
//
// When several rates apply to a night the winner is chosen by, in order:
// non-default before default, narrower validity window (open-ended counts as
// infinite), fewer weekday flags, later valid_from. Candidates still tied
// after those rules must agree on amount and currency, otherwise the night is
// AmbiguousRate; when they agree the lowest id wins. Nights no rate covers use
// the room type base rate, or fail with NoApplicableRate.
//
// The result depends only on the inputs, never on the order of rates.
func Select(roomType *domain.RoomType, rates []domain.RoomRate, checkIn, checkOut domain.Date) ([]domain.NightlyRate, error) {
	nights := domain.Nights(checkIn, checkOut)
	out := make([]domain.NightlyRate, 0, len(nights))
	for _, night := range nights {
		nr, err := selectNight(roomType, rates, night)
		if err != nil {
			return nil, err
		}
		out = append(out, nr)
	}
	return out, nil
}

func selectNight(roomType *domain.RoomType, rates []domain.RoomRate, night domain.Date) (domain.NightlyRate, error) {
	var candidates []*domain.RoomRate
	for i := range rates {
		r := &rates[i]
		if r.RoomTypeID == roomType.ID && Applies(r, night) {
			candidates = append(candidates, r)
		}
	}

	if len(candidates) == 0 {
		if !roomType.HasBaseRate() {
			return domain.NightlyRate{}, &domain.RateError{
				Kind:       domain.NoApplicableRate,
				RoomTypeID: roomType.ID,
				Night:      night,
			}
		}
		return domain.NightlyRate{
			Night:    night,
			RateName: baseRateName,
			Amount:   roomType.BaseRate.Decimal,
			Currency: roomType.Currency,
		}, nil
	}

	slices.SortFunc(candidates, func(a, b *domain.RoomRate) int {
		if c := compareSpecificity(a, b); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	best := candidates[0]
	var tied []int32
	for _, c := range candidates[1:] {
		if compareSpecificity(best, c) != 0 {
			break
		}
		if !c.BaseRate.Equal(best.BaseRate) || c.Currency != best.Currency {
			tied = append(tied, c.ID)
		}
	}
	if len(tied) > 0 {
		return domain.NightlyRate{}, &domain.RateError{
			Kind:       domain.AmbiguousRate,
			RoomTypeID: roomType.ID,
			Night:      night,
			RateIDs:    append([]int32{best.ID}, tied...),
		}
	}

	id := best.ID
	return domain.NightlyRate{
		Night:    night,
		RateID:   &id,
		RateName: best.Name,
		Amount:   best.BaseRate,
		Currency: best.Currency,
	}, nil
}

// compareSpecificity orders a before b when a is the more specific rate.
func compareSpecificity(a, b *domain.RoomRate) int {
	if a.IsDefault != b.IsDefault {
		if !a.IsDefault {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(windowDays(a), windowDays(b)); c != 0 {
		return c
	}
	if c := cmp.Compare(a.WeekdayCount(), b.WeekdayCount()); c != 0 {
		return c
	}
	return -a.ValidFrom.Compare(b.ValidFrom)
}

func windowDays(r *domain.RoomRate) int {
	if r.ValidTo == nil {
		return math.MaxInt
	}
	return domain.DaysBetween(r.ValidFrom, *r.ValidTo)
}

// RatesUsed returns the distinct rates referenced by nightly, in id order.
func RatesUsed(nightly []domain.NightlyRate, rates []domain.RoomRate) []domain.RoomRate {
	seen := make(map[int32]bool)
	var used []domain.RoomRate
	for _, n := range nightly {
		if n.RateID == nil || seen[*n.RateID] {
			continue
		}
		seen[*n.RateID] = true
		for _, r := range rates {
			if r.ID == *n.RateID {
				used = append(used, r)
				break
			}
		}
	}
	slices.SortFunc(used, func(a, b domain.RoomRate) int { return cmp.Compare(a.ID, b.ID) })
	return used
}
