package domain

import "time"

// BusinessUnit is a property. Its timezone defines the local calendar used for
// every day-granularity rule.
type BusinessUnit struct {
	ID        int32     `json:"id"`
	Name      string    `json:"name"`
	Timezone  string    `json:"timezone"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

// Location falls back to def when the timezone is empty or unknown.
func (b *BusinessUnit) Location(def *time.Location) *time.Location {
	if b == nil || b.Timezone == "" {
		return def
	}
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return def
	}
	return loc
}
