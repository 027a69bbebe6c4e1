package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RoomType struct {
	ID             int32               `json:"id"`
	BusinessUnitID int32               `json:"business_unit_id"`
	Name           string              `json:"name"`
	MaxAdults      int                 `json:"max_adults"`
	MaxChildren    int                 `json:"max_children"`
	MaxInfants     int                 `json:"max_infants"`
	BaseRate       decimal.NullDecimal `json:"base_rate"`
	Currency       string              `json:"currency"`
	IsActive       bool                `json:"is_active"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// HasBaseRate reports whether the type can price nights no rate covers.
func (rt *RoomType) HasBaseRate() bool {
	return rt.BaseRate.Valid && rt.BaseRate.Decimal.IsPositive()
}
