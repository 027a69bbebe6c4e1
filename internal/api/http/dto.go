package http

import (
	"time"

	"hotel-pms-backend/internal/domain"

	"github.com/shopspring/decimal"
)

type roomTypeRequest struct {
	Name        string           `json:"name" validate:"required,max=100"`
	MaxAdults   int              `json:"max_adults" validate:"min=1,max=20"`
	MaxChildren int              `json:"max_children" validate:"min=0,max=20"`
	MaxInfants  int              `json:"max_infants" validate:"min=0,max=20"`
	BaseRate    *decimal.Decimal `json:"base_rate"`
	Currency    string           `json:"currency" validate:"required,len=3,uppercase"`
}

func (req *roomTypeRequest) toDomain(rt *domain.RoomType) {
	rt.Name = req.Name
	rt.MaxAdults = req.MaxAdults
	rt.MaxChildren = req.MaxChildren
	rt.MaxInfants = req.MaxInfants
	rt.Currency = req.Currency
	rt.BaseRate = decimal.NullDecimal{}
	if req.BaseRate != nil {
		rt.BaseRate = decimal.NewNullDecimal(*req.BaseRate)
	}
}

var weekdayNames = map[string]time.Weekday{
	"MON": time.Monday,
	"TUE": time.Tuesday,
	"WED": time.Wednesday,
	"THU": time.Thursday,
	"FRI": time.Friday,
	"SAT": time.Saturday,
	"SUN": time.Sunday,
}

type rateRequest struct {
	Name       string          `json:"name" validate:"required,max=100"`
	BaseRate   decimal.Decimal `json:"base_rate"`
	Currency   string          `json:"currency" validate:"required,len=3,uppercase"`
	ValidFrom  domain.Date     `json:"valid_from"`
	ValidTo    *domain.Date    `json:"valid_to"`
	Weekdays   []string        `json:"weekdays" validate:"dive,oneof=MON TUE WED THU FRI SAT SUN"`
	IsDefault  bool            `json:"is_default"`
	IsActive   *bool           `json:"is_active"`
	MinStay    int             `json:"min_stay" validate:"min=0"`
	MaxStay    *int            `json:"max_stay" validate:"omitempty,min=1"`
	MinAdvance *int            `json:"min_advance" validate:"omitempty,min=0"`
	MaxAdvance *int            `json:"max_advance" validate:"omitempty,min=0"`
}

func (req *rateRequest) toDomain(rate *domain.RoomRate) {
	rate.Name = req.Name
	rate.BaseRate = req.BaseRate
	rate.Currency = req.Currency
	rate.ValidFrom = req.ValidFrom
	rate.ValidTo = req.ValidTo
	days := make([]time.Weekday, 0, len(req.Weekdays))
	for _, d := range req.Weekdays {
		days = append(days, weekdayNames[d])
	}
	rate.SetWeekdays(days...)
	rate.IsDefault = req.IsDefault
	rate.IsActive = true
	if req.IsActive != nil {
		rate.IsActive = *req.IsActive
	}
	rate.MinStay = req.MinStay
	rate.MaxStay = req.MaxStay
	rate.MinAdvance = req.MinAdvance
	rate.MaxAdvance = req.MaxAdvance
}

type quoteRequest struct {
	CheckIn  domain.Date `json:"check_in"`
	CheckOut domain.Date `json:"check_out"`
	Adults   int         `json:"adults" validate:"min=1"`
	Children int         `json:"children" validate:"min=0"`
	WalkIn   bool        `json:"walk_in"`
}

type roomRequest struct {
	RoomTypeID int32  `json:"room_type_id" validate:"required,gt=0"`
	RoomNumber string `json:"room_number" validate:"required,max=20"`
	Floor      int    `json:"floor"`
}

type statusOverrideRequest struct {
	Status          domain.RoomStatus `json:"status" validate:"required,oneof=AVAILABLE OCCUPIED RESERVED CLEANING MAINTENANCE OUT_OF_ORDER BLOCKED"`
	OutOfOrderUntil *time.Time        `json:"out_of_order_until"`
	Force           bool              `json:"force"`
	Reason          string            `json:"reason" validate:"max=500"`
}

type housekeepingRequest struct {
	Status domain.HousekeepingStatus `json:"status" validate:"required,oneof=CLEAN DIRTY INSPECTED"`
}

type createReservationRequest struct {
	GuestID         int32                    `json:"guest_id"`
	GuestName       string                   `json:"guest_name" validate:"required,max=200"`
	GuestEmail      string                   `json:"guest_email" validate:"omitempty,email"`
	CheckIn         domain.Date              `json:"check_in"`
	CheckOut        domain.Date              `json:"check_out"`
	Adults          int                      `json:"adults" validate:"min=1"`
	Children        int                      `json:"children" validate:"min=0"`
	Status          domain.ReservationStatus `json:"status" validate:"omitempty,oneof=PENDING PROVISIONAL INQUIRY WALKED_IN"`
	RoomIDs         []int32                  `json:"room_ids" validate:"required,min=1,dive,gt=0"`
	SpecialRequests string                   `json:"special_requests" validate:"max=2000"`
	InternalNotes   string                   `json:"internal_notes" validate:"max=2000"`
	Source          string                   `json:"source" validate:"max=50"`
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type paymentRequest struct {
	Amount            decimal.Decimal          `json:"amount"`
	Currency          string                   `json:"currency" validate:"omitempty,len=3,uppercase"`
	Status            domain.PaymentStatus     `json:"status"`
	Method            string                   `json:"method" validate:"required,max=50"`
	ProviderReference string                   `json:"provider_reference" validate:"max=200"`
	LineItems         []domain.PaymentLineItem `json:"line_items"`
}

type refundRequest struct {
	// Amount omitted refunds the remaining balance.
	Amount *decimal.Decimal `json:"amount"`
	Reason string           `json:"reason" validate:"required,max=500"`
}
