package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "PENDING"
	PaymentProcessing        PaymentStatus = "PROCESSING"
	PaymentSucceeded         PaymentStatus = "SUCCEEDED"
	PaymentPaid              PaymentStatus = "PAID"
	PaymentPartial           PaymentStatus = "PARTIAL"
	PaymentFailed            PaymentStatus = "FAILED"
	PaymentCancelled         PaymentStatus = "CANCELLED"
	PaymentRefunded          PaymentStatus = "REFUNDED"
	PaymentPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
	PaymentDisputed          PaymentStatus = "DISPUTED"
	PaymentChargeback        PaymentStatus = "CHARGEBACK"
	PaymentExpired           PaymentStatus = "EXPIRED"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentProcessing, PaymentSucceeded, PaymentPaid, PaymentPartial,
		PaymentFailed, PaymentCancelled, PaymentRefunded, PaymentPartiallyRefunded,
		PaymentDisputed, PaymentChargeback, PaymentExpired:
		return true
	}
	return false
}

type PaymentLineItem struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

type Payment struct {
	ID                int32             `json:"id"`
	ReservationID     *int32            `json:"reservation_id,omitempty"`
	Amount            decimal.Decimal   `json:"amount"`
	RefundedAmount    decimal.Decimal   `json:"refunded_amount"`
	Currency          string            `json:"currency"`
	Status            PaymentStatus     `json:"status"`
	Method            string            `json:"method"`
	ProviderReference string            `json:"provider_reference"`
	LineItems         []PaymentLineItem `json:"line_items"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// RefundableStatuses are the captured states a refund may start from. A
// partially refunded payment takes no further refunds.
var RefundableStatuses = []PaymentStatus{PaymentSucceeded, PaymentPaid}

func (p *Payment) Refundable() bool {
	for _, s := range RefundableStatuses {
		if p.Status == s {
			return true
		}
	}
	return false
}

// PlanRefund decides the status a refund of amount leads to. A zero amount
// means the full balance.
func (p *Payment) PlanRefund(amount decimal.Decimal) (decimal.Decimal, PaymentStatus, error) {
	if !p.Refundable() {
		return decimal.Zero, p.Status, &RefundNotAllowedError{CurrentStatus: p.Status}
	}
	remaining := p.Amount.Sub(p.RefundedAmount)
	if amount.IsZero() {
		amount = remaining
	}
	if amount.IsNegative() || amount.IsZero() || amount.GreaterThan(remaining) {
		return decimal.Zero, p.Status, ErrRefundExceedsBalance
	}
	if amount.Equal(remaining) {
		return amount, PaymentRefunded, nil
	}
	return amount, PaymentPartiallyRefunded, nil
}

// PaymentRefund is the immutable audit record of a refund.
type PaymentRefund struct {
	ID             int32           `json:"id"`
	PaymentID      int32           `json:"payment_id"`
	Amount         decimal.Decimal `json:"amount"`
	Reason         string          `json:"reason"`
	IdempotencyKey string          `json:"idempotency_key"`
	ActorID        int32           `json:"actor_id"`
	CreatedAt      time.Time       `json:"created_at"`
}
