package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayment_PlanRefund(t *testing.T) {
	paid := Payment{Amount: decimal.NewFromInt(8000), Status: PaymentSucceeded}

	t.Run("Zero means full balance", func(t *testing.T) {
		amount, next, err := paid.PlanRefund(decimal.Zero)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(8000).Equal(amount))
		assert.Equal(t, PaymentRefunded, next)
	})

	t.Run("Partial", func(t *testing.T) {
		amount, next, err := paid.PlanRefund(decimal.NewFromInt(2500))
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(2500).Equal(amount))
		assert.Equal(t, PaymentPartiallyRefunded, next)
	})

	t.Run("Paid", func(t *testing.T) {
		p := paid
		p.Status = PaymentPaid
		_, next, err := p.PlanRefund(decimal.NewFromInt(8000))
		require.NoError(t, err)
		assert.Equal(t, PaymentRefunded, next)
		assert.True(t, p.Refundable())
	})

	t.Run("Partially refunded takes no second refund", func(t *testing.T) {
		p := paid
		p.Status = PaymentPartiallyRefunded
		p.RefundedAmount = decimal.NewFromInt(2500)
		assert.False(t, p.Refundable())
		_, _, err := p.PlanRefund(decimal.Zero)
		var notAllowed *RefundNotAllowedError
		require.True(t, errors.As(err, &notAllowed))
		assert.Equal(t, PaymentPartiallyRefunded, notAllowed.CurrentStatus)
	})

	t.Run("Over balance", func(t *testing.T) {
		_, _, err := paid.PlanRefund(decimal.NewFromInt(9000))
		assert.ErrorIs(t, err, ErrRefundExceedsBalance)
	})

	t.Run("Not captured", func(t *testing.T) {
		for _, s := range []PaymentStatus{PaymentPending, PaymentFailed, PaymentRefunded, PaymentChargeback} {
			p := paid
			p.Status = s
			_, _, err := p.PlanRefund(decimal.Zero)
			var notAllowed *RefundNotAllowedError
			require.True(t, errors.As(err, &notAllowed), string(s))
			assert.Equal(t, s, notAllowed.CurrentStatus)
		}
	})
}
