package service

import (
	"context"
	"errors"
	"testing"

	"hotel-pms-backend/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentService_RefundIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	res := e.book(t, domain.ReservationPending, "2024-01-05", "2024-01-07")
	payment := &domain.Payment{ReservationID: &res.ID, Amount: decimal.NewFromInt(8000), Method: "CARD"}
	require.NoError(t, e.payments.RecordPayment(ctx, e.frontDesk, payment))

	in := RefundInput{PaymentID: payment.ID, Amount: decimal.NewFromInt(3000), Reason: "late checkout waived", IdempotencyKey: "refund-1"}
	updated, refund, err := e.payments.Refund(ctx, e.manager, in)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPartiallyRefunded, updated.Status)
	assert.True(t, refund.Amount.Equal(decimal.NewFromInt(3000)))

	replayed, again, err := e.payments.Refund(ctx, e.manager, in)
	require.NoError(t, err)
	assert.Equal(t, refund.ID, again.ID)
	assert.True(t, replayed.RefundedAmount.Equal(decimal.NewFromInt(3000)))

	_, _, err = e.payments.Refund(ctx, e.manager, RefundInput{PaymentID: payment.ID, Reason: "stay cancelled"})
	var notAllowed *domain.RefundNotAllowedError
	require.True(t, errors.As(err, &notAllowed))
	assert.Equal(t, domain.PaymentPartiallyRefunded, notAllowed.CurrentStatus)
}

func TestPaymentService_FullRefund(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	res := e.book(t, domain.ReservationPending, "2024-01-05", "2024-01-07")
	payment := &domain.Payment{ReservationID: &res.ID, Amount: decimal.NewFromInt(8000), Method: "CARD"}
	require.NoError(t, e.payments.RecordPayment(ctx, e.frontDesk, payment))

	// A zero amount refunds the whole payment; a generated key is used.
	final, rest, err := e.payments.Refund(ctx, e.manager, RefundInput{PaymentID: payment.ID, Reason: "stay cancelled"})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, final.Status)
	assert.True(t, rest.Amount.Equal(decimal.NewFromInt(8000)))
	assert.NotEmpty(t, rest.IdempotencyKey)

	_, _, err = e.payments.Refund(ctx, e.manager, RefundInput{PaymentID: payment.ID, Reason: "again"})
	var notAllowed *domain.RefundNotAllowedError
	require.True(t, errors.As(err, &notAllowed))
	assert.Equal(t, domain.PaymentRefunded, notAllowed.CurrentStatus)
}

func TestPaymentService_Rules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	res := e.book(t, domain.ReservationPending, "2024-01-05", "2024-01-07")

	t.Run("currency", func(t *testing.T) {
		p := &domain.Payment{ReservationID: &res.ID, Amount: decimal.NewFromInt(10), Currency: "USD"}
		assert.ErrorIs(t, e.payments.RecordPayment(ctx, e.frontDesk, p), domain.ErrCurrencyMismatch)
	})

	t.Run("positive amount", func(t *testing.T) {
		p := &domain.Payment{ReservationID: &res.ID, Amount: decimal.Zero}
		assert.ErrorIs(t, e.payments.RecordPayment(ctx, e.frontDesk, p), domain.ErrInvalidInput)
	})

	t.Run("reservation required", func(t *testing.T) {
		p := &domain.Payment{Amount: decimal.NewFromInt(10), Currency: "PHP"}
		assert.ErrorIs(t, e.payments.RecordPayment(ctx, e.frontDesk, p), domain.ErrInvalidInput)
	})

	t.Run("front desk cannot refund", func(t *testing.T) {
		p := &domain.Payment{ReservationID: &res.ID, Amount: decimal.NewFromInt(100)}
		require.NoError(t, e.payments.RecordPayment(ctx, e.frontDesk, p))
		_, _, err := e.payments.Refund(ctx, e.frontDesk, RefundInput{PaymentID: p.ID, Reason: "x"})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("refund needs a reason", func(t *testing.T) {
		p := &domain.Payment{ReservationID: &res.ID, Amount: decimal.NewFromInt(100)}
		require.NoError(t, e.payments.RecordPayment(ctx, e.frontDesk, p))
		_, _, err := e.payments.Refund(ctx, e.manager, RefundInput{PaymentID: p.ID})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("failed payment", func(t *testing.T) {
		p := &domain.Payment{ReservationID: &res.ID, Amount: decimal.NewFromInt(100), Status: domain.PaymentFailed}
		require.NoError(t, e.payments.RecordPayment(ctx, e.frontDesk, p))
		_, _, err := e.payments.Refund(ctx, e.manager, RefundInput{PaymentID: p.ID, Reason: "x"})
		var notAllowed *domain.RefundNotAllowedError
		assert.True(t, errors.As(err, &notAllowed))
	})

	payments, err := e.payments.ListByReservation(ctx, e.frontDesk, res.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 3)
}
