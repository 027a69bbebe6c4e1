package service

import (
	"context"
	"fmt"
	"strings"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/logger"
	"hotel-pms-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type paymentService struct {
	paymentRepo repository.PaymentRepository
	resRepo     repository.ReservationRepository
}

func NewPaymentService(paymentRepo repository.PaymentRepository, resRepo repository.ReservationRepository) PaymentService {
	return &paymentService{paymentRepo: paymentRepo, resRepo: resRepo}
}

// scope returns the business unit a payment belongs to; 0 when it is not
// attached to a reservation, which only unscoped admins may touch.
func (s *paymentService) scope(ctx context.Context, reservationID *int32) (*domain.Reservation, int32, error) {
	if reservationID == nil {
		return nil, 0, nil
	}
	res, err := s.resRepo.GetByID(ctx, *reservationID)
	if err != nil {
		return nil, 0, err
	}
	return res, res.BusinessUnitID, nil
}

func (s *paymentService) RecordPayment(ctx context.Context, p *domain.Principal, payment *domain.Payment) error {
	logger.EnterMethod("paymentService.RecordPayment", "principal_id", principalID(p), "amount", payment.Amount.String())
	if payment.ReservationID == nil {
		return fmt.Errorf("%w: payments are recorded against a reservation", domain.ErrInvalidInput)
	}
	res, buID, err := s.scope(ctx, payment.ReservationID)
	if err != nil {
		return err
	}
	if err := authorize(p, buID, frontDesk); err != nil {
		return err
	}
	if !payment.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	}
	if payment.Currency == "" {
		payment.Currency = res.Currency
	}
	if payment.Currency != res.Currency {
		return fmt.Errorf("%w: payment %s, reservation %s", domain.ErrCurrencyMismatch, payment.Currency, res.Currency)
	}
	if payment.Status == "" {
		payment.Status = domain.PaymentSucceeded
	}
	if !payment.Status.Valid() {
		return fmt.Errorf("%w: unknown payment status %q", domain.ErrInvalidInput, payment.Status)
	}
	payment.RefundedAmount = decimal.Zero
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		logger.ExitMethodWithError("paymentService.RecordPayment", err, "principal_id", principalID(p), "reservation_id", res.ID)
		return err
	}
	logger.ExitMethod("paymentService.RecordPayment", "paymentID", payment.ID, "reservation_id", res.ID, "status", payment.Status)
	return nil
}

func (s *paymentService) GetPayment(ctx context.Context, p *domain.Principal, id int32) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	_, buID, err := s.scope(ctx, payment.ReservationID)
	if err != nil {
		return nil, err
	}
	if err := authorize(p, buID, frontDesk); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *paymentService) ListByReservation(ctx context.Context, p *domain.Principal, reservationID int32) ([]domain.Payment, error) {
	_, buID, err := s.scope(ctx, &reservationID)
	if err != nil {
		return nil, err
	}
	if err := authorize(p, buID, frontDesk); err != nil {
		return nil, err
	}
	return s.paymentRepo.ListByReservation(ctx, reservationID)
}

// Refund is idempotent on the key: a retry returns the original refund
// instead of moving money twice.
func (s *paymentService) Refund(ctx context.Context, p *domain.Principal, in RefundInput) (*domain.Payment, *domain.PaymentRefund, error) {
	logger.EnterMethod("paymentService.Refund", "principal_id", principalID(p), "paymentID", in.PaymentID, "amount", in.Amount.String())
	payment, err := s.paymentRepo.GetByID(ctx, in.PaymentID)
	if err != nil {
		return nil, nil, err
	}
	_, buID, err := s.scope(ctx, payment.ReservationID)
	if err != nil {
		return nil, nil, err
	}
	if err := authorize(p, buID, managers); err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, nil, fmt.Errorf("%w: refund reason is required", domain.ErrInvalidInput)
	}
	if in.IdempotencyKey == "" {
		in.IdempotencyKey = uuid.NewString()
	}

	updated, refund, err := s.paymentRepo.Refund(ctx, repository.RefundRequest{
		PaymentID:      in.PaymentID,
		Amount:         in.Amount,
		Reason:         strings.TrimSpace(in.Reason),
		IdempotencyKey: in.IdempotencyKey,
		ActorID:        principalID(p),
	})
	if err != nil {
		logger.ExitMethodWithError("paymentService.Refund", err, "principal_id", principalID(p), "paymentID", in.PaymentID)
		return nil, nil, err
	}
	logger.ExitMethod("paymentService.Refund", "paymentID", in.PaymentID, "refundID", refund.ID,
		"refunded", refund.Amount.String(), "status", updated.Status)
	return updated, refund, nil
}
