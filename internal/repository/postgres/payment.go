package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/logger"
	"hotel-pms-backend/internal/repository"

	"github.com/lib/pq"
)

type paymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumns = `id, reservation_id, amount, refunded_amount, currency, status, method,
	provider_reference, line_items, created_at, updated_at`

func refundableStatuses() any {
	out := make([]string, len(domain.RefundableStatuses))
	for i, s := range domain.RefundableStatuses {
		out[i] = string(s)
	}
	return pq.Array(out)
}

func scanPayment(row interface{ Scan(...any) error }, p *domain.Payment) error {
	var items []byte
	if err := row.Scan(&p.ID, &p.ReservationID, &p.Amount, &p.RefundedAmount, &p.Currency, &p.Status, &p.Method,
		&p.ProviderReference, &items, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return err
	}
	if len(items) > 0 {
		return json.Unmarshal(items, &p.LineItems)
	}
	return nil
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	logger.EnterMethod("paymentRepository.Create", "reservationID", p.ReservationID, "status", p.Status)

	items, err := json.Marshal(p.LineItems)
	if err != nil {
		return err
	}
	if p.LineItems == nil {
		items = []byte("[]")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO payments (reservation_id, amount, refunded_amount, currency, status, method,
	              provider_reference, line_items, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9) RETURNING id, created_at, updated_at`
	err = tx.QueryRowContext(ctx, query, p.ReservationID, p.Amount, p.RefundedAmount, p.Currency, p.Status, p.Method,
		p.ProviderReference, items, time.Now()).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		logger.ExitMethodWithError("paymentRepository.Create", err)
		return err
	}

	if p.ReservationID != nil {
		if err := syncReservationPaymentStatus(ctx, tx, *p.ReservationID, p.Status); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logger.ExitMethod("paymentRepository.Create", "paymentID", p.ID)
	return nil
}

func syncReservationPaymentStatus(ctx context.Context, tx *sql.Tx, reservationID int32, status domain.PaymentStatus) error {
	_, err := tx.ExecContext(ctx, `UPDATE reservations SET payment_status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now(), reservationID)
	return err
}

func (r *paymentRepository) GetByID(ctx context.Context, id int32) (*domain.Payment, error) {
	p := &domain.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	if err := scanPayment(r.db.QueryRowContext(ctx, query, id), p); err != nil {
		return nil, notFound(err, "payment", id)
	}
	return p, nil
}

func (r *paymentRepository) ListByReservation(ctx context.Context, reservationID int32) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE reservation_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := scanPayment(rows, &p); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// findRefund looks up a prior refund by key. Keys are scoped to their payment.
func (r *paymentRepository) findRefund(ctx context.Context, q queryRower, paymentID int32, key string) (*domain.PaymentRefund, error) {
	ref := &domain.PaymentRefund{}
	query := `SELECT id, payment_id, amount, reason, idempotency_key, actor_id, created_at
	          FROM payment_refunds WHERE payment_id = $1 AND idempotency_key = $2`
	err := q.QueryRowContext(ctx, query, paymentID, key).Scan(&ref.ID, &ref.PaymentID, &ref.Amount, &ref.Reason,
		&ref.IdempotencyKey, &ref.ActorID, &ref.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return ref, err
}

func (r *paymentRepository) replay(ctx context.Context, ref *domain.PaymentRefund) (*domain.Payment, *domain.PaymentRefund, error) {
	p, err := r.GetByID(ctx, ref.PaymentID)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Refund replayed", "paymentID", ref.PaymentID, "refundID", ref.ID, "idempotencyKey", ref.IdempotencyKey)
	return p, ref, nil
}

func (r *paymentRepository) Refund(ctx context.Context, req repository.RefundRequest) (*domain.Payment, *domain.PaymentRefund, error) {
	logger.EnterMethod("paymentRepository.Refund", "paymentID", req.PaymentID, "amount", req.Amount, "idempotencyKey", req.IdempotencyKey)

	if prior, err := r.findRefund(ctx, r.db, req.PaymentID, req.IdempotencyKey); err != nil {
		return nil, nil, err
	} else if prior != nil {
		return r.replay(ctx, prior)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	p := &domain.Payment{}
	if err := scanPayment(tx.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, req.PaymentID), p); err != nil {
		err = notFound(err, "payment", req.PaymentID)
		logger.ExitMethodWithError("paymentRepository.Refund", err, "paymentID", req.PaymentID)
		return nil, nil, err
	}

	amount, next, err := p.PlanRefund(req.Amount)
	if err != nil {
		logger.ExitMethodWithError("paymentRepository.Refund", err, "paymentID", p.ID, "status", p.Status)
		return nil, nil, err
	}

	update := `UPDATE payments SET refunded_amount = refunded_amount + $1, status = $2, updated_at = $3
	           WHERE id = $4 AND status = ANY($5) RETURNING refunded_amount, updated_at`
	logger.DatabaseCall("UPDATE", "payments", "paymentID", p.ID, "to", next)
	err = tx.QueryRowContext(ctx, update, amount, next, time.Now(), p.ID, refundableStatuses()).Scan(&p.RefundedAmount, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		err = &domain.RefundNotAllowedError{CurrentStatus: p.Status}
	}
	if err != nil {
		logger.ExitMethodWithError("paymentRepository.Refund", err, "paymentID", p.ID)
		return nil, nil, err
	}
	p.Status = next

	ref := &domain.PaymentRefund{PaymentID: p.ID, Amount: amount, Reason: req.Reason, IdempotencyKey: req.IdempotencyKey, ActorID: req.ActorID}
	insert := `INSERT INTO payment_refunds (payment_id, amount, reason, idempotency_key, actor_id, created_at)
	           VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`
	if err := tx.QueryRowContext(ctx, insert, ref.PaymentID, ref.Amount, ref.Reason, ref.IdempotencyKey, ref.ActorID, time.Now()).
		Scan(&ref.ID, &ref.CreatedAt); err != nil {
		if pgCode(err) == codeUniqueViolation {
			// A concurrent retry with the same key won.
			tx.Rollback()
			if prior, ferr := r.findRefund(ctx, r.db, req.PaymentID, req.IdempotencyKey); ferr == nil && prior != nil {
				return r.replay(ctx, prior)
			}
		}
		return nil, nil, err
	}

	if p.ReservationID != nil {
		if err := syncReservationPaymentStatus(ctx, tx, *p.ReservationID, p.Status); err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	logger.ExitMethod("paymentRepository.Refund", "paymentID", p.ID, "refundID", ref.ID, "status", p.Status)
	return p, ref, nil
}
