package memory

import (
	"cmp"
	"context"
	"slices"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/repository"

	"github.com/shopspring/decimal"
)

type paymentRepository struct{ s *state }

// refundKey scopes an idempotency key to one payment.
type refundKey struct {
	paymentID int32
	key       string
}

func copyPayment(p domain.Payment) domain.Payment {
	p.LineItems = append([]domain.PaymentLineItem(nil), p.LineItems...)
	return p
}

func (r *paymentRepository) syncReservation(p domain.Payment) {
	if p.ReservationID == nil {
		return
	}
	if res, ok := r.s.reservations[*p.ReservationID]; ok {
		res.PaymentStatus = p.Status
		res.UpdatedAt = r.s.now()
		r.s.reservations[res.ID] = res
	}
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ReservationID != nil {
		if _, ok := r.s.reservations[*p.ReservationID]; !ok {
			return notFound("reservation", *p.ReservationID)
		}
	}
	p.ID = r.s.next("payments")
	if p.RefundedAmount.IsZero() {
		p.RefundedAmount = decimal.Zero
	}
	p.CreatedAt = r.s.now()
	p.UpdatedAt = p.CreatedAt
	r.s.payments[p.ID] = copyPayment(*p)
	r.syncReservation(*p)
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id int32) (*domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, notFound("payment", id)
	}
	out := copyPayment(p)
	return &out, nil
}

func (r *paymentRepository) ListByReservation(ctx context.Context, reservationID int32) ([]domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Payment
	for _, p := range r.s.payments {
		if p.ReservationID != nil && *p.ReservationID == reservationID {
			out = append(out, copyPayment(p))
		}
	}
	slices.SortFunc(out, func(a, b domain.Payment) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *paymentRepository) Refund(ctx context.Context, req repository.RefundRequest) (*domain.Payment, *domain.PaymentRefund, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := refundKey{paymentID: req.PaymentID, key: req.IdempotencyKey}
	if prior, ok := r.s.refunds[key]; ok {
		p := copyPayment(r.s.payments[prior.PaymentID])
		return &p, &prior, nil
	}

	p, ok := r.s.payments[req.PaymentID]
	if !ok {
		return nil, nil, notFound("payment", req.PaymentID)
	}
	amount, next, err := p.PlanRefund(req.Amount)
	if err != nil {
		return nil, nil, err
	}

	now := r.s.now()
	p.RefundedAmount = p.RefundedAmount.Add(amount)
	p.Status = next
	p.UpdatedAt = now
	r.s.payments[p.ID] = p
	r.syncReservation(p)

	ref := domain.PaymentRefund{
		ID:             r.s.next("payment_refunds"),
		PaymentID:      p.ID,
		Amount:         amount,
		Reason:         req.Reason,
		IdempotencyKey: req.IdempotencyKey,
		ActorID:        req.ActorID,
		CreatedAt:      now,
	}
	r.s.refunds[key] = ref

	out := copyPayment(p)
	return &out, &ref, nil
}

type notificationRepository struct{ s *state }

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n.ID = r.s.next("notifications")
	n.CreatedAt = r.s.now()
	r.s.notifications = append(r.s.notifications, *n)
	return nil
}

func (r *notificationRepository) List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var mine []domain.Notification
	for i := len(r.s.notifications) - 1; i >= 0; i-- {
		if r.s.notifications[i].UserID == userID {
			mine = append(mine, r.s.notifications[i])
		}
	}
	total := int32(len(mine))
	if offset >= total {
		return nil, total, nil
	}
	return mine[offset:min(offset+limit, total)], total, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID int32) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.notifications {
		if r.s.notifications[i].ID == id && r.s.notifications[i].UserID == userID {
			r.s.notifications[i].IsRead = true
			return nil
		}
	}
	return notFound("notification", id)
}
