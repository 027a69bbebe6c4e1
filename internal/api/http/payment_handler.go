package http

import (
	"net/http"
	"strings"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/service"

	"github.com/shopspring/decimal"
)

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	resID, err := pathID(r, "reservation_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req paymentRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	payment := &domain.Payment{
		ReservationID:     &resID,
		Amount:            req.Amount,
		Currency:          req.Currency,
		Status:            req.Status,
		Method:            req.Method,
		ProviderReference: req.ProviderReference,
		LineItems:         req.LineItems,
	}
	if err := h.svc.Payments.RecordPayment(r.Context(), p, payment); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	resID, err := pathID(r, "reservation_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	payments, err := h.svc.Payments.ListByReservation(r.Context(), p, resID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[domain.Payment]{Items: payments, TotalCount: int32(len(payments))})
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "payment_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	payment, err := h.svc.Payments.GetPayment(r.Context(), p, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

type refundResponse struct {
	Payment *domain.Payment       `json:"payment"`
	Refund  *domain.PaymentRefund `json:"refund"`
}

// refundPayment uses the Idempotency-Key header as the refund's key, so a
// retried request returns the original refund.
func (h *Handler) refundPayment(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "payment_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req refundRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount := decimal.Zero
	if req.Amount != nil {
		amount = *req.Amount
	}
	payment, refund, err := h.svc.Payments.Refund(r.Context(), p, service.RefundInput{
		PaymentID:      id,
		Amount:         amount,
		Reason:         req.Reason,
		IdempotencyKey: strings.TrimSpace(r.Header.Get(idempotencyHeader)),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, refundResponse{Payment: payment, Refund: refund})
}
