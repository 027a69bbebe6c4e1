package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/idempotency"
	"hotel-pms-backend/internal/logger"
	"hotel-pms-backend/internal/repository"
	"hotel-pms-backend/internal/service"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"
)

func (h *Handler) createReservation(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	buID, err := pathID(r, "business_unit_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req createReservationRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	// Keys are scoped per user so two clerks cannot collide.
	var key string
	if raw := strings.TrimSpace(r.Header.Get(idempotencyHeader)); raw != "" && h.idem != nil {
		key = fmt.Sprintf("reservation:%d:%s", p.UserID, raw)
		rec, err := h.idem.Begin(r.Context(), key)
		switch {
		case errors.Is(err, idempotency.ErrInProgress):
			writeJSON(w, http.StatusConflict, errorBody{Error: err.Error(), Retryable: true})
			return
		case err != nil:
			logger.Error("Idempotency store unavailable", "principal_id", p.UserID, "error", err)
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "idempotency store unavailable", Retryable: true})
			return
		case rec != nil:
			logger.Info("Replaying reservation create", "principal_id", p.UserID, "key", raw)
			w.Header().Set(replayedHeader, "true")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(rec.StatusCode)
			w.Write(rec.Body)
			return
		}
	}

	res, err := h.svc.Reservations.CreateReservation(r.Context(), p, service.CreateReservationRequest{
		BusinessUnitID:  buID,
		GuestID:         req.GuestID,
		GuestName:       req.GuestName,
		GuestEmail:      req.GuestEmail,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		Adults:          req.Adults,
		Children:        req.Children,
		Status:          req.Status,
		RoomIDs:         req.RoomIDs,
		SpecialRequests: req.SpecialRequests,
		InternalNotes:   req.InternalNotes,
		Source:          req.Source,
	})
	if err != nil {
		if key != "" {
			h.abortKey(r.Context(), key)
		}
		writeError(w, r, err)
		return
	}

	body, err := json.Marshal(res)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if key != "" {
		if err := h.idem.Complete(r.Context(), key, idempotency.Record{StatusCode: http.StatusCreated, Body: body}); err != nil {
			// The reservation exists; only replay is lost.
			logger.Warn("Failed to store idempotent response", "reservation_id", res.ID, "error", err)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(body)
}

func (h *Handler) abortKey(ctx context.Context, key string) {
	if err := h.idem.Abort(ctx, key); err != nil {
		logger.Warn("Failed to release idempotency key", "key", key, "error", err)
	}
}

func (h *Handler) listReservations(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	buID, err := pathID(r, "business_unit_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter := repository.ReservationFilter{BusinessUnitID: buID}
	for _, s := range r.URL.Query()["status"] {
		filter.Statuses = append(filter.Statuses, domain.ReservationStatus(strings.ToUpper(s)))
	}
	if filter.From, err = queryDate(r, "from"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.To, err = queryDate(r, "to"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.Page, err = queryInt32(r, "page"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.PageSize, err = queryInt32(r, "page_size"); err != nil {
		writeError(w, r, err)
		return
	}
	items, total, err := h.svc.Reservations.ListReservations(r.Context(), p, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[domain.Reservation]{Items: items, TotalCount: total})
}

func (h *Handler) getReservation(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "reservation_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.Reservations.GetReservation(r.Context(), p, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) getByConfirmation(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Reservations.GetByConfirmationNumber(r.Context(), p, pathVars(r)["confirmation_number"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "reservation_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	events, err := h.svc.Reservations.ListEvents(r.Context(), p, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[domain.ReservationEvent]{Items: events, TotalCount: int32(len(events))})
}

type transitionFunc func(ctx context.Context, p *domain.Principal, id int32) (*domain.Reservation, error)

// transition serves the body-less lifecycle actions.
func (h *Handler) transition(fn transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		id, err := pathID(r, "reservation_id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		res, err := fn(r.Context(), p, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (h *Handler) cancelReservation(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "reservation_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req cancelRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.svc.Reservations.Cancel(r.Context(), p, id, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
