package http

import (
	"net/http"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/service"
)

func (h *Handler) createRoomType(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	buID, err := pathID(r, "business_unit_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req roomTypeRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rt := &domain.RoomType{BusinessUnitID: buID}
	req.toDomain(rt)
	if err := h.svc.RoomTypes.CreateRoomType(r.Context(), p, rt); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rt)
}

func (h *Handler) listRoomTypes(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	buID, err := pathID(r, "business_unit_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	includeInactive, err := queryBool(r, "include_inactive")
	if err != nil {
		writeError(w, r, err)
		return
	}
	types, err := h.svc.RoomTypes.ListRoomTypes(r.Context(), p, buID, includeInactive)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[domain.RoomType]{Items: types, TotalCount: int32(len(types))})
}

func (h *Handler) getRoomType(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "room_type_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt, err := h.svc.RoomTypes.GetRoomType(r.Context(), p, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func (h *Handler) updateRoomType(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "room_type_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req roomTypeRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rt, err := h.svc.RoomTypes.GetRoomType(r.Context(), p, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req.toDomain(rt)
	if err := h.svc.RoomTypes.UpdateRoomType(r.Context(), p, rt); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func (h *Handler) deactivateRoomType(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "room_type_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt, err := h.svc.RoomTypes.DeactivateRoomType(r.Context(), p, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func (h *Handler) deleteRoomType(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "room_type_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.RoomTypes.DeleteRoomType(r.Context(), p, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createRate(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	roomTypeID, err := pathID(r, "room_type_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req rateRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rate := &domain.RoomRate{RoomTypeID: roomTypeID}
	req.toDomain(rate)
	if err := h.svc.Rates.CreateRate(r.Context(), p, rate); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rate)
}

func (h *Handler) listRates(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	roomTypeID, err := pathID(r, "room_type_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	activeOnly, err := queryBool(r, "active_only")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rates, err := h.svc.Rates.ListRates(r.Context(), p, roomTypeID, activeOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[domain.RoomRate]{Items: rates, TotalCount: int32(len(rates))})
}

func (h *Handler) getRate(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "rate_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rate, err := h.svc.Rates.GetRate(r.Context(), p, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rate)
}

func (h *Handler) updateRate(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "rate_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req rateRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rate, err := h.svc.Rates.GetRate(r.Context(), p, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req.toDomain(rate)
	if err := h.svc.Rates.UpdateRate(r.Context(), p, rate); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rate)
}

func (h *Handler) deleteRate(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "rate_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Rates.DeleteRate(r.Context(), p, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setRateActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		id, err := pathID(r, "rate_id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		rate, err := h.svc.Rates.SetRateActive(r.Context(), p, id, active)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rate)
	}
}

func (h *Handler) setDefaultRate(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "rate_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rate, err := h.svc.Rates.SetDefaultRate(r.Context(), p, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rate)
}

func (h *Handler) quoteStay(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	roomTypeID, err := pathID(r, "room_type_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req quoteRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	quote, err := h.svc.Rates.QuoteStay(r.Context(), p, service.QuoteRequest{
		RoomTypeID: roomTypeID,
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		Adults:     req.Adults,
		Children:   req.Children,
		WalkIn:     req.WalkIn,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	// Violations are part of a quote, not a failure.
	writeJSON(w, http.StatusOK, quote)
}
