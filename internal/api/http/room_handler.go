package http

import (
	"net/http"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/service"
)

func (h *Handler) createRoom(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	buID, err := pathID(r, "business_unit_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req roomRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	room := &domain.Room{
		BusinessUnitID: buID,
		RoomTypeID:     req.RoomTypeID,
		RoomNumber:     req.RoomNumber,
		Floor:          req.Floor,
	}
	if err := h.svc.Rooms.CreateRoom(r.Context(), p, room); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

func (h *Handler) listRooms(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	buID, err := pathID(r, "business_unit_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := domain.RoomStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, r, domain.ErrInvalidInput)
		return
	}
	rooms, err := h.svc.Rooms.ListRooms(r.Context(), p, buID, status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[domain.Room]{Items: rooms, TotalCount: int32(len(rooms))})
}

func (h *Handler) getRoom(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "room_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	room, err := h.svc.Rooms.GetRoom(r.Context(), p, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *Handler) overrideRoomStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "room_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req statusOverrideRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	room, err := h.svc.Rooms.OverrideStatus(r.Context(), p, id, service.StatusOverride{
		Status:          req.Status,
		OutOfOrderUntil: req.OutOfOrderUntil,
		Force:           req.Force,
		Reason:          req.Reason,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *Handler) setHousekeeping(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "room_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req housekeepingRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	room, err := h.svc.Rooms.SetHousekeepingStatus(r.Context(), p, id, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}
