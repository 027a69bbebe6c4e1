package memory

import (
	"cmp"
	"context"
	"slices"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/lifecycle"
	"hotel-pms-backend/internal/repository"
)

type reservationRepository struct{ s *state }

func roomIDs(stays []domain.RoomStay) []int32 {
	ids := make([]int32, 0, len(stays))
	for _, st := range stays {
		ids = append(ids, st.RoomID)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

func (r *reservationRepository) Create(ctx context.Context, res *domain.Reservation, roomEffect lifecycle.RoomEffect, actorID int32) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	// Validate everything before touching any room.
	pending := make(map[int32]domain.RoomStatusChange)
	for _, roomID := range roomIDs(res.Stays) {
		room, ok := r.s.rooms[roomID]
		if !ok {
			return notFound("room", roomID)
		}
		if !room.IsActive {
			return domain.ErrRoomInactive
		}
		if conflict := r.s.overlap(roomID, 0, res.CheckInDate, res.CheckOutDate); conflict != 0 {
			return &domain.InventoryConflictError{RoomID: roomID, ConflictingReservationID: conflict}
		}
		if roomEffect == lifecycle.EffectNone {
			continue
		}
		change, changed, err := lifecycle.ApplyRoomEffect(roomEffect, &room, 0)
		if err != nil {
			return err
		}
		if changed {
			pending[roomID] = change
		}
	}

	now := r.s.now()
	res.ID = r.s.next("reservations")
	res.CreatedAt = now
	res.UpdatedAt = now
	for i := range res.Stays {
		res.Stays[i].ID = r.s.next("room_stays")
		res.Stays[i].ReservationID = res.ID
	}
	r.s.reservations[res.ID] = copyReservation(*res)

	for roomID, change := range pending {
		room := r.s.rooms[roomID]
		applyChange(&room, change, now)
		r.s.rooms[roomID] = room
	}
	r.s.events = append(r.s.events, domain.ReservationEvent{
		ID:            r.s.next("reservation_events"),
		ReservationID: res.ID,
		ToStatus:      res.Status,
		ActorID:       actorID,
		Reason:        "created",
		CreatedAt:     now,
	})
	return nil
}

func (r *reservationRepository) GetByID(ctx context.Context, id int32) (*domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.reservations[id]
	if !ok {
		return nil, notFound("reservation", id)
	}
	out := copyReservation(res)
	return &out, nil
}

func (r *reservationRepository) GetByConfirmationNumber(ctx context.Context, number string) (*domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, res := range r.s.reservations {
		if res.ConfirmationNumber == number {
			out := copyReservation(res)
			return &out, nil
		}
	}
	return nil, notFound("reservation", number)
}

func (r *reservationRepository) List(ctx context.Context, filter repository.ReservationFilter) ([]domain.Reservation, int32, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var matched []domain.Reservation
	for _, res := range r.s.reservations {
		if res.BusinessUnitID != filter.BusinessUnitID {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, res.Status) {
			continue
		}
		if !filter.From.IsZero() && !filter.To.IsZero() &&
			(!res.CheckInDate.Before(filter.To) || !res.CheckOutDate.After(filter.From)) {
			continue
		}
		matched = append(matched, copyReservation(res))
	}
	slices.SortFunc(matched, func(a, b domain.Reservation) int {
		if c := a.CheckInDate.Compare(b.CheckInDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	total := int32(len(matched))
	start := (filter.Page - 1) * filter.PageSize
	if start >= total {
		return nil, total, nil
	}
	end := min(start+filter.PageSize, total)
	return matched[start:end], total, nil
}

func (r *reservationRepository) Transition(ctx context.Context, req repository.TransitionRequest) (*repository.TransitionResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res, ok := r.s.reservations[req.ReservationID]
	if !ok {
		return nil, notFound("reservation", req.ReservationID)
	}

	tr, noop, err := lifecycle.Plan(res.Status, req.Action)
	if err != nil {
		return nil, err
	}
	if noop {
		out := copyReservation(res)
		return &repository.TransitionResult{Reservation: &out, NoOp: true}, nil
	}

	pending := make(map[int32]domain.RoomStatusChange)
	for _, roomID := range roomIDs(res.Stays) {
		room, ok := r.s.rooms[roomID]
		if !ok {
			return nil, notFound("room", roomID)
		}
		if tr.AssignsRoom {
			if conflict := r.s.overlap(roomID, res.ID, res.CheckInDate, res.CheckOutDate); conflict != 0 {
				return nil, &domain.InventoryConflictError{RoomID: roomID, ConflictingReservationID: conflict}
			}
		}
		holders := 0
		if tr.Effect == lifecycle.EffectRelease {
			holders = r.s.activeHolders(roomID, res.ID)
		}
		change, changed, err := lifecycle.ApplyRoomEffect(tr.Effect, &room, holders)
		if err != nil {
			return nil, err
		}
		if changed {
			pending[roomID] = change
		}
	}

	now := r.s.now()
	changes := make(map[int32]domain.RoomStatus, len(pending))
	for roomID, change := range pending {
		room := r.s.rooms[roomID]
		applyChange(&room, change, now)
		r.s.rooms[roomID] = room
		changes[roomID] = change.Status
	}

	res.Status = tr.To
	res.UpdatedAt = now
	if tr.To == domain.ReservationCancelled && req.Reason != "" {
		res.CancellationReason = req.Reason
	}
	r.s.reservations[res.ID] = res
	r.s.events = append(r.s.events, domain.ReservationEvent{
		ID:            r.s.next("reservation_events"),
		ReservationID: res.ID,
		FromStatus:    tr.From,
		ToStatus:      tr.To,
		ActorID:       req.ActorID,
		Reason:        req.Reason,
		CreatedAt:     now,
	})

	out := copyReservation(res)
	return &repository.TransitionResult{Reservation: &out, Transition: tr, RoomChanges: changes}, nil
}

func (r *reservationRepository) ListNoShowCandidates(ctx context.Context, before domain.Date) ([]domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Reservation
	for _, res := range r.s.reservations {
		if res.Status == domain.ReservationConfirmed && res.CheckInDate.Before(before) {
			out = append(out, copyReservation(res))
		}
	}
	slices.SortFunc(out, func(a, b domain.Reservation) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *reservationRepository) ListEvents(ctx context.Context, reservationID int32) ([]domain.ReservationEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.ReservationEvent
	for _, ev := range r.s.events {
		if ev.ReservationID == reservationID {
			out = append(out, ev)
		}
	}
	return out, nil
}
