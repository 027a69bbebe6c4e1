package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/repository"
)

type businessUnitRepository struct{ s *state }

func (r *businessUnitRepository) Create(ctx context.Context, bu *domain.BusinessUnit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	bu.ID = r.s.next("business_units")
	bu.CreatedAt = r.s.now()
	r.s.businessUnits[bu.ID] = *bu
	return nil
}

func (r *businessUnitRepository) GetByID(ctx context.Context, id int32) (*domain.BusinessUnit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	bu, ok := r.s.businessUnits[id]
	if !ok {
		return nil, notFound("business unit", id)
	}
	return &bu, nil
}

type roomTypeRepository struct{ s *state }

func (r *roomTypeRepository) Create(ctx context.Context, rt *domain.RoomType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.businessUnits[rt.BusinessUnitID]; !ok {
		return notFound("business unit", rt.BusinessUnitID)
	}
	rt.ID = r.s.next("room_types")
	rt.CreatedAt = r.s.now()
	rt.UpdatedAt = rt.CreatedAt
	r.s.roomTypes[rt.ID] = *rt
	return nil
}

func (r *roomTypeRepository) GetByID(ctx context.Context, id int32) (*domain.RoomType, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rt, ok := r.s.roomTypes[id]
	if !ok {
		return nil, notFound("room type", id)
	}
	return &rt, nil
}

func (r *roomTypeRepository) Update(ctx context.Context, rt *domain.RoomType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.roomTypes[rt.ID]
	if !ok {
		return notFound("room type", rt.ID)
	}
	rt.BusinessUnitID = cur.BusinessUnitID
	rt.CreatedAt = cur.CreatedAt
	rt.UpdatedAt = r.s.now()
	r.s.roomTypes[rt.ID] = *rt
	return nil
}

func (r *roomTypeRepository) Delete(ctx context.Context, id int32) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.roomTypes[id]; !ok {
		return notFound("room type", id)
	}
	for _, room := range r.s.rooms {
		if room.RoomTypeID == id {
			return domain.ErrRoomTypeInUse
		}
	}
	for rid, rate := range r.s.rates {
		if rate.RoomTypeID == id {
			delete(r.s.rates, rid)
		}
	}
	delete(r.s.roomTypes, id)
	return nil
}

func (r *roomTypeRepository) ListByBusinessUnit(ctx context.Context, businessUnitID int32, includeInactive bool) ([]domain.RoomType, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.RoomType
	for _, rt := range r.s.roomTypes {
		if rt.BusinessUnitID == businessUnitID && (rt.IsActive || includeInactive) {
			out = append(out, rt)
		}
	}
	slices.SortFunc(out, func(a, b domain.RoomType) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

type roomRepository struct{ s *state }

func (r *roomRepository) Create(ctx context.Context, room *domain.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.roomTypes[room.RoomTypeID]; !ok {
		return notFound("room type", room.RoomTypeID)
	}
	room.ID = r.s.next("rooms")
	room.CreatedAt = r.s.now()
	room.UpdatedAt = room.CreatedAt
	r.s.rooms[room.ID] = *room
	return nil
}

func (r *roomRepository) GetByID(ctx context.Context, id int32) (*domain.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	room, ok := r.s.rooms[id]
	if !ok {
		return nil, notFound("room", id)
	}
	return &room, nil
}

func (r *roomRepository) ListByBusinessUnit(ctx context.Context, businessUnitID int32, status domain.RoomStatus) ([]domain.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Room
	for _, room := range r.s.rooms {
		if room.BusinessUnitID == businessUnitID && (status == "" || room.Status == status) {
			out = append(out, room)
		}
	}
	slices.SortFunc(out, func(a, b domain.Room) int { return strings.Compare(a.RoomNumber, b.RoomNumber) })
	return out, nil
}

func (r *roomRepository) UpdateStatus(ctx context.Context, id int32, fn repository.RoomChangeFunc) (*domain.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	room, ok := r.s.rooms[id]
	if !ok {
		return nil, notFound("room", id)
	}
	change, err := fn(&room, r.s.activeHolders(id, 0))
	if err != nil {
		return nil, err
	}
	applyChange(&room, change, r.s.now())
	r.s.rooms[id] = room
	return &room, nil
}

func (r *roomRepository) ReleaseExpiredOutOfOrder(ctx context.Context, now time.Time) ([]int32, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []int32
	for id, room := range r.s.rooms {
		if room.Status != domain.RoomStatusOutOfOrder || room.OutOfOrderUntil == nil || !room.OutOfOrderUntil.Before(now) {
			continue
		}
		room.Status = domain.RoomStatusAvailable
		room.OutOfOrderUntil = nil
		room.UpdatedAt = now
		r.s.rooms[id] = room
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

type roomRateRepository struct{ s *state }

func (r *roomRateRepository) clearDefaults(roomTypeID, exceptID int32) {
	for id, rate := range r.s.rates {
		if rate.RoomTypeID == roomTypeID && rate.IsDefault && id != exceptID {
			rate.IsDefault = false
			rate.UpdatedAt = r.s.now()
			r.s.rates[id] = rate
		}
	}
}

func (r *roomRateRepository) Create(ctx context.Context, rate *domain.RoomRate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.roomTypes[rate.RoomTypeID]; !ok {
		return notFound("room type", rate.RoomTypeID)
	}
	rate.ID = r.s.next("room_rates")
	if rate.IsDefault {
		r.clearDefaults(rate.RoomTypeID, rate.ID)
	}
	rate.CreatedAt = r.s.now()
	rate.UpdatedAt = rate.CreatedAt
	r.s.rates[rate.ID] = *rate
	return nil
}

func (r *roomRateRepository) Update(ctx context.Context, rate *domain.RoomRate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.rates[rate.ID]
	if !ok {
		return notFound("room rate", rate.ID)
	}
	rate.RoomTypeID = cur.RoomTypeID
	rate.CreatedAt = cur.CreatedAt
	rate.UpdatedAt = r.s.now()
	if rate.IsDefault {
		r.clearDefaults(rate.RoomTypeID, rate.ID)
	}
	r.s.rates[rate.ID] = *rate
	return nil
}

func (r *roomRateRepository) GetByID(ctx context.Context, id int32) (*domain.RoomRate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rate, ok := r.s.rates[id]
	if !ok {
		return nil, notFound("room rate", id)
	}
	return &rate, nil
}

func (r *roomRateRepository) Delete(ctx context.Context, id int32) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.rates[id]; !ok {
		return notFound("room rate", id)
	}
	delete(r.s.rates, id)
	return nil
}

func (r *roomRateRepository) ListByRoomType(ctx context.Context, roomTypeID int32, activeOnly bool) ([]domain.RoomRate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.RoomRate
	for _, rate := range r.s.rates {
		if rate.RoomTypeID == roomTypeID && (rate.IsActive || !activeOnly) {
			out = append(out, rate)
		}
	}
	slices.SortFunc(out, func(a, b domain.RoomRate) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *roomRateRepository) SetDefault(ctx context.Context, roomTypeID, rateID int32) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rate, ok := r.s.rates[rateID]
	if !ok || rate.RoomTypeID != roomTypeID {
		return notFound("room rate", rateID)
	}
	r.clearDefaults(roomTypeID, rateID)
	rate.IsDefault = true
	rate.UpdatedAt = r.s.now()
	r.s.rates[rateID] = rate
	return nil
}

func (r *roomRateRepository) SetActive(ctx context.Context, id int32, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rate, ok := r.s.rates[id]
	if !ok {
		return notFound("room rate", id)
	}
	rate.IsActive = active
	if !active {
		rate.IsDefault = false
	}
	rate.UpdatedAt = r.s.now()
	r.s.rates[id] = rate
	return nil
}
