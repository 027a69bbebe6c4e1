package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/lifecycle"
	"hotel-pms-backend/internal/logger"
	"hotel-pms-backend/internal/repository"
)

type roomService struct {
	roomRepo     repository.RoomRepository
	roomTypeRepo repository.RoomTypeRepository
	now          func() time.Time
}

func NewRoomService(roomRepo repository.RoomRepository, roomTypeRepo repository.RoomTypeRepository) RoomService {
	return &roomService{roomRepo: roomRepo, roomTypeRepo: roomTypeRepo, now: time.Now}
}

func (s *roomService) CreateRoom(ctx context.Context, p *domain.Principal, room *domain.Room) error {
	logger.EnterMethod("roomService.CreateRoom", "principal_id", principalID(p), "roomTypeID", room.RoomTypeID, "roomNumber", room.RoomNumber)
	rt, err := s.roomTypeRepo.GetByID(ctx, room.RoomTypeID)
	if err != nil {
		return err
	}
	if err := authorize(p, rt.BusinessUnitID, managers); err != nil {
		return err
	}
	if strings.TrimSpace(room.RoomNumber) == "" {
		return fmt.Errorf("%w: room number is required", domain.ErrInvalidInput)
	}
	room.BusinessUnitID = rt.BusinessUnitID
	if room.Status == "" {
		room.Status = domain.RoomStatusAvailable
	}
	if room.HousekeepingStatus == "" {
		room.HousekeepingStatus = domain.HousekeepingClean
	}
	if !room.Status.Valid() || !room.HousekeepingStatus.Valid() {
		return fmt.Errorf("%w: unknown room or housekeeping status", domain.ErrInvalidInput)
	}
	room.IsActive = true
	if err := s.roomRepo.Create(ctx, room); err != nil {
		logger.ExitMethodWithError("roomService.CreateRoom", err, "roomNumber", room.RoomNumber)
		return err
	}
	logger.ExitMethod("roomService.CreateRoom", "roomID", room.ID)
	return nil
}

func (s *roomService) GetRoom(ctx context.Context, p *domain.Principal, id int32) (*domain.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(p, room.BusinessUnitID, anyStaff); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *roomService) ListRooms(ctx context.Context, p *domain.Principal, businessUnitID int32, status domain.RoomStatus) ([]domain.Room, error) {
	if err := authorize(p, businessUnitID, anyStaff); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown room status %q", domain.ErrInvalidInput, status)
	}
	return s.roomRepo.ListByBusinessUnit(ctx, businessUnitID, status)
}

// OverrideStatus sets a room status by hand. Taking a room that an active
// reservation holds out of service needs o.Force.
func (s *roomService) OverrideStatus(ctx context.Context, p *domain.Principal, id int32, o StatusOverride) (*domain.Room, error) {
	logger.EnterMethod("roomService.OverrideStatus", "principal_id", principalID(p), "roomID", id, "status", o.Status, "force", o.Force)
	room, err := s.roomRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(p, room.BusinessUnitID, managers); err != nil {
		return nil, err
	}
	if o.Status == domain.RoomStatusOutOfOrder && o.OutOfOrderUntil != nil && !o.OutOfOrderUntil.After(s.now()) {
		return nil, fmt.Errorf("%w: out_of_order_until must be in the future", domain.ErrInvalidInput)
	}

	updated, err := s.roomRepo.UpdateStatus(ctx, id, func(locked *domain.Room, holders int) (domain.RoomStatusChange, error) {
		return lifecycle.CheckOverride(locked, o.Status, o.OutOfOrderUntil, holders, o.Force)
	})
	if err != nil {
		logger.ExitMethodWithError("roomService.OverrideStatus", err, "principal_id", principalID(p), "roomID", id)
		return nil, err
	}
	logger.Info("Room status overridden", "principal_id", principalID(p), "roomID", id,
		"from", room.Status, "to", updated.Status, "force", o.Force, "reason", o.Reason)
	logger.ExitMethod("roomService.OverrideStatus", "roomID", id, "status", updated.Status)
	return updated, nil
}

func (s *roomService) SetHousekeepingStatus(ctx context.Context, p *domain.Principal, id int32, hk domain.HousekeepingStatus) (*domain.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(p, room.BusinessUnitID, anyStaff); err != nil {
		return nil, err
	}
	updated, err := s.roomRepo.UpdateStatus(ctx, id, func(locked *domain.Room, holders int) (domain.RoomStatusChange, error) {
		return lifecycle.ApplyHousekeeping(locked, hk, holders)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Housekeeping status updated", "principal_id", principalID(p), "roomID", id,
		"housekeeping", updated.HousekeepingStatus, "status", updated.Status)
	return updated, nil
}

// ReleaseExpiredOutOfOrder returns OUT_OF_ORDER rooms whose deadline has
// passed to AVAILABLE. Safe to run from several instances at once.
func (s *roomService) ReleaseExpiredOutOfOrder(ctx context.Context) ([]int32, error) {
	logger.EnterMethod("roomService.ReleaseExpiredOutOfOrder")
	ids, err := s.roomRepo.ReleaseExpiredOutOfOrder(ctx, s.now())
	if err != nil {
		logger.ExitMethodWithError("roomService.ReleaseExpiredOutOfOrder", err)
		return nil, err
	}
	logger.ExitMethod("roomService.ReleaseExpiredOutOfOrder", "released", len(ids))
	return ids, nil
}
