package service

import (
	"context"
	"fmt"
	"strings"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/logger"
	"hotel-pms-backend/internal/repository"
)

type roomTypeService struct {
	roomTypeRepo repository.RoomTypeRepository
	buRepo       repository.BusinessUnitRepository
}

func NewRoomTypeService(roomTypeRepo repository.RoomTypeRepository, buRepo repository.BusinessUnitRepository) RoomTypeService {
	return &roomTypeService{roomTypeRepo: roomTypeRepo, buRepo: buRepo}
}

func validateRoomType(rt *domain.RoomType) error {
	var problems []string
	if strings.TrimSpace(rt.Name) == "" {
		problems = append(problems, "name is required")
	}
	if rt.MaxAdults < 1 {
		problems = append(problems, "max_adults must be at least 1")
	}
	if rt.MaxChildren < 0 || rt.MaxInfants < 0 {
		problems = append(problems, "occupancy limits cannot be negative")
	}
	if len(rt.Currency) != 3 {
		problems = append(problems, "currency must be a 3-letter code")
	}
	if rt.BaseRate.Valid && !rt.BaseRate.Decimal.IsPositive() {
		problems = append(problems, "base rate must be positive when set")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

func (s *roomTypeService) CreateRoomType(ctx context.Context, p *domain.Principal, rt *domain.RoomType) error {
	logger.EnterMethod("roomTypeService.CreateRoomType", "principal_id", principalID(p), "businessUnitID", rt.BusinessUnitID)
	if err := authorize(p, rt.BusinessUnitID, managers); err != nil {
		return err
	}
	if _, err := s.buRepo.GetByID(ctx, rt.BusinessUnitID); err != nil {
		return err
	}
	if err := validateRoomType(rt); err != nil {
		return err
	}
	rt.IsActive = true
	if err := s.roomTypeRepo.Create(ctx, rt); err != nil {
		logger.ExitMethodWithError("roomTypeService.CreateRoomType", err, "principal_id", principalID(p))
		return err
	}
	logger.ExitMethod("roomTypeService.CreateRoomType", "roomTypeID", rt.ID)
	return nil
}

func (s *roomTypeService) GetRoomType(ctx context.Context, p *domain.Principal, id int32) (*domain.RoomType, error) {
	rt, err := s.roomTypeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(p, rt.BusinessUnitID, anyStaff); err != nil {
		return nil, err
	}
	return rt, nil
}

func (s *roomTypeService) UpdateRoomType(ctx context.Context, p *domain.Principal, rt *domain.RoomType) error {
	logger.EnterMethod("roomTypeService.UpdateRoomType", "principal_id", principalID(p), "roomTypeID", rt.ID)
	existing, err := s.roomTypeRepo.GetByID(ctx, rt.ID)
	if err != nil {
		return err
	}
	if err := authorize(p, existing.BusinessUnitID, managers); err != nil {
		return err
	}
	rt.BusinessUnitID = existing.BusinessUnitID
	if err := validateRoomType(rt); err != nil {
		return err
	}
	if err := s.roomTypeRepo.Update(ctx, rt); err != nil {
		logger.ExitMethodWithError("roomTypeService.UpdateRoomType", err, "roomTypeID", rt.ID)
		return err
	}
	logger.ExitMethod("roomTypeService.UpdateRoomType", "roomTypeID", rt.ID)
	return nil
}

// DeactivateRoomType keeps the type and its rooms but stops new bookings.
func (s *roomTypeService) DeactivateRoomType(ctx context.Context, p *domain.Principal, id int32) (*domain.RoomType, error) {
	rt, err := s.roomTypeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(p, rt.BusinessUnitID, managers); err != nil {
		return nil, err
	}
	if !rt.IsActive {
		return rt, nil
	}
	rt.IsActive = false
	if err := s.roomTypeRepo.Update(ctx, rt); err != nil {
		return nil, err
	}
	logger.Info("Room type deactivated", "principal_id", principalID(p), "roomTypeID", id)
	return rt, nil
}

func (s *roomTypeService) DeleteRoomType(ctx context.Context, p *domain.Principal, id int32) error {
	rt, err := s.roomTypeRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(p, rt.BusinessUnitID, managers); err != nil {
		return err
	}
	if err := s.roomTypeRepo.Delete(ctx, id); err != nil {
		logger.Warn("Room type delete refused", "principal_id", principalID(p), "roomTypeID", id, "error", err)
		return err
	}
	return nil
}

func (s *roomTypeService) ListRoomTypes(ctx context.Context, p *domain.Principal, businessUnitID int32, includeInactive bool) ([]domain.RoomType, error) {
	if err := authorize(p, businessUnitID, anyStaff); err != nil {
		return nil, err
	}
	return s.roomTypeRepo.ListByBusinessUnit(ctx, businessUnitID, includeInactive)
}
