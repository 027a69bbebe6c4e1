package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/logger"
	"hotel-pms-backend/internal/pricing"
	"hotel-pms-backend/internal/repository"

	"github.com/shopspring/decimal"
)

type rateService struct {
	rateRepo     repository.RoomRateRepository
	roomTypeRepo repository.RoomTypeRepository
	calendar     propertyCalendar
}

func NewRateService(
	rateRepo repository.RoomRateRepository,
	roomTypeRepo repository.RoomTypeRepository,
	buRepo repository.BusinessUnitRepository,
	defaultLoc *time.Location,
) RateService {
	return &rateService{
		rateRepo:     rateRepo,
		roomTypeRepo: roomTypeRepo,
		calendar:     newPropertyCalendar(buRepo, defaultLoc),
	}
}

// rateContext loads a rate with its room type and checks p may manage it.
func (s *rateService) rateContext(ctx context.Context, p *domain.Principal, id int32, roles []domain.Role) (*domain.RoomRate, *domain.RoomType, error) {
	rate, err := s.rateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rt, err := s.roomTypeRepo.GetByID(ctx, rate.RoomTypeID)
	if err != nil {
		return nil, nil, err
	}
	if err := authorize(p, rt.BusinessUnitID, roles); err != nil {
		return nil, nil, err
	}
	return rate, rt, nil
}

var errInactiveDefault = fmt.Errorf("%w: an inactive rate cannot be the default", domain.ErrInvalidInput)

func checkRate(rate *domain.RoomRate, rt *domain.RoomType) error {
	if err := pricing.ValidateRate(rate); err != nil {
		return err
	}
	if rate.Currency != rt.Currency {
		return fmt.Errorf("%w: rate %s, room type %s", domain.ErrCurrencyMismatch, rate.Currency, rt.Currency)
	}
	if rate.IsDefault && !rate.IsActive {
		return errInactiveDefault
	}
	return nil
}

func (s *rateService) CreateRate(ctx context.Context, p *domain.Principal, rate *domain.RoomRate) error {
	logger.EnterMethod("rateService.CreateRate", "principal_id", principalID(p), "roomTypeID", rate.RoomTypeID, "name", rate.Name)
	rt, err := s.roomTypeRepo.GetByID(ctx, rate.RoomTypeID)
	if err != nil {
		return err
	}
	if err := authorize(p, rt.BusinessUnitID, managers); err != nil {
		return err
	}
	if err := checkRate(rate, rt); err != nil {
		logger.ExitMethodWithError("rateService.CreateRate", err, "roomTypeID", rate.RoomTypeID)
		return err
	}
	if err := s.rateRepo.Create(ctx, rate); err != nil {
		logger.ExitMethodWithError("rateService.CreateRate", err, "roomTypeID", rate.RoomTypeID)
		return err
	}
	logger.ExitMethod("rateService.CreateRate", "rateID", rate.ID, "isDefault", rate.IsDefault)
	return nil
}

func (s *rateService) GetRate(ctx context.Context, p *domain.Principal, id int32) (*domain.RoomRate, error) {
	rate, _, err := s.rateContext(ctx, p, id, frontDesk)
	return rate, err
}

func (s *rateService) UpdateRate(ctx context.Context, p *domain.Principal, rate *domain.RoomRate) error {
	logger.EnterMethod("rateService.UpdateRate", "principal_id", principalID(p), "rateID", rate.ID)
	existing, rt, err := s.rateContext(ctx, p, rate.ID, managers)
	if err != nil {
		return err
	}
	rate.RoomTypeID = existing.RoomTypeID
	if err := checkRate(rate, rt); err != nil {
		logger.ExitMethodWithError("rateService.UpdateRate", err, "rateID", rate.ID)
		return err
	}
	if err := s.rateRepo.Update(ctx, rate); err != nil {
		logger.ExitMethodWithError("rateService.UpdateRate", err, "rateID", rate.ID)
		return err
	}
	logger.ExitMethod("rateService.UpdateRate", "rateID", rate.ID)
	return nil
}

func (s *rateService) SetRateActive(ctx context.Context, p *domain.Principal, id int32, active bool) (*domain.RoomRate, error) {
	if _, _, err := s.rateContext(ctx, p, id, managers); err != nil {
		return nil, err
	}
	if err := s.rateRepo.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	logger.Info("Rate activation changed", "principal_id", principalID(p), "rateID", id, "active", active)
	return s.rateRepo.GetByID(ctx, id)
}

// SetDefaultRate swaps the room type's default in one transaction, so no
// reader ever sees two defaults.
func (s *rateService) SetDefaultRate(ctx context.Context, p *domain.Principal, id int32) (*domain.RoomRate, error) {
	logger.EnterMethod("rateService.SetDefaultRate", "principal_id", principalID(p), "rateID", id)
	rate, _, err := s.rateContext(ctx, p, id, managers)
	if err != nil {
		return nil, err
	}
	if !rate.IsActive {
		return nil, errInactiveDefault
	}
	if err := s.rateRepo.SetDefault(ctx, rate.RoomTypeID, id); err != nil {
		logger.ExitMethodWithError("rateService.SetDefaultRate", err, "rateID", id)
		return nil, err
	}
	logger.ExitMethod("rateService.SetDefaultRate", "rateID", id, "roomTypeID", rate.RoomTypeID)
	return s.rateRepo.GetByID(ctx, id)
}

// DeleteRate never touches booked stays; their nightly rates are snapshots.
func (s *rateService) DeleteRate(ctx context.Context, p *domain.Principal, id int32) error {
	if _, _, err := s.rateContext(ctx, p, id, managers); err != nil {
		return err
	}
	if err := s.rateRepo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("Rate deleted", "principal_id", principalID(p), "rateID", id)
	return nil
}

func (s *rateService) ListRates(ctx context.Context, p *domain.Principal, roomTypeID int32, activeOnly bool) ([]domain.RoomRate, error) {
	rt, err := s.roomTypeRepo.GetByID(ctx, roomTypeID)
	if err != nil {
		return nil, err
	}
	if err := authorize(p, rt.BusinessUnitID, frontDesk); err != nil {
		return nil, err
	}
	return s.rateRepo.ListByRoomType(ctx, roomTypeID, activeOnly)
}

func (s *rateService) QuoteStay(ctx context.Context, p *domain.Principal, req QuoteRequest) (*Quote, error) {
	rt, err := s.roomTypeRepo.GetByID(ctx, req.RoomTypeID)
	if err != nil {
		return nil, err
	}
	if err := authorize(p, rt.BusinessUnitID, frontDesk); err != nil {
		return nil, err
	}
	if !rt.IsActive {
		return nil, domain.ErrRoomInactive
	}
	today, _, err := s.calendar.today(ctx, rt.BusinessUnitID)
	if err != nil {
		return nil, err
	}
	rates, err := s.rateRepo.ListByRoomType(ctx, rt.ID, true)
	if err != nil {
		return nil, err
	}
	nightly, err := pricing.Select(rt, rates, req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	quote := &Quote{
		RoomTypeID: rt.ID,
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		Nights:     nightly,
		Total:      decimal.Zero,
		Currency:   rt.Currency,
	}
	for _, n := range nightly {
		quote.Total = quote.Total.Add(n.Amount)
	}
	err = pricing.ValidateStay(pricing.StayCandidate{
		CheckIn:  req.CheckIn,
		CheckOut: req.CheckOut,
		Today:    today,
		Adults:   req.Adults,
		Children: req.Children,
		RoomType: rt,
		Rates:    pricing.RatesUsed(nightly, rates),
		WalkIn:   req.WalkIn,
	})
	var violations domain.ConstraintViolations
	if errors.As(err, &violations) {
		quote.Violations = violations
	} else if err != nil {
		return nil, err
	}
	return quote, nil
}
