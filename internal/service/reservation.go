package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/lifecycle"
	"hotel-pms-backend/internal/logger"
	"hotel-pms-backend/internal/pricing"
	"hotel-pms-backend/internal/repository"
)

type reservationService struct {
	resRepo      repository.ReservationRepository
	roomRepo     repository.RoomRepository
	roomTypeRepo repository.RoomTypeRepository
	rateRepo     repository.RoomRateRepository
	paymentRepo  repository.PaymentRepository
	notifier     Notifier
	calendar     propertyCalendar
}

func NewReservationService(
	resRepo repository.ReservationRepository,
	roomRepo repository.RoomRepository,
	roomTypeRepo repository.RoomTypeRepository,
	rateRepo repository.RoomRateRepository,
	paymentRepo repository.PaymentRepository,
	buRepo repository.BusinessUnitRepository,
	notifier Notifier,
	defaultLoc *time.Location,
) ReservationService {
	if notifier == nil {
		notifier = NopNotifier()
	}
	return &reservationService{
		resRepo:      resRepo,
		roomRepo:     roomRepo,
		roomTypeRepo: roomTypeRepo,
		rateRepo:     rateRepo,
		paymentRepo:  paymentRepo,
		notifier:     notifier,
		calendar:     newPropertyCalendar(buRepo, defaultLoc),
	}
}

func addViolations(dst domain.ConstraintViolations, err error) (domain.ConstraintViolations, error) {
	var found domain.ConstraintViolations
	if !errors.As(err, &found) {
		return dst, err
	}
	for _, v := range found {
		if !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst, nil
}

func checkCreateRequest(req *CreateReservationRequest) error {
	var problems []string
	if strings.TrimSpace(req.GuestName) == "" {
		problems = append(problems, "guest name is required")
	}
	if req.Adults < 1 {
		problems = append(problems, "at least one adult is required")
	}
	if req.Children < 0 {
		problems = append(problems, "children cannot be negative")
	}
	if len(req.RoomIDs) == 0 {
		problems = append(problems, "at least one room is required")
	}
	ids := slices.Clone(req.RoomIDs)
	slices.Sort(ids)
	if len(slices.Compact(ids)) != len(req.RoomIDs) {
		problems = append(problems, "a room can only be assigned once")
	}
	if req.CheckIn.IsZero() || req.CheckOut.IsZero() {
		problems = append(problems, "check-in and check-out dates are required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

// CreateReservation prices every room with the rate selector, validates the
// stay against the rates that priced it and stores the nightly snapshot. A
// walk-in is created already holding its rooms as occupied.
func (s *reservationService) CreateReservation(ctx context.Context, p *domain.Principal, req CreateReservationRequest) (*domain.Reservation, error) {
	const method = "reservationService.CreateReservation"
	logger.EnterMethod(method, "principal_id", principalID(p), "businessUnitID", req.BusinessUnitID,
		"checkIn", req.CheckIn, "checkOut", req.CheckOut, "rooms", req.RoomIDs)

	if err := authorize(p, req.BusinessUnitID, frontDesk); err != nil {
		return nil, err
	}
	if req.Status == "" {
		req.Status = domain.ReservationPending
	}
	if !lifecycle.ValidInitialStatus(req.Status) {
		return nil, fmt.Errorf("%w: reservations cannot start as %s", domain.ErrInvalidInput, req.Status)
	}
	if err := checkCreateRequest(&req); err != nil {
		return nil, err
	}
	today, _, err := s.calendar.today(ctx, req.BusinessUnitID)
	if err != nil {
		return nil, err
	}
	walkIn := req.Status == domain.ReservationWalkedIn

	var violations domain.ConstraintViolations
	if walkIn && req.CheckIn != today {
		violations = append(violations, domain.ConstraintViolation{
			Kind:    domain.InvalidStayRange,
			Actual:  domain.DaysBetween(today, req.CheckIn),
			Message: "walk-in stays must check in today",
		})
	}

	res := &domain.Reservation{
		ConfirmationNumber: domain.NewConfirmationNumber(),
		BusinessUnitID:     req.BusinessUnitID,
		GuestID:            req.GuestID,
		GuestName:          strings.TrimSpace(req.GuestName),
		GuestEmail:         strings.TrimSpace(req.GuestEmail),
		CheckInDate:        req.CheckIn,
		CheckOutDate:       req.CheckOut,
		Adults:             req.Adults,
		Children:           req.Children,
		Status:             req.Status,
		PaymentStatus:      domain.PaymentPending,
		SpecialRequests:    req.SpecialRequests,
		InternalNotes:      req.InternalNotes,
		Source:             req.Source,
	}

	roomTypes := make(map[int32]*domain.RoomType)
	ratesByType := make(map[int32][]domain.RoomRate)
	single := len(req.RoomIDs) == 1
	maxAdults, maxChildren := 0, 0
	for _, roomID := range req.RoomIDs {
		room, err := s.roomRepo.GetByID(ctx, roomID)
		if err != nil {
			return nil, err
		}
		if room.BusinessUnitID != req.BusinessUnitID {
			return nil, fmt.Errorf("%w: room %d belongs to another property", domain.ErrInvalidInput, roomID)
		}
		if !room.IsActive {
			return nil, fmt.Errorf("%w: room %s", domain.ErrRoomInactive, room.RoomNumber)
		}
		rt, ok := roomTypes[room.RoomTypeID]
		if !ok {
			if rt, err = s.roomTypeRepo.GetByID(ctx, room.RoomTypeID); err != nil {
				return nil, err
			}
			if ratesByType[rt.ID], err = s.rateRepo.ListByRoomType(ctx, rt.ID, true); err != nil {
				return nil, err
			}
			roomTypes[rt.ID] = rt
		}
		if !rt.IsActive {
			return nil, fmt.Errorf("%w: room type %s", domain.ErrRoomInactive, rt.Name)
		}
		if res.Currency == "" {
			res.Currency = rt.Currency
		} else if res.Currency != rt.Currency {
			return nil, fmt.Errorf("%w: rooms are priced in %s and %s", domain.ErrCurrencyMismatch, res.Currency, rt.Currency)
		}

		rates := ratesByType[rt.ID]
		nightly, err := pricing.Select(rt, rates, req.CheckIn, req.CheckOut)
		if err != nil {
			logger.ExitMethodWithError(method, err, "principal_id", principalID(p), "roomID", roomID)
			return nil, err
		}
		candidate := pricing.StayCandidate{
			CheckIn:  req.CheckIn,
			CheckOut: req.CheckOut,
			Today:    today,
			RoomType: rt,
			Rates:    pricing.RatesUsed(nightly, rates),
			WalkIn:   walkIn,
		}
		if single {
			candidate.Adults, candidate.Children = req.Adults, req.Children
		}
		if violations, err = addViolations(violations, pricing.ValidateStay(candidate)); err != nil {
			return nil, err
		}
		maxAdults += rt.MaxAdults
		maxChildren += rt.MaxChildren
		res.Stays = append(res.Stays, domain.RoomStay{
			RoomID:       roomID,
			RoomTypeID:   rt.ID,
			NightlyRates: nightly,
		})
	}
	if !single && req.Adults > maxAdults {
		violations = append(violations, domain.ConstraintViolation{
			Kind:    domain.OccupancyExceeded,
			Limit:   maxAdults,
			Actual:  req.Adults,
			Message: fmt.Sprintf("the selected rooms allow at most %d adults", maxAdults),
		})
	}
	if !single && req.Children > maxChildren {
		violations = append(violations, domain.ConstraintViolation{
			Kind:    domain.OccupancyExceeded,
			Limit:   maxChildren,
			Actual:  req.Children,
			Message: fmt.Sprintf("the selected rooms allow at most %d children", maxChildren),
		})
	}
	if len(violations) > 0 {
		logger.ExitMethodWithError(method, violations, "principal_id", principalID(p), "violations", len(violations))
		return nil, violations
	}
	res.RecalculateTotal()

	effect := lifecycle.EffectNone
	if walkIn {
		effect = lifecycle.EffectOccupy
	}
	if err := s.resRepo.Create(ctx, res, effect, principalID(p)); err != nil {
		logger.ExitMethodWithError(method, err, "principal_id", principalID(p), "confirmation", res.ConfirmationNumber)
		return nil, err
	}
	if walkIn {
		s.notifier.Notify(ctx, domain.LifecycleNotice{
			Type:        domain.NotificationReservationCheckedIn,
			Reservation: *res,
			ActorID:     principalID(p),
		})
	}
	logger.ExitMethod(method, "reservation_id", res.ID, "confirmation", res.ConfirmationNumber,
		"status", res.Status, "total", res.TotalAmount.String())
	return res, nil
}

func (s *reservationService) GetReservation(ctx context.Context, p *domain.Principal, id int32) (*domain.Reservation, error) {
	res, err := s.resRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(p, res.BusinessUnitID, frontDesk); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *reservationService) GetByConfirmationNumber(ctx context.Context, p *domain.Principal, number string) (*domain.Reservation, error) {
	res, err := s.resRepo.GetByConfirmationNumber(ctx, strings.ToUpper(strings.TrimSpace(number)))
	if err != nil {
		return nil, err
	}
	if err := authorize(p, res.BusinessUnitID, frontDesk); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *reservationService) ListReservations(ctx context.Context, p *domain.Principal, filter repository.ReservationFilter) ([]domain.Reservation, int32, error) {
	if err := authorize(p, filter.BusinessUnitID, frontDesk); err != nil {
		return nil, 0, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 200 {
		filter.PageSize = 50
	}
	return s.resRepo.List(ctx, filter)
}

func (s *reservationService) ListEvents(ctx context.Context, p *domain.Principal, id int32) ([]domain.ReservationEvent, error) {
	if _, err := s.GetReservation(ctx, p, id); err != nil {
		return nil, err
	}
	return s.resRepo.ListEvents(ctx, id)
}

func (s *reservationService) Confirm(ctx context.Context, p *domain.Principal, id int32) (*domain.Reservation, error) {
	result, err := s.transition(ctx, p, id, lifecycle.ActionConfirm, "", "reservationService.Confirm")
	if err != nil {
		return nil, err
	}
	return result.Reservation, nil
}

func (s *reservationService) CheckIn(ctx context.Context, p *domain.Principal, id int32) (*domain.Reservation, error) {
	result, err := s.transition(ctx, p, id, lifecycle.ActionCheckIn, "", "reservationService.CheckIn")
	if err != nil {
		return nil, err
	}
	return result.Reservation, nil
}

func (s *reservationService) CheckOut(ctx context.Context, p *domain.Principal, id int32) (*domain.Reservation, error) {
	result, err := s.transition(ctx, p, id, lifecycle.ActionCheckOut, "", "reservationService.CheckOut")
	if err != nil {
		return nil, err
	}
	return result.Reservation, nil
}

// Cancel requires a reason. Captured payments are reported back as
// refundable; refunds are a separate staff action.
func (s *reservationService) Cancel(ctx context.Context, p *domain.Principal, id int32, reason string) (*CancellationResult, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		logger.Warn("Cancellation without reason rejected", "principal_id", principalID(p), "reservation_id", id)
		return nil, domain.ErrReasonRequired
	}
	result, err := s.transition(ctx, p, id, lifecycle.ActionCancel, reason, "reservationService.Cancel")
	if err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.ListByReservation(ctx, id)
	if err != nil {
		// The cancellation is committed; only the refund hint is missing.
		logger.Error("Failed to list payments after cancellation", "principal_id", principalID(p), "reservation_id", id, "error", err)
		return &CancellationResult{Reservation: result.Reservation}, nil
	}
	out := &CancellationResult{Reservation: result.Reservation, RefundablePayments: []domain.Payment{}}
	for _, pay := range payments {
		if pay.Refundable() {
			out.RefundablePayments = append(out.RefundablePayments, pay)
		}
	}
	return out, nil
}

// MarkNoShow only succeeds once the check-in day has fully elapsed in the
// property's calendar.
func (s *reservationService) MarkNoShow(ctx context.Context, p *domain.Principal, id int32) (*domain.Reservation, error) {
	result, err := s.transition(ctx, p, id, lifecycle.ActionNoShow, "guest did not arrive", "reservationService.MarkNoShow")
	if err != nil {
		return nil, err
	}
	return result.Reservation, nil
}

func (s *reservationService) ListNoShowCandidates(ctx context.Context) ([]domain.Reservation, error) {
	now := s.calendar.now()
	// No timezone is more than a day ahead of UTC.
	candidates, err := s.resRepo.ListNoShowCandidates(ctx, domain.DateOf(now, time.UTC).AddDays(1))
	if err != nil {
		return nil, err
	}
	todays := make(map[int32]domain.Date)
	var due []domain.Reservation
	for _, res := range candidates {
		today, ok := todays[res.BusinessUnitID]
		if !ok {
			if today, _, err = s.calendar.today(ctx, res.BusinessUnitID); err != nil {
				return nil, err
			}
			todays[res.BusinessUnitID] = today
		}
		if lifecycle.NoShowDue(res.CheckInDate, today) {
			due = append(due, res)
		}
	}
	return due, nil
}

func (s *reservationService) transition(ctx context.Context, p *domain.Principal, id int32, action lifecycle.Action, reason, method string) (*repository.TransitionResult, error) {
	logger.EnterMethod(method, "principal_id", principalID(p), "reservation_id", id)
	res, err := s.resRepo.GetByID(ctx, id)
	if err != nil {
		logger.ExitMethodWithError(method, err, "principal_id", principalID(p), "reservation_id", id)
		return nil, err
	}
	if err := authorize(p, res.BusinessUnitID, frontDesk); err != nil {
		logger.ExitMethodWithError(method, err, "principal_id", principalID(p), "reservation_id", id)
		return nil, err
	}
	if action == lifecycle.ActionNoShow && res.Status == domain.ReservationConfirmed {
		today, _, err := s.calendar.today(ctx, res.BusinessUnitID)
		if err != nil {
			return nil, err
		}
		if !lifecycle.NoShowDue(res.CheckInDate, today) {
			logger.ExitMethodWithError(method, domain.ErrNoShowTooEarly, "principal_id", principalID(p), "reservation_id", id)
			return nil, domain.ErrNoShowTooEarly
		}
	}

	result, err := s.resRepo.Transition(ctx, repository.TransitionRequest{
		ReservationID: id,
		Action:        action,
		ActorID:       principalID(p),
		Reason:        reason,
	})
	if err != nil {
		logger.ExitMethodWithError(method, err, "principal_id", principalID(p), "reservation_id", id, "from", res.Status)
		return nil, err
	}
	if !result.NoOp {
		s.notify(ctx, result, principalID(p), reason)
	}
	logger.ExitMethod(method, "principal_id", principalID(p), "reservation_id", id,
		"status", result.Reservation.Status, "noop", result.NoOp, "roomChanges", len(result.RoomChanges))
	return result, nil
}

func (s *reservationService) notify(ctx context.Context, result *repository.TransitionResult, actorID int32, reason string) {
	var kind domain.NotificationType
	switch result.Transition.To {
	case domain.ReservationConfirmed:
		kind = domain.NotificationReservationConfirmed
	case domain.ReservationCancelled:
		kind = domain.NotificationReservationCancelled
	case domain.ReservationCheckedIn:
		kind = domain.NotificationReservationCheckedIn
	default:
		return
	}
	s.notifier.Notify(ctx, domain.LifecycleNotice{
		Type:        kind,
		Reservation: *result.Reservation,
		ActorID:     actorID,
		Reason:      reason,
	})
}
