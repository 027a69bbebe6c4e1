package service

import (
	"context"
	"time"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/repository"
)

var (
	managers  = []domain.Role{domain.RoleManager}
	frontDesk = []domain.Role{domain.RoleManager, domain.RoleFrontDesk}
	anyStaff  = []domain.Role{domain.RoleManager, domain.RoleFrontDesk, domain.RoleHousekeeping}
)

// authorize checks both the role and the business unit scope of p.
func authorize(p *domain.Principal, businessUnitID int32, roles []domain.Role) error {
	if !p.HasRole(roles...) || !p.CanAccess(businessUnitID) {
		return domain.ErrForbidden
	}
	return nil
}

func principalID(p *domain.Principal) int32 {
	if p == nil {
		return 0
	}
	return p.UserID
}

// propertyCalendar resolves "today" in a business unit's timezone.
type propertyCalendar struct {
	buRepo     repository.BusinessUnitRepository
	defaultLoc *time.Location
	now        func() time.Time
}

func newPropertyCalendar(buRepo repository.BusinessUnitRepository, defaultLoc *time.Location) propertyCalendar {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return propertyCalendar{buRepo: buRepo, defaultLoc: defaultLoc, now: time.Now}
}

func (c propertyCalendar) today(ctx context.Context, businessUnitID int32) (domain.Date, *domain.BusinessUnit, error) {
	bu, err := c.buRepo.GetByID(ctx, businessUnitID)
	if err != nil {
		return domain.Date{}, nil, err
	}
	return domain.DateOf(c.now(), bu.Location(c.defaultLoc)), bu, nil
}
