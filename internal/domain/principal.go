package domain

import "slices"

type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleManager      Role = "MANAGER"
	RoleFrontDesk    Role = "FRONT_DESK"
	RoleHousekeeping Role = "HOUSEKEEPING"
)

// Principal is an already-authenticated actor. An admin with no business unit
// scope may act on every property.
type Principal struct {
	UserID          int32   `json:"user_id"`
	Email           string  `json:"email"`
	Roles           []Role  `json:"roles"`
	BusinessUnitIDs []int32 `json:"business_unit_ids"`
}

// SystemPrincipal acts for scheduled jobs.
func SystemPrincipal() *Principal {
	return &Principal{UserID: 0, Email: "system", Roles: []Role{RoleAdmin}}
}

func (p *Principal) HasRole(roles ...Role) bool {
	if p == nil {
		return false
	}
	if slices.Contains(p.Roles, RoleAdmin) {
		return true
	}
	for _, r := range roles {
		if slices.Contains(p.Roles, r) {
			return true
		}
	}
	return false
}

func (p *Principal) CanAccess(businessUnitID int32) bool {
	if p == nil {
		return false
	}
	if len(p.BusinessUnitIDs) == 0 {
		return slices.Contains(p.Roles, RoleAdmin)
	}
	return slices.Contains(p.BusinessUnitIDs, businessUnitID)
}
