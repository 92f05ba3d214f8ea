// Package policy decides which role may perform which operation.
package policy

import (
	"errors"
	"fmt"

	"waybilltrack/backend/internal/domain"
)

var ErrForbidden = errors.New("forbidden")

type Capability string

const (
	ViewDashboard  Capability = "dashboard.view"
	ViewWaybills   Capability = "waybill.view"
	ManageWaybills Capability = "waybill.manage"
	CountWaybills  Capability = "waybill.count"
	CloseWaybills  Capability = "waybill.close"
	DeleteWaybills Capability = "waybill.delete"
	ViewReports    Capability = "report.view"
	ViewProducts   Capability = "product.view"
	ManageProducts Capability = "product.manage"
	ImportProducts Capability = "product.import"
	ViewUsers      Capability = "user.view"
	ManageUsers    Capability = "user.manage"
	DeleteUsers    Capability = "user.delete"
)

var grants = map[string]map[Capability]bool{
	domain.RoleUser: {
		ViewDashboard: true,
		ViewWaybills:  true,
	},
	domain.RoleAdmin: {
		ViewDashboard:  true,
		ViewWaybills:   true,
		ManageWaybills: true,
		CountWaybills:  true,
		CloseWaybills:  true,
		DeleteWaybills: true,
		ViewReports:    true,
		ViewProducts:   true,
		ManageProducts: true,
		ImportProducts: true,
		ViewUsers:      true,
		ManageUsers:    true,
	},
}

func ValidRole(role string) bool {
	switch role {
	case domain.RoleSuperAdmin, domain.RoleAdmin, domain.RoleUser:
		return true
	}
	return false
}

func Allowed(role string, capability Capability) bool {
	if role == domain.RoleSuperAdmin {
		return true
	}
	return grants[role][capability]
}

// Allow returns ErrForbidden, wrapped with the capability, when role lacks it.
func Allow(role string, capability Capability) error {
	if Allowed(role, capability) {
		return nil
	}
	return fmt.Errorf("%w: %s requires %s", ErrForbidden, roleLabel(role), capability)
}

// CanAssignRole reports whether actorRole may create a user with, or move a
// user to, target. Only a Super Admin hands out Super Admin.
func CanAssignRole(actorRole string, target string) error {
	if target == domain.RoleSuperAdmin && actorRole != domain.RoleSuperAdmin {
		return fmt.Errorf("%w: only %s can assign %s", ErrForbidden, domain.RoleSuperAdmin, domain.RoleSuperAdmin)
	}
	return nil
}

// CanDeleteUser applies the user-deletion rules on top of the capability.
func CanDeleteUser(actor domain.Actor, targetID string) error {
	if err := Allow(actor.Role, DeleteUsers); err != nil {
		return err
	}
	if actor.UserID != "" && actor.UserID == targetID {
		return fmt.Errorf("%w: users cannot delete themselves", ErrForbidden)
	}
	return nil
}

func roleLabel(role string) string {
	if role == "" {
		return "anonymous"
	}
	return role
}
