package identity

import (
	"github.com/google/uuid"
)

type Role string

const (
	RoleCustomer     Role = "customer"
	RoleGuest        Role = "guest"
	RoleWorker       Role = "worker"
	RoleOwner        Role = "owner"
	RoleReceptionist Role = "receptionist"
	RoleAdmin        Role = "admin"
	RoleSystem       Role = "system"
)

// Principal is the acting identity attached to a request. ProviderID is set
// for staff roles and scopes what they may touch.
type Principal struct {
	UserID     uuid.UUID
	ProviderID uuid.UUID
	Role       Role
}

// System is the actor recorded for transitions made by background jobs.
var System = Principal{UserID: uuid.Nil, Role: RoleSystem}

func (p Principal) IsSystem() bool {
	return p.Role == RoleSystem
}

// IsProviderStaff reports whether the role can manage appointments on behalf
// of a provider.
func (p Principal) IsProviderStaff() bool {
	switch p.Role {
	case RoleOwner, RoleReceptionist, RoleAdmin:
		return true
	}
	return false
}

// AppointmentParties is the slice of an appointment the authorization rule
// needs: who owns it, who serves it, which provider it belongs to.
type AppointmentParties struct {
	CustomerID *uuid.UUID
	GuestID    *uuid.UUID
	WorkerID   uuid.UUID
	ProviderID uuid.UUID
}

// CanActOn implements the single transition-independent authorization rule:
// the owning customer (or guest), the assigned worker, or staff of the
// owning provider may act. The system actor always may.
func CanActOn(p Principal, appt AppointmentParties) bool {
	if p.IsSystem() {
		return true
	}
	if appt.CustomerID != nil && p.Role == RoleCustomer && p.UserID == *appt.CustomerID {
		return true
	}
	if appt.GuestID != nil && p.Role == RoleGuest && p.UserID == *appt.GuestID {
		return true
	}
	if p.Role == RoleWorker && p.UserID == appt.WorkerID {
		return true
	}
	if p.IsProviderStaff() && p.ProviderID == appt.ProviderID {
		return true
	}
	return false
}
