// Package guard decides which roles may enter which routes. One capability
// table drives both the route middleware and the navigation menu, so what is
// routable and what is shown can never drift apart.
package guard

import (
	"github.com/careview/careview/internal/session"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectUnauthorized
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-login"
	case RedirectUnauthorized:
		return "redirect-unauthorized"
	default:
		return "unknown"
	}
}

// Authorize is a pure function of the session and the route's required role
// set: no session means login, a known session with the wrong role means the
// unauthorized page, anything else is allowed.
func Authorize(sess *session.Session, required []session.Role) Decision {
	if !sess.Valid() {
		return RedirectLogin
	}
	for _, r := range required {
		if sess.Role == r {
			return Allow
		}
	}
	return RedirectUnauthorized
}

// Capability is one routable screen: its path, the label shown in the
// navigation menu, and the roles allowed in.
type Capability struct {
	Path  string         `json:"path"`
	Label string         `json:"label"`
	Roles []session.Role `json:"-"`
}

// Capabilities is the single role→screen table for the whole portal.
// Route registration and the menu endpoint both read from it.
var Capabilities = []Capability{
	{Path: "/admin", Label: "Admin Dashboard", Roles: []session.Role{session.RoleAdmin}},
	{Path: "/admin/doctors", Label: "Doctors", Roles: []session.Role{session.RoleAdmin}},
	{Path: "/admin/patients", Label: "Patients", Roles: []session.Role{session.RoleAdmin}},
	{Path: "/admin/equipment", Label: "Equipment", Roles: []session.Role{session.RoleAdmin}},
	{Path: "/admin/feedback", Label: "Feedback", Roles: []session.Role{session.RoleAdmin}},

	{Path: "/doctor", Label: "Doctor Dashboard", Roles: []session.Role{session.RoleDoctor}},
	{Path: "/doctor/patients", Label: "My Patients", Roles: []session.Role{session.RoleDoctor}},
	{Path: "/doctor/prescriptions", Label: "Prescriptions", Roles: []session.Role{session.RoleDoctor}},
	{Path: "/doctor/reports", Label: "Reports", Roles: []session.Role{session.RoleDoctor}},

	{Path: "/reception", Label: "Reception Dashboard", Roles: []session.Role{session.RoleReception}},
	{Path: "/reception/patients", Label: "Patients", Roles: []session.Role{session.RoleReception}},
	{Path: "/reception/appointments", Label: "Appointments", Roles: []session.Role{session.RoleReception}},

	{Path: "/pharmacy", Label: "Pharmacy Dashboard", Roles: []session.Role{session.RolePharmacist}},
	{Path: "/pharmacy/drugs", Label: "Drugs", Roles: []session.Role{session.RolePharmacist}},
	{Path: "/pharmacy/physical-count", Label: "Physical Count", Roles: []session.Role{session.RolePharmacist}},

	{Path: "/lab", Label: "Lab Dashboard", Roles: []session.Role{session.RoleLab}},
	{Path: "/lab/tests", Label: "Tests", Roles: []session.Role{session.RoleLab}},

	{Path: "/cashier", Label: "Cashier Dashboard", Roles: []session.Role{session.RoleCashier}},
	{Path: "/cashier/bills", Label: "Bills", Roles: []session.Role{session.RoleCashier}},

	{Path: "/patient", Label: "Patient Dashboard", Roles: []session.Role{session.RolePatient}},
	{Path: "/patient/bills", Label: "My Bills", Roles: []session.Role{session.RolePatient}},
	{Path: "/patient/feedback", Label: "Feedback", Roles: []session.Role{session.RolePatient}},

	{Path: "/rch", Label: "RCH Dashboard", Roles: []session.Role{session.RoleRCH}},
	{Path: "/rch/visits", Label: "Clinic Visits", Roles: []session.Role{session.RoleRCH}},
	{Path: "/rch/vaccinations", Label: "Vaccinations", Roles: []session.Role{session.RoleRCH}},
}

// Menu returns the capability entries visible to a role, in table order.
func Menu(role session.Role) []Capability {
	var out []Capability
	for _, cap := range Capabilities {
		for _, r := range cap.Roles {
			if r == role {
				out = append(out, cap)
				break
			}
		}
	}
	return out
}

// RolesFor returns the required role set for a path, or nil when the path is
// not in the table.
func RolesFor(path string) []session.Role {
	for _, cap := range Capabilities {
		if cap.Path == path {
			return cap.Roles
		}
	}
	return nil
}
