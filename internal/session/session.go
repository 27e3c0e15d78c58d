// Package session owns the gateway's view of an authenticated user: the
// upstream bearer token, the role, and the username. The browser only ever
// holds an HMAC-signed cookie carrying the session id; the token itself
// stays server-side in a Store so a gateway restart (with the Postgres
// store) does not log anyone out.
package session

import (
	"fmt"
	"strings"
	"time"
)

// Role is one of the portal's known user roles.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleDoctor     Role = "doctor"
	RoleReception  Role = "reception"
	RolePharmacist Role = "pharmacist"
	RoleLab        Role = "lab"
	RoleCashier    Role = "cashier"
	RolePatient    Role = "patient"
	RoleRCH        Role = "rch"
)

// AllRoles lists every role the portal routes for.
var AllRoles = []Role{
	RoleAdmin, RoleDoctor, RoleReception, RolePharmacist,
	RoleLab, RoleCashier, RolePatient, RoleRCH,
}

// roleAliases maps the upstream's display spellings onto canonical roles.
var roleAliases = map[string]Role{
	"admin":          RoleAdmin,
	"doctor":         RoleDoctor,
	"reception":      RoleReception,
	"receptionist":   RoleReception,
	"pharmacist":     RolePharmacist,
	"pharmacy":       RolePharmacist,
	"lab":            RoleLab,
	"lab technician": RoleLab,
	"labtech":        RoleLab,
	"cashier":        RoleCashier,
	"patient":        RolePatient,
	"rch":            RoleRCH,
	"rch clinic":     RoleRCH,
}

// ParseRole normalizes an upstream role string. Unknown roles are an error:
// a token with an unparsable role is treated as a corrupt session.
func ParseRole(s string) (Role, error) {
	r, ok := roleAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Session is one authenticated user.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	Role      Role      `json:"role"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Valid reports whether the session carries a token and a known role.
func (s *Session) Valid() bool {
	if s == nil || s.Token == "" {
		return false
	}
	_, err := ParseRole(string(s.Role))
	return err == nil
}
