// Package guard decides whether a session may enter a route.
//
// Evaluate is a pure function of the session snapshot and the route's
// required capability. The web layer acts on the returned Decision.
package guard

import (
	"strings"

	"github.com/mcoot/communityportal/internal/model"
	"github.com/mcoot/communityportal/internal/session"
)

// Capability is what a route requires of the visitor
type Capability int

const (
	// NonAdmin admits anyone except administrators, who are sent to their landing page
	NonAdmin Capability = iota
	// AdminOnly admits authenticated administrators only
	AdminOnly
)

func (c Capability) String() string {
	switch c {
	case NonAdmin:
		return "non_admin"
	case AdminOnly:
		return "admin_only"
	default:
		return "unknown"
	}
}

// ParseCapability accepts the names produced by Capability.String
func ParseCapability(s string) (Capability, bool) {
	switch strings.ToLower(strings.ReplaceAll(s, "-", "_")) {
	case "non_admin":
		return NonAdmin, true
	case "admin_only":
		return AdminOnly, true
	default:
		return 0, false
	}
}

// Decision is the outcome of one guard evaluation
type Decision int

const (
	Admit Decision = iota
	RedirectLogin
	RedirectHome
	RedirectAdminHome
)

// Route targets for redirect decisions
const (
	LoginRoute     = "/login"
	HomeRoute      = "/"
	AdminHomeRoute = "/admin/dashboard"
)

func (d Decision) String() string {
	switch d {
	case Admit:
		return "admit"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	case RedirectAdminHome:
		return "redirect_admin_home"
	default:
		return "unknown"
	}
}

// Admitted reports whether the decision lets the visitor through
func (d Decision) Admitted() bool {
	return d == Admit
}

// Location is the redirect target for the decision, empty for Admit
func (d Decision) Location() string {
	switch d {
	case RedirectLogin:
		return LoginRoute
	case RedirectHome:
		return HomeRoute
	case RedirectAdminHome:
		return AdminHomeRoute
	default:
		return ""
	}
}

// IsAdmin reports whether the identity carries the admin role, ignoring case.
// A nil identity or empty role is not admin.
func IsAdmin(identity *model.Identity) bool {
	return identity != nil && strings.EqualFold(identity.Role, model.RoleAdmin)
}

// Evaluate applies the guard table:
//
//	                    NonAdmin            AdminOnly
//	unauthenticated     Admit               RedirectLogin
//	authenticated user  Admit               RedirectHome
//	authenticated admin RedirectAdminHome   Admit
func Evaluate(sess session.Session, required Capability) Decision {
	switch required {
	case AdminOnly:
		if !sess.IsAuthenticated() {
			return RedirectLogin
		}
		if !IsAdmin(sess.Identity) {
			return RedirectHome
		}
		return Admit
	default:
		if IsAdmin(sess.Identity) {
			return RedirectAdminHome
		}
		return Admit
	}
}
