// Package authz decides whether an identity may see a view. Everything here
// is pure: no I/O and no mutation.
package authz

import (
	"fmt"

	"github.com/otcheredev/medpres-client/internal/models"
)

// Access is the audience a view is restricted to.
type Access int

const (
	GuestOnly Access = iota
	Authenticated
	PatientOnly
	DoctorOnly
	AdminOnly
)

func (a Access) String() string {
	switch a {
	case GuestOnly:
		return "guest_only"
	case Authenticated:
		return "authenticated"
	case PatientOnly:
		return "patient_only"
	case DoctorOnly:
		return "doctor_only"
	case AdminOnly:
		return "admin_only"
	default:
		return fmt.Sprintf("access(%d)", int(a))
	}
}

// Decision is the outcome of a gate check.
type Decision int

const (
	Allow Decision = iota
	RedirectToLogin
	RedirectToDashboard
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_login"
	case RedirectToDashboard:
		return "redirect_dashboard"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Location is where a redirect decision sends the browser, or "".
func (d Decision) Location() string {
	switch d {
	case RedirectToLogin:
		return LoginPath
	case RedirectToDashboard:
		return DashboardPath
	default:
		return ""
	}
}

// Decide applies the gate rules. A signed-in user whose role does not match
// is sent to the login view, not their own dashboard.
func Decide(identity *models.Identity, access Access) Decision {
	if access == GuestOnly {
		if identity != nil {
			return RedirectToDashboard
		}
		return Allow
	}
	if identity == nil {
		return RedirectToLogin
	}

	switch access {
	case Authenticated:
		return Allow
	case PatientOnly:
		return allowRole(identity.Role, models.RolePatient)
	case DoctorOnly:
		return allowRole(identity.Role, models.RoleDoctor)
	case AdminOnly:
		return allowRole(identity.Role, models.RoleAdmin)
	default:
		return RedirectToLogin
	}
}

func allowRole(have, want models.Role) Decision {
	if have == want {
		return Allow
	}
	return RedirectToLogin
}

// Landing is where "/" sends the browser.
func Landing(identity *models.Identity) string {
	if identity != nil {
		return DashboardPath
	}
	return LoginPath
}
