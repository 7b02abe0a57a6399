package authz

import "github.com/otcheredev/medpres-client/internal/models"

// Panel is the role-specific body of the dashboard view.
type Panel int

const (
	NoPanel Panel = iota
	PatientPanel
	DoctorPanel
	AdminPanel
)

func (p Panel) String() string {
	switch p {
	case PatientPanel:
		return "patient"
	case DoctorPanel:
		return "doctor"
	case AdminPanel:
		return "admin"
	default:
		return "none"
	}
}

// DashboardPanel picks the dashboard panel for role. An unknown role gets
// no panel and is sent to login.
func DashboardPanel(role models.Role) (Panel, Decision) {
	switch role {
	case models.RolePatient:
		return PatientPanel, Allow
	case models.RoleDoctor:
		return DoctorPanel, Allow
	case models.RoleAdmin:
		return AdminPanel, Allow
	default:
		return NoPanel, RedirectToLogin
	}
}

// NavLink is one entry of the navigation bar.
type NavLink struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// NavLinks returns the navigation bar for role. Unknown roles get none.
func NavLinks(role models.Role) []NavLink {
	dashboard := NavLink{Label: "Dashboard", Path: DashboardPath}
	switch role {
	case models.RolePatient:
		return []NavLink{
			dashboard,
			{Label: "Find Doctors", Path: "/search-doctors"},
			{Label: "My Appointments", Path: "/my-appointments"},
			{Label: "My Prescriptions", Path: "/my-prescriptions"},
		}
	case models.RoleDoctor:
		return []NavLink{
			dashboard,
			{Label: "Manage Appointments", Path: "/manage-appointments"},
		}
	case models.RoleAdmin:
		return []NavLink{
			dashboard,
			{Label: "Manage Doctors", Path: "/manage-doctors"},
			{Label: "Manage Users", Path: "/manage-users"},
			{Label: "Reports", Path: "/reports"},
		}
	default:
		return nil
	}
}
