package authz

import "strings"

// Paths the gate redirects to.
const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

// routes maps the first path segment of every view to its audience.
var routes = map[string]Access{
	"login":               GuestOnly,
	"register":            GuestOnly,
	"logout":              Authenticated,
	"dashboard":           Authenticated,
	"nav":                 Authenticated,
	"search-doctors":      PatientOnly,
	"book-appointment":    PatientOnly,
	"my-appointments":     PatientOnly,
	"my-prescriptions":    PatientOnly,
	"manage-appointments": DoctorOnly,
	"issue-prescription":  DoctorOnly,
	"manage-doctors":      AdminOnly,
	"manage-users":        AdminOnly,
	"reports":             AdminOnly,
}

// Route returns the access level of the view serving path. ok is false for
// paths that are not views.
func Route(path string) (access Access, ok bool) {
	seg := strings.Trim(path, "/")
	if i := strings.IndexByte(seg, '/'); i >= 0 {
		seg = seg[:i]
	}
	access, ok = routes[seg]
	return access, ok
}
