package authz

import (
	"testing"

	"github.com/otcheredev/medpres-client/internal/models"
	"github.com/stretchr/testify/assert"
)

var (
	patient = &models.Identity{ID: 1, Role: models.RolePatient}
	doctor  = &models.Identity{ID: 2, Role: models.RoleDoctor}
	admin   = &models.Identity{ID: 7, Role: models.RoleAdmin}
	unknown = &models.Identity{ID: 9, Role: models.RoleUnknown}
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		identity *models.Identity
		access   Access
		want     Decision
	}{
		{"guest on login", nil, GuestOnly, Allow},
		{"patient on login", patient, GuestOnly, RedirectToDashboard},
		{"admin on register", admin, GuestOnly, RedirectToDashboard},
		{"guest on dashboard", nil, Authenticated, RedirectToLogin},
		{"guest on patient view", nil, PatientOnly, RedirectToLogin},
		{"guest on doctor view", nil, DoctorOnly, RedirectToLogin},
		{"guest on admin view", nil, AdminOnly, RedirectToLogin},
		{"patient on dashboard", patient, Authenticated, Allow},
		{"unknown role on dashboard", unknown, Authenticated, Allow},
		{"patient on patient view", patient, PatientOnly, Allow},
		{"patient on doctor view", patient, DoctorOnly, RedirectToLogin},
		{"patient on admin view", patient, AdminOnly, RedirectToLogin},
		{"doctor on doctor view", doctor, DoctorOnly, Allow},
		{"doctor on patient view", doctor, PatientOnly, RedirectToLogin},
		{"admin on admin view", admin, AdminOnly, Allow},
		{"admin on doctor view", admin, DoctorOnly, RedirectToLogin},
		{"unknown role on patient view", unknown, PatientOnly, RedirectToLogin},
		{"undefined access", admin, Access(42), RedirectToLogin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.identity, tt.access))
		})
	}
}

func TestDecideEveryProtectedLevelRejectsGuests(t *testing.T) {
	for _, a := range []Access{Authenticated, PatientOnly, DoctorOnly, AdminOnly} {
		assert.Equal(t, RedirectToLogin, Decide(nil, a), a.String())
	}
}

func TestDecisionLocation(t *testing.T) {
	assert.Equal(t, "/login", RedirectToLogin.Location())
	assert.Equal(t, "/dashboard", RedirectToDashboard.Location())
	assert.Empty(t, Allow.Location())
}

func TestLanding(t *testing.T) {
	assert.Equal(t, "/login", Landing(nil))
	assert.Equal(t, "/dashboard", Landing(doctor))
}

func TestDashboardPanel(t *testing.T) {
	for role, want := range map[models.Role]Panel{
		models.RolePatient: PatientPanel,
		models.RoleDoctor:  DoctorPanel,
		models.RoleAdmin:   AdminPanel,
	} {
		p, d := DashboardPanel(role)
		assert.Equal(t, want, p)
		assert.Equal(t, Allow, d)
	}

	p, d := DashboardPanel(models.RoleUnknown)
	assert.Equal(t, NoPanel, p)
	assert.Equal(t, RedirectToLogin, d)
}

func TestNavLinks(t *testing.T) {
	assert.Len(t, NavLinks(models.RolePatient), 4)
	assert.Equal(t, "/manage-appointments", NavLinks(models.RoleDoctor)[1].Path)
	assert.Nil(t, NavLinks(models.RoleUnknown))

	for _, role := range []models.Role{models.RolePatient, models.RoleDoctor, models.RoleAdmin} {
		links := NavLinks(role)
		assert.Equal(t, DashboardPath, links[0].Path)
		for _, l := range links {
			access, ok := Route(l.Path)
			if assert.True(t, ok, l.Path) {
				assert.Equal(t, Allow, Decide(&models.Identity{Role: role}, access), "%s -> %s", role, l.Path)
			}
		}
	}
}

func TestRoute(t *testing.T) {
	tests := []struct {
		path string
		want Access
	}{
		{"/login", GuestOnly},
		{"/register", GuestOnly},
		{"/dashboard", Authenticated},
		{"/book-appointment/3", PatientOnly},
		{"/my-prescriptions/", PatientOnly},
		{"/manage-appointments/5/status", DoctorOnly},
		{"/issue-prescription/12", DoctorOnly},
		{"/manage-users/4", AdminOnly},
		{"/reports", AdminOnly},
	}
	for _, tt := range tests {
		got, ok := Route(tt.path)
		assert.True(t, ok, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}

	for _, p := range []string{"/", "/health", "/metrics", "/unknown"} {
		_, ok := Route(p)
		assert.False(t, ok, p)
	}
}
