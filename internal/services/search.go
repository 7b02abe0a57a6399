package services

import (
	"strings"

	"github.com/otcheredev/medpres-client/internal/models"
)

// DoctorFilter narrows the doctor directory. Empty fields match everything.
type DoctorFilter struct {
	// Term matches name, specialization or clinic name, ignoring case.
	Term string `json:"term,omitempty"`
	// Specialization and Location must match exactly.
	Specialization string `json:"specialization,omitempty"`
	Location       string `json:"location,omitempty"`
}

// FilterDoctors returns the doctors matching f, in input order. The term is
// matched as typed, surrounding spaces included.
func FilterDoctors(doctors []models.DoctorProfile, f DoctorFilter) []models.DoctorProfile {
	term := strings.ToLower(f.Term)
	out := make([]models.DoctorProfile, 0, len(doctors))
	for _, d := range doctors {
		if term != "" && !matchesTerm(d, term) {
			continue
		}
		if f.Specialization != "" && d.Specialization != f.Specialization {
			continue
		}
		if f.Location != "" && d.Location != f.Location {
			continue
		}
		out = append(out, d)
	}
	return out
}

func matchesTerm(d models.DoctorProfile, term string) bool {
	return strings.Contains(strings.ToLower(d.User.Name), term) ||
		strings.Contains(strings.ToLower(d.Specialization), term) ||
		strings.Contains(strings.ToLower(d.ClinicName), term)
}

// FilterOptions lists the distinct non-empty specializations and locations
// in first-seen order, for the filter controls.
func FilterOptions(doctors []models.DoctorProfile) (specializations, locations []string) {
	seenSpec := map[string]bool{}
	seenLoc := map[string]bool{}
	for _, d := range doctors {
		if d.Specialization != "" && !seenSpec[d.Specialization] {
			seenSpec[d.Specialization] = true
			specializations = append(specializations, d.Specialization)
		}
		if d.Location != "" && !seenLoc[d.Location] {
			seenLoc[d.Location] = true
			locations = append(locations, d.Location)
		}
	}
	return specializations, locations
}
