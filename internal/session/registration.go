package session

import (
	"net/mail"
	"strings"

	"github.com/otcheredev/medpres-client/internal/adapters"
	"github.com/otcheredev/medpres-client/internal/models"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// Registration is what the sign-up form submits.
type Registration struct {
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	Password        string      `json:"password"`
	ConfirmPassword string      `json:"confirmPassword"`
	Role            models.Role `json:"role"`
	Specialization  string      `json:"specialization,omitempty"`
	ClinicName      string      `json:"clinicName,omitempty"`
	Location        string      `json:"location,omitempty"`
}

// Validate runs the checks that happen before anything is submitted. The
// confirmation is compared first, then the length.
func (r Registration) Validate() error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return adapters.Invalid("name", "is required")
	case strings.TrimSpace(r.Email) == "":
		return adapters.Invalid("email", "is required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(r.Email)); err != nil {
		return adapters.Invalid("email", "is not a valid address")
	}
	if r.Password != r.ConfirmPassword {
		return adapters.Invalid("", "Passwords do not match")
	}
	if len(r.Password) < MinPasswordLength {
		return adapters.Invalid("", "Password must be at least 6 characters long")
	}

	switch r.Role {
	case models.RolePatient:
	case models.RoleDoctor:
		switch {
		case strings.TrimSpace(r.Specialization) == "":
			return adapters.Invalid("specialization", "is required for doctors")
		case strings.TrimSpace(r.ClinicName) == "":
			return adapters.Invalid("clinicName", "is required for doctors")
		case strings.TrimSpace(r.Location) == "":
			return adapters.Invalid("location", "is required for doctors")
		}
	default:
		return adapters.Invalid("role", "must be PATIENT or DOCTOR")
	}
	return nil
}

// Request builds the backend payload. Doctor fields are only sent for
// doctors.
func (r Registration) Request() models.RegisterRequest {
	req := models.RegisterRequest{
		Name:     strings.TrimSpace(r.Name),
		Email:    strings.TrimSpace(r.Email),
		Password: r.Password,
		Role:     r.Role,
	}
	if r.Role == models.RoleDoctor {
		req.Specialization = strings.TrimSpace(r.Specialization)
		req.ClinicName = strings.TrimSpace(r.ClinicName)
		req.Location = strings.TrimSpace(r.Location)
	}
	return req
}
