package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/otcheredev/medpres-client/internal/adapters"
	"github.com/otcheredev/medpres-client/internal/authz"
	"github.com/otcheredev/medpres-client/internal/models"
	"github.com/otcheredev/medpres-client/internal/session"
	"github.com/rs/zerolog/log"
)

// ClinicService holds the view logic of the client. Every call uses the
// credential carried by ctx.
type ClinicService struct {
	backend adapters.Backend
}

// NewClinicService creates a new clinic service
func NewClinicService(backend adapters.Backend) *ClinicService {
	return &ClinicService{backend: backend}
}

// DoctorSearch is the doctor directory view.
type DoctorSearch struct {
	Filter          DoctorFilter           `json:"filter"`
	Doctors         []models.DoctorProfile `json:"doctors"`
	Total           int                    `json:"total"`
	Specializations []string               `json:"specializations"`
	Locations       []string               `json:"locations"`
}

// SearchDoctors lists doctors and filters them locally. The filter
// options come from the unfiltered list.
func (s *ClinicService) SearchDoctors(ctx context.Context, f DoctorFilter) (*DoctorSearch, error) {
	doctors, err := s.backend.ListDoctors(ctx)
	if err != nil {
		return nil, err
	}
	filtered := FilterDoctors(doctors, f)
	specs, locs := FilterOptions(doctors)
	return &DoctorSearch{
		Filter:          f,
		Doctors:         filtered,
		Total:           len(filtered),
		Specializations: specs,
		Locations:       locs,
	}, nil
}

// Doctor finds one doctor profile by id.
func (s *ClinicService) Doctor(ctx context.Context, id int64) (*models.DoctorProfile, error) {
	doctors, err := s.backend.ListDoctors(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range doctors {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, &adapters.RequestFailedError{StatusCode: http.StatusNotFound, Message: "Doctor not found"}
}

// BookAppointment books doctorID for the caller. The request always asks
// for PENDING.
func (s *ClinicService) BookAppointment(ctx context.Context, doctorID int64, form BookingForm) (*models.Appointment, error) {
	doctor, err := s.Doctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if err := form.Validate(*doctor); err != nil {
		return nil, err
	}
	return s.backend.CreateAppointment(ctx, models.AppointmentDraft{
		Doctor:          models.Ref{ID: doctor.ID},
		AppointmentDate: strings.TrimSpace(form.AppointmentDate),
		AppointmentTime: strings.TrimSpace(form.AppointmentTime),
		Reason:          strings.TrimSpace(form.Reason),
		Status:          models.StatusPending,
	})
}

// UpdateStatus asks the backend to move appointment id to status and only
// then reflects the change in view. On failure view comes back unchanged.
func (s *ClinicService) UpdateStatus(ctx context.Context, view []models.Appointment, id int64, status models.AppointmentStatus) ([]models.Appointment, error) {
	if !status.Valid() {
		return view, adapters.Invalid("status", fmt.Sprintf("unknown status %q", status))
	}
	updated, err := s.backend.SetAppointmentStatus(ctx, id, status)
	if err != nil {
		return view, err
	}
	if updated == nil || updated.ID == 0 {
		updated = &models.Appointment{ID: id, Status: status}
	}
	if updated.Status == "" {
		updated.Status = status
	}
	return ApplyStatus(view, *updated), nil
}

// PrescriptionContext is what the issue-prescription form needs.
type PrescriptionContext struct {
	Appointment models.Appointment `json:"appointment"`
	Patients    []models.Ref       `json:"patients"`
}

// Prescribing loads the appointment a prescription is issued for together
// with the patients the doctor has seen.
func (s *ClinicService) Prescribing(ctx context.Context, appointmentID int64) (*PrescriptionContext, error) {
	mine, err := s.backend.ListMyAppointments(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range mine {
		if a.ID == appointmentID {
			return &PrescriptionContext{Appointment: a, Patients: PatientsOf(mine)}, nil
		}
	}
	return nil, &adapters.RequestFailedError{StatusCode: http.StatusNotFound, Message: "Appointment not found"}
}

// IssuePrescription prescribes for the appointment's patient unless the
// form names another one the doctor has seen.
func (s *ClinicService) IssuePrescription(ctx context.Context, appointmentID int64, form PrescriptionForm) (*models.Prescription, error) {
	pc, err := s.Prescribing(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	patient := pc.Appointment.Patient
	if form.PatientID != 0 && form.PatientID != patient.ID {
		found := false
		for _, p := range pc.Patients {
			if p.ID == form.PatientID {
				patient, found = p, true
				break
			}
		}
		if !found {
			return nil, adapters.Invalid("patientId", "Please select a patient")
		}
	}

	draft := models.PrescriptionDraft{
		Patient:        models.Ref{ID: patient.ID},
		Doctor:         models.Ref{ID: pc.Appointment.Doctor.ID},
		MedicationName: strings.TrimSpace(form.MedicationName),
		Dosage:         strings.TrimSpace(form.Dosage),
		Frequency:      strings.TrimSpace(form.Frequency),
		Notes:          strings.TrimSpace(form.Notes),
	}
	if err := draft.Validate(); err != nil {
		return nil, adapters.Invalid("", err.Error())
	}
	return s.backend.CreatePrescription(ctx, draft)
}

// DoctorForm is the admin form for adding a doctor.
type DoctorForm struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Specialization string `json:"specialization"`
	ClinicName     string `json:"clinicName"`
	Location       string `json:"location"`
}

// CreateDoctor registers a DOCTOR identity, which provisions its profile.
func (s *ClinicService) CreateDoctor(ctx context.Context, form DoctorForm) (*models.RegisterResult, error) {
	r := session.Registration{
		Name:            form.Name,
		Email:           form.Email,
		Password:        form.Password,
		ConfirmPassword: form.Password,
		Role:            models.RoleDoctor,
		Specialization:  form.Specialization,
		ClinicName:      form.ClinicName,
		Location:        form.Location,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return s.backend.Register(ctx, r.Request())
}

// Reports aggregates statistics over every collection.
func (s *ClinicService) Reports(ctx context.Context) (*Report, error) {
	users, err := s.backend.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	doctors, err := s.backend.ListDoctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	appointments, err := s.backend.ListAppointments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	prescriptions, err := s.backend.ListPrescriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	r := BuildReport(users, doctors, appointments, prescriptions)
	return &r, nil
}

// Dashboard is the landing view of a signed-in user.
type Dashboard struct {
	Panel         string                `json:"panel"`
	User          models.Identity       `json:"user"`
	Links         []authz.NavLink       `json:"links"`
	Appointments  []models.Appointment  `json:"appointments,omitempty"`
	Prescriptions []models.Prescription `json:"prescriptions,omitempty"`
	Pending       int                   `json:"pending,omitempty"`
	Stale         bool                  `json:"stale,omitempty"`
}

// Dashboard fills panel for identity. A list that cannot be refreshed is
// logged and shown empty with Stale set; only a refused credential fails.
func (s *ClinicService) Dashboard(ctx context.Context, panel authz.Panel, identity models.Identity) (*Dashboard, error) {
	d := &Dashboard{
		Panel: panel.String(),
		User:  identity,
		Links: authz.NavLinks(identity.Role),
	}

	switch panel {
	case authz.PatientPanel:
		appointments, err := s.backend.ListMyAppointments(ctx)
		if err = d.refresh("appointments", err); err != nil {
			return nil, err
		}
		prescriptions, err := s.backend.ListMyPrescriptions(ctx)
		if err = d.refresh("prescriptions", err); err != nil {
			return nil, err
		}
		d.Appointments = orEmpty(appointments)
		d.Prescriptions = orEmpty(prescriptions)
	case authz.DoctorPanel:
		appointments, err := s.backend.ListMyAppointments(ctx)
		if err = d.refresh("appointments", err); err != nil {
			return nil, err
		}
		d.Appointments = orEmpty(appointments)
		d.Pending = len(FilterByStatus(d.Appointments, models.StatusPending))
	case authz.AdminPanel:
	case authz.NoPanel:
	}
	return d, nil
}

// refresh swallows a list failure unless the credential was refused.
func (d *Dashboard) refresh(list string, err error) error {
	if err == nil {
		return nil
	}
	if adapters.IsUnauthorized(err) {
		return err
	}
	log.Warn().Err(err).Str("list", list).Str("panel", d.Panel).Msg("dashboard list refresh failed")
	d.Stale = true
	return nil
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
