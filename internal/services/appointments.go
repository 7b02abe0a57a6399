package services

import (
	"slices"
	"strings"
	"time"

	"github.com/otcheredev/medpres-client/internal/adapters"
	"github.com/otcheredev/medpres-client/internal/models"
)

// BookingForm is what a patient submits to book a doctor.
type BookingForm struct {
	AppointmentDate string `json:"appointmentDate"`
	AppointmentTime string `json:"appointmentTime"`
	Reason          string `json:"reason"`
}

// Validate checks the form against the doctor's slots. A doctor without
// slots accepts any time.
func (f BookingForm) Validate(doctor models.DoctorProfile) error {
	if _, err := time.Parse(time.DateOnly, strings.TrimSpace(f.AppointmentDate)); err != nil {
		return adapters.Invalid("appointmentDate", "must be a date (YYYY-MM-DD)")
	}
	slot, ok := parseSlot(f.AppointmentTime)
	if !ok {
		return adapters.Invalid("appointmentTime", "must be a time (HH:MM)")
	}
	if len(doctor.AvailableSlots) > 0 && !slices.ContainsFunc(doctor.AvailableSlots, func(s string) bool {
		other, ok := parseSlot(s)
		return ok && other == slot
	}) {
		return adapters.Invalid("appointmentTime", "is not one of the doctor's available slots")
	}
	return nil
}

// parseSlot normalizes "HH:MM" and "HH:MM:SS" to "HH:MM".
func parseSlot(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", time.TimeOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), true
		}
	}
	return "", false
}

// ApplyStatus returns a copy of list with updated swapped in by id. Only
// call it with what the backend confirmed.
func ApplyStatus(list []models.Appointment, updated models.Appointment) []models.Appointment {
	out := slices.Clone(list)
	for i := range out {
		if out[i].ID == updated.ID {
			out[i].Status = updated.Status
		}
	}
	return out
}

// FilterByStatus keeps appointments in status st. An empty status keeps
// all of them.
func FilterByStatus(list []models.Appointment, st models.AppointmentStatus) []models.Appointment {
	if st == "" {
		return list
	}
	out := make([]models.Appointment, 0, len(list))
	for _, a := range list {
		if a.Status == st {
			out = append(out, a)
		}
	}
	return out
}

// PatientsOf lists the distinct patients referenced by appointments, in
// first-seen order.
func PatientsOf(list []models.Appointment) []models.Ref {
	var out []models.Ref
	seen := map[int64]bool{}
	for _, a := range list {
		if a.Patient.ID == 0 || seen[a.Patient.ID] {
			continue
		}
		seen[a.Patient.ID] = true
		out = append(out, a.Patient)
	}
	return out
}

// PrescriptionForm is what a doctor submits when issuing a prescription.
// PatientID defaults to the appointment's patient.
type PrescriptionForm struct {
	PatientID      int64  `json:"patientId,omitempty"`
	MedicationName string `json:"medicationName"`
	Dosage         string `json:"dosage"`
	Frequency      string `json:"frequency"`
	Notes          string `json:"notes,omitempty"`
}
