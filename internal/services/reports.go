package services

import "github.com/otcheredev/medpres-client/internal/models"

// Report is the admin statistics view.
type Report struct {
	TotalUsers           int `json:"totalUsers"`
	TotalDoctors         int `json:"totalDoctors"`
	TotalPatients        int `json:"totalPatients"`
	TotalAppointments    int `json:"totalAppointments"`
	PendingAppointments  int `json:"pendingAppointments"`
	ApprovedAppointments int `json:"approvedAppointments"`
	TotalPrescriptions   int `json:"totalPrescriptions"`
}

// BuildReport aggregates the four collections.
func BuildReport(users []models.Identity, doctors []models.DoctorProfile, appointments []models.Appointment, prescriptions []models.Prescription) Report {
	r := Report{
		TotalUsers:         len(users),
		TotalDoctors:       len(doctors),
		TotalAppointments:  len(appointments),
		TotalPrescriptions: len(prescriptions),
	}
	for _, u := range users {
		if u.Role == models.RolePatient {
			r.TotalPatients++
		}
	}
	for _, a := range appointments {
		switch a.Status {
		case models.StatusPending:
			r.PendingAppointments++
		case models.StatusApproved:
			r.ApprovedAppointments++
		}
	}
	return r
}
