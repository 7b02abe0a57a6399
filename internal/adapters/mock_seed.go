package adapters

import "github.com/otcheredev/medpres-client/internal/models"

// Fixed demo accounts accepted by the mock backend.
const (
	MockAdminEmail      = "admin@example.com"
	MockAdminPassword   = "admin123"
	MockDoctorEmail     = "doctor@example.com"
	MockDoctorPassword  = "doctor123"
	MockPatientEmail    = "patient@example.com"
	MockPatientPassword = "patient123"
)

var seedIdentities = []models.Identity{
	{ID: 1, Name: "John Patient", Email: MockPatientEmail, Role: models.RolePatient},
	{ID: 2, Name: "Dr. Smith", Email: MockDoctorEmail, Role: models.RoleDoctor},
	{ID: 3, Name: "Dr. Wilson", Email: "dr.wilson@hospital.com", Role: models.RoleDoctor},
	{ID: 4, Name: "Dr. Johnson", Email: "dr.johnson@clinic.com", Role: models.RoleDoctor},
	{ID: 5, Name: "Dr. Brown", Email: "dr.brown@medical.com", Role: models.RoleDoctor},
	{ID: 6, Name: "Dr. Davis", Email: "dr.davis@health.com", Role: models.RoleDoctor},
	{ID: 7, Name: "Admin User", Email: MockAdminEmail, Role: models.RoleAdmin},
}

var seedPasswords = map[string]string{
	MockAdminEmail:   MockAdminPassword,
	MockDoctorEmail:  MockDoctorPassword,
	MockPatientEmail: MockPatientPassword,
}

// seedDoctors reference identities 2-6 by id only.
var seedDoctors = []models.DoctorProfile{
	{ID: 1, User: models.Identity{ID: 2}, Specialization: "Cardiology", ClinicName: "Heart Care Center", Location: "Downtown", AvailableSlots: models.Slots{"09:00", "10:30", "14:00", "15:30"}},
	{ID: 2, User: models.Identity{ID: 3}, Specialization: "General Medicine", ClinicName: "City Hospital", Location: "Uptown", AvailableSlots: models.Slots{"08:30", "11:00", "13:30", "16:00"}},
	{ID: 3, User: models.Identity{ID: 4}, Specialization: "Pediatrics", ClinicName: "Children's Clinic", Location: "Suburbs", AvailableSlots: models.Slots{"09:30", "11:30", "14:30", "16:30"}},
	{ID: 4, User: models.Identity{ID: 5}, Specialization: "Orthopedics", ClinicName: "Bone Clinic", Location: "Downtown", AvailableSlots: models.Slots{"10:00", "12:00", "15:00", "17:00"}},
	{ID: 5, User: models.Identity{ID: 6}, Specialization: "Dermatology", ClinicName: "Skin Care Center", Location: "Midtown", AvailableSlots: models.Slots{"08:00", "10:00", "13:00", "15:00"}},
}

// Patients 102-104 are informal references with no matching identity.
var seedAppointments = []models.Appointment{
	{ID: 1, Patient: models.Ref{ID: 1, Name: "John Patient"}, Doctor: models.DoctorProfile{ID: 1}, AppointmentDate: "2024-01-20", AppointmentTime: "10:00:00", Reason: "Regular checkup", Status: models.StatusApproved},
	{ID: 2, Patient: models.Ref{ID: 102, Name: "Sarah Wilson"}, Doctor: models.DoctorProfile{ID: 2}, AppointmentDate: "2024-01-25", AppointmentTime: "14:30:00", Reason: "Follow-up", Status: models.StatusApproved},
	{ID: 3, Patient: models.Ref{ID: 103, Name: "Mike Johnson"}, Doctor: models.DoctorProfile{ID: 1}, AppointmentDate: "2024-01-22", AppointmentTime: "09:15:00", Reason: "Consultation", Status: models.StatusApproved},
	{ID: 4, Patient: models.Ref{ID: 104, Name: "Emily Davis"}, Doctor: models.DoctorProfile{ID: 3}, AppointmentDate: "2024-01-28", AppointmentTime: "11:00:00", Reason: "Check-up", Status: models.StatusPending},
	{ID: 5, Patient: models.Ref{ID: 1, Name: "John Patient"}, Doctor: models.DoctorProfile{ID: 1}, AppointmentDate: "2024-02-02", AppointmentTime: "15:30:00", Reason: "Blood pressure review", Status: models.StatusPending},
}

var seedPrescriptions = []models.Prescription{
	{ID: 1, Patient: models.Ref{ID: 1, Name: "John Patient"}, Doctor: models.DoctorProfile{ID: 1}, MedicationName: "Aspirin", Dosage: "100mg", Frequency: "Once daily", Notes: "Take after meals"},
	{ID: 2, Patient: models.Ref{ID: 1, Name: "John Patient"}, Doctor: models.DoctorProfile{ID: 2}, MedicationName: "Lisinopril", Dosage: "10mg", Frequency: "Once daily", Notes: "Monitor blood pressure"},
}
