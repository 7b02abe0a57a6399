package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/otcheredev/medpres-client/internal/adapters"
	"github.com/otcheredev/medpres-client/internal/authz"
	"github.com/otcheredev/medpres-client/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClinic(t *testing.T) (*ClinicService, *adapters.MockBackend) {
	t.Helper()
	backend := adapters.NewMockBackend(adapters.WithDelays(0, 0))
	return NewClinicService(backend), backend
}

func signIn(t *testing.T, b *adapters.MockBackend, email, password string) context.Context {
	t.Helper()
	res, err := b.Login(context.Background(), email, password)
	require.NoError(t, err)
	return adapters.WithToken(context.Background(), res.Token)
}

// failingLists fails the "my" lists and passes everything else through.
type failingLists struct {
	adapters.Backend
	err error
}

func (f failingLists) ListMyAppointments(context.Context) ([]models.Appointment, error) {
	return nil, f.err
}

func (f failingLists) ListMyPrescriptions(context.Context) ([]models.Prescription, error) {
	return nil, f.err
}

func (f failingLists) SetAppointmentStatus(context.Context, int64, models.AppointmentStatus) (*models.Appointment, error) {
	return nil, f.err
}

var directory = []models.DoctorProfile{
	{ID: 1, User: models.Identity{Name: "Dr. Smith"}, Specialization: "Cardiology", ClinicName: "Heart Care Center", Location: "Downtown"},
	{ID: 2, User: models.Identity{Name: "Dr. Wilson"}, Specialization: "General Medicine", ClinicName: "City Hospital", Location: "Uptown"},
	{ID: 3, User: models.Identity{Name: "Dr. Cardiff"}, Specialization: "cardiology", ClinicName: "Children's Clinic", Location: "Suburbs"},
	{ID: 4, User: models.Identity{Name: "Dr. Brown"}, Specialization: "Cardiology", ClinicName: "Bone Clinic", Location: "Downtown"},
}

func ids(doctors []models.DoctorProfile) []int64 {
	out := make([]int64, 0, len(doctors))
	for _, d := range doctors {
		out = append(out, d.ID)
	}
	return out
}

func TestFilterDoctorsBySpecializationIsExact(t *testing.T) {
	got := FilterDoctors(directory, DoctorFilter{Specialization: "Cardiology"})
	assert.Equal(t, []int64{1, 4}, ids(got))
	for _, d := range got {
		assert.Equal(t, "Cardiology", d.Specialization)
	}
}

func TestFilterDoctorsByTerm(t *testing.T) {
	tests := []struct {
		term string
		want []int64
	}{
		{"CARD", []int64{1, 3, 4}},
		{"wilson", []int64{2}},
		{"clinic", []int64{3, 4}},
		{"hospital", []int64{2}},
		{"  hospital ", []int64{}},
		{" cardio", []int64{}},
		{"nothing", []int64{}},
		{"", []int64{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(FilterDoctors(directory, DoctorFilter{Term: tt.term})))
		})
	}
}

func TestFilterDoctorsCombined(t *testing.T) {
	got := FilterDoctors(directory, DoctorFilter{Term: "dr.", Specialization: "Cardiology", Location: "Downtown"})
	assert.Equal(t, []int64{1, 4}, ids(got))

	got = FilterDoctors(directory, DoctorFilter{Location: "downtown"})
	assert.Empty(t, got)
}

func TestFilterOptions(t *testing.T) {
	specs, locs := FilterOptions(append(directory, models.DoctorProfile{ID: 5}))
	assert.Equal(t, []string{"Cardiology", "General Medicine", "cardiology"}, specs)
	assert.Equal(t, []string{"Downtown", "Uptown", "Suburbs"}, locs)
}

func TestBuildReport(t *testing.T) {
	r := BuildReport(
		[]models.Identity{{Role: models.RolePatient}, {Role: models.RoleDoctor}, {Role: models.RolePatient}, {Role: models.RoleAdmin}},
		directory,
		[]models.Appointment{{Status: models.StatusPending}, {Status: models.StatusApproved}, {Status: models.StatusApproved}, {Status: models.StatusCanceled}},
		[]models.Prescription{{ID: 1}},
	)
	assert.Equal(t, Report{
		TotalUsers:           4,
		TotalDoctors:         4,
		TotalPatients:        2,
		TotalAppointments:    4,
		PendingAppointments:  1,
		ApprovedAppointments: 2,
		TotalPrescriptions:   1,
	}, r)
}

func TestReportsFromMock(t *testing.T) {
	svc, backend := newClinic(t)
	admin := signIn(t, backend, adapters.MockAdminEmail, adapters.MockAdminPassword)

	r, err := svc.Reports(admin)
	require.NoError(t, err)
	assert.Equal(t, 7, r.TotalUsers)
	assert.Equal(t, 5, r.TotalDoctors)
	assert.Equal(t, 1, r.TotalPatients)
	assert.Equal(t, 5, r.TotalAppointments)
	assert.Equal(t, 2, r.PendingAppointments)
	assert.Equal(t, 3, r.ApprovedAppointments)
	assert.Equal(t, 2, r.TotalPrescriptions)

	patient := signIn(t, backend, adapters.MockPatientEmail, adapters.MockPatientPassword)
	_, err = svc.Reports(patient)
	assert.Equal(t, http.StatusForbidden, adapters.StatusCode(err))
}

func TestSearchDoctors(t *testing.T) {
	svc, backend := newClinic(t)
	ctx := signIn(t, backend, adapters.MockPatientEmail, adapters.MockPatientPassword)

	res, err := svc.SearchDoctors(ctx, DoctorFilter{Specialization: "Cardiology"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, "Dr. Smith", res.Doctors[0].User.Name)
	assert.Len(t, res.Specializations, 5)
	assert.Equal(t, []string{"Downtown", "Uptown", "Suburbs", "Midtown"}, res.Locations)
}

func TestBookingFormValidate(t *testing.T) {
	doctor := models.DoctorProfile{AvailableSlots: models.Slots{"09:00", "10:30"}}

	assert.NoError(t, BookingForm{AppointmentDate: "2024-03-01", AppointmentTime: "10:30"}.Validate(doctor))
	assert.NoError(t, BookingForm{AppointmentDate: "2024-03-01", AppointmentTime: "09:00:00"}.Validate(doctor))
	assert.ErrorIs(t, BookingForm{AppointmentDate: "03/01/2024", AppointmentTime: "09:00"}.Validate(doctor), adapters.ErrValidationFailed)
	assert.ErrorIs(t, BookingForm{AppointmentDate: "2024-03-01", AppointmentTime: "noon"}.Validate(doctor), adapters.ErrValidationFailed)
	assert.ErrorIs(t, BookingForm{AppointmentDate: "2024-03-01", AppointmentTime: "11:00"}.Validate(doctor), adapters.ErrValidationFailed)
	assert.NoError(t, BookingForm{AppointmentDate: "2024-03-01", AppointmentTime: "11:00"}.Validate(models.DoctorProfile{}))
}

func TestBookAppointment(t *testing.T) {
	svc, backend := newClinic(t)
	ctx := signIn(t, backend, adapters.MockPatientEmail, adapters.MockPatientPassword)

	before, err := backend.ListMyAppointments(ctx)
	require.NoError(t, err)

	a, err := svc.BookAppointment(ctx, 1, BookingForm{AppointmentDate: "2024-03-01", AppointmentTime: "14:00", Reason: "Chest pain"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, a.Status)

	after, err := backend.ListMyAppointments(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before)+1)

	_, err = svc.BookAppointment(ctx, 99, BookingForm{AppointmentDate: "2024-03-01", AppointmentTime: "14:00"})
	assert.Equal(t, http.StatusNotFound, adapters.StatusCode(err))
}

func TestUpdateStatusOnlyAfterSuccess(t *testing.T) {
	svc, backend := newClinic(t)
	doctor := signIn(t, backend, adapters.MockDoctorEmail, adapters.MockDoctorPassword)

	view, err := backend.ListMyAppointments(doctor)
	require.NoError(t, err)

	next, err := svc.UpdateStatus(doctor, view, 5, models.StatusApproved)
	require.NoError(t, err)
	for i, a := range next {
		if a.ID == 5 {
			assert.Equal(t, models.StatusApproved, a.Status)
		} else {
			assert.Equal(t, view[i].Status, a.Status)
		}
	}
	for _, a := range view {
		if a.ID == 5 {
			assert.Equal(t, models.StatusPending, a.Status, "the previous view is not mutated")
		}
	}

	// approving again is an illegal transition; the view stays as it was
	again, err := svc.UpdateStatus(doctor, next, 5, models.StatusRejected)
	assert.Equal(t, http.StatusBadRequest, adapters.StatusCode(err))
	assert.Equal(t, next, again)

	failing := NewClinicService(failingLists{Backend: backend, err: adapters.ErrUnreachable})
	same, err := failing.UpdateStatus(doctor, view, 5, models.StatusApproved)
	assert.ErrorIs(t, err, adapters.ErrUnreachable)
	assert.Equal(t, view, same)
}

func TestIssuePrescriptionDerivesPatient(t *testing.T) {
	svc, backend := newClinic(t)
	doctor := signIn(t, backend, adapters.MockDoctorEmail, adapters.MockDoctorPassword)

	pc, err := svc.Prescribing(doctor, 3)
	require.NoError(t, err)
	assert.Equal(t, "Mike Johnson", pc.Appointment.Patient.Name)
	assert.Len(t, pc.Patients, 2)

	p, err := svc.IssuePrescription(doctor, 3, PrescriptionForm{MedicationName: "Ibuprofen", Dosage: "200mg", Frequency: "As needed"})
	require.NoError(t, err)
	assert.Equal(t, int64(103), p.Patient.ID)
	assert.Equal(t, int64(1), p.Doctor.ID)

	p, err = svc.IssuePrescription(doctor, 3, PrescriptionForm{PatientID: 1, MedicationName: "A", Dosage: "1", Frequency: "daily"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.Patient.ID)

	_, err = svc.IssuePrescription(doctor, 3, PrescriptionForm{PatientID: 104, MedicationName: "A", Dosage: "1", Frequency: "daily"})
	assert.ErrorIs(t, err, adapters.ErrValidationFailed)

	_, err = svc.IssuePrescription(doctor, 3, PrescriptionForm{MedicationName: "A"})
	assert.ErrorIs(t, err, adapters.ErrValidationFailed)

	_, err = svc.Prescribing(doctor, 4)
	assert.Equal(t, http.StatusNotFound, adapters.StatusCode(err))
}

func TestCreateDoctor(t *testing.T) {
	svc, backend := newClinic(t)
	admin := signIn(t, backend, adapters.MockAdminEmail, adapters.MockAdminPassword)

	_, err := svc.CreateDoctor(admin, DoctorForm{Name: "Dr. Lee", Email: "lee@clinic.com", Password: "secret1", Specialization: "Neurology"})
	assert.ErrorIs(t, err, adapters.ErrValidationFailed)

	res, err := svc.CreateDoctor(admin, DoctorForm{
		Name: "Dr. Lee", Email: "lee@clinic.com", Password: "secret1",
		Specialization: "Neurology", ClinicName: "Brain Center", Location: "Uptown",
	})
	require.NoError(t, err)
	assert.NotZero(t, res.UserID)

	doctors, err := backend.ListDoctors(admin)
	require.NoError(t, err)
	assert.Len(t, doctors, 6)
}

func TestDashboardPanels(t *testing.T) {
	svc, backend := newClinic(t)

	patientCtx := signIn(t, backend, adapters.MockPatientEmail, adapters.MockPatientPassword)
	d, err := svc.Dashboard(patientCtx, authz.PatientPanel, models.Identity{ID: 1, Role: models.RolePatient})
	require.NoError(t, err)
	assert.Equal(t, "patient", d.Panel)
	assert.Len(t, d.Appointments, 2)
	assert.Len(t, d.Prescriptions, 2)
	assert.False(t, d.Stale)

	doctorCtx := signIn(t, backend, adapters.MockDoctorEmail, adapters.MockDoctorPassword)
	d, err = svc.Dashboard(doctorCtx, authz.DoctorPanel, models.Identity{ID: 2, Role: models.RoleDoctor})
	require.NoError(t, err)
	assert.Len(t, d.Appointments, 3)
	assert.Equal(t, 1, d.Pending)

	d, err = svc.Dashboard(context.Background(), authz.AdminPanel, models.Identity{ID: 7, Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "admin", d.Panel)
	assert.NotEmpty(t, d.Links)
}

func TestDashboardStaleOnRefreshFailure(t *testing.T) {
	_, backend := newClinic(t)
	svc := NewClinicService(failingLists{Backend: backend, err: adapters.ErrUnreachable})

	d, err := svc.Dashboard(context.Background(), authz.PatientPanel, models.Identity{ID: 1, Role: models.RolePatient})
	require.NoError(t, err)
	assert.True(t, d.Stale)
	assert.Empty(t, d.Appointments)
	assert.NotNil(t, d.Appointments)

	svc = NewClinicService(failingLists{Backend: backend, err: &adapters.RequestFailedError{StatusCode: http.StatusUnauthorized}})
	_, err = svc.Dashboard(context.Background(), authz.DoctorPanel, models.Identity{ID: 2, Role: models.RoleDoctor})
	assert.True(t, adapters.IsUnauthorized(err))
}

func TestApplyStatusAndFilters(t *testing.T) {
	list := []models.Appointment{
		{ID: 1, Status: models.StatusPending, Patient: models.Ref{ID: 10, Name: "A"}},
		{ID: 2, Status: models.StatusApproved, Patient: models.Ref{ID: 11, Name: "B"}},
		{ID: 3, Status: models.StatusPending, Patient: models.Ref{ID: 10, Name: "A"}},
	}

	next := ApplyStatus(list, models.Appointment{ID: 3, Status: models.StatusApproved})
	assert.Equal(t, models.StatusApproved, next[2].Status)
	assert.Equal(t, models.StatusPending, list[2].Status)

	assert.Len(t, FilterByStatus(list, models.StatusPending), 2)
	assert.Len(t, FilterByStatus(list, ""), 3)
	assert.Equal(t, []models.Ref{{ID: 10, Name: "A"}, {ID: 11, Name: "B"}}, PatientsOf(list))
}
