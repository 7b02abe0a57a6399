package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/otcheredev/medpres-client/internal/metrics"
	"github.com/otcheredev/medpres-client/internal/models"
)

// Instrument wraps b so every call is counted and timed.
func Instrument(b Backend, m *metrics.BackendMetrics) Backend {
	if m == nil {
		return b
	}
	return &instrumented{next: b, metrics: m}
}

type instrumented struct {
	next    Backend
	metrics *metrics.BackendMetrics
}

func (i *instrumented) observe(op string, start time.Time, err error) {
	i.metrics.ObserveCall(i.next.Mode(), op, outcome(err), time.Since(start).Seconds())
}

// outcome is the metric label for err.
func outcome(err error) string {
	var rf *RequestFailedError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrEmailAlreadyRegistered):
		return "email_taken"
	case errors.Is(err, ErrUnreachable):
		return "unreachable"
	case errors.As(err, &rf):
		return "request_failed"
	default:
		return "error"
	}
}

func (i *instrumented) Mode() string { return i.next.Mode() }
func (i *instrumented) Close() error { return i.next.Close() }

func (i *instrumented) Ping(ctx context.Context) (err error) {
	defer func(start time.Time) { i.observe("ping", start, err) }(time.Now())
	return i.next.Ping(ctx)
}

func (i *instrumented) Login(ctx context.Context, email, password string) (res *models.LoginResult, err error) {
	defer func(start time.Time) { i.observe("login", start, err) }(time.Now())
	return i.next.Login(ctx, email, password)
}

func (i *instrumented) Register(ctx context.Context, req models.RegisterRequest) (res *models.RegisterResult, err error) {
	defer func(start time.Time) { i.observe("register", start, err) }(time.Now())
	return i.next.Register(ctx, req)
}

func (i *instrumented) ListDoctors(ctx context.Context) (res []models.DoctorProfile, err error) {
	defer func(start time.Time) { i.observe("list_doctors", start, err) }(time.Now())
	return i.next.ListDoctors(ctx)
}

func (i *instrumented) CreateDoctorProfile(ctx context.Context, draft models.DoctorProfileDraft) (res *models.DoctorProfile, err error) {
	defer func(start time.Time) { i.observe("create_doctor_profile", start, err) }(time.Now())
	return i.next.CreateDoctorProfile(ctx, draft)
}

func (i *instrumented) CreateAppointment(ctx context.Context, draft models.AppointmentDraft) (res *models.Appointment, err error) {
	defer func(start time.Time) { i.observe("create_appointment", start, err) }(time.Now())
	return i.next.CreateAppointment(ctx, draft)
}

func (i *instrumented) ListMyAppointments(ctx context.Context) (res []models.Appointment, err error) {
	defer func(start time.Time) { i.observe("list_my_appointments", start, err) }(time.Now())
	return i.next.ListMyAppointments(ctx)
}

func (i *instrumented) ListAppointments(ctx context.Context) (res []models.Appointment, err error) {
	defer func(start time.Time) { i.observe("list_appointments", start, err) }(time.Now())
	return i.next.ListAppointments(ctx)
}

func (i *instrumented) SetAppointmentStatus(ctx context.Context, id int64, status models.AppointmentStatus) (res *models.Appointment, err error) {
	defer func(start time.Time) { i.observe("set_appointment_status", start, err) }(time.Now())
	return i.next.SetAppointmentStatus(ctx, id, status)
}

func (i *instrumented) CreatePrescription(ctx context.Context, draft models.PrescriptionDraft) (res *models.Prescription, err error) {
	defer func(start time.Time) { i.observe("create_prescription", start, err) }(time.Now())
	return i.next.CreatePrescription(ctx, draft)
}

func (i *instrumented) ListMyPrescriptions(ctx context.Context) (res []models.Prescription, err error) {
	defer func(start time.Time) { i.observe("list_my_prescriptions", start, err) }(time.Now())
	return i.next.ListMyPrescriptions(ctx)
}

func (i *instrumented) ListPrescriptions(ctx context.Context) (res []models.Prescription, err error) {
	defer func(start time.Time) { i.observe("list_prescriptions", start, err) }(time.Now())
	return i.next.ListPrescriptions(ctx)
}

func (i *instrumented) ListUsers(ctx context.Context) (res []models.Identity, err error) {
	defer func(start time.Time) { i.observe("list_users", start, err) }(time.Now())
	return i.next.ListUsers(ctx)
}

func (i *instrumented) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (res *models.Identity, err error) {
	defer func(start time.Time) { i.observe("update_user", start, err) }(time.Now())
	return i.next.UpdateUser(ctx, id, patch)
}

func (i *instrumented) DeleteUser(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { i.observe("delete_user", start, err) }(time.Now())
	return i.next.DeleteUser(ctx, id)
}
