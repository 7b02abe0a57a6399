package adapters

import (
	"context"

	"github.com/otcheredev/medpres-client/internal/models"
)

// AuthService covers login and registration.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResult, error)
}

// DoctorService covers doctor profiles.
type DoctorService interface {
	ListDoctors(ctx context.Context) ([]models.DoctorProfile, error)
	CreateDoctorProfile(ctx context.Context, draft models.DoctorProfileDraft) (*models.DoctorProfile, error)
}

// AppointmentService covers bookings. ListMyAppointments is scoped by the
// backend to the caller's credential.
type AppointmentService interface {
	CreateAppointment(ctx context.Context, draft models.AppointmentDraft) (*models.Appointment, error)
	ListMyAppointments(ctx context.Context) ([]models.Appointment, error)
	ListAppointments(ctx context.Context) ([]models.Appointment, error)
	SetAppointmentStatus(ctx context.Context, id int64, status models.AppointmentStatus) (*models.Appointment, error)
}

// PrescriptionService covers prescriptions.
type PrescriptionService interface {
	CreatePrescription(ctx context.Context, draft models.PrescriptionDraft) (*models.Prescription, error)
	ListMyPrescriptions(ctx context.Context) ([]models.Prescription, error)
	ListPrescriptions(ctx context.Context) ([]models.Prescription, error)
}

// UserService covers admin user management.
type UserService interface {
	ListUsers(ctx context.Context) ([]models.Identity, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.Identity, error)
	DeleteUser(ctx context.Context, id int64) error
}

// Backend is the contract every backend implementation satisfies, so the
// view layer never knows which one is active.
type Backend interface {
	AuthService
	DoctorService
	AppointmentService
	PrescriptionService
	UserService

	// Ping checks that the backend answers at all.
	Ping(ctx context.Context) error
	// Mode names the implementation ("api" or "mock").
	Mode() string
	Close() error
}

type tokenKey struct{}

// WithToken returns a context carrying the bearer credential for calls made
// with it.
func WithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the credential attached by WithToken.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}
