package adapters

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/otcheredev/medpres-client/internal/models"
	"github.com/rs/zerolog/log"
)

// Default artificial latencies of the mock backend.
const (
	DefaultMockAuthDelay = 500 * time.Millisecond
	DefaultMockDelay     = 300 * time.Millisecond
)

const mockIssuer = "medpres-mock"

// MockBackend implements Backend in memory with fixed seed data. Nothing
// outlives the process.
type MockBackend struct {
	authDelay time.Duration
	delay     time.Duration
	secret    []byte

	mu            sync.Mutex
	users         []models.Identity
	passwords     map[string]string // lower-cased email -> password
	doctors       []models.DoctorProfile
	appointments  []models.Appointment
	prescriptions []models.Prescription

	nextUserID         int64
	nextDoctorID       int64
	nextAppointmentID  int64
	nextPrescriptionID int64
}

// MockOption configures a MockBackend.
type MockOption func(*MockBackend)

// WithDelays overrides the artificial latencies. Zero disables a delay.
func WithDelays(auth, other time.Duration) MockOption {
	return func(m *MockBackend) {
		m.authDelay = auth
		m.delay = other
	}
}

// WithTokenSecret sets the HMAC key used to sign mock credentials.
func WithTokenSecret(secret string) MockOption {
	return func(m *MockBackend) {
		if secret != "" {
			m.secret = []byte(secret)
		}
	}
}

// NewMockBackend creates a mock backend loaded with the seed data.
func NewMockBackend(opts ...MockOption) *MockBackend {
	m := &MockBackend{
		authDelay: DefaultMockAuthDelay,
		delay:     DefaultMockDelay,
		secret:    []byte("medpres-mock-secret"),
		passwords: make(map[string]string, len(seedPasswords)),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.users = slices.Clone(seedIdentities)
	for email, pw := range seedPasswords {
		m.passwords[normalizeEmail(email)] = pw
	}
	for _, d := range seedDoctors {
		d.AvailableSlots = slices.Clone(d.AvailableSlots)
		m.doctors = append(m.doctors, d)
	}
	m.appointments = slices.Clone(seedAppointments)
	m.prescriptions = slices.Clone(seedPrescriptions)

	m.nextUserID = maxID(m.users, func(u models.Identity) int64 { return u.ID }) + 1
	m.nextDoctorID = maxID(m.doctors, func(d models.DoctorProfile) int64 { return d.ID }) + 1
	m.nextAppointmentID = maxID(m.appointments, func(a models.Appointment) int64 { return a.ID }) + 1
	m.nextPrescriptionID = maxID(m.prescriptions, func(p models.Prescription) int64 { return p.ID }) + 1
	return m
}

func (m *MockBackend) Mode() string { return ModeMock }

// Login checks the fixed credential list plus accounts registered since
// startup.
func (m *MockBackend) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	if err := m.wait(ctx, m.authDelay); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.passwords[normalizeEmail(email)]
	if !ok || stored != password {
		return nil, ErrInvalidCredentials
	}
	user, ok := m.userByEmail(email)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	token, err := m.issueToken(user)
	if err != nil {
		return nil, fmt.Errorf("mock: issue token: %w", err)
	}
	return &models.LoginResult{Token: token, Role: user.Role}, nil
}

func (m *MockBackend) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResult, error) {
	if err := m.wait(ctx, m.authDelay); err != nil {
		return nil, err
	}
	if req.Role != models.RolePatient && req.Role != models.RoleDoctor {
		return nil, failed(http.StatusBadRequest, "Registration failed: role must be PATIENT or DOCTOR")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, failed(http.StatusBadRequest, "Registration failed: email and password are required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.passwords[normalizeEmail(req.Email)]; taken {
		return nil, ErrEmailAlreadyRegistered
	}
	if _, taken := m.userByEmail(req.Email); taken {
		return nil, ErrEmailAlreadyRegistered
	}

	user := models.Identity{ID: m.nextUserID, Name: req.Name, Email: strings.TrimSpace(req.Email), Role: req.Role}
	m.nextUserID++
	m.users = append(m.users, user)
	m.passwords[normalizeEmail(user.Email)] = req.Password

	if user.Role == models.RoleDoctor {
		m.doctors = append(m.doctors, models.DoctorProfile{
			ID:             m.nextDoctorID,
			User:           models.Identity{ID: user.ID},
			Specialization: req.Specialization,
			ClinicName:     req.ClinicName,
			Location:       req.Location,
			AvailableSlots: slices.Clone(models.DefaultSlots),
		})
		m.nextDoctorID++
	}

	log.Debug().Int64("user_id", user.ID).Str("role", user.Role.String()).Msg("mock: registered user")
	return &models.RegisterResult{Message: "User registered successfully", UserID: user.ID}, nil
}

func (m *MockBackend) ListDoctors(ctx context.Context) ([]models.DoctorProfile, error) {
	if err := m.wait(ctx, m.delay); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.caller(ctx); err != nil {
		return nil, err
	}
	out := make([]models.DoctorProfile, 0, len(m.doctors))
	for _, d := range m.doctors {
		out = append(out, m.doctorView(d))
	}
	return out, nil
}

func (m *MockBackend) CreateDoctorProfile(ctx context.Context, draft models.DoctorProfileDraft) (*models.DoctorProfile, error) {
	if err := m.wait(ctx, m.delay); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.require(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}
	if strings.TrimSpace(draft.Specialization) == "" {
		return nil, failed(http.StatusBadRequest, "specialization is required")
	}
	if _, ok := m.userIndex(draft.User.ID); !ok {
		return nil, failed(http.StatusBadRequest, "user not found")
	}

	slots := slices.Clone(draft.AvailableSlots)
	if len(slots) == 0 {
		slots = slices.Clone(models.DefaultSlots)
	}
	d := models.DoctorProfile{
		ID:             m.nextDoctorID,
		User:           models.Identity{ID: draft.User.ID},
		Specialization: draft.Specialization,
		ClinicName:     draft.ClinicName,
		Location:       draft.Location,
		AvailableSlots: slots,
	}
	m.nextDoctorID++
	m.doctors = append(m.doctors, d)

	view := m.doctorView(d)
	return &view, nil
}

// CreateAppointment books for the caller. The status always starts PENDING
// whatever the draft says.
func (m *MockBackend) CreateAppointment(ctx context.Context, draft models.AppointmentDraft) (*models.Appointment, error) {
	if err := m.wait(ctx, m.delay); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	patient, err := m.require(ctx, models.RolePatient, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if err := draft.Validate(); err != nil {
		return nil, failed(http.StatusBadRequest, err.Error())
	}
	if _, ok := m.doctorIndex(draft.Doctor.ID); !ok {
		return nil, failed(http.StatusBadRequest, "doctor not found")
	}

	a := models.Appointment{
		ID:              m.nextAppointmentID,
		Patient:         models.Ref{ID: patient.ID, Name: patient.Name},
		Doctor:          models.DoctorProfile{ID: draft.Doctor.ID},
		AppointmentDate: draft.AppointmentDate,
		AppointmentTime: draft.AppointmentTime,
		Reason:          draft.Reason,
		Status:          models.StatusPending,
	}
	m.nextAppointmentID++
	m.appointments = append(m.appointments, a)

	view := m.appointmentView(a)
	return &view, nil
}

func (m *MockBackend) ListMyAppointments(ctx context.Context) ([]models.Appointment, error) {
	if err := m.wait(ctx, m.delay); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	me, err := m.require(ctx, models.RoleDoctor, models.RolePatient)
	if err != nil {
		return nil, err
	}
	out := []models.Appointment{}
	for _, a := range m.appointments {
		if m.ownsAppointment(me, a) {
			out = append(out, m.appointmentView(a))
		}
	}
	return out, nil
}

func (m *MockBackend) ListAppointments(ctx context.Context) ([]models.Appointment, error) {
	if err := m.wait(ctx, m.delay); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.require(ctx, models.RoleAdmin, models.RoleDoctor); err != nil {
		return nil, err
	}
	out := make([]models.Appointment, 0, len(m.appointments))
	for _, a := range m.appointments {
		out = append(out, m.appointmentView(a))
	}
	return out, nil
}

// SetAppointmentStatus lets the owning doctor approve or reject, the owning
// patient cancel, and an admin do either. Only PENDING appointments move.
func (m *MockBackend) SetAppointmentStatus(ctx context.Context, id int64, status models.AppointmentStatus) (*models.Appointment, error) {
	if err := m.wait(ctx, m.delay); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	me, err := m.caller(ctx)
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, failed(http.StatusBadRequest, fmt.Sprintf("unknown status %q", status))
	}
	idx, ok := m.appointmentIndex(id)
	if !ok {
		return nil, failed(http.StatusNotFound, fmt.Sprintf("appointment %d not found", id))
	}
	a := m.appointments[idx]

	switch me.Role {
	case models.RoleAdmin:
	case models.RoleDoctor:
		if !m.ownsAppointment(me, a) || (status != models.StatusApproved && status != models.StatusRejected) {
			return nil, failed(http.StatusForbidden, "Access denied")
		}
	case models.RolePatient:
		if !m.ownsAppointment(me, a) || status != models.StatusCanceled {
			return nil, failed(http.StatusForbidden, "Access denied")
		}
	default:
		return nil, failed(http.StatusForbidden, "Access denied")
	}

	if !a.Status.CanTransition(status) {
		return nil, failed(http.StatusBadRequest,
			fmt.Sprintf("cannot change appointment status from %s to %s", a.Status, status))
	}
	m.appointments[idx].Status = status

	view := m.appointmentView(m.appointments[idx])
	return &view, nil
}

// CreatePrescription issues a prescription. A doctor always issues under
// their own profile; an admin names the doctor profile.
func (m *MockBackend) CreatePrescription(ctx context.Context, draft models.PrescriptionDraft) (*models.Prescription, error) {
	if err := m.wait(ctx, m.delay); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	me, err := m.require(ctx, models.RoleDoctor, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if err := draft.Validate(); err != nil {
		return nil, failed(http.StatusBadRequest, err.Error())
	}

	doctorID := draft.Doctor.ID
	if me.Role == models.RoleDoctor {
		d, ok := m.doctorByOwner(me.ID)
		if !ok {
			return nil, failed(http.StatusBadRequest, "no doctor profile for the current user")
		}
		doctorID = d.ID
	}
	if _, ok := m.doctorIndex(doctorID); !ok {
		return nil, failed(http.StatusBadRequest, "doctor not found")
	}
	patient, ok := m.knownPatient(draft.Patient.ID)
	if !ok {
		return nil, failed(http.StatusBadRequest, "patient not found")
	}

	p := models.Prescription{
		ID:             m.nextPrescriptionID,
		Patient:        patient,
		Doctor:         models.DoctorProfile{ID: doctorID},
		MedicationName: draft.MedicationName,
		Dosage:         draft.Dosage,
		Frequency:      draft.Frequency,
		Notes:          draft.Notes,
	}
	m.nextPrescriptionID++
	m.prescriptions = append(m.prescriptions, p)

	view := m.prescriptionView(p)
	return &view, nil
}

func (m *MockBackend) ListMyPrescriptions(ctx context.Context) ([]models.Prescription, error) {
	if err := m.wait(ctx, m.delay); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	me, err := m.require(ctx, models.RolePatient)
	if err != nil {
		return nil, err
	}
	out := []models.Prescription{}
	for _, p := range m.prescriptions {
		if p.Patient.ID == me.ID {
			out = append(out, m.prescriptionView(p))
		}
	}
	return out, nil
}

func (m *MockBackend) ListPrescriptions(ctx context.Context) ([]models.Prescription, error) {
	if err := m.wait(ctx, m.delay); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.require(ctx, models.RoleAdmin, models.RoleDoctor); err != nil {
		return nil, err
	}
	out := make([]models.Prescription, 0, len(m.prescriptions))
	for _, p := range m.prescriptions {
		out = append(out, m.prescriptionView(p))
	}
	return out, nil
}

func (m *MockBackend) ListUsers(ctx context.Context) ([]models.Identity, error) {
	if err := m.wait(ctx, m.delay); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.require(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}
	return slices.Clone(m.users), nil
}

func (m *MockBackend) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.Identity, error) {
	if err := m.wait(ctx, m.delay); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.require(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}
	idx, ok := m.userIndex(id)
	if !ok {
		return nil, failed(http.StatusNotFound, fmt.Sprintf("user %d not found", id))
	}
	user := m.users[idx]

	if patch.Role != nil {
		if !patch.Role.Valid() {
			return nil, failed(http.StatusBadRequest, "invalid role")
		}
		user.Role = *patch.Role
	}
	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Email != nil && normalizeEmail(*patch.Email) != normalizeEmail(user.Email) {
		newEmail := strings.TrimSpace(*patch.Email)
		if newEmail == "" {
			return nil, failed(http.StatusBadRequest, "email is required")
		}
		if other, taken := m.userByEmail(newEmail); taken && other.ID != user.ID {
			return nil, failed(http.StatusBadRequest, "Email already registered")
		}
		if pw, ok := m.passwords[normalizeEmail(user.Email)]; ok {
			delete(m.passwords, normalizeEmail(user.Email))
			m.passwords[normalizeEmail(newEmail)] = pw
		}
		user.Email = newEmail
	}

	m.users[idx] = user
	return &user, nil
}

// DeleteUser removes the identity and its credential. Doctor profiles,
// appointments and prescriptions keep their weak references.
func (m *MockBackend) DeleteUser(ctx context.Context, id int64) error {
	if err := m.wait(ctx, m.delay); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	me, err := m.require(ctx, models.RoleAdmin)
	if err != nil {
		return err
	}
	if me.ID == id {
		return failed(http.StatusBadRequest, "cannot delete your own account")
	}
	idx, ok := m.userIndex(id)
	if !ok {
		return failed(http.StatusNotFound, fmt.Sprintf("user %d not found", id))
	}
	delete(m.passwords, normalizeEmail(m.users[idx].Email))
	m.users = slices.Delete(m.users, idx, idx+1)
	return nil
}

// Ping always succeeds; the mock is in-process.
func (m *MockBackend) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MockBackend) Close() error {
	return nil
}

// wait emulates network latency.
func (m *MockBackend) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MockBackend) issueToken(user models.Identity) (string, error) {
	claims := models.TokenClaims{
		UserID: user.ID,
		Name:   user.Name,
		Role:   user.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  user.Email,
			Issuer:   mockIssuer,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// caller resolves the identity behind the context credential. Must be
// called with mu held.
func (m *MockBackend) caller(ctx context.Context) (models.Identity, error) {
	raw := TokenFromContext(ctx)
	if raw == "" {
		return models.Identity{}, failed(http.StatusUnauthorized, "Authentication required")
	}
	var claims models.TokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(mockIssuer))
	if err != nil {
		return models.Identity{}, failed(http.StatusUnauthorized, "Invalid token")
	}
	idx, ok := m.userIndex(claims.UserID)
	if !ok {
		return models.Identity{}, failed(http.StatusUnauthorized, "Unknown user")
	}
	return m.users[idx], nil
}

// require resolves the caller and checks the role. Must be called with mu
// held.
func (m *MockBackend) require(ctx context.Context, roles ...models.Role) (models.Identity, error) {
	me, err := m.caller(ctx)
	if err != nil {
		return models.Identity{}, err
	}
	if !slices.Contains(roles, me.Role) {
		return models.Identity{}, failed(http.StatusForbidden, "Access denied")
	}
	return me, nil
}

func (m *MockBackend) ownsAppointment(me models.Identity, a models.Appointment) bool {
	switch me.Role {
	case models.RolePatient:
		return a.Patient.ID == me.ID
	case models.RoleDoctor:
		d, ok := m.doctorByOwner(me.ID)
		return ok && d.ID == a.Doctor.ID
	default:
		return false
	}
}

// knownPatient resolves a patient id against identities first, then
// against patients referenced by existing appointments.
func (m *MockBackend) knownPatient(id int64) (models.Ref, bool) {
	if idx, ok := m.userIndex(id); ok && m.users[idx].Role == models.RolePatient {
		return models.Ref{ID: id, Name: m.users[idx].Name}, true
	}
	for _, a := range m.appointments {
		if a.Patient.ID == id {
			return a.Patient, true
		}
	}
	return models.Ref{}, false
}

func (m *MockBackend) doctorView(d models.DoctorProfile) models.DoctorProfile {
	if idx, ok := m.userIndex(d.User.ID); ok {
		d.User = m.users[idx]
	}
	d.AvailableSlots = slices.Clone(d.AvailableSlots)
	return d
}

func (m *MockBackend) appointmentView(a models.Appointment) models.Appointment {
	if idx, ok := m.doctorIndex(a.Doctor.ID); ok {
		a.Doctor = m.doctorView(m.doctors[idx])
	}
	return a
}

func (m *MockBackend) prescriptionView(p models.Prescription) models.Prescription {
	if idx, ok := m.doctorIndex(p.Doctor.ID); ok {
		p.Doctor = m.doctorView(m.doctors[idx])
	}
	return p
}

func (m *MockBackend) userIndex(id int64) (int, bool) {
	idx := slices.IndexFunc(m.users, func(u models.Identity) bool { return u.ID == id })
	return idx, idx >= 0
}

func (m *MockBackend) userByEmail(email string) (models.Identity, bool) {
	want := normalizeEmail(email)
	for _, u := range m.users {
		if normalizeEmail(u.Email) == want {
			return u, true
		}
	}
	return models.Identity{}, false
}

func (m *MockBackend) doctorIndex(id int64) (int, bool) {
	idx := slices.IndexFunc(m.doctors, func(d models.DoctorProfile) bool { return d.ID == id })
	return idx, idx >= 0
}

func (m *MockBackend) doctorByOwner(userID int64) (models.DoctorProfile, bool) {
	for _, d := range m.doctors {
		if d.User.ID == userID {
			return d, true
		}
	}
	return models.DoctorProfile{}, false
}

func (m *MockBackend) appointmentIndex(id int64) (int, bool) {
	idx := slices.IndexFunc(m.appointments, func(a models.Appointment) bool { return a.ID == id })
	return idx, idx >= 0
}

func failed(status int, msg string) error {
	return &RequestFailedError{StatusCode: status, Message: msg}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func maxID[T any](items []T, id func(T) int64) int64 {
	var highest int64
	for _, it := range items {
		if v := id(it); v > highest {
			highest = v
		}
	}
	return highest
}
