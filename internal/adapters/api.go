package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/otcheredev/medpres-client/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var apiTracer = otel.Tracer("medpres.internal.adapters.api")

// maxErrorBody bounds how much of a failure response is kept as message.
const maxErrorBody = 64 << 10

// APIBackend implements Backend against the remote HTTP API.
type APIBackend struct {
	client  *http.Client
	baseURL string
}

// APIOption configures an APIBackend.
type APIOption func(*APIBackend)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) APIOption {
	return func(a *APIBackend) {
		a.client = client
	}
}

// WithTimeout sets an overall per-request timeout. Zero keeps the
// transport default.
func WithTimeout(d time.Duration) APIOption {
	return func(a *APIBackend) {
		a.client.Timeout = d
	}
}

// BaseURL builds the API base URL for host and port.
func BaseURL(host string, port int) string {
	if host == "" {
		host = "localhost"
	}
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("http://%s:%d/api", host, port)
}

// NewAPIBackend creates a client for the API rooted at baseURL
// (e.g. "http://localhost:8080/api").
func NewAPIBackend(baseURL string, opts ...APIOption) *APIBackend {
	a := &APIBackend{
		client:  &http.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *APIBackend) Mode() string { return ModeAPI }

// Login authenticates and returns the issued credential.
func (a *APIBackend) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	var out models.LoginResult
	err := a.do(ctx, http.MethodPost, "/auth/login", models.LoginRequest{Email: email, Password: password}, &out)
	if err != nil {
		switch StatusCode(err) {
		case http.StatusBadRequest, http.StatusUnauthorized:
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if out.Token == "" {
		return nil, &RequestFailedError{StatusCode: http.StatusOK, Message: "login response carried no token"}
	}
	return &out, nil
}

// Register creates a new identity. The backend provisions the doctor
// profile itself when the role is DOCTOR.
func (a *APIBackend) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResult, error) {
	var out models.RegisterResult
	if err := a.do(ctx, http.MethodPost, "/auth/register", req, &out); err != nil {
		var rf *RequestFailedError
		if errors.As(err, &rf) && rf.StatusCode == http.StatusBadRequest &&
			strings.Contains(strings.ToLower(rf.Message), "already registered") {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, err
	}
	return &out, nil
}

func (a *APIBackend) ListDoctors(ctx context.Context) ([]models.DoctorProfile, error) {
	var out []models.DoctorProfile
	if err := a.do(ctx, http.MethodGet, "/doctors", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *APIBackend) CreateDoctorProfile(ctx context.Context, draft models.DoctorProfileDraft) (*models.DoctorProfile, error) {
	var out models.DoctorProfile
	if err := a.do(ctx, http.MethodPost, "/doctors", draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *APIBackend) CreateAppointment(ctx context.Context, draft models.AppointmentDraft) (*models.Appointment, error) {
	var out models.Appointment
	if err := a.do(ctx, http.MethodPost, "/appointments", draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *APIBackend) ListMyAppointments(ctx context.Context) ([]models.Appointment, error) {
	var out []models.Appointment
	if err := a.do(ctx, http.MethodGet, "/appointments/my-appointments", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *APIBackend) ListAppointments(ctx context.Context) ([]models.Appointment, error) {
	var out []models.Appointment
	if err := a.do(ctx, http.MethodGet, "/appointments", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *APIBackend) SetAppointmentStatus(ctx context.Context, id int64, status models.AppointmentStatus) (*models.Appointment, error) {
	var out models.Appointment
	path := "/appointments/" + strconv.FormatInt(id, 10) + "/status"
	if err := a.do(ctx, http.MethodPut, path, models.StatusUpdate{Status: status}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *APIBackend) CreatePrescription(ctx context.Context, draft models.PrescriptionDraft) (*models.Prescription, error) {
	var out models.Prescription
	if err := a.do(ctx, http.MethodPost, "/prescriptions", draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *APIBackend) ListMyPrescriptions(ctx context.Context) ([]models.Prescription, error) {
	var out []models.Prescription
	if err := a.do(ctx, http.MethodGet, "/prescriptions/my-prescriptions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *APIBackend) ListPrescriptions(ctx context.Context) ([]models.Prescription, error) {
	var out []models.Prescription
	if err := a.do(ctx, http.MethodGet, "/prescriptions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *APIBackend) ListUsers(ctx context.Context) ([]models.Identity, error) {
	var out []models.Identity
	if err := a.do(ctx, http.MethodGet, "/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *APIBackend) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.Identity, error) {
	var out models.Identity
	if err := a.do(ctx, http.MethodPut, "/users/"+strconv.FormatInt(id, 10), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *APIBackend) DeleteUser(ctx context.Context, id int64) error {
	return a.do(ctx, http.MethodDelete, "/users/"+strconv.FormatInt(id, 10), nil, nil)
}

// Ping probes the login endpoint with throwaway credentials. Any HTTP
// answer, including a rejection, means the backend is up.
func (a *APIBackend) Ping(ctx context.Context) error {
	err := a.do(ctx, http.MethodPost, "/auth/login", models.LoginRequest{Email: "test", Password: "test"}, nil)
	var rf *RequestFailedError
	if err == nil || errors.As(err, &rf) {
		return nil
	}
	return err
}

// Close closes the adapter
func (a *APIBackend) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

// do issues one request and decodes a success body into out.
func (a *APIBackend) do(ctx context.Context, method, path string, in, out any) error {
	ctx, span := apiTracer.Start(ctx, "backend.api."+strings.ToLower(method))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", path),
	)

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("api: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	addAuth(req, TokenFromContext(ctx))

	resp, err := a.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("api: %s %s: %w", method, path, ctxErr)
		}
		return fmt.Errorf("%w: %s %s: %v", ErrUnreachable, method, path, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		rf := &RequestFailedError{StatusCode: resp.StatusCode, Message: serverMessage(raw)}
		span.SetStatus(codes.Error, rf.Error())
		return rf
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("api: read response: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}

// serverMessage extracts the human-readable part of an error body. The
// backend answers either with plain text or with {"message"|"error": ...}.
func serverMessage(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var obj struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(trimmed, &obj) == nil {
			if obj.Message != "" {
				return obj.Message
			}
			if obj.Error != "" {
				return obj.Error
			}
		}
	}
	return string(trimmed)
}

// addAuth adds authentication to the request
func addAuth(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
