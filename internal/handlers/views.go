package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/otcheredev/medpres-client/internal/adapters"
	"github.com/otcheredev/medpres-client/internal/authz"
	"github.com/otcheredev/medpres-client/internal/middleware"
	"github.com/otcheredev/medpres-client/internal/models"
	"github.com/otcheredev/medpres-client/internal/services"
	"github.com/otcheredev/medpres-client/internal/session"
	"github.com/rs/zerolog/log"
)

// AuditLister reads back the audit trail.
type AuditLister interface {
	ListRecent(ctx context.Context, limit, offset int) ([]models.AuditLog, error)
	ListByEmail(ctx context.Context, email string, limit int) ([]models.AuditLog, error)
}

// ViewHandler serves every view of the client as JSON. It relies on the
// Sessions and Gate middleware having run.
type ViewHandler struct {
	clinic  *services.ClinicService
	backend adapters.Backend
	audit   session.Recorder
	trail   AuditLister
}

// NewViewHandler creates the view handler. trail may be nil when the audit
// trail is not stored.
func NewViewHandler(backend adapters.Backend, audit session.Recorder, trail AuditLister) *ViewHandler {
	return &ViewHandler{
		clinic:  services.NewClinicService(backend),
		backend: backend,
		audit:   audit,
		trail:   trail,
	}
}

// Routes mounts the views on r.
func (h *ViewHandler) Routes(r chi.Router) {
	r.Get("/", h.Root)
	r.Post("/login", h.Login)
	r.Post("/register", h.Register)
	r.Post("/logout", h.Logout)
	r.Get("/dashboard", h.Dashboard)
	r.Get("/nav", h.Nav)

	r.Get("/search-doctors", h.SearchDoctors)
	r.Get("/book-appointment/{doctorId}", h.BookingForm)
	r.Post("/book-appointment/{doctorId}", h.BookAppointment)
	r.Get("/my-appointments", h.MyAppointments)
	r.Get("/my-prescriptions", h.MyPrescriptions)

	r.Get("/manage-appointments", h.ManageAppointments)
	r.Put("/manage-appointments/{id}/status", h.UpdateAppointmentStatus)
	r.Get("/issue-prescription/{appointmentId}", h.PrescriptionForm)
	r.Post("/issue-prescription/{appointmentId}", h.IssuePrescription)

	r.Get("/manage-doctors", h.ListDoctors)
	r.Post("/manage-doctors", h.CreateDoctor)
	r.Get("/manage-users", h.ListUsers)
	r.Put("/manage-users/{id}", h.UpdateUser)
	r.Delete("/manage-users/{id}", h.DeleteUser)
	r.Get("/reports", h.Reports)
	r.Get("/reports/audit", h.AuditTrail)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User     *models.Identity `json:"user"`
	Redirect string           `json:"redirect"`
}

// Root sends the browser to its landing view.
func (h *ViewHandler) Root(w http.ResponseWriter, r *http.Request) {
	var identity *models.Identity
	if s, ok := middleware.SessionFromContext(r.Context()); ok {
		identity = s.CurrentIdentity()
	}
	middleware.Redirect(w, authz.Landing(identity))
}

func (h *ViewHandler) Login(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req credentials
	if !decode(w, r, &req) {
		return
	}

	identity, err := s.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, s, err)
		return
	}
	respond(w, http.StatusOK, loginResponse{User: identity, Redirect: authz.DashboardPath})
}

func (h *ViewHandler) Register(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req session.Registration
	if !decode(w, r, &req) {
		return
	}

	res, err := s.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, s, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{
		"message":  res.Message,
		"userId":   res.UserID,
		"redirect": authz.LoginPath,
	})
}

func (h *ViewHandler) Logout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Logout(r.Context())
	middleware.Redirect(w, authz.LoginPath)
}

func (h *ViewHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	identity := s.CurrentIdentity()
	if identity == nil {
		middleware.Redirect(w, authz.LoginPath)
		return
	}

	panel, decision := authz.DashboardPanel(identity.Role)
	if decision != authz.Allow {
		middleware.Redirect(w, decision.Location())
		return
	}

	d, err := h.clinic.Dashboard(s.Context(r.Context()), panel, *identity)
	if err != nil {
		h.fail(w, r, s, err)
		return
	}
	respond(w, http.StatusOK, d)
}

func (h *ViewHandler) Nav(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	identity := s.CurrentIdentity()
	if identity == nil {
		middleware.Redirect(w, authz.LoginPath)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"user":  identity,
		"links": authz.NavLinks(identity.Role),
	})
}

func (h *ViewHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		log.Error().Str("path", r.URL.Path).Msg("request reached a view without a session")
		respondError(w, http.StatusInternalServerError, "Session not available")
		return nil, false
	}
	return s, true
}

// fail renders err. A refused credential ends the session and sends the
// browser back to login.
func (h *ViewHandler) fail(w http.ResponseWriter, r *http.Request, s *session.Session, err error) {
	if adapters.IsUnauthorized(err) {
		s.Expire(r.Context())
		middleware.Redirect(w, authz.LoginPath)
		return
	}

	status := adapters.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("view failed")
	} else {
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("view rejected request")
	}
	respondError(w, status, adapters.Message(err))
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, adapters.Invalid(name, "must be a positive number")
	}
	return id, nil
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}
