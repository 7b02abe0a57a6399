package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/otcheredev/medpres-client/internal/adapters"
	"github.com/otcheredev/medpres-client/internal/models"
	"github.com/otcheredev/medpres-client/internal/services"
	"github.com/rs/zerolog/log"
)

const defaultAuditLimit = 50

func (h *ViewHandler) SearchDoctors(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	result, err := h.clinic.SearchDoctors(s.Context(r.Context()), services.DoctorFilter{
		Term:           q.Get("term"),
		Specialization: q.Get("specialization"),
		Location:       q.Get("location"),
	})
	if err != nil {
		h.fail(w, r, s, err)
		return
	}
	respond(w, http.StatusOK, result)
}

func (h *ViewHandler) BookingForm(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	doctorID, err := pathID(r, "doctorId")
	if err != nil {
		h.fail(w, r, s, err)
		return
	}

	doctor, err := h.clinic.Doctor(s.Context(r.Context()), doctorID)
	if err != nil {
		h.fail(w, r, s, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"doctor": doctor,
		"slots":  doctor.AvailableSlots,
	})
}

func (h *ViewHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	doctorID, err := pathID(r, "doctorId")
	if err != nil {
		h.fail(w, r, s, err)
		return
	}

	var form services.BookingForm
	if !decode(w, r, &form) {
		return
	}

	appt, err := h.clinic.BookAppointment(s.Context(r.Context()), doctorID, form)
	if err != nil {
		h.fail(w, r, s, err)
		return
	}
	respond(w, http.StatusCreated, appt)
}

func (h *ViewHandler) MyAppointments(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	list, err := h.backend.ListMyAppointments(s.Context(r.Context()))
	if err != nil {
		h.fail(w, r, s, err)
		return
	}
	respond(w, http.StatusOK, orEmpty(list))
}

func (h *ViewHandler) MyPrescriptions(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	list, err := h.backend.ListMyPrescriptions(s.Context(r.Context()))
	if err != nil {
		h.fail(w, r, s, err)
		return
	}
	respond(w, http.StatusOK, orEmpty(list))
}

type appointmentsView struct {
	Appointments []models.Appointment `json:"appointments"`
	Pending      int                  `json:"pending"`
}

func newAppointmentsView(list []models.Appointment) appointmentsView {
	list = orEmpty(list)
	return appointmentsView{
		Appointments: list,
		Pending:      len(services.FilterByStatus(list, models.StatusPending)),
	}
}

// ManageAppointments lists the doctor's appointments, optionally filtered
// with ?status=.
func (h *ViewHandler) ManageAppointments(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var filter models.AppointmentStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := models.ParseAppointmentStatus(raw)
		if err != nil {
			h.fail(w, r, s, adapters.Invalid("status", err.Error()))
			return
		}
		filter = st
	}

	list, err := h.backend.ListMyAppointments(s.Context(r.Context()))
	if err != nil {
		h.fail(w, r, s, err)
		return
	}
	view := newAppointmentsView(list)
	if filter != "" {
		view.Appointments = services.FilterByStatus(view.Appointments, filter)
	}
	respond(w, http.StatusOK, view)
}

// UpdateAppointmentStatus answers with the refreshed list; the change is
// only visible once the backend accepted it.
func (h *ViewHandler) UpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, s, err)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if !decode(w, r, &req) {
		return
	}
	status, err := models.ParseAppointmentStatus(req.Status)
	if err != nil {
		h.fail(w, r, s, adapters.Invalid("status", err.Error()))
		return
	}

	ctx := s.Context(r.Context())
	current, err := h.backend.ListMyAppointments(ctx)
	if err != nil {
		h.fail(w, r, s, err)
		return
	}
	updated, err := h.clinic.UpdateStatus(ctx, current, id, status)
	if err != nil {
		h.fail(w, r, s, err)
		return
	}

	entry := &models.AuditLog{
		Action:    models.AuditStatusChanged,
		SessionID: s.ID(),
		Path:      r.URL.Path,
		Outcome:   "success",
		Message:   fmt.Sprintf("appointment %d set to %s", id, status),
	}
	if identity := s.CurrentIdentity(); identity != nil {
		entry.Email = identity.Email
		entry.Role = identity.Role.String()
	}
	if h.audit != nil {
		h.audit.Record(r.Context(), entry)
	}

	respond(w, http.StatusOK, newAppointmentsView(updated))
}

func (h *ViewHandler) PrescriptionForm(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "appointmentId")
	if err != nil {
		h.fail(w, r, s, err)
		return
	}

	pc, err := h.clinic.Prescribing(s.Context(r.Context()), id)
	if err != nil {
		h.fail(w, r, s, err)
		return
	}
	respond(w, http.StatusOK, pc)
}

func (h *ViewHandler) IssuePrescription(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "appointmentId")
	if err != nil {
		h.fail(w, r, s, err)
		return
	}

	var form services.PrescriptionForm
	if !decode(w, r, &form) {
		return
	}

	p, err := h.clinic.IssuePrescription(s.Context(r.Context()), id, form)
	if err != nil {
		h.fail(w, r, s, err)
		return
	}
	respond(w, http.StatusCreated, p)
}

func (h *ViewHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	doctors, err := h.backend.ListDoctors(s.Context(r.Context()))
	if err != nil {
		h.fail(w, r, s, err)
		return
	}
	respond(w, http.StatusOK, orEmpty(doctors))
}

func (h *ViewHandler) CreateDoctor(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var form services.DoctorForm
	if !decode(w, r, &form) {
		return
	}

	res, err := h.clinic.CreateDoctor(s.Context(r.Context()), form)
	if err != nil {
		h.fail(w, r, s, err)
		return
	}
	respond(w, http.StatusCreated, res)
}

func (h *ViewHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	users, err := h.backend.ListUsers(s.Context(r.Context()))
	if err != nil {
		h.fail(w, r, s, err)
		return
	}
	respond(w, http.StatusOK, orEmpty(users))
}

func (h *ViewHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, s, err)
		return
	}

	var patch models.UserPatch
	if !decode(w, r, &patch) {
		return
	}
	if patch.Role != nil && !patch.Role.Valid() {
		h.fail(w, r, s, adapters.Invalid("role", "must be PATIENT, DOCTOR or ADMIN"))
		return
	}

	user, err := h.backend.UpdateUser(s.Context(r.Context()), id, patch)
	if err != nil {
		h.fail(w, r, s, err)
		return
	}
	respond(w, http.StatusOK, user)
}

func (h *ViewHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, s, err)
		return
	}

	if err := h.backend.DeleteUser(s.Context(r.Context()), id); err != nil {
		h.fail(w, r, s, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ViewHandler) Reports(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	report, err := h.clinic.Reports(s.Context(r.Context()))
	if err != nil {
		h.fail(w, r, s, err)
		return
	}
	respond(w, http.StatusOK, report)
}

// AuditTrail lists recent audit entries, newest first. ?email= narrows it
// to one account.
func (h *ViewHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	if h.trail == nil {
		respondError(w, http.StatusNotFound, "Audit trail is not enabled")
		return
	}

	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	var (
		logs []models.AuditLog
		err  error
	)
	if email := r.URL.Query().Get("email"); email != "" {
		logs, err = h.trail.ListByEmail(r.Context(), email, limit)
	} else {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		logs, err = h.trail.ListRecent(r.Context(), limit, offset)
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to load audit trail")
		respondError(w, http.StatusInternalServerError, "Failed to load audit trail")
		return
	}
	respond(w, http.StatusOK, orEmpty(logs))
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
