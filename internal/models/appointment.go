package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusPending  AppointmentStatus = "PENDING"
	StatusApproved AppointmentStatus = "APPROVED"
	StatusRejected AppointmentStatus = "REJECTED"
	StatusCanceled AppointmentStatus = "CANCELED"
)

// ParseAppointmentStatus accepts any casing of a known status.
func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	st := AppointmentStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown appointment status %q", s)
	}
	return st, nil
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCanceled:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCanceled
}

// CanTransition reports whether s may move to next. Only PENDING moves.
func (s AppointmentStatus) CanTransition(next AppointmentStatus) bool {
	if s != StatusPending {
		return false
	}
	switch next {
	case StatusApproved, StatusRejected, StatusCanceled:
		return true
	}
	return false
}

// Appointment is a patient's booking with a doctor.
type Appointment struct {
	ID              int64             `json:"id"`
	Patient         Ref               `json:"patient"`
	Doctor          DoctorProfile     `json:"doctor"`
	AppointmentDate string            `json:"appointmentDate"`
	AppointmentTime string            `json:"appointmentTime"`
	Reason          string            `json:"reason"`
	Status          AppointmentStatus `json:"status"`
}

// AppointmentDraft is the payload a patient submits when booking.
// Patient is resolved server-side from the credential.
type AppointmentDraft struct {
	Doctor          Ref               `json:"doctor"`
	AppointmentDate string            `json:"appointmentDate"`
	AppointmentTime string            `json:"appointmentTime"`
	Reason          string            `json:"reason"`
	Status          AppointmentStatus `json:"status,omitempty"`
}

// Validate checks the fields a booking needs before it is submitted.
func (d AppointmentDraft) Validate() error {
	switch {
	case d.Doctor.ID <= 0:
		return fmt.Errorf("doctor is required")
	case d.AppointmentDate == "":
		return fmt.Errorf("appointment date is required")
	case d.AppointmentTime == "":
		return fmt.Errorf("appointment time is required")
	}
	return nil
}

// StatusUpdate is the body of PUT /appointments/{id}/status.
type StatusUpdate struct {
	Status AppointmentStatus `json:"status"`
}

func (u *StatusUpdate) UnmarshalJSON(data []byte) error {
	var raw struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	st, err := ParseAppointmentStatus(raw.Status)
	if err != nil {
		return err
	}
	u.Status = st
	return nil
}
