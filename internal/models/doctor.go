package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DefaultSlots are assigned to doctors registered without explicit slots.
var DefaultSlots = Slots{"09:00", "10:30", "14:00", "15:30"}

// Slots is an ordered list of time-of-day strings.
//
// The backend persists slots as a text column holding a JSON array and
// returns that text verbatim, so both `["09:00"]` and `"[\"09:00\"]"` decode.
type Slots []string

func (s *Slots) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("slots: %w", err)
		}
		if raw == "" {
			*s = nil
			return nil
		}
		data = []byte(raw)
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("slots: %w", err)
	}
	*s = list
	return nil
}

// DoctorProfile is the clinical practice record linked to a DOCTOR identity.
// User is a lookup relation only.
type DoctorProfile struct {
	ID             int64    `json:"id"`
	User           Identity `json:"user"`
	Specialization string   `json:"specialization"`
	ClinicName     string   `json:"clinicName"`
	Location       string   `json:"location"`
	AvailableSlots Slots    `json:"availableSlots"`
}

// DoctorProfileDraft is the payload for creating a doctor profile.
type DoctorProfileDraft struct {
	User           Ref    `json:"user"`
	Specialization string `json:"specialization"`
	ClinicName     string `json:"clinicName"`
	Location       string `json:"location"`
	AvailableSlots Slots  `json:"availableSlots,omitempty"`
}
