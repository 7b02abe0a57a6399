package models

import "fmt"

// Prescription is issued by a doctor and read-only to the patient.
type Prescription struct {
	ID             int64         `json:"id"`
	Patient        Ref           `json:"patient"`
	Doctor         DoctorProfile `json:"doctor"`
	MedicationName string        `json:"medicationName"`
	Dosage         string        `json:"dosage"`
	Frequency      string        `json:"frequency"`
	Notes          string        `json:"notes,omitempty"`
}

// PrescriptionDraft is the payload a doctor submits.
type PrescriptionDraft struct {
	Patient        Ref    `json:"patient"`
	Doctor         Ref    `json:"doctor"`
	MedicationName string `json:"medicationName"`
	Dosage         string `json:"dosage"`
	Frequency      string `json:"frequency"`
	Notes          string `json:"notes,omitempty"`
}

func (d PrescriptionDraft) Validate() error {
	switch {
	case d.Patient.ID <= 0:
		return fmt.Errorf("patient is required")
	case d.MedicationName == "":
		return fmt.Errorf("medication name is required")
	case d.Dosage == "":
		return fmt.Errorf("dosage is required")
	case d.Frequency == "":
		return fmt.Errorf("frequency is required")
	}
	return nil
}
