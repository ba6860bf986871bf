package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

type MedicalRecord struct {
	Base
	PatientID     uuid.UUID       `db:"patient_id" json:"patient_id"`
	AppointmentID uuid.UUID       `db:"appointment_id" json:"appointment_id"`
	DoctorID      uuid.UUID       `db:"doctor_id" json:"doctor_id"`
	RecordType    string          `db:"record_type" json:"record_type"`
	Summary       string          `db:"summary" json:"summary"`
	Details       json.RawMessage `db:"details" json:"details,omitempty"`
	Confidential  bool            `db:"confidential" json:"confidential"`
	Version       int             `db:"version" json:"version"`
	Status        string          `db:"status" json:"status"`
}

// RecordDetail is one measured parameter inside a record's details.
type RecordDetail struct {
	Parameter string `json:"parameter"`
	Value     string `json:"value"`
	Unit      string `json:"unit,omitempty"`
	Notes     string `json:"notes,omitempty"`
	AddedBy   string `json:"added_by,omitempty"`
}

type CreateMedicalRecordRequest struct {
	PatientID     uuid.UUID      `json:"patient_id" binding:"required"`
	AppointmentID uuid.UUID      `json:"appointment_id" binding:"required"`
	DoctorID      uuid.UUID      `json:"doctor_id" binding:"required"`
	RecordType    string         `json:"record_type" binding:"required"`
	Summary       string         `json:"summary" binding:"required"`
	Details       []RecordDetail `json:"details"`
	Confidential  bool           `json:"confidential"`
}

type UpdateMedicalRecordRequest struct {
	Summary      *string        `json:"summary"`
	Details      []RecordDetail `json:"details"`
	Confidential *bool          `json:"confidential"`
	Status       *string        `json:"status"`
}

type RecordFilters struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
}
