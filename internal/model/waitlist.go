package model

import (
	"time"

	"github.com/google/uuid"
)

type WaitlistStatus string

const (
	WaitlistStatusWaiting   WaitlistStatus = "waiting"
	WaitlistStatusConverted WaitlistStatus = "converted"
)

type WaitlistPriority string

const (
	WaitlistPriorityLow    WaitlistPriority = "low"
	WaitlistPriorityMedium WaitlistPriority = "medium"
	WaitlistPriorityHigh   WaitlistPriority = "high"
)

// WaitlistEntry records a patient waiting for a (doctor, date) slot to open.
// Promotion is FIFO on created_at; priority is stored but does not affect
// selection.
type WaitlistEntry struct {
	Base
	PatientID         uuid.UUID        `db:"patient_id" json:"patient_id"`
	PreferredDoctorID uuid.UUID        `db:"preferred_doctor_id" json:"preferred_doctor_id"`
	PreferredDate     time.Time        `db:"preferred_date" json:"preferred_date"`
	ContactEmail      string           `db:"contact_email" json:"contact_email"`
	Priority          WaitlistPriority `db:"priority" json:"priority"`
	Notes             string           `db:"notes" json:"notes,omitempty"`
	Status            WaitlistStatus   `db:"status" json:"status"`
}

type CreateWaitlistRequest struct {
	PatientID         uuid.UUID `json:"patient_id" binding:"required"`
	PreferredDoctorID uuid.UUID `json:"preferred_doctor_id" binding:"required"`
	PreferredDate     string    `json:"preferred_date" binding:"required,datetime=2006-01-02"`
	ContactEmail      string    `json:"contact_email" binding:"required,email"`
	Priority          string    `json:"priority" binding:"omitempty,oneof=low medium high"`
	Notes             string    `json:"notes"`
}

type UpdateWaitlistRequest struct {
	PreferredDoctorID *uuid.UUID `json:"preferred_doctor_id"`
	PreferredDate     *string    `json:"preferred_date" binding:"omitempty,datetime=2006-01-02"`
	ContactEmail      *string    `json:"contact_email" binding:"omitempty,email"`
	Priority          *string    `json:"priority" binding:"omitempty,oneof=low medium high"`
	Notes             *string    `json:"notes"`
}

type WaitlistFilters struct {
	PatientID         uuid.UUID
	PreferredDoctorID uuid.UUID
	Status            WaitlistStatus
}
