package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Appointment is a booking of a doctor's slot. Cancellation is a status
// write, never a delete, so the history stays queryable.
type Appointment struct {
	Base
	PatientID          uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID           uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	Service            string            `db:"service" json:"service"`
	Date               time.Time         `db:"appointment_date" json:"date"`
	StartTime          string            `db:"start_time" json:"start_time"`
	EndTime            string            `db:"end_time" json:"end_time"`
	Status             AppointmentStatus `db:"status" json:"status"`
	Notes              string            `db:"notes" json:"notes,omitempty"`
	ReminderSent       bool              `db:"reminder_sent" json:"reminder_sent"`
	ConfirmationSent   bool              `db:"confirmation_sent" json:"confirmation_sent"`
	IsRecurring        bool              `db:"is_recurring" json:"is_recurring"`
	RecurrenceInterval int               `db:"recurrence_interval" json:"recurrence_interval,omitempty"`

	// Joined patient info, populated on list queries.
	PatientInfo *PatientInfo `db:"-" json:"patient_info,omitempty"`
}

// Active reports whether the appointment still occupies its slot.
func (a *Appointment) Active() bool {
	return a.Status != AppointmentStatusCancelled
}

type CreateAppointmentRequest struct {
	PatientID          uuid.UUID `json:"patient_id" binding:"required"`
	DoctorID           uuid.UUID `json:"doctor_id" binding:"required"`
	Service            string    `json:"service" binding:"required"`
	Date               string    `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime          string    `json:"start_time" binding:"required,datetime=15:04"`
	EndTime            string    `json:"end_time" binding:"required,datetime=15:04"`
	Notes              string    `json:"notes" binding:"max=1000"`
	IsRecurring        bool      `json:"is_recurring"`
	RecurrenceInterval int       `json:"recurrence_interval" binding:"omitempty,min=1"`
}

// UpdateAppointmentRequest is the explicit allow-list of mutable fields.
// Unknown fields are rejected at bind time, not silently dropped.
type UpdateAppointmentRequest struct {
	DoctorID           *uuid.UUID `json:"doctor_id"`
	Service            *string    `json:"service"`
	Date               *string    `json:"date" binding:"omitempty,datetime=2006-01-02"`
	StartTime          *string    `json:"start_time" binding:"omitempty,datetime=15:04"`
	EndTime            *string    `json:"end_time" binding:"omitempty,datetime=15:04"`
	Notes              *string    `json:"notes" binding:"omitempty,max=1000"`
	IsRecurring        *bool      `json:"is_recurring"`
	RecurrenceInterval *int       `json:"recurrence_interval" binding:"omitempty,min=1"`
}

// ChangesSlot reports whether the patch touches the (doctor, date, span)
// triple and therefore needs re-validation.
func (r *UpdateAppointmentRequest) ChangesSlot() bool {
	return r.DoctorID != nil || r.Date != nil || r.StartTime != nil || r.EndTime != nil
}

type AppointmentFilters struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Status    AppointmentStatus
	Date      time.Time
	StartDate time.Time
	EndDate   time.Time
	Search    string
}

// AppointmentSummary is the per-status count report.
type AppointmentSummary struct {
	Total     int `json:"total_appointments" db:"total"`
	Pending   int `json:"pending" db:"pending"`
	Scheduled int `json:"scheduled" db:"scheduled"`
	Confirmed int `json:"confirmed" db:"confirmed"`
	Completed int `json:"completed" db:"completed"`
	Cancelled int `json:"cancelled" db:"cancelled"`
}
