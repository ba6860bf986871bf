package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/myhealth/scheduling-api/internal/model"
)

// Sentinel errors translated by the store implementations. Services map
// these onto the domain error kinds.
var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateSlot is returned when an insert or update loses the race
	// against the unique slot index.
	ErrDuplicateSlot = errors.New("slot already booked")
)

// All repository interfaces in one file
type (
	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// CheckConflict reports whether a non-cancelled appointment overlaps
		// the given span on the given date, excluding excludeID when set.
		CheckConflict(ctx context.Context, doctorID uuid.UUID, date time.Time, startTime, endTime string, excludeID *uuid.UUID) (bool, error)
		// DueForReminder returns scheduled appointments on the given date
		// whose reminder has not been sent yet.
		DueForReminder(ctx context.Context, date time.Time) ([]*model.Appointment, error)
		ListRecurring(ctx context.Context) ([]*model.Appointment, error)
		Summary(ctx context.Context) (*model.AppointmentSummary, error)
	}

	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error)
		UpdateAvailability(ctx context.Context, id uuid.UUID, status model.AvailabilityStatus) error
		// ListPatients returns the distinct patients a doctor has seen.
		ListPatients(ctx context.Context, doctorID uuid.UUID) ([]*model.Patient, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Patient, error)
		// ListDoctors returns the distinct doctors a patient has seen.
		ListDoctors(ctx context.Context, patientID uuid.UUID) ([]*model.Doctor, error)
	}

	LeaveRepository interface {
		Create(ctx context.Context, leave *model.DoctorLeave) error
		Get(ctx context.Context, id uuid.UUID) (*model.DoctorLeave, error)
		List(ctx context.Context, filters *model.LeaveFilters) ([]*model.DoctorLeave, error)
		// FindApprovedOverlap returns an approved leave for the doctor whose
		// window intersects [start,end], or ErrNotFound.
		FindApprovedOverlap(ctx context.Context, doctorID uuid.UUID, start, end time.Time) (*model.DoctorLeave, error)
		// FindApprovedCovering returns an approved leave whose window
		// contains the given date, or ErrNotFound.
		FindApprovedCovering(ctx context.Context, doctorID uuid.UUID, date time.Time) (*model.DoctorLeave, error)
		// ListExpired returns approved leaves that ended strictly before the
		// given date.
		ListExpired(ctx context.Context, before time.Time) ([]*model.DoctorLeave, error)
		// UpdateStatusWithDoctor writes the leave status and the owning
		// doctor's availability in a single transaction.
		UpdateStatusWithDoctor(ctx context.Context, leave *model.DoctorLeave, availability model.AvailabilityStatus) error
	}

	WaitlistRepository interface {
		Create(ctx context.Context, entry *model.WaitlistEntry) error
		Get(ctx context.Context, id uuid.UUID) (*model.WaitlistEntry, error)
		Update(ctx context.Context, entry *model.WaitlistEntry) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.WaitlistFilters) ([]*model.WaitlistEntry, error)
		// FirstWaiting returns the earliest-created waiting entry for the
		// (doctor, date) pair, or ErrNotFound.
		FirstWaiting(ctx context.Context, doctorID uuid.UUID, date time.Time) (*model.WaitlistEntry, error)
	}

	MedicalRecordRepository interface {
		Create(ctx context.Context, record *model.MedicalRecord) error
		Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error)
		Update(ctx context.Context, record *model.MedicalRecord) error
		List(ctx context.Context, filters *model.RecordFilters) ([]*model.MedicalRecord, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, entityType string, entityID uuid.UUID) ([]*model.AuditLog, error)
	}
)
