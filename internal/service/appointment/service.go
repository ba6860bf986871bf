package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/myhealth/scheduling-api/internal/model"
	"github.com/myhealth/scheduling-api/internal/repository"
	"github.com/myhealth/scheduling-api/internal/service/audit"
	"github.com/myhealth/scheduling-api/internal/service/doctor"
	"github.com/myhealth/scheduling-api/internal/service/notification"
	apperrors "github.com/myhealth/scheduling-api/pkg/errors"
	"github.com/myhealth/scheduling-api/pkg/lock"
)

const (
	lockRetries = 3
	lockBackoff = 50 * time.Millisecond
)

// Locker is the advisory lock used to serialize bookings per doctor.
// pkg/lock.Locker satisfies it; tests substitute a fake.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

type Service struct {
	repo     repository.AppointmentRepository
	patients repository.PatientRepository
	leaves   repository.LeaveRepository
	waitlist repository.WaitlistRepository
	doctors  *doctor.Service
	notifier notification.Service
	auditor  *audit.Service
	locker   Locker
	logger   zerolog.Logger
}

func NewService(
	repo repository.AppointmentRepository,
	patients repository.PatientRepository,
	leaves repository.LeaveRepository,
	waitlist repository.WaitlistRepository,
	doctors *doctor.Service,
	notifier notification.Service,
	auditor *audit.Service,
	locker Locker,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		leaves:   leaves,
		waitlist: waitlist,
		doctors:  doctors,
		notifier: notifier,
		auditor:  auditor,
		locker:   locker,
		logger:   logger,
	}
}

// CreateAppointment books a slot. The slot race is closed twice: an
// advisory per-doctor lock serializes validate+write, and the partial
// unique index on the slot catches whatever slips through.
func (s *Service) CreateAppointment(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	date, err := time.Parse(model.DateFormat, req.Date)
	if err != nil {
		return nil, apperrors.Validation("invalid date format, expected YYYY-MM-DD")
	}
	if req.EndTime <= req.StartTime {
		return nil, apperrors.Validation("end_time must be after start_time")
	}
	if req.IsRecurring && req.RecurrenceInterval <= 0 {
		return nil, apperrors.Validation("recurrence_interval is required for recurring appointments")
	}

	if _, err := s.patients.Get(ctx, req.PatientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, apperrors.Internal(err)
	}
	doc, err := s.doctors.GetDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}

	release := s.acquireDoctorLock(ctx, req.DoctorID)
	defer release()

	if err := s.validateSlot(ctx, doc, date, req.StartTime, req.EndTime, nil); err != nil {
		return nil, err
	}

	now := time.Now()
	apt := &model.Appointment{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		PatientID:          req.PatientID,
		DoctorID:           req.DoctorID,
		Service:            req.Service,
		Date:               date,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		Status:             model.AppointmentStatusScheduled,
		Notes:              req.Notes,
		IsRecurring:        req.IsRecurring,
		RecurrenceInterval: req.RecurrenceInterval,
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlot) {
			return nil, apperrors.SlotConflict(doc.FullName, req.Date, req.StartTime, req.EndTime)
		}
		return nil, apperrors.Internal(err)
	}

	s.auditor.Log(ctx, "create", "appointment", apt.ID, apt)
	return apt, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, apperrors.Internal(err)
	}
	return apt, nil
}

// ListAppointments returns matching appointments with joined patient info.
func (s *Service) ListAppointments(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	appointments, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	// Listings repeat patients, so resolve each one once.
	seen := map[uuid.UUID]*model.PatientInfo{}
	for _, apt := range appointments {
		info, ok := seen[apt.PatientID]
		if !ok {
			patient, err := s.patients.Get(ctx, apt.PatientID)
			if err != nil {
				s.logger.Error().Err(err).Str("patient_id", apt.PatientID.String()).Msg("failed to resolve patient for listing")
				continue
			}
			patient.DeriveAge(time.Now())
			info = &model.PatientInfo{
				FirstName: patient.FirstName,
				LastName:  patient.LastName,
				Age:       patient.Age,
				Gender:    patient.Gender,
				Email:     patient.Email,
			}
			seen[apt.PatientID] = info
		}
		apt.PatientInfo = info
	}
	return appointments, nil
}

// UpdateAppointment applies an allow-list patch. Patches that move the
// slot are re-validated against conflicts and leave, excluding the
// appointment's own row.
func (s *Service) UpdateAppointment(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	apt, err := s.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if apt.Status == model.AppointmentStatusCancelled {
		return nil, apperrors.Validation("cannot modify a cancelled appointment")
	}

	if req.DoctorID != nil {
		apt.DoctorID = *req.DoctorID
	}
	if req.Service != nil {
		apt.Service = *req.Service
	}
	if req.Date != nil {
		date, err := time.Parse(model.DateFormat, *req.Date)
		if err != nil {
			return nil, apperrors.Validation("invalid date format, expected YYYY-MM-DD")
		}
		apt.Date = date
	}
	if req.StartTime != nil {
		apt.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		apt.EndTime = *req.EndTime
	}
	if req.Notes != nil {
		apt.Notes = *req.Notes
	}
	if req.IsRecurring != nil {
		apt.IsRecurring = *req.IsRecurring
	}
	if req.RecurrenceInterval != nil {
		apt.RecurrenceInterval = *req.RecurrenceInterval
	}
	if apt.EndTime <= apt.StartTime {
		return nil, apperrors.Validation("end_time must be after start_time")
	}

	doc, err := s.doctors.GetDoctor(ctx, apt.DoctorID)
	if err != nil {
		return nil, err
	}

	if req.ChangesSlot() {
		release := s.acquireDoctorLock(ctx, apt.DoctorID)
		defer release()

		if err := s.validateSlot(ctx, doc, apt.Date, apt.StartTime, apt.EndTime, &apt.ID); err != nil {
			return nil, err
		}
	}

	apt.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, apt); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlot) {
			return nil, apperrors.SlotConflict(doc.FullName, apt.Date.Format(model.DateFormat), apt.StartTime, apt.EndTime)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, apperrors.Internal(err)
	}

	s.auditor.Log(ctx, "update", "appointment", id, req)
	return apt, nil
}

// ConfirmAppointment moves the appointment to confirmed and sends the
// confirmation email once. Re-confirming is a no-op for delivery.
func (s *Service) ConfirmAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if apt.Status == model.AppointmentStatusCancelled {
		return nil, apperrors.Validation("cannot confirm a cancelled appointment")
	}
	if apt.Status == model.AppointmentStatusCompleted {
		return nil, apperrors.Validation("cannot confirm a completed appointment")
	}

	apt.Status = model.AppointmentStatusConfirmed
	if !apt.ConfirmationSent {
		if err := s.notify(ctx, apt, s.notifier.SendConfirmation); err == nil {
			apt.ConfirmationSent = true
		}
	}

	apt.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.auditor.Log(ctx, "confirm", "appointment", id, nil)
	return apt, nil
}

// CompleteAppointment marks the visit done.
func (s *Service) CompleteAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if apt.Status == model.AppointmentStatusCancelled {
		return nil, apperrors.Validation("cannot complete a cancelled appointment")
	}

	apt.Status = model.AppointmentStatusCompleted
	apt.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.auditor.Log(ctx, "complete", "appointment", id, nil)
	return apt, nil
}

// CancelAppointment frees the slot and offers it to the first waiting
// waitlist entry for the same doctor and date. The offer is advisory:
// the entry is marked converted and notified, nothing is auto-booked.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if apt.Status == model.AppointmentStatusCancelled {
		return nil, apperrors.Validation("appointment is already cancelled")
	}
	if apt.Status == model.AppointmentStatusCompleted {
		return nil, apperrors.Validation("cannot cancel a completed appointment")
	}

	apt.Status = model.AppointmentStatusCancelled
	apt.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.auditor.Log(ctx, "cancel", "appointment", id, nil)
	s.promoteWaitlist(ctx, apt)
	return apt, nil
}

// CheckAvailability reports whether the slot is free, without booking it.
// The answer is advisory and can be stale by the time a booking follows.
func (s *Service) CheckAvailability(ctx context.Context, doctorID uuid.UUID, dateStr, startTime, endTime string) (bool, error) {
	date, err := time.Parse(model.DateFormat, dateStr)
	if err != nil {
		return false, apperrors.Validation("invalid date format, expected YYYY-MM-DD")
	}
	if endTime <= startTime {
		return false, apperrors.Validation("end_time must be after start_time")
	}

	doc, err := s.doctors.GetDoctor(ctx, doctorID)
	if err != nil {
		return false, err
	}

	if err := s.validateSlot(ctx, doc, date, startTime, endTime, nil); err != nil {
		if apperrors.IsCode(err, apperrors.ErrSlotConflict) || apperrors.IsCode(err, apperrors.ErrDoctorOnLeave) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Service) Summary(ctx context.Context) (*model.AppointmentSummary, error) {
	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return summary, nil
}

// validateSlot enforces the booking invariants: the doctor is not on
// approved leave covering the date, and no non-cancelled appointment
// overlaps the span.
func (s *Service) validateSlot(ctx context.Context, doc *model.Doctor, date time.Time, startTime, endTime string, excludeID *uuid.UUID) error {
	leave, err := s.leaves.FindApprovedCovering(ctx, doc.ID, date)
	if err == nil {
		return apperrors.DoctorOnLeave(
			doc.FullName,
			leave.LeaveStart.Format(model.DateFormat),
			leave.LeaveEnd.Format(model.DateFormat),
		)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return apperrors.Internal(err)
	}

	conflict, err := s.repo.CheckConflict(ctx, doc.ID, date, startTime, endTime, excludeID)
	if err != nil {
		return apperrors.Internal(err)
	}
	if conflict {
		return apperrors.SlotConflict(doc.FullName, date.Format(model.DateFormat), startTime, endTime)
	}
	return nil
}

// acquireDoctorLock takes the per-doctor booking lock with a short retry.
// If the lock cannot be had the booking proceeds anyway and relies on the
// unique index; we never fail a request because Redis is busy or down.
func (s *Service) acquireDoctorLock(ctx context.Context, doctorID uuid.UUID) func() {
	if s.locker == nil {
		return func() {}
	}

	key := fmt.Sprintf("lock:doctor:%s", doctorID)
	for attempt := 0; attempt <= lockRetries; attempt++ {
		release, err := s.locker.Acquire(ctx, key)
		if err == nil {
			return release
		}
		if !errors.Is(err, lock.ErrNotAcquired) {
			s.logger.Error().Err(err).Str("key", key).Msg("booking lock unavailable, relying on slot index")
			return func() {}
		}
		time.Sleep(lockBackoff * time.Duration(attempt+1))
	}

	s.logger.Warn().Str("key", key).Msg("booking lock contended, relying on slot index")
	return func() {}
}

// promoteWaitlist offers a freed slot to the oldest waiting entry. All
// failures are logged and swallowed; cancellation already succeeded.
func (s *Service) promoteWaitlist(ctx context.Context, apt *model.Appointment) {
	entry, err := s.waitlist.FirstWaiting(ctx, apt.DoctorID, apt.Date)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error().Err(err).Msg("failed to query waitlist for freed slot")
		}
		return
	}

	doc, err := s.doctors.GetDoctor(ctx, apt.DoctorID)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to resolve doctor for waitlist offer")
		return
	}

	if err := s.notifier.SendSlotOpened(ctx, entry, doc); err != nil {
		s.logger.Error().Err(err).Str("waitlist_id", entry.ID.String()).Msg("waitlist offer delivery failed")
	}

	entry.Status = model.WaitlistStatusConverted
	entry.UpdatedAt = time.Now()
	if err := s.waitlist.Update(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("waitlist_id", entry.ID.String()).Msg("failed to mark waitlist entry converted")
		return
	}

	s.auditor.Log(ctx, "promote", "waitlist", entry.ID, map[string]string{
		"appointment_id": apt.ID.String(),
	})
}

// notify resolves the appointment's patient and doctor and invokes send.
// Delivery failures are logged by the notifier; the error is returned so
// callers can decide whether to flip sent flags.
func (s *Service) notify(
	ctx context.Context,
	apt *model.Appointment,
	send func(context.Context, *model.Appointment, *model.Patient, *model.Doctor) error,
) error {
	patient, err := s.patients.Get(ctx, apt.PatientID)
	if err != nil {
		s.logger.Error().Err(err).Str("patient_id", apt.PatientID.String()).Msg("failed to resolve patient for notification")
		return err
	}
	doc, err := s.doctors.GetDoctor(ctx, apt.DoctorID)
	if err != nil {
		s.logger.Error().Err(err).Str("doctor_id", apt.DoctorID.String()).Msg("failed to resolve doctor for notification")
		return err
	}
	return send(ctx, apt, patient, doc)
}
