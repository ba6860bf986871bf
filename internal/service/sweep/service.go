package sweep

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/myhealth/scheduling-api/internal/model"
	"github.com/myhealth/scheduling-api/internal/repository"
	"github.com/myhealth/scheduling-api/internal/service/doctor"
	"github.com/myhealth/scheduling-api/internal/service/notification"
	apperrors "github.com/myhealth/scheduling-api/pkg/errors"
	"github.com/myhealth/scheduling-api/pkg/metrics"
)

// Service runs the periodic maintenance sweeps: appointment reminders,
// recurring appointment rollover, and leave expiry. Every sweep is
// idempotent; running one twice in the same window changes nothing the
// second time.
type Service struct {
	appointments repository.AppointmentRepository
	leaves       repository.LeaveRepository
	patients     repository.PatientRepository
	doctors      *doctor.Service
	notifier     notification.Service
	metrics      *metrics.Metrics
	logger       zerolog.Logger

	// now is injectable so tests can pin the clock.
	now func() time.Time
}

func NewService(
	appointments repository.AppointmentRepository,
	leaves repository.LeaveRepository,
	patients repository.PatientRepository,
	doctors *doctor.Service,
	notifier notification.Service,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		appointments: appointments,
		leaves:       leaves,
		patients:     patients,
		doctors:      doctors,
		notifier:     notifier,
		metrics:      m,
		logger:       logger,
		now:          time.Now,
	}
}

// SendReminders emails every scheduled appointment happening tomorrow
// whose reminder has not gone out. The flag is only set after a
// successful send, so a failed delivery is retried on the next run.
func (s *Service) SendReminders(ctx context.Context) (int, error) {
	done := s.observe("reminders")
	defer done()

	tomorrow := s.today().AddDate(0, 0, 1)
	due, err := s.appointments.DueForReminder(ctx, tomorrow)
	if err != nil {
		s.metrics.SweepFailures.WithLabelValues("reminders").Inc()
		return 0, apperrors.Internal(err)
	}

	sent := 0
	for _, apt := range due {
		patient, err := s.patients.Get(ctx, apt.PatientID)
		if err != nil {
			s.logger.Error().Err(err).Str("appointment_id", apt.ID.String()).Msg("reminder: failed to resolve patient")
			continue
		}
		doc, err := s.doctors.GetDoctor(ctx, apt.DoctorID)
		if err != nil {
			s.logger.Error().Err(err).Str("appointment_id", apt.ID.String()).Msg("reminder: failed to resolve doctor")
			continue
		}

		if err := s.notifier.SendReminder(ctx, apt, patient, doc); err != nil {
			s.metrics.NotificationsFailed.WithLabelValues("reminder").Inc()
			continue
		}
		s.metrics.NotificationsSent.WithLabelValues("reminder").Inc()

		apt.ReminderSent = true
		apt.UpdatedAt = s.now()
		if err := s.appointments.Update(ctx, apt); err != nil {
			s.logger.Error().Err(err).Str("appointment_id", apt.ID.String()).Msg("reminder: failed to persist flag")
			continue
		}
		sent++
	}

	s.metrics.SweepItemsAffected.WithLabelValues("reminders").Add(float64(sent))
	s.logger.Info().Int("sent", sent).Int("due", len(due)).Msg("reminder sweep finished")
	return sent, nil
}

// RollRecurring books the next occurrence for every recurring appointment
// whose date has passed, recurrence_interval days out. The copy runs
// through the same slot validation as a fresh booking; occurrences that
// land on a conflict or on leave are skipped and retried next run.
func (s *Service) RollRecurring(ctx context.Context) (int, error) {
	done := s.observe("recurrence")
	defer done()

	recurring, err := s.appointments.ListRecurring(ctx)
	if err != nil {
		s.metrics.SweepFailures.WithLabelValues("recurrence").Inc()
		return 0, apperrors.Internal(err)
	}

	today := s.today()
	created := 0
	for _, apt := range recurring {
		if !apt.Date.Before(today) || apt.RecurrenceInterval <= 0 {
			continue
		}

		nextDate := apt.Date.AddDate(0, 0, apt.RecurrenceInterval)
		if err := s.validateOccurrence(ctx, apt, nextDate); err != nil {
			s.logger.Warn().Err(err).Str("appointment_id", apt.ID.String()).
				Str("next_date", nextDate.Format(model.DateFormat)).
				Msg("recurrence: skipping occurrence")
			continue
		}

		now := s.now()
		next := &model.Appointment{
			Base: model.Base{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			PatientID: apt.PatientID,
			DoctorID:  apt.DoctorID,
			Service:   apt.Service,
			Date:      nextDate,
			StartTime: apt.StartTime,
			EndTime:   apt.EndTime,
			Status:    model.AppointmentStatusScheduled,
			Notes:     apt.Notes,
			// The copy does not recur; the original remains the series head.
			IsRecurring: false,
		}

		if err := s.appointments.Create(ctx, next); err != nil {
			if errors.Is(err, repository.ErrDuplicateSlot) {
				s.logger.Warn().Str("appointment_id", apt.ID.String()).Msg("recurrence: slot taken, skipping")
				continue
			}
			s.logger.Error().Err(err).Str("appointment_id", apt.ID.String()).Msg("recurrence: failed to create occurrence")
			continue
		}

		// Advance the series head so the same occurrence is not re-created.
		apt.Date = nextDate
		apt.ReminderSent = false
		apt.ConfirmationSent = false
		apt.UpdatedAt = now
		if err := s.appointments.Update(ctx, apt); err != nil {
			s.logger.Error().Err(err).Str("appointment_id", apt.ID.String()).Msg("recurrence: failed to advance series")
			continue
		}
		created++
	}

	s.metrics.SweepItemsAffected.WithLabelValues("recurrence").Add(float64(created))
	s.logger.Info().Int("created", created).Msg("recurrence sweep finished")
	return created, nil
}

// ExpireLeaves completes approved leaves that ended before today and
// restores each doctor's availability.
func (s *Service) ExpireLeaves(ctx context.Context) (int, error) {
	done := s.observe("leave_expiry")
	defer done()

	expired, err := s.leaves.ListExpired(ctx, s.today())
	if err != nil {
		s.metrics.SweepFailures.WithLabelValues("leave_expiry").Inc()
		return 0, apperrors.Internal(err)
	}

	ended := 0
	for _, leave := range expired {
		leave.Status = model.LeaveStatusCompleted
		leave.UpdatedAt = s.now()
		if err := s.leaves.UpdateStatusWithDoctor(ctx, leave, model.AvailabilityAvailable); err != nil {
			s.logger.Error().Err(err).Str("leave_id", leave.ID.String()).Msg("leave expiry: failed to complete leave")
			continue
		}
		s.doctors.InvalidateCache(leave.DoctorID)
		ended++
	}

	s.metrics.SweepItemsAffected.WithLabelValues("leave_expiry").Add(float64(ended))
	s.logger.Info().Int("ended", ended).Msg("leave expiry sweep finished")
	return ended, nil
}

func (s *Service) validateOccurrence(ctx context.Context, apt *model.Appointment, date time.Time) error {
	if leave, err := s.leaves.FindApprovedCovering(ctx, apt.DoctorID, date); err == nil {
		return apperrors.DoctorOnLeave(
			apt.DoctorID.String(),
			leave.LeaveStart.Format(model.DateFormat),
			leave.LeaveEnd.Format(model.DateFormat),
		)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return apperrors.Internal(err)
	}

	conflict, err := s.appointments.CheckConflict(ctx, apt.DoctorID, date, apt.StartTime, apt.EndTime, nil)
	if err != nil {
		return apperrors.Internal(err)
	}
	if conflict {
		return apperrors.SlotConflict(apt.DoctorID.String(), date.Format(model.DateFormat), apt.StartTime, apt.EndTime)
	}
	return nil
}

func (s *Service) today() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Service) observe(name string) func() {
	s.metrics.SweepRuns.WithLabelValues(name).Inc()
	start := s.now()
	return func() {
		s.metrics.SweepDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
}
