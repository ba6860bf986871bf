package notification

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/myhealth/scheduling-api/internal/email"
	"github.com/myhealth/scheduling-api/internal/model"
	apperrors "github.com/myhealth/scheduling-api/pkg/errors"
)

// Service sends the scheduling notifications. Delivery is fire-and-forget
// from the caller's perspective: a failure is reported as a DeliveryError
// for logging but must never roll back the transition that triggered it.
type Service interface {
	SendConfirmation(ctx context.Context, apt *model.Appointment, patient *model.Patient, doctor *model.Doctor) error
	SendReminder(ctx context.Context, apt *model.Appointment, patient *model.Patient, doctor *model.Doctor) error
	SendSlotOpened(ctx context.Context, entry *model.WaitlistEntry, doctor *model.Doctor) error
}

type service struct {
	emailSvc email.Service
	logger   zerolog.Logger
}

func NewService(emailSvc email.Service, logger zerolog.Logger) Service {
	return &service{emailSvc: emailSvc, logger: logger}
}

func (s *service) SendConfirmation(ctx context.Context, apt *model.Appointment, patient *model.Patient, doctor *model.Doctor) error {
	subject := fmt.Sprintf("Appointment Confirmation with Dr. %s", doctor.FullName)
	body := fmt.Sprintf(
		"Your appointment on %s at %s has been confirmed.",
		apt.Date.Format(model.DateFormat), apt.StartTime,
	)
	return s.send(ctx, "confirmation", patient.Email, subject, body)
}

func (s *service) SendReminder(ctx context.Context, apt *model.Appointment, patient *model.Patient, doctor *model.Doctor) error {
	subject := fmt.Sprintf("Reminder: Appointment with Dr. %s Tomorrow", doctor.FullName)
	body := fmt.Sprintf(
		"Reminder: You have an appointment on %s at %s.",
		apt.Date.Format(model.DateFormat), apt.StartTime,
	)
	return s.send(ctx, "reminder", patient.Email, subject, body)
}

func (s *service) SendSlotOpened(ctx context.Context, entry *model.WaitlistEntry, doctor *model.Doctor) error {
	subject := fmt.Sprintf("Appointment Slot Available for Dr. %s", doctor.FullName)
	body := fmt.Sprintf(
		"Hi, a slot just opened for your preferred date %s with Dr. %s. Please confirm your booking soon.",
		entry.PreferredDate.Format(model.DateFormat), doctor.FullName,
	)
	return s.send(ctx, "slot_opened", entry.ContactEmail, subject, body)
}

func (s *service) send(ctx context.Context, kind, to, subject, body string) error {
	if err := s.emailSvc.Send(ctx, to, subject, body); err != nil {
		s.logger.Error().Err(err).Str("kind", kind).Str("recipient", to).Msg("notification delivery failed")
		return apperrors.Delivery(to, err)
	}
	s.logger.Debug().Str("kind", kind).Str("recipient", to).Msg("notification sent")
	return nil
}
