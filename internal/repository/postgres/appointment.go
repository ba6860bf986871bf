package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/myhealth/scheduling-api/internal/model"
	"github.com/myhealth/scheduling-api/internal/repository"
)

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, doctor_id, service,
			appointment_date, start_time, end_time, status, notes,
			reminder_sent, confirmation_sent, is_recurring, recurrence_interval,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.DoctorID,
		appointment.Service,
		appointment.Date,
		appointment.StartTime,
		appointment.EndTime,
		appointment.Status,
		appointment.Notes,
		appointment.ReminderSent,
		appointment.ConfirmationSent,
		appointment.IsRecurring,
		appointment.RecurrenceInterval,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", translate(err))
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, service,
			   appointment_date, start_time, end_time, status, notes,
			   reminder_sent, confirmation_sent, is_recurring, recurrence_interval,
			   created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", translate(err))
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET doctor_id = $1, service = $2, appointment_date = $3,
			start_time = $4, end_time = $5, status = $6, notes = $7,
			reminder_sent = $8, confirmation_sent = $9,
			is_recurring = $10, recurrence_interval = $11, updated_at = $12
		WHERE id = $13
	`
	result, err := r.db.ExecContext(ctx, query,
		appointment.DoctorID,
		appointment.Service,
		appointment.Date,
		appointment.StartTime,
		appointment.EndTime,
		appointment.Status,
		appointment.Notes,
		appointment.ReminderSent,
		appointment.ConfirmationSent,
		appointment.IsRecurring,
		appointment.RecurrenceInterval,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", translate(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("failed to update appointment: %w", repository.ErrNotFound)
	}
	return nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT a.id, a.patient_id, a.doctor_id, a.service,
			   a.appointment_date, a.start_time, a.end_time, a.status, a.notes,
			   a.reminder_sent, a.confirmation_sent, a.is_recurring, a.recurrence_interval,
			   a.created_at, a.updated_at
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters.PatientID != uuid.Nil {
		query += fmt.Sprintf(" AND a.patient_id = $%d", argCount)
		args = append(args, filters.PatientID)
		argCount++
	}
	if filters.DoctorID != uuid.Nil {
		query += fmt.Sprintf(" AND a.doctor_id = $%d", argCount)
		args = append(args, filters.DoctorID)
		argCount++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND a.status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}
	if !filters.Date.IsZero() {
		query += fmt.Sprintf(" AND a.appointment_date = $%d", argCount)
		args = append(args, filters.Date)
		argCount++
	}
	if !filters.StartDate.IsZero() && !filters.EndDate.IsZero() {
		query += fmt.Sprintf(" AND a.appointment_date BETWEEN $%d AND $%d", argCount, argCount+1)
		args = append(args, filters.StartDate, filters.EndDate)
		argCount += 2
	}
	if filters.Search != "" {
		query += fmt.Sprintf(" AND (p.first_name ILIKE $%d OR p.last_name ILIKE $%d OR p.email ILIKE $%d)", argCount, argCount, argCount)
		args = append(args, "%"+filters.Search+"%")
		argCount++
	}

	query += " ORDER BY a.appointment_date ASC, a.start_time ASC"

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) CheckConflict(ctx context.Context, doctorID uuid.UUID, date time.Time, startTime, endTime string, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1
			AND appointment_date = $2
			AND status != 'cancelled'
			AND start_time < $4
			AND end_time > $3
	`
	args := []interface{}{doctorID, date, startTime, endTime}

	if excludeID != nil {
		query += " AND id != $5"
		args = append(args, *excludeID)
	}
	query += ")"

	var hasConflict bool
	if err := r.db.GetContext(ctx, &hasConflict, query, args...); err != nil {
		return false, fmt.Errorf("failed to check conflicts: %w", err)
	}
	return hasConflict, nil
}

func (r *appointmentRepository) DueForReminder(ctx context.Context, date time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, service,
			   appointment_date, start_time, end_time, status, notes,
			   reminder_sent, confirmation_sent, is_recurring, recurrence_interval,
			   created_at, updated_at
		FROM appointments
		WHERE appointment_date = $1
		AND status = 'scheduled'
		AND reminder_sent = false
		ORDER BY start_time ASC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, date); err != nil {
		return nil, fmt.Errorf("failed to list appointments due for reminder: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListRecurring(ctx context.Context) ([]*model.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, service,
			   appointment_date, start_time, end_time, status, notes,
			   reminder_sent, confirmation_sent, is_recurring, recurrence_interval,
			   created_at, updated_at
		FROM appointments
		WHERE is_recurring = true
		AND status != 'cancelled'
		ORDER BY appointment_date ASC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query); err != nil {
		return nil, fmt.Errorf("failed to list recurring appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) Summary(ctx context.Context) (*model.AppointmentSummary, error) {
	query := `
		SELECT COUNT(*) AS total,
			   COUNT(*) FILTER (WHERE status = 'pending') AS pending,
			   COUNT(*) FILTER (WHERE status = 'scheduled') AS scheduled,
			   COUNT(*) FILTER (WHERE status = 'confirmed') AS confirmed,
			   COUNT(*) FILTER (WHERE status = 'completed') AS completed,
			   COUNT(*) FILTER (WHERE status = 'cancelled') AS cancelled
		FROM appointments
	`
	var summary model.AppointmentSummary
	if err := r.db.GetContext(ctx, &summary, query); err != nil {
		return nil, fmt.Errorf("failed to get appointment summary: %w", err)
	}
	return &summary, nil
}
