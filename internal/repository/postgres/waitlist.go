package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/myhealth/scheduling-api/internal/model"
	"github.com/myhealth/scheduling-api/internal/repository"
)

func (r *waitlistRepository) Create(ctx context.Context, entry *model.WaitlistEntry) error {
	query := `
		INSERT INTO waitlist_entries (
			id, patient_id, preferred_doctor_id, preferred_date,
			contact_email, priority, notes, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.PatientID,
		entry.PreferredDoctorID,
		entry.PreferredDate,
		entry.ContactEmail,
		entry.Priority,
		entry.Notes,
		entry.Status,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create waitlist entry: %w", translate(err))
	}
	return nil
}

func (r *waitlistRepository) Get(ctx context.Context, id uuid.UUID) (*model.WaitlistEntry, error) {
	query := `
		SELECT id, patient_id, preferred_doctor_id, preferred_date,
			   contact_email, priority, notes, status,
			   created_at, updated_at
		FROM waitlist_entries
		WHERE id = $1
	`
	var entry model.WaitlistEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, fmt.Errorf("failed to get waitlist entry: %w", translate(err))
	}
	return &entry, nil
}

func (r *waitlistRepository) Update(ctx context.Context, entry *model.WaitlistEntry) error {
	query := `
		UPDATE waitlist_entries
		SET preferred_doctor_id = $1, preferred_date = $2, contact_email = $3,
			priority = $4, notes = $5, status = $6, updated_at = $7
		WHERE id = $8
	`
	result, err := r.db.ExecContext(ctx, query,
		entry.PreferredDoctorID,
		entry.PreferredDate,
		entry.ContactEmail,
		entry.Priority,
		entry.Notes,
		entry.Status,
		entry.UpdatedAt,
		entry.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update waitlist entry: %w", translate(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("failed to update waitlist entry: %w", repository.ErrNotFound)
	}
	return nil
}

func (r *waitlistRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM waitlist_entries
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete waitlist entry: %w", translate(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("failed to delete waitlist entry: %w", repository.ErrNotFound)
	}
	return nil
}

func (r *waitlistRepository) List(ctx context.Context, filters *model.WaitlistFilters) ([]*model.WaitlistEntry, error) {
	query := `
		SELECT id, patient_id, preferred_doctor_id, preferred_date,
			   contact_email, priority, notes, status,
			   created_at, updated_at
		FROM waitlist_entries
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters.PatientID != uuid.Nil {
		query += fmt.Sprintf(" AND patient_id = $%d", argCount)
		args = append(args, filters.PatientID)
		argCount++
	}
	if filters.PreferredDoctorID != uuid.Nil {
		query += fmt.Sprintf(" AND preferred_doctor_id = $%d", argCount)
		args = append(args, filters.PreferredDoctorID)
		argCount++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}

	query += " ORDER BY created_at ASC"

	var entries []*model.WaitlistEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list waitlist entries: %w", err)
	}
	return entries, nil
}

// FirstWaiting selects FIFO by creation time. The priority column is
// deliberately not part of the ordering.
func (r *waitlistRepository) FirstWaiting(ctx context.Context, doctorID uuid.UUID, date time.Time) (*model.WaitlistEntry, error) {
	query := `
		SELECT id, patient_id, preferred_doctor_id, preferred_date,
			   contact_email, priority, notes, status,
			   created_at, updated_at
		FROM waitlist_entries
		WHERE preferred_doctor_id = $1
		AND preferred_date = $2
		AND status = 'waiting'
		ORDER BY created_at ASC
		LIMIT 1
	`
	var entry model.WaitlistEntry
	if err := r.db.GetContext(ctx, &entry, query, doctorID, date); err != nil {
		return nil, fmt.Errorf("failed to find waiting entry: %w", translate(err))
	}
	return &entry, nil
}
