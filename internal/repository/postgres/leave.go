package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/myhealth/scheduling-api/internal/model"
	"github.com/myhealth/scheduling-api/internal/repository"
)

func (r *leaveRepository) Create(ctx context.Context, leave *model.DoctorLeave) error {
	query := `
		INSERT INTO doctor_leaves (
			id, doctor_id, leave_start, leave_end, reason, approved_by, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		leave.ID,
		leave.DoctorID,
		leave.LeaveStart,
		leave.LeaveEnd,
		leave.Reason,
		leave.ApprovedBy,
		leave.Status,
		leave.CreatedAt,
		leave.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create leave: %w", translate(err))
	}
	return nil
}

func (r *leaveRepository) Get(ctx context.Context, id uuid.UUID) (*model.DoctorLeave, error) {
	query := `
		SELECT id, doctor_id, leave_start, leave_end, reason, approved_by, status,
			   created_at, updated_at
		FROM doctor_leaves
		WHERE id = $1
	`
	var leave model.DoctorLeave
	if err := r.db.GetContext(ctx, &leave, query, id); err != nil {
		return nil, fmt.Errorf("failed to get leave: %w", translate(err))
	}
	return &leave, nil
}

func (r *leaveRepository) List(ctx context.Context, filters *model.LeaveFilters) ([]*model.DoctorLeave, error) {
	query := `
		SELECT id, doctor_id, leave_start, leave_end, reason, approved_by, status,
			   created_at, updated_at
		FROM doctor_leaves
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters.DoctorID != uuid.Nil {
		query += fmt.Sprintf(" AND doctor_id = $%d", argCount)
		args = append(args, filters.DoctorID)
		argCount++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}

	query += " ORDER BY leave_start ASC"

	var leaves []*model.DoctorLeave
	if err := r.db.SelectContext(ctx, &leaves, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list leaves: %w", err)
	}
	return leaves, nil
}

func (r *leaveRepository) FindApprovedOverlap(ctx context.Context, doctorID uuid.UUID, start, end time.Time) (*model.DoctorLeave, error) {
	query := `
		SELECT id, doctor_id, leave_start, leave_end, reason, approved_by, status,
			   created_at, updated_at
		FROM doctor_leaves
		WHERE doctor_id = $1
		AND status = 'approved'
		AND leave_end >= $2
		AND leave_start <= $3
		ORDER BY leave_start ASC
		LIMIT 1
	`
	var leave model.DoctorLeave
	if err := r.db.GetContext(ctx, &leave, query, doctorID, start, end); err != nil {
		return nil, fmt.Errorf("failed to find overlapping leave: %w", translate(err))
	}
	return &leave, nil
}

func (r *leaveRepository) FindApprovedCovering(ctx context.Context, doctorID uuid.UUID, date time.Time) (*model.DoctorLeave, error) {
	query := `
		SELECT id, doctor_id, leave_start, leave_end, reason, approved_by, status,
			   created_at, updated_at
		FROM doctor_leaves
		WHERE doctor_id = $1
		AND status = 'approved'
		AND leave_start <= $2
		AND leave_end >= $2
		ORDER BY leave_start ASC
		LIMIT 1
	`
	var leave model.DoctorLeave
	if err := r.db.GetContext(ctx, &leave, query, doctorID, date); err != nil {
		return nil, fmt.Errorf("failed to find covering leave: %w", translate(err))
	}
	return &leave, nil
}

func (r *leaveRepository) ListExpired(ctx context.Context, before time.Time) ([]*model.DoctorLeave, error) {
	query := `
		SELECT id, doctor_id, leave_start, leave_end, reason, approved_by, status,
			   created_at, updated_at
		FROM doctor_leaves
		WHERE status = 'approved'
		AND leave_end < $1
		ORDER BY leave_end ASC
	`
	var leaves []*model.DoctorLeave
	if err := r.db.SelectContext(ctx, &leaves, query, before); err != nil {
		return nil, fmt.Errorf("failed to list expired leaves: %w", err)
	}
	return leaves, nil
}

// UpdateStatusWithDoctor writes the leave status and the doctor's
// availability in one transaction so a crash cannot leave them inconsistent.
func (r *leaveRepository) UpdateStatusWithDoctor(ctx context.Context, leave *model.DoctorLeave, availability model.AvailabilityStatus) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	leaveQuery := `
		UPDATE doctor_leaves
		SET status = $1, approved_by = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := tx.ExecContext(ctx, leaveQuery, leave.Status, leave.ApprovedBy, leave.UpdatedAt, leave.ID)
	if err != nil {
		return fmt.Errorf("failed to update leave status: %w", translate(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("failed to update leave status: %w", repository.ErrNotFound)
	}

	doctorQuery := `
		UPDATE doctors
		SET availability_status = $1, updated_at = $2
		WHERE id = $3
	`
	result, err = tx.ExecContext(ctx, doctorQuery, availability, leave.UpdatedAt, leave.DoctorID)
	if err != nil {
		return fmt.Errorf("failed to update doctor availability: %w", translate(err))
	}
	rows, err = result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("failed to update doctor availability: %w", repository.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
