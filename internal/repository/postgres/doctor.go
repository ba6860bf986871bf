package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/myhealth/scheduling-api/internal/model"
	"github.com/myhealth/scheduling-api/internal/repository"
)

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	query := `
		INSERT INTO doctors (
			id, first_name, last_name, full_name, specialization,
			email, phone_number, years_of_experience, bio, availability_status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		doctor.ID,
		doctor.FirstName,
		doctor.LastName,
		doctor.FullName,
		doctor.Specialization,
		doctor.Email,
		doctor.PhoneNumber,
		doctor.YearsOfExperience,
		doctor.Bio,
		doctor.AvailabilityStatus,
		doctor.CreatedAt,
		doctor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create doctor: %w", translate(err))
	}
	return nil
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	query := `
		SELECT id, first_name, last_name, full_name, specialization,
			   email, phone_number, years_of_experience, bio, availability_status,
			   created_at, updated_at
		FROM doctors
		WHERE id = $1
	`
	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", translate(err))
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	query := `
		UPDATE doctors
		SET first_name = $1, last_name = $2, full_name = $3, specialization = $4,
			email = $5, phone_number = $6, years_of_experience = $7, bio = $8,
			availability_status = $9, updated_at = $10
		WHERE id = $11
	`
	result, err := r.db.ExecContext(ctx, query,
		doctor.FirstName,
		doctor.LastName,
		doctor.FullName,
		doctor.Specialization,
		doctor.Email,
		doctor.PhoneNumber,
		doctor.YearsOfExperience,
		doctor.Bio,
		doctor.AvailabilityStatus,
		doctor.UpdatedAt,
		doctor.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", translate(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("failed to update doctor: %w", repository.ErrNotFound)
	}
	return nil
}

func (r *doctorRepository) List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	query := `
		SELECT id, first_name, last_name, full_name, specialization,
			   email, phone_number, years_of_experience, bio, availability_status,
			   created_at, updated_at
		FROM doctors
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters.Specialization != "" {
		query += fmt.Sprintf(" AND specialization = $%d", argCount)
		args = append(args, filters.Specialization)
		argCount++
	}
	if filters.AvailabilityStatus != "" {
		query += fmt.Sprintf(" AND availability_status = $%d", argCount)
		args = append(args, filters.AvailabilityStatus)
		argCount++
	}

	query += " ORDER BY last_name ASC, first_name ASC"

	var doctors []*model.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) UpdateAvailability(ctx context.Context, id uuid.UUID, status model.AvailabilityStatus) error {
	query := `
		UPDATE doctors
		SET availability_status = $1, updated_at = NOW()
		WHERE id = $2
	`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update doctor availability: %w", translate(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("failed to update doctor availability: %w", repository.ErrNotFound)
	}
	return nil
}

func (r *doctorRepository) ListPatients(ctx context.Context, doctorID uuid.UUID) ([]*model.Patient, error) {
	query := `
		SELECT DISTINCT p.id, p.first_name, p.last_name, p.full_name,
			   p.date_of_birth, p.age, p.gender, p.email, p.phone,
			   p.id_document, p.insurance_card, p.created_at, p.updated_at
		FROM patients p
		JOIN appointments a ON a.patient_id = p.id
		WHERE a.doctor_id = $1
		ORDER BY p.last_name ASC, p.first_name ASC
	`
	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list doctor patients: %w", err)
	}
	return patients, nil
}
