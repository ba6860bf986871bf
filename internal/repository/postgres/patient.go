package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/myhealth/scheduling-api/internal/model"
	"github.com/myhealth/scheduling-api/internal/repository"
)

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (
			id, first_name, last_name, full_name, date_of_birth, age,
			gender, email, phone, id_document, insurance_card,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, query,
		patient.ID,
		patient.FirstName,
		patient.LastName,
		patient.FullName,
		patient.DateOfBirth,
		patient.Age,
		patient.Gender,
		patient.Email,
		patient.Phone,
		patient.IDDocument,
		patient.InsuranceCard,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", translate(err))
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `
		SELECT id, first_name, last_name, full_name, date_of_birth, age,
			   gender, email, phone, id_document, insurance_card,
			   created_at, updated_at
		FROM patients
		WHERE id = $1
	`
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, id); err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", translate(err))
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients
		SET first_name = $1, last_name = $2, full_name = $3, date_of_birth = $4,
			age = $5, gender = $6, email = $7, phone = $8,
			id_document = $9, insurance_card = $10, updated_at = $11
		WHERE id = $12
	`
	result, err := r.db.ExecContext(ctx, query,
		patient.FirstName,
		patient.LastName,
		patient.FullName,
		patient.DateOfBirth,
		patient.Age,
		patient.Gender,
		patient.Email,
		patient.Phone,
		patient.IDDocument,
		patient.InsuranceCard,
		patient.UpdatedAt,
		patient.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", translate(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("failed to update patient: %w", repository.ErrNotFound)
	}
	return nil
}

func (r *patientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM patients
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", translate(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("failed to delete patient: %w", repository.ErrNotFound)
	}
	return nil
}

func (r *patientRepository) List(ctx context.Context) ([]*model.Patient, error) {
	query := `
		SELECT id, first_name, last_name, full_name, date_of_birth, age,
			   gender, email, phone, id_document, insurance_card,
			   created_at, updated_at
		FROM patients
		ORDER BY last_name ASC, first_name ASC
	`
	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, query); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

func (r *patientRepository) ListDoctors(ctx context.Context, patientID uuid.UUID) ([]*model.Doctor, error) {
	query := `
		SELECT DISTINCT d.id, d.first_name, d.last_name, d.full_name, d.specialization,
			   d.email, d.phone_number, d.years_of_experience, d.bio, d.availability_status,
			   d.created_at, d.updated_at
		FROM doctors d
		JOIN appointments a ON a.doctor_id = d.id
		WHERE a.patient_id = $1
		ORDER BY d.last_name ASC, d.first_name ASC
	`
	var doctors []*model.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list patient doctors: %w", err)
	}
	return doctors, nil
}
