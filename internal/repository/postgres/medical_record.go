package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/myhealth/scheduling-api/internal/model"
	"github.com/myhealth/scheduling-api/internal/repository"
)

func (r *medicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord) error {
	query := `
		INSERT INTO medical_records (
			id, patient_id, appointment_id, doctor_id, record_type,
			summary, details, confidential, version, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.PatientID,
		record.AppointmentID,
		record.DoctorID,
		record.RecordType,
		record.Summary,
		record.Details,
		record.Confidential,
		record.Version,
		record.Status,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create medical record: %w", translate(err))
	}
	return nil
}

func (r *medicalRecordRepository) Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	query := `
		SELECT id, patient_id, appointment_id, doctor_id, record_type,
			   summary, details, confidential, version, status,
			   created_at, updated_at
		FROM medical_records
		WHERE id = $1
	`
	var record model.MedicalRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, fmt.Errorf("failed to get medical record: %w", translate(err))
	}
	return &record, nil
}

func (r *medicalRecordRepository) Update(ctx context.Context, record *model.MedicalRecord) error {
	query := `
		UPDATE medical_records
		SET summary = $1, details = $2, confidential = $3, version = $4,
			status = $5, updated_at = $6
		WHERE id = $7
	`
	result, err := r.db.ExecContext(ctx, query,
		record.Summary,
		record.Details,
		record.Confidential,
		record.Version,
		record.Status,
		record.UpdatedAt,
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update medical record: %w", translate(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("failed to update medical record: %w", repository.ErrNotFound)
	}
	return nil
}

func (r *medicalRecordRepository) List(ctx context.Context, filters *model.RecordFilters) ([]*model.MedicalRecord, error) {
	query := `
		SELECT id, patient_id, appointment_id, doctor_id, record_type,
			   summary, details, confidential, version, status,
			   created_at, updated_at
		FROM medical_records
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters.PatientID != uuid.Nil {
		query += fmt.Sprintf(" AND patient_id = $%d", argCount)
		args = append(args, filters.PatientID)
		argCount++
	}
	if filters.DoctorID != uuid.Nil {
		query += fmt.Sprintf(" AND doctor_id = $%d", argCount)
		args = append(args, filters.DoctorID)
		argCount++
	}

	query += " ORDER BY created_at DESC"

	var records []*model.MedicalRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list medical records: %w", err)
	}
	return records, nil
}
