package medical

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/myhealth/scheduling-api/internal/model"
	"github.com/myhealth/scheduling-api/internal/repository"
	"github.com/myhealth/scheduling-api/internal/service/audit"
	"github.com/myhealth/scheduling-api/pkg/auth"
	apperrors "github.com/myhealth/scheduling-api/pkg/errors"
)

type Service struct {
	repo         repository.MedicalRecordRepository
	patients     repository.PatientRepository
	appointments repository.AppointmentRepository
	auditor      *audit.Service
}

func NewService(
	repo repository.MedicalRecordRepository,
	patients repository.PatientRepository,
	appointments repository.AppointmentRepository,
	auditor *audit.Service,
) *Service {
	return &Service{repo: repo, patients: patients, appointments: appointments, auditor: auditor}
}

func (s *Service) CreateRecord(ctx context.Context, req *model.CreateMedicalRecordRequest) (*model.MedicalRecord, error) {
	if _, err := s.patients.Get(ctx, req.PatientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, apperrors.Internal(err)
	}
	apt, err := s.appointments.Get(ctx, req.AppointmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, apperrors.Internal(err)
	}
	if apt.PatientID != req.PatientID {
		return nil, apperrors.Validation("appointment does not belong to the patient")
	}

	details, err := json.Marshal(req.Details)
	if err != nil {
		return nil, apperrors.Validation("invalid record details")
	}

	now := time.Now()
	record := &model.MedicalRecord{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		DoctorID:      req.DoctorID,
		RecordType:    req.RecordType,
		Summary:       req.Summary,
		Details:       details,
		Confidential:  req.Confidential,
		Version:       1,
		Status:        "open",
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.auditor.Log(ctx, "create", "medical_record", record.ID, record)
	return record, nil
}

// GetRecord fetches a record. Confidential records require an identified
// caller; anonymous access is refused outright.
func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("medical record", err)
		}
		return nil, apperrors.Internal(err)
	}

	if record.Confidential && auth.ActorFromContext(ctx) == nil {
		return nil, apperrors.PermissionDenied("confidential record requires authentication")
	}
	return record, nil
}

func (s *Service) ListRecords(ctx context.Context, filters *model.RecordFilters) ([]*model.MedicalRecord, error) {
	records, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if auth.ActorFromContext(ctx) != nil {
		return records, nil
	}
	visible := records[:0]
	for _, r := range records {
		if !r.Confidential {
			visible = append(visible, r)
		}
	}
	return visible, nil
}

// UpdateRecord applies a patch and bumps the version so concurrent
// editors can detect each other's writes.
func (s *Service) UpdateRecord(ctx context.Context, id uuid.UUID, req *model.UpdateMedicalRecordRequest) (*model.MedicalRecord, error) {
	record, err := s.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Summary != nil {
		record.Summary = *req.Summary
	}
	if req.Details != nil {
		details, err := json.Marshal(req.Details)
		if err != nil {
			return nil, apperrors.Validation("invalid record details")
		}
		record.Details = details
	}
	if req.Confidential != nil {
		record.Confidential = *req.Confidential
	}
	if req.Status != nil {
		record.Status = *req.Status
	}
	record.Version++
	record.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, record); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("medical record", err)
		}
		return nil, apperrors.Internal(err)
	}

	s.auditor.Log(ctx, "update", "medical_record", id, req)
	return record, nil
}
