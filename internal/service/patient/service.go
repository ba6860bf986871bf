package patient

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/myhealth/scheduling-api/internal/model"
	"github.com/myhealth/scheduling-api/internal/repository"
	"github.com/myhealth/scheduling-api/internal/service/audit"
	apperrors "github.com/myhealth/scheduling-api/pkg/errors"
)

type Service struct {
	repo         repository.PatientRepository
	appointments repository.AppointmentRepository
	auditor      *audit.Service
}

func NewService(
	repo repository.PatientRepository,
	appointments repository.AppointmentRepository,
	auditor *audit.Service,
) *Service {
	return &Service{repo: repo, appointments: appointments, auditor: auditor}
}

func (s *Service) CreatePatient(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	dob, err := parseDOB(req.DateOfBirth)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	patient := &model.Patient{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: dob,
		Gender:      req.Gender,
		Email:       req.Email,
		Phone:       req.Phone,
	}
	patient.DeriveFullName()
	patient.DeriveAge(now)

	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.auditor.Log(ctx, "create", "patient", patient.ID, patient)
	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, apperrors.Internal(err)
	}

	patient.DeriveAge(time.Now())
	return patient, nil
}

func (s *Service) ListPatients(ctx context.Context) ([]*model.Patient, error) {
	patients, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	now := time.Now()
	for _, p := range patients {
		p.DeriveAge(now)
	}
	return patients, nil
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.GetPatient(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		patient.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		patient.LastName = *req.LastName
	}
	if req.DateOfBirth != nil {
		dob, err := parseDOB(*req.DateOfBirth)
		if err != nil {
			return nil, err
		}
		patient.DateOfBirth = dob
	}
	if req.Gender != nil {
		patient.Gender = *req.Gender
	}
	if req.Email != nil {
		patient.Email = *req.Email
	}
	if req.Phone != nil {
		patient.Phone = *req.Phone
	}

	now := time.Now()
	patient.DeriveFullName()
	patient.DeriveAge(now)
	patient.UpdatedAt = now

	if err := s.repo.Update(ctx, patient); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, apperrors.Internal(err)
	}

	s.auditor.Log(ctx, "update", "patient", id, req)
	return patient, nil
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("patient", err)
		}
		return apperrors.Internal(err)
	}

	s.auditor.Log(ctx, "delete", "patient", id, nil)
	return nil
}

// UploadFiles attaches the patient's identity and insurance document
// references. Storage of the blobs themselves is out of scope; we keep
// the uploaded file URLs.
func (s *Service) UploadFiles(ctx context.Context, id uuid.UUID, req *model.UploadPatientFilesRequest) (*model.Patient, error) {
	patient, err := s.GetPatient(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.IDDocument != nil {
		patient.IDDocument = *req.IDDocument
	}
	if req.InsuranceCard != nil {
		patient.InsuranceCard = *req.InsuranceCard
	}
	patient.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.auditor.Log(ctx, "upload_files", "patient", id, req)
	return patient, nil
}

// History returns the patient's appointments, newest-day first handled by
// the caller's filters.
func (s *Service) History(ctx context.Context, id uuid.UUID) ([]*model.Appointment, error) {
	if _, err := s.GetPatient(ctx, id); err != nil {
		return nil, err
	}

	appointments, err := s.appointments.List(ctx, &model.AppointmentFilters{PatientID: id})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return appointments, nil
}

// ListDoctors returns the distinct doctors the patient has seen.
func (s *Service) ListDoctors(ctx context.Context, id uuid.UUID) ([]*model.Doctor, error) {
	if _, err := s.GetPatient(ctx, id); err != nil {
		return nil, err
	}

	doctors, err := s.repo.ListDoctors(ctx, id)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return doctors, nil
}

func parseDOB(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	dob, err := time.Parse(model.DateFormat, raw)
	if err != nil {
		return nil, apperrors.Validation("invalid date_of_birth format, expected YYYY-MM-DD")
	}
	if dob.After(time.Now()) {
		return nil, apperrors.Validation("date_of_birth cannot be in the future")
	}
	return &dob, nil
}
