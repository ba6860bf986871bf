package waitlist

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
	repo     repository.WaitlistRepository
	patients repository.PatientRepository
	doctors  repository.DoctorRepository
	auditor  *audit.Service
}

func NewService(
	repo repository.WaitlistRepository,
	patients repository.PatientRepository,
	doctors repository.DoctorRepository,
	auditor *audit.Service,
) *Service {
	return &Service{repo: repo, patients: patients, doctors: doctors, auditor: auditor}
}

func (s *Service) CreateEntry(ctx context.Context, req *model.CreateWaitlistRequest) (*model.WaitlistEntry, error) {
	date, err := time.Parse(model.DateFormat, req.PreferredDate)
	if err != nil {
		return nil, apperrors.Validation("invalid preferred_date format, expected YYYY-MM-DD")
	}

	if _, err := s.patients.Get(ctx, req.PatientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, apperrors.Internal(err)
	}
	if _, err := s.doctors.Get(ctx, req.PreferredDoctorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, apperrors.Internal(err)
	}

	priority := model.WaitlistPriority(req.Priority)
	if priority == "" {
		priority = model.WaitlistPriorityMedium
	}

	now := time.Now()
	entry := &model.WaitlistEntry{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		PatientID:         req.PatientID,
		PreferredDoctorID: req.PreferredDoctorID,
		PreferredDate:     date,
		ContactEmail:      req.ContactEmail,
		Priority:          priority,
		Notes:             req.Notes,
		Status:            model.WaitlistStatusWaiting,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.auditor.Log(ctx, "create", "waitlist", entry.ID, entry)
	return entry, nil
}

func (s *Service) GetEntry(ctx context.Context, id uuid.UUID) (*model.WaitlistEntry, error) {
	entry, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("waitlist entry", err)
		}
		return nil, apperrors.Internal(err)
	}
	return entry, nil
}

func (s *Service) ListEntries(ctx context.Context, filters *model.WaitlistFilters) ([]*model.WaitlistEntry, error) {
	entries, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return entries, nil
}

func (s *Service) UpdateEntry(ctx context.Context, id uuid.UUID, req *model.UpdateWaitlistRequest) (*model.WaitlistEntry, error) {
	entry, err := s.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.Status == model.WaitlistStatusConverted {
		return nil, apperrors.Validation("cannot modify a converted waitlist entry")
	}

	if req.PreferredDoctorID != nil {
		if _, err := s.doctors.Get(ctx, *req.PreferredDoctorID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NotFound("doctor", err)
			}
			return nil, apperrors.Internal(err)
		}
		entry.PreferredDoctorID = *req.PreferredDoctorID
	}
	if req.PreferredDate != nil {
		date, err := time.Parse(model.DateFormat, *req.PreferredDate)
		if err != nil {
			return nil, apperrors.Validation("invalid preferred_date format, expected YYYY-MM-DD")
		}
		entry.PreferredDate = date
	}
	if req.ContactEmail != nil {
		entry.ContactEmail = *req.ContactEmail
	}
	if req.Priority != nil {
		entry.Priority = model.WaitlistPriority(*req.Priority)
	}
	if req.Notes != nil {
		entry.Notes = *req.Notes
	}
	entry.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("waitlist entry", err)
		}
		return nil, apperrors.Internal(err)
	}

	s.auditor.Log(ctx, "update", "waitlist", id, req)
	return entry, nil
}

func (s *Service) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("waitlist entry", err)
		}
		return apperrors.Internal(err)
	}

	s.auditor.Log(ctx, "delete", "waitlist", id, nil)
	return nil
}
