package doctor

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/myhealth/scheduling-api/internal/model"
	"github.com/myhealth/scheduling-api/internal/repository"
	"github.com/myhealth/scheduling-api/internal/service/audit"
	apperrors "github.com/myhealth/scheduling-api/pkg/errors"
)

const (
	cacheTTL     = 5 * time.Minute
	cacheCleanup = 10 * time.Minute
)

type Service struct {
	repo    repository.DoctorRepository
	auditor *audit.Service

	// Doctor rows are read on every booking validation, so lookups go
	// through a short-lived cache.
	cache *cache.Cache
}

func NewService(repo repository.DoctorRepository, auditor *audit.Service) *Service {
	return &Service{
		repo:    repo,
		auditor: auditor,
		cache:   cache.New(cacheTTL, cacheCleanup),
	}
}

func (s *Service) CreateDoctor(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	now := time.Now()
	doctor := &model.Doctor{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Specialization:     req.Specialization,
		Email:              req.Email,
		PhoneNumber:        req.PhoneNumber,
		YearsOfExperience:  req.YearsOfExperience,
		Bio:                req.Bio,
		AvailabilityStatus: model.AvailabilityAvailable,
	}
	doctor.DeriveFullName()

	if err := s.repo.Create(ctx, doctor); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.auditor.Log(ctx, "create", "doctor", doctor.ID, doctor)
	return doctor, nil
}

// GetDoctor returns the doctor, served from the cache when warm. The
// cache holds copies, never pointers, so callers can mutate the result
// without that mutation ever being visible to other readers.
func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	if cached, ok := s.cache.Get(id.String()); ok {
		doctor := cached.(model.Doctor)
		return &doctor, nil
	}

	doctor, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, apperrors.Internal(err)
	}

	s.cache.Set(id.String(), *doctor, cache.DefaultExpiration)
	return doctor, nil
}

func (s *Service) ListDoctors(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	doctors, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return doctors, nil
}

func (s *Service) UpdateDoctor(ctx context.Context, id uuid.UUID, req *model.UpdateDoctorRequest) (*model.Doctor, error) {
	doctor, err := s.GetDoctor(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		doctor.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		doctor.LastName = *req.LastName
	}
	if req.Specialization != nil {
		doctor.Specialization = *req.Specialization
	}
	if req.Email != nil {
		doctor.Email = *req.Email
	}
	if req.PhoneNumber != nil {
		doctor.PhoneNumber = *req.PhoneNumber
	}
	if req.YearsOfExperience != nil {
		doctor.YearsOfExperience = *req.YearsOfExperience
	}
	if req.Bio != nil {
		doctor.Bio = *req.Bio
	}
	if req.AvailabilityStatus != nil {
		doctor.AvailabilityStatus = *req.AvailabilityStatus
	}
	doctor.DeriveFullName()
	doctor.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, doctor); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, apperrors.Internal(err)
	}

	s.cache.Delete(id.String())
	s.auditor.Log(ctx, "update", "doctor", id, req)
	return doctor, nil
}

// DeactivateDoctor marks the doctor on leave without touching any leave
// records; it is the manual out-of-office switch.
func (s *Service) DeactivateDoctor(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.UpdateAvailability(ctx, id, model.AvailabilityOnLeave); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("doctor", err)
		}
		return apperrors.Internal(err)
	}

	s.cache.Delete(id.String())
	s.auditor.Log(ctx, "deactivate", "doctor", id, nil)
	return nil
}

// ListPatients returns the distinct patients the doctor has seen.
func (s *Service) ListPatients(ctx context.Context, doctorID uuid.UUID) ([]*model.Patient, error) {
	if _, err := s.GetDoctor(ctx, doctorID); err != nil {
		return nil, err
	}

	patients, err := s.repo.ListPatients(ctx, doctorID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return patients, nil
}

// InvalidateCache drops a cached doctor row after an out-of-band write,
// such as the leave workflow flipping availability.
func (s *Service) InvalidateCache(id uuid.UUID) {
	s.cache.Delete(id.String())
}
