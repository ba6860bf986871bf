package leave

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/myhealth/scheduling-api/internal/model"
	"github.com/myhealth/scheduling-api/internal/repository"
	"github.com/myhealth/scheduling-api/internal/service/audit"
	"github.com/myhealth/scheduling-api/internal/service/doctor"
	apperrors "github.com/myhealth/scheduling-api/pkg/errors"
)

type Service struct {
	repo    repository.LeaveRepository
	doctors *doctor.Service
	auditor *audit.Service
}

func NewService(repo repository.LeaveRepository, doctors *doctor.Service, auditor *audit.Service) *Service {
	return &Service{repo: repo, doctors: doctors, auditor: auditor}
}

// ApplyLeave files a pending leave request. Overlap with an existing
// approved leave is rejected up front; pending requests may overlap each
// other and are resolved at approval time.
func (s *Service) ApplyLeave(ctx context.Context, req *model.ApplyLeaveRequest) (*model.DoctorLeave, error) {
	start, err := time.Parse(model.DateFormat, req.LeaveStart)
	if err != nil {
		return nil, apperrors.Validation("invalid leave_start format, expected YYYY-MM-DD")
	}
	end, err := time.Parse(model.DateFormat, req.LeaveEnd)
	if err != nil {
		return nil, apperrors.Validation("invalid leave_end format, expected YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, apperrors.Validation("leave_end must not be before leave_start")
	}

	doc, err := s.doctors.GetDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}

	if existing, err := s.repo.FindApprovedOverlap(ctx, req.DoctorID, start, end); err == nil {
		return nil, apperrors.DuplicateLeave(
			doc.FullName,
			existing.LeaveStart.Format(model.DateFormat),
			existing.LeaveEnd.Format(model.DateFormat),
		)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	now := time.Now()
	leave := &model.DoctorLeave{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		DoctorID:   req.DoctorID,
		LeaveStart: start,
		LeaveEnd:   end,
		Reason:     req.Reason,
		Status:     model.LeaveStatusPending,
	}

	if err := s.repo.Create(ctx, leave); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.auditor.Log(ctx, "apply", "leave", leave.ID, leave)
	return leave, nil
}

// ApproveLeave flips the request to approved and the doctor to on_leave.
// Both writes happen in one transaction; a crash cannot leave the doctor
// marked away without an approved leave backing it.
func (s *Service) ApproveLeave(ctx context.Context, id uuid.UUID, approvedBy string) (*model.DoctorLeave, error) {
	leave, err := s.GetLeave(ctx, id)
	if err != nil {
		return nil, err
	}
	if leave.Status == model.LeaveStatusApproved {
		return nil, apperrors.AlreadyApproved(id.String())
	}
	if leave.Status == model.LeaveStatusCompleted {
		return nil, apperrors.Validation("cannot approve a completed leave")
	}

	leave.Status = model.LeaveStatusApproved
	leave.ApprovedBy = approvedBy
	leave.UpdatedAt = time.Now()

	if err := s.repo.UpdateStatusWithDoctor(ctx, leave, model.AvailabilityOnLeave); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.doctors.InvalidateCache(leave.DoctorID)
	s.auditor.Log(ctx, "approve", "leave", id, map[string]string{"approved_by": approvedBy})
	return leave, nil
}

// EndLeave completes an approved leave and restores the doctor's
// availability, again transactionally.
func (s *Service) EndLeave(ctx context.Context, id uuid.UUID) (*model.DoctorLeave, error) {
	leave, err := s.GetLeave(ctx, id)
	if err != nil {
		return nil, err
	}
	if leave.Status != model.LeaveStatusApproved {
		return nil, apperrors.NotApproved(id.String())
	}

	leave.Status = model.LeaveStatusCompleted
	leave.UpdatedAt = time.Now()

	if err := s.repo.UpdateStatusWithDoctor(ctx, leave, model.AvailabilityAvailable); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.doctors.InvalidateCache(leave.DoctorID)
	s.auditor.Log(ctx, "end", "leave", id, nil)
	return leave, nil
}

func (s *Service) GetLeave(ctx context.Context, id uuid.UUID) (*model.DoctorLeave, error) {
	leave, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("leave", err)
		}
		return nil, apperrors.Internal(err)
	}
	return leave, nil
}

func (s *Service) ListLeaves(ctx context.Context, filters *model.LeaveFilters) ([]*model.DoctorLeave, error) {
	leaves, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return leaves, nil
}
