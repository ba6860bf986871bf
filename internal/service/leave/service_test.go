package leave

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myhealth/scheduling-api/internal/model"
	"github.com/myhealth/scheduling-api/internal/repository"
	"github.com/myhealth/scheduling-api/internal/service/audit"
	"github.com/myhealth/scheduling-api/internal/service/doctor"
	apperrors "github.com/myhealth/scheduling-api/pkg/errors"
)

type fakeDoctorRepo struct {
	doctors map[uuid.UUID]*model.Doctor
}

func (f *fakeDoctorRepo) Create(_ context.Context, d *model.Doctor) error {
	f.doctors[d.ID] = d
	return nil
}

func (f *fakeDoctorRepo) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	d, ok := f.doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return d, nil
}

func (f *fakeDoctorRepo) Update(_ context.Context, d *model.Doctor) error {
	f.doctors[d.ID] = d
	return nil
}

func (f *fakeDoctorRepo) List(_ context.Context, _ *model.DoctorFilters) ([]*model.Doctor, error) {
	return nil, nil
}

func (f *fakeDoctorRepo) UpdateAvailability(_ context.Context, id uuid.UUID, status model.AvailabilityStatus) error {
	d, ok := f.doctors[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.AvailabilityStatus = status
	return nil
}

func (f *fakeDoctorRepo) ListPatients(_ context.Context, _ uuid.UUID) ([]*model.Patient, error) {
	return nil, nil
}

// fakeLeaveRepo mirrors the transactional contract: UpdateStatusWithDoctor
// writes the leave and the doctor's availability together.
type fakeLeaveRepo struct {
	leaves  map[uuid.UUID]*model.DoctorLeave
	doctors *fakeDoctorRepo
}

func (f *fakeLeaveRepo) Create(_ context.Context, l *model.DoctorLeave) error {
	f.leaves[l.ID] = l
	return nil
}

func (f *fakeLeaveRepo) Get(_ context.Context, id uuid.UUID) (*model.DoctorLeave, error) {
	l, ok := f.leaves[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeLeaveRepo) List(_ context.Context, filters *model.LeaveFilters) ([]*model.DoctorLeave, error) {
	var out []*model.DoctorLeave
	for _, l := range f.leaves {
		if filters.DoctorID != uuid.Nil && l.DoctorID != filters.DoctorID {
			continue
		}
		if filters.Status != "" && l.Status != filters.Status {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeLeaveRepo) FindApprovedOverlap(_ context.Context, doctorID uuid.UUID, start, end time.Time) (*model.DoctorLeave, error) {
	for _, l := range f.leaves {
		if l.DoctorID == doctorID && l.Status == model.LeaveStatusApproved && l.Overlaps(start, end) {
			return l, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeLeaveRepo) FindApprovedCovering(_ context.Context, doctorID uuid.UUID, date time.Time) (*model.DoctorLeave, error) {
	for _, l := range f.leaves {
		if l.DoctorID == doctorID && l.Status == model.LeaveStatusApproved && l.Covers(date) {
			return l, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeLeaveRepo) ListExpired(_ context.Context, before time.Time) ([]*model.DoctorLeave, error) {
	var out []*model.DoctorLeave
	for _, l := range f.leaves {
		if l.Status == model.LeaveStatusApproved && l.LeaveEnd.Before(before) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLeaveRepo) UpdateStatusWithDoctor(ctx context.Context, l *model.DoctorLeave, availability model.AvailabilityStatus) error {
	if _, ok := f.leaves[l.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *l
	f.leaves[l.ID] = &cp
	return f.doctors.UpdateAvailability(ctx, l.DoctorID, availability)
}

type fakeAuditRepo struct{}

func (f *fakeAuditRepo) Create(_ context.Context, _ *model.AuditLog) error { return nil }
func (f *fakeAuditRepo) List(_ context.Context, _ string, _ uuid.UUID) ([]*model.AuditLog, error) {
	return nil, nil
}

func newTestService(t *testing.T) (*Service, *fakeLeaveRepo, *model.Doctor) {
	t.Helper()

	doctors := &fakeDoctorRepo{doctors: map[uuid.UUID]*model.Doctor{}}
	leaves := &fakeLeaveRepo{leaves: map[uuid.UUID]*model.DoctorLeave{}, doctors: doctors}

	d := &model.Doctor{
		Base:               model.Base{ID: uuid.New()},
		FirstName:          "Maya",
		LastName:           "Singh",
		AvailabilityStatus: model.AvailabilityAvailable,
	}
	d.DeriveFullName()
	doctors.doctors[d.ID] = d

	auditor := audit.NewService(&fakeAuditRepo{}, zerolog.Nop())
	doctorSvc := doctor.NewService(doctors, auditor)
	return NewService(leaves, doctorSvc, auditor), leaves, d
}

func TestApplyLeave(t *testing.T) {
	svc, _, d := newTestService(t)

	leave, err := svc.ApplyLeave(context.Background(), &model.ApplyLeaveRequest{
		DoctorID:   d.ID,
		LeaveStart: "2026-09-01",
		LeaveEnd:   "2026-09-05",
		Reason:     "conference",
	})
	require.NoError(t, err)

	assert.Equal(t, model.LeaveStatusPending, leave.Status)
	// Applying does not touch availability; only approval does.
	assert.Equal(t, model.AvailabilityAvailable, d.AvailabilityStatus)
}

func TestApplyLeaveOverlappingApprovedRejected(t *testing.T) {
	svc, leaves, d := newTestService(t)

	existing := &model.DoctorLeave{
		Base:       model.Base{ID: uuid.New()},
		DoctorID:   d.ID,
		LeaveStart: mustDate(t, "2026-09-03"),
		LeaveEnd:   mustDate(t, "2026-09-08"),
		Status:     model.LeaveStatusApproved,
	}
	leaves.leaves[existing.ID] = existing

	_, err := svc.ApplyLeave(context.Background(), &model.ApplyLeaveRequest{
		DoctorID:   d.ID,
		LeaveStart: "2026-09-01",
		LeaveEnd:   "2026-09-05",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrDuplicateLeave))
}

func TestApplyLeaveEndBeforeStart(t *testing.T) {
	svc, _, d := newTestService(t)

	_, err := svc.ApplyLeave(context.Background(), &model.ApplyLeaveRequest{
		DoctorID:   d.ID,
		LeaveStart: "2026-09-05",
		LeaveEnd:   "2026-09-01",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))
}

func TestApproveLeaveFlipsAvailability(t *testing.T) {
	svc, _, d := newTestService(t)

	leave, err := svc.ApplyLeave(context.Background(), &model.ApplyLeaveRequest{
		DoctorID:   d.ID,
		LeaveStart: "2026-09-01",
		LeaveEnd:   "2026-09-05",
	})
	require.NoError(t, err)

	approved, err := svc.ApproveLeave(context.Background(), leave.ID, "admin@clinic.example")
	require.NoError(t, err)

	assert.Equal(t, model.LeaveStatusApproved, approved.Status)
	assert.Equal(t, "admin@clinic.example", approved.ApprovedBy)
	assert.Equal(t, model.AvailabilityOnLeave, d.AvailabilityStatus)
}

func TestApproveLeaveTwiceRejected(t *testing.T) {
	svc, _, d := newTestService(t)

	leave, err := svc.ApplyLeave(context.Background(), &model.ApplyLeaveRequest{
		DoctorID:   d.ID,
		LeaveStart: "2026-09-01",
		LeaveEnd:   "2026-09-05",
	})
	require.NoError(t, err)

	_, err = svc.ApproveLeave(context.Background(), leave.ID, "admin@clinic.example")
	require.NoError(t, err)

	_, err = svc.ApproveLeave(context.Background(), leave.ID, "admin@clinic.example")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrAlreadyApproved))
}

func TestEndLeaveRestoresAvailability(t *testing.T) {
	svc, _, d := newTestService(t)

	leave, err := svc.ApplyLeave(context.Background(), &model.ApplyLeaveRequest{
		DoctorID:   d.ID,
		LeaveStart: "2026-09-01",
		LeaveEnd:   "2026-09-05",
	})
	require.NoError(t, err)
	_, err = svc.ApproveLeave(context.Background(), leave.ID, "admin@clinic.example")
	require.NoError(t, err)

	ended, err := svc.EndLeave(context.Background(), leave.ID)
	require.NoError(t, err)

	assert.Equal(t, model.LeaveStatusCompleted, ended.Status)
	assert.Equal(t, model.AvailabilityAvailable, d.AvailabilityStatus)
}

func TestEndLeaveNotApprovedRejected(t *testing.T) {
	svc, _, d := newTestService(t)

	leave, err := svc.ApplyLeave(context.Background(), &model.ApplyLeaveRequest{
		DoctorID:   d.ID,
		LeaveStart: "2026-09-01",
		LeaveEnd:   "2026-09-05",
	})
	require.NoError(t, err)

	_, err = svc.EndLeave(context.Background(), leave.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotApproved))
}

func TestGetLeaveNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetLeave(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func mustDate(t *testing.T, raw string) time.Time {
	t.Helper()
	date, err := time.Parse(model.DateFormat, raw)
	require.NoError(t, err)
	return date
}
