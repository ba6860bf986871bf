package doctor

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myhealth/scheduling-api/internal/model"
	"github.com/myhealth/scheduling-api/internal/repository"
	"github.com/myhealth/scheduling-api/internal/service/audit"
	apperrors "github.com/myhealth/scheduling-api/pkg/errors"
)

type fakeDoctorRepo struct {
	doctors    map[uuid.UUID]*model.Doctor
	failUpdate bool
}

func (f *fakeDoctorRepo) Create(_ context.Context, d *model.Doctor) error {
	cp := *d
	f.doctors[d.ID] = &cp
	return nil
}

func (f *fakeDoctorRepo) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	d, ok := f.doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDoctorRepo) Update(_ context.Context, d *model.Doctor) error {
	if f.failUpdate {
		return errors.New("connection reset")
	}
	if _, ok := f.doctors[d.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *d
	f.doctors[d.ID] = &cp
	return nil
}

func (f *fakeDoctorRepo) List(_ context.Context, _ *model.DoctorFilters) ([]*model.Doctor, error) {
	var out []*model.Doctor
	for _, d := range f.doctors {
		out = append(out, d)
	}
	return out, nil
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

type fakeAuditRepo struct{}

func (f *fakeAuditRepo) Create(_ context.Context, _ *model.AuditLog) error { return nil }
func (f *fakeAuditRepo) List(_ context.Context, _ string, _ uuid.UUID) ([]*model.AuditLog, error) {
	return nil, nil
}

func newTestService() (*Service, *fakeDoctorRepo) {
	repo := &fakeDoctorRepo{doctors: map[uuid.UUID]*model.Doctor{}}
	auditor := audit.NewService(&fakeAuditRepo{}, zerolog.Nop())
	return NewService(repo, auditor), repo
}

func seedDoctor(t *testing.T, svc *Service) *model.Doctor {
	t.Helper()
	doc, err := svc.CreateDoctor(context.Background(), &model.CreateDoctorRequest{
		FirstName:      "Maya",
		LastName:       "Okafor",
		Specialization: "Cardiology",
		Email:          "maya.okafor@myhealth.local",
		PhoneNumber:    "555-0101",
	})
	require.NoError(t, err)
	return doc
}

func TestFailedUpdateDoesNotPoisonCache(t *testing.T) {
	svc, repo := newTestService()
	doc := seedDoctor(t, svc)

	// Warm the cache with the persisted row.
	_, err := svc.GetDoctor(context.Background(), doc.ID)
	require.NoError(t, err)

	repo.failUpdate = true
	renamed := "Renamed"
	_, err = svc.UpdateDoctor(context.Background(), doc.ID, &model.UpdateDoctorRequest{
		FirstName: &renamed,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInternal))

	got, err := svc.GetDoctor(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maya", got.FirstName)
	assert.Equal(t, "Maya Okafor", got.FullName)
}

func TestGetDoctorReturnsPrivateCopy(t *testing.T) {
	svc, _ := newTestService()
	doc := seedDoctor(t, svc)

	first, err := svc.GetDoctor(context.Background(), doc.ID)
	require.NoError(t, err)
	first.FirstName = "Scribbled"

	second, err := svc.GetDoctor(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maya", second.FirstName)
}

func TestGetDoctorServesFromCache(t *testing.T) {
	svc, repo := newTestService()
	doc := seedDoctor(t, svc)

	_, err := svc.GetDoctor(context.Background(), doc.ID)
	require.NoError(t, err)

	// An out-of-band store write is invisible until the entry is dropped.
	repo.doctors[doc.ID].Specialization = "Neurology"

	cached, err := svc.GetDoctor(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cardiology", cached.Specialization)

	svc.InvalidateCache(doc.ID)
	fresh, err := svc.GetDoctor(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Neurology", fresh.Specialization)
}

func TestUpdateDoctorRefreshesCacheAndFullName(t *testing.T) {
	svc, _ := newTestService()
	doc := seedDoctor(t, svc)

	_, err := svc.GetDoctor(context.Background(), doc.ID)
	require.NoError(t, err)

	last := "Adeyemi"
	updated, err := svc.UpdateDoctor(context.Background(), doc.ID, &model.UpdateDoctorRequest{
		LastName: &last,
	})
	require.NoError(t, err)
	assert.Equal(t, "Maya Adeyemi", updated.FullName)

	got, err := svc.GetDoctor(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maya Adeyemi", got.FullName)
}

func TestDeactivateDoctor(t *testing.T) {
	svc, repo := newTestService()
	doc := seedDoctor(t, svc)

	_, err := svc.GetDoctor(context.Background(), doc.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateDoctor(context.Background(), doc.ID))
	assert.Equal(t, model.AvailabilityOnLeave, repo.doctors[doc.ID].AvailabilityStatus)

	got, err := svc.GetDoctor(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AvailabilityOnLeave, got.AvailabilityStatus)
}

func TestGetDoctorNotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.GetDoctor(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}
