package patient

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
	apperrors "github.com/myhealth/scheduling-api/pkg/errors"
)

type fakePatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func (f *fakePatientRepo) Create(_ context.Context, p *model.Patient) error {
	cp := *p
	f.patients[p.ID] = &cp
	return nil
}

func (f *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePatientRepo) Update(_ context.Context, p *model.Patient) error {
	if _, ok := f.patients[p.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	f.patients[p.ID] = &cp
	return nil
}

func (f *fakePatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.patients[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.patients, id)
	return nil
}

func (f *fakePatientRepo) List(_ context.Context) ([]*model.Patient, error) {
	var out []*model.Patient
	for _, p := range f.patients {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakePatientRepo) ListDoctors(_ context.Context, _ uuid.UUID) ([]*model.Doctor, error) {
	return nil, nil
}

type fakeAppointmentRepo struct {
	appointments []*model.Appointment
}

func (f *fakeAppointmentRepo) Create(_ context.Context, apt *model.Appointment) error {
	f.appointments = append(f.appointments, apt)
	return nil
}

func (f *fakeAppointmentRepo) Get(_ context.Context, _ uuid.UUID) (*model.Appointment, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeAppointmentRepo) Update(_ context.Context, _ *model.Appointment) error { return nil }

func (f *fakeAppointmentRepo) List(_ context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, apt := range f.appointments {
		if filters.PatientID != uuid.Nil && apt.PatientID != filters.PatientID {
			continue
		}
		out = append(out, apt)
	}
	return out, nil
}

func (f *fakeAppointmentRepo) CheckConflict(_ context.Context, _ uuid.UUID, _ time.Time, _, _ string, _ *uuid.UUID) (bool, error) {
	return false, nil
}

func (f *fakeAppointmentRepo) DueForReminder(_ context.Context, _ time.Time) ([]*model.Appointment, error) {
	return nil, nil
}

func (f *fakeAppointmentRepo) ListRecurring(_ context.Context) ([]*model.Appointment, error) {
	return nil, nil
}

func (f *fakeAppointmentRepo) Summary(_ context.Context) (*model.AppointmentSummary, error) {
	return nil, nil
}

type fakeAuditRepo struct{}

func (f *fakeAuditRepo) Create(_ context.Context, _ *model.AuditLog) error { return nil }
func (f *fakeAuditRepo) List(_ context.Context, _ string, _ uuid.UUID) ([]*model.AuditLog, error) {
	return nil, nil
}

func newTestService() (*Service, *fakePatientRepo, *fakeAppointmentRepo) {
	patients := &fakePatientRepo{patients: map[uuid.UUID]*model.Patient{}}
	appointments := &fakeAppointmentRepo{}
	auditor := audit.NewService(&fakeAuditRepo{}, zerolog.Nop())
	return NewService(patients, appointments, auditor), patients, appointments
}

func TestCreatePatientDerivesFields(t *testing.T) {
	svc, _, _ := newTestService()

	p, err := svc.CreatePatient(context.Background(), &model.CreatePatientRequest{
		FirstName:   "Jordan",
		LastName:    "Lee",
		DateOfBirth: "1990-03-15",
		Email:       "jordan@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "Jordan Lee", p.FullName)
	assert.Contains(t, p.Age, "years")
	assert.Contains(t, p.Age, "months")
}

func TestCreatePatientFutureDOBRejected(t *testing.T) {
	svc, _, _ := newTestService()

	future := time.Now().AddDate(1, 0, 0).Format(model.DateFormat)
	_, err := svc.CreatePatient(context.Background(), &model.CreatePatientRequest{
		FirstName:   "Jordan",
		LastName:    "Lee",
		DateOfBirth: future,
		Email:       "jordan@example.com",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))
}

func TestCreatePatientWithoutDOB(t *testing.T) {
	svc, _, _ := newTestService()

	p, err := svc.CreatePatient(context.Background(), &model.CreatePatientRequest{
		FirstName: "Jordan",
		LastName:  "Lee",
		Email:     "jordan@example.com",
	})
	require.NoError(t, err)
	assert.Nil(t, p.DateOfBirth)
	assert.Empty(t, p.Age)
}

func TestUpdatePatientRederivesFullName(t *testing.T) {
	svc, _, _ := newTestService()

	p, err := svc.CreatePatient(context.Background(), &model.CreatePatientRequest{
		FirstName: "Jordan",
		LastName:  "Lee",
		Email:     "jordan@example.com",
	})
	require.NoError(t, err)

	last := "Nguyen"
	updated, err := svc.UpdatePatient(context.Background(), p.ID, &model.UpdatePatientRequest{LastName: &last})
	require.NoError(t, err)
	assert.Equal(t, "Jordan Nguyen", updated.FullName)
}

func TestUploadFiles(t *testing.T) {
	svc, patients, _ := newTestService()

	p, err := svc.CreatePatient(context.Background(), &model.CreatePatientRequest{
		FirstName: "Jordan",
		LastName:  "Lee",
		Email:     "jordan@example.com",
	})
	require.NoError(t, err)

	idDoc := "/uploads/id-123.pdf"
	card := "/uploads/card-123.pdf"
	updated, err := svc.UploadFiles(context.Background(), p.ID, &model.UploadPatientFilesRequest{
		IDDocument:    &idDoc,
		InsuranceCard: &card,
	})
	require.NoError(t, err)

	assert.Equal(t, idDoc, updated.IDDocument)
	assert.Equal(t, card, patients.patients[p.ID].InsuranceCard)
}

func TestHistoryFiltersByPatient(t *testing.T) {
	svc, _, appointments := newTestService()

	p, err := svc.CreatePatient(context.Background(), &model.CreatePatientRequest{
		FirstName: "Jordan",
		LastName:  "Lee",
		Email:     "jordan@example.com",
	})
	require.NoError(t, err)

	mine := &model.Appointment{Base: model.Base{ID: uuid.New()}, PatientID: p.ID}
	other := &model.Appointment{Base: model.Base{ID: uuid.New()}, PatientID: uuid.New()}
	appointments.appointments = append(appointments.appointments, mine, other)

	history, err := svc.History(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, mine.ID, history[0].ID)
}

func TestGetPatientNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.GetPatient(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}
