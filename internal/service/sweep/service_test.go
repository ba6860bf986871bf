package sweep

import (
	"context"
	"fmt"
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
	"github.com/myhealth/scheduling-api/pkg/metrics"
)

// Prometheus collectors register globally, so the package shares one set.
var testMetrics = metrics.New("sweep_test")

type fakeAppointmentRepo struct {
	appointments map[uuid.UUID]*model.Appointment
}

func (f *fakeAppointmentRepo) Create(_ context.Context, apt *model.Appointment) error {
	for _, existing := range f.appointments {
		if existing.DoctorID == apt.DoctorID && existing.Date.Equal(apt.Date) &&
			existing.Active() && existing.StartTime == apt.StartTime && existing.EndTime == apt.EndTime {
			return repository.ErrDuplicateSlot
		}
	}
	cp := *apt
	f.appointments[apt.ID] = &cp
	return nil
}

func (f *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, ok := f.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *apt
	return &cp, nil
}

func (f *fakeAppointmentRepo) Update(_ context.Context, apt *model.Appointment) error {
	if _, ok := f.appointments[apt.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *apt
	f.appointments[apt.ID] = &cp
	return nil
}

func (f *fakeAppointmentRepo) List(_ context.Context, _ *model.AppointmentFilters) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, apt := range f.appointments {
		out = append(out, apt)
	}
	return out, nil
}

func (f *fakeAppointmentRepo) CheckConflict(_ context.Context, doctorID uuid.UUID, date time.Time, startTime, endTime string, excludeID *uuid.UUID) (bool, error) {
	for _, apt := range f.appointments {
		if excludeID != nil && apt.ID == *excludeID {
			continue
		}
		if apt.DoctorID != doctorID || !apt.Date.Equal(date) || !apt.Active() {
			continue
		}
		if apt.StartTime < endTime && apt.EndTime > startTime {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAppointmentRepo) DueForReminder(_ context.Context, date time.Time) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, apt := range f.appointments {
		if apt.Date.Equal(date) && apt.Status == model.AppointmentStatusScheduled && !apt.ReminderSent {
			cp := *apt
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) ListRecurring(_ context.Context) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, apt := range f.appointments {
		if apt.IsRecurring && apt.Active() {
			cp := *apt
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) Summary(_ context.Context) (*model.AppointmentSummary, error) {
	return &model.AppointmentSummary{Total: len(f.appointments)}, nil
}

type fakePatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func (f *fakePatientRepo) Create(_ context.Context, p *model.Patient) error {
	f.patients[p.ID] = p
	return nil
}

func (f *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakePatientRepo) Update(_ context.Context, p *model.Patient) error {
	f.patients[p.ID] = p
	return nil
}

func (f *fakePatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.patients, id)
	return nil
}

func (f *fakePatientRepo) List(_ context.Context) ([]*model.Patient, error) { return nil, nil }
func (f *fakePatientRepo) ListDoctors(_ context.Context, _ uuid.UUID) ([]*model.Doctor, error) {
	return nil, nil
}

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
	return l, nil
}

func (f *fakeLeaveRepo) List(_ context.Context, _ *model.LeaveFilters) ([]*model.DoctorLeave, error) {
	return nil, nil
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
			cp := *l
			out = append(out, &cp)
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

type recordingNotifier struct {
	reminders []uuid.UUID
	fail      bool
}

func (n *recordingNotifier) SendConfirmation(_ context.Context, _ *model.Appointment, _ *model.Patient, _ *model.Doctor) error {
	return nil
}

func (n *recordingNotifier) SendReminder(_ context.Context, apt *model.Appointment, p *model.Patient, _ *model.Doctor) error {
	if n.fail {
		return apperrors.Delivery(p.Email, fmt.Errorf("smtp down"))
	}
	n.reminders = append(n.reminders, apt.ID)
	return nil
}

func (n *recordingNotifier) SendSlotOpened(_ context.Context, _ *model.WaitlistEntry, _ *model.Doctor) error {
	return nil
}

type fixture struct {
	svc          *Service
	appointments *fakeAppointmentRepo
	leaves       *fakeLeaveRepo
	notifier     *recordingNotifier
	patient      *model.Patient
	doctor       *model.Doctor
}

// The clock is pinned; "today" is 2026-09-10.
var frozenNow = time.Date(2026, 9, 10, 14, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	appointments := &fakeAppointmentRepo{appointments: map[uuid.UUID]*model.Appointment{}}
	patients := &fakePatientRepo{patients: map[uuid.UUID]*model.Patient{}}
	doctors := &fakeDoctorRepo{doctors: map[uuid.UUID]*model.Doctor{}}
	leaves := &fakeLeaveRepo{leaves: map[uuid.UUID]*model.DoctorLeave{}, doctors: doctors}
	notifier := &recordingNotifier{}

	p := &model.Patient{
		Base:      model.Base{ID: uuid.New()},
		FirstName: "Jordan",
		LastName:  "Lee",
		Email:     "jordan@example.com",
	}
	p.DeriveFullName()
	patients.patients[p.ID] = p

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

	svc := NewService(appointments, leaves, patients, doctorSvc, notifier, testMetrics, zerolog.Nop())
	svc.now = func() time.Time { return frozenNow }

	return &fixture{
		svc:          svc,
		appointments: appointments,
		leaves:       leaves,
		notifier:     notifier,
		patient:      p,
		doctor:       d,
	}
}

func (f *fixture) addAppointment(date string, status model.AppointmentStatus, mutate func(*model.Appointment)) *model.Appointment {
	apt := &model.Appointment{
		Base:      model.Base{ID: uuid.New()},
		PatientID: f.patient.ID,
		DoctorID:  f.doctor.ID,
		Service:   "Consultation",
		Date:      mustParse(date),
		StartTime: "09:00",
		EndTime:   "09:30",
		Status:    status,
	}
	if mutate != nil {
		mutate(apt)
	}
	f.appointments.appointments[apt.ID] = apt
	return apt
}

func mustParse(raw string) time.Time {
	date, err := time.Parse(model.DateFormat, raw)
	if err != nil {
		panic(err)
	}
	return date
}

func TestSendReminders(t *testing.T) {
	f := newFixture(t)

	due := f.addAppointment("2026-09-11", model.AppointmentStatusScheduled, nil)
	f.addAppointment("2026-09-12", model.AppointmentStatusScheduled, nil)
	f.addAppointment("2026-09-11", model.AppointmentStatusCancelled, nil)

	sent, err := f.svc.SendReminders(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sent)
	require.Len(t, f.notifier.reminders, 1)
	assert.Equal(t, due.ID, f.notifier.reminders[0])
	assert.True(t, f.appointments.appointments[due.ID].ReminderSent)

	// Idempotent: the flag keeps the second run quiet.
	sent, err = f.svc.SendReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Len(t, f.notifier.reminders, 1)
}

func TestSendRemindersRetriesAfterDeliveryFailure(t *testing.T) {
	f := newFixture(t)

	due := f.addAppointment("2026-09-11", model.AppointmentStatusScheduled, nil)

	f.notifier.fail = true
	sent, err := f.svc.SendReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	// Flag stays down on failure so the next run retries.
	assert.False(t, f.appointments.appointments[due.ID].ReminderSent)

	f.notifier.fail = false
	sent, err = f.svc.SendReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.True(t, f.appointments.appointments[due.ID].ReminderSent)
}

func TestRollRecurring(t *testing.T) {
	f := newFixture(t)

	series := f.addAppointment("2026-09-08", model.AppointmentStatusCompleted, func(a *model.Appointment) {
		a.IsRecurring = true
		a.RecurrenceInterval = 7
		a.ReminderSent = true
		a.ConfirmationSent = true
	})

	created, err := f.svc.RollRecurring(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	head := f.appointments.appointments[series.ID]
	assert.Equal(t, mustParse("2026-09-15"), head.Date)
	assert.False(t, head.ReminderSent)
	assert.False(t, head.ConfirmationSent)

	var copies int
	for _, apt := range f.appointments.appointments {
		if apt.ID == series.ID {
			continue
		}
		copies++
		assert.Equal(t, mustParse("2026-09-15"), apt.Date)
		assert.Equal(t, model.AppointmentStatusScheduled, apt.Status)
		assert.False(t, apt.IsRecurring)
	}
	assert.Equal(t, 1, copies)
}

func TestRollRecurringSkipsFutureDates(t *testing.T) {
	f := newFixture(t)

	f.addAppointment("2026-09-20", model.AppointmentStatusScheduled, func(a *model.Appointment) {
		a.IsRecurring = true
		a.RecurrenceInterval = 7
	})

	created, err := f.svc.RollRecurring(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestRollRecurringSkipsConflicts(t *testing.T) {
	f := newFixture(t)

	f.addAppointment("2026-09-08", model.AppointmentStatusCompleted, func(a *model.Appointment) {
		a.IsRecurring = true
		a.RecurrenceInterval = 7
	})
	// The target slot on 09-15 is already taken.
	f.addAppointment("2026-09-15", model.AppointmentStatusScheduled, nil)

	created, err := f.svc.RollRecurring(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Len(t, f.appointments.appointments, 2)
}

func TestRollRecurringSkipsLeave(t *testing.T) {
	f := newFixture(t)

	f.addAppointment("2026-09-08", model.AppointmentStatusCompleted, func(a *model.Appointment) {
		a.IsRecurring = true
		a.RecurrenceInterval = 7
	})
	leave := &model.DoctorLeave{
		Base:       model.Base{ID: uuid.New()},
		DoctorID:   f.doctor.ID,
		LeaveStart: mustParse("2026-09-14"),
		LeaveEnd:   mustParse("2026-09-16"),
		Status:     model.LeaveStatusApproved,
	}
	f.leaves.leaves[leave.ID] = leave

	created, err := f.svc.RollRecurring(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestExpireLeaves(t *testing.T) {
	f := newFixture(t)
	f.doctor.AvailabilityStatus = model.AvailabilityOnLeave

	ended := &model.DoctorLeave{
		Base:       model.Base{ID: uuid.New()},
		DoctorID:   f.doctor.ID,
		LeaveStart: mustParse("2026-09-01"),
		LeaveEnd:   mustParse("2026-09-09"),
		Status:     model.LeaveStatusApproved,
	}
	ongoing := &model.DoctorLeave{
		Base:       model.Base{ID: uuid.New()},
		DoctorID:   f.doctor.ID,
		LeaveStart: mustParse("2026-09-10"),
		LeaveEnd:   mustParse("2026-09-20"),
		Status:     model.LeaveStatusApproved,
	}
	f.leaves.leaves[ended.ID] = ended
	f.leaves.leaves[ongoing.ID] = ongoing

	count, err := f.svc.ExpireLeaves(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, count)
	assert.Equal(t, model.LeaveStatusCompleted, f.leaves.leaves[ended.ID].Status)
	assert.Equal(t, model.LeaveStatusApproved, f.leaves.leaves[ongoing.ID].Status)
	assert.Equal(t, model.AvailabilityAvailable, f.doctor.AvailabilityStatus)
}
