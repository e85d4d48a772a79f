package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hospital-admin-server/internal/logger"
	"hospital-admin-server/internal/models"
	"hospital-admin-server/internal/store"
)

var fixedNow = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hospital.db")
	db, err := models.InitDB(models.DatabaseConfig{
		Driver: "sqlite",
		Path:   path,
		DSN:    path + "?_busy_timeout=5000&_foreign_keys=on",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return store.New(db, logger.Discard())
}

type testEnv struct {
	store        *store.Store
	auth         *AuthService
	patients     *PatientService
	appointments *AppointmentService
	billing      *BillingService
	reports      *ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s := newTestStore(t)
	log := logger.Discard()
	env := &testEnv{
		store:        s,
		auth:         NewAuthService(s, log),
		patients:     NewPatientService(s, log),
		appointments: NewAppointmentService(s, log),
		billing:      NewBillingService(s, log, 0),
		reports:      NewReportService(s, log),
	}
	clock := func() time.Time { return fixedNow }
	env.patients.now = clock
	env.billing.now = clock
	env.reports.now = clock
	require.NoError(t, env.auth.SeedDefaults(context.Background()))
	return env
}

func (e *testEnv) registerPatient(t *testing.T, first, last string) *models.Patient {
	t.Helper()
	p, err := e.patients.Register(context.Background(), RegisterPatientInput{
		FirstName:   first,
		LastName:    last,
		DateOfBirth: "1985-06-20",
		Gender:      "Female",
		Phone:       "555-123-4567",
		BloodGroup:  "O+",
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) schedule(t *testing.T, patientID, date string) *models.Appointment {
	t.Helper()
	a, err := e.appointments.Schedule(context.Background(), ScheduleInput{
		PatientID:       patientID,
		DoctorID:        "USR002",
		AppointmentDate: date,
		AppointmentTime: "09:30",
		Reason:          "Follow-up",
	})
	require.NoError(t, err)
	return a
}

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "error: %v", err)
}

func requireValidation(t *testing.T, err error, field string) {
	t.Helper()
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "want ValidationError, got %v", err)
	if field != "" {
		require.Equal(t, field, ve.Field)
	}
}
