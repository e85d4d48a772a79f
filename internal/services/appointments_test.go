package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-admin-server/internal/models"
)

func TestScheduleAppointment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.registerPatient(t, "Alice", "Walker")

	a := env.schedule(t, p.PatientID, "2024-03-20")
	assert.Equal(t, "APT001", a.AppointmentID)
	assert.Equal(t, models.StatusScheduled, a.Status)
	assert.Equal(t, "Alice Walker", a.PatientName)
	assert.Equal(t, "Dr. John Smith", a.DoctorName)
	assert.Equal(t, "General Medicine", a.Department)

	got, err := env.appointments.Get(ctx, "APT001")
	require.NoError(t, err)
	assert.Equal(t, a.AppointmentID, got.AppointmentID)
}

func TestScheduleAppointmentRejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	active := env.registerPatient(t, "Alice", "Walker")
	inactive := env.registerPatient(t, "Bob", "Stone")
	require.NoError(t, env.patients.Deactivate(ctx, inactive.PatientID))

	base := ScheduleInput{
		PatientID:       active.PatientID,
		DoctorID:        "USR002",
		AppointmentDate: "2024-03-20",
		AppointmentTime: "14:00",
		Reason:          "Checkup",
	}

	t.Run("bad time", func(t *testing.T) {
		in := base
		in.AppointmentTime = "2pm"
		_, err := env.appointments.Schedule(ctx, in)
		requireValidation(t, err, "appointment_time")
	})

	t.Run("missing reason", func(t *testing.T) {
		in := base
		in.Reason = "  "
		_, err := env.appointments.Schedule(ctx, in)
		requireValidation(t, err, "reason")
	})

	t.Run("inactive patient", func(t *testing.T) {
		in := base
		in.PatientID = inactive.PatientID
		_, err := env.appointments.Schedule(ctx, in)
		requireKind(t, err, KindInvalid)
	})

	t.Run("unknown patient", func(t *testing.T) {
		in := base
		in.PatientID = "PAT404"
		_, err := env.appointments.Schedule(ctx, in)
		requireKind(t, err, KindNotFound)
		assert.Equal(t, "Patient not found", Message(err))
	})

	t.Run("admin is not a doctor", func(t *testing.T) {
		in := base
		in.DoctorID = "USR001"
		_, err := env.appointments.Schedule(ctx, in)
		requireKind(t, err, KindInvalid)
	})

	list, err := env.appointments.List(ctx, AppointmentFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAppointmentStatusTransitions(t *testing.T) {
	tests := []struct {
		path []models.AppointmentStatus
		ok   bool
	}{
		{[]models.AppointmentStatus{models.StatusConfirmed}, true},
		{[]models.AppointmentStatus{models.StatusCancelled}, true},
		{[]models.AppointmentStatus{models.StatusConfirmed, models.StatusCompleted}, true},
		{[]models.AppointmentStatus{models.StatusConfirmed, models.StatusCancelled}, true},
		{[]models.AppointmentStatus{models.StatusCompleted}, false},
		{[]models.AppointmentStatus{models.StatusScheduled}, false},
		{[]models.AppointmentStatus{models.StatusCancelled, models.StatusConfirmed}, false},
		{[]models.AppointmentStatus{models.StatusConfirmed, models.StatusCompleted, models.StatusCancelled}, false},
	}

	env := newTestEnv(t)
	ctx := context.Background()
	p := env.registerPatient(t, "Alice", "Walker")

	for _, tt := range tests {
		a := env.schedule(t, p.PatientID, "2024-04-01")
		var err error
		for _, status := range tt.path {
			if _, err = env.appointments.UpdateStatus(ctx, a.AppointmentID, status, ""); err != nil {
				break
			}
		}
		if tt.ok {
			assert.NoError(t, err, "path %v", tt.path)
		} else {
			requireKind(t, err, KindConflict)
		}
	}
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.registerPatient(t, "Alice", "Walker")
	a := env.schedule(t, p.PatientID, "2024-04-01")

	_, err := env.appointments.UpdateStatus(ctx, a.AppointmentID, "archived", "")
	requireValidation(t, err, "status")

	_, err = env.appointments.UpdateStatus(ctx, "APT404", models.StatusConfirmed, "")
	requireKind(t, err, KindNotFound)

	got, err := env.appointments.Get(ctx, a.AppointmentID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, got.Status)
}

func TestUpdateStatusNotesAndCancel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.registerPatient(t, "Alice", "Walker")
	a := env.schedule(t, p.PatientID, "2024-04-01")

	confirmed, err := env.appointments.UpdateStatus(ctx, a.AppointmentID, models.StatusConfirmed, "Called patient")
	require.NoError(t, err)
	assert.Equal(t, "Called patient", confirmed.Notes)

	cancelled, err := env.appointments.Cancel(ctx, a.AppointmentID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, "Called patient", cancelled.Notes)

	_, err = env.appointments.Cancel(ctx, a.AppointmentID)
	requireKind(t, err, KindConflict)
}

func TestUpdateStatusConcurrentMoves(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.registerPatient(t, "Alice", "Walker")
	a := env.schedule(t, p.PatientID, "2024-04-01")
	_, err := env.appointments.UpdateStatus(ctx, a.AppointmentID, models.StatusConfirmed, "")
	require.NoError(t, err)

	targets := []models.AppointmentStatus{
		models.StatusCompleted, models.StatusCancelled,
		models.StatusCompleted, models.StatusCancelled,
	}
	errs := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, status := range targets {
		wg.Add(1)
		go func(i int, status models.AppointmentStatus) {
			defer wg.Done()
			_, errs[i] = env.appointments.UpdateStatus(ctx, a.AppointmentID, status, "")
		}(i, status)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		requireKind(t, err, KindConflict)
	}
	assert.Equal(t, 1, won)
}

func TestListAppointments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.registerPatient(t, "Alice", "Walker")
	bob := env.registerPatient(t, "Bob", "Stone")

	env.schedule(t, alice.PatientID, "2024-04-01")
	env.schedule(t, alice.PatientID, "2024-04-02")
	b := env.schedule(t, bob.PatientID, "2024-04-01")
	_, err := env.appointments.UpdateStatus(ctx, b.AppointmentID, models.StatusConfirmed, "")
	require.NoError(t, err)

	byPatient, err := env.appointments.List(ctx, AppointmentFilter{PatientID: alice.PatientID})
	require.NoError(t, err)
	assert.Len(t, byPatient, 2)

	byDate, err := env.appointments.List(ctx, AppointmentFilter{Date: "2024-04-01"})
	require.NoError(t, err)
	assert.Len(t, byDate, 2)

	confirmed, err := env.appointments.List(ctx, AppointmentFilter{Status: models.StatusConfirmed})
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, b.AppointmentID, confirmed[0].AppointmentID)

	_, err = env.appointments.List(ctx, AppointmentFilter{Status: "lost"})
	requireValidation(t, err, "status")
}
