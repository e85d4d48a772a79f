package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-admin-server/internal/store"
)

func validPatientInput() RegisterPatientInput {
	return RegisterPatientInput{
		FirstName:   "John",
		LastName:    "Carter",
		DateOfBirth: "1970-01-31",
		Gender:      "Male",
		Phone:       "(555) 987-6543",
		Email:       "john.carter@example.com",
		BloodGroup:  "AB-",
	}
}

func TestRegisterPatient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.patients.Register(ctx, validPatientInput())
	require.NoError(t, err)
	assert.Equal(t, "PAT001", p.PatientID)
	assert.Equal(t, "2024-03-15", p.RegistrationDate)
	assert.True(t, p.IsActive)
	assert.Equal(t, "John Carter", p.FullName())

	second := env.registerPatient(t, "Mary", "Major")
	assert.Equal(t, "PAT002", second.PatientID)
}

func TestRegisterPatientValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*RegisterPatientInput)
		field  string
	}{
		{"blank first name", func(in *RegisterPatientInput) { in.FirstName = "   " }, "first_name"},
		{"missing last name", func(in *RegisterPatientInput) { in.LastName = "" }, "last_name"},
		{"bad date", func(in *RegisterPatientInput) { in.DateOfBirth = "31/01/1970" }, "date_of_birth"},
		{"future birth", func(in *RegisterPatientInput) { in.DateOfBirth = "2030-01-01" }, "date_of_birth"},
		{"gender", func(in *RegisterPatientInput) { in.Gender = "Unknown" }, "gender"},
		{"short phone", func(in *RegisterPatientInput) { in.Phone = "12345" }, "phone"},
		{"letters in phone", func(in *RegisterPatientInput) { in.Phone = "555-CALL-NOW1" }, "phone"},
		{"email", func(in *RegisterPatientInput) { in.Email = "john@" }, "email"},
		{"blood group", func(in *RegisterPatientInput) { in.BloodGroup = "C+" }, "blood_group"},
	}

	env := newTestEnv(t)
	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validPatientInput()
			tt.modify(&in)
			_, err := env.patients.Register(ctx, in)
			requireValidation(t, err, tt.field)
		})
	}

	n, err := env.store.Count(ctx, store.Patients, nil)
	require.NoError(t, err)
	assert.Zero(t, n, "no row may be written on invalid input")
}

func TestSearchPatients(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.registerPatient(t, "Alice", "Walker")
	bob := env.registerPatient(t, "Bob", "Stone")
	env.registerPatient(t, "Alicia", "Keys")

	found, err := env.patients.Search(ctx, "ALIC")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = env.patients.Search(ctx, "pat002")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, bob.PatientID, found[0].PatientID)

	found, err = env.patients.Search(ctx, "123-4567")
	require.NoError(t, err)
	assert.Len(t, found, 3)

	require.NoError(t, env.patients.Deactivate(ctx, bob.PatientID))
	found, err = env.patients.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestDeactivatePatient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.registerPatient(t, "Alice", "Walker")

	require.NoError(t, env.patients.Deactivate(ctx, p.PatientID))

	all, err := env.patients.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsActive)

	active, err := env.patients.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, active)

	n, err := env.patients.CountActive(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	requireKind(t, env.patients.Deactivate(ctx, "PAT404"), KindNotFound)
}

func TestUpdatePatient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.registerPatient(t, "Alice", "Walker")

	phone := "+1 555 000 1111"
	_, err := env.patients.Update(ctx, p.PatientID, UpdatePatientInput{Phone: &phone})
	requireValidation(t, err, "phone")

	phone = "555 000 1111"
	address := "12 Elm Street"
	updated, err := env.patients.Update(ctx, p.PatientID, UpdatePatientInput{Phone: &phone, Address: &address})
	require.NoError(t, err)
	assert.Equal(t, phone, updated.Phone)
	assert.Equal(t, address, updated.Address)
	assert.Equal(t, "Alice", updated.FirstName)

	_, err = env.patients.Update(ctx, "PAT404", UpdatePatientInput{Address: &address})
	requireKind(t, err, KindNotFound)
	assert.Equal(t, "Patient not found", Message(err))

	blank := "   "
	_, err = env.patients.Update(ctx, p.PatientID, UpdatePatientInput{FirstName: &blank})
	requireValidation(t, err, "first_name")
	_, err = env.patients.Update(ctx, p.PatientID, UpdatePatientInput{LastName: &blank})
	requireValidation(t, err, "last_name")

	padded := "  Alicia "
	updated, err = env.patients.Update(ctx, p.PatientID, UpdatePatientInput{FirstName: &padded})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", updated.FirstName)
	assert.Equal(t, "Walker", updated.LastName)
	assert.Equal(t, "  Alicia ", padded)
}

func TestPurgePatient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.registerPatient(t, "Alice", "Walker")

	require.NoError(t, env.patients.Purge(ctx, p.PatientID))
	_, err := env.patients.Get(ctx, p.PatientID)
	requireKind(t, err, KindNotFound)

	requireKind(t, env.patients.Purge(ctx, p.PatientID), KindNotFound)
}
