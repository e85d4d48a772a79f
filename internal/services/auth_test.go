package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-admin-server/internal/models"
	"hospital-admin-server/internal/store"
)

func TestSeedDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	accounts, err := env.auth.ListAccounts(ctx, AccountFilter{})
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	admin, doctor := accounts[0], accounts[1]
	assert.Equal(t, "USR001", admin.UserID)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "System Administrator", admin.FullName)
	assert.Equal(t, "USR002", doctor.UserID)
	assert.Equal(t, "General Medicine", doctor.Specialization)
	assert.NotEqual(t, "admin123", admin.Password, "password must be hashed")

	require.NoError(t, env.auth.SeedDefaults(ctx))
	n, err := env.store.Count(ctx, store.Accounts, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account, err := env.auth.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "USR001", account.UserID)

	_, err = env.auth.Login(ctx, "admin", "wrong")
	requireKind(t, err, KindUnauthorized)
	assert.Equal(t, "Invalid username or password", Message(err))

	_, err = env.auth.Login(ctx, "nobody", "admin123")
	requireKind(t, err, KindUnauthorized)
	assert.Equal(t, "Invalid username or password", Message(err))

	_, err = env.auth.Login(ctx, "  ", "")
	requireValidation(t, err, "username")

	require.NoError(t, env.auth.DeactivateAccount(ctx, "USR002"))
	_, err = env.auth.Login(ctx, "doctor", "doctor123")
	requireKind(t, err, KindUnauthorized)
	assert.Equal(t, "User account is inactive", Message(err))
}

func TestIsActive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	active, err := env.auth.IsActive(ctx, "USR002")
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, env.auth.DeactivateAccount(ctx, "USR002"))
	active, err = env.auth.IsActive(ctx, "USR002")
	require.NoError(t, err)
	assert.False(t, active)

	active, err = env.auth.IsActive(ctx, "USR404")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.auth.ChangePassword(ctx, "USR001", "admin123", "short")
	requireValidation(t, err, "new_password")

	err = env.auth.ChangePassword(ctx, "USR001", "nope", "longenough")
	requireKind(t, err, KindUnauthorized)

	err = env.auth.ChangePassword(ctx, "USR404", "admin123", "longenough")
	requireKind(t, err, KindNotFound)

	require.NoError(t, env.auth.ChangePassword(ctx, "USR001", "admin123", "longenough"))
	_, err = env.auth.Login(ctx, "admin", "admin123")
	requireKind(t, err, KindUnauthorized)
	_, err = env.auth.Login(ctx, "admin", "longenough")
	assert.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	name := "Dr. Jane Smith"
	account, err := env.auth.UpdateProfile(ctx, "USR002", ProfileInput{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, name, account.FullName)
	assert.Equal(t, "doctor@hospital.com", account.Email)

	bad := "not-an-email"
	_, err = env.auth.UpdateProfile(ctx, "USR002", ProfileInput{Email: &bad})
	requireValidation(t, err, "email")

	blank := "   "
	_, err = env.auth.UpdateProfile(ctx, "USR002", ProfileInput{FullName: &blank})
	requireValidation(t, err, "full_name")

	account, err = env.auth.GetAccount(ctx, "USR002")
	require.NoError(t, err)
	assert.Equal(t, name, account.FullName)
}

func TestCreateAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	in := CreateAccountInput{
		Username: "nurse.kim",
		Password: "secret1",
		Role:     models.RoleNurse,
		FullName: "Kim Lee",
		Email:    "kim@hospital.com",
		Phone:    "(555) 222 3333",
	}
	account, err := env.auth.CreateAccount(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "USR003", account.UserID)
	assert.True(t, account.IsActive)

	_, err = env.auth.CreateAccount(ctx, in)
	requireKind(t, err, KindConflict)
	assert.Equal(t, "Username already exists", Message(err))

	in.Username = "janitor"
	in.Role = "janitor"
	_, err = env.auth.CreateAccount(ctx, in)
	requireValidation(t, err, "role")
}

func TestListDoctors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doctors, err := env.auth.ListDoctors(ctx)
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Equal(t, "USR002", doctors[0].UserID)

	require.NoError(t, env.auth.DeactivateAccount(ctx, "USR002"))
	doctors, err = env.auth.ListDoctors(ctx)
	require.NoError(t, err)
	assert.Empty(t, doctors)

	err = env.auth.DeactivateAccount(ctx, "USR404")
	requireKind(t, err, KindNotFound)
}

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role, required models.Role
		want           bool
	}{
		{models.RoleAdmin, models.RoleDoctor, true},
		{models.RoleDoctor, models.RoleDoctor, true},
		{models.RoleNurse, models.RoleDoctor, false},
		{models.RoleReceptionist, models.RoleNurse, false},
		{models.RoleNurse, models.RoleReceptionist, true},
		{models.Role("guest"), models.RoleReceptionist, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+"_"+string(tt.required), func(t *testing.T) {
			assert.Equal(t, tt.want, HasPermission(tt.role, tt.required))
		})
	}
}
