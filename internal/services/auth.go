package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"hospital-admin-server/internal/logger"
	"hospital-admin-server/internal/models"
	"hospital-admin-server/internal/store"
)

// ProfileInput holds the self-editable account fields. Nil means unchanged.
type ProfileInput struct {
	FullName       *string `json:"full_name" validate:"omitempty,min=1,max=200"`
	Email          *string `json:"email" validate:"omitempty,mail"`
	Phone          *string `json:"phone" validate:"omitempty,phone"`
	Specialization *string `json:"specialization" validate:"omitempty,max=200"`
}

// CreateAccountInput is what an admin supplies for a new staff login.
type CreateAccountInput struct {
	Username       string      `json:"username" validate:"required,min=3,max=100"`
	Password       string      `json:"password" validate:"required,min=6"`
	Role           models.Role `json:"role" validate:"required,oneof=admin doctor nurse receptionist"`
	FullName       string      `json:"full_name" validate:"required,max=200"`
	Email          string      `json:"email" validate:"required,mail"`
	Phone          string      `json:"phone" validate:"omitempty,phone"`
	Specialization string      `json:"specialization" validate:"max=200"`
}

// AccountFilter narrows ListAccounts. Zero values match everything.
type AccountFilter struct {
	Role   models.Role
	Active *bool
}

// AuthService handles logins and staff accounts.
type AuthService struct {
	store store.DataAccess
	log   *logger.Logger
}

func NewAuthService(da store.DataAccess, log *logger.Logger) *AuthService {
	return &AuthService{store: da, log: log}
}

// HasPermission reports whether role ranks at or above required in
// admin > doctor > nurse > receptionist.
func HasPermission(role, required models.Role) bool {
	if !role.Valid() {
		return false
	}
	return role.Level() >= required.Level()
}

// Login checks the credentials and returns the matching active account.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.Account, error) {
	const op = "auth.login"
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, invalid("username", "Username and password are required")
	}

	accounts, err := store.ReadAs[models.Account](ctx, s.store, store.Filters{"username": username})
	if err != nil {
		s.log.WithFields(logrus.Fields{"Function": "Login", "Error": err}).Error("Failed to load account")
		return nil, storageFailure(op, "Invalid username or password", "Failed to load user data", err)
	}
	if len(accounts) == 0 {
		s.log.Audit("", "login", username, false)
		return nil, newDomainError(op, KindUnauthorized, "Invalid username or password")
	}

	account := accounts[0]
	if !account.IsActive {
		s.log.Audit(account.UserID, "login", username, false)
		return nil, newDomainError(op, KindUnauthorized, "User account is inactive")
	}
	if !account.CheckPassword(password) {
		s.log.Audit(account.UserID, "login", username, false)
		return nil, newDomainError(op, KindUnauthorized, "Invalid username or password")
	}

	s.log.Audit(account.UserID, "login", username, true)
	return &account, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	const op = "auth.change_password"
	if oldPassword == "" {
		return invalid("old_password", "Current password is required")
	}
	if len(newPassword) < 6 {
		return invalid("new_password", "New password must be at least 6 characters long")
	}

	account, err := s.GetAccount(ctx, userID)
	if err != nil {
		return err
	}
	if !account.CheckPassword(oldPassword) {
		s.log.Audit(userID, "change_password", userID, false)
		return newDomainError(op, KindUnauthorized, "Current password is incorrect")
	}
	if err := account.SetPassword(newPassword); err != nil {
		return &DomainError{Op: op, Kind: KindInternal, Message: "Failed to update password", Err: err}
	}

	err = s.store.Update(ctx, store.Accounts, userID, "user_id", store.Record{"password": account.Password})
	if err != nil {
		return storageFailure(op, "User not found", "Failed to update password", err)
	}
	s.log.Audit(userID, "change_password", userID, true)
	return nil
}

// UpdateProfile edits the caller's own display fields.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.Account, error) {
	const op = "auth.update_profile"
	in.FullName = trimmed(in.FullName)
	in.Email = trimmed(in.Email)
	in.Phone = trimmed(in.Phone)
	in.Specialization = trimmed(in.Specialization)
	if err := check(in); err != nil {
		return nil, err
	}

	changes := store.Record{}
	if in.FullName != nil {
		changes["full_name"] = *in.FullName
	}
	if in.Email != nil {
		changes["email"] = *in.Email
	}
	if in.Phone != nil {
		changes["phone"] = *in.Phone
	}
	if in.Specialization != nil {
		changes["specialization"] = *in.Specialization
	}

	if err := s.store.Update(ctx, store.Accounts, userID, "user_id", changes); err != nil {
		return nil, storageFailure(op, "User not found", "Failed to update profile", err)
	}
	return s.GetAccount(ctx, userID)
}

// CreateAccount adds a staff login with the next USR id.
func (s *AuthService) CreateAccount(ctx context.Context, in CreateAccountInput) (*models.Account, error) {
	const op = "auth.create_account"
	in.Username = strings.TrimSpace(in.Username)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := check(in); err != nil {
		return nil, err
	}

	taken, err := s.store.Count(ctx, store.Accounts, store.Filters{"username": in.Username})
	if err != nil {
		return nil, storageFailure(op, "", "Failed to create account", err)
	}
	if taken > 0 {
		return nil, newDomainError(op, KindConflict, "Username already exists")
	}

	draft := models.Account{
		Username:       in.Username,
		Role:           in.Role,
		FullName:       in.FullName,
		Email:          in.Email,
		Phone:          in.Phone,
		Specialization: in.Specialization,
		IsActive:       true,
	}
	if err := draft.SetPassword(in.Password); err != nil {
		return nil, &DomainError{Op: op, Kind: KindInternal, Message: "Failed to create account", Err: err}
	}

	account, err := store.CreateNext(ctx, s.store, store.AccountPrefix, func(id string) models.Account {
		a := draft
		a.UserID = id
		return a
	})
	if err != nil {
		if store.IsConstraint(err) {
			return nil, &DomainError{Op: op, Kind: KindConflict, Message: "Username already exists", Err: err}
		}
		return nil, storageFailure(op, "", "Failed to create account", err)
	}

	s.log.WithFields(logrus.Fields{
		"Function": "CreateAccount",
		"UserID":   account.UserID,
		"Role":     account.Role,
	}).Info("Account created")
	return &account, nil
}

// DeactivateAccount blocks further logins; the row is kept.
func (s *AuthService) DeactivateAccount(ctx context.Context, userID string) error {
	if err := s.store.Deactivate(ctx, store.Accounts, userID); err != nil {
		return storageFailure("auth.deactivate_account", "User not found", "Failed to deactivate account", err)
	}
	s.log.Audit(userID, "deactivate", "account", true)
	return nil
}

func (s *AuthService) GetAccount(ctx context.Context, userID string) (*models.Account, error) {
	account, err := store.FindOne[models.Account](ctx, s.store, userID)
	if err != nil {
		return nil, storageFailure("auth.get_account", "User not found", "Failed to load user data", err)
	}
	return &account, nil
}

// IsActive reports whether userID names an active account. A missing
// account is inactive, not an error.
func (s *AuthService) IsActive(ctx context.Context, userID string) (bool, error) {
	account, err := store.FindOne[models.Account](ctx, s.store, userID)
	if store.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, storageFailure("auth.is_active", "", "Failed to load user data", err)
	}
	return account.IsActive, nil
}

func (s *AuthService) ListAccounts(ctx context.Context, f AccountFilter) ([]models.Account, error) {
	filters := store.Filters{}
	if f.Role != "" {
		if !f.Role.Valid() {
			return nil, invalid("role", "Invalid role")
		}
		filters["role"] = f.Role
	}
	if f.Active != nil {
		filters["is_active"] = *f.Active
	}

	accounts, err := store.ReadAs[models.Account](ctx, s.store, filters)
	if err != nil {
		return nil, storageFailure("auth.list_accounts", "", "Failed to load accounts", err)
	}
	return accounts, nil
}

// ListDoctors returns active doctor accounts for appointment booking.
func (s *AuthService) ListDoctors(ctx context.Context) ([]models.Account, error) {
	active := true
	return s.ListAccounts(ctx, AccountFilter{Role: models.RoleDoctor, Active: &active})
}

type seedAccount struct {
	username, password string
	role               models.Role
	fullName, email    string
	phone, speciality  string
}

var defaultAccounts = []seedAccount{
	{"admin", "admin123", models.RoleAdmin, "System Administrator", "admin@hospital.com", "1234567890", ""},
	{"doctor", "doctor123", models.RoleDoctor, "Dr. John Smith", "doctor@hospital.com", "9876543210", "General Medicine"},
}

// SeedDefaults creates the admin and doctor logins on an empty accounts
// collection. It does nothing otherwise.
func (s *AuthService) SeedDefaults(ctx context.Context) error {
	n, err := s.store.Count(ctx, store.Accounts, nil)
	if err != nil {
		return storageFailure("auth.seed", "", "Failed to seed default accounts", err)
	}
	if n > 0 {
		return nil
	}

	for _, seed := range defaultAccounts {
		_, err := s.CreateAccount(ctx, CreateAccountInput{
			Username:       seed.username,
			Password:       seed.password,
			Role:           seed.role,
			FullName:       seed.fullName,
			Email:          seed.email,
			Phone:          seed.phone,
			Specialization: seed.speciality,
		})
		if err != nil {
			return err
		}
	}

	s.log.WithComponent("auth").Warn("Default accounts created; change their passwords")
	return nil
}
