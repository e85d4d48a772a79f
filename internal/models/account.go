package models

import (
	"golang.org/x/crypto/bcrypt"
)

// Role enum
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDoctor       Role = "doctor"
	RoleNurse        Role = "nurse"
	RoleReceptionist Role = "receptionist"
)

var roleLevels = map[Role]int{
	RoleAdmin:        4,
	RoleDoctor:       3,
	RoleNurse:        2,
	RoleReceptionist: 1,
}

// Valid reports whether r is one of the four staff roles.
func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// Level is the role's rank in the hierarchy; 0 for unknown roles.
func (r Role) Level() int {
	return roleLevels[r]
}

// Account is a staff login. Stored in the legacy "users" table.
type Account struct {
	BaseModel
	UserID         string `gorm:"size:50;uniqueIndex;not null" json:"user_id"`
	Username       string `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Password       string `gorm:"size:255;not null" json:"-"` // bcrypt hash, never serialized
	Role           Role   `gorm:"size:20;not null" json:"role"`
	FullName       string `gorm:"size:200;not null" json:"full_name"`
	Email          string `gorm:"size:200;not null" json:"email"`
	Phone          string `gorm:"size:20" json:"phone,omitempty"`
	Specialization string `gorm:"size:200" json:"specialization,omitempty"`
	IsActive       bool   `gorm:"not null" json:"is_active"`
}

func (Account) TableName() string { return "users" }

func (a Account) BusinessID() string { return a.UserID }

func (Account) entity() {}

// SetPassword hashes a password and sets it on the account
func (a *Account) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.Password = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the account's hashed password
func (a *Account) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(password))
	return err == nil
}
