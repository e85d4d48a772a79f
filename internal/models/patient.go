package models

import (
	"strings"
	"time"
)

// Patient represents a registered patient.
// Dates are kept as YYYY-MM-DD text to stay compatible with existing data files.
type Patient struct {
	BaseModel
	PatientID        string `gorm:"size:50;uniqueIndex;not null" json:"patient_id"`
	FirstName        string `gorm:"size:100;not null" json:"first_name"`
	LastName         string `gorm:"size:100;not null" json:"last_name"`
	DateOfBirth      string `gorm:"size:20;not null" json:"date_of_birth"`
	Gender           string `gorm:"size:20;not null" json:"gender"`
	Phone            string `gorm:"size:20;not null" json:"phone"`
	Email            string `gorm:"size:200" json:"email,omitempty"`
	Address          string `gorm:"type:text" json:"address,omitempty"`
	BloodGroup       string `gorm:"size:10" json:"blood_group,omitempty"`
	EmergencyContact string `gorm:"size:20" json:"emergency_contact,omitempty"`
	RegistrationDate string `gorm:"size:20;not null" json:"registration_date"`
	IsActive         bool   `gorm:"not null" json:"is_active"`
}

func (Patient) TableName() string { return "patients" }

func (p Patient) BusinessID() string { return p.PatientID }

func (Patient) entity() {}

// FullName joins first and last name.
func (p Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Age in whole years at now; 0 when the birth date does not parse.
func (p Patient) Age(now time.Time) int {
	birth, err := time.Parse(DateLayout, p.DateOfBirth)
	if err != nil {
		return 0
	}
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// Layouts of the text date and time columns.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)
