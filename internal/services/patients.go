package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"hospital-admin-server/internal/logger"
	"hospital-admin-server/internal/models"
	"hospital-admin-server/internal/store"
)

type RegisterPatientInput struct {
	FirstName        string `json:"first_name" validate:"required,max=100"`
	LastName         string `json:"last_name" validate:"required,max=100"`
	DateOfBirth      string `json:"date_of_birth" validate:"required,ymd"`
	Gender           string `json:"gender" validate:"required,oneof=Male Female Other"`
	Phone            string `json:"phone" validate:"required,phone"`
	Email            string `json:"email" validate:"omitempty,mail"`
	Address          string `json:"address"`
	BloodGroup       string `json:"blood_group" validate:"omitempty,bloodgroup"`
	EmergencyContact string `json:"emergency_contact" validate:"omitempty,phone"`
}

// UpdatePatientInput lists editable fields; nil leaves a field untouched.
type UpdatePatientInput struct {
	FirstName        *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName         *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	DateOfBirth      *string `json:"date_of_birth" validate:"omitempty,ymd"`
	Gender           *string `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	Phone            *string `json:"phone" validate:"omitempty,phone"`
	Email            *string `json:"email" validate:"omitempty,mail"`
	Address          *string `json:"address"`
	BloodGroup       *string `json:"blood_group" validate:"omitempty,bloodgroup"`
	EmergencyContact *string `json:"emergency_contact" validate:"omitempty,phone"`
}

// PatientService registers and maintains patient records.
type PatientService struct {
	store store.DataAccess
	log   *logger.Logger
	now   func() time.Time
}

func NewPatientService(da store.DataAccess, log *logger.Logger) *PatientService {
	return &PatientService{store: da, log: log, now: time.Now}
}

// Register validates the input and stores a new active patient.
func (s *PatientService) Register(ctx context.Context, in RegisterPatientInput) (*models.Patient, error) {
	const op = "patients.register"
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	if err := check(in); err != nil {
		return nil, err
	}
	today := s.now().Format(models.DateLayout)
	if in.DateOfBirth > today {
		return nil, invalid("date_of_birth", "Date of birth cannot be in the future")
	}

	patient, err := store.CreateNext(ctx, s.store, store.PatientPrefix, func(id string) models.Patient {
		return models.Patient{
			PatientID:        id,
			FirstName:        in.FirstName,
			LastName:         in.LastName,
			DateOfBirth:      in.DateOfBirth,
			Gender:           in.Gender,
			Phone:            in.Phone,
			Email:            in.Email,
			Address:          in.Address,
			BloodGroup:       in.BloodGroup,
			EmergencyContact: in.EmergencyContact,
			RegistrationDate: today,
			IsActive:         true,
		}
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{"Function": "Register", "Error": err}).Error("Failed to register patient")
		return nil, storageFailure(op, "", "Failed to register patient", err)
	}

	s.log.WithFields(logrus.Fields{
		"Function":  "Register",
		"PatientID": patient.PatientID,
	}).Info("Patient registered")
	return &patient, nil
}

func (s *PatientService) Get(ctx context.Context, patientID string) (*models.Patient, error) {
	patient, err := store.FindOne[models.Patient](ctx, s.store, patientID)
	if err != nil {
		return nil, storageFailure("patients.get", "Patient not found", "Failed to retrieve patient", err)
	}
	return &patient, nil
}

// List returns active patients, or every patient when includeInactive is set.
func (s *PatientService) List(ctx context.Context, includeInactive bool) ([]models.Patient, error) {
	filters := store.Filters{"is_active": true}
	if includeInactive {
		filters = nil
	}
	patients, err := store.ReadAs[models.Patient](ctx, s.store, filters)
	if err != nil {
		return nil, storageFailure("patients.list", "", "Failed to retrieve patients", err)
	}
	return patients, nil
}

// Search matches active patients by name, id or phone, ignoring case.
// An empty term returns every active patient.
func (s *PatientService) Search(ctx context.Context, term string) ([]models.Patient, error) {
	patients, err := s.List(ctx, false)
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return patients, nil
	}

	matched := make([]models.Patient, 0, len(patients))
	for _, p := range patients {
		if strings.Contains(strings.ToLower(p.FullName()), term) ||
			strings.Contains(strings.ToLower(p.PatientID), term) ||
			strings.Contains(p.Phone, term) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func (s *PatientService) Update(ctx context.Context, patientID string, in UpdatePatientInput) (*models.Patient, error) {
	const op = "patients.update"
	for _, p := range []**string{
		&in.FirstName, &in.LastName, &in.DateOfBirth, &in.Gender, &in.Phone,
		&in.Email, &in.Address, &in.BloodGroup, &in.EmergencyContact,
	} {
		*p = trimmed(*p)
	}
	if err := check(in); err != nil {
		return nil, err
	}

	changes := store.Record{}
	set := func(column string, v *string) {
		if v != nil {
			changes[column] = *v
		}
	}
	set("first_name", in.FirstName)
	set("last_name", in.LastName)
	set("date_of_birth", in.DateOfBirth)
	set("gender", in.Gender)
	set("phone", in.Phone)
	set("email", in.Email)
	set("address", in.Address)
	set("blood_group", in.BloodGroup)
	set("emergency_contact", in.EmergencyContact)

	if dob, ok := changes["date_of_birth"].(string); ok && dob > s.now().Format(models.DateLayout) {
		return nil, invalid("date_of_birth", "Date of birth cannot be in the future")
	}

	if err := s.store.Update(ctx, store.Patients, patientID, "patient_id", changes); err != nil {
		return nil, storageFailure(op, "Patient not found", "Failed to update patient", err)
	}
	return s.Get(ctx, patientID)
}

// Deactivate hides the patient from searches. The record and its
// appointments and invoices stay.
func (s *PatientService) Deactivate(ctx context.Context, patientID string) error {
	if err := s.store.Deactivate(ctx, store.Patients, patientID); err != nil {
		return storageFailure("patients.deactivate", "Patient not found", "Failed to delete patient", err)
	}
	s.log.WithFields(logrus.Fields{"Function": "Deactivate", "PatientID": patientID}).Info("Patient deactivated")
	return nil
}

// Purge deletes the patient row permanently.
func (s *PatientService) Purge(ctx context.Context, patientID string) error {
	if err := s.store.Purge(ctx, store.Patients, patientID); err != nil {
		return storageFailure("patients.purge", "Patient not found", "Failed to delete patient", err)
	}
	s.log.WithFields(logrus.Fields{"Function": "Purge", "PatientID": patientID}).Warn("Patient purged")
	return nil
}

func (s *PatientService) CountActive(ctx context.Context) (int64, error) {
	n, err := s.store.Count(ctx, store.Patients, store.Filters{"is_active": true})
	if err != nil {
		return 0, storageFailure("patients.count", "", "Failed to count patients", err)
	}
	return n, nil
}
