package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"hospital-admin-server/internal/logger"
	"hospital-admin-server/internal/models"
	"hospital-admin-server/internal/store"
)

// Departments offered when booking.
var Departments = []string{
	"General Medicine", "Cardiology", "Pediatrics", "Orthopedics",
	"Neurology", "Dermatology", "ENT", "Emergency",
}

type ScheduleInput struct {
	PatientID       string `json:"patient_id" validate:"required"`
	DoctorID        string `json:"doctor_id" validate:"required"`
	AppointmentDate string `json:"appointment_date" validate:"required,ymd"`
	AppointmentTime string `json:"appointment_time" validate:"required,hhmm"`
	Department      string `json:"department" validate:"max=100"`
	Reason          string `json:"reason" validate:"required"`
	Notes           string `json:"notes"`
}

// AppointmentFilter narrows List. Empty fields match everything.
type AppointmentFilter struct {
	PatientID string
	DoctorID  string
	Status    models.AppointmentStatus
	Date      string
}

// AppointmentService books appointments and moves them through their statuses.
type AppointmentService struct {
	store store.DataAccess
	log   *logger.Logger
}

func NewAppointmentService(da store.DataAccess, log *logger.Logger) *AppointmentService {
	return &AppointmentService{store: da, log: log}
}

// Schedule books a visit for an active patient with an active doctor.
// The department defaults to the doctor's specialization.
func (s *AppointmentService) Schedule(ctx context.Context, in ScheduleInput) (*models.Appointment, error) {
	const op = "appointments.schedule"
	in.Reason = strings.TrimSpace(in.Reason)
	in.Department = strings.TrimSpace(in.Department)
	if err := check(in); err != nil {
		return nil, err
	}

	patient, err := store.FindOne[models.Patient](ctx, s.store, in.PatientID)
	if err != nil {
		return nil, storageFailure(op, "Patient not found", "Failed to schedule appointment", err)
	}
	if !patient.IsActive {
		return nil, newDomainError(op, KindInvalid, "Patient is inactive")
	}

	doctor, err := store.FindOne[models.Account](ctx, s.store, in.DoctorID)
	if err != nil {
		return nil, storageFailure(op, "Doctor not found", "Failed to schedule appointment", err)
	}
	if doctor.Role != models.RoleDoctor || !doctor.IsActive {
		return nil, newDomainError(op, KindInvalid, "Selected user is not an active doctor")
	}

	department := in.Department
	if department == "" {
		department = doctor.Specialization
	}
	if department == "" {
		department = Departments[0]
	}

	appointment, err := store.CreateNext(ctx, s.store, store.AppointmentPrefix, func(id string) models.Appointment {
		return models.Appointment{
			AppointmentID:   id,
			PatientID:       patient.PatientID,
			PatientName:     patient.FullName(),
			DoctorID:        doctor.UserID,
			DoctorName:      doctor.FullName,
			AppointmentDate: in.AppointmentDate,
			AppointmentTime: in.AppointmentTime,
			Department:      department,
			Reason:          in.Reason,
			Status:          models.StatusScheduled,
			Notes:           in.Notes,
		}
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{"Function": "Schedule", "Error": err}).Error("Failed to schedule appointment")
		return nil, storageFailure(op, "", "Failed to schedule appointment", err)
	}

	s.log.WithFields(logrus.Fields{
		"Function":      "Schedule",
		"AppointmentID": appointment.AppointmentID,
		"PatientID":     appointment.PatientID,
		"DoctorID":      appointment.DoctorID,
	}).Info("Appointment scheduled")
	return &appointment, nil
}

func (s *AppointmentService) Get(ctx context.Context, appointmentID string) (*models.Appointment, error) {
	appointment, err := store.FindOne[models.Appointment](ctx, s.store, appointmentID)
	if err != nil {
		return nil, storageFailure("appointments.get", "Appointment not found", "Failed to retrieve appointment", err)
	}
	return &appointment, nil
}

func (s *AppointmentService) List(ctx context.Context, f AppointmentFilter) ([]models.Appointment, error) {
	filters := store.Filters{}
	if f.PatientID != "" {
		filters["patient_id"] = f.PatientID
	}
	if f.DoctorID != "" {
		filters["doctor_id"] = f.DoctorID
	}
	if f.Status != "" {
		if !f.Status.Valid() {
			return nil, invalid("status", "Invalid appointment status")
		}
		filters["status"] = string(f.Status)
	}
	if f.Date != "" {
		if !IsDate(f.Date) {
			return nil, invalid("date", "Date must be in YYYY-MM-DD format")
		}
		filters["appointment_date"] = f.Date
	}

	appointments, err := store.ReadAs[models.Appointment](ctx, s.store, filters)
	if err != nil {
		return nil, storageFailure("appointments.list", "", "Failed to retrieve appointments", err)
	}
	return appointments, nil
}

// UpdateStatus applies one allowed status move. Notes replace the
// existing notes when non-empty.
func (s *AppointmentService) UpdateStatus(ctx context.Context, appointmentID string, status models.AppointmentStatus, notes string) (*models.Appointment, error) {
	const op = "appointments.update_status"
	if !status.Valid() {
		return nil, invalid("status", "Invalid appointment status")
	}

	current, err := s.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(status) {
		return nil, newDomainError(op, KindConflict,
			fmt.Sprintf("Cannot change appointment status from %s to %s", current.Status, status))
	}

	changes := store.Record{"status": string(status)}
	if notes = strings.TrimSpace(notes); notes != "" {
		changes["notes"] = notes
	}
	expect := store.Filters{"status": string(current.Status)}
	if err := s.store.UpdateIf(ctx, store.Appointments, appointmentID, "appointment_id", expect, changes); err != nil {
		if store.IsStale(err) {
			return nil, &DomainError{Op: op, Kind: KindConflict, Message: "Appointment was changed by another user", Err: err}
		}
		return nil, storageFailure(op, "Appointment not found", "Failed to update appointment", err)
	}

	s.log.WithFields(logrus.Fields{
		"Function":      "UpdateStatus",
		"AppointmentID": appointmentID,
		"From":          current.Status,
		"To":            status,
	}).Info("Appointment status changed")
	return s.Get(ctx, appointmentID)
}

func (s *AppointmentService) Cancel(ctx context.Context, appointmentID string) (*models.Appointment, error) {
	return s.UpdateStatus(ctx, appointmentID, models.StatusCancelled, "")
}
