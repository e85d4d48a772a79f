package models

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// statusTransitions lists the moves allowed out of each status.
// Completed and cancelled are terminal.
var statusTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusScheduled: {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCompleted: nil,
	StatusCancelled: nil,
}

// Valid reports whether s is a defined status.
func (s AppointmentStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Appointment represents a scheduled visit. Patient and doctor names are
// copied at scheduling time and are not kept in sync afterwards.
type Appointment struct {
	BaseModel
	AppointmentID   string            `gorm:"size:50;uniqueIndex;not null" json:"appointment_id"`
	PatientID       string            `gorm:"size:50;index;not null" json:"patient_id"`
	PatientName     string            `gorm:"size:200;not null" json:"patient_name"`
	DoctorID        string            `gorm:"size:50;index;not null" json:"doctor_id"`
	DoctorName      string            `gorm:"size:200;not null" json:"doctor_name"`
	AppointmentDate string            `gorm:"size:20;not null" json:"appointment_date"`
	AppointmentTime string            `gorm:"size:20;not null" json:"appointment_time"`
	Department      string            `gorm:"size:100;not null" json:"department"`
	Reason          string            `gorm:"type:text;not null" json:"reason"`
	Status          AppointmentStatus `gorm:"size:20;default:'scheduled'" json:"status"`
	Notes           string            `gorm:"type:text" json:"notes,omitempty"`
}

func (Appointment) TableName() string { return "appointments" }

func (a Appointment) BusinessID() string { return a.AppointmentID }

func (Appointment) entity() {}
