package handlers

import (
	"hospital-admin-server/internal/middleware"
	"hospital-admin-server/internal/models"
	"hospital-admin-server/internal/services"
	"hospital-admin-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// AppointmentHandler handles appointment related requests.
type AppointmentHandler struct {
	Appointments *services.AppointmentService
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(appointments *services.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{Appointments: appointments}
}

// CreateAppointment handles booking a new appointment.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req services.ScheduleInput
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appointment, err := h.Appointments.Schedule(c.Request.Context(), req)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}

	utils.Created(c, "Appointment scheduled successfully", appointment)
}

// AppointmentQuery holds the list filters.
type AppointmentQuery struct {
	PatientID string `form:"patient_id"`
	DoctorID  string `form:"doctor_id"`
	Status    string `form:"status"`
	Date      string `form:"date" validate:"omitempty,ymd"`
	// Mine limits a doctor to their own appointments.
	Mine bool `form:"mine"`
}

// GetAppointments lists appointments matching the query.
func (h *AppointmentHandler) GetAppointments(c *gin.Context) {
	var q AppointmentQuery
	if !utils.BindQuery(c, &q) {
		return
	}

	filter := services.AppointmentFilter{
		PatientID: q.PatientID,
		DoctorID:  q.DoctorID,
		Status:    models.AppointmentStatus(q.Status),
		Date:      q.Date,
	}
	if q.Mine {
		userID, _ := middleware.GetUserIDFromContext(c)
		filter.DoctorID = userID
	}

	appointments, err := h.Appointments.List(c.Request.Context(), filter)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}

	utils.Success(c, "Appointments fetched successfully", appointments)
}

// GetAppointmentByID handles fetching a single appointment.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	appointment, err := h.Appointments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.ServiceError(c, err)
		return
	}

	utils.Success(c, "Appointment fetched successfully", appointment)
}

// UpdateStatusRequest represents the request body for a status change.
type UpdateStatusRequest struct {
	Status models.AppointmentStatus `json:"status" validate:"required"`
	Notes  string                   `json:"notes"`
}

// UpdateAppointmentStatus moves an appointment to a new status.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appointment, err := h.Appointments.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, req.Notes)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}

	utils.Success(c, "Appointment status updated successfully", appointment)
}
