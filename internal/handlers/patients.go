package handlers

import (
	"hospital-admin-server/internal/services"
	"hospital-admin-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// PatientHandler handles patient registration and records.
type PatientHandler struct {
	Patients *services.PatientService
	Billing  *services.BillingService
}

// NewPatientHandler creates a new PatientHandler.
func NewPatientHandler(patients *services.PatientService, billing *services.BillingService) *PatientHandler {
	return &PatientHandler{Patients: patients, Billing: billing}
}

// RegisterPatient handles registering a new patient.
func (h *PatientHandler) RegisterPatient(c *gin.Context) {
	var req services.RegisterPatientInput
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patient, err := h.Patients.Register(c.Request.Context(), req)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}

	utils.Created(c, "Patient registered successfully", patient)
}

// GetPatients searches active patients with ?q=, or lists every patient
// with ?include_inactive=true.
func (h *PatientHandler) GetPatients(c *gin.Context) {
	ctx := c.Request.Context()
	if c.Query("include_inactive") == "true" {
		patients, err := h.Patients.List(ctx, true)
		if err != nil {
			utils.ServiceError(c, err)
			return
		}
		utils.Success(c, "Patients fetched successfully", patients)
		return
	}

	patients, err := h.Patients.Search(ctx, c.Query("q"))
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.Success(c, "Patients fetched successfully", patients)
}

func (h *PatientHandler) GetPatientByID(c *gin.Context) {
	patient, err := h.Patients.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.ServiceError(c, err)
		return
	}

	utils.Success(c, "Patient fetched successfully", patient)
}

func (h *PatientHandler) UpdatePatient(c *gin.Context) {
	var req services.UpdatePatientInput
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patient, err := h.Patients.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}

	utils.Success(c, "Patient updated successfully", patient)
}

// DeactivatePatient soft deletes a patient.
func (h *PatientHandler) DeactivatePatient(c *gin.Context) {
	if err := h.Patients.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		utils.ServiceError(c, err)
		return
	}

	utils.Success(c, "Patient deactivated successfully", nil)
}

// PurgePatient removes a patient permanently (admin).
func (h *PatientHandler) PurgePatient(c *gin.Context) {
	if err := h.Patients.Purge(c.Request.Context(), c.Param("id")); err != nil {
		utils.ServiceError(c, err)
		return
	}

	utils.Success(c, "Patient deleted permanently", nil)
}

// GetPatientInvoices lists a patient's bills.
func (h *PatientHandler) GetPatientInvoices(c *gin.Context) {
	ctx := c.Request.Context()
	patientID := c.Param("id")
	if _, err := h.Patients.Get(ctx, patientID); err != nil {
		utils.ServiceError(c, err)
		return
	}

	invoices, err := h.Billing.ListForPatient(ctx, patientID)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.Success(c, "Invoices fetched successfully", invoices)
}
