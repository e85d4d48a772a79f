package handlers

import (
	"hospital-admin-server/internal/services"
	"hospital-admin-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// ReportHandler serves the aggregate reports. Periods come from ?from=&to=.
type ReportHandler struct {
	Reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{Reports: reports}
}

func (h *ReportHandler) PatientSummary(c *gin.Context) {
	var period services.Period
	if !utils.BindQuery(c, &period) {
		return
	}
	report, err := h.Reports.PatientSummary(c.Request.Context(), period)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.Success(c, "Patient report generated", report)
}

func (h *ReportHandler) AppointmentReport(c *gin.Context) {
	var period services.Period
	if !utils.BindQuery(c, &period) {
		return
	}
	report, err := h.Reports.AppointmentReport(c.Request.Context(), period)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.Success(c, "Appointment report generated", report)
}

func (h *ReportHandler) FinancialReport(c *gin.Context) {
	var period services.Period
	if !utils.BindQuery(c, &period) {
		return
	}
	report, err := h.Reports.FinancialReport(c.Request.Context(), period)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.Success(c, "Financial report generated", report)
}

func (h *ReportHandler) DepartmentReport(c *gin.Context) {
	report, err := h.Reports.DepartmentReport(c.Request.Context())
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.Success(c, "Department report generated", report)
}

func (h *ReportHandler) SystemStats(c *gin.Context) {
	stats, err := h.Reports.SystemStats(c.Request.Context())
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	utils.Success(c, "System statistics fetched", stats)
}
