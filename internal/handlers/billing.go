package handlers

import (
	"strings"

	"hospital-admin-server/internal/models"
	"hospital-admin-server/internal/services"
	"hospital-admin-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// BillingHandler handles the service catalog and invoices.
type BillingHandler struct {
	Billing *services.BillingService
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(billing *services.BillingService) *BillingHandler {
	return &BillingHandler{Billing: billing}
}

// GetServices returns the price catalog.
func (h *BillingHandler) GetServices(c *gin.Context) {
	utils.Success(c, "Services fetched successfully", h.Billing.Catalog())
}

// EstimateQuery selects what a visit estimate includes,
// e.g. ?consultation=true&tests=blood_test,xray.
type EstimateQuery struct {
	Consultation bool   `form:"consultation"`
	Tests        string `form:"tests"`
}

// EstimateAppointment returns a quick catalog-price estimate for a visit.
func (h *BillingHandler) EstimateAppointment(c *gin.Context) {
	var q EstimateQuery
	if !utils.BindQuery(c, &q) {
		return
	}

	var tests []string
	for _, code := range strings.Split(q.Tests, ",") {
		if code = strings.TrimSpace(code); code != "" {
			tests = append(tests, code)
		}
	}

	utils.Success(c, "Estimate calculated successfully", gin.H{
		"consultation": q.Consultation,
		"tests":        tests,
		"total":        h.Billing.AppointmentBill(q.Consultation, tests),
	})
}

// PreviewInvoice prices an invoice without saving it.
func (h *BillingHandler) PreviewInvoice(c *gin.Context) {
	var req services.InvoiceInput
	if !utils.BindAndValidate(c, &req) {
		return
	}

	quote, err := h.Billing.Preview(req)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}

	utils.Success(c, "Invoice calculated successfully", quote)
}

func (h *BillingHandler) CreateInvoice(c *gin.Context) {
	var req services.InvoiceInput
	if !utils.BindAndValidate(c, &req) {
		return
	}

	invoice, err := h.Billing.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}

	utils.Created(c, "Invoice created successfully", invoice)
}

// GetInvoices lists invoices, optionally filtered by ?status=pending|paid.
func (h *BillingHandler) GetInvoices(c *gin.Context) {
	invoices, err := h.Billing.List(c.Request.Context(), models.PaymentStatus(c.Query("status")))
	if err != nil {
		utils.ServiceError(c, err)
		return
	}

	utils.Success(c, "Invoices fetched successfully", invoices)
}

func (h *BillingHandler) GetInvoiceByID(c *gin.Context) {
	invoice, err := h.Billing.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.ServiceError(c, err)
		return
	}

	utils.Success(c, "Invoice fetched successfully", invoice)
}

// MarkPaidRequest optionally records how the invoice was paid.
type MarkPaidRequest struct {
	PaymentMethod string `json:"payment_method"`
}

func (h *BillingHandler) MarkInvoicePaid(c *gin.Context) {
	var req MarkPaidRequest
	if c.Request.ContentLength > 0 && !utils.BindAndValidate(c, &req) {
		return
	}

	invoice, err := h.Billing.MarkPaid(c.Request.Context(), c.Param("id"), req.PaymentMethod)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}

	utils.Success(c, "Invoice marked as paid", invoice)
}
