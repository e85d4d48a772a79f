package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"hospital-admin-server/internal/logger"
	"hospital-admin-server/internal/models"
	"hospital-admin-server/internal/store"
)

// CatalogEntry is a billable service with its list price.
type CatalogEntry struct {
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

var catalog = []CatalogEntry{
	{"consultation", "Doctor Consultation", 500},
	{"checkup", "General Checkup", 300},
	{"blood_test", "Blood Test", 400},
	{"xray", "X-Ray", 800},
	{"ultrasound", "Ultrasound", 1200},
	{"mri", "MRI Scan", 5000},
	{"ct_scan", "CT Scan", 4000},
	{"ecg", "ECG", 250},
	{"vaccination", "Vaccination", 150},
	{"minor_surgery", "Minor Surgery", 10000},
	{"admission_fee", "Hospital Admission", 2000},
	{"room_charge", "Room Charge (per day)", 1500},
	{"medicine", "Medicines", 0}, // priced per invoice
}

// LookupService finds a catalog entry by code.
func LookupService(code string) (CatalogEntry, bool) {
	for _, e := range catalog {
		if e.Code == code {
			return e, true
		}
	}
	return CatalogEntry{}, false
}

// ItemInput is one invoice line. With a catalog code the description and,
// when UnitPrice is nil, the price come from the catalog.
type ItemInput struct {
	Code        string   `json:"code"`
	Description string   `json:"description" validate:"required_without=Code"`
	Quantity    int      `json:"quantity" validate:"gte=1"`
	UnitPrice   *float64 `json:"unit_price" validate:"omitempty,gte=0"`
}

type InvoiceInput struct {
	PatientID       string      `json:"patient_id" validate:"required"`
	AppointmentID   string      `json:"appointment_id"`
	Items           []ItemInput `json:"items" validate:"required,min=1,dive"`
	DiscountPercent float64     `json:"discount_percent" validate:"gte=0,lte=100"`
	TaxPercent      *float64    `json:"tax_percent" validate:"omitempty,gte=0,lte=100"`
	PaymentMethod   string      `json:"payment_method" validate:"omitempty,oneof=Cash Card Insurance 'Online Payment' Cheque"`
}

// Totals is the breakdown of an invoice. Only Total is rounded when stored.
type Totals struct {
	Subtotal        float64 `json:"subtotal"`
	DiscountPercent float64 `json:"discount_percent"`
	DiscountAmount  float64 `json:"discount_amount"`
	Taxable         float64 `json:"taxable"`
	TaxPercent      float64 `json:"tax_percent"`
	TaxAmount       float64 `json:"tax_amount"`
	Total           float64 `json:"total"`
}

// ComputeTotals applies the discount to the subtotal and the tax to what
// remains.
func ComputeTotals(items models.LineItems, discountPercent, taxPercent float64) Totals {
	t := Totals{DiscountPercent: discountPercent, TaxPercent: taxPercent}
	for _, item := range items {
		t.Subtotal += float64(item.Quantity) * item.UnitPrice
	}
	t.DiscountAmount = t.Subtotal * discountPercent / 100
	t.Taxable = t.Subtotal - t.DiscountAmount
	t.TaxAmount = t.Taxable * taxPercent / 100
	t.Total = t.Taxable + t.TaxAmount
	return t
}

// FormatAmount renders money with two decimals, as stored in total_amount.
func FormatAmount(v float64) string {
	return fmt.Sprintf("%.2f", math.Round(v*100)/100)
}

// Quote is the priced form of an InvoiceInput before it is saved.
type Quote struct {
	Items  models.LineItems `json:"items"`
	Totals Totals           `json:"totals"`
}

// BillingService prices services and keeps invoices.
type BillingService struct {
	store      store.DataAccess
	log        *logger.Logger
	defaultTax float64
	now        func() time.Time
}

// NewBillingService creates the service. defaultTax is used when an
// invoice does not give its own tax rate.
func NewBillingService(da store.DataAccess, log *logger.Logger, defaultTax float64) *BillingService {
	return &BillingService{store: da, log: log, defaultTax: defaultTax, now: time.Now}
}

// Catalog lists the billable services in display order.
func (s *BillingService) Catalog() []CatalogEntry {
	out := make([]CatalogEntry, len(catalog))
	copy(out, catalog)
	return out
}

// Preview validates and prices an invoice without saving it.
func (s *BillingService) Preview(in InvoiceInput) (*Quote, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	items, err := resolveItems(in.Items)
	if err != nil {
		return nil, err
	}
	return &Quote{Items: items, Totals: ComputeTotals(items, in.DiscountPercent, s.taxFor(in))}, nil
}

func (s *BillingService) taxFor(in InvoiceInput) float64 {
	if in.TaxPercent != nil {
		return *in.TaxPercent
	}
	return s.defaultTax
}

func resolveItems(inputs []ItemInput) (models.LineItems, error) {
	items := make(models.LineItems, 0, len(inputs))
	for i, in := range inputs {
		description := strings.TrimSpace(in.Description)
		var price float64
		if in.UnitPrice != nil {
			price = *in.UnitPrice
		}
		if in.Code != "" {
			entry, ok := LookupService(in.Code)
			if !ok {
				return nil, invalid(fmt.Sprintf("items[%d].code", i), fmt.Sprintf("Unknown service code %q", in.Code))
			}
			if description == "" {
				description = entry.Name
			}
			if in.UnitPrice == nil {
				price = entry.Price
			}
		}
		if description == "" {
			return nil, invalid(fmt.Sprintf("items[%d].description", i), "Description is required")
		}
		items = append(items, models.LineItem{
			Description: description,
			Quantity:    in.Quantity,
			UnitPrice:   price,
			Total:       float64(in.Quantity) * price,
		})
	}
	return items, nil
}

// CreateInvoice prices the items and stores a pending invoice.
func (s *BillingService) CreateInvoice(ctx context.Context, in InvoiceInput) (*models.Invoice, error) {
	const op = "billing.create_invoice"
	quote, err := s.Preview(in)
	if err != nil {
		return nil, err
	}

	patient, err := store.FindOne[models.Patient](ctx, s.store, in.PatientID)
	if err != nil {
		return nil, storageFailure(op, "Patient not found", "Failed to create invoice", err)
	}
	if in.AppointmentID != "" {
		appointment, err := store.FindOne[models.Appointment](ctx, s.store, in.AppointmentID)
		if err != nil {
			return nil, storageFailure(op, "Appointment not found", "Failed to create invoice", err)
		}
		if appointment.PatientID != patient.PatientID {
			return nil, newDomainError(op, KindInvalid, "Appointment belongs to a different patient")
		}
	}

	method := in.PaymentMethod
	if method == "" {
		method = "Cash"
	}

	invoice, err := store.CreateNext(ctx, s.store, store.InvoicePrefix, func(id string) models.Invoice {
		return models.Invoice{
			BillID:        id,
			PatientID:     patient.PatientID,
			PatientName:   patient.FullName(),
			AppointmentID: in.AppointmentID,
			BillDate:      s.now().Format(models.DateLayout),
			Services:      quote.Items,
			TotalAmount:   FormatAmount(quote.Totals.Total),
			PaymentStatus: models.PaymentPending,
			PaymentMethod: method,
		}
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{"Function": "CreateInvoice", "Error": err}).Error("Failed to save invoice")
		return nil, storageFailure(op, "", "Failed to save invoice", err)
	}

	s.log.WithFields(logrus.Fields{
		"Function":  "CreateInvoice",
		"BillID":    invoice.BillID,
		"PatientID": invoice.PatientID,
		"Total":     invoice.TotalAmount,
	}).Info("Invoice created")
	return &invoice, nil
}

func (s *BillingService) Get(ctx context.Context, billID string) (*models.Invoice, error) {
	invoice, err := store.FindOne[models.Invoice](ctx, s.store, billID)
	if err != nil {
		return nil, storageFailure("billing.get", "Invoice not found", "Failed to retrieve invoice", err)
	}
	return &invoice, nil
}

func (s *BillingService) ListForPatient(ctx context.Context, patientID string) ([]models.Invoice, error) {
	return s.list(ctx, store.Filters{"patient_id": patientID})
}

// List returns invoices, optionally only those with the given status.
func (s *BillingService) List(ctx context.Context, status models.PaymentStatus) ([]models.Invoice, error) {
	filters := store.Filters{}
	switch status {
	case "":
	case models.PaymentPending, models.PaymentPaid:
		filters["payment_status"] = string(status)
	default:
		return nil, invalid("payment_status", "Invalid payment status")
	}
	return s.list(ctx, filters)
}

func (s *BillingService) list(ctx context.Context, filters store.Filters) ([]models.Invoice, error) {
	invoices, err := store.ReadAs[models.Invoice](ctx, s.store, filters)
	if err != nil {
		return nil, storageFailure("billing.list", "", "Failed to retrieve invoices", err)
	}
	return invoices, nil
}

// MarkPaid settles a pending invoice. The method is kept when empty.
func (s *BillingService) MarkPaid(ctx context.Context, billID, method string) (*models.Invoice, error) {
	const op = "billing.mark_paid"
	if err := check(struct {
		PaymentMethod string `json:"payment_method" validate:"omitempty,oneof=Cash Card Insurance 'Online Payment' Cheque"`
	}{method}); err != nil {
		return nil, err
	}

	invoice, err := s.Get(ctx, billID)
	if err != nil {
		return nil, err
	}
	if invoice.PaymentStatus == models.PaymentPaid {
		return nil, newDomainError(op, KindConflict, "Invoice is already paid")
	}

	changes := store.Record{"payment_status": string(models.PaymentPaid)}
	if method != "" {
		changes["payment_method"] = method
	}
	expect := store.Filters{"payment_status": string(invoice.PaymentStatus)}
	if err := s.store.UpdateIf(ctx, store.Invoices, billID, "bill_id", expect, changes); err != nil {
		if store.IsStale(err) {
			return nil, &DomainError{Op: op, Kind: KindConflict, Message: "Invoice is already paid", Err: err}
		}
		return nil, storageFailure(op, "Invoice not found", "Failed to update invoice status", err)
	}

	s.log.WithFields(logrus.Fields{"Function": "MarkPaid", "BillID": billID}).Info("Invoice paid")
	return s.Get(ctx, billID)
}

// AppointmentBill is a quick estimate from catalog prices. Unknown test
// codes are skipped.
func (s *BillingService) AppointmentBill(consultation bool, tests []string) float64 {
	var total float64
	if consultation {
		entry, _ := LookupService("consultation")
		total += entry.Price
	}
	for _, code := range tests {
		if entry, ok := LookupService(code); ok {
			total += entry.Price
		}
	}
	return total
}
