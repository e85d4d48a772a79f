package services

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"hospital-admin-server/internal/logger"
	"hospital-admin-server/internal/models"
	"hospital-admin-server/internal/store"
)

const generatedAtLayout = "2006-01-02 15:04:05"

// Period bounds a report by YYYY-MM-DD dates, both inclusive. An empty
// bound is open.
type Period struct {
	From string `form:"from" json:"from" validate:"omitempty,ymd"`
	To   string `form:"to" json:"to" validate:"omitempty,ymd"`
}

func (p Period) contains(date string) bool {
	if p.From != "" && date < p.From {
		return false
	}
	if p.To != "" && date > p.To {
		return false
	}
	return true
}

func (p Period) String() string {
	from, to := p.From, p.To
	if from == "" {
		from = "All"
	}
	if to == "" {
		to = "All"
	}
	return from + " to " + to
}

type PatientSummary struct {
	ReportType             string           `json:"report_type"`
	GeneratedAt            string           `json:"generated_at"`
	Period                 string           `json:"period"`
	TotalPatients          int              `json:"total_patients"`
	GenderDistribution     map[string]int   `json:"gender_distribution"`
	BloodGroupDistribution map[string]int   `json:"blood_group_distribution"`
	AgeDistribution        map[string]int   `json:"age_distribution"`
	Patients               []models.Patient `json:"patients"`
}

type AppointmentReport struct {
	ReportType             string               `json:"report_type"`
	GeneratedAt            string               `json:"generated_at"`
	Period                 string               `json:"period"`
	TotalAppointments      int                  `json:"total_appointments"`
	StatusDistribution     map[string]int       `json:"status_distribution"`
	DepartmentDistribution map[string]int       `json:"department_distribution"`
	DailyAppointments      map[string]int       `json:"daily_appointments"`
	Appointments           []models.Appointment `json:"appointments"`
}

type FinancialReport struct {
	ReportType                string             `json:"report_type"`
	GeneratedAt               string             `json:"generated_at"`
	Period                    string             `json:"period"`
	TotalRevenue              float64            `json:"total_revenue"`
	TotalPaid                 float64            `json:"total_paid"`
	TotalPending              float64            `json:"total_pending"`
	TotalInvoices             int                `json:"total_invoices"`
	PaymentMethodDistribution map[string]float64 `json:"payment_method_distribution"`
	DailyRevenue              map[string]float64 `json:"daily_revenue"`
	ServiceRevenue            map[string]float64 `json:"service_revenue"`
	Bills                     []models.Invoice   `json:"bills"`
}

type DepartmentStats struct {
	TotalAppointments int `json:"total_appointments"`
	Scheduled         int `json:"scheduled"`
	Confirmed         int `json:"confirmed"`
	Completed         int `json:"completed"`
	Cancelled         int `json:"cancelled"`
}

type DepartmentReport struct {
	ReportType  string                      `json:"report_type"`
	GeneratedAt string                      `json:"generated_at"`
	Departments map[string]*DepartmentStats `json:"departments"`
}

type SystemStats struct {
	GeneratedAt          string           `json:"generated_at"`
	TotalPatients        int64            `json:"total_patients"`
	ActivePatients       int64            `json:"active_patients"`
	InactivePatients     int64            `json:"inactive_patients"`
	TotalAppointments    int64            `json:"total_appointments"`
	TodayAppointments    int64            `json:"today_appointments"`
	AppointmentsByStatus map[string]int64 `json:"appointments_by_status"`
	PaidInvoices         int64            `json:"paid_invoices"`
	PendingInvoices      int64            `json:"pending_invoices"`
	ActiveAccountsByRole map[string]int64 `json:"active_accounts_by_role"`
}

// ReportService aggregates the stored data. It never writes.
type ReportService struct {
	store store.DataAccess
	log   *logger.Logger
	now   func() time.Time
}

func NewReportService(da store.DataAccess, log *logger.Logger) *ReportService {
	return &ReportService{store: da, log: log, now: time.Now}
}

func (s *ReportService) stamp() string {
	return s.now().Format(generatedAtLayout)
}

func ageBucket(age int) string {
	switch {
	case age <= 18:
		return "0-18"
	case age <= 35:
		return "19-35"
	case age <= 50:
		return "36-50"
	case age <= 65:
		return "51-65"
	default:
		return "65+"
	}
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// PatientSummary counts patients registered in the period by gender,
// blood group and age.
func (s *ReportService) PatientSummary(ctx context.Context, p Period) (*PatientSummary, error) {
	if err := check(p); err != nil {
		return nil, err
	}
	all, err := store.ReadAs[models.Patient](ctx, s.store, nil)
	if err != nil {
		return nil, storageFailure("reports.patients", "", "Failed to generate patient report", err)
	}

	now := s.now()
	report := &PatientSummary{
		ReportType:             "Patient Summary",
		GeneratedAt:            s.stamp(),
		Period:                 p.String(),
		GenderDistribution:     map[string]int{},
		BloodGroupDistribution: map[string]int{},
		AgeDistribution:        map[string]int{"0-18": 0, "19-35": 0, "36-50": 0, "51-65": 0, "65+": 0},
		Patients:               []models.Patient{},
	}
	for _, patient := range all {
		registered := patient.RegistrationDate
		if registered == "" {
			registered = patient.CreatedAt.Format(models.DateLayout)
		}
		if !p.contains(registered) {
			continue
		}
		report.Patients = append(report.Patients, patient)
		report.GenderDistribution[orUnknown(patient.Gender)]++
		report.BloodGroupDistribution[orUnknown(patient.BloodGroup)]++
		if IsDate(patient.DateOfBirth) {
			report.AgeDistribution[ageBucket(patient.Age(now))]++
		}
	}
	report.TotalPatients = len(report.Patients)
	return report, nil
}

// AppointmentReport counts appointments dated in the period.
func (s *ReportService) AppointmentReport(ctx context.Context, p Period) (*AppointmentReport, error) {
	if err := check(p); err != nil {
		return nil, err
	}
	all, err := store.ReadAs[models.Appointment](ctx, s.store, nil)
	if err != nil {
		return nil, storageFailure("reports.appointments", "", "Failed to generate appointment report", err)
	}

	report := &AppointmentReport{
		ReportType:             "Appointment Report",
		GeneratedAt:            s.stamp(),
		Period:                 p.String(),
		StatusDistribution:     map[string]int{},
		DepartmentDistribution: map[string]int{},
		DailyAppointments:      map[string]int{},
		Appointments:           []models.Appointment{},
	}
	for _, a := range all {
		if !p.contains(a.AppointmentDate) {
			continue
		}
		report.Appointments = append(report.Appointments, a)
		report.StatusDistribution[orUnknown(string(a.Status))]++
		report.DepartmentDistribution[orUnknown(a.Department)]++
		report.DailyAppointments[orUnknown(a.AppointmentDate)]++
	}
	report.TotalAppointments = len(report.Appointments)
	return report, nil
}

// FinancialReport sums invoice amounts dated in the period. Payment
// methods are only counted for paid invoices.
func (s *ReportService) FinancialReport(ctx context.Context, p Period) (*FinancialReport, error) {
	if err := check(p); err != nil {
		return nil, err
	}
	all, err := store.ReadAs[models.Invoice](ctx, s.store, nil)
	if err != nil {
		return nil, storageFailure("reports.financial", "", "Failed to generate financial report", err)
	}

	report := &FinancialReport{
		ReportType:                "Financial Report",
		GeneratedAt:               s.stamp(),
		Period:                    p.String(),
		PaymentMethodDistribution: map[string]float64{},
		DailyRevenue:              map[string]float64{},
		ServiceRevenue:            map[string]float64{},
		Bills:                     []models.Invoice{},
	}
	for _, bill := range all {
		if !p.contains(bill.BillDate) {
			continue
		}
		report.Bills = append(report.Bills, bill)

		amount, err := strconv.ParseFloat(strings.TrimSpace(bill.TotalAmount), 64)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"Function": "FinancialReport",
				"BillID":   bill.BillID,
				"Amount":   bill.TotalAmount,
			}).Warn("Skipping unparsable invoice amount")
			amount = 0
		}

		report.TotalRevenue += amount
		if strings.EqualFold(string(bill.PaymentStatus), string(models.PaymentPaid)) {
			report.TotalPaid += amount
			report.PaymentMethodDistribution[orUnknown(bill.PaymentMethod)] += amount
		} else {
			report.TotalPending += amount
		}
		report.DailyRevenue[orUnknown(bill.BillDate)] += amount
		for _, item := range bill.Services {
			report.ServiceRevenue[orUnknown(item.Description)] += item.Total
		}
	}

	report.TotalInvoices = len(report.Bills)
	report.TotalRevenue = round2(report.TotalRevenue)
	report.TotalPaid = round2(report.TotalPaid)
	report.TotalPending = round2(report.TotalPending)
	for _, m := range []map[string]float64{report.PaymentMethodDistribution, report.DailyRevenue, report.ServiceRevenue} {
		for k, v := range m {
			m[k] = round2(v)
		}
	}
	return report, nil
}

// DepartmentReport counts appointments per department and status.
func (s *ReportService) DepartmentReport(ctx context.Context) (*DepartmentReport, error) {
	all, err := store.ReadAs[models.Appointment](ctx, s.store, nil)
	if err != nil {
		return nil, storageFailure("reports.departments", "", "Failed to generate department report", err)
	}

	report := &DepartmentReport{
		ReportType:  "Department Report",
		GeneratedAt: s.stamp(),
		Departments: map[string]*DepartmentStats{},
	}
	for _, a := range all {
		dept := orUnknown(a.Department)
		stats, ok := report.Departments[dept]
		if !ok {
			stats = &DepartmentStats{}
			report.Departments[dept] = stats
		}
		stats.TotalAppointments++
		switch models.AppointmentStatus(strings.ToLower(string(a.Status))) {
		case models.StatusScheduled, "":
			stats.Scheduled++
		case models.StatusConfirmed:
			stats.Confirmed++
		case models.StatusCompleted:
			stats.Completed++
		case models.StatusCancelled:
			stats.Cancelled++
		}
	}
	return report, nil
}

// SystemStats is the dashboard summary.
func (s *ReportService) SystemStats(ctx context.Context) (*SystemStats, error) {
	const op = "reports.system"
	stats := &SystemStats{
		GeneratedAt:          s.stamp(),
		AppointmentsByStatus: map[string]int64{},
		ActiveAccountsByRole: map[string]int64{},
	}

	type counter struct {
		coll    store.Collection
		filters store.Filters
		dst     *int64
	}
	counters := []counter{
		{store.Patients, nil, &stats.TotalPatients},
		{store.Patients, store.Filters{"is_active": true}, &stats.ActivePatients},
		{store.Appointments, nil, &stats.TotalAppointments},
		{store.Appointments, store.Filters{"appointment_date": s.now().Format(models.DateLayout)}, &stats.TodayAppointments},
		{store.Invoices, store.Filters{"payment_status": string(models.PaymentPaid)}, &stats.PaidInvoices},
		{store.Invoices, store.Filters{"payment_status": string(models.PaymentPending)}, &stats.PendingInvoices},
	}
	for _, c := range counters {
		n, err := s.store.Count(ctx, c.coll, c.filters)
		if err != nil {
			return nil, storageFailure(op, "", "Failed to load statistics", err)
		}
		*c.dst = n
	}
	stats.InactivePatients = stats.TotalPatients - stats.ActivePatients

	for _, status := range []models.AppointmentStatus{models.StatusScheduled, models.StatusConfirmed, models.StatusCompleted, models.StatusCancelled} {
		n, err := s.store.Count(ctx, store.Appointments, store.Filters{"status": string(status)})
		if err != nil {
			return nil, storageFailure(op, "", "Failed to load statistics", err)
		}
		stats.AppointmentsByStatus[string(status)] = n
	}
	for _, role := range []models.Role{models.RoleAdmin, models.RoleDoctor, models.RoleNurse, models.RoleReceptionist} {
		n, err := s.store.Count(ctx, store.Accounts, store.Filters{"role": string(role), "is_active": true})
		if err != nil {
			return nil, storageFailure(op, "", "Failed to load statistics", err)
		}
		stats.ActiveAccountsByRole[string(role)] = n
	}
	return stats, nil
}
