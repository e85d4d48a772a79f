package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-admin-server/internal/config"
	"hospital-admin-server/internal/logger"
	"hospital-admin-server/internal/middleware"
	"hospital-admin-server/internal/models"
	"hospital-admin-server/internal/services"
	"hospital-admin-server/internal/store"
)

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "hospital.db")
	db, err := models.InitDB(models.DatabaseConfig{
		Driver: "sqlite",
		Path:   path,
		DSN:    path + "?_busy_timeout=5000&_foreign_keys=on",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	log := logger.Discard()
	da := store.New(db, log)
	svc := Services{
		Auth:         services.NewAuthService(da, log),
		Patients:     services.NewPatientService(da, log),
		Appointments: services.NewAppointmentService(da, log),
		Billing:      services.NewBillingService(da, log, 0),
		Reports:      services.NewReportService(da, log),
	}
	require.NoError(t, svc.Auth.SeedDefaults(context.Background()))

	cfg := &config.Config{
		Environment:               "test",
		JWTSecret:                 "test-secret",
		JWTRefreshSecret:          "test-refresh-secret",
		JWTExpirationMinutes:      15,
		JWTRefreshExpirationHours: 1,
	}

	router := gin.New()
	router.Use(middleware.RequestLogger(log))
	SetupRoutes(router, svc, cfg)
	return &testServer{t: t, router: router}
}

func (s *testServer) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (s *testServer) login(username, password string) string {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": username, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, env.Error)

	var data struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(s.t, data.AccessToken)
	return data.AccessToken
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

var janeDoe = gin.H{
	"first_name":    "Jane",
	"last_name":     "Doe",
	"date_of_birth": "1990-04-12",
	"gender":        "Female",
	"phone":         "555-123-4567",
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid username or password", env.Error)

	w, env = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "admin", "password": "admin123"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, string(env.Data), "password")
	assert.NotEmpty(t, w.Result().Cookies())
}

func TestRefreshToken(t *testing.T) {
	s := newTestServer(t)
	_, env := s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "doctor", "password": "doctor123"})
	tokens := decode[struct {
		RefreshToken string `json:"refreshToken"`
	}](t, env)

	w, _ := s.do(http.MethodPost, "/api/v1/auth/refresh-token", "", gin.H{"refreshToken": tokens.RefreshToken})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/auth/refresh-token", "", gin.H{"refreshToken": "garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticationRequired(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(http.MethodGet, "/api/v1/patients", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Authorization header required", env.Error)

	w, _ = s.do(http.MethodGet, "/api/v1/patients", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfileAndPassword(t *testing.T) {
	s := newTestServer(t)
	token := s.login("doctor", "doctor123")

	w, env := s.do(http.MethodGet, "/api/v1/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Dr. John Smith", decode[models.Account](t, env).FullName)

	w, _ = s.do(http.MethodPut, "/api/v1/auth/password", token, gin.H{"old_password": "nope", "new_password": "secret99"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodPut, "/api/v1/auth/password", token, gin.H{"old_password": "doctor123", "new_password": "secret99"})
	require.Equal(t, http.StatusOK, w.Code)
	s.login("doctor", "secret99")
}

func TestPatientEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.login("admin", "admin123")

	w, env := s.do(http.MethodPost, "/api/v1/patients", token, janeDoe)
	require.Equal(t, http.StatusCreated, w.Code, env.Error)
	patient := decode[models.Patient](t, env)
	assert.Equal(t, "PAT001", patient.PatientID)

	w, env = s.do(http.MethodPost, "/api/v1/patients", token, gin.H{"first_name": "No"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error, "Validation failed")

	w, env = s.do(http.MethodGet, "/api/v1/patients?q=jane", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Patient](t, env), 1)

	w, env = s.do(http.MethodPut, "/api/v1/patients/PAT001", token, gin.H{"blood_group": "AB-"})
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	assert.Equal(t, "AB-", decode[models.Patient](t, env).BloodGroup)

	w, _ = s.do(http.MethodGet, "/api/v1/patients/PAT404", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodPatch, "/api/v1/patients/PAT001/deactivate", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/patients", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]models.Patient](t, env))

	w, env = s.do(http.MethodGet, "/api/v1/patients?include_inactive=true", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Patient](t, env), 1)

	w, _ = s.do(http.MethodDelete, "/api/v1/patients/PAT001", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoleGates(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin123")
	doctor := s.login("doctor", "doctor123")

	w, env := s.do(http.MethodPost, "/api/v1/users", admin, gin.H{
		"username":  "frontdesk",
		"password":  "desk123",
		"role":      "receptionist",
		"full_name": "Front Desk",
		"email":     "desk@hospital.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, env.Error)
	reception := s.login("frontdesk", "desk123")

	w, _ = s.do(http.MethodPost, "/api/v1/users", admin, gin.H{
		"username":  "frontdesk",
		"password":  "desk123",
		"role":      "receptionist",
		"full_name": "Front Desk",
		"email":     "desk@hospital.com",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	cases := []struct {
		name   string
		token  string
		method string
		path   string
		want   int
	}{
		{"doctor lists users", doctor, http.MethodGet, "/api/v1/users", http.StatusForbidden},
		{"admin lists users", admin, http.MethodGet, "/api/v1/users", http.StatusOK},
		{"receptionist lists doctors", reception, http.MethodGet, "/api/v1/users/doctors", http.StatusOK},
		{"doctor reads catalog", doctor, http.MethodGet, "/api/v1/billing/services", http.StatusForbidden},
		{"receptionist reads catalog", reception, http.MethodGet, "/api/v1/billing/services", http.StatusOK},
		{"receptionist reads reports", reception, http.MethodGet, "/api/v1/reports/system", http.StatusForbidden},
		{"doctor reads reports", doctor, http.MethodGet, "/api/v1/reports/system", http.StatusOK},
		{"admin reads reports", admin, http.MethodGet, "/api/v1/reports/departments", http.StatusOK},
		{"receptionist estimates a visit", reception, http.MethodGet, "/api/v1/billing/estimate", http.StatusOK},
		{"doctor estimates a visit", doctor, http.MethodGet, "/api/v1/billing/estimate", http.StatusForbidden},
		{"doctor purges patient", doctor, http.MethodDelete, "/api/v1/patients/PAT001", http.StatusForbidden},
		{"doctor lists invoices of patient", doctor, http.MethodGet, "/api/v1/patients/PAT001/invoices", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, _ := s.do(tc.method, tc.path, tc.token, nil)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestDeactivatedAccountTokenRejected(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin123")
	doctor := s.login("doctor", "doctor123")

	w, _ := s.do(http.MethodGet, "/api/v1/auth/profile", doctor, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env := s.do(http.MethodPatch, "/api/v1/users/USR002/deactivate", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, env.Error)

	w, env = s.do(http.MethodGet, "/api/v1/auth/profile", doctor, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "User account is inactive", env.Error)
}

func TestEstimateVisit(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin123")

	w, env := s.do(http.MethodGet, "/api/v1/billing/estimate?consultation=true&tests=blood_test,%20xray,bogus", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	estimate := decode[struct {
		Tests []string `json:"tests"`
		Total float64  `json:"total"`
	}](t, env)
	assert.Equal(t, []string{"blood_test", "xray", "bogus"}, estimate.Tests)
	assert.Equal(t, 1700.0, estimate.Total)

	w, _ = s.do(http.MethodGet, "/api/v1/billing/estimate?consultation=maybe", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAppointmentAndBillingFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin123")

	w, env := s.do(http.MethodPost, "/api/v1/patients", admin, janeDoe)
	require.Equal(t, http.StatusCreated, w.Code, env.Error)

	w, env = s.do(http.MethodPost, "/api/v1/appointments", admin, gin.H{
		"patient_id":       "PAT001",
		"doctor_id":        "USR002",
		"appointment_date": "2099-01-10",
		"appointment_time": "09:30",
		"reason":           "Checkup",
	})
	require.Equal(t, http.StatusCreated, w.Code, env.Error)
	apt := decode[models.Appointment](t, env)
	assert.Equal(t, "APT001", apt.AppointmentID)
	assert.Equal(t, "General Medicine", apt.Department)

	w, _ = s.do(http.MethodPatch, "/api/v1/appointments/APT001/status", admin, gin.H{"status": "postponed"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPatch, "/api/v1/appointments/APT001/status", admin, gin.H{"status": "completed"})
	assert.Equal(t, http.StatusConflict, w.Code, "scheduled appointments are confirmed before completion")

	w, env = s.do(http.MethodPatch, "/api/v1/appointments/APT001/status", admin, gin.H{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	assert.Equal(t, models.StatusConfirmed, decode[models.Appointment](t, env).Status)

	w, env = s.do(http.MethodPatch, "/api/v1/appointments/APT001/status", admin, gin.H{"status": "completed", "notes": "All good"})
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	apt = decode[models.Appointment](t, env)
	assert.Equal(t, models.StatusCompleted, apt.Status)
	assert.Equal(t, "All good", apt.Notes)

	w, _ = s.do(http.MethodPatch, "/api/v1/appointments/APT001/status", admin, gin.H{"status": "scheduled"})
	assert.Equal(t, http.StatusConflict, w.Code)

	doctor := s.login("doctor", "doctor123")
	w, env = s.do(http.MethodGet, "/api/v1/appointments?mine=true", doctor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Appointment](t, env), 1)

	w, env = s.do(http.MethodPost, "/api/v1/billing/preview", admin, gin.H{
		"patient_id":       "PAT001",
		"items":            []gin.H{{"code": "consultation", "quantity": 1}, {"code": "blood_test", "quantity": 1}},
		"discount_percent": 10,
		"tax_percent":      5,
	})
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	assert.Contains(t, string(env.Data), "850.5")

	w, env = s.do(http.MethodPost, "/api/v1/billing/invoices", admin, gin.H{
		"patient_id":       "PAT001",
		"appointment_id":   "APT001",
		"items":            []gin.H{{"code": "consultation", "quantity": 1}, {"code": "blood_test", "quantity": 1}},
		"discount_percent": 10,
		"tax_percent":      5,
	})
	require.Equal(t, http.StatusCreated, w.Code, env.Error)
	invoice := decode[models.Invoice](t, env)
	assert.Equal(t, "INV001", invoice.BillID)
	assert.Equal(t, "850.50", invoice.TotalAmount)

	w, env = s.do(http.MethodGet, "/api/v1/billing/invoices?status=pending", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Invoice](t, env), 1)

	w, env = s.do(http.MethodPatch, "/api/v1/billing/invoices/INV001/pay", admin, gin.H{"payment_method": "Card"})
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	assert.Equal(t, models.PaymentPaid, decode[models.Invoice](t, env).PaymentStatus)

	w, _ = s.do(http.MethodPatch, "/api/v1/billing/invoices/INV001/pay", admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/patients/PAT001/invoices", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Invoice](t, env), 1)

	w, env = s.do(http.MethodGet, "/api/v1/reports/financial?from=2000-01-01", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, env.Error)

	w, _ = s.do(http.MethodGet, "/api/v1/reports/financial?from=01/01/2000", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
