package routes

import (
	"hospital-admin-server/internal/config"
	"hospital-admin-server/internal/handlers"
	"hospital-admin-server/internal/middleware"
	"hospital-admin-server/internal/models"
	"hospital-admin-server/internal/services"

	"github.com/gin-gonic/gin"
)

// Services bundles the domain services the handlers are built from.
type Services struct {
	Auth         *services.AuthService
	Patients     *services.PatientService
	Appointments *services.AppointmentService
	Billing      *services.BillingService
	Reports      *services.ReportService
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, svc Services, cfg *config.Config) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(svc.Auth, cfg)
	userHandler := handlers.NewUserHandler(svc.Auth)
	patientHandler := handlers.NewPatientHandler(svc.Patients, svc.Billing)
	appointmentHandler := handlers.NewAppointmentHandler(svc.Appointments)
	billingHandler := handlers.NewBillingHandler(svc.Billing)
	reportHandler := handlers.NewReportHandler(svc.Reports)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg, svc.Auth))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
			authRoutesPrivate.PUT("/password", authHandler.ChangePassword)
		}

		userRoutes := private.Group("/users")
		{
			// Doctor list for booking - accessible by all authenticated users
			userRoutes.GET("/doctors", userHandler.GetDoctors)

			adminRoutes := userRoutes.Group("")
			adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
			{
				adminRoutes.POST("", userHandler.CreateUser)
				adminRoutes.GET("", userHandler.GetUsers)
				adminRoutes.GET("/:id", userHandler.GetUserByID)
				adminRoutes.PATCH("/:id/deactivate", userHandler.DeactivateUser)
			}
		}

		patientRoutes := private.Group("/patients")
		patientRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleDoctor, models.RoleNurse, models.RoleReceptionist))
		{
			patientRoutes.POST("", patientHandler.RegisterPatient)
			patientRoutes.GET("", patientHandler.GetPatients)
			patientRoutes.GET("/:id", patientHandler.GetPatientByID)
			patientRoutes.PUT("/:id", patientHandler.UpdatePatient)
			patientRoutes.PATCH("/:id/deactivate", patientHandler.DeactivatePatient)
			patientRoutes.GET("/:id/invoices", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleReceptionist), patientHandler.GetPatientInvoices)
			patientRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), patientHandler.PurgePatient)
		}

		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("", appointmentHandler.GetAppointments)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)
			appointmentRoutes.PATCH("/:id/status", appointmentHandler.UpdateAppointmentStatus)
		}

		billingRoutes := private.Group("/billing")
		billingRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleReceptionist))
		{
			billingRoutes.GET("/services", billingHandler.GetServices)
			billingRoutes.GET("/estimate", billingHandler.EstimateAppointment)
			billingRoutes.POST("/preview", billingHandler.PreviewInvoice)
			billingRoutes.POST("/invoices", billingHandler.CreateInvoice)
			billingRoutes.GET("/invoices", billingHandler.GetInvoices)
			billingRoutes.GET("/invoices/:id", billingHandler.GetInvoiceByID)
			billingRoutes.PATCH("/invoices/:id/pay", billingHandler.MarkInvoicePaid)
		}

		reportRoutes := private.Group("/reports")
		reportRoutes.Use(middleware.MinRoleMiddleware(models.RoleDoctor))
		{
			reportRoutes.GET("/patients", reportHandler.PatientSummary)
			reportRoutes.GET("/appointments", reportHandler.AppointmentReport)
			reportRoutes.GET("/financial", reportHandler.FinancialReport)
			reportRoutes.GET("/departments", reportHandler.DepartmentReport)
			reportRoutes.GET("/system", reportHandler.SystemStats)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
