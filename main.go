package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"hospital-admin-server/internal/config"
	"hospital-admin-server/internal/legacy"
	"hospital-admin-server/internal/logger"
	"hospital-admin-server/internal/middleware"
	"hospital-admin-server/internal/models"
	"hospital-admin-server/internal/routes"
	"hospital-admin-server/internal/services"
	"hospital-admin-server/internal/store"
)

func main() {
	importDir := flag.String("import-json", "", "import legacy JSON data files from this directory, then exit")
	flag.Parse()

	// A missing .env is fine; the environment may already be set
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	appLog := logger.New(cfg.LogLevel)
	if cfg.Environment == "development" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database connection
	db, err := models.InitDB(models.DatabaseConfig{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Path:   cfg.Database.Path,
	})
	if err != nil {
		appLog.WithError(err).Fatal("Error connecting to database")
	}

	da := store.New(db, appLog)
	svc := routes.Services{
		Auth:         services.NewAuthService(da, appLog),
		Patients:     services.NewPatientService(da, appLog),
		Appointments: services.NewAppointmentService(da, appLog),
		Billing:      services.NewBillingService(da, appLog, cfg.DefaultTaxPercent),
		Reports:      services.NewReportService(da, appLog),
	}

	ctx := context.Background()
	if *importDir != "" {
		results, err := legacy.NewImporter(da, appLog).Import(ctx, *importDir)
		if err != nil {
			appLog.WithError(err).Fatal("Legacy import failed")
		}
		for _, r := range results {
			appLog.WithFields(logrus.Fields{
				"collection": r.Collection,
				"imported":   r.Imported,
				"skipped":    r.Skipped,
				"failed":     r.Failed,
			}).Info("Import summary")
		}
		return
	}

	if cfg.SeedDefaultAccounts {
		if err := svc.Auth.SeedDefaults(ctx); err != nil {
			appLog.WithError(err).Fatal("Error seeding default accounts")
		}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(appLog))

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, svc, cfg)

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	appLog.WithField("port", cfg.Port).Info("Server running")
	if err := router.Run(serverAddr); err != nil {
		appLog.WithError(err).Fatal("Failed to start server")
	}
}
