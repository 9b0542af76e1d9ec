package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/kaiac/backend/internal/archive"
	"github.com/kaiac/backend/internal/config"
	"github.com/kaiac/backend/internal/database"
	"github.com/kaiac/backend/internal/handlers"
	"github.com/kaiac/backend/internal/middleware"
	"github.com/kaiac/backend/internal/models"
	"github.com/kaiac/backend/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Connect to database and Redis
	db, rdb, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db, rdb)

	// Run migrations
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed admin user if not exists
	alertService := services.NewAlertService(db)
	seedAdminUser(db, alertService)

	// Archive stores for backup retention cleanup
	var stores []archive.Store
	if cfg.S3Endpoint != "" {
		s3Store, err := archive.NewS3Store(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize S3 archive store: %v", err)
		}
		stores = append(stores, s3Store)
	}
	if cfg.FTPHost != "" {
		stores = append(stores, archive.NewFTPStore(cfg))
	}

	// Core services
	usageCache := database.NewUsageCache(rdb)
	blacklist := database.NewTokenBlacklist(rdb)
	accounting := services.NewStorageAccountingService(db, usageCache)
	policyService := services.NewBackupPolicyService(db)
	backupService := services.NewBackupService(db, accounting, stores...)
	notifier := services.NewNotifier(db, alertService, nil, nil)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "KaiaC API v1.0",
		ServerHeader: "KaiaC",
		BodyLimit:    10 * 1024 * 1024, // 10MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(compress.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "kaiac-api",
		})
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg, db, blacklist, alertService)
	planHandler := handlers.NewPlanHandler(db)
	subscriptionHandler := handlers.NewSubscriptionHandler(db, accounting)
	websiteHandler := handlers.NewWebsiteHandler(db, accounting, notifier)
	backupHandler := handlers.NewBackupHandler(db, policyService, backupService, accounting, notifier)
	alertHandler := handlers.NewAlertHandler(alertService)
	notificationHandler := handlers.NewNotificationHandler(db)
	invoiceHandler := handlers.NewInvoiceHandler(db)
	mailDomainHandler := handlers.NewMailDomainHandler(db)

	// API routes
	api := app.Group("/api")

	// Rate limiting (100 requests per minute)
	api.Use(middleware.RateLimiter(100, 1*time.Minute))

	// Public routes
	api.Post("/auth/login", authHandler.Login)
	api.Post("/auth/register", authHandler.Register)

	// Protected routes
	protected := api.Group("", middleware.AuthRequired(cfg, db, blacklist))

	// Auth routes
	protected.Post("/auth/logout", authHandler.Logout)
	protected.Get("/auth/me", authHandler.Me)
	protected.Post("/auth/2fa/setup", authHandler.Enable2FA)
	protected.Post("/auth/2fa/verify", authHandler.Verify2FA)

	// Plan routes
	protected.Get("/plans", planHandler.List)
	protected.Get("/plans/:id", planHandler.Get)

	// Subscription routes
	subscriptions := protected.Group("/subscriptions")
	subscriptions.Get("/", subscriptionHandler.List)
	subscriptions.Get("/:id", subscriptionHandler.Get)
	subscriptions.Get("/:id/usage", subscriptionHandler.Usage)
	subscriptions.Get("/:id/usage/history", subscriptionHandler.UsageHistory)
	subscriptions.Post("/:id/usage", middleware.AdminOnly(), subscriptionHandler.RecordUsage)

	// Website routes
	websites := protected.Group("/websites")
	websites.Get("/", websiteHandler.List)
	websites.Get("/:id", websiteHandler.Get)
	websites.Post("/", websiteHandler.Create)
	websites.Put("/:id", websiteHandler.Update)
	websites.Delete("/:id", websiteHandler.Delete)
	websites.Put("/:id/storage", middleware.AdminOnly(), websiteHandler.UpdateStorage)

	// Backup routes
	websites.Get("/:id/backup-policy", backupHandler.GetPolicy)
	websites.Put("/:id/backup-policy", backupHandler.UpdatePolicy)
	websites.Get("/:id/backups", backupHandler.ListRecords)
	websites.Post("/:id/backups", backupHandler.CreateRecord)
	websites.Post("/:id/backups/cleanup", backupHandler.Cleanup)
	protected.Post("/backups/:recordId/archive", backupHandler.UploadArchive)
	protected.Put("/backups/:recordId/status", backupHandler.TransitionRecord)

	// Alert settings routes
	protected.Get("/alerts/settings", alertHandler.List)
	protected.Put("/alerts/settings/:category", alertHandler.Update)

	// Notification routes
	notifications := protected.Group("/notifications")
	notifications.Get("/", notificationHandler.List)
	notifications.Post("/:id/read", notificationHandler.MarkRead)
	notifications.Post("/read-all", notificationHandler.MarkAllRead)

	// Invoice routes
	invoices := protected.Group("/invoices")
	invoices.Get("/", invoiceHandler.List)
	invoices.Get("/:id", invoiceHandler.Get)
	invoices.Post("/", middleware.AdminOnly(), invoiceHandler.Create)

	// Mail domain routes
	protected.Get("/mail-domains", mailDomainHandler.List)
	protected.Get("/mail-domains/:id", mailDomainHandler.Get)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		app.Shutdown()
	}()

	// Start server
	addr := fmt.Sprintf(":%d", cfg.APIPort)
	log.Printf("Starting KaiaC API server on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func seedAdminUser(db *gorm.DB, alerts *services.AlertService) {
	var count int64
	db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count)

	if count == 0 {
		log.Println("Creating default admin user...")

		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)

		admin := models.User{
			Email:        "admin@kaiac.local",
			PasswordHash: string(hashedPassword),
			FirstName:    "System",
			LastName:     "Administrator",
			Role:         models.RoleAdmin,
			IsActive:     true,
		}

		if err := db.Create(&admin).Error; err != nil {
			log.Printf("Failed to create admin user: %v", err)
			return
		}

		if err := alerts.EnsureDefaults(admin.ID); err != nil {
			log.Printf("Failed to create admin alert settings: %v", err)
		}

		log.Println("Admin user created successfully (email: admin@kaiac.local, password: admin123)")
	}
}
