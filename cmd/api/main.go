package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/attestation/backend/internal/config"
	"github.com/attestation/backend/internal/handlers"
	"github.com/attestation/backend/internal/logging"
	"github.com/attestation/backend/internal/middleware"
	"github.com/attestation/backend/internal/models"
	"github.com/attestation/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	// Initialize configuration
	cfg := config.New()
	logging.Init(cfg.LogLevel, cfg.Env)
	log := logging.WithComponent("main")
	if envErr != nil {
		log.Info("No .env file found, using environment variables")
	}

	// Initialize the audit database
	var db *gorm.DB
	if cfg.AuditEnabled {
		var err error
		db, err = models.InitDB(cfg)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize database")
		}
		if err := models.Migrate(db); err != nil {
			log.WithError(err).Fatal("Failed to run migrations")
		}
	} else {
		log.Info("Generation audit disabled")
	}

	// Initialize Redis
	redisClient := models.InitRedis(cfg)
	defer redisClient.Close()

	// Initialize services
	layout := services.MustLayout()
	templates, err := services.NewTemplateSource(cfg, layout)
	if err != nil {
		log.WithError(err).Fatal("Failed to init template source")
	}
	if _, err := templates.Fetch(context.Background()); err != nil {
		log.WithError(err).WithField("source", cfg.TemplateSource).Warn("Certificate template not available yet")
	}

	qrService := services.NewQRService(cfg)
	certificateService := services.NewCertificateService(templates, qrService, services.NewStamper(layout), cfg.Location())
	profileStore := services.NewProfileStore(redisClient, cfg.ProfileTTL)
	auditService := services.NewAuditService(db)

	// Setup Gin router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg))
	router.Use(middleware.RateLimiter(redisClient, cfg))

	// Initialize handlers
	sessions := handlers.NewSessionManager(cfg, time.Now)
	certificateHandler := handlers.NewCertificateHandler(certificateService, profileStore, auditService, sessions, time.Now)
	profileHandler := handlers.NewProfileHandler(profileStore, sessions, cfg.Location(), time.Now)
	publicHandler := handlers.NewPublicHandler(auditService)

	// Health check outside API group (no /api/v1 prefix)
	router.GET("/health", publicHandler.Health)

	api := router.Group("/api/v1")
	{
		api.GET("/health", publicHandler.Health)

		api.OPTIONS("/*path", func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})

		api.GET("/form", profileHandler.GetForm)
		api.DELETE("/profile", profileHandler.DeleteProfile)
		api.POST("/certificates", middleware.GenerationLimit(redisClient, cfg, time.Now), certificateHandler.Generate)

		api.GET("/stats/reasons", publicHandler.GetReasonStats)
	}

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.WithField("port", cfg.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}

	log.Info("Server exited")
}
