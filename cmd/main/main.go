package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"masareefy-import-service/internal/config"
	"masareefy-import-service/internal/events"
	"masareefy-import-service/internal/handlers"
	"masareefy-import-service/internal/middleware"
	"masareefy-import-service/internal/models"
	"masareefy-import-service/internal/repository"
	"masareefy-import-service/internal/services"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
	"github.com/Tesseract-Nexus/go-shared/rbac"
	"github.com/Tesseract-Nexus/go-shared/tracing"
)

// @title Masareefy Import API
// @version 1.0.0
// @description Tenant-scoped import of courier exports, Shopify exports and inventory templates

// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.InventoryItem{},
		&models.RevenueEntry{},
		&models.ShipmentRecord{},
		&models.PlanLimit{},
		&models.ImportHistory{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Redis backs sessions and the SKU cache; without it sessions live in memory
	redisClient, err := config.InitRedis(cfg)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v", err)
	}
	var sessions repository.SessionStore
	if redisClient != nil {
		sessions = repository.NewRedisSessionStore(redisClient, cfg.SessionTTL)
		log.Println("✓ Redis session store initialized")
		defer redisClient.Close()
	} else {
		sessions = repository.NewMemorySessionStore(cfg.SessionTTL)
		log.Println("Redis not available, import sessions are kept in memory")
	}

	// Initialize NATS event publisher (optional - graceful degradation if NATS unavailable)
	var (
		eventPublisher *events.ImportEventPublisher
		publisher      services.EventPublisher
		eventBus       handlers.EventBus
	)
	if cfg.NATSURL != "" {
		eventPublisher, err = events.NewImportEventPublisher(cfg.NATSURL, logger)
		if err != nil {
			log.Printf("Warning: Failed to initialize NATS event publisher: %v", err)
			log.Println("Continuing without event publishing...")
		} else {
			log.Println("✓ Connected to NATS for event publishing")
			publisher = eventPublisher
			eventBus = eventPublisher
			defer eventPublisher.Close()
		}
	} else {
		log.Println("NATS_URL not configured, event publishing disabled")
	}

	importRepo := repository.NewImportRepository(db, redisClient)
	importService := services.NewImportService(importRepo, sessions, publisher, cfg.CommitBatchSize, logger)

	importHandler := handlers.NewImportHandler(importService, cfg.MaxUploadBytes, logger)
	healthHandler := handlers.NewHealthHandler(importRepo, eventBus)

	// Initialize OpenTelemetry tracing
	var tracerProvider *tracing.TracerProvider
	if cfg.Environment == "production" {
		tracerProvider, err = tracing.InitTracer(tracing.ProductionConfig("masareefy-import-service"))
	} else {
		tracerProvider, err = tracing.InitTracer(tracing.DefaultConfig("masareefy-import-service"))
	}
	if err != nil {
		log.Printf("WARNING: Failed to initialize tracing: %v (continuing without tracing)", err)
	} else {
		log.Println("✓ OpenTelemetry tracing initialized")
	}

	metrics := gosharedmw.InitGlobalMetrics("tesseract", "masareefy_import_service")
	log.Println("✓ Prometheus metrics initialized")

	rbacMiddleware := rbac.NewMiddlewareWithURL(cfg.RBACURL, nil)
	log.Println("✓ RBAC middleware initialized")

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.Middleware())
	router.Use(tracing.GinMiddleware("masareefy-import-service"))
	router.Use(middleware.CORS())

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", healthHandler.ExtendedHealthCheck)
	router.GET("/metrics", gosharedmw.Handler())
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api/v1")

	switch cfg.AuthMode {
	case "jwt":
		api.Use(middleware.AuthMiddleware(cfg.JWTSecret))
		api.Use(middleware.TenantMiddleware())
		log.Println("✓ JWT authentication enabled")
	case "dev":
		api.Use(middleware.DevelopmentAuthMiddleware())
		api.Use(middleware.TenantMiddleware())
		log.Println("WARNING: development authentication enabled")
	default:
		// Istio validates the JWT and injects x-jwt-claim-* headers
		api.Use(gosharedmw.IstioAuth(gosharedmw.IstioAuthConfig{
			RequireAuth:        true,
			AllowLegacyHeaders: false,
			SkipPaths:          []string{"/health", "/ready", "/metrics", "/swagger"},
		}))
		api.Use(middleware.TenantMiddleware())
		api.Use(gosharedmw.VendorScopeFilter())
	}

	read := rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead)
	update := rbacMiddleware.RequirePermission(rbac.PermissionInventoryUpdate)

	imports := api.Group("/imports")
	{
		imports.GET("/formats", read, importHandler.ListFormats)
		imports.GET("/formats/:format/template", read, importHandler.GetTemplate)
		imports.POST("/formats/:format/preview", update, importHandler.Preview)

		sessionRoutes := imports.Group("/sessions")
		{
			sessionRoutes.GET("/:id", read, importHandler.GetSession)
			sessionRoutes.PUT("/:id/file", update, importHandler.ReuploadSession)
			sessionRoutes.POST("/:id/confirm", update, importHandler.ConfirmImport)
			sessionRoutes.POST("/:id/duplicates", update, importHandler.ResolveDuplicates)
			sessionRoutes.POST("/:id/quota", update, importHandler.ResolveQuota)
			sessionRoutes.DELETE("/:id", update, importHandler.DiscardSession)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Masareefy import service starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down masareefy-import-service...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if tracerProvider != nil {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		} else {
			log.Println("✓ Tracer provider shut down")
		}
	}

	log.Println("Masareefy import service stopped")
}
