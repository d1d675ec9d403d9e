package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medconsult-api/config"
	deliveryHttp "medconsult-api/internal/delivery/http"
	"medconsult-api/internal/delivery/http/handler"
	"medconsult-api/internal/delivery/http/middleware"
	"medconsult-api/internal/gateway/payment"
	"medconsult-api/internal/infrastructure/cache"
	"medconsult-api/internal/infrastructure/database"
	"medconsult-api/internal/repository"
	"medconsult-api/internal/service"
	"medconsult-api/internal/usecase"
	"medconsult-api/internal/worker"
	"medconsult-api/pkg/jwt"
	"medconsult-api/pkg/validator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server
	Reconciler  *worker.PaymentReconciler
	Log         *logrus.Logger
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	log := setupLogger(cfg.App.LogLevel)
	app.Log = log
	log.Info("Configuration loaded successfully")

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB, cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db
	log.Info("Database connected successfully")

	if err := database.RunMigrations(db); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient
	log.Info("Redis connected successfully")

	if err := app.initialize(cfg, db, redisClient, log); err != nil {
		app.Close()
		return nil, err
	}

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger(level string) *logrus.Logger {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
	return log
}

// initialize wires every layer and builds the HTTP server
func (app *App) initialize(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, log *logrus.Logger) error {
	jwtService := jwt.NewJWTService(cfg.JWT)
	customValidator := validator.NewValidator()
	metrics := service.NewMetrics(prometheus.DefaultRegisterer)

	// Initialize repositories
	accountRepo := repository.NewAccountRepository()
	profileRepo := repository.NewUserProfileRepository()
	bookingRepo := repository.NewBookingRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	// Initialize services
	auditService := service.NewAuditService(db, log, auditLogRepo)
	sessionService := service.NewSessionService(redisClient, jwtService, log)
	sessionService.Subscribe(auditService.HandleSessionEvent)
	sessionService.Subscribe(metrics.HandleSessionEvent)
	paymentLocks := service.NewPaymentLockService(redisClient, log, cfg.Payment.LockTTL)
	mailer := service.NewMailer(cfg.Mail, log)

	gateway, err := payment.New(cfg.Payment, log)
	if err != nil {
		return fmt.Errorf("failed to initialize payment gateway: %w", err)
	}
	log.Infof("Payment provider: %s", gateway.Name())

	// Initialize usecases
	authUsecase := usecase.NewAuthUsecase(db, log, accountRepo, profileRepo, sessionService, mailer, auditService, customValidator, usecase.AuthConfig{
		StoreTimeout:  cfg.App.StoreTimeout,
		ResetURL:      cfg.Mail.ResetURL,
		ResetTokenTTL: cfg.Mail.ResetTokenTTL,
	})
	bookingUsecase := usecase.NewBookingUsecase(db, log, bookingRepo, gateway, paymentLocks, auditService, metrics, usecase.BookingConfig{
		StoreTimeout:       cfg.App.StoreTimeout,
		PaymentTimeout:     cfg.Payment.Timeout,
		Currency:           cfg.Payment.Currency,
		ReconcileBatchSize: cfg.Reconcile.BatchSize,
	})
	profileUsecase := usecase.NewProfileUsecase(db, log, profileRepo, auditService, cfg.App.StoreTimeout)
	catalogUsecase := usecase.NewCatalogUsecase()
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, auditLogRepo, cfg.App.StoreTimeout)

	if cfg.Reconcile.Enabled {
		reconciler, err := worker.NewPaymentReconciler(bookingUsecase, log, cfg.Reconcile.Schedule, time.Minute)
		if err != nil {
			return err
		}
		app.Reconciler = reconciler
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authUsecase, customValidator)
	bookingHandler := handler.NewBookingHandler(bookingUsecase, customValidator)
	profileHandler := handler.NewProfileHandler(profileUsecase, customValidator)
	catalogHandler := handler.NewCatalogHandler(catalogUsecase)
	paymentHandler := handler.NewPaymentHandler(bookingUsecase, customValidator)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(sessionService, log)
	internalAuthMiddleware := middleware.NewInternalAuthMiddleware(cfg.Internal.SigningSecret, cfg.Internal.SignatureTolerance, log)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.AllowedOrigins...)
	loggingMiddleware := middleware.NewLoggingMiddleware(log)

	// Initialize router
	router := deliveryHttp.NewRouter(
		authHandler,
		bookingHandler,
		profileHandler,
		catalogHandler,
		paymentHandler,
		auditLogHandler,
		authMiddleware,
		internalAuthMiddleware,
		corsMiddleware,
		loggingMiddleware,
		promhttp.Handler(),
	)

	app.Server = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.App.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// Run starts the HTTP server and the reconciler, then handles graceful shutdown
func (app *App) Run() {
	if app.Reconciler != nil {
		app.Reconciler.Start()
	}

	// Start server in goroutine
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Log.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	if app.Reconciler != nil {
		if err := app.Reconciler.Stop(ctx); err != nil {
			app.Log.Errorf("Payment reconciler did not stop cleanly: %v", err)
		}
	}

	// Close connections
	app.Close()

	app.Log.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, etc.)
func (app *App) Close() {
	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
