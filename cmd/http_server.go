package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tsegaye/travel-listings/internal"
	"github.com/tsegaye/travel-listings/internal/auth"
	authPostgres "github.com/tsegaye/travel-listings/internal/auth/postgres"
	"github.com/tsegaye/travel-listings/internal/booking"
	bookingPostgres "github.com/tsegaye/travel-listings/internal/booking/postgres"
	"github.com/tsegaye/travel-listings/internal/core/events"
	"github.com/tsegaye/travel-listings/internal/listing"
	listingPostgres "github.com/tsegaye/travel-listings/internal/listing/postgres"
	"github.com/tsegaye/travel-listings/internal/lock"
	"github.com/tsegaye/travel-listings/internal/monitoring"
	"github.com/tsegaye/travel-listings/internal/notification"
	"github.com/tsegaye/travel-listings/internal/payment"
	paymentPostgres "github.com/tsegaye/travel-listings/internal/payment/postgres"
	"github.com/tsegaye/travel-listings/internal/paymentgateway"
	"github.com/tsegaye/travel-listings/internal/transport"
	"github.com/tsegaye/travel-listings/internal/transport/rest"
	"github.com/tsegaye/travel-listings/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config     *internal.Config
	DB         *sqlx.DB
	GormDB     *gorm.DB
	Redis      *redis.Client
	Router     *chi.Mux
	Dispatcher *notification.Dispatcher
	Logger     *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if deps.Dispatcher != nil {
			deps.Dispatcher.Stop()
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
		if deps.Redis != nil {
			if err := deps.Redis.Close(); err != nil {
				slog.Error("Redis close error", "error", err)
			}
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	lg := deps.Logger
	cfg := deps.Config

	eventBus := events.NewEventBus(lg)
	baseHandler := transport.NewBaseHandler(lg)
	metrics := monitoring.NewPaymentMetrics(prometheus.DefaultRegisterer)

	// auth
	tokenGen := auth.NewJWTTokenGenerator(cfg.Security.JWTAccessSecret, cfg.Security.JWTRefreshSecret)
	authService := auth.NewService(authPostgres.NewRepository(deps.GormDB), tokenGen, cfg.Security.BCryptCost)
	authHandler := auth.NewHandler(authService)

	// listings
	listingService := listing.NewService(listingPostgres.NewListingRepository(deps.GormDB), lg)
	listingHandler := listing.NewHandler(baseHandler, listingService)

	// bookings
	bookingRepo := bookingPostgres.NewBookingRepository(deps.GormDB)
	bookingService := booking.NewService(bookingRepo, eventBus, lg)
	bookingHandler := booking.NewHandler(baseHandler, bookingService)
	booking.NewEventHandler(bookingService, lg).Register(eventBus)

	// payments
	gatewayClient := paymentgateway.NewClient(paymentgateway.Config{
		BaseURL:     cfg.Gateway.BaseURL,
		SecretKey:   cfg.Gateway.SecretKey,
		CallbackURL: cfg.Gateway.CallbackURL,
		ReturnURL:   cfg.Gateway.ReturnURL,
		Timeout:     cfg.Gateway.Timeout,
	}, lg)

	var locker lock.Locker = lock.NewKeyed()
	if deps.Redis != nil {
		locker = lock.NewRedis(deps.Redis, cfg.Redis.LockTTL)
	}

	paymentService := payment.NewService(
		paymentPostgres.NewPaymentRepository(deps.GormDB),
		gatewayClient,
		bookingRepo,
		locker,
		eventBus,
		metrics,
		lg,
	)
	paymentHandler := payment.NewHandler(baseHandler, paymentService)
	webhookHandler := payment.NewWebhookHandler(baseHandler, paymentService, lg)

	// notifications
	if cfg.Email.SMTPHost != "" {
		mailer := notification.NewSMTPMailer(
			cfg.Email.SMTPHost, cfg.Email.SMTPPort,
			cfg.Email.From, cfg.Email.Username, cfg.Email.Password)
		dispatcher := notification.NewDispatcher(mailer, cfg.Email.Workers, lg)
		dispatcher.Register(eventBus)
		dispatcher.Start()
		deps.Dispatcher = dispatcher
	} else {
		lg.Warn("smtp not configured, booking notifications disabled")
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, deps.Redis,
		authHandler, listingHandler, bookingHandler, paymentHandler, webhookHandler, lg)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.InitWithOptions(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	var redisClient *redis.Client
	if config.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
	}

	return &Dependencies{
		Config: config,
		Logger: lg,
		DB:     db,
		GormDB: gormDB,
		Redis:  redisClient,
		Router: chi.NewRouter(),
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm opens the gorm session the repositories use. TranslateError maps
// driver duplicate-key failures onto gorm.ErrDuplicatedKey, which the payment
// repository relies on for reference-collision detection.
func initGorm(cfg internal.DatabaseConfig) (*gorm.DB, error) {
	gormDB, err := gorm.Open(gormPostgres.Open(cfg.Source), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return gormDB, nil
}
