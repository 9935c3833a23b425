package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	_ "github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/docs"
	authservice "github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/auth/service"
	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/config"
	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/logger"
	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/ratelimit"
	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/repositories"
	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/server"
	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/services"
)

// @title YBS Web Sitesi Admin API
// @version 1.0
// @description Session authentication and account administration for the YBS student club site

// @contact.name YBS Web Team

// @BasePath /api
// @securityDefinitions.apikey SessionCookie
// @in cookie
// @name ybs_session
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting YBS web admin", zap.String("environment", cfg.Environment))
	if cfg.Session.UsingDevSecret {
		appLogger.Warn("SESSION_SECRET is not set, using the development secret")
	}

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		appLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize session codec and password hasher
	codec, err := authservice.NewSessionCodec([]byte(cfg.Session.Secret), cfg.Session.TTL)
	if err != nil {
		appLogger.Fatal("Failed to create session codec", zap.Error(err))
	}
	hasher := authservice.NewPasswordHasher(cfg.BcryptCost)

	// Initialize login rate limiter and its sweeper
	limiter := ratelimit.New()
	sweeper, err := ratelimit.NewSweeper(limiter, cfg.RateLimit.SweepSchedule, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create rate limit sweeper", zap.Error(err))
	}
	sweeper.Start()
	defer sweeper.Stop()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, appLogger)

	// Initialize services
	loginPolicy := ratelimit.Policy{
		MaxAttempts: cfg.RateLimit.LoginMaxAttempts,
		Window:      cfg.RateLimit.LoginWindow,
	}
	authService, err := services.NewAuthService(userRepo, hasher, codec, limiter, loginPolicy, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create auth service", zap.Error(err))
	}
	userService := services.NewUserService(userRepo, hasher, appLogger)

	// Seed the first admin on an empty store
	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if _, err := authService.SeedAdmin(seedCtx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword, cfg.Bootstrap.AdminName); err != nil {
		appLogger.Error("Failed to seed admin", zap.Error(err))
	}
	seedCancel()

	// Setup router
	r := server.NewRouter(server.Deps{
		Logger:               appLogger,
		Verifier:             codec,
		AuthService:          authService,
		UserService:          userService,
		DB:                   db,
		Production:           cfg.IsProduction(),
		AllowedOrigins:       cfg.CORS.AllowedOrigins,
		APIRequestsPerMinute: cfg.RateLimit.APIRequestsPerMin,
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		appLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	appLogger.Info("Server exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "ybs_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directory if running from cmd
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(migrationPath, "mysql", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
