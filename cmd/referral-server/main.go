package main

import (
	"context"
	crypto_rand "crypto/rand"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mydrreferral/mydrreferral/internal/config"
	"github.com/mydrreferral/mydrreferral/internal/domain/account"
	"github.com/mydrreferral/mydrreferral/internal/domain/connection"
	"github.com/mydrreferral/mydrreferral/internal/domain/referral"
	"github.com/mydrreferral/mydrreferral/internal/platform/auth"
	"github.com/mydrreferral/mydrreferral/internal/platform/db"
	"github.com/mydrreferral/mydrreferral/internal/platform/middleware"
	"github.com/mydrreferral/mydrreferral/internal/platform/notification"
)

const version = "0.1.0"

// openPool builds the pgx pool from the service configuration.
func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return db.NewPool(ctx, db.PoolConfig{
		URL:               cfg.DatabaseURL,
		MaxConns:          cfg.DBMaxConns,
		MinConns:          cfg.DBMinConns,
		MaxConnLifetime:   time.Duration(cfg.DBConnLifetime) * time.Minute,
		MaxConnIdleTime:   time.Duration(cfg.DBConnIdleTime) * time.Minute,
		HealthCheckPeriod: time.Duration(cfg.DBHealthCheck) * time.Second,
	})
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "referral-server",
		Short: "MyDrReferral API Server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the referral API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := openPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth: standalone mode signs and validates its own HS256 tokens; external
	// mode validates against an identity provider's JWKS endpoint.
	jwtCfg := auth.JWTConfig{
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.AuthAudience,
	}
	var issuer *auth.TokenIssuer
	switch cfg.ResolvedAuthMode() {
	case "external":
		jwtCfg.JWKSURL = cfg.AuthJWKSURL
	default:
		secret := []byte(cfg.JWTSecret)
		if len(secret) == 0 {
			// Dev convenience only; Validate rejects this outside development.
			secret = make([]byte, 32)
			if _, err := crypto_rand.Read(secret); err != nil {
				logger.Fatal().Err(err).Msg("failed to generate signing key")
			}
			logger.Warn().Msg("using an ephemeral JWT signing key")
		}
		jwtCfg.SigningKey = secret
		issuer = auth.NewTokenIssuer(secret, cfg.JWTIssuer, cfg.AuthAudience,
			time.Duration(cfg.JWTTTLHours)*time.Hour)
	}

	// Notifications
	var emailSender notification.EmailSender
	if cfg.SMTPHost != "" {
		emailSender = &notification.SMTPSender{
			Addr: fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
			From: cfg.SMTPFrom,
		}
	} else {
		logger.Warn().Msg("SMTP_HOST not set; outbound mail is recorded but not delivered")
		emailSender = &notification.MockEmailSender{}
	}
	notifyMgr := notification.NewManager(emailSender, nil, notification.NewTemplateEngine())

	// Repositories and services
	accountRepo := account.NewProfessionalRepoPG(pool)
	accountSvc := account.NewService(accountRepo, issuer, notifyMgr, logger)
	accountHandler := account.NewHandler(accountSvc)

	connectionRepo := connection.NewRepoPG(pool)
	connectionSvc := connection.NewService(connectionRepo)
	connectionHandler := connection.NewHandler(connectionSvc)

	referralRepo := referral.NewRepoPG(pool)
	referralSvc := referral.NewService(referralRepo, connectionRepo)
	referralHandler := referral.NewHandler(referralSvc)

	notifyHandler := notification.NewHandler(notifyMgr)

	// Public routes: registration and login live under the API prefix but
	// outside the JWT middleware.
	public := e.Group("/api/v1")
	e.GET("/health", db.HealthHandler(pool, version))

	// Authenticated API
	apiV1 := e.Group("/api/v1")
	apiV1.Use(auth.JWTMiddleware(jwtCfg))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	accountHandler.RegisterRoutes(public, apiV1)
	connectionHandler.RegisterRoutes(apiV1)
	referralHandler.RegisterRoutes(apiV1)

	// The notification log is cross-user ops data; only operator tokens may
	// read or retry it.
	adminV1 := apiV1.Group("", auth.RequireRole(auth.RoleAdmin))
	notifyHandler.RegisterRoutes(adminV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("auth_mode", cfg.ResolvedAuthMode()).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
