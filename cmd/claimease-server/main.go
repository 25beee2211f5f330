package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/claimease/claimease/internal/config"
	"github.com/claimease/claimease/internal/platform/blobstore"
	"github.com/claimease/claimease/internal/platform/db"
	"github.com/claimease/claimease/internal/platform/middleware"
	"github.com/claimease/claimease/internal/platform/redis"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "claimease-server",
		Short:        "ClaimEase insurance claims API server",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(claimsCmd())
	rootCmd.AddCommand(documentsCmd())
	rootCmd.AddCommand(usersCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the ClaimEase API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger.Level(level)
}

// loadConfig loads and validates configuration. Nothing is served until it
// passes.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{
		MaxConns:       cfg.DBMaxConns,
		MinConns:       cfg.DBMinConns,
		ConnectTimeout: 10 * time.Second,
	})
}

// newLimiter prefers the shared Redis counter when a client is configured and
// falls back to the in-process bucket whenever Redis errors.
func newLimiter(ctx context.Context, cfg *config.Config, client *redis.Client, logger zerolog.Logger) middleware.Limiter {
	rlCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	memory := middleware.NewMemoryLimiter(rlCfg)
	memory.StartSweeper(ctx, time.Minute)

	if client == nil {
		return memory
	}
	logger.Info().Msg("using redis rate limiter")
	return middleware.FallbackLimiter{
		Primary:  middleware.NewRedisLimiter(client, rlCfg, time.Second),
		Fallback: memory,
	}
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	pool, err := openPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	if !cfg.IsProduction() {
		n, err := db.NewMigrator(pool, cfg.MigrationsDir).Up(ctx)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		logger.Info().Int("applied", n).Msg("migrations up to date")
	}

	redisClient, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to redis")
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	limiter := newLimiter(ctx, cfg, redisClient, logger)

	blobs, err := blobstore.NewLocalStore(cfg.UploadDir)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, logger, pool, blobs, limiter)
	if err != nil {
		return err
	}
	if err := a.claims.PrimeNumbers(ctx); err != nil {
		logger.Warn().Err(err).Msg("could not prime claim number generator")
	}

	e := a.router()
	e.GET("/health/db", db.HealthHandler(pool))
	if redisClient != nil {
		e.GET("/health/redis", redis.HealthHandler(redisClient))
	}

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
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
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
