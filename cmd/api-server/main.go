package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dentalcare/clinic-api/internal/account"
	"github.com/dentalcare/clinic-api/internal/api"
	"github.com/dentalcare/clinic-api/internal/auth"
	"github.com/dentalcare/clinic-api/internal/billing"
	"github.com/dentalcare/clinic-api/internal/booking"
	"github.com/dentalcare/clinic-api/internal/clinical"
	"github.com/dentalcare/clinic-api/internal/config"
	"github.com/dentalcare/clinic-api/internal/db"
	"github.com/dentalcare/clinic-api/internal/inventory"
	"github.com/dentalcare/clinic-api/internal/notification"
	redisclient "github.com/dentalcare/clinic-api/internal/redis"
)

const version = "0.1.0"

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "api-server").Logger()
	log.Info().Msg("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}
	if cfg.Env == "dev" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("configuration loaded")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisPoolSize)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	locker := redisclient.NewRedisLocker(rdb, cfg.LockTTL)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	clinicalRepo := clinical.NewPgRepository(pgPool)

	notifications := notification.NewService(notification.NewPgRepository(pgPool), log)
	accounts := account.NewService(account.NewPgRepository(pgPool), clinicalRepo, tokens, log)
	bookings := booking.NewService(booking.NewPgRepository(pgPool), locker, notifications, log)
	clinicals := clinical.NewService(clinicalRepo, locker, notifications, log)
	billings := billing.NewService(billing.NewPgRepository(pgPool), notifications, log)
	inventories := inventory.NewService(inventory.NewPgRepository(pgPool), notifications, log)

	router := api.NewRouter(api.RouterConfig{
		Accounts:      accounts,
		Booking:       bookings,
		Clinical:      clinicals,
		Billing:       billings,
		Inventory:     inventories,
		Notifications: notifications,
		Tokens:        tokens,
		PgPool:        pgPool,
		Redis:         rdb,
		Logger:        log,
		Env:           cfg.Env,
		Version:       version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	log.Info().Msg("api-server stopped")
}
