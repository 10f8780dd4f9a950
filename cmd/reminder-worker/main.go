package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dentalcare/clinic-api/internal/booking"
	"github.com/dentalcare/clinic-api/internal/config"
	"github.com/dentalcare/clinic-api/internal/db"
	"github.com/dentalcare/clinic-api/internal/notification"
	redisclient "github.com/dentalcare/clinic-api/internal/redis"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "reminder-worker").Logger()
	log.Info().Msg("reminder-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	log.Info().Str("env", cfg.Env).Dur("interval", cfg.WorkerInterval).Msg("running reminder worker")

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
	notifications := notification.NewService(notification.NewPgRepository(pgPool), log)
	svc := booking.NewService(booking.NewPgRepository(pgPool), locker, notifications, log)

	// Run once at startup
	runOnce(rootCtx, svc, log)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received, stopping reminder worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, log)
		}
	}
}

// runOnce reminds patients of confirmed reservations scheduled for tomorrow.
func runOnce(ctx context.Context, svc *booking.Service, log zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	tomorrow := time.Now().UTC().AddDate(0, 0, 1)

	start := time.Now()
	if err := svc.SendReminders(runCtx, tomorrow); err != nil {
		log.Error().Err(err).Msg("reminder run error")
		return
	}
	log.Info().Dur("took", time.Since(start)).Msg("reminder run complete")
}
