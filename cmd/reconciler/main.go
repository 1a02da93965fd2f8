// Command reconciler refreshes stored match notifications for profiles whose
// last check is older than RECONCILE_STALE_AFTER, on RECONCILE_SCHEDULE.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"riftmarket-backend/internal/app"
	healthsvc "riftmarket-backend/internal/application/health"
	"riftmarket-backend/internal/config"
	"riftmarket-backend/internal/infrastructure/database"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	once := flag.Bool("once", false, "run a single batch and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection failed")
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("postgres migrate failed")
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("redis url")
		}
		rdb = redis.NewClient(opt)
		defer rdb.Close()
	}

	batch := app.NewServices(cfg, db, rdb).Batch

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := func() {
		res, err := batch.RunOnce(ctx)
		rec := healthsvc.ReconcilerRun{
			FinishedAt:       time.Now().UTC(),
			Profiles:         res.Profiles,
			NewNotifications: res.NewNotifications,
		}
		if err != nil {
			rec.Error = err.Error()
			log.Error().Err(err).Msg("batch reconcile failed")
		}
		if err := healthsvc.RecordReconcilerRun(context.Background(), rdb, rec); err != nil {
			log.Warn().Err(err).Msg("record reconciler run")
		}
	}

	if *once {
		run()
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.ReconcileSchedule, run); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.ReconcileSchedule).Msg("invalid reconcile schedule")
	}
	c.Start()
	log.Info().Str("schedule", cfg.ReconcileSchedule).Msg("reconciler started")

	<-ctx.Done()
	log.Info().Msg("shutting down reconciler")
	<-c.Stop().Done()
}
