// Package main is the entry point for the TradeYa background worker.
//
// The worker drives the challenge lifecycle: it activates upcoming
// challenges whose start date has passed, completes expired ones, and
// schedules the next instances of recurring challenge templates.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tradeya/tradeya-backend/config"
	"github.com/tradeya/tradeya-backend/internal/domain/shared"
	"github.com/tradeya/tradeya-backend/internal/infrastructure/messaging"
	"github.com/tradeya/tradeya-backend/internal/infrastructure/persistence/postgres"
	"github.com/tradeya/tradeya-backend/internal/infrastructure/persistence/redis"
	"github.com/tradeya/tradeya-backend/internal/infrastructure/scheduler"
	"github.com/tradeya/tradeya-backend/internal/infrastructure/scheduler/jobs"
	"github.com/tradeya/tradeya-backend/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logLevel := logger.LevelInfo
	if cfg.App.Debug {
		logLevel = logger.LevelDebug
	}
	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logLevel,
		AddCaller: cfg.App.Debug,
	}).With(
		logger.String("app", cfg.App.Name),
		logger.String("env", string(cfg.App.Environment)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// PostgreSQL
	dbCfg := postgres.DefaultConfig()
	dbCfg.URL = cfg.Database.URL
	dbCfg.MaxConns = int32(cfg.Database.MaxConns)
	dbCfg.MinConns = int32(cfg.Database.MinConns)
	dbCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	dbCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	conn, err := postgres.NewConnection(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer conn.Close()
	log.Info("connected to postgres")

	if cfg.Database.RunMigrations {
		if err := conn.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema up to date")
	}

	// Redis is optional for the worker; jobs run without the cache.
	var leaderboard *redis.LeaderboardCache
	if !cfg.Redis.Disabled {
		redisClient, err := redis.NewClient(ctx, redis.Config{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			PoolSize:     cfg.Redis.PoolSize,
		})
		if err != nil {
			log.Warn("redis unavailable, continuing without cache", logger.Err(err))
		} else {
			defer redisClient.Close()
			leaderboard = redis.NewLeaderboardCache(redisClient)
			log.Info("connected to redis")
		}
	}

	// Event bus
	bus := messaging.NewEventBus(messaging.DefaultEventBusConfig())
	defer bus.Close()

	// Keep the cached leaderboard in sync with awards made by other
	// processes sharing this bus.
	if leaderboard != nil {
		handler := shared.EventHandlerFunc{
			HandlerName: "leaderboard_projection",
			Fn: func(ctx context.Context, event shared.Event) error {
				awarded, ok := event.(shared.XPAwardedEvent)
				if !ok {
					return nil
				}
				return leaderboard.UpdateUserXP(ctx, awarded.UserID, awarded.TotalXP, awarded.NewLevel)
			},
		}
		if err := bus.Subscribe(shared.EventXPAwarded, handler); err != nil {
			return fmt.Errorf("failed to subscribe leaderboard projection: %w", err)
		}
	}

	// Scheduler and jobs
	challengeRepo := postgres.NewChallengeRepository(conn)

	sched := scheduler.New(scheduler.DefaultConfig())
	if cfg.Scheduler.Enabled {
		registrations := []struct {
			job      scheduler.Job
			schedule scheduler.Schedule
		}{
			{jobs.NewActivateChallengesJob(challengeRepo, bus, log), scheduler.NewIntervalSchedule(cfg.Scheduler.ActivationInterval)},
			{jobs.NewCompleteChallengesJob(challengeRepo, bus, log), scheduler.NewIntervalSchedule(cfg.Scheduler.CompletionInterval)},
			{jobs.NewScheduleRecurringJob(challengeRepo, bus, log), scheduler.NewIntervalSchedule(cfg.Scheduler.RecurringInterval)},
		}
		for _, r := range registrations {
			if err := sched.Register(r.job, r.schedule); err != nil {
				return fmt.Errorf("failed to register job %s: %w", r.job.Name(), err)
			}
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		log.Info("scheduler started", logger.Int("jobs", len(registrations)))
	} else {
		log.Warn("scheduler disabled by configuration")
	}

	<-ctx.Done()
	log.Info("shutdown signal received")

	if sched.IsRunning() {
		if err := sched.Stop(); err != nil {
			log.Error("failed to stop scheduler", logger.Err(err))
		}
	}

	log.Info("worker stopped")
	return nil
}
