package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segyhp/committee-ledger/internal/cache"
	"github.com/segyhp/committee-ledger/internal/config"
	"github.com/segyhp/committee-ledger/internal/logging"
	"github.com/segyhp/committee-ledger/internal/repository"
	"github.com/segyhp/committee-ledger/internal/scheduler"
	"github.com/segyhp/committee-ledger/internal/service"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

const jobTimeout = 5 * time.Minute

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.Logging)
	slog.SetDefault(logger)
	logger.Info("starting ledger scheduler")

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to initialize database", slog.Any(logging.KeyError, err))
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := repository.Migrate(context.Background(), db); err != nil {
		logger.Error("failed to migrate database", slog.Any(logging.KeyError, err))
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	ledgerService := service.NewLedgerService(service.Repositories{
		Loans:      repository.NewLoanRepository(db),
		Repayments: repository.NewRepaymentRepository(db),
		Members:    repository.NewMemberRepository(db),
		Committees: repository.NewCommitteeRepository(db),
		Payments:   repository.NewPaymentRepository(db),
	}, cache.NewRedisSnapshotCache(redisClient, cfg.GetSnapshotTTL()), logger, cfg)

	// Initialize cron scheduler
	c := cron.New(cron.WithSeconds(), cron.WithLocation(cfg.GetSchedulerLocation()))

	jobs := scheduler.NewJobs(ledgerService, logger, jobTimeout)
	if err := jobs.Register(c, cfg.Scheduler); err != nil {
		logger.Error("failed to schedule jobs", slog.Any(logging.KeyError, err))
		os.Exit(1)
	}

	// Start the scheduler
	c.Start()
	logger.Info("scheduler started",
		slog.String("defaulter_report", cfg.Scheduler.DefaulterReportSpec),
		slog.String("snapshot_warm", cfg.Scheduler.SnapshotWarmSpec),
		slog.String("timezone", cfg.Scheduler.Timezone),
	)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	logger.Info("scheduler stopped")
}
