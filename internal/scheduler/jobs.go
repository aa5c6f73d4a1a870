// Package scheduler holds the periodic ledger jobs run by cmd/scheduler.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segyhp/committee-ledger/internal/config"
	"github.com/segyhp/committee-ledger/internal/domain"
	"github.com/segyhp/committee-ledger/internal/logging"

	"github.com/robfig/cron/v3"
)

// LedgerService is the part of the ledger the jobs read.
type LedgerService interface {
	ListCommittees(ctx context.Context) ([]*domain.Committee, error)
	GetBatchDefaulters(ctx context.Context, year int, asOf time.Time) ([]domain.Defaulter, error)
	WarmSnapshots(ctx context.Context, asOf time.Time) (int, error)
}

type Jobs struct {
	service LedgerService
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewJobs(service LedgerService, logger *slog.Logger, timeout time.Duration) *Jobs {
	return &Jobs{
		service: service,
		logger:  logger.With(slog.String(logging.KeyComponent, "scheduler")),
		timeout: timeout,
		now:     time.Now,
	}
}

// Register adds the jobs to c using the schedules in cfg.
func (j *Jobs) Register(c *cron.Cron, cfg config.SchedulerConfig) error {
	if _, err := c.AddFunc(cfg.DefaulterReportSpec, j.run("defaulter_report", j.DefaulterReport)); err != nil {
		return fmt.Errorf("schedule defaulter report: %w", err)
	}
	if _, err := c.AddFunc(cfg.SnapshotWarmSpec, j.run("snapshot_warm", j.WarmSnapshots)); err != nil {
		return fmt.Errorf("schedule snapshot warm-up: %w", err)
	}
	return nil
}

func (j *Jobs) run(name string, job func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()

		start := time.Now()
		if err := job(ctx); err != nil {
			j.logger.Error("job failed", slog.String("job", name), slog.Any(logging.KeyError, err))
			return
		}
		j.logger.Info("job finished", slog.String("job", name), slog.Duration("duration", time.Since(start)))
	}
}

// DefaulterReport logs every batch's defaulters as of now. A failing batch does not
// stop the report for the others.
func (j *Jobs) DefaulterReport(ctx context.Context) error {
	asOf := j.now()
	committees, err := j.service.ListCommittees(ctx)
	if err != nil {
		return err
	}

	var failed int
	for _, c := range committees {
		defaulters, err := j.service.GetBatchDefaulters(ctx, c.Year, asOf)
		if err != nil {
			failed++
			j.logger.Error("defaulter report failed",
				slog.Int(logging.KeyCommitteeYear, c.Year),
				slog.Any(logging.KeyError, err),
			)
			continue
		}

		j.logger.Info("batch defaulters",
			slog.Int(logging.KeyCommitteeYear, c.Year),
			slog.Time(logging.KeyAsOf, asOf),
			slog.Int("count", len(defaulters)),
		)
		for _, d := range defaulters {
			j.logger.Info("defaulter",
				slog.Int(logging.KeyCommitteeYear, c.Year),
				slog.String(logging.KeyMemberID, d.MemberID),
				slog.String("name", d.Name),
				slog.String("total_arrears", d.TotalArrears.String()),
				slog.Int("months_missed", d.MonthsMissed),
			)
		}
	}

	if failed > 0 {
		return fmt.Errorf("defaulter report failed for %d of %d batches", failed, len(committees))
	}
	return nil
}

// WarmSnapshots replays every loan as of now so reads hit the snapshot cache.
func (j *Jobs) WarmSnapshots(ctx context.Context) error {
	n, err := j.service.WarmSnapshots(ctx, j.now())
	if err != nil {
		return err
	}
	j.logger.Info("loan snapshots warmed", slog.Int("loans", n))
	return nil
}
