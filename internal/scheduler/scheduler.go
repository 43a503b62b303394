package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/restopos/internal/config"
	"github.com/mamadbah2/restopos/internal/domain/models"
)

// StateReader runs fn with exclusive access to the live state.
type StateReader interface {
	Read(ctx context.Context, fn func(*models.State)) error
}

// Reporter builds the end of day summary.
type Reporter interface {
	DailyReport(state *models.State, day time.Time) models.DailyReport
}

// BackupPruner removes old state file backups.
type BackupPruner interface {
	PruneBackups(keep int) (int, error)
}

// Sink receives daily reports.
type Sink interface {
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, report models.DailyReport) error

func (f SinkFunc) SaveDailyReport(ctx context.Context, report models.DailyReport) error {
	return f(ctx, report)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	state    StateReader
	reporter Reporter
	pruner   BackupPruner
	sinks    map[string]Sink
	cfg      config.Config
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduler creates a new scheduler instance. Jobs run in the configured
// time zone.
func NewScheduler(cfg config.Config, state StateReader, reporter Reporter, pruner BackupPruner, sinks map[string]Sink, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	// robfig/cron/v3 default parser is standard cron (5 fields: min, hour, dom, month, dow).
	c := cron.New(cron.WithLocation(cfg.Location()), cron.WithChain(cron.Recover(cron.PrintfLogger(zap.NewStdLog(logger)))))

	return &Scheduler{
		cron:     c,
		state:    state,
		reporter: reporter,
		pruner:   pruner,
		sinks:    sinks,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.Int("sinks", len(s.sinks)))

	if _, err := s.cron.AddFunc(s.cfg.Reporting.CronSchedule, s.sendDailyReport); err != nil {
		return fmt.Errorf("schedule daily report: %w", err)
	}
	if s.pruner != nil && s.cfg.Reporting.BackupPruneSchedule != "" {
		if _, err := s.cron.AddFunc(s.cfg.Reporting.BackupPruneSchedule, s.pruneBackups); err != nil {
			return fmt.Errorf("schedule backup pruning: %w", err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendDailyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.RunDailyReport(ctx); err != nil {
		s.logger.Error("daily report incomplete", zap.Error(err))
	}
}

// RunDailyReport builds today's report and ships it to every sink. A failing
// sink does not stop the others.
func (s *Scheduler) RunDailyReport(ctx context.Context) error {
	s.logger.Info("generating daily report")

	var report models.DailyReport
	err := s.state.Read(ctx, func(st *models.State) {
		report = s.reporter.DailyReport(st, s.now())
	})
	if err != nil {
		return fmt.Errorf("build daily report: %w", err)
	}

	var errs []error
	for name, sink := range s.sinks {
		if err := sink.SaveDailyReport(ctx, report); err != nil {
			s.logger.Error("report sink failed", zap.String("sink", name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		s.logger.Info("daily report delivered", zap.String("sink", name), zap.String("date", report.Date))
	}
	return errors.Join(errs...)
}

func (s *Scheduler) pruneBackups() {
	if _, err := s.PruneBackups(); err != nil {
		s.logger.Error("backup pruning failed", zap.Error(err))
	}
}

// PruneBackups keeps the newest configured number of backups. It runs inside
// the event loop so it never races a save.
func (s *Scheduler) PruneBackups() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var (
		removed int
		err     error
	)
	if rerr := s.state.Read(ctx, func(*models.State) {
		removed, err = s.pruner.PruneBackups(s.cfg.Storage.BackupRetention)
	}); rerr != nil {
		return 0, rerr
	}
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("old backups removed", zap.Int("removed", removed))
	}
	return removed, nil
}
