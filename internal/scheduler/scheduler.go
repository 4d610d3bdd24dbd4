package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/marugo/torioki/internal/clock"
	historydomain "github.com/marugo/torioki/internal/history/domain"
	"github.com/marugo/torioki/internal/joblock"
	obsmetrics "github.com/marugo/torioki/internal/observability/metrics"
	"github.com/marugo/torioki/internal/reminder"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	JobHistoryMaintenance = "history_maintenance"
	JobSendReminders      = "send_reminders"
)

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

type Params struct {
	fx.In

	Log         *zap.Logger
	Clock       clock.Clock
	HistorySvc  historydomain.Service
	ReminderSvc *reminder.Service
	Locker      *joblock.Locker `optional:"true"`
	Config      Config          `optional:"true"`
}

// Scheduler drives the two recurring batch jobs: archive maintenance
// and pickup-day reminders. A redis lock keeps each job single-flight
// when more than one instance runs.
type Scheduler struct {
	log         *zap.Logger
	cfg         Config
	clock       clock.Clock
	historySvc  historydomain.Service
	reminderSvc *reminder.Service
	locker      *joblock.Locker
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.HistorySvc == nil || p.ReminderSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:         p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:         p.Config.withDefaults(),
		clock:       p.Clock,
		historySvc:  p.HistorySvc,
		reminderSvc: p.ReminderSvc,
		locker:      p.Locker,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	schedMetrics := obsmetrics.Scheduler()

	token, acquired, err := s.locker.TryLock(parent, "torioki:jobs:"+name, s.cfg.LockTTL)
	if err != nil {
		s.log.Warn("job lock unavailable, running without it",
			zap.String("job", name),
			zap.Error(err),
		)
	} else if !acquired {
		schedMetrics.IncJobSkipped(name)
		s.log.Info("job held by another instance, skipping", zap.String("job", name))
		return nil
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.locker.Release(releaseCtx, "torioki:jobs:"+name, token)
	}()

	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	schedMetrics.IncJobRun(name)
	err = fn(ctx)
	schedMetrics.ObserveJobDuration(name, time.Since(start))
	if err == nil {
		return nil
	}

	// a deadline cut is a soft failure: the next run picks up the rest
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)
	if isTimeout {
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name    string
		Enabled bool
		Run     func(context.Context) error
	}{
		{JobHistoryMaintenance, s.isJobEnabled(JobHistoryMaintenance), func(ctx context.Context) error {
			return s.runJob(ctx, JobHistoryMaintenance, s.cfg.JobTimeout, s.HistoryMaintenanceJob)
		}},
		{JobSendReminders, s.isJobEnabled(JobSendReminders), func(ctx context.Context) error {
			return s.runJob(ctx, JobSendReminders, s.cfg.JobTimeout, s.SendRemindersJob)
		}},
	}

	for _, job := range jobs {
		if job.Enabled {
			err = errors.Join(err, job.Run(parent))
		}
	}

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)
	schedMetrics := obsmetrics.Scheduler()

	for {
		runLag := time.Since(nextRun)
		if runLag > 0 {
			schedMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// empty EnabledJobs means all jobs run (monolith mode)
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

func (s *Scheduler) HistoryMaintenanceJob(ctx context.Context) error {
	result, err := s.historySvc.RunMaintenance(ctx)
	if result != nil {
		schedMetrics := obsmetrics.Scheduler()
		schedMetrics.AddBatchProcessed(JobHistoryMaintenance, "completed", result.CompletedMoved)
		schedMetrics.AddBatchProcessed(JobHistoryMaintenance, "cancelled", result.CancelledMoved)
		schedMetrics.AddBatchProcessed(JobHistoryMaintenance, "archived", result.Archived)
	}
	return err
}

func (s *Scheduler) SendRemindersJob(ctx context.Context) error {
	result, err := s.reminderSvc.SendBatch(ctx)
	if result != nil {
		obsmetrics.Scheduler().AddBatchProcessed(JobSendReminders, "reminders", result.Sent)
	}
	return err
}
