package suggest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler runs periodic snapshot rebuilds as a safety net behind the
// save-triggered path.
type Scheduler struct {
	engine *Engine
	cron   *cron.Cron
	entry  cron.EntryID
	logger *slog.Logger
}

func NewScheduler(engine *Engine) *Scheduler {
	return &Scheduler{
		engine: engine,
		cron:   cron.New(),
		logger: slog.Default().With("component", "suggest-scheduler"),
	}
}

// ScheduleRebuild registers a periodic rebuild at the given frequency
// (daily, weekly, or monthly) and starts the scheduler.
func (s *Scheduler) ScheduleRebuild(ctx context.Context, frequency string) error {
	spec, err := cronSpec(frequency)
	if err != nil {
		return err
	}
	id, err := s.cron.AddFunc(spec, s.rebuild(ctx))
	if err != nil {
		return fmt.Errorf("scheduling suggestion rebuild: %w", err)
	}
	s.entry = id
	s.cron.Start()
	s.logger.Info("suggestion rebuild scheduled", "frequency", frequency)
	return nil
}

// RescheduleRebuild replaces the current rebuild trigger with one at the
// new frequency.
func (s *Scheduler) RescheduleRebuild(ctx context.Context, frequency string) error {
	spec, err := cronSpec(frequency)
	if err != nil {
		return err
	}
	s.cron.Remove(s.entry)
	id, err := s.cron.AddFunc(spec, s.rebuild(ctx))
	if err != nil {
		return fmt.Errorf("rescheduling suggestion rebuild: %w", err)
	}
	s.entry = id
	s.logger.Info("suggestion rebuild rescheduled", "frequency", frequency)
	return nil
}

// Stop halts the scheduler, waiting for a running rebuild to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) rebuild(ctx context.Context) func() {
	return func() {
		if s.engine.metrics != nil {
			s.engine.metrics.SuggestRebuildsTotal.WithLabelValues("scheduled").Inc()
		}
		if _, err := s.engine.BuildFromContent(ctx); err != nil {
			s.logger.Error("scheduled suggestion rebuild failed", "error", err)
		}
	}
}

func cronSpec(frequency string) (string, error) {
	switch frequency {
	case "daily":
		return "@daily", nil
	case "weekly":
		return "@weekly", nil
	case "monthly":
		return "@monthly", nil
	default:
		return "", fmt.Errorf("unknown rebuild frequency %q", frequency)
	}
}
