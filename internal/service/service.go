package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"booking-metrics/internal/alerting"
	"booking-metrics/internal/analysis"
	"booking-metrics/internal/config"
	"booking-metrics/internal/scheduler"
	"booking-metrics/internal/storage"
)

// ReportFunc produces one report and returns the data-quality issues found.
type ReportFunc func(ctx context.Context) ([]analysis.QualityIssue, error)

// Service routes data-quality issues to notifiers and the audit table, and
// drives scheduled report runs.
type Service struct {
	scheduler *scheduler.Scheduler
	store     storage.QualityIssueStore
	notifier  alerting.Notifier
	logger    zerolog.Logger
	now       func() time.Time

	enabled   bool
	persist   bool
	retention time.Duration
}

// New constructs the service. sched may be nil for one-shot reports; store
// may be nil when no database is available.
func New(cfg config.AlertingConfig, sched *scheduler.Scheduler, store storage.QualityIssueStore, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	return &Service{
		scheduler: sched,
		store:     store,
		notifier:  notifier,
		logger:    logger.With().Str("component", "service").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
		enabled:   cfg.Enabled,
		persist:   cfg.Persist,
		retention: cfg.Retention,
	}
}

// Run invokes fn on every scheduled slot, dispatching its issues and
// pruning the audit table after each successful run.
func (s *Service) Run(ctx context.Context, report string, fn ReportFunc) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, func(ctx context.Context, slot time.Time) error {
		issues, err := fn(ctx)
		if err != nil {
			return err
		}
		if err := s.Dispatch(ctx, report, issues); err != nil {
			return err
		}
		return s.Prune(ctx)
	})
}

// Dispatch notifies about issues and, when persistence is on, records them.
// Notification failures are logged only; the report itself succeeded.
func (s *Service) Dispatch(ctx context.Context, report string, issues []analysis.QualityIssue) error {
	if len(issues) == 0 || !s.enabled {
		return nil
	}

	if s.notifier != nil {
		note := alerting.Notification{Report: report, GeneratedAt: s.now(), Issues: issues}
		if err := s.notifier.Notify(ctx, note); err != nil {
			s.logger.Error().Err(err).Str("report", report).Msg("quality warning delivery failed")
		}
	}

	if !s.persist {
		return nil
	}
	if s.store == nil {
		s.logger.Warn().Msg("alerting.persist set but no quality issue store available")
		return nil
	}
	for _, is := range issues {
		if _, err := s.store.InsertQualityIssue(ctx, storage.QualityIssueRecord{
			Analysis: is.Analysis,
			Period:   is.Period,
			Kind:     is.Kind,
			Total:    is.Total,
			Events:   is.Events,
			Detail:   is.Detail,
		}); err != nil {
			return fmt.Errorf("persist quality issue %s/%s: %w", is.Analysis, is.Period, err)
		}
	}
	s.logger.Debug().Int("issues", len(issues)).Msg("quality issues persisted")
	return nil
}

// Prune deletes persisted issues older than the retention window.
func (s *Service) Prune(ctx context.Context) error {
	if s.store == nil || !s.persist || s.retention <= 0 {
		return nil
	}
	cutoff := s.now().Add(-s.retention)
	if err := s.store.DeleteQualityIssuesBefore(ctx, cutoff); err != nil {
		return fmt.Errorf("prune quality issues: %w", err)
	}
	return nil
}
