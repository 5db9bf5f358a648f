package app

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"booking-metrics/internal/alerting"
	"booking-metrics/internal/analysis"
	"booking-metrics/internal/config"
	"booking-metrics/internal/scheduler"
	"booking-metrics/internal/service"
	"booking-metrics/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger

	out      io.Writer
	source   storage.BookingSource
	issues   storage.QualityIssueStore
	notifier alerting.Notifier
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{
		Config: cfg,
		Logger: logger.With().Str("component", "app").Logger(),
		out:    os.Stdout,
	}
}

// ReportOptions override the report section of the configuration for one
// command invocation. Zero values fall back to the configuration.
type ReportOptions struct {
	OutDir   string
	Baseline int
	Current  int
	TopN     int
	NoCharts bool
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

type resolved struct {
	analysis analysis.Options
	outDir   string
	charts   bool
}

func (a *App) resolve(opts ReportOptions) (resolved, error) {
	r := resolved{
		analysis: analysis.Options{
			BaselineYear: a.Config.Report.BaselineYear,
			CurrentYear:  a.Config.Report.CurrentYear,
			TopN:         a.Config.ResolveTopN(opts.TopN),
		},
		outDir: a.Config.ResolveOutputDir(opts.OutDir),
		charts: a.Config.Report.Charts && !opts.NoCharts,
	}
	if opts.Baseline > 0 {
		r.analysis.BaselineYear = opts.Baseline
	}
	if opts.Current > 0 {
		r.analysis.CurrentYear = opts.Current
	}
	if err := r.analysis.Validate(); err != nil {
		return resolved{}, err
	}
	if r.outDir == "" {
		return resolved{}, errors.New("output directory must not be empty")
	}
	return r, nil
}

func (a *App) newNotifier() alerting.Notifier {
	if a.notifier != nil {
		return a.notifier
	}
	notifiers := alerting.Multi{alerting.NewLogNotifier(a.Logger)}
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		notifiers = append(notifiers, alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, cfg.Timeout, a.Logger))
	}
	return notifiers
}

// openStore returns the booking source and, when available, the quality
// issue store. The closer is never nil.
func (a *App) openStore(ctx context.Context) (storage.BookingSource, storage.QualityIssueStore, func(), error) {
	if a.source != nil {
		return a.source, a.issues, func() {}, nil
	}
	if !a.Config.Database.Configured() {
		return nil, nil, nil, errors.New("database not configured; set database.dsn or database.host")
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, nil, err
	}

	store := storage.NewStore(pool, a.Config.Database.QueryTimeout)
	return store, store, store.Close, nil
}

// Watch re-runs the full report on the configured schedule until the
// process receives SIGINT or SIGTERM.
func (a *App) Watch(ctx context.Context, opts ReportOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	r, err := a.resolve(opts)
	if err != nil {
		return err
	}

	source, issues, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToSlot:  a.Config.Scheduler.AlignToBucket,
		StartupDelay: a.Config.Scheduler.StartupDelay,
		RunOnStart:   true,
	}, a.Logger)

	a.Logger.Info().
		Dur("interval", a.Config.Scheduler.Interval).
		Str("out", r.outDir).
		Msg("starting report watch")

	svc := service.New(a.Config.Alerting, sched, issues, a.newNotifier(), a.Logger)
	err = svc.Run(ctx, "report", func(ctx context.Context) ([]analysis.QualityIssue, error) {
		return a.collect(ctx, "report", r, source, allSteps()...)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("watch terminated with error")
		return err
	}

	a.Logger.Info().Msg("report watch stopped")
	return nil
}
