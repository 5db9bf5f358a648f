package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RunFunc executes one report run for the period starting at slot.
type RunFunc func(ctx context.Context, slot time.Time) error

// Options tune scheduler behaviour.
type Options struct {
	Interval     time.Duration
	AlignToSlot  bool
	StartupDelay time.Duration
	// RunOnStart triggers one run right after the startup delay instead of
	// waiting for the first slot.
	RunOnStart bool
}

// Scheduler re-runs the report pipeline on a fixed cadence.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
	now    func() time.Time
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	return &Scheduler{
		opts:   opts,
		logger: logger.With().Str("component", "scheduler").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run blocks, invoking fn at each slot until ctx is cancelled. Failed runs
// are logged and do not stop the loop.
func (s *Scheduler) Run(ctx context.Context, fn RunFunc) error {
	if s.opts.StartupDelay > 0 {
		timer := time.NewTimer(s.opts.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if s.opts.RunOnStart {
		s.execute(ctx, fn, s.slotStart(s.now()))
	}

	next := s.nextSlot(s.now())
	for {
		delay := next.Sub(s.now())
		if delay < 0 {
			next = s.nextSlot(s.now())
			delay = next.Sub(s.now())
		}

		timer := time.NewTimer(delay)
		s.logger.Debug().Time("next_slot", next).Msg("waiting for next slot")

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		s.execute(ctx, fn, s.slotStart(next))
		next = next.Add(s.opts.Interval)
	}
}

func (s *Scheduler) execute(ctx context.Context, fn RunFunc, slot time.Time) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Info().Time("slot", slot).Msg("executing scheduled report run")
	if err := fn(ctx, slot); err != nil {
		s.logger.Error().Err(err).Time("slot", slot).Msg("report run failed")
	}
}

func (s *Scheduler) nextSlot(now time.Time) time.Time {
	if !s.opts.AlignToSlot {
		return now.Add(s.opts.Interval)
	}
	slot := now.Truncate(s.opts.Interval)
	if !slot.After(now) {
		slot = slot.Add(s.opts.Interval)
	}
	return slot
}

func (s *Scheduler) slotStart(t time.Time) time.Time {
	if !s.opts.AlignToSlot {
		return t
	}
	return t.Truncate(s.opts.Interval)
}
