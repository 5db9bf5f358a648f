package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStopsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(Options{Interval: 10 * time.Millisecond, RunOnStart: true}, zerolog.Nop())

	runs := 0
	err := s.Run(ctx, func(ctx context.Context, slot time.Time) error {
		runs++
		if runs == 3 {
			cancel()
		}
		return errors.New("failed runs keep the loop alive")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, runs)
}

func TestRunHonoursStartupDelayCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(Options{Interval: time.Hour, StartupDelay: time.Hour, RunOnStart: true}, zerolog.Nop())
	err := s.Run(ctx, func(context.Context, time.Time) error {
		t.Fatal("run should not execute after cancellation")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNextSlotAligned(t *testing.T) {
	s := New(Options{Interval: time.Hour, AlignToSlot: true}, zerolog.Nop())
	now := time.Date(2024, 5, 1, 10, 15, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC), s.nextSlot(now))
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), s.slotStart(now))

	exact := time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC)
	assert.Equal(t, exact.Add(time.Hour), s.nextSlot(exact))
}

func TestNextSlotUnaligned(t *testing.T) {
	s := New(Options{Interval: time.Minute}, zerolog.Nop())
	now := time.Date(2024, 5, 1, 10, 15, 30, 0, time.UTC)

	assert.Equal(t, now.Add(time.Minute), s.nextSlot(now))
	assert.Equal(t, now, s.slotStart(now))
}

func TestNewRejectsNonPositiveInterval(t *testing.T) {
	assert.Panics(t, func() { New(Options{}, zerolog.Nop()) })
}
