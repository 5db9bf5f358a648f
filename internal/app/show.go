package app

import (
	"context"
	"errors"

	"booking-metrics/internal/render"
)

// Show prints the most recently persisted data-quality issues.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	if opts.Limit <= 0 {
		return errors.New("limit must be greater than zero")
	}

	_, issues, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()
	if issues == nil {
		return errors.New("quality issue store not available; cannot show issues")
	}

	records, err := issues.ListRecentQualityIssues(ctx, opts.Limit)
	if err != nil {
		return err
	}
	return render.WriteIssuesTable(a.out, records)
}
