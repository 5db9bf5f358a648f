package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"booking-metrics/internal/app"
)

var (
	reportOut      string
	reportBaseline int
	reportCurrent  int
	reportTop      int
	reportNoCharts bool
)

func reportOptions() (app.ReportOptions, error) {
	if reportTop < 0 {
		return app.ReportOptions{}, fmt.Errorf("--top must not be negative")
	}
	return app.ReportOptions{
		OutDir:   reportOut,
		Baseline: reportBaseline,
		Current:  reportCurrent,
		TopN:     reportTop,
		NoCharts: reportNoCharts,
	}, nil
}

// newReportCmd builds a command that runs one report function with the
// shared report flags.
func newReportCmd(use, short string, run func(a *app.App, ctx context.Context, opts app.ReportOptions) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := reportOptions()
			if err != nil {
				return err
			}
			return run(getApp(), cmd.Context(), opts)
		},
	}
	addReportFlags(cmd)
	return cmd
}

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&reportOut, "out", "", "Output directory (defaults to config)")
	cmd.Flags().IntVar(&reportBaseline, "baseline", 0, "Baseline year (defaults to config)")
	cmd.Flags().IntVar(&reportCurrent, "current", 0, "Current year (defaults to config)")
	cmd.Flags().IntVar(&reportTop, "top", 0, "Number of ranked entries to keep (defaults to config)")
	cmd.Flags().BoolVar(&reportNoCharts, "no-charts", false, "Skip PNG chart rendering")
}

var (
	refundsCmd   = newReportCmd("refunds", "Refund rate by year with data-quality flags", (*app.App).Refunds)
	epsCmd       = newReportCmd("eps", "Mean earnings per seat, baseline vs current year", (*app.App).EPS)
	vehiclesCmd  = newReportCmd("vehicles", "Earnings per seat by vehicle class", (*app.App).VehicleClasses)
	operatorsCmd = newReportCmd("operators", "Operator aggregates and EPS growth", (*app.App).Operators)
	routesCmd    = newReportCmd("routes", "Route and country profitability rankings", (*app.App).Routes)
	reportCmd    = newReportCmd("report", "Run every analysis into one output directory", (*app.App).Report)
	watchCmd     = newReportCmd("watch", "Re-run the full report on the configured schedule", (*app.App).Watch)
)
