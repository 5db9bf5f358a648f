package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"booking-metrics/internal/analysis"
	"booking-metrics/internal/metrics"
	"booking-metrics/internal/render"
	"booking-metrics/internal/service"
	"booking-metrics/internal/storage"
)

// step runs one analysis end to end: fetch, compute, write outputs. It
// returns the data-quality issues it found.
type step struct {
	name string
	run  func(a *App, ctx context.Context, r resolved, src storage.BookingSource) ([]analysis.QualityIssue, error)
}

func allSteps() []step {
	return []step{refundsStep, epsStep, vehiclesStep, operatorsStep, routesStep}
}

// Refunds writes the refund-rate-by-year report.
func (a *App) Refunds(ctx context.Context, opts ReportOptions) error {
	return a.run(ctx, "refunds", opts, refundsStep)
}

// EPS writes the mean booking EPS comparison.
func (a *App) EPS(ctx context.Context, opts ReportOptions) error {
	return a.run(ctx, "eps", opts, epsStep)
}

// VehicleClasses writes the vehicle-class EPS comparison.
func (a *App) VehicleClasses(ctx context.Context, opts ReportOptions) error {
	return a.run(ctx, "vehicles", opts, vehiclesStep)
}

// Operators writes the operator breakdown and EPS growth.
func (a *App) Operators(ctx context.Context, opts ReportOptions) error {
	return a.run(ctx, "operators", opts, operatorsStep)
}

// Routes writes the route and country profitability rankings.
func (a *App) Routes(ctx context.Context, opts ReportOptions) error {
	return a.run(ctx, "routes", opts, routesStep)
}

// Report runs every analysis into one output directory.
func (a *App) Report(ctx context.Context, opts ReportOptions) error {
	return a.run(ctx, "report", opts, allSteps()...)
}

func (a *App) run(ctx context.Context, name string, opts ReportOptions, steps ...step) error {
	r, err := a.resolve(opts)
	if err != nil {
		return err
	}

	source, issues, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	found, err := a.collect(ctx, name, r, source, steps...)
	if err != nil {
		return err
	}
	svc := service.New(a.Config.Alerting, nil, issues, a.newNotifier(), a.Logger)
	return svc.Dispatch(ctx, name, found)
}

// collect runs the steps in order and gathers their quality issues. The
// first failing step aborts the run.
func (a *App) collect(ctx context.Context, name string, r resolved, src storage.BookingSource, steps ...step) ([]analysis.QualityIssue, error) {
	var found []analysis.QualityIssue
	for _, s := range steps {
		a.Logger.Info().
			Str("analysis", s.name).
			Int("baseline", r.analysis.BaselineYear).
			Int("current", r.analysis.CurrentYear).
			Msg("running analysis")

		issues, err := s.run(a, ctx, r, src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
		found = append(found, issues...)
	}

	a.Logger.Info().Str("report", name).Str("out", r.outDir).Int("issues", len(found)).Msg("report written")
	return found, nil
}

var refundsStep = step{
	name: "refunds",
	run: func(a *App, ctx context.Context, r resolved, src storage.BookingSource) ([]analysis.QualityIssue, error) {
		tbl, err := src.RefundsByYear(ctx)
		if err != nil {
			return nil, err
		}
		report, err := analysis.Refunds(tbl, r.analysis)
		if err != nil {
			return nil, err
		}

		if err := render.WriteRefundsCSV(filepath.Join(r.outDir, "refund_rates.csv"), report); err != nil {
			return nil, err
		}
		if err := render.WriteRefundFocusCSV(filepath.Join(r.outDir, "refund_focus.csv"), report); err != nil {
			return nil, err
		}
		if r.charts {
			rates := make([]render.PeriodRate, 0, len(report.Years))
			for _, y := range report.Years {
				rates = append(rates, render.PeriodRate{Period: y.Year, Rate: y.Rate})
			}
			a.chart(render.WriteRateChart(filepath.Join(r.outDir, "refund_rate.png"), "Refund Rate by Year", rates), "refund_rate.png")
			a.chart(render.WriteBarChart(filepath.Join(r.outDir, "total_orders_refunds_by_year.png"),
				"Total Orders and Refunds by Year", "Count", volumeBars(report.Years)), "total_orders_refunds_by_year.png")
			title := fmt.Sprintf("Orders and Refunds %d vs %d", r.analysis.BaselineYear, r.analysis.CurrentYear)
			a.chart(render.WriteBarChart(filepath.Join(r.outDir, "refund_focus.png"), title, "Count", volumeBars(report.Focus)), "refund_focus.png")
		}
		return report.Issues, a.summary(r, "refunds_summary.txt", func(w io.Writer) error {
			return render.WriteRefundsSummary(w, report)
		})
	},
}

var epsStep = step{
	name: "eps",
	run: func(a *App, ctx context.Context, r resolved, src storage.BookingSource) ([]analysis.QualityIssue, error) {
		tbl, err := src.BookingsForYears(ctx, r.analysis.BaselineYear, r.analysis.CurrentYear)
		if err != nil {
			return nil, err
		}
		report, err := analysis.EPSChange(tbl, r.analysis)
		if err != nil {
			return nil, err
		}

		if err := render.WriteEPSChangeCSV(filepath.Join(r.outDir, "eps_change.csv"), report); err != nil {
			return nil, err
		}
		if r.charts {
			var bars []render.Bar
			for _, y := range []analysis.YearEPS{report.Baseline, report.Current} {
				if v, ok := y.Mean.Value(); ok {
					bars = append(bars, render.Bar{Label: y.Year, Value: v.InexactFloat64()})
				}
			}
			title := fmt.Sprintf("Average EPS %s vs %s (%s)", report.Baseline.Year, report.Current.Year, report.Change.Display())
			a.chart(render.WriteBarChart(filepath.Join(r.outDir, "eps_change.png"), title, "EPS (USD)", bars), "eps_change.png")
		}
		return nil, a.summary(r, "eps_summary.txt", func(w io.Writer) error {
			return render.WriteEPSChangeSummary(w, report)
		})
	},
}

var vehiclesStep = step{
	name: "vehicles",
	run: func(a *App, ctx context.Context, r resolved, src storage.BookingSource) ([]analysis.QualityIssue, error) {
		tbl, err := src.VehicleClassesForYears(ctx, r.analysis.BaselineYear, r.analysis.CurrentYear)
		if err != nil {
			return nil, err
		}
		report, err := analysis.VehicleClasses(tbl, r.analysis)
		if err != nil {
			return nil, err
		}

		if err := render.WriteVehicleClassesCSV(filepath.Join(r.outDir, "vehicle_classes.csv"), report); err != nil {
			return nil, err
		}
		if r.charts {
			var bars []render.Bar
			for _, c := range report.Classes {
				for _, side := range []struct {
					year string
					eps  metrics.EPS
				}{{report.BaselineYear, c.Baseline.EPS}, {report.CurrentYear, c.Current.EPS}} {
					if v, ok := side.eps.Value(); ok {
						bars = append(bars, render.Bar{Label: c.ClassName + " " + side.year, Value: v.InexactFloat64()})
					}
				}
			}
			a.chart(render.WriteBarChart(filepath.Join(r.outDir, "vehicle_classes.png"), "EPS by Vehicle Class", "EPS (USD)", bars), "vehicle_classes.png")
		}
		return nil, a.summary(r, "vehicles_summary.txt", func(w io.Writer) error {
			return render.WriteVehicleClassesSummary(w, report)
		})
	},
}

var operatorsStep = step{
	name: "operators",
	run: func(a *App, ctx context.Context, r resolved, src storage.BookingSource) ([]analysis.QualityIssue, error) {
		tbl, err := src.OperatorBookingsForYears(ctx, r.analysis.BaselineYear, r.analysis.CurrentYear)
		if err != nil {
			return nil, err
		}
		report, err := analysis.Operators(tbl, r.analysis)
		if err != nil {
			return nil, err
		}

		if err := render.WriteOperatorsCSV(filepath.Join(r.outDir, "operators.csv"), report); err != nil {
			return nil, err
		}
		if err := render.WriteOperatorGrowthCSV(filepath.Join(r.outDir, "operator_growth.csv"), report); err != nil {
			return nil, err
		}
		if err := render.WriteSeatEfficiencyCSV(filepath.Join(r.outDir, "operator_seat_efficiency.csv"), report); err != nil {
			return nil, err
		}
		if r.charts {
			title := "Top Operators by EPS " + report.CurrentYear
			a.chart(render.WriteBarChart(filepath.Join(r.outDir, "top_operators.png"), title, "EPS (USD)", epsBars(report.TopCurrent)), "top_operators.png")
			a.chart(render.WriteBarChart(filepath.Join(r.outDir, "operator_seat_efficiency.png"),
				"Seat Efficiency by Operator", "EPS (USD)", epsBars(report.SeatEfficiency)), "operator_seat_efficiency.png")
		}
		return nil, a.summary(r, "operators_summary.txt", func(w io.Writer) error {
			return render.WriteOperatorsSummary(w, report)
		})
	},
}

var routesStep = step{
	name: "routes",
	run: func(a *App, ctx context.Context, r resolved, src storage.BookingSource) ([]analysis.QualityIssue, error) {
		tbl, err := src.RoutesForYears(ctx, r.analysis.BaselineYear, r.analysis.CurrentYear)
		if err != nil {
			return nil, err
		}
		report, err := analysis.Routes(tbl, r.analysis)
		if err != nil {
			return nil, err
		}

		if err := render.WriteRoutesCSV(filepath.Join(r.outDir, "routes.csv"), report); err != nil {
			return nil, err
		}
		if r.charts {
			for _, y := range []analysis.RouteYear{report.Baseline, report.Current} {
				name := "top_routes_" + y.Year + ".png"
				a.chart(render.WriteBarChart(filepath.Join(r.outDir, name), "Top Routes by EPS "+y.Year, "EPS (USD)", epsBars(y.TopRoutes)), name)
			}
		}
		return nil, a.summary(r, "routes_summary.txt", func(w io.Writer) error {
			return render.WriteRoutesSummary(w, report)
		})
	},
}

func epsBars(records []metrics.EPSRecord) []render.Bar {
	bars := make([]render.Bar, 0, len(records))
	for _, rec := range records {
		if v, ok := rec.EPS.Value(); ok {
			bars = append(bars, render.Bar{Label: rec.Key, Value: v.InexactFloat64()})
		}
	}
	return bars
}

// volumeBars pairs each year's order and refund counts.
func volumeBars(years []analysis.RefundYear) []render.Bar {
	bars := make([]render.Bar, 0, 2*len(years))
	for _, y := range years {
		bars = append(bars,
			render.Bar{Label: y.Year + " orders", Value: float64(y.Orders)},
			render.Bar{Label: y.Year + " refunds", Value: float64(y.Refunds)},
		)
	}
	return bars
}

// chart logs chart failures without failing the report; the CSV and summary
// carry the same numbers.
func (a *App) chart(err error, name string) {
	switch {
	case err == nil:
	case errors.Is(err, render.ErrNotEnoughData):
		a.Logger.Warn().Str("chart", name).Msg("skipping chart: not enough data points")
	default:
		a.Logger.Error().Err(err).Str("chart", name).Msg("chart rendering failed")
	}
}

// summary writes a text summary to the output directory and echoes it to
// stdout.
func (a *App) summary(r resolved, name string, write func(w io.Writer) error) error {
	var b strings.Builder
	if err := write(&b); err != nil {
		return err
	}

	path := filepath.Join(r.outDir, name)
	if err := os.MkdirAll(r.outDir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	_, err := io.WriteString(a.out, b.String()+"\n")
	return err
}
