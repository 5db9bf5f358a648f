package render

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"

	"booking-metrics/internal/analysis"
	"booking-metrics/internal/metrics"
)

// WriteRefundsCSV writes one row per year.
func WriteRefundsCSV(path string, report *analysis.RefundReport) error {
	rows := [][]string{{"year", "total_orders", "refund_count", "refund_rate", "rate_kind", "summary"}}
	for _, y := range report.Years {
		rows = append(rows, []string{
			y.Year,
			itoa(y.Orders),
			itoa(y.Refunds),
			y.Rate.Display(),
			y.Rate.Kind().String(),
			y.Narrative,
		})
	}
	return writeCSV(path, rows)
}

// WriteRefundFocusCSV writes the baseline and current years side by side.
func WriteRefundFocusCSV(path string, report *analysis.RefundReport) error {
	rows := [][]string{{"year", "total_orders", "refund_count", "refund_rate"}}
	for _, y := range report.Focus {
		rows = append(rows, []string{y.Year, itoa(y.Orders), itoa(y.Refunds), y.Rate.Display()})
	}
	return writeCSV(path, rows)
}

// WriteEPSChangeCSV writes the baseline and current mean EPS with the change.
func WriteEPSChangeCSV(path string, report *analysis.EPSChangeReport) error {
	rows := [][]string{{"year", "bookings", "excluded_no_seats", "mean_eps"}}
	for _, y := range []analysis.YearEPS{report.Baseline, report.Current} {
		rows = append(rows, []string{y.Year, strconv.Itoa(y.Bookings), strconv.Itoa(y.Excluded), y.Mean.Display()})
	}
	rows = append(rows, []string{"change", "", "", report.Change.Display()})
	return writeCSV(path, rows)
}

// WriteVehicleClassesCSV writes the joined vehicle-class comparison.
func WriteVehicleClassesCSV(path string, report *analysis.VehicleClassReport) error {
	b, c := report.BaselineYear, report.CurrentYear
	rows := [][]string{{
		"vehclass_id", "class_name",
		"total_revenue_" + b, "total_seats_" + b, "eps_" + b,
		"total_revenue_" + c, "total_seats_" + c, "eps_" + c,
		"eps_change",
	}}
	for _, cl := range report.Classes {
		rows = append(rows, []string{
			cl.VehicleClass, cl.ClassName,
			money(cl.Baseline.Revenue), itoa(cl.Baseline.Seats), cl.Baseline.EPS.Display(),
			money(cl.Current.Revenue), itoa(cl.Current.Seats), cl.Current.EPS.Display(),
			cl.Change.Display(),
		})
	}
	return writeCSV(path, rows)
}

// WriteOperatorsCSV writes the per-operator, per-year aggregates.
func WriteOperatorsCSV(path string, report *analysis.OperatorReport) error {
	rows := [][]string{{
		"operator_id", "year", "bookings", "net_revenue", "seats", "refunds",
		"total", "net_after_refund", "mean_eps", "mean_trip_minutes",
	}}
	for _, y := range report.Years {
		rows = append(rows, []string{
			y.Operator, y.Year, strconv.Itoa(y.Bookings), money(y.NetRevenue), itoa(y.Seats),
			money(y.Refunds), money(y.Total), money(y.NetAfterRefund), y.MeanEPS.Display(),
			minutes(y.MeanTripMinutes),
		})
	}
	return writeCSV(path, rows)
}

// WriteOperatorGrowthCSV writes each operator's EPS change.
func WriteOperatorGrowthCSV(path string, report *analysis.OperatorReport) error {
	rows := [][]string{{"operator_id", "eps_" + report.BaselineYear, "eps_" + report.CurrentYear, "eps_growth"}}
	for _, g := range report.Growth {
		rows = append(rows, []string{g.Operator, g.Baseline.Display(), g.Current.Display(), g.Change.Display()})
	}
	return writeCSV(path, rows)
}

// WriteSeatEfficiencyCSV writes the operator seat-efficiency ranking.
func WriteSeatEfficiencyCSV(path string, report *analysis.OperatorReport) error {
	rows := [][]string{{"rank", "operator_id", "net_revenue", "seats", "mean_eps"}}
	for i, r := range report.SeatEfficiency {
		rows = append(rows, []string{strconv.Itoa(i + 1), r.Key, money(r.NetAmount), itoa(r.Seats), r.EPS.Display()})
	}
	return writeCSV(path, rows)
}

// WriteRoutesCSV writes the top routes of both years and the dropped routes.
func WriteRoutesCSV(path string, report *analysis.RouteReport) error {
	rows := [][]string{{"section", "year", "rank", "route", "seats", "margin", "eps"}}
	add := func(section, year string, records []metrics.EPSRecord) {
		for i, r := range records {
			rows = append(rows, []string{section, year, strconv.Itoa(i + 1), r.Key, itoa(r.Seats), money(r.NetAmount), r.EPS.Display()})
		}
	}
	add("top_routes", report.Baseline.Year, report.Baseline.TopRoutes)
	add("top_routes", report.Current.Year, report.Current.TopRoutes)
	add("dropped", report.Baseline.Year, report.Dropped)
	add("top_countries", report.Baseline.Year, report.Baseline.TopCountries)
	add("top_countries", report.Current.Year, report.Current.TopCountries)
	return writeCSV(path, rows)
}

func writeCSV(path string, rows [][]string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

func money(d decimal.Decimal) string { return d.StringFixedBank(2) }

// NoTripData is printed when no booking carried a trip duration.
const NoTripData = "N/A"

func minutes(d decimal.NullDecimal) string {
	if !d.Valid {
		return NoTripData
	}
	return d.Decimal.StringFixedBank(1)
}
