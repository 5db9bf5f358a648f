package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"booking-metrics/internal/analysis"
	"booking-metrics/internal/metrics"
	"booking-metrics/internal/storage"
)

// WriteRefundsSummary prints overall totals followed by one line per year.
func WriteRefundsSummary(w io.Writer, report *analysis.RefundReport) error {
	var b strings.Builder
	b.WriteString("Refund Statistics\n")
	fmt.Fprintf(&b, "Total Orders: %s\n", thousands(report.Overall.Total))
	fmt.Fprintf(&b, "Total Refunds: %s\n", thousands(report.Overall.Events))
	fmt.Fprintf(&b, "Overall Refund Percentage: %.2f%%\n\n", report.Overall.Percent)
	b.WriteString("Yearly Refund Statistics\n")
	for _, y := range report.Years {
		b.WriteString(y.Narrative)
		b.WriteByte('\n')
	}
	if len(report.Focus) > 0 {
		b.WriteString("\nBaseline vs Current\n")
		tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "Year\tOrders\tRefunds\tRate")
		for _, y := range report.Focus {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", y.Year, thousands(y.Orders), thousands(y.Refunds), y.Rate.Display())
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteEPSChangeSummary prints the mean EPS of both years and the change.
func WriteEPSChangeSummary(w io.Writer, report *analysis.EPSChangeReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Year\tBookings\tNo Seats\tAverage EPS")
	for _, y := range []analysis.YearEPS{report.Baseline, report.Current} {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", y.Year, y.Bookings, y.Excluded, y.Mean.Display())
	}
	fmt.Fprintf(tw, "Change\t\t\t%s\n", report.Change.Display())
	return tw.Flush()
}

// WriteVehicleClassesSummary prints the vehicle-class comparison table.
func WriteVehicleClassesSummary(w io.Writer, report *analysis.VehicleClassReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Class\tName\tRevenue %[1]s\tEPS %[1]s\tRevenue %[2]s\tEPS %[2]s\tChange\n", report.BaselineYear, report.CurrentYear)
	for _, c := range report.Classes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.VehicleClass, c.ClassName,
			money(c.Baseline.Revenue), c.Baseline.EPS.Display(),
			money(c.Current.Revenue), c.Current.EPS.Display(),
			c.Change.Display(),
		)
	}
	return tw.Flush()
}

// WriteOperatorsSummary prints EPS growth and the top operators.
func WriteOperatorsSummary(w io.Writer, report *analysis.OperatorReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Operator\tEPS %s\tEPS %s\tGrowth\n", report.BaselineYear, report.CurrentYear)
	for _, g := range report.Growth {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", g.Operator, g.Baseline.Display(), g.Current.Display(), g.Change.Display())
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nTop operators by EPS in %s\n", report.CurrentYear)
	if err := writeRanking(w, report.TopCurrent); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nSeat efficiency by operator (%s and %s)\n", report.BaselineYear, report.CurrentYear)
	return writeRanking(w, report.SeatEfficiency)
}

// WriteRoutesSummary prints route and country rankings for both years.
func WriteRoutesSummary(w io.Writer, report *analysis.RouteReport) error {
	fmt.Fprintf(w, "Average route EPS: %s in %s, %s in %s (%s)\n\n",
		report.Baseline.Mean.Display(), report.Baseline.Year,
		report.Current.Mean.Display(), report.Current.Year,
		report.Change.Display(),
	)
	sections := []struct {
		title   string
		records []metrics.EPSRecord
	}{
		{"Top routes " + report.Baseline.Year, report.Baseline.TopRoutes},
		{"Top routes " + report.Current.Year, report.Current.TopRoutes},
		{"Top " + report.Baseline.Year + " routes not in top " + report.Current.Year, report.Dropped},
		{"Top countries " + report.Baseline.Year, report.Baseline.TopCountries},
		{"Top countries " + report.Current.Year, report.Current.TopCountries},
	}
	for _, s := range sections {
		fmt.Fprintln(w, s.title)
		if err := writeRanking(w, s.records); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	return nil
}

// WriteIssuesTable prints data-quality issues, newest first.
func WriteIssuesTable(w io.Writer, issues []storage.QualityIssueRecord) error {
	if len(issues) == 0 {
		_, err := fmt.Fprintln(w, "no quality issues recorded")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Recorded (UTC)\tAnalysis\tPeriod\tKind\tTotal\tEvents\tDetail")
	for _, is := range issues {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			is.CreatedAt.UTC().Format(time.RFC3339),
			is.Analysis, is.Period, is.Kind, is.Total, is.Events,
			sanitizeInline(is.Detail),
		)
	}
	return tw.Flush()
}

func writeRanking(w io.Writer, records []metrics.EPSRecord) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, r := range records {
		fmt.Fprintf(tw, "%d.\t%s\t%s\n", i+1, r.Key, r.EPS.Display())
	}
	return tw.Flush()
}

func thousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
