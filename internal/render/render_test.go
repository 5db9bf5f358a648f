package render

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-metrics/internal/analysis"
	"booking-metrics/internal/metrics"
	"booking-metrics/internal/storage"
)

func refundFixture(t *testing.T) *analysis.RefundReport {
	t.Helper()
	tbl := metrics.NewTable(analysis.ColYear, analysis.ColTotalOrders, analysis.ColRefundCount)
	tbl.Append(2018, 0, 4)
	tbl.Append(2019, 1200, 60)
	tbl.Append(2020, 10, 30)
	tbl.Append(2021, 900, 30)
	tbl.Append(2023, 1500, 45)

	report, err := analysis.Refunds(tbl, analysis.Options{BaselineYear: 2019, CurrentYear: 2023, TopN: 5})
	require.NoError(t, err)
	return report
}

func TestWriteRefundsCSV_KeepsSentinels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "refunds.csv")
	require.NoError(t, WriteRefundsCSV(path, refundFixture(t)))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 6)
	assert.Equal(t, []string{"year", "total_orders", "refund_count", "refund_rate", "rate_kind", "summary"}, rows[0])
	assert.Equal(t, metrics.DisplayNoBase, rows[1][3])
	assert.Equal(t, "no_base", rows[1][4])
	assert.Equal(t, "0.0500", rows[2][3])
	assert.Equal(t, metrics.DisplayAnomaly, rows[3][3])
}

func TestWriteRateChart(t *testing.T) {
	report := refundFixture(t)
	rates := make([]PeriodRate, 0, len(report.Years))
	for _, y := range report.Years {
		rates = append(rates, PeriodRate{Period: y.Year, Rate: y.Rate})
	}

	path := filepath.Join(t.TempDir(), "refund_rate.png")
	require.NoError(t, WriteRateChart(path, "Refund Rate by Year", rates))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestWriteRateChart_NotEnoughPoints(t *testing.T) {
	rates := []PeriodRate{
		{Period: "2019", Rate: metrics.NumericRate(0.1)},
		{Period: "2020", Rate: metrics.AnomalyRate()},
	}
	err := WriteRateChart(filepath.Join(t.TempDir(), "x.png"), "Refund Rate", rates)
	assert.ErrorIs(t, err, ErrNotEnoughData)
}

func TestWriteBarChart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eps.png")
	err := WriteBarChart(path, "Average EPS", "EPS", []Bar{
		{Label: "2019", Value: 412.5},
		{Label: "2023", Value: 518.2},
	})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	assert.ErrorIs(t, WriteBarChart(path, "empty", "EPS", nil), ErrNotEnoughData)
}

func TestWriteRefundsSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRefundsSummary(&buf, refundFixture(t)))

	out := buf.String()
	assert.Contains(t, out, "Total Orders: 3,610")
	assert.Contains(t, out, "Total Refunds: 169")
	assert.Contains(t, out, "2018: no orders in this period")
	assert.Contains(t, out, "2019: 1 of every 20 orders refunded (0.0500 rate)")
	assert.Contains(t, out, "2020: 30 refunded against 10 orders (Anomaly)")
}

func TestWriteIssuesTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteIssuesTable(&buf, nil))
	assert.Equal(t, "no quality issues recorded\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteIssuesTable(&buf, []storage.QualityIssueRecord{{
		Analysis:  "refunds",
		Period:    "2020",
		Kind:      "anomaly",
		Total:     10,
		Events:    30,
		Detail:    "30 events\nexceed base of 10",
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}}))
	assert.Contains(t, buf.String(), "2024-01-02T03:04:05Z")
	assert.Contains(t, buf.String(), "30 events exceed base of 10")
}

func TestThousands(t *testing.T) {
	assert.Equal(t, "0", thousands(0))
	assert.Equal(t, "999", thousands(999))
	assert.Equal(t, "1,000", thousands(1000))
	assert.Equal(t, "1,234,567", thousands(1234567))
	assert.Equal(t, "-12,345", thousands(-12345))
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func operatorFixture(t *testing.T) *analysis.OperatorReport {
	t.Helper()
	tbl := metrics.NewTable(analysis.ColOperator, analysis.ColYear, analysis.ColNetPrice, analysis.ColSeats,
		analysis.ColRefundUSD, analysis.ColTotalUSD, analysis.ColTripDuration)
	tbl.Append("op1", 2019, "100", 2, "0", "120", 90)
	tbl.Append("op1", 2023, "90", 1, "0", "100", nil)
	tbl.Append("op2", 2019, "300", 2, "0", "320", 30)
	tbl.Append("op2", 2023, "60", 3, nil, "70", 30)

	report, err := analysis.Operators(tbl, analysis.Options{BaselineYear: 2019, CurrentYear: 2023, TopN: 5})
	require.NoError(t, err)
	return report
}

func TestWriteOperatorsCSV_MissingTripDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "operators.csv")
	require.NoError(t, WriteOperatorsCSV(path, operatorFixture(t)))

	rows := readCSV(t, path)
	require.Len(t, rows, 5)
	assert.Equal(t, "mean_trip_minutes", rows[0][9])
	assert.Equal(t, []string{"op1", "2019", "90.0"}, []string{rows[1][0], rows[1][1], rows[1][9]})
	assert.Equal(t, []string{"op1", "2023", NoTripData}, []string{rows[2][0], rows[2][1], rows[2][9]})
}

func TestWriteSeatEfficiency(t *testing.T) {
	report := operatorFixture(t)

	path := filepath.Join(t.TempDir(), "seat_efficiency.csv")
	require.NoError(t, WriteSeatEfficiencyCSV(path, report))
	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1", "op2", "360.00", "5", "85.00"}, rows[1])
	assert.Equal(t, []string{"2", "op1", "190.00", "3", "70.00"}, rows[2])

	var buf bytes.Buffer
	require.NoError(t, WriteOperatorsSummary(&buf, report))
	assert.Contains(t, buf.String(), "Seat efficiency by operator (2019 and 2023)")
	assert.Contains(t, buf.String(), "op1")
}

func TestWriteRefundFocus(t *testing.T) {
	report := refundFixture(t)

	path := filepath.Join(t.TempDir(), "refund_focus.csv")
	require.NoError(t, WriteRefundFocusCSV(path, report))
	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"2019", "1200", "60", "0.0500"}, rows[1])
	assert.Equal(t, []string{"2023", "1500", "45", "0.0300"}, rows[2])

	var buf bytes.Buffer
	require.NoError(t, WriteRefundsSummary(&buf, report))
	assert.Contains(t, buf.String(), "Baseline vs Current")
	assert.Contains(t, buf.String(), "1,500")
}
