package metrics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNarrativeSummary(t *testing.T) {
	rate, _ := ComputeRate(200, 50)
	line, err := NarrativeSummary("2019", 200, 50, rate)
	require.NoError(t, err)
	assert.Equal(t, "2019: 1 of every 4 records flagged (0.2500 rate)", line)

	zero, _ := ComputeRate(80, 0)
	line, err = NarrativeSummary("2020", 80, 0, zero)
	require.NoError(t, err)
	assert.Equal(t, "2020: 0 flagged (0.0000 rate)", line)

	noBase, _ := ComputeRate(0, 12)
	line, err = NarrativeSummary("2021", 0, 12, noBase)
	require.NoError(t, err)
	assert.Equal(t, "2021: no records in this period", line)

	refunds := Narrator{Noun: "orders", Verb: "refunded"}
	r, _ := ComputeRate(1000, 3)
	line, err = refunds.Summary("2023", 1000, 3, r)
	require.NoError(t, err)
	assert.Equal(t, "2023: 1 of every 333 orders refunded (0.0030 rate)", line)

	_, err = NarrativeSummary("2024", -1, 0, Rate{})
	assert.ErrorIs(t, err, ErrData)
}

func TestNarrativeSummary_Anomaly(t *testing.T) {
	rate, _ := ComputeRate(10, 30)
	line, err := NarrativeSummary("2022", 10, 30, rate)
	require.NoError(t, err)
	assert.Equal(t, "2022: 30 flagged against 10 records (Anomaly)", line)
}

func TestTable_PeriodAggregates(t *testing.T) {
	tbl := NewTable("year", "total_orders", "refund_count")
	tbl.Append(int32(2019), int64(300), int64(12))
	tbl.Append(2020, float64(0), "4")
	tbl.Append("2021", decimal.NewFromInt(50), []byte("5"))

	aggs, err := PeriodAggregatesFromTable(tbl, "year", "total_orders", "refund_count")
	require.NoError(t, err)
	require.Len(t, aggs, 3)
	assert.Equal(t, PeriodAggregate{Period: "2019", Total: 300, Events: 12}, aggs[0])
	assert.Equal(t, PeriodAggregate{Period: "2020", Total: 0, Events: 4}, aggs[1])
	assert.Equal(t, PeriodAggregate{Period: "2021", Total: 50, Events: 5}, aggs[2])
}

func TestTable_MissingColumn(t *testing.T) {
	tbl := NewTable("year", "total_orders")
	tbl.Append(2019, 10)

	_, err := PeriodAggregatesFromTable(tbl, "year", "total_orders", "refund_count")
	var de *DataError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "refund_count", de.Column)
	assert.Contains(t, err.Error(), "required column missing")
}

func TestTable_NonNumericCell(t *testing.T) {
	tbl := NewTable("year", "total_orders", "refund_count")
	tbl.Append(2019, 10, 1)
	tbl.Append(2020, "lots", 1)

	_, err := PeriodAggregatesFromTable(tbl, "year", "total_orders", "refund_count")
	var de *DataError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "total_orders", de.Column)
	assert.Equal(t, 1, de.Row)

	frac := NewTable("year", "total_orders", "refund_count")
	frac.Append(2019, 10.5, 1)
	_, err = PeriodAggregatesFromTable(frac, "year", "total_orders", "refund_count")
	assert.ErrorIs(t, err, ErrData)

	null := NewTable("year", "total_orders", "refund_count")
	null.Append(2019, nil, 1)
	_, err = PeriodAggregatesFromTable(null, "year", "total_orders", "refund_count")
	assert.ErrorIs(t, err, ErrData)
}

func TestTable_NegativeCount(t *testing.T) {
	tbl := NewTable("year", "total_orders", "refund_count")
	tbl.Append(2019, 10, -1)

	_, err := PeriodAggregatesFromTable(tbl, "year", "total_orders", "refund_count")
	assert.ErrorIs(t, err, ErrData)
}

func TestTable_EPSRecords(t *testing.T) {
	tbl := NewTable("class", "revenue", "seats")
	tbl.Append("bus", "120.50", int64(2))
	tbl.Append("avia", 300.0, nil)
	tbl.Append("ferry", decimal.NewFromInt(90), 0)

	records, err := EPSRecordsFromTable(tbl, "class", "revenue", "seats")
	require.NoError(t, err)
	require.Len(t, records, 3)

	v, ok := records[0].EPS.Value()
	require.True(t, ok)
	assert.True(t, v.Equal(dec("60.25")))
	assert.False(t, records[1].EPS.Defined())
	assert.False(t, records[2].EPS.Defined())

	bad := NewTable("class", "revenue", "seats")
	bad.Append("bus", "n/a", 1)
	_, err = EPSRecordsFromTable(bad, "class", "revenue", "seats")
	assert.ErrorIs(t, err, ErrData)
}

func TestTable_SeatCount(t *testing.T) {
	tbl := NewTable("seats")
	tbl.Append(nil)
	tbl.Append(int32(4))
	tbl.Append(-2)

	seats, err := tbl.SeatCount(0, "seats")
	require.NoError(t, err)
	assert.Equal(t, int64(0), seats)

	seats, err = tbl.SeatCount(1, "seats")
	require.NoError(t, err)
	assert.Equal(t, int64(4), seats)

	_, err = tbl.SeatCount(2, "seats")
	var de *DataError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "seats", de.Column)
	assert.Equal(t, 2, de.Row)
}

func TestTable_IntRejectsOutOfRangeFloat(t *testing.T) {
	tbl := NewTable("n")
	tbl.Append(1e19)
	tbl.Append(-1e19)
	tbl.Append(9.223372036854775807e18)
	tbl.Append(float64(1 << 62))

	for row := 0; row < 3; row++ {
		_, err := tbl.Int(row, "n")
		assert.ErrorIs(t, err, ErrData, "row %d", row)
	}

	v, err := tbl.Int(3, "n")
	require.NoError(t, err)
	assert.Equal(t, int64(1<<62), v)
}
