package metrics

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeRate_Classification(t *testing.T) {
	tests := []struct {
		name    string
		total   int64
		events  int64
		kind    RateKind
		display string
	}{
		{name: "empty period", total: 0, events: 0, kind: RateNumeric, display: "0.0000"},
		{name: "events without base", total: 0, events: 5, kind: RateNoBase, display: DisplayNoBase},
		{name: "ratio above one", total: 10, events: 15, kind: RateAnomaly, display: DisplayAnomaly},
		{name: "quarter", total: 200, events: 50, kind: RateNumeric, display: "0.2500"},
		{name: "all events", total: 7, events: 7, kind: RateNumeric, display: "1.0000"},
		{name: "no events", total: 40, events: 0, kind: RateNumeric, display: "0.0000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := ComputeRate(tt.total, tt.events)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, rate.Kind())
			assert.Equal(t, tt.display, rate.Display())
		})
	}
}

func TestComputeRate_ZeroOverZeroIsExactZero(t *testing.T) {
	rate, err := ComputeRate(0, 0)
	require.NoError(t, err)

	v, ok := rate.Value()
	require.True(t, ok)
	assert.Equal(t, 0.0, v)
}

func TestComputeRate_KeepsFullPrecision(t *testing.T) {
	rate, err := ComputeRate(3, 1)
	require.NoError(t, err)

	v, ok := rate.Value()
	require.True(t, ok)
	assert.Equal(t, 1.0/3.0, v)
	assert.Equal(t, "0.3333", rate.Display())
}

func TestComputeRate_DisplayRoundsHalfToEven(t *testing.T) {
	// 1/20000 = 0.00005 rounds down to the even digit.
	down, err := ComputeRate(20000, 1)
	require.NoError(t, err)
	assert.Equal(t, "0.0000", down.Display())

	// 3/20000 = 0.00015 rounds up to the even digit.
	up, err := ComputeRate(20000, 3)
	require.NoError(t, err)
	assert.Equal(t, "0.0002", up.Display())

	rounded, ok := up.Rounded()
	require.True(t, ok)
	assert.True(t, rounded.Equal(decimal.RequireFromString("0.0002")))
}

func TestComputeRate_RejectsNegativeInput(t *testing.T) {
	_, err := ComputeRate(-1, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrData))

	_, err = ComputeRate(10, -3)
	var de *DataError
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Error(), "events")
}

func TestComputeRate_Idempotent(t *testing.T) {
	for _, in := range [][2]int64{{0, 0}, {0, 5}, {10, 15}, {200, 50}, {9, 4}} {
		a, errA := ComputeRate(in[0], in[1])
		b, errB := ComputeRate(in[0], in[1])
		require.NoError(t, errA)
		require.NoError(t, errB)
		assert.Equal(t, a, b)
	}
}

func TestComputeRate_NeverLeavesValidRange(t *testing.T) {
	for total := int64(0); total <= 12; total++ {
		for events := int64(0); events <= 12; events++ {
			rate, err := ComputeRate(total, events)
			require.NoError(t, err)
			if v, ok := rate.Value(); ok {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 1.0)
			} else {
				assert.Contains(t, []RateKind{RateNoBase, RateAnomaly}, rate.Kind())
			}
		}
	}
}

func TestComputeRates_FailsFastOnNegativeRow(t *testing.T) {
	_, err := ComputeRates([]PeriodAggregate{
		{Period: "2019", Total: 10, Events: 1},
		{Period: "2020", Total: -4, Events: 1},
		{Period: "2021", Total: 0, Events: 3},
	})

	var de *DataError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 1, de.Row)
}

func TestComputeRates_DegenerateRowsDoNotAbort(t *testing.T) {
	results, err := ComputeRates([]PeriodAggregate{
		{Period: "2019", Total: 0, Events: 3},
		{Period: "2020", Total: 10, Events: 30},
		{Period: "2021", Total: 100, Events: 4},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, RateNoBase, results[0].Rate.Kind())
	assert.Equal(t, RateAnomaly, results[1].Rate.Kind())
	assert.Equal(t, "0.0400", results[2].Rate.Display())
}

func TestOverallRate(t *testing.T) {
	overall, err := OverallRate([]PeriodAggregate{
		{Period: "2019", Total: 300, Events: 30},
		{Period: "2020", Total: 0, Events: 5},
		{Period: "2021", Total: 200, Events: 15},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(500), overall.Total)
	assert.Equal(t, int64(50), overall.Events)
	assert.InDelta(t, 10.0, overall.Percent, 1e-9)

	empty, err := OverallRate(nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, empty.Percent)
}
