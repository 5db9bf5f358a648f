package metrics

import (
	"errors"

	"github.com/shopspring/decimal"
)

// DisplayPlaces is the number of decimals a rate is shown with.
const DisplayPlaces = 4

// Display strings for degenerate outcomes. Renderers must emit these verbatim.
const (
	DisplayNoBase       = "N/A (No Orders)"
	DisplayAnomaly      = "Anomaly"
	DisplayZeroBaseline = "N/A (Zero Baseline)"
	DisplayNoData       = "N/A (No Data)"
	DisplayNoSeats      = "N/A (No Seats)"
)

// RateKind classifies a computed rate.
type RateKind int

const (
	// RateNumeric is a valid ratio in [0,1].
	RateNumeric RateKind = iota
	// RateNoBase means events were recorded against an empty population.
	RateNoBase
	// RateAnomaly means the ratio exceeded 1, a join defect upstream.
	RateAnomaly
)

func (k RateKind) String() string {
	switch k {
	case RateNoBase:
		return "no_base"
	case RateAnomaly:
		return "anomaly"
	default:
		return "numeric"
	}
}

// Rate is a tagged rate value. The zero value is the numeric rate 0.
type Rate struct {
	kind  RateKind
	value float64
}

// NumericRate wraps a plain ratio.
func NumericRate(v float64) Rate { return Rate{kind: RateNumeric, value: v} }

// NoBaseRate returns the "no base population" sentinel.
func NoBaseRate() Rate { return Rate{kind: RateNoBase} }

// AnomalyRate returns the "rate exceeds 100%" sentinel.
func AnomalyRate() Rate { return Rate{kind: RateAnomaly} }

// Kind reports how the rate was classified.
func (r Rate) Kind() RateKind { return r.kind }

// IsNumeric reports whether the rate carries a usable value.
func (r Rate) IsNumeric() bool { return r.kind == RateNumeric }

// Value returns the unrounded ratio. ok is false for sentinels.
func (r Rate) Value() (v float64, ok bool) {
	if r.kind != RateNumeric {
		return 0, false
	}
	return r.value, true
}

// Rounded returns the ratio rounded half-to-even to DisplayPlaces.
func (r Rate) Rounded() (decimal.Decimal, bool) {
	if r.kind != RateNumeric {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(r.value).RoundBank(DisplayPlaces), true
}

// Display renders the rate for humans: a fixed 4-digit ratio or a sentinel.
func (r Rate) Display() string {
	switch r.kind {
	case RateNoBase:
		return DisplayNoBase
	case RateAnomaly:
		return DisplayAnomaly
	}
	rounded, _ := r.Rounded()
	return rounded.StringFixed(DisplayPlaces)
}

func (r Rate) String() string { return r.Display() }

// ComputeRate classifies events/total for one period.
func ComputeRate(total, events int64) (Rate, error) {
	if total < 0 {
		return Rate{}, negativeInput("total", total)
	}
	if events < 0 {
		return Rate{}, negativeInput("events", events)
	}

	if total == 0 {
		if events > 0 {
			return NoBaseRate(), nil
		}
		return NumericRate(0), nil
	}
	if events > total {
		return AnomalyRate(), nil
	}
	return NumericRate(float64(events) / float64(total)), nil
}

// PeriodAggregate is a grouped count pair for one period.
type PeriodAggregate struct {
	Period string
	Total  int64
	Events int64
}

// RateResult is the classified rate of one period.
type RateResult struct {
	Period string
	Total  int64
	Events int64
	Rate   Rate
}

// ComputeRates classifies every aggregate. A DataError on any row aborts the
// batch; degenerate rates are returned per row.
func ComputeRates(aggregates []PeriodAggregate) ([]RateResult, error) {
	results := make([]RateResult, 0, len(aggregates))
	for i, agg := range aggregates {
		rate, err := ComputeRate(agg.Total, agg.Events)
		if err != nil {
			var de *DataError
			if errors.As(err, &de) {
				de.Row = i
			}
			return nil, err
		}
		results = append(results, RateResult{
			Period: agg.Period,
			Total:  agg.Total,
			Events: agg.Events,
			Rate:   rate,
		})
	}
	return results, nil
}

// Overall pools every period into a single total and percentage.
type Overall struct {
	Total   int64
	Events  int64
	Percent float64
}

// OverallRate sums totals and events. Percent is 0 when nothing was counted.
func OverallRate(aggregates []PeriodAggregate) (Overall, error) {
	var out Overall
	for i, agg := range aggregates {
		if agg.Total < 0 || agg.Events < 0 {
			return Overall{}, &DataError{Row: i, Reason: "counts must not be negative"}
		}
		out.Total += agg.Total
		out.Events += agg.Events
	}
	if out.Total > 0 {
		out.Percent = float64(out.Events) / float64(out.Total) * 100
	}
	return out, nil
}
