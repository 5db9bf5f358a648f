package analysis

import (
	"booking-metrics/internal/metrics"
)

// Columns of the refunds-by-year input table.
const (
	ColYear        = "year"
	ColTotalOrders = "total_orders"
	ColRefundCount = "refund_count"
)

var refundNarrator = metrics.Narrator{Noun: "orders", Verb: "refunded"}

// RefundYear is the refund outcome of one year.
type RefundYear struct {
	Year      string
	Orders    int64
	Refunds   int64
	Rate      metrics.Rate
	Narrative string
}

// RefundReport summarises refund behaviour across years.
type RefundReport struct {
	Years   []RefundYear
	Overall metrics.Overall
	// Focus holds the baseline and current years when present.
	Focus  []RefundYear
	Issues []QualityIssue
}

// Refunds classifies yearly refund rates.
func Refunds(t *metrics.Table, opts Options) (*RefundReport, error) {
	aggregates, err := metrics.PeriodAggregatesFromTable(t, ColYear, ColTotalOrders, ColRefundCount)
	if err != nil {
		return nil, err
	}

	results, err := metrics.ComputeRates(aggregates)
	if err != nil {
		return nil, err
	}
	overall, err := metrics.OverallRate(aggregates)
	if err != nil {
		return nil, err
	}

	report := &RefundReport{Overall: overall, Years: make([]RefundYear, 0, len(results))}
	for _, res := range results {
		line, err := refundNarrator.Summary(res.Period, res.Total, res.Events, res.Rate)
		if err != nil {
			return nil, err
		}
		year := RefundYear{
			Year:      res.Period,
			Orders:    res.Total,
			Refunds:   res.Events,
			Rate:      res.Rate,
			Narrative: line,
		}
		report.Years = append(report.Years, year)
		if res.Period == opts.baselineKey() || res.Period == opts.currentKey() {
			report.Focus = append(report.Focus, year)
		}
		if issue, ok := issueFromRate("refunds", res); ok {
			report.Issues = append(report.Issues, issue)
		}
	}

	return report, nil
}
