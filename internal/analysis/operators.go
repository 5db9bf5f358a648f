package analysis

import (
	"sort"

	"github.com/shopspring/decimal"

	"booking-metrics/internal/metrics"
)

// Columns of the per-booking operator input table.
const (
	ColOperator     = "operator_id"
	ColNetPrice     = "netprice_usd"
	ColRefundUSD    = "refund_usd"
	ColTripDuration = "trip_duration_minutes"
)

// OperatorYear aggregates one operator's bookings in one year.
type OperatorYear struct {
	Operator        string
	Year            string
	Bookings        int
	NetRevenue      decimal.Decimal
	Seats           int64
	Refunds         decimal.Decimal
	Total           decimal.Decimal
	NetAfterRefund  decimal.Decimal
	MeanEPS         metrics.EPS
	// MeanTripMinutes is invalid when no booking carried a trip duration.
	MeanTripMinutes decimal.NullDecimal
}

// OperatorGrowth is an operator's EPS change between the two years.
type OperatorGrowth struct {
	Operator string
	Baseline metrics.EPS
	Current  metrics.EPS
	Change   metrics.Change
}

// OperatorReport bundles the per-operator breakdowns.
type OperatorReport struct {
	BaselineYear string
	CurrentYear  string
	Years        []OperatorYear
	Growth       []OperatorGrowth
	// SeatEfficiency is the mean booking EPS per operator across both years.
	SeatEfficiency []metrics.EPSRecord
	// TopCurrent ranks operators by mean EPS in the current year.
	TopCurrent []metrics.EPSRecord
}

type operatorAcc struct {
	year     OperatorYear
	eps      []metrics.EPSRecord
	tripSum  decimal.Decimal
	tripRows int64
}

// Operators groups bookings by operator and year.
func Operators(t *metrics.Table, opts Options) (*OperatorReport, error) {
	if err := t.Require(ColOperator, ColYear, ColNetPrice, ColSeats, ColRefundUSD, ColTotalUSD, ColTripDuration); err != nil {
		return nil, err
	}

	type groupKey struct{ operator, year string }
	order := make([]groupKey, 0)
	groups := map[groupKey]*operatorAcc{}
	byOperator := map[string][]metrics.EPSRecord{}

	for i := range t.Rows {
		year, err := yearOf(t, i, ColYear)
		if err != nil {
			return nil, err
		}
		if year != opts.baselineKey() && year != opts.currentKey() {
			continue
		}
		operator, err := t.String(i, ColOperator)
		if err != nil {
			return nil, err
		}
		net, err := t.Decimal(i, ColNetPrice)
		if err != nil {
			return nil, err
		}
		seats, err := t.SeatCount(i, ColSeats)
		if err != nil {
			return nil, err
		}
		refund := decimal.Zero
		if !t.IsNull(i, ColRefundUSD) {
			if refund, err = t.Decimal(i, ColRefundUSD); err != nil {
				return nil, err
			}
		}
		total, err := t.Decimal(i, ColTotalUSD)
		if err != nil {
			return nil, err
		}
		rec, err := metrics.NewEPSRecord(operator, net, seats)
		if err != nil {
			return nil, err
		}

		key := groupKey{operator: operator, year: year}
		acc, ok := groups[key]
		if !ok {
			acc = &operatorAcc{year: OperatorYear{
				Operator:   operator,
				Year:       year,
				NetRevenue: decimal.Zero,
				Refunds:    decimal.Zero,
				Total:      decimal.Zero,
			}, tripSum: decimal.Zero}
			groups[key] = acc
			order = append(order, key)
		}
		acc.year.Bookings++
		acc.year.NetRevenue = acc.year.NetRevenue.Add(net)
		acc.year.Seats += seats
		acc.year.Refunds = acc.year.Refunds.Add(refund)
		acc.year.Total = acc.year.Total.Add(total)
		acc.eps = append(acc.eps, rec)
		if !t.IsNull(i, ColTripDuration) {
			minutes, err := t.Decimal(i, ColTripDuration)
			if err != nil {
				return nil, err
			}
			acc.tripSum = acc.tripSum.Add(minutes)
			acc.tripRows++
		}
		byOperator[operator] = append(byOperator[operator], rec)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].operator != order[j].operator {
			return order[i].operator < order[j].operator
		}
		return order[i].year < order[j].year
	})

	report := &OperatorReport{BaselineYear: opts.baselineKey(), CurrentYear: opts.currentKey()}
	current := make([]metrics.EPSRecord, 0)
	for _, key := range order {
		acc := groups[key]
		y := acc.year
		y.NetAfterRefund = y.NetRevenue.Sub(y.Refunds)
		y.MeanEPS = metrics.MeanEPS(acc.eps)
		if acc.tripRows > 0 {
			y.MeanTripMinutes = decimal.NewNullDecimal(acc.tripSum.Div(decimal.NewFromInt(acc.tripRows)))
		}
		report.Years = append(report.Years, y)
		if key.year == opts.currentKey() {
			current = append(current, metrics.EPSRecord{Key: y.Operator, NetAmount: y.NetRevenue, Seats: y.Seats, EPS: y.MeanEPS})
		}
	}

	operators := make([]string, 0, len(byOperator))
	for op := range byOperator {
		operators = append(operators, op)
	}
	sort.Strings(operators)
	for _, op := range operators {
		var baseline, cur metrics.EPS
		if acc, ok := groups[groupKey{operator: op, year: opts.baselineKey()}]; ok {
			baseline = metrics.MeanEPS(acc.eps)
		}
		if acc, ok := groups[groupKey{operator: op, year: opts.currentKey()}]; ok {
			cur = metrics.MeanEPS(acc.eps)
		}
		report.Growth = append(report.Growth, OperatorGrowth{
			Operator: op,
			Baseline: baseline,
			Current:  cur,
			Change:   metrics.EPSChange(baseline, cur),
		})
	}

	all := make([]metrics.EPSRecord, 0)
	for _, op := range operators {
		all = append(all, byOperator[op]...)
	}
	report.SeatEfficiency = metrics.GroupMeanEPS(all)
	report.TopCurrent = metrics.TopEPS(current, opts.TopN)
	return report, nil
}
