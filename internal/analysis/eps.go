package analysis

import (
	"booking-metrics/internal/metrics"
)

// Columns of the per-booking input table.
const (
	ColBookingID = "bid"
	ColSeats     = "seats"
	ColTotalUSD  = "total_usd"
)

// YearEPS is the mean booking EPS of one year.
type YearEPS struct {
	Year     string
	Bookings int
	// Excluded counts bookings without seats.
	Excluded int
	Mean     metrics.EPS
}

// EPSChangeReport compares mean booking EPS between two years.
type EPSChangeReport struct {
	Baseline YearEPS
	Current  YearEPS
	Change   metrics.Change
}

// EPSChange averages per-booking EPS for the baseline and current years.
// Bookings from any other year are left out of the means but must still be
// well formed.
func EPSChange(t *metrics.Table, opts Options) (*EPSChangeReport, error) {
	if err := t.Require(ColBookingID, ColYear, ColSeats, ColTotalUSD); err != nil {
		return nil, err
	}

	records, err := metrics.EPSRecordsFromTable(t, ColBookingID, ColTotalUSD, ColSeats)
	if err != nil {
		return nil, err
	}

	byYear := map[string][]metrics.EPSRecord{}
	for i, rec := range records {
		year, err := yearOf(t, i, ColYear)
		if err != nil {
			return nil, err
		}
		if year != opts.baselineKey() && year != opts.currentKey() {
			continue
		}
		byYear[year] = append(byYear[year], rec)
	}

	baseline := summariseYear(opts.baselineKey(), byYear[opts.baselineKey()])
	current := summariseYear(opts.currentKey(), byYear[opts.currentKey()])
	return &EPSChangeReport{
		Baseline: baseline,
		Current:  current,
		Change:   metrics.EPSChange(baseline.Mean, current.Mean),
	}, nil
}

func summariseYear(year string, records []metrics.EPSRecord) YearEPS {
	out := YearEPS{Year: year, Bookings: len(records), Mean: metrics.MeanEPS(records)}
	for _, rec := range records {
		if !rec.EPS.Defined() {
			out.Excluded++
		}
	}
	return out
}
