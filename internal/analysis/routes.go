package analysis

import (
	"booking-metrics/internal/metrics"
)

// Columns of the per-route input table.
const (
	ColFromStation   = "from_station_name"
	ColToStation     = "to_station_name"
	ColCountry       = "country"
	ColTotalNetPrice = "total_netprice"
)

// RouteYear holds one year's route and country rankings. Route EPS is the
// margin (revenue minus net price) per seat.
type RouteYear struct {
	Year         string
	Routes       []metrics.EPSRecord
	TopRoutes    []metrics.EPSRecord
	TopCountries []metrics.EPSRecord
	Mean         metrics.EPS
}

// RouteReport compares route profitability between two years.
type RouteReport struct {
	Baseline RouteYear
	Current  RouteYear
	Change   metrics.Change
	// Dropped lists baseline top routes missing from the current top routes.
	Dropped []metrics.EPSRecord
}

// Routes ranks routes and countries per year.
func Routes(t *metrics.Table, opts Options) (*RouteReport, error) {
	if err := t.Require(ColYear, ColFromStation, ColToStation, ColCountry, ColTotalSeats, ColTotalNetPrice, ColRevenue); err != nil {
		return nil, err
	}

	routes := map[string][]metrics.EPSRecord{}
	countries := map[string][]metrics.EPSRecord{}
	for i := range t.Rows {
		year, err := yearOf(t, i, ColYear)
		if err != nil {
			return nil, err
		}
		if year != opts.baselineKey() && year != opts.currentKey() {
			continue
		}
		from, err := t.String(i, ColFromStation)
		if err != nil {
			return nil, err
		}
		to, err := t.String(i, ColToStation)
		if err != nil {
			return nil, err
		}
		country, err := t.String(i, ColCountry)
		if err != nil {
			return nil, err
		}
		seats, err := t.SeatCount(i, ColTotalSeats)
		if err != nil {
			return nil, err
		}
		net, err := t.Decimal(i, ColTotalNetPrice)
		if err != nil {
			return nil, err
		}
		revenue, err := t.Decimal(i, ColRevenue)
		if err != nil {
			return nil, err
		}
		margin := revenue.Sub(net)

		route, err := metrics.NewEPSRecord(RouteKey(from, to), margin, seats)
		if err != nil {
			return nil, err
		}
		routes[year] = append(routes[year], route)
		countries[year] = append(countries[year], metrics.EPSRecord{Key: country, NetAmount: margin, Seats: seats, EPS: route.EPS})
	}

	baseline := rankYear(opts.baselineKey(), routes, countries, opts.TopN)
	current := rankYear(opts.currentKey(), routes, countries, opts.TopN)

	inCurrent := make(map[string]struct{}, len(current.TopRoutes))
	for _, r := range current.TopRoutes {
		inCurrent[r.Key] = struct{}{}
	}
	report := &RouteReport{
		Baseline: baseline,
		Current:  current,
		Change:   metrics.EPSChange(baseline.Mean, current.Mean),
	}
	for _, r := range baseline.TopRoutes {
		if _, ok := inCurrent[r.Key]; !ok {
			report.Dropped = append(report.Dropped, r)
		}
	}
	return report, nil
}

// RouteKey names a route by its endpoints.
func RouteKey(from, to string) string {
	return from + " -> " + to
}

func rankYear(year string, routes, countries map[string][]metrics.EPSRecord, topN int) RouteYear {
	return RouteYear{
		Year:         year,
		Routes:       routes[year],
		TopRoutes:    metrics.TopEPS(routes[year], topN),
		TopCountries: topGroups(countries[year], topN),
		Mean:         metrics.MeanEPS(routes[year]),
	}
}

func topGroups(records []metrics.EPSRecord, n int) []metrics.EPSRecord {
	groups := metrics.GroupMeanEPS(records)
	if len(groups) > n {
		groups = groups[:n]
	}
	return groups
}
