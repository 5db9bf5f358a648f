package analysis

import (
	"sort"

	"github.com/shopspring/decimal"

	"booking-metrics/internal/metrics"
)

// Columns of the vehicle-class input table.
const (
	ColVehicleClass = "vehclass_id"
	ColClassName    = "class_name"
	ColRevenue      = "total_revenue"
	ColTotalSeats   = "total_seats"
)

// ClassSide is one year's figures for a vehicle class.
type ClassSide struct {
	Revenue decimal.Decimal
	Seats   int64
	EPS     metrics.EPS
}

// ClassComparison pairs a vehicle class across the two years.
type ClassComparison struct {
	VehicleClass string
	ClassName    string
	Baseline     ClassSide
	Current      ClassSide
	Change       metrics.Change
}

// VehicleClassReport lists the classes present in both years.
type VehicleClassReport struct {
	BaselineYear string
	CurrentYear  string
	Classes      []ClassComparison
}

// VehicleClasses joins baseline and current rows on the vehicle class and
// keeps the TopN classes by baseline revenue.
func VehicleClasses(t *metrics.Table, opts Options) (*VehicleClassReport, error) {
	if err := t.Require(ColYear, ColVehicleClass, ColClassName, ColRevenue, ColTotalSeats); err != nil {
		return nil, err
	}

	// Classes are keyed by id and name; one id can carry several names.
	type classKey struct{ id, name string }
	type sides struct {
		baseline, current *ClassSide
	}
	order := make([]classKey, 0)
	classes := map[classKey]*sides{}

	for i := range t.Rows {
		year, err := yearOf(t, i, ColYear)
		if err != nil {
			return nil, err
		}
		if year != opts.baselineKey() && year != opts.currentKey() {
			continue
		}
		class, err := t.String(i, ColVehicleClass)
		if err != nil {
			return nil, err
		}
		name, err := t.String(i, ColClassName)
		if err != nil {
			return nil, err
		}
		revenue, err := t.Decimal(i, ColRevenue)
		if err != nil {
			return nil, err
		}
		seats, err := t.SeatCount(i, ColTotalSeats)
		if err != nil {
			return nil, err
		}

		key := classKey{id: class, name: name}
		s, ok := classes[key]
		if !ok {
			s = &sides{}
			classes[key] = s
			order = append(order, key)
		}
		side := s.current
		if year == opts.baselineKey() {
			side = s.baseline
		}
		if side == nil {
			side = &ClassSide{Revenue: decimal.Zero}
			if year == opts.baselineKey() {
				s.baseline = side
			} else {
				s.current = side
			}
		}
		side.Revenue = side.Revenue.Add(revenue)
		side.Seats += seats
	}

	report := &VehicleClassReport{BaselineYear: opts.baselineKey(), CurrentYear: opts.currentKey()}
	for _, key := range order {
		s := classes[key]
		if s.baseline == nil || s.current == nil {
			continue
		}
		for _, side := range []*ClassSide{s.baseline, s.current} {
			eps, err := metrics.ComputeEPS(side.Revenue, side.Seats)
			if err != nil {
				return nil, err
			}
			side.EPS = eps
		}
		report.Classes = append(report.Classes, ClassComparison{
			VehicleClass: key.id,
			ClassName:    key.name,
			Baseline:     *s.baseline,
			Current:      *s.current,
			Change:       metrics.EPSChange(s.baseline.EPS, s.current.EPS),
		})
	}

	sort.SliceStable(report.Classes, func(i, j int) bool {
		return report.Classes[i].Baseline.Revenue.GreaterThan(report.Classes[j].Baseline.Revenue)
	})
	if len(report.Classes) > opts.TopN {
		report.Classes = report.Classes[:opts.TopN]
	}
	return report, nil
}
